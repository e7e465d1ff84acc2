package engine

import "time"

// Default timing values.
const (
	// DefaultDebounce is the quiet period after a local edit before it is
	// committed to the document.
	DefaultDebounce = 300 * time.Millisecond

	// DefaultCooldown is how long the guard stays set after a write, long
	// enough to absorb the store's asynchronous change notification.
	DefaultCooldown = 100 * time.Millisecond
)

// Option configures an Engine during creation.
type Option func(*Engine)

// WithDebounce sets the local-edit debounce window.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.debounce = d
		}
	}
}

// WithCooldown sets how long the guard stays set after a write completes.
func WithCooldown(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.cooldown = d
		}
	}
}

// WithRows sets the grid row count used when validating boards.
func WithRows(rows int) Option {
	return func(e *Engine) {
		if rows > 0 {
			e.rows = rows
		}
	}
}
