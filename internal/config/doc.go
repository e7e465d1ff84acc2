// Package config loads board layouts and engine settings.
//
// Boards live as one JSON file per model in a boards directory; fields are
// pulled with gjson and type-checked one by one so a malformed block
// produces a named, per-block error instead of an opaque unmarshal failure.
// Engine settings come from a TOML file; a missing file means defaults, not
// an error. A Reloader watches the boards directory and reruns registered
// handlers when a board file changes.
package config
