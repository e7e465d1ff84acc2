package section

import (
	"strings"
)

// Section is a named, line-delimited region of a document.
// Start is the line index of the heading. End is the exclusive index where
// the next level-1 heading begins; for the last section it is the line
// count, minus the empty final line a newline-terminated document splits
// into — that line belongs to the document, so replacing [Start+1, End)
// keeps the terminal newline intact. Lines holds the lines strictly
// between the heading and End.
type Section struct {
	Title string
	Start int
	End   int
	Lines []string
}

// Content returns the section body as a single string.
func (s Section) Content() string {
	return strings.Join(s.Lines, "\n")
}

// Registry maps section titles to sections, preserving document order.
// Titles are unique; when a title repeats, the last occurrence wins and the
// title is recorded as a duplicate so callers can treat repetition as a
// validation problem.
type Registry struct {
	order      []string
	byTitle    map[string]Section
	duplicates []string
}

func newRegistry() *Registry {
	return &Registry{byTitle: make(map[string]Section)}
}

func (r *Registry) add(s Section) {
	if _, exists := r.byTitle[s.Title]; exists {
		// Last occurrence wins; re-append so document order tracks the
		// surviving section.
		for i, t := range r.order {
			if t == s.Title {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
		if !containsString(r.duplicates, s.Title) {
			r.duplicates = append(r.duplicates, s.Title)
		}
	}
	r.byTitle[s.Title] = s
	r.order = append(r.order, s.Title)
}

// Get returns the section with the given title.
func (r *Registry) Get(title string) (Section, bool) {
	s, ok := r.byTitle[title]
	return s, ok
}

// Has returns true if a section with the given title exists.
func (r *Registry) Has(title string) bool {
	_, ok := r.byTitle[title]
	return ok
}

// Titles returns all section titles in document order.
func (r *Registry) Titles() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Sections returns all sections in document order.
func (r *Registry) Sections() []Section {
	out := make([]Section, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, r.byTitle[t])
	}
	return out
}

// Duplicates returns the titles that appeared more than once, in first
// repetition order. Empty when every heading was unique.
func (r *Registry) Duplicates() []string {
	out := make([]string, len(r.duplicates))
	copy(out, r.duplicates)
	return out
}

// Len returns the number of sections.
func (r *Registry) Len() int {
	return len(r.order)
}

// Parse scans text and returns the registry of level-1 sections.
// It never fails: a document with no level-1 heading yields an empty
// registry.
func Parse(text string) *Registry {
	reg := newRegistry()
	lines := SplitLines(text)

	open := false
	var cur Section
	for i, line := range lines {
		title, ok := headingTitle(line)
		if !ok {
			continue
		}
		if open {
			cur.End = i
			cur.Lines = lines[cur.Start+1 : cur.End]
			reg.add(cur)
		}
		cur = Section{Title: title, Start: i}
		open = true
	}
	if open {
		cur.End = len(lines)
		// A trailing newline splits into one empty final line; keep it
		// out of the section so its content and replacement range end
		// at the last real line.
		if cur.End-1 > cur.Start && lines[cur.End-1] == "" {
			cur.End--
		}
		cur.Lines = lines[cur.Start+1 : cur.End]
		reg.add(cur)
	}
	return reg
}

// Exists reports whether text contains a section with the given title.
func Exists(text, title string) bool {
	return Parse(text).Has(title)
}

// SplitLines splits text into its lines. A trailing newline yields a final
// empty line, matching the line-count convention used by Section.End.
func SplitLines(text string) []string {
	return strings.Split(text, "\n")
}

// headingTitle reports whether line is a strict level-1 heading and returns
// its trimmed title. The line must be one '#', one or more spaces, then at
// least one character that is not '#'. Deeper headings and bare "#" lines
// are not delimiters.
func headingTitle(line string) (string, bool) {
	if len(line) < 2 || line[0] != '#' || line[1] != ' ' {
		return "", false
	}
	title := strings.TrimSpace(line[1:])
	if title == "" {
		return "", false
	}
	hasNonHash := false
	for _, r := range title {
		if r != '#' {
			hasNonHash = true
			break
		}
	}
	if !hasNonHash {
		return "", false
	}
	return title, true
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
