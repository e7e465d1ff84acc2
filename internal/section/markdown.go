package section

import "strings"

// Generate emits a complete section: heading, blank separator line, then
// content normalized to end in exactly one newline. Titles containing a
// newline or '#' are rejected with *TitleError.
func Generate(title, content string) (string, error) {
	if err := checkTitle(title); err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(strings.TrimSpace(title))
	b.WriteString("\n\n")
	body := strings.TrimRight(content, "\n")
	if body != "" {
		b.WriteString(body)
		b.WriteString("\n")
	}
	return b.String(), nil
}

// InsertMissing appends generated empty sections for every title not already
// present, in the order given, separated from the trailing content by a
// blank line. Text is returned unchanged when nothing is missing.
func InsertMissing(text string, titles []string) (string, error) {
	reg := Parse(text)
	var missing []string
	for _, t := range titles {
		if !reg.Has(t) {
			missing = append(missing, t)
		}
	}
	if len(missing) == 0 {
		return text, nil
	}

	out := text
	for _, t := range missing {
		gen, err := Generate(t, "")
		if err != nil {
			return text, err
		}
		base := strings.TrimRight(out, "\n")
		if base == "" {
			out = gen
			continue
		}
		out = base + "\n\n" + gen
	}
	return out, nil
}

// ValidateRequired parses text and reports which of the given titles are
// absent, in input order. The registry is returned either way so callers can
// keep working with the sections that do exist.
func ValidateRequired(text string, titles []string) (*Registry, []string) {
	reg := Parse(text)
	var missing []string
	for _, t := range titles {
		if !reg.Has(t) {
			missing = append(missing, t)
		}
	}
	return reg, missing
}
