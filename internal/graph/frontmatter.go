package graph

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// splitFrontmatter separates a leading "---"-delimited YAML metadata block
// from the markdown body. Parsing never fails: a missing or malformed block
// degrades to empty metadata with the entire document as body.
func splitFrontmatter(text string) (map[string]any, string) {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || !isDelimiter(lines[0]) {
		return map[string]any{}, text
	}

	for i := 1; i < len(lines); i++ {
		if !isDelimiter(lines[i]) {
			continue
		}

		block := strings.Join(lines[1:i], "\n")
		body := strings.TrimLeft(strings.Join(lines[i+1:], "\n"), "\n")

		var meta map[string]any
		if err := yaml.Unmarshal([]byte(block), &meta); err != nil || meta == nil {
			meta = map[string]any{}
		}
		return meta, body
	}

	// Opening delimiter with no closing one: treat the whole document as body.
	return map[string]any{}, text
}

// isDelimiter reports whether a line is a frontmatter boundary (three
// dashes, trailing whitespace allowed).
func isDelimiter(line string) bool {
	return strings.TrimRight(line, " \t\r") == "---"
}

// stringField returns a non-empty trimmed string value from metadata, or ""
// if the key is absent, empty, or not a string.
func stringField(meta map[string]any, key string) string {
	if v, ok := meta[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// intField returns an integer value from metadata, accepting both native
// integers and numeric strings. Returns 0, false if absent or non-numeric.
func intField(meta map[string]any, key string) (int, bool) {
	switch v := meta[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		n := 0
		for _, r := range s {
			if r < '0' || r > '9' {
				return 0, false
			}
			n = n*10 + int(r-'0')
		}
		return n, true
	default:
		return 0, false
	}
}
