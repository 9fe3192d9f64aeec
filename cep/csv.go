package cep

import "strings"

// countCommas counts the commas in a single line, which is the only
// delimiter the CEP reader recognises (no RFC 4180 quoting, spec.md
// §4.6.3).
func countCommas(line string) int {
	return strings.Count(line, ",")
}

// splitCSVLines splits csvText into lines on CRLF. It returns an error if
// the text contains a bare LF not immediately preceded by CR (spec.md
// §4.6.2: "LF-only input must be rejected as malformed"), or if the text
// is empty. The header (lines[0]) is returned verbatim; blank interior
// data rows are dropped rather than treated as a zero-arity row (spec.md
// §4.6.2: "every subsequent non-empty row ... is appended").
func splitCSVLines(csvText string) ([]string, error) {
	if csvText == "" {
		return nil, ErrNoDataRows
	}
	if strings.Contains(csvText, "\n") && !onlyCRLFLineEndings(csvText) {
		return nil, ErrBadLineEnding
	}

	trimmed := strings.TrimSuffix(csvText, "\r\n")
	if trimmed == "" {
		return nil, ErrNoDataRows
	}

	split := strings.Split(trimmed, "\r\n")
	lines := split[:1]
	for _, row := range split[1:] {
		if row != "" {
			lines = append(lines, row)
		}
	}
	return lines, nil
}

// onlyCRLFLineEndings reports whether every newline in s is part of a
// CRLF pair.
func onlyCRLFLineEndings(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			if i == 0 || s[i-1] != '\r' {
				return false
			}
		}
	}
	return true
}
