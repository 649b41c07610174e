package verify

import (
	"fmt"
	"strings"
)

// NameMatchMode controls how OCR output is matched against the claimed name.
// MatchExact requires some extracted line to equal the claimed name
// (case-insensitive, surrounding whitespace ignored). MatchContains accepts
// the claimed name appearing as a substring of the concatenated lines.
type NameMatchMode string

const (
	MatchExact    NameMatchMode = "exact"
	MatchContains NameMatchMode = "contains"
)

func ParseNameMatchMode(s string) (NameMatchMode, error) {
	switch NameMatchMode(s) {
	case MatchExact, MatchContains:
		return NameMatchMode(s), nil
	default:
		return "", fmt.Errorf("unknown name match mode %q", s)
	}
}

// Matches reports whether the claimed name is found in the extracted lines.
func (m NameMatchMode) Matches(lines []string, claimedName string) bool {
	claimed := strings.ToLower(strings.TrimSpace(claimedName))
	if claimed == "" {
		return false
	}

	if m == MatchContains {
		normalized := make([]string, 0, len(lines))
		for _, line := range lines {
			normalized = append(normalized, strings.ToLower(strings.TrimSpace(line)))
		}
		return strings.Contains(strings.Join(normalized, " "), claimed)
	}

	for _, line := range lines {
		if strings.ToLower(strings.TrimSpace(line)) == claimed {
			return true
		}
	}
	return false
}
