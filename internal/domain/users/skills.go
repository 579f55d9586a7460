package users

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeSkillName trims s, collapses inner whitespace and puts it in NFC
// so visually equal names are stored once.
func NormalizeSkillName(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// normalizeSkills normalizes names and drops empty and case-insensitive
// duplicates, keeping the first spelling.
func normalizeSkills(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = NormalizeSkillName(n)
		if n == "" {
			continue
		}
		key := skillKey(n)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, n)
	}
	return out
}

// skillKey is the case-insensitive identity of a normalized skill name.
func skillKey(name string) string {
	return cases.Fold().String(name)
}
