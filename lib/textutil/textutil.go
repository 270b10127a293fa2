package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// EqualIgnoringSpaces compares two strings after stripping all
// whitespace and lowercasing. Portal pages are inconsistent about
// padding inside names.
func EqualIgnoringSpaces(a, b string) bool {
	return NormalizeName(a) == NormalizeName(b)
}

// ToInitials collapses a full "Surname Firstname Patronymic" into the
// "Surname F.P." form the schedule and attendance pages use.
func ToInitials(fullname string) string {
	parts := strings.Fields(fullname)
	if len(parts) < 2 {
		return fullname
	}
	out := parts[0]
	for _, p := range parts[1:] {
		runes := []rune(p)
		if len(runes) == 0 {
			continue
		}
		out += " " + string(runes[0]) + "."
	}
	return out
}

// CollapseSpaces trims and folds internal whitespace runs into single
// spaces without touching case.
func CollapseSpaces(s string) string {
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(s), " ")
}
