package directory

import "strings"

// Doctor identity on older rows is a free-text display name, not a
// foreign key. MatchesDoctor decides whether such a field refers to the
// doctor with canonical full name canonical. Checked in order, first
// match wins:
//
//  1. exact equality
//  2. case-insensitive equality
//  3. equality with a leading "Dr." stripped from both sides
//  4. equality with "Dr." prefixed onto both sides
//
// Two doctors sharing a display name collide silently; rows carrying a
// doctor_id never go through this path.
func MatchesDoctor(canonical, field string) bool {
	if canonical == "" || field == "" {
		return false
	}

	if field == canonical {
		return true
	}
	if strings.EqualFold(field, canonical) {
		return true
	}
	if strings.EqualFold(stripTitle(field), stripTitle(canonical)) {
		return true
	}
	return strings.EqualFold(withTitle(field), withTitle(canonical))
}

// stripTitle removes a leading "Dr." or "Dr " (any case) and trims
// surrounding whitespace.
func stripTitle(name string) string {
	trimmed := strings.TrimSpace(name)
	lower := strings.ToLower(trimmed)
	for _, prefix := range []string{"dr. ", "dr.", "dr "} {
		if strings.HasPrefix(lower, prefix) {
			return strings.TrimSpace(trimmed[len(prefix):])
		}
	}
	return trimmed
}

func withTitle(name string) string {
	trimmed := strings.TrimSpace(name)
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "dr.") || strings.HasPrefix(lower, "dr ") {
		return trimmed
	}
	return "Dr. " + trimmed
}
