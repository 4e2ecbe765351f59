package dateutil

import (
	"regexp"
	"sort"
)

// the portals render availability in a handful of formats depending on the
// country and widget: "14/05/2024", "2024-05-14", "14 May 2024", "May 14,
// 2024". each pattern anchors on word boundaries so stray digits in
// surrounding markup text do not match.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
	regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
	regexp.MustCompile(`(?i)\b\d{1,2}(?:st|nd|rd|th)? +(?:January|February|March|April|May|June|July|August|September|October|November|December)(?: +\d{4})?\b`),
	regexp.MustCompile(`(?i)\b(?:January|February|March|April|May|June|July|August|September|October|November|December) +\d{1,2}(?:st|nd|rd|th)?(?:, *\d{4})?\b`),
}

// ExtractDates pulls every date-looking token out of free text, in order of
// first appearance, without duplicates. Matches are returned verbatim as the
// site rendered them.
func ExtractDates(text string) []string {
	type match struct {
		index int
		value string
	}

	var matches []match
	for _, pattern := range datePatterns {
		for _, loc := range pattern.FindAllStringIndex(text, -1) {
			matches = append(matches, match{
				index: loc[0],
				value: text[loc[0]:loc[1]],
			})
		}
	}

	// restore document order across the separate pattern passes
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].index < matches[j].index
	})

	seen := map[string]bool{}
	covered := -1
	var dates []string
	for _, m := range matches {
		// drop matches nested inside an earlier, longer match, e.g. the
		// bare "May 14" inside "14 May 2024" is not a second date
		if m.index <= covered {
			continue
		}
		covered = m.index + len(m.value) - 1
		if seen[m.value] {
			continue
		}
		seen[m.value] = true
		dates = append(dates, m.value)
	}
	return dates
}
