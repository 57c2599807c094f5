package sdi

import "strings"

// Infraspecific rank markers. The name is cut in front of them.
var rankMarkers = []string{
	" subspecies ", " strain ", " variety ", " varietas ", " subvariety ",
	" form ", " subform ", " cultivar ", " section ", " subsection ",
}

// TryRelax returns less specific variants of a scientific name, in the
// order they should be tried: without the authority in parentheses,
// without the third word of a trinomial, cut at an infraspecific rank
// marker. Cuts closer than 5 characters to the start are ignored.
func TryRelax(name string) (candidates []string) {
	seen := map[string]bool{name: true}
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			candidates = append(candidates, s)
		}
	}

	if i := strings.Index(name, " ("); i > 4 {
		add(name[:i])
	}
	if strings.Count(name, " ") == 2 {
		add(name[:strings.LastIndex(name, " ")])
	}
	for _, marker := range rankMarkers {
		if i := strings.Index(name, marker); i > 4 {
			add(name[:i])
		}
	}
	return
}
