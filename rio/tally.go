package rio

import (
	"fmt"
	"sort"
	"strings"

	"bitbucket.org/Davydov/gsdi/dist"
	"bitbucket.org/Davydov/gsdi/tree"
)

// Relation kinds counted by a Tally.
type Relation int

const (
	Ortholog Relation = iota
	SuperOrtholog
	UltraParalog
)

// Sort orders of ortholog lines.
const (
	SortOrthologs = iota
	// SortOrthologsSuper sorts by orthologs, then super-orthologs.
	SortOrthologsSuper
	// SortSuperOrthologs sorts by super-orthologs, then orthologs.
	SortSuperOrthologs
)

// Tally counts in how many replicates every sequence was related to the
// query.
type Tally struct {
	Query          string         `json:"query"`
	Labels         []string       `json:"labels"`
	Samples        int            `json:"samples"`
	Orthologs      map[string]int `json:"orthologs"`
	SuperOrthologs map[string]int `json:"super_orthologs"`
	UltraParalogs  map[string]int `json:"ultra_paralogs"`
}

// NewTally creates an empty tally for a query and the external node
// labels of the gene trees.
func NewTally(query string, labels []string) *Tally {
	return &Tally{
		Query:          query,
		Labels:         labels,
		Orthologs:      make(map[string]int, len(labels)),
		SuperOrthologs: make(map[string]int, len(labels)),
		UltraParalogs:  make(map[string]int, len(labels)),
	}
}

func count(m map[string]int, nodes []*tree.Node) {
	for _, n := range nodes {
		m[n.Label()]++
	}
}

// Add counts the relations of one replicate.
func (t *Tally) Add(orthologs, superOrthologs, ultraParalogs []*tree.Node) {
	count(t.Orthologs, orthologs)
	count(t.SuperOrthologs, superOrthologs)
	count(t.UltraParalogs, ultraParalogs)
	t.Samples++
}

func (t *Tally) counts(r Relation) map[string]int {
	switch r {
	case Ortholog:
		return t.Orthologs
	case SuperOrtholog:
		return t.SuperOrthologs
	case UltraParalog:
		return t.UltraParalogs
	}
	panic(fmt.Sprintf("unknown relation %d", r))
}

// Percent returns in how many percent of the replicates a sequence had
// the relation to the query.
func (t *Tally) Percent(r Relation, label string) float64 {
	if t.Samples == 0 {
		return 0
	}
	return float64(t.counts(r)[label]) * 100 / float64(t.Samples)
}

// SupportInterval returns the binomial confidence interval of the
// relation frequency, in percent.
func (t *Tally) SupportInterval(r Relation, label string, level float64) (lo, hi float64) {
	lo, hi = dist.SupportInterval(t.counts(r)[label], t.Samples, level)
	return lo * 100, hi * 100
}

// Line is one row of the result table. Values are percentages.
type Line struct {
	Label  string  `json:"label"`
	Value1 float64 `json:"value1"`
	Value2 float64 `json:"value2"`
}

func sortLines(lines []Line) {
	sort.Slice(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if a.Value1 != b.Value1 {
			return a.Value1 > b.Value1
		}
		if a.Value2 != b.Value2 {
			return a.Value2 > b.Value2
		}
		return a.Label < b.Label
	})
}

func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}

// OrthologLines returns sequences orthologous to the query in at least
// threshold percent of the replicates. For SortOrthologs Value1 is the
// ortholog percentage, otherwise the two values are ordered by the sort
// priority. Unknown sort orders fall back to SortOrthologsSuper.
func (t *Tally) OrthologLines(order int, threshold float64) (lines []Line) {
	if order < SortOrthologs || order > SortSuperOrthologs {
		order = SortOrthologsSuper
	}
	threshold = clamp(threshold, 0, 100)
	for _, label := range t.Labels {
		if label == t.Query {
			continue
		}
		o := t.Percent(Ortholog, label)
		if o < threshold {
			continue
		}
		so := t.Percent(SuperOrtholog, label)
		switch order {
		case SortOrthologs:
			lines = append(lines, Line{Label: label, Value1: o})
		case SortOrthologsSuper:
			lines = append(lines, Line{Label: label, Value1: o, Value2: so})
		case SortSuperOrthologs:
			lines = append(lines, Line{Label: label, Value1: so, Value2: o})
		}
	}
	sortLines(lines)
	return
}

// UltraParalogLines returns sequences ultra-paralogous to the query in at
// least threshold percent of the replicates; the threshold is at least 1.
func (t *Tally) UltraParalogLines(threshold float64) (lines []Line) {
	threshold = clamp(threshold, 1, 100)
	for _, label := range t.Labels {
		if label == t.Query {
			continue
		}
		if up := t.Percent(UltraParalog, label); up >= threshold {
			lines = append(lines, Line{Label: label, Value1: up})
		}
	}
	sortLines(lines)
	return
}

// FormatOrthologs renders ortholog lines as a tab separated table, or "-"
// if there are none.
func FormatOrthologs(lines []Line, order int) string {
	if len(lines) == 0 {
		return "-"
	}
	var sb strings.Builder
	switch order {
	case SortOrthologs:
		sb.WriteString("seq name\tortho\n")
	case SortSuperOrthologs:
		sb.WriteString("seq name\ts-ortho\tortho\n")
	default:
		sb.WriteString("seq name\tortho\ts-ortho\n")
	}
	for _, l := range lines {
		if order == SortOrthologs {
			fmt.Fprintf(&sb, "%s\t%.2f\n", l.Label, l.Value1)
		} else {
			fmt.Fprintf(&sb, "%s\t%.2f\t%.2f\n", l.Label, l.Value1, l.Value2)
		}
	}
	return sb.String()
}

// FormatUltraParalogs renders ultra-paralog lines, or "-" if there are
// none.
func FormatUltraParalogs(lines []Line) string {
	if len(lines) == 0 {
		return "-"
	}
	var sb strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&sb, "%s\t%.2f\n", l.Label, l.Value1)
	}
	return sb.String()
}
