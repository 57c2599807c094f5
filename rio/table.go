package rio

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/gonum/matrix/mat64"

	"bitbucket.org/Davydov/gsdi/tree"
)

// OrthologTable counts for every pair of sequences in how many gene trees
// their last common ancestor is not a duplication.
type OrthologTable struct {
	Labels []string
	Counts *mat64.Dense
	index  map[string]int
}

// NewOrthologTable creates a table over the external node labels of the
// first gene tree, sorted. Labels must be present and unique.
func NewOrthologTable(t *tree.Tree) (*OrthologTable, error) {
	labels, err := leafLabels(t)
	if err != nil {
		return nil, err
	}
	sort.Strings(labels)
	ot := &OrthologTable{
		Labels: labels,
		Counts: mat64.NewDense(len(labels), len(labels), nil),
		index:  make(map[string]int, len(labels)),
	}
	for i, l := range labels {
		ot.index[l] = i
	}
	return ot, nil
}

func leafLabels(t *tree.Tree) ([]string, error) {
	var labels []string
	seen := make(map[string]bool)
	for _, n := range t.Leaves() {
		l := n.Label()
		if l == "" {
			return nil, fmt.Errorf("%w: node %v has no label", ErrLabel, n.LongString())
		}
		if seen[l] {
			return nil, fmt.Errorf("%w: %q is not unique", ErrLabel, l)
		}
		seen[l] = true
		labels = append(labels, l)
	}
	return labels, nil
}

// Update adds the pairs of one reconciled gene tree numbered in preorder.
// The diagonal counts the trees.
func (ot *OrthologTable) Update(t *tree.Tree, i int) error {
	nodes := make([]*tree.Node, len(ot.Labels))
	for _, n := range t.Leaves() {
		if j, ok := ot.index[n.Label()]; ok {
			nodes[j] = n
		}
	}
	for j, n := range nodes {
		if n == nil {
			return fmt.Errorf("%w: %q not present in gene tree #%d", ErrLabel, ot.Labels[j], i)
		}
	}
	for x, nx := range nodes {
		for y, ny := range nodes {
			if !tree.LCA(nx, ny).IsDuplication() {
				ot.Counts.Set(x, y, ot.Counts.At(x, y)+1)
			}
		}
	}
	return nil
}

// Count returns the count of a pair of labels.
func (ot *OrthologTable) Count(a, b string) int {
	x, ok1 := ot.index[a]
	y, ok2 := ot.index[b]
	if !ok1 || !ok2 {
		return 0
	}
	return int(ot.Counts.At(x, y))
}

// WriteTable writes the table as tab separated values with a header.
func (ot *OrthologTable) WriteTable(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, l := range ot.Labels {
		fmt.Fprintf(bw, "\t%s", l)
	}
	fmt.Fprintln(bw)
	for x, l := range ot.Labels {
		fmt.Fprint(bw, l)
		for y := range ot.Labels {
			fmt.Fprintf(bw, "\t%d", int(ot.Counts.At(x, y)))
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}
