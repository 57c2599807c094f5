// Package rio infers orthologs and paralogs of a query sequence from a
// set of replicate gene trees (e.g. bootstrap resamples) reconciled with a
// species tree.
package rio

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/gonum/matrix/mat64"
	"github.com/op/go-logging"
	"golang.org/x/sync/errgroup"

	"bitbucket.org/Davydov/gsdi/checkpoint"
	"bitbucket.org/Davydov/gsdi/dist"
	"bitbucket.org/Davydov/gsdi/sdi"
	"bitbucket.org/Davydov/gsdi/tree"
)

var log = logging.MustGetLogger("rio")

// DefaultRange is the value of First and Last which selects all trees.
const DefaultRange = -1

// Rerooting selects how every gene tree is rooted before reconciliation.
type Rerooting int

const (
	// None keeps the rooting of the input.
	None Rerooting = iota
	// ByAlgorithm picks the rooting with the fewest duplications.
	ByAlgorithm
	Midpoint
	Outgroup
)

var rerootingNames = map[Rerooting]string{
	None:        "none",
	ByAlgorithm: "algorithm",
	Midpoint:    "midpoint",
	Outgroup:    "outgroup",
}

func (r Rerooting) String() string {
	return rerootingNames[r]
}

// ParseRerooting converts a name ("none", "algorithm", "midpoint",
// "outgroup") to Rerooting.
func ParseRerooting(s string) (Rerooting, error) {
	for r, name := range rerootingNames {
		if name == s {
			return r, nil
		}
	}
	return None, fmt.Errorf("unknown rerooting: %q", s)
}

// Options of the analysis.
type Options struct {
	Rerooting Rerooting
	// Outgroup is the label of the node to root on, only with Outgroup.
	Outgroup string
	// First and Last are the 0-based inclusive range of trees to
	// analyze. DefaultRange on both selects all of them.
	First, Last      int
	Query            string
	Algorithm        sdi.Algorithm
	MostParsimonious bool
	// Fast uses the memoized rooting search.
	Fast    bool
	Workers int
	// Checkpoint, if set, is used to save progress and continue an
	// interrupted analysis.
	Checkpoint *checkpoint.CheckpointIO
}

// DefaultOptions returns the settings of a standard RIO run.
func DefaultOptions() Options {
	return Options{
		Rerooting:        ByAlgorithm,
		First:            DefaultRange,
		Last:             DefaultRange,
		Algorithm:        sdi.GSDI,
		MostParsimonious: true,
		Workers:          1,
	}
}

// Analysis is the result of RIO.
type Analysis struct {
	// Tally is nil if no query was given.
	Tally *Tally
	Table *OrthologTable
	// DuplicationCounts of the analyzed trees in input order.
	DuplicationCounts []int
	Duplications      dist.Stats
	// MinDuplicationsTree is the first reconciled tree with the fewest
	// duplications.
	MinDuplicationsTree *tree.Tree
	Base                sdi.Base
	// ExtNodes and IntNodes are counted on the analyzed trees after
	// stripping.
	ExtNodes int
	IntNodes int
	// Removed are labels of external nodes removed from the first
	// analyzed gene tree, RemovedSpecies of those removed from the
	// species tree.
	Removed        []string
	RemovedSpecies []string
	First, Last    int
	// Resumed is the number of trees taken from a checkpoint.
	Resumed int

	leafCount int
	minIndex  int
}

// DuplicationPercent converts a number of duplications to percent of
// internal nodes.
func (a *Analysis) DuplicationPercent(d float64) float64 {
	if a.IntNodes == 0 {
		return 0
	}
	return 100 * d / float64(a.IntNodes)
}

// Samples returns the number of analyzed gene trees.
func (a *Analysis) Samples() int {
	return len(a.DuplicationCounts)
}

func checkPreconditions(genes []*tree.Tree, species *tree.Tree, opts *Options) error {
	if species == nil || species.Node == nil {
		panic("species tree is empty")
	}
	if len(genes) == 0 {
		return ErrNoGeneTrees
	}
	if opts.Last == DefaultRange && opts.First >= 0 {
		opts.Last = len(genes) - 1
	} else if opts.First == DefaultRange && opts.Last >= 0 {
		opts.First = 0
	}
	if !(opts.First == DefaultRange && opts.Last == DefaultRange) &&
		(opts.Last < opts.First || opts.Last >= len(genes) || opts.Last < 0 || opts.First < 0) {
		return fmt.Errorf("%w: from %d to %d (out of %d)", ErrRange, opts.First, opts.Last, len(genes))
	}
	if opts.Rerooting == Outgroup && opts.Outgroup == "" {
		return fmt.Errorf("%w: outgroup not set for outgroup rooting", ErrOutgroup)
	}
	if opts.Rerooting != Outgroup && opts.Outgroup != "" {
		return fmt.Errorf("%w: outgroup only used for outgroup rooting", ErrOutgroup)
	}
	first := genes[0]
	if opts.First > 0 {
		first = genes[opts.First]
	}
	if opts.Rerooting == Midpoint && first.MaxDistanceToRoot() <= 0 {
		return ErrNoBranchLengths
	}
	if opts.Rerooting == Outgroup {
		if n := len(first.FindByName(opts.Outgroup)); n != 1 {
			return fmt.Errorf("%w: %d nodes named %q", ErrOutgroup, n, opts.Outgroup)
		}
	}
	return nil
}

type replicate struct {
	tree    *tree.Tree
	dups    int
	base    sdi.Base
	leaves  int
	removed []*tree.Node
}

func (opts *Options) analyzeOne(gt, species *tree.Tree) (*replicate, error) {
	r := &replicate{leaves: gt.NLeaves()}
	if r.leaves < 2 {
		return nil, fmt.Errorf("%w: %d external nodes", ErrLeafCount, r.leaves)
	}
	sp := species.Copy()
	removed, err := sdi.PruneByTaxonomy(sp, gt)
	if err != nil {
		return nil, err
	}
	r.removed = removed
	sopts := sdi.Options{
		Algorithm:        opts.Algorithm,
		StripGeneTree:    true,
		MostParsimonious: opts.MostParsimonious,
	}

	switch opts.Rerooting {
	case ByAlgorithm:
		search := sdi.SearchRootings
		if opts.Fast {
			search = sdi.SearchRootingsFast
		}
		sr, err := search(gt, sp, sdi.SearchOptions{Options: sopts, Workers: 1})
		if err != nil {
			return nil, err
		}
		r.tree = sr.MinTrees[0].Tree
		r.dups = sr.MinDuplications
		r.base = sr.Link.Base
	default:
		switch opts.Rerooting {
		case Midpoint:
			gt.MidpointRoot()
		case Outgroup:
			nodes := gt.FindByName(opts.Outgroup)
			if len(nodes) != 1 {
				return nil, fmt.Errorf("%w: %d nodes named %q", ErrOutgroup, len(nodes), opts.Outgroup)
			}
			gt.Reroot(nodes[0])
		}
		res, err := sdi.Infer(gt, sp, sopts)
		if err != nil {
			return nil, err
		}
		r.tree = gt
		r.dups = res.Duplications
		r.base = res.Base
	}
	r.tree.PreOrderReID()
	return r, nil
}

func labels(nodes []*tree.Node) (l []string) {
	for _, n := range nodes {
		l = append(l, n.Label())
	}
	return
}

// add accumulates one reconciled tree. i is the index of the tree in the
// input.
func (a *Analysis) add(r *replicate, i int, query string) error {
	t := r.tree
	if a.Table == nil {
		a.leafCount = r.leaves
		a.ExtNodes = t.NLeaves()
		a.IntNodes = t.NInternal()
		a.Base = r.base
		a.Removed = labels(r.removed)
		table, err := NewOrthologTable(t)
		if err != nil {
			return err
		}
		a.Table = table
		if query != "" {
			a.Tally = NewTally(query, table.Labels)
		}
	} else {
		if r.leaves != a.leafCount {
			return fmt.Errorf("%w: gene tree #%d has %d, the preceding gene trees %d",
				ErrLeafCount, i, r.leaves, a.leafCount)
		}
		if n := t.NLeaves(); n != a.ExtNodes {
			return fmt.Errorf("%w: after stripping gene tree #%d has %d, the preceding gene trees %d",
				ErrLeafCount, i, n, a.ExtNodes)
		}
	}

	if a.Tally != nil {
		nodes := t.FindByName(query)
		switch {
		case len(nodes) == 0:
			return fmt.Errorf("%w: no node named %q in gene tree #%d", ErrQueryNotFound, query, i)
		case len(nodes) > 1:
			return fmt.Errorf("%w: %d nodes named %q in gene tree #%d", ErrQueryNotUnique, len(nodes), query, i)
		}
		q := nodes[0]
		a.Tally.Add(Orthologs(t, q), SuperOrthologs(q), UltraParalogs(q))
	}
	if err := a.Table.Update(t, i); err != nil {
		return err
	}

	if len(a.DuplicationCounts) == 0 || float64(r.dups) < a.Duplications.Min {
		a.MinDuplicationsTree = t
		a.minIndex = i
	}
	a.DuplicationCounts = append(a.DuplicationCounts, r.dups)
	a.Duplications = dist.DescribeInts(a.DuplicationCounts)
	return nil
}

// Analyze reconciles every gene tree in the range with the species tree
// and counts the relations of all the sequences to the query. The species
// tree is modified: single descendant nodes are removed, as are species
// absent from the first gene tree. Gene trees are modified too.
func Analyze(genes []*tree.Tree, species *tree.Tree, opts Options) (*Analysis, error) {
	if err := checkPreconditions(genes, species, &opts); err != nil {
		return nil, err
	}

	if n := species.RemoveSingleDescendantNodes(); n > 0 {
		log.Warningf("Species tree has %d internal nodes with only one descendant, removed", n)
	}
	removedSpecies, err := sdi.PruneByTaxonomy(genes[0], species)
	if err != nil {
		return nil, fmt.Errorf("failed to establish species based mapping between gene and species trees: %w", err)
	}
	species.PreOrderReID()
	// warm up the caches before concurrent copies
	species.Nodes()

	first := 0
	if opts.First != DefaultRange {
		first = opts.First
		genes = genes[opts.First : opts.Last+1]
	}
	a := &Analysis{
		First:          opts.First,
		Last:           opts.Last,
		RemovedSpecies: labels(removedSpecies),
	}
	log.Infof("Analyzing %d gene trees, rerooting: %v", len(genes), opts.Rerooting)

	done := 0
	if opts.Checkpoint != nil {
		data, err := opts.Checkpoint.Load()
		if err != nil {
			return nil, err
		}
		if data != nil {
			if err := a.restore(data.State); err != nil {
				return nil, err
			}
			done = data.Done
			a.Resumed = done
			if data.Final {
				return a, nil
			}
		}
		opts.Checkpoint.SetNow()
	}

	batch := opts.Workers
	if batch < 1 {
		batch = 1
	}
	for start := done; start < len(genes); start += batch {
		end := start + batch
		if end > len(genes) {
			end = len(genes)
		}
		reps := make([]*replicate, end-start)
		var g errgroup.Group
		for j := start; j < end; j++ {
			j := j
			g.Go(func() (err error) {
				reps[j-start], err = opts.analyzeOne(genes[j], species)
				if err != nil {
					err = fmt.Errorf("gene tree #%d: %w", first+j, err)
				}
				return
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		for j, r := range reps {
			if err := a.add(r, first+start+j, opts.Query); err != nil {
				return nil, err
			}
		}
		if opts.Checkpoint != nil && opts.Checkpoint.Old() && end < len(genes) {
			if err := a.save(opts.Checkpoint, end, false); err != nil {
				return nil, err
			}
		}
	}
	if opts.Checkpoint != nil {
		if err := a.save(opts.Checkpoint, len(genes), true); err != nil {
			return nil, err
		}
	}
	log.Infof("Duplications: %v", a.Duplications)
	return a, nil
}

// state is the checkpointed part of an analysis.
type state struct {
	Tally     *Tally    `json:"tally,omitempty"`
	Labels    []string  `json:"labels"`
	Table     []float64 `json:"table"`
	Dups      []int     `json:"dups"`
	MinTree   string    `json:"min_tree"`
	MinIndex  int       `json:"min_index"`
	LeafCount int       `json:"leaf_count"`
	ExtNodes  int       `json:"ext_nodes"`
	IntNodes  int       `json:"int_nodes"`
	Base      sdi.Base  `json:"base"`
	Removed   []string  `json:"removed"`
}

func (a *Analysis) save(cp *checkpoint.CheckpointIO, done int, final bool) error {
	if a.Table == nil {
		return nil
	}
	s := state{
		Tally:     a.Tally,
		Labels:    a.Table.Labels,
		Table:     a.Table.Counts.RawMatrix().Data,
		Dups:      a.DuplicationCounts,
		MinTree:   a.MinDuplicationsTree.NHX(),
		MinIndex:  a.minIndex,
		LeafCount: a.leafCount,
		ExtNodes:  a.ExtNodes,
		IntNodes:  a.IntNodes,
		Base:      a.Base,
		Removed:   a.Removed,
	}
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	log.Debugf("Saving checkpoint after %d gene trees", done)
	return cp.Save(&checkpoint.CheckpointData{Done: done, Final: final, State: b})
}

func (a *Analysis) restore(b []byte) error {
	var s state
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	n := len(s.Labels)
	if n == 0 || len(s.Table) != n*n {
		return fmt.Errorf("corrupted checkpoint: %d labels, %d table cells", n, len(s.Table))
	}
	t, err := tree.ParseNewickString(s.MinTree, tree.ExtractNone)
	if err != nil {
		return fmt.Errorf("corrupted checkpoint: %w", err)
	}
	a.Tally = s.Tally
	a.Table = &OrthologTable{
		Labels: s.Labels,
		Counts: mat64.NewDense(n, n, s.Table),
		index:  make(map[string]int, n),
	}
	for i, l := range s.Labels {
		a.Table.index[l] = i
	}
	a.DuplicationCounts = s.Dups
	a.Duplications = dist.DescribeInts(s.Dups)
	a.MinDuplicationsTree = t
	a.minIndex = s.MinIndex
	a.leafCount = s.LeafCount
	a.ExtNodes = s.ExtNodes
	a.IntNodes = s.IntNodes
	a.Base = s.Base
	a.Removed = s.Removed
	return nil
}

// SortedRemoved returns removed gene and species labels, sorted, for
// reporting.
func (a *Analysis) SortedRemoved() (genes, species []string) {
	genes = append(genes, a.Removed...)
	species = append(species, a.RemovedSpecies...)
	sort.Strings(genes)
	sort.Strings(species)
	return
}
