package sdi

import (
	"golang.org/x/sync/errgroup"

	"bitbucket.org/Davydov/gsdi/dist"
	"bitbucket.org/Davydov/gsdi/tree"
)

// SearchOptions extend Options with the number of rootings evaluated in
// parallel.
type SearchOptions struct {
	Options
	Workers int
}

// Rooting is one evaluated placement of the gene tree root.
type Rooting struct {
	Tree   *tree.Tree
	Result *Result
	// Original is set for the rooting the gene tree came with.
	Original bool
	// Branch is the id of the node below the new root, -1 for the
	// original rooting.
	Branch int
}

// SearchResult of a rooting search.
type SearchResult struct {
	MinDuplications      int
	OriginalDuplications int
	// MinTrees are all the rootings with MinDuplications, the original
	// one first if it is among them.
	MinTrees []*Rooting
	// Counts holds the duplications of the original rooting followed by
	// those of every candidate in Candidates order.
	Counts    []int
	Stats     dist.Stats
	Link      *LinkResult
	Evaluated int
}

// Candidates returns ids of the nodes above which rerooting gives a new
// rooting: every non-root node except the two children of a bifurcating
// root. A binary tree with n leaves has 2n-4 of them.
func Candidates(gene *tree.Tree) (ids []int) {
	root := gene.Node
	for _, node := range gene.PreOrder() {
		if node.IsRoot() || (node.Parent == root && len(root.ChildNodes()) == 2) {
			continue
		}
		ids = append(ids, node.Id)
	}
	return
}

// prepare links the gene tree once. The rooting does not change the
// links, so every candidate reuses them.
func prepare(gene, species *tree.Tree, opts Options) (*LinkResult, error) {
	checkSpecies(species)
	if len(gene.ChildNodes()) == 3 {
		gene.Reroot(gene.ChildNodes()[2])
	}
	base, err := determineBase(gene, species, opts.Algorithm)
	if err != nil {
		return nil, err
	}
	lr, err := Link(gene, species, base, opts.linkOptions())
	if err != nil {
		return nil, err
	}
	// warm up the id cache before copies are made concurrently
	gene.Nodes()
	return lr, nil
}

func (sr *SearchResult) add(r *Rooting) {
	d := r.Result.Duplications
	sr.Counts = append(sr.Counts, d)
	switch {
	case len(sr.MinTrees) == 0 || d < sr.MinDuplications:
		sr.MinDuplications = d
		sr.MinTrees = []*Rooting{r}
	case d == sr.MinDuplications:
		sr.MinTrees = append(sr.MinTrees, r)
	}
}

func (sr *SearchResult) finish() {
	sr.Evaluated = len(sr.Counts)
	sr.Stats = dist.DescribeInts(sr.Counts)
	log.Debugf("Evaluated %d rootings, minimum %d duplications on %d trees",
		sr.Evaluated, sr.MinDuplications, len(sr.MinTrees))
}

func evaluate(gene, species *tree.Tree, lr *LinkResult, opts Options, id int) (*Rooting, error) {
	t := gene.Copy()
	if id >= 0 {
		t.Reroot(t.Nodes()[id])
	}
	res, err := Reconcile(t, species, lr.Links, opts.Algorithm, opts.MostParsimonious)
	if err != nil {
		return nil, err
	}
	res.LinkResult = lr
	return &Rooting{Tree: t, Result: res, Original: id < 0, Branch: id}, nil
}

// SearchRootings tries the original rooting of the gene tree and every
// candidate rooting, and returns the ones with the fewest duplications.
// The gene tree is linked (and stripped if requested) in place, each
// rooting is evaluated on a private copy.
func SearchRootings(gene, species *tree.Tree, opts SearchOptions) (*SearchResult, error) {
	lr, err := prepare(gene, species, opts.Options)
	if err != nil {
		return nil, err
	}
	ids := append([]int{-1}, Candidates(gene)...)
	rootings := make([]*Rooting, len(ids))

	var g errgroup.Group
	if opts.Workers > 1 {
		g.SetLimit(opts.Workers)
	} else {
		g.SetLimit(1)
	}
	for i, id := range ids {
		i, id := i, id
		g.Go(func() (err error) {
			rootings[i], err = evaluate(gene, species, lr, opts.Options, id)
			return
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sr := &SearchResult{Link: lr, OriginalDuplications: rootings[0].Result.Duplications}
	for _, r := range rootings {
		sr.add(r)
	}
	sr.finish()
	return sr, nil
}
