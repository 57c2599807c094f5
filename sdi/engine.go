package sdi

import (
	"fmt"
	"strings"

	"bitbucket.org/Davydov/gsdi/tree"
)

// Algorithm selects the event classification rule.
type Algorithm int

const (
	// SDI assumes a binary species tree: a node is a duplication if it
	// maps to the same species node as one of its children.
	SDI Algorithm = iota
	// GSDI also handles polytomies in the species tree.
	GSDI
)

func (a Algorithm) String() string {
	if a == GSDI {
		return "GSDI"
	}
	return "SDI"
}

// ParseAlgorithm converts "sdi" or "gsdi" (any case) to Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(s) {
	case "sdi":
		return SDI, nil
	case "gsdi":
		return GSDI, nil
	}
	return SDI, fmt.Errorf("unknown algorithm: %q", s)
}

// Options of a single reconciliation.
type Options struct {
	Algorithm        Algorithm
	StripGeneTree    bool
	StripSpeciesTree bool
	// MostParsimonious classifies unresolved GSDI events as speciations
	// instead of speciation-or-duplication.
	MostParsimonious bool
	Resolver         NameResolver
}

func (o Options) linkOptions() LinkOptions {
	return LinkOptions{
		StripGeneTree:    o.StripGeneTree,
		StripSpeciesTree: o.StripSpeciesTree,
		Resolver:         o.Resolver,
	}
}

// Mapping assigns species tree nodes to gene tree nodes. It belongs to one
// reconciliation call.
type Mapping struct {
	nodes map[*tree.Node]*tree.Node
}

// Of returns the species node a gene node maps to.
func (m *Mapping) Of(g *tree.Node) *tree.Node {
	return m.nodes[g]
}

// Result of a reconciliation.
type Result struct {
	Duplications             int
	Speciations              int
	SpeciationOrDuplications int
	Mapping                  *Mapping
	*LinkResult
}

func (r *Result) add(e tree.Event) {
	switch e {
	case tree.Duplication:
		r.Duplications++
	case tree.Speciation:
		r.Speciations++
	case tree.SpeciationOrDuplication:
		r.SpeciationOrDuplications++
	}
}

// Root returns the species node the gene tree root maps to.
func (r *Result) Root(gene *tree.Tree) *tree.Node {
	return r.Mapping.Of(gene.Node)
}

func determineBase(gene, species *tree.Tree, alg Algorithm) (Base, error) {
	if alg == SDI {
		return DetermineCommonBase(gene, species)
	}
	return DetermineBase(gene)
}

// Infer links the gene tree to the species tree and classifies every
// internal gene tree node. Both trees are modified: they are renumbered,
// stripped if requested, and gene nodes get their Event set. A gene tree
// root with three children is rerooted first for GSDI.
func Infer(gene, species *tree.Tree, opts Options) (*Result, error) {
	checkSpecies(species)
	if opts.Algorithm == GSDI && len(gene.ChildNodes()) == 3 {
		gene.Reroot(gene.ChildNodes()[2])
	}
	base, err := determineBase(gene, species, opts.Algorithm)
	if err != nil {
		return nil, err
	}
	log.Debugf("Linking on %v", base)
	lr, err := Link(gene, species, base, opts.linkOptions())
	if err != nil {
		return nil, err
	}
	res, err := Reconcile(gene, species, lr.Links, opts.Algorithm, opts.MostParsimonious)
	if err != nil {
		return nil, err
	}
	res.LinkResult = lr
	return res, nil
}

func checkSpecies(species *tree.Tree) {
	if species == nil || species.Node == nil {
		panic("species tree is empty")
	}
}

// Reconcile runs one postorder pass over the gene tree. links maps gene
// leaf ids to species nodes, and the species tree must be numbered with
// PreOrderReID. The counts are returned, nothing is kept between calls.
func Reconcile(gene, species *tree.Tree, links map[int]*tree.Node, alg Algorithm, mostParsimonious bool) (*Result, error) {
	checkSpecies(species)
	m := &Mapping{nodes: make(map[*tree.Node]*tree.Node, gene.NNodes())}
	res := &Result{Mapping: m}
	for _, g := range gene.NodeOrder() {
		if g.IsTerminal() {
			s, ok := links[g.Id]
			if !ok {
				return nil, fmt.Errorf("%w: %q is not linked", ErrUnmappableGeneTreeNode, g.Label())
			}
			m.nodes[g] = s
			continue
		}
		children := g.ChildNodes()
		if len(children) != 2 {
			return nil, fmt.Errorf("%w: internal node %v has %d descendants",
				ErrNonBinaryGeneTree, g.LongString(), len(children))
		}
		s1, s2 := m.nodes[children[0]], m.nodes[children[1]]
		s := tree.LCA(s1, s2)
		m.nodes[g] = s
		g.Event = classify(alg, mostParsimonious, s, s1, s2,
			func() []*tree.Node { return linked(children[0].Leaves(), m) },
			func() []*tree.Node { return linked(children[1].Leaves(), m) })
		res.add(g.Event)
	}
	return res, nil
}

func linked(leaves []*tree.Node, m *Mapping) []*tree.Node {
	species := make([]*tree.Node, len(leaves))
	for i, l := range leaves {
		species[i] = m.nodes[l]
	}
	return species
}

// classify decides the event of a gene node mapped to s whose two sides
// map to s1 and s2. side1 and side2 return the species leaves below each
// side; they are only called for GSDI at species polytomies.
func classify(alg Algorithm, mostParsimonious bool, s, s1, s2 *tree.Node, side1, side2 func() []*tree.Node) tree.Event {
	parentChild := s == s1 || s == s2
	if alg == SDI || len(s.ChildNodes()) == 2 {
		if parentChild {
			return tree.Duplication
		}
		return tree.Speciation
	}
	if !parentChild {
		return tree.Speciation
	}
	groups := make(map[*tree.Node]bool)
	for _, n := range side1() {
		groups[groupBelow(n, s)] = true
	}
	for _, n := range side2() {
		if groups[groupBelow(n, s)] {
			return tree.Duplication
		}
	}
	if mostParsimonious {
		return tree.Speciation
	}
	return tree.SpeciationOrDuplication
}

// groupBelow returns the child of s on the path from n up to s, or s
// itself if n is s.
func groupBelow(n, s *tree.Node) *tree.Node {
	if n == s {
		return s
	}
	for n.Parent != s {
		n = n.Parent
		if n == nil {
			panic("species node is not an ancestor of a mapped gene leaf")
		}
	}
	return n
}
