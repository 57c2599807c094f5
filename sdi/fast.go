package sdi

import (
	"fmt"

	"bitbucket.org/Davydov/gsdi/tree"
)

// edge is a directed edge of the unrooted gene tree. It stands for the
// clade on the "to" side, rooted at to.
type edge struct {
	from, to *tree.Node
}

type clade struct {
	species *tree.Node
	dups    int
}

// unrooted scores rootings of a binary gene tree without rerooting it.
// Clade mappings are memoized per direction, so all rootings together
// cost O(n) classifications.
type unrooted struct {
	links            map[int]*tree.Node
	alg              Algorithm
	mostParsimonious bool
	root             *tree.Node
	memo             map[edge]clade
}

// neighbors returns the nodes adjacent to n in the unrooted tree. The
// root of a bifurcating tree is not a node there, its two children are
// adjacent instead.
func (u *unrooted) neighbors(n *tree.Node) (nb []*tree.Node) {
	nb = append(nb, n.ChildNodes()...)
	if p := n.Parent; p != nil {
		if p == u.root {
			for _, s := range p.ChildNodes() {
				if s != n {
					nb = append(nb, s)
				}
			}
		} else {
			nb = append(nb, p)
		}
	}
	return
}

// children returns the two subclades of a directed clade.
func (u *unrooted) children(e edge) (a, b *tree.Node) {
	var cs []*tree.Node
	for _, n := range u.neighbors(e.to) {
		if n != e.from {
			cs = append(cs, n)
		}
	}
	if len(cs) != 2 {
		panic(fmt.Sprintf("clade %v has %d subclades", e.to.LongString(), len(cs)))
	}
	return cs[0], cs[1]
}

func (u *unrooted) leaves(e edge) (species []*tree.Node) {
	if e.to.IsTerminal() {
		return []*tree.Node{u.links[e.to.Id]}
	}
	a, b := u.children(e)
	return append(u.leaves(edge{e.to, a}), u.leaves(edge{e.to, b})...)
}

func (u *unrooted) isDup(s, s1, s2 *tree.Node, e1, e2 edge) bool {
	ev := classify(u.alg, u.mostParsimonious, s, s1, s2,
		func() []*tree.Node { return u.leaves(e1) },
		func() []*tree.Node { return u.leaves(e2) })
	return ev == tree.Duplication
}

func (u *unrooted) clade(e edge) clade {
	if c, ok := u.memo[e]; ok {
		return c
	}
	var c clade
	if e.to.IsTerminal() {
		c.species = u.links[e.to.Id]
	} else {
		a, b := u.children(e)
		e1, e2 := edge{e.to, a}, edge{e.to, b}
		c1, c2 := u.clade(e1), u.clade(e2)
		c.species = tree.LCA(c1.species, c2.species)
		c.dups = c1.dups + c2.dups
		if u.isDup(c.species, c1.species, c2.species, e1, e2) {
			c.dups++
		}
	}
	u.memo[e] = c
	return c
}

// duplications returns the duplication count of the tree rooted on the
// branch between x and y.
func (u *unrooted) duplications(x, y *tree.Node) int {
	e1, e2 := edge{x, y}, edge{y, x}
	c1, c2 := u.clade(e1), u.clade(e2)
	s := tree.LCA(c1.species, c2.species)
	d := c1.dups + c2.dups
	if u.isDup(s, c1.species, c2.species, e1, e2) {
		d++
	}
	return d
}

// SearchRootingsFast gives the same result as SearchRootings. Duplication
// counts of all rootings are computed from memoized clade mappings, only
// the minimal rootings are reconciled on rerooted copies.
func SearchRootingsFast(gene, species *tree.Tree, opts SearchOptions) (*SearchResult, error) {
	lr, err := prepare(gene, species, opts.Options)
	if err != nil {
		return nil, err
	}
	for node := range gene.NonTerminals() {
		if len(node.ChildNodes()) != 2 {
			return nil, fmt.Errorf("%w: internal node %v has %d descendants",
				ErrNonBinaryGeneTree, node.LongString(), len(node.ChildNodes()))
		}
	}
	for _, l := range gene.Leaves() {
		if _, ok := lr.Links[l.Id]; !ok {
			return nil, fmt.Errorf("%w: %q is not linked", ErrUnmappableGeneTreeNode, l.Label())
		}
	}

	root := gene.Node
	u := &unrooted{
		links:            lr.Links,
		alg:              opts.Algorithm,
		mostParsimonious: opts.MostParsimonious,
		root:             root,
		memo:             make(map[edge]clade, 2*gene.NNodes()),
	}
	nodes := gene.Nodes()
	ids := append([]int{-1}, Candidates(gene)...)
	counts := make([]int, len(ids))
	counts[0] = u.duplications(root.ChildNodes()[0], root.ChildNodes()[1])
	for i, id := range ids[1:] {
		n := nodes[id]
		counts[i+1] = u.duplications(n, u.neighbors(n)[len(n.ChildNodes())])
	}

	min := counts[0]
	for _, c := range counts {
		if c < min {
			min = c
		}
	}
	sr := &SearchResult{Link: lr, OriginalDuplications: counts[0]}
	for i, id := range ids {
		if counts[i] != min {
			sr.Counts = append(sr.Counts, counts[i])
			continue
		}
		r, err := evaluate(gene, species, lr, opts.Options, id)
		if err != nil {
			return nil, err
		}
		if r.Result.Duplications != min {
			panic(fmt.Sprintf("rooting on %d: %d duplications, expected %d", id, r.Result.Duplications, min))
		}
		sr.add(r)
	}
	sr.finish()
	return sr, nil
}
