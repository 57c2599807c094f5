package sdi

import "bitbucket.org/Davydov/gsdi/tree"

// MappingCost computes the duplication-loss mapping cost of a reconciled
// gene tree. Depths of species nodes are counted from the species root,
// species ids are not touched.
func MappingCost(gene, species *tree.Tree, m *Mapping) (cost int) {
	depth := species.Depths()
	for _, g := range gene.NodeOrder() {
		if g.IsTerminal() {
			continue
		}
		children := g.ChildNodes()
		s := m.Of(g)
		l1, l2 := m.Of(children[0]), m.Of(children[1])
		switch {
		case l1 != s && l2 != s:
			cost += depth[l1] + depth[l2] - 2*depth[s] - 2
		case l1 != s:
			cost += depth[l1] - depth[s] + 1
		case l2 != s:
			cost += depth[l2] - depth[s] + 1
		default:
			cost++
		}
	}
	return
}
