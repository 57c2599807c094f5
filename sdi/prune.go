package sdi

import (
	"fmt"

	"bitbucket.org/Davydov/gsdi/tree"
)

var bases = []Base{ID, Code, ScientificName}

// PruneByTaxonomy removes the external nodes of target whose taxonomy
// matches no external node of reference on any field. Target is
// renumbered in preorder. Returns the removed nodes.
func PruneByTaxonomy(reference, target *tree.Tree) (removed []*tree.Node, err error) {
	known := make(map[Base]map[string]bool, len(bases))
	for _, b := range bases {
		known[b] = make(map[string]bool)
	}
	for n := range reference.Terminals() {
		for _, b := range bases {
			if key := Key(n, b); key != "" {
				known[b][key] = true
			}
		}
	}

	for _, n := range target.Leaves() {
		if n.Taxonomy.IsEmpty() {
			return nil, fmt.Errorf("%w: external node %q has no taxonomy",
				ErrInsufficientTaxonomicData, n.Label())
		}
		found := false
		for _, b := range bases {
			if key := Key(n, b); key != "" && known[b][key] {
				found = true
				break
			}
		}
		if !found {
			removed = append(removed, n)
		}
	}
	if len(removed) == target.NLeaves() {
		return nil, fmt.Errorf("%w: no external node shares taxonomy with the reference",
			ErrInsufficientMappedTaxa)
	}
	for _, n := range removed {
		if err := target.DeleteSubtree(n, true); err != nil {
			return nil, err
		}
	}
	target.PreOrderReID()
	return
}
