package sdi

import (
	"fmt"
	"sort"
	"strings"

	"github.com/op/go-logging"

	"bitbucket.org/Davydov/gsdi/tree"
)

var log = logging.MustGetLogger("sdi")

// NameResolver maps a scientific name to the accepted name it is a
// synonym of.
type NameResolver interface {
	Resolve(name string) (string, bool)
}

// LinkOptions control stripping of unmappable nodes.
type LinkOptions struct {
	// StripGeneTree removes gene tree leaves which cannot be mapped
	// instead of failing.
	StripGeneTree bool
	// StripSpeciesTree removes species tree leaves no gene maps to.
	StripSpeciesTree bool
	// Resolver is tried for scientific names which did not match even
	// after relaxation.
	Resolver NameResolver
}

// LinkResult is the mapping of gene tree leaves to species tree leaves.
type LinkResult struct {
	Base Base
	// Links maps gene tree leaf ids to species tree leaves. Gene ids are
	// preorder ids assigned after stripping; they are preserved by
	// tree.Copy and tree.Reroot.
	Links map[int]*tree.Node
	// MappedSpecies are the species tree leaves which received at
	// least one gene, in the order they were first hit.
	MappedSpecies   []*tree.Node
	StrippedGene    []*tree.Node
	StrippedSpecies []*tree.Node
	// Remapped lists "original -> reduced" scientific names which
	// matched only after relaxation or synonym resolution.
	Remapped []string
}

// Link maps every gene tree leaf to the species tree leaf with the same
// taxonomy key. With stripping enabled the trees are modified; both are
// renumbered in preorder before returning.
func Link(gene, species *tree.Tree, base Base, opts LinkOptions) (*LinkResult, error) {
	table := make(map[string]*tree.Node)
	speciesLeaves := species.Leaves()
	for _, s := range speciesLeaves {
		key := Key(s, base)
		if key == "" {
			continue
		}
		if prev, ok := table[key]; ok {
			return nil, fmt.Errorf("%w: %q on nodes %q and %q (using %v)",
				ErrDuplicateTaxonomyKey, key, prev.Label(), s.Label(), base)
		}
		table[key] = s
	}

	res := &LinkResult{Base: base}
	links := make(map[*tree.Node]*tree.Node)
	mapped := make(map[*tree.Node]bool)
	remapped := make(map[string]bool)

	geneLeaves := gene.Leaves()
	for _, g := range geneLeaves {
		key := Key(g, base)
		if key == "" {
			if opts.StripGeneTree {
				res.StrippedGene = append(res.StrippedGene, g)
				continue
			}
			return nil, fmt.Errorf("%w: %q has no %v taxonomy", ErrUnmappableGeneTreeNode, g.Label(), base)
		}
		s := table[key]
		if s == nil && base == ScientificName && strings.Count(key, " ") > 1 {
			for _, reduced := range TryRelax(key) {
				if s = table[reduced]; s != nil {
					remapped[key+" -> "+reduced] = true
					break
				}
			}
		}
		if s == nil && base == ScientificName && opts.Resolver != nil {
			if accepted, ok := opts.Resolver.Resolve(key); ok && accepted != key {
				if s = table[accepted]; s != nil {
					remapped[key+" -> "+accepted] = true
				}
			}
		}
		if s == nil {
			if opts.StripGeneTree {
				res.StrippedGene = append(res.StrippedGene, g)
				continue
			}
			return nil, fmt.Errorf("%w: taxonomy %q of %q not present in species tree",
				ErrUnmappableGeneTreeNode, key, g.Label())
		}
		links[g] = s
		if !mapped[s] {
			mapped[s] = true
			res.MappedSpecies = append(res.MappedSpecies, s)
		}
	}

	if len(links) < 2 {
		return nil, fmt.Errorf("%w: %d of %d (using %v)",
			ErrInsufficientMappedTaxa, len(links), len(geneLeaves), base)
	}

	for _, g := range res.StrippedGene {
		log.Infof("Stripping gene tree node %q", g.Label())
		if err := gene.DeleteSubtree(g, true); err != nil {
			return nil, err
		}
	}
	gene.PreOrderReID()

	if opts.StripSpeciesTree {
		for _, s := range speciesLeaves {
			if !mapped[s] {
				log.Debugf("Stripping species tree node %q", s.Label())
				if err := species.DeleteSubtree(s, true); err != nil {
					return nil, err
				}
				res.StrippedSpecies = append(res.StrippedSpecies, s)
			}
		}
	}
	species.PreOrderReID()

	res.Links = make(map[int]*tree.Node, len(links))
	for g, s := range links {
		res.Links[g.Id] = s
	}
	for r := range remapped {
		res.Remapped = append(res.Remapped, r)
	}
	sort.Strings(res.Remapped)
	if len(res.Remapped) > 0 {
		log.Noticef("%d scientific names mapped to reduced specificity", len(res.Remapped))
	}
	return res, nil
}
