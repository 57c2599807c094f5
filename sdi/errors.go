package sdi

import "errors"

var (
	// ErrInsufficientTaxonomicData is returned when fewer than two
	// external nodes carry usable taxonomy.
	ErrInsufficientTaxonomicData = errors.New("insufficient taxonomic data")
	// ErrIncomparableTaxonomies is returned when no taxonomy field is
	// set on every external node of both trees.
	ErrIncomparableTaxonomies = errors.New("incomparable taxonomies")
	ErrDuplicateTaxonomyKey   = errors.New("taxonomy is not unique in species tree")
	ErrUnmappableGeneTreeNode = errors.New("gene tree node cannot be mapped to species tree")
	ErrInsufficientMappedTaxa = errors.New("fewer than two gene tree nodes could be mapped")
	ErrNonBinaryGeneTree      = errors.New("gene tree is not binary")
)
