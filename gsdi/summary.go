package main

import "bitbucket.org/Davydov/gsdi/dist"

// RunSummary is storing gsdi run summary information.
type RunSummary struct {
	// Version stores gsdi version.
	Version string `json:"version"`
	// CommandLine is an array storing binary name and all command-line parameters.
	CommandLine []string `json:"commandLine"`
	// NThreads is the number of processes used.
	NThreads int `json:"nThreads"`
	// Time is the computations time in seconds.
	Time float64 `json:"time"`

	Algorithm string `json:"algorithm"`
	// Base is the taxonomy field used to link the trees.
	Base                     string `json:"base"`
	Duplications             int    `json:"duplications"`
	Speciations              int    `json:"speciations"`
	SpeciationOrDuplications int    `json:"speciationOrDuplications"`
	// MappingCost is only computed if requested (-cost).
	MappingCost     *int     `json:"mappingCost,omitempty"`
	MappedSpecies   int      `json:"mappedSpecies"`
	StrippedGene    []string `json:"strippedGene,omitempty"`
	StrippedSpecies []string `json:"strippedSpecies,omitempty"`
	Remapped        []string `json:"remapped,omitempty"`
	// Tree is the reconciled gene tree in NHX format.
	Tree string `json:"tree"`

	Search *SearchSummary `json:"search,omitempty"`
	// DuplicationCounts holds duplications of every evaluated rooting,
	// the original one first.
	DuplicationCounts []int `json:"duplicationCounts,omitempty"`
}

// SearchSummary describes the rooting search.
type SearchSummary struct {
	Method               string     `json:"method"`
	Evaluated            int        `json:"evaluated"`
	MinDuplications      int        `json:"minDuplications"`
	OriginalDuplications int        `json:"originalDuplications"`
	MinRootings          int        `json:"minRootings"`
	Stats                dist.Stats `json:"stats"`
}
