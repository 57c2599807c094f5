package main

import (
	"bitbucket.org/Davydov/gsdi/dist"
	"bitbucket.org/Davydov/gsdi/rio"
)

// RunSummary is storing gsdi-rio run summary information.
type RunSummary struct {
	// Version stores gsdi-rio version.
	Version string `json:"version"`
	// CommandLine is an array storing binary name and all command-line parameters.
	CommandLine []string `json:"commandLine"`
	// NThreads is the number of processes used.
	NThreads int `json:"nThreads"`
	// Time is the computations time in seconds.
	Time float64 `json:"time"`

	Algorithm string `json:"algorithm"`
	Rerooting string `json:"rerooting"`
	Base      string `json:"base"`
	// First and Last are the analyzed range of gene trees.
	First int `json:"first"`
	Last  int `json:"last"`
	// Samples is the number of analyzed gene trees, Resumed of those
	// taken from a checkpoint.
	Samples  int `json:"samples"`
	Resumed  int `json:"resumed,omitempty"`
	ExtNodes int `json:"extNodes"`
	IntNodes int `json:"intNodes"`

	Duplications      dist.Stats `json:"duplications"`
	DuplicationCounts []int      `json:"duplicationCounts"`
	// MinDuplicationsTree is in NHX format.
	MinDuplicationsTree string   `json:"minDuplicationsTree"`
	RemovedGene         []string `json:"removedGene,omitempty"`
	RemovedSpecies      []string `json:"removedSpecies,omitempty"`

	Query         string     `json:"query,omitempty"`
	Orthologs     []Relation `json:"orthologs,omitempty"`
	UltraParalogs []Relation `json:"ultraParalogs,omitempty"`
}

// Relation is the support of one sequence being related to the query, in
// percent, with a binomial interval.
type Relation struct {
	Label          string  `json:"label"`
	Percent        float64 `json:"percent"`
	SuperOrthologs float64 `json:"superOrthologs,omitempty"`
	Low            float64 `json:"low"`
	High           float64 `json:"high"`
}

// relations converts sorted lines of a tally.
func relations(t *rio.Tally, r rio.Relation, lines []rio.Line, level float64) (rel []Relation) {
	for _, l := range lines {
		lo, hi := t.SupportInterval(r, l.Label, level)
		x := Relation{
			Label:   l.Label,
			Percent: t.Percent(r, l.Label),
			Low:     lo,
			High:    hi,
		}
		if r == rio.Ortholog {
			x.SuperOrthologs = t.Percent(rio.SuperOrtholog, l.Label)
		}
		rel = append(rel, x)
	}
	return
}
