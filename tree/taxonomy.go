package tree

import (
	"regexp"
	"strings"
)

// Taxonomy holds the taxonomic data of a node.
type Taxonomy struct {
	// ID is an identifier such as an NCBI taxonomy id.
	ID string
	// Provider is the source of ID, e.g. "ncbi".
	Provider string
	// Code is a short taxonomy code such as the UniProt mnemonic "HUMAN".
	Code           string
	ScientificName string
	CommonName     string
}

func (t *Taxonomy) String() string {
	switch {
	case t.Code != "":
		return t.Code
	case t.ScientificName != "":
		return t.ScientificName
	case t.ID != "":
		if t.Provider != "" {
			return t.Provider + ":" + t.ID
		}
		return t.ID
	case t.CommonName != "":
		return t.CommonName
	}
	return ""
}

// IsEmpty is true if none of the fields used for linking is set.
func (t *Taxonomy) IsEmpty() bool {
	return t == nil || (t.ID == "" && t.Code == "" && t.ScientificName == "")
}

// Event is the reconciled event of an internal gene tree node.
type Event int

const (
	NoEvent Event = iota
	Speciation
	Duplication
	SpeciationOrDuplication
)

func (e Event) String() string {
	switch e {
	case Speciation:
		return "speciation"
	case Duplication:
		return "duplication"
	case SpeciationOrDuplication:
		return "speciation_or_duplication"
	}
	return "none"
}

// Extraction selects how taxonomy is derived from node names when no
// NHX taxonomy is present.
type Extraction int

const (
	// ExtractNone leaves names alone.
	ExtractNone Extraction = iota
	// ExtractCode takes a trailing "_CODE" suffix, as in "BCL2_HUMAN".
	ExtractCode
	// ExtractName uses the whole leaf name: a code if it looks like
	// one, a scientific name otherwise (underscores become spaces).
	ExtractName
)

var (
	codeRe       = regexp.MustCompile(`^[A-Z0-9]{1,5}$`)
	codeSuffixRe = regexp.MustCompile(`^.+_([A-Z0-9]{3,5})$`)
)

// IsTaxonomyCode is true for strings shaped like UniProt species
// mnemonics.
func IsTaxonomyCode(s string) bool {
	return codeRe.MatchString(s)
}

// TaxonomyFromName derives taxonomy from a leaf name, returns nil if
// nothing could be extracted.
func TaxonomyFromName(name string, mode Extraction) *Taxonomy {
	switch mode {
	case ExtractCode:
		if m := codeSuffixRe.FindStringSubmatch(name); m != nil {
			return &Taxonomy{Code: m[1]}
		}
	case ExtractName:
		if name == "" {
			return nil
		}
		if IsTaxonomyCode(name) {
			return &Taxonomy{Code: name}
		}
		return &Taxonomy{ScientificName: strings.TrimSpace(strings.ReplaceAll(name, "_", " "))}
	}
	return nil
}

// ExtractTaxonomy sets taxonomy on every leaf which has none.
func (tree *Tree) ExtractTaxonomy(mode Extraction) {
	if mode == ExtractNone {
		return
	}
	for node := range tree.Terminals() {
		if node.Taxonomy.IsEmpty() {
			if tax := TaxonomyFromName(node.Name, mode); tax != nil {
				node.Taxonomy = tax
			}
		}
	}
}
