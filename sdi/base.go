package sdi

import (
	"fmt"

	"bitbucket.org/Davydov/gsdi/tree"
)

// Base is the taxonomy field used to link gene tree and species tree.
type Base int

const (
	ID Base = iota
	Code
	ScientificName
)

func (b Base) String() string {
	switch b {
	case ID:
		return "ID"
	case Code:
		return "CODE"
	case ScientificName:
		return "SCIENTIFIC_NAME"
	}
	return fmt.Sprintf("Base(%d)", int(b))
}

// Key returns the join key of a node for the given base, or an empty
// string if the node has no such data.
func Key(n *tree.Node, b Base) string {
	tax := n.Taxonomy
	if tax == nil {
		return ""
	}
	switch b {
	case ID:
		if tax.ID == "" {
			return ""
		}
		if tax.Provider != "" {
			return tax.Provider + ":" + tax.ID
		}
		return tax.ID
	case Code:
		return tax.Code
	case ScientificName:
		return tax.ScientificName
	}
	return ""
}

type fieldCounts struct {
	id, code, sn, total int
}

func countFields(t *tree.Tree, c *fieldCounts) {
	for n := range t.Terminals() {
		c.total++
		if Key(n, ID) != "" {
			c.id++
		}
		if Key(n, Code) != "" {
			c.code++
		}
		if Key(n, ScientificName) != "" {
			c.sn++
		}
	}
}

// DetermineBase picks the field present on most external nodes of a
// tree. Ties are resolved ID, then scientific name, then code.
func DetermineBase(t *tree.Tree) (Base, error) {
	var c fieldCounts
	countFields(t, &c)
	max := c.id
	if c.code > max {
		max = c.code
	}
	if c.sn > max {
		max = c.sn
	}
	if max <= 1 {
		return ID, fmt.Errorf("%w: %d of %d external nodes have taxonomy",
			ErrInsufficientTaxonomicData, max, c.total)
	}
	switch max {
	case c.id:
		return ID, nil
	case c.sn:
		return ScientificName, nil
	}
	return Code, nil
}

// DetermineCommonBase picks a field set on every external node of both
// trees, trying ID, code and scientific name in this order.
func DetermineCommonBase(gene, species *tree.Tree) (Base, error) {
	var c fieldCounts
	countFields(gene, &c)
	countFields(species, &c)
	switch c.total {
	case c.id:
		return ID, nil
	case c.code:
		return Code, nil
	case c.sn:
		return ScientificName, nil
	}
	return ID, fmt.Errorf("%w: ids on %d, codes on %d, scientific names on %d of %d external nodes",
		ErrIncomparableTaxonomies, c.id, c.code, c.sn, c.total)
}
