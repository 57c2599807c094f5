package rio

import "errors"

var (
	ErrQueryNotFound  = errors.New("query not found")
	ErrQueryNotUnique = errors.New("query is not unique")
	// ErrLeafCount is returned when gene trees differ in the number of
	// external nodes.
	ErrLeafCount = errors.New("different number of external nodes")
	ErrRange     = errors.New("illegal range of gene trees")
	ErrOutgroup  = errors.New("illegal outgroup")
	// ErrNoBranchLengths is returned for midpoint rooting of cladograms.
	ErrNoBranchLengths = errors.New("gene trees have no positive branch lengths")
	ErrLabel           = errors.New("illegal external node label")
	ErrNoGeneTrees     = errors.New("no gene trees to analyze")
)
