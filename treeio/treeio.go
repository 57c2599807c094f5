// Package treeio reads files with one or many newick trees, e.g.
// bootstrap or posterior gene tree samples. Files may be gzipped; "-"
// stands for the standard input.
package treeio

import (
	"fmt"

	gotree "github.com/evolbioinfo/gotree/io/utils"

	"bitbucket.org/Davydov/gsdi/tree"
)

// ReadTrees reads all the trees from path. Every tree is converted to
// tree.Tree with leaf taxonomy extracted according to mode.
func ReadTrees(path string, mode tree.Extraction) (trees []*tree.Tree, err error) {
	f, r, err := gotree.GetReader(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	i := 0
	// the channel is drained even after an error, so that the reading
	// goroutine can finish
	for res := range gotree.ReadMultiTrees(r, gotree.FORMAT_NEWICK) {
		if err != nil {
			continue
		}
		if res.Err != nil {
			err = fmt.Errorf("%s, tree #%d: %w", path, i, res.Err)
			continue
		}
		t, perr := tree.ParseNewickString(res.Tree.Newick(), mode)
		if perr != nil {
			err = fmt.Errorf("%s, tree #%d: %w", path, i, perr)
			continue
		}
		trees = append(trees, t)
		i++
	}
	if err != nil {
		return nil, err
	}
	return trees, nil
}
