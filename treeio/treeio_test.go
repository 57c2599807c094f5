package treeio

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitbucket.org/Davydov/gsdi/tree"
)

const replicates = `((a_HUMAN:1,b_HUMAN:1):1,(c_MOUSE:1,d_RAT:1):1);
((a_HUMAN,c_MOUSE),(b_HUMAN,d_RAT));
`

func check(tst *testing.T, trees []*tree.Tree) {
	require.Len(tst, trees, 2)
	for _, t := range trees {
		assert.Equal(tst, 4, t.NLeaves())
		assert.Equal(tst, 7, t.NNodes())
		for n := range t.Terminals() {
			require.NotNil(tst, n.Taxonomy, n.Name)
		}
	}
	a := trees[0].FindByName("a_HUMAN")
	require.Len(tst, a, 1)
	assert.Equal(tst, "HUMAN", a[0].Taxonomy.Code)
	assert.Equal(tst, 1.0, a[0].BranchLength)
}

func TestReadTrees(tst *testing.T) {
	path := filepath.Join(tst.TempDir(), "genes.nwk")
	require.NoError(tst, os.WriteFile(path, []byte(replicates), 0644))

	trees, err := ReadTrees(path, tree.ExtractCode)
	require.NoError(tst, err)
	check(tst, trees)
}

func TestReadTreesGzip(tst *testing.T) {
	path := filepath.Join(tst.TempDir(), "genes.nwk.gz")
	f, err := os.Create(path)
	require.NoError(tst, err)
	w := gzip.NewWriter(f)
	_, err = w.Write([]byte(replicates))
	require.NoError(tst, err)
	require.NoError(tst, w.Close())
	require.NoError(tst, f.Close())

	trees, err := ReadTrees(path, tree.ExtractCode)
	require.NoError(tst, err)
	check(tst, trees)
}

func TestReadTreesMissing(tst *testing.T) {
	_, err := ReadTrees(filepath.Join(tst.TempDir(), "none.nwk"), tree.ExtractCode)
	assert.Error(tst, err)
}
