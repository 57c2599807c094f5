package rio

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitbucket.org/Davydov/gsdi/checkpoint"
	"bitbucket.org/Davydov/gsdi/sdi"
	"bitbucket.org/Davydov/gsdi/tree"
)

const (
	mammals = "((HUMAN,CHIMP)Primate,(MOUSE,RAT)Rodent)Mammal;"
	gene1   = "((a_HUMAN,b_HUMAN),(c_MOUSE,d_RAT));"
	gene2   = "((a_HUMAN,c_MOUSE),(b_HUMAN,d_RAT));"
)

func parse(tst *testing.T, s string, mode tree.Extraction) *tree.Tree {
	t, err := tree.ParseNewickString(s, mode)
	require.NoError(tst, err, s)
	return t
}

func replicates(tst *testing.T, ss ...string) (genes []*tree.Tree) {
	for _, s := range ss {
		genes = append(genes, parse(tst, s, tree.ExtractCode))
	}
	return
}

func TestRelations(tst *testing.T) {
	t := parse(tst, gene1, tree.ExtractCode)
	_, err := sdi.Infer(t, parse(tst, mammals, tree.ExtractName), sdi.Options{Algorithm: sdi.SDI})
	require.NoError(tst, err)

	a := t.FindByName("a_HUMAN")[0]
	assert.Equal(tst, []string{"c_MOUSE", "d_RAT"}, labels(Orthologs(t, a)))
	assert.Empty(tst, SuperOrthologs(a))
	assert.Equal(tst, []string{"b_HUMAN"}, labels(UltraParalogs(a)))

	c := t.FindByName("c_MOUSE")[0]
	assert.Equal(tst, []string{"a_HUMAN", "b_HUMAN", "d_RAT"}, labels(Orthologs(t, c)))
	assert.Equal(tst, []string{"d_RAT"}, labels(SuperOrthologs(c)))
	assert.Empty(tst, UltraParalogs(c))
}

func analyze(tst *testing.T, opts Options) *Analysis {
	genes := replicates(tst, gene1, gene2, gene1)
	a, err := Analyze(genes, parse(tst, mammals, tree.ExtractName), opts)
	require.NoError(tst, err)
	return a
}

func checkAnalysis(tst *testing.T, a *Analysis) {
	require.NotNil(tst, a.Tally)
	assert.Equal(tst, 3, a.Tally.Samples)
	assert.Equal(tst, 3, a.Samples())
	assert.Equal(tst, 100.0, a.Tally.Percent(Ortholog, "c_MOUSE"))
	assert.InDelta(tst, 66.667, a.Tally.Percent(Ortholog, "d_RAT"), 0.001)
	assert.Equal(tst, 0.0, a.Tally.Percent(Ortholog, "b_HUMAN"))
	assert.InDelta(tst, 33.333, a.Tally.Percent(SuperOrtholog, "c_MOUSE"), 0.001)
	assert.InDelta(tst, 66.667, a.Tally.Percent(UltraParalog, "b_HUMAN"), 0.001)

	assert.Equal(tst, []int{1, 1, 1}, a.DuplicationCounts)
	assert.Equal(tst, 1.0, a.Duplications.Min)
	assert.Equal(tst, 4, a.ExtNodes)
	assert.Equal(tst, 3, a.IntNodes)
	require.NotNil(tst, a.MinDuplicationsTree)
	assert.Equal(tst, 4, a.MinDuplicationsTree.NLeaves())

	assert.Equal(tst, []string{"a_HUMAN", "b_HUMAN", "c_MOUSE", "d_RAT"}, a.Table.Labels)
	assert.Equal(tst, 3, a.Table.Count("a_HUMAN", "a_HUMAN"))
	assert.Equal(tst, 0, a.Table.Count("a_HUMAN", "b_HUMAN"))
	assert.Equal(tst, 3, a.Table.Count("a_HUMAN", "c_MOUSE"))
	assert.Equal(tst, 2, a.Table.Count("a_HUMAN", "d_RAT"))
	assert.Equal(tst, 2, a.Table.Count("d_RAT", "c_MOUSE"))
	assert.Equal(tst, 3, a.Table.Count("b_HUMAN", "d_RAT"))
}

func TestAnalyze(tst *testing.T) {
	opts := DefaultOptions()
	opts.Rerooting = None
	opts.Query = "a_HUMAN"
	opts.Workers = 2
	a := analyze(tst, opts)
	checkAnalysis(tst, a)
	assert.Equal(tst, []string{"CHIMP"}, a.RemovedSpecies)
	assert.Empty(tst, a.Removed)
	assert.Equal(tst, sdi.Code, a.Base)

	lines := a.Tally.OrthologLines(SortOrthologsSuper, 0)
	require.Len(tst, lines, 3)
	assert.Equal(tst, "c_MOUSE", lines[0].Label)
	assert.Equal(tst, "d_RAT", lines[1].Label)
	assert.Equal(tst, "b_HUMAN", lines[2].Label)
	assert.Len(tst, a.Tally.OrthologLines(SortOrthologsSuper, 50), 2)
	assert.Len(tst, a.Tally.OrthologLines(7, -5), 3)

	lines = a.Tally.OrthologLines(SortSuperOrthologs, 0)
	assert.Equal(tst, "c_MOUSE", lines[0].Label)
	assert.InDelta(tst, 33.333, lines[0].Value1, 0.001)

	up := a.Tally.UltraParalogLines(0)
	require.Len(tst, up, 1)
	assert.Equal(tst, "b_HUMAN", up[0].Label)
	assert.Equal(tst, "-", FormatUltraParalogs(a.Tally.UltraParalogLines(90)))
	assert.Equal(tst, "seq name\tortho\nc_MOUSE\t100.00\n", FormatOrthologs(a.Tally.OrthologLines(SortOrthologs, 90), SortOrthologs))

	lo, hi := a.Tally.SupportInterval(Ortholog, "d_RAT", 0.95)
	assert.True(tst, lo < 66.667 && hi > 66.667, "%v %v", lo, hi)
}

func TestAnalyzeByAlgorithm(tst *testing.T) {
	opts := DefaultOptions()
	opts.Query = "a_HUMAN"
	genes := replicates(tst, "(((a_HUMAN,b_HUMAN),c_MOUSE),d_RAT);", gene1)
	a, err := Analyze(genes, parse(tst, mammals, tree.ExtractName), opts)
	require.NoError(tst, err)
	assert.Equal(tst, []int{1, 1}, a.DuplicationCounts)
	assert.Equal(tst, 100.0, a.Tally.Percent(Ortholog, "c_MOUSE"))
	assert.Equal(tst, 100.0, a.Tally.Percent(UltraParalog, "b_HUMAN"))

	opts.Fast = true
	genes = replicates(tst, "(((a_HUMAN,b_HUMAN),c_MOUSE),d_RAT);", gene1)
	b, err := Analyze(genes, parse(tst, mammals, tree.ExtractName), opts)
	require.NoError(tst, err)
	assert.Equal(tst, a.DuplicationCounts, b.DuplicationCounts)
	assert.Equal(tst, a.Tally.Orthologs, b.Tally.Orthologs)
}

func TestAnalyzeRange(tst *testing.T) {
	opts := DefaultOptions()
	opts.Rerooting = None
	opts.First = 1
	genes := replicates(tst, gene1, gene2, gene1)
	a, err := Analyze(genes, parse(tst, mammals, tree.ExtractName), opts)
	require.NoError(tst, err)
	assert.Equal(tst, 2, a.Samples())
	assert.Equal(tst, 2, a.Last)
	assert.Nil(tst, a.Tally)
}

func TestAnalyzeErrors(tst *testing.T) {
	species := func() *tree.Tree { return parse(tst, mammals, tree.ExtractName) }
	check := func(target error, modify func(*Options), genes ...string) {
		opts := DefaultOptions()
		opts.Rerooting = None
		modify(&opts)
		_, err := Analyze(replicates(tst, genes...), species(), opts)
		assert.True(tst, errors.Is(err, target), "expected %v, got %v", target, err)
	}

	check(ErrRange, func(o *Options) { o.First, o.Last = 2, 5 }, gene1, gene2)
	check(ErrRange, func(o *Options) { o.First, o.Last = 1, 0 }, gene1, gene2)
	check(ErrOutgroup, func(o *Options) { o.Rerooting = Outgroup }, gene1)
	check(ErrOutgroup, func(o *Options) { o.Outgroup = "a_HUMAN" }, gene1)
	check(ErrOutgroup, func(o *Options) { o.Rerooting, o.Outgroup = Outgroup, "x" }, gene1)
	check(ErrNoBranchLengths, func(o *Options) { o.Rerooting = Midpoint }, gene1)
	check(ErrQueryNotFound, func(o *Options) { o.Query = "zzz" }, gene1)
	check(ErrQueryNotUnique, func(o *Options) { o.Query = "a_HUMAN" }, "((a_HUMAN,b_HUMAN)a_HUMAN,(c_MOUSE,d_RAT));")
	check(ErrLabel, func(o *Options) {}, "((a_HUMAN,a_HUMAN),(c_MOUSE,d_RAT));")
	check(ErrLeafCount, func(o *Options) {}, gene1, "((a_HUMAN,b_HUMAN),(c_MOUSE,(d_RAT,e_RAT)));")
	check(ErrNoGeneTrees, func(o *Options) {})
}

func TestAnalyzeOutgroup(tst *testing.T) {
	opts := DefaultOptions()
	opts.Rerooting = Outgroup
	opts.Outgroup = "ab"
	opts.Query = "a_HUMAN"
	genes := replicates(tst, "(((a_HUMAN:1,b_HUMAN:1)ab:1,c_MOUSE:1):1,d_RAT:1);")
	a, err := Analyze(genes, parse(tst, mammals, tree.ExtractName), opts)
	require.NoError(tst, err)
	assert.Equal(tst, []int{1}, a.DuplicationCounts)
	assert.Equal(tst, 100.0, a.Tally.Percent(UltraParalog, "b_HUMAN"))
}

func TestAnalyzeMidpoint(tst *testing.T) {
	opts := DefaultOptions()
	opts.Rerooting = Midpoint
	genes := replicates(tst, "((a_HUMAN:1,b_HUMAN:1):1,(c_MOUSE:1,d_RAT:1):1);")
	a, err := Analyze(genes, parse(tst, mammals, tree.ExtractName), opts)
	require.NoError(tst, err)
	assert.Equal(tst, []int{1}, a.DuplicationCounts)
}

func TestRerootingChecksFirstInRange(tst *testing.T) {
	species := func() *tree.Tree { return parse(tst, mammals, tree.ExtractName) }
	withLengths := "((a_HUMAN:1,b_HUMAN:1):1,(c_MOUSE:1,d_RAT:1):1);"

	opts := DefaultOptions()
	opts.Rerooting = Midpoint
	opts.First = 1
	a, err := Analyze(replicates(tst, gene1, withLengths), species(), opts)
	require.NoError(tst, err)
	assert.Equal(tst, []int{1}, a.DuplicationCounts)

	_, err = Analyze(replicates(tst, withLengths, gene1), species(), opts)
	assert.True(tst, errors.Is(err, ErrNoBranchLengths), "got %v", err)

	opts = DefaultOptions()
	opts.Rerooting = Outgroup
	opts.Outgroup = "ab"
	opts.First = 1
	a, err = Analyze(replicates(tst, gene1, "(((a_HUMAN:1,b_HUMAN:1)ab:1,c_MOUSE:1):1,d_RAT:1);"), species(), opts)
	require.NoError(tst, err)
	assert.Equal(tst, []int{1}, a.DuplicationCounts)
}

func TestCheckpoint(tst *testing.T) {
	db, err := checkpoint.Open(filepath.Join(tst.TempDir(), "rio.db"))
	require.NoError(tst, err)
	defer db.Close()
	cp := checkpoint.NewCheckpointIO(db, checkpoint.RunKey("rio", "a_HUMAN"), 0)

	opts := DefaultOptions()
	opts.Rerooting = None
	opts.Query = "a_HUMAN"
	opts.Checkpoint = cp

	// the first two trees, then pretend the run was interrupted
	opts.Last = 1
	partial := analyze(tst, opts)
	assert.Equal(tst, 2, partial.Samples())
	data, err := cp.Load()
	require.NoError(tst, err)
	require.NotNil(tst, data)
	assert.Equal(tst, 2, data.Done)
	data.Final = false
	require.NoError(tst, cp.Save(data))

	opts.Last = DefaultRange
	a := analyze(tst, opts)
	assert.Equal(tst, 2, a.Resumed)
	checkAnalysis(tst, a)

	// a finished run is only restored
	b := analyze(tst, opts)
	assert.Equal(tst, 3, b.Resumed)
	checkAnalysis(tst, b)
}
