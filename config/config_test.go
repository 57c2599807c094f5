package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitbucket.org/Davydov/gsdi/rio"
	"bitbucket.org/Davydov/gsdi/sdi"
)

const settings = `
[reconcile]
algorithm = "SDI"
search = "fast"
strip_gene = true
workers = 4

[rio]
rerooting = "midpoint"
first = 2
threshold = 75.0

[synonyms]
"Homo sapiens" = "HUMAN"
Mus_musculus = "MOUSE"
`

func write(tst *testing.T, s string) string {
	path := filepath.Join(tst.TempDir(), "gsdi.toml")
	require.NoError(tst, os.WriteFile(path, []byte(s), 0644))
	return path
}

func TestLoad(tst *testing.T) {
	cfg, err := Load(write(tst, settings))
	require.NoError(tst, err)

	assert.Equal(tst, "SDI", cfg.Reconcile.Algorithm)
	assert.True(tst, cfg.Reconcile.StripGene)
	assert.False(tst, cfg.Reconcile.StripSpecies)
	assert.Equal(tst, 4, cfg.Reconcile.Workers)
	assert.Equal(tst, 2, cfg.RIO.First)
	// not in the file
	assert.Equal(tst, rio.DefaultRange, cfg.RIO.Last)
	assert.Equal(tst, 50.0, cfg.RIO.UPThreshold)
	assert.Equal(tst, 75.0, cfg.RIO.Threshold)

	opts, err := cfg.Options()
	require.NoError(tst, err)
	assert.Equal(tst, sdi.SDI, opts.Algorithm)
	assert.True(tst, opts.StripGeneTree)
	require.NotNil(tst, opts.Resolver)

	ro, err := cfg.RIOOptions()
	require.NoError(tst, err)
	assert.Equal(tst, rio.Midpoint, ro.Rerooting)
	assert.True(tst, ro.Fast)
	assert.Equal(tst, 4, ro.Workers)
	assert.Equal(tst, 2, ro.First)
}

func TestSynonyms(tst *testing.T) {
	cfg, err := Load(write(tst, settings))
	require.NoError(tst, err)

	name, ok := cfg.Synonyms.Resolve("Homo sapiens")
	assert.True(tst, ok)
	assert.Equal(tst, "HUMAN", name)
	name, ok = cfg.Synonyms.Resolve("Homo_sapiens")
	assert.True(tst, ok)
	assert.Equal(tst, "HUMAN", name)
	_, ok = cfg.Synonyms.Resolve("Pan troglodytes")
	assert.False(tst, ok)
}

func TestDefault(tst *testing.T) {
	opts, err := Default().Options()
	require.NoError(tst, err)
	assert.Equal(tst, sdi.GSDI, opts.Algorithm)
	assert.Nil(tst, opts.Resolver)

	ro, err := Default().RIOOptions()
	require.NoError(tst, err)
	assert.Equal(tst, rio.ByAlgorithm, ro.Rerooting)
	assert.Equal(tst, 1, ro.Workers)
}

func TestWorkers(tst *testing.T) {
	assert.Equal(tst, 8, Default().Workers(8))

	cfg, err := Load(write(tst, settings))
	require.NoError(tst, err)
	assert.Equal(tst, 4, cfg.Workers(8))

	cfg, err = Load(write(tst, "[reconcile]\nworkers = 1\n"))
	require.NoError(tst, err)
	assert.Equal(tst, 1, cfg.Workers(8))

	cfg, err = Load(write(tst, "[reconcile]\nsearch = \"exhaustive\"\n"))
	require.NoError(tst, err)
	assert.Equal(tst, 8, cfg.Workers(8))
}

func TestLoadErrors(tst *testing.T) {
	_, err := Load(filepath.Join(tst.TempDir(), "none.toml"))
	assert.Error(tst, err)

	_, err = Load(write(tst, "[reconcile\n"))
	assert.Error(tst, err)

	cfg, err := Load(write(tst, "[reconcile]\nalgorithm = \"nj\"\n"))
	require.NoError(tst, err)
	_, err = cfg.Options()
	assert.Error(tst, err)
}
