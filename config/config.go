// Package config reads run settings from a TOML file. Command line flags
// take precedence over the values read here.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"bitbucket.org/Davydov/gsdi/rio"
	"bitbucket.org/Davydov/gsdi/sdi"
)

type Reconcile struct {
	Algorithm        string `toml:"algorithm"`
	Search           string `toml:"search"`
	StripGene        bool   `toml:"strip_gene"`
	StripSpecies     bool   `toml:"strip_species"`
	MostParsimonious bool   `toml:"most_parsimonious"`
	Workers          int    `toml:"workers"`
}

type RIO struct {
	Rerooting   string  `toml:"rerooting"`
	Outgroup    string  `toml:"outgroup"`
	First       int     `toml:"first"`
	Last        int     `toml:"last"`
	Sort        int     `toml:"sort"`
	Threshold   float64 `toml:"threshold"`
	UPThreshold float64 `toml:"up_threshold"`
}

// Synonyms maps species names found in gene trees to the names used in
// the species tree.
type Synonyms map[string]string

// Resolve implements sdi.NameResolver.
func (s Synonyms) Resolve(name string) (string, bool) {
	accepted, ok := s[name]
	if !ok {
		accepted, ok = s[strings.ReplaceAll(name, "_", " ")]
	}
	return accepted, ok
}

type Config struct {
	Reconcile Reconcile `toml:"reconcile"`
	RIO       RIO       `toml:"rio"`
	Synonyms  Synonyms  `toml:"synonyms"`
}

// Default returns the settings used without a configuration file.
func Default() *Config {
	return &Config{
		Reconcile: Reconcile{
			Algorithm: "gsdi",
			Search:    "none",
		},
		RIO: RIO{
			Rerooting:   rio.ByAlgorithm.String(),
			First:       rio.DefaultRange,
			Last:        rio.DefaultRange,
			Sort:        rio.SortOrthologsSuper,
			UPThreshold: 50,
		},
	}
}

// Load reads the file at path on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// Options converts the reconciliation settings. Resolver is set to the
// synonyms if there are any.
func (c *Config) Options() (opts sdi.Options, err error) {
	opts.Algorithm, err = sdi.ParseAlgorithm(c.Reconcile.Algorithm)
	if err != nil {
		return
	}
	opts.StripGeneTree = c.Reconcile.StripGene
	opts.StripSpeciesTree = c.Reconcile.StripSpecies
	opts.MostParsimonious = c.Reconcile.MostParsimonious
	if len(c.Synonyms) > 0 {
		opts.Resolver = c.Synonyms
	}
	return
}

// Workers returns the number of workers set in the reconcile section,
// or threads if it is not set.
func (c *Config) Workers(threads int) int {
	if c.Reconcile.Workers > 0 {
		return c.Reconcile.Workers
	}
	return threads
}

// RIOOptions converts the RIO settings. The algorithm is taken from the
// reconcile section.
func (c *Config) RIOOptions() (opts rio.Options, err error) {
	opts = rio.DefaultOptions()
	if opts.Rerooting, err = rio.ParseRerooting(c.RIO.Rerooting); err != nil {
		return
	}
	if opts.Algorithm, err = sdi.ParseAlgorithm(c.Reconcile.Algorithm); err != nil {
		return
	}
	opts.Outgroup = c.RIO.Outgroup
	opts.First = c.RIO.First
	opts.Last = c.RIO.Last
	opts.MostParsimonious = c.Reconcile.MostParsimonious
	opts.Fast = c.Reconcile.Search == "fast"
	if c.Reconcile.Workers > 1 {
		opts.Workers = c.Reconcile.Workers
	}
	return
}
