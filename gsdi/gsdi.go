/*

Gsdi infers gene duplications and speciations by reconciling a gene tree
with a species tree.

The basic usage of gsdi looks like this:

	gsdi gene.nhx species.nwk

, this will run GSDI and print the gene tree with events in NHX format.

The rooting of the gene tree can be searched for the fewest duplications:

	gsdi -search fast -algorithm sdi gene.nhx species.nwk

Gene tree leaves are linked by the NHX taxonomy (S= or T=) or by the
taxonomy code suffix of their names (e.g. BCL2_HUMAN). Species tree
leaf names are taxonomy codes or scientific names.

To see all the options run:

	gsdi -h

*/
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/op/go-logging"

	"bitbucket.org/Davydov/gsdi/config"
	"bitbucket.org/Davydov/gsdi/dist"
	"bitbucket.org/Davydov/gsdi/sdi"
	"bitbucket.org/Davydov/gsdi/taxa"
	"bitbucket.org/Davydov/gsdi/tree"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = fmt.Sprintf("branch: %s, revision: %s, build time: %s", gitbranch, githash, buildstamp)

// Logger settings.
var log = logging.MustGetLogger("gsdi")
var formatter = logging.MustStringFormatter(`%{message}`)

// setByUser records flags given on the command line, they take
// precedence over the configuration file.
var setByUser = make(map[string]bool)

func mark(name string) kingpin.Action {
	return func(*kingpin.ParseContext) error {
		setByUser[name] = true
		return nil
	}
}

// command-line options
var (
	// application
	app = kingpin.New("gsdi", "gene tree/species tree reconciliation").Version(version)

	// input trees
	geneFileName    = app.Arg("gene", "gene tree (newick or NHX)").Required().ExistingFile()
	speciesFileName = app.Arg("species", "species tree (newick or NHX)").Required().ExistingFile()

	// reconciliation
	algorithm = app.Flag("algorithm", "sdi (binary species tree) or gsdi").
			Default("gsdi").Envar("GSDI_ALGORITHM").Action(mark("algorithm")).
			Enum("sdi", "gsdi", "SDI", "GSDI")
	search = app.Flag("search", "gene tree root search "+
		"(none: keep the rooting, "+
		"exhaustive: reconcile every rooting, "+
		"fast: count duplications of every rooting in linear time)").
		Default("none").Envar("GSDI_SEARCH").Action(mark("search")).
		Enum("none", "exhaustive", "fast")
	stripGene        = app.Flag("strip-gene", "remove gene tree leaves which cannot be mapped").Action(mark("strip-gene")).Bool()
	stripSpecies     = app.Flag("strip-species", "remove species tree leaves without genes").Action(mark("strip-species")).Bool()
	mostParsimonious = app.Flag("most-parsimonious", "resolve ambiguous GSDI events as speciations").
				Action(mark("most-parsimonious")).Bool()
	cost = app.Flag("cost", "compute the mapping cost").Bool()

	// settings
	configF   = app.Flag("config", "TOML configuration file").Envar("GSDI_CONFIG").ExistingFile()
	synonymsF = app.Flag("synonyms-gbif", "taxonomy file (GBIF TSV) to resolve synonyms of scientific names").
			Envar("GSDI_SYNONYMS").ExistingFile()

	// technical
	nThreads   = app.Flag("nt", "number of threads to use").Envar("GSDI_THREADS").Int()
	cpuProfile = app.Flag("cpuprofile", "write cpu profile to file").String()

	// input/output
	outLogF  = app.Flag("log", "write log to a file").String()
	outF     = app.Flag("out", "write the reconciled tree to a file").String()
	histF    = app.Flag("hist", "plot the duplications of all rootings to a file (png, svg or pdf)").String()
	logLevel = app.Flag("loglevel", "set loglevel "+
		"('critical', 'error', 'warning', 'notice', 'info', 'debug')").
		Default("notice").
		Envar("GSDI_LOGLEVEL").
		Enum("critical", "error", "warning", "notice", "info", "debug")
	jsonF = app.Flag("json", "write json output to a file").String()
)

// readTree reads a single tree.
func readTree(fn string, mode tree.Extraction) *tree.Tree {
	f, err := os.Open(fn)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	t, err := tree.ParseNewickWith(f, mode)
	if err != nil {
		log.Fatalf("Error reading %s: %v", fn, err)
	}
	return t
}

// settings merges the configuration file with the command line. threads
// is used for the rooting search unless the configuration sets workers.
func settings(threads int) (opts sdi.Options, method string, workers int) {
	cfg := config.Default()
	if *configF != "" {
		var err error
		cfg, err = config.Load(*configF)
		if err != nil {
			log.Fatal(err)
		}
		log.Infof("Read configuration from %s", *configF)
	}

	rc := &cfg.Reconcile
	if setByUser["algorithm"] || *configF == "" {
		rc.Algorithm = *algorithm
	}
	if setByUser["search"] || *configF == "" {
		rc.Search = *search
	}
	if setByUser["strip-gene"] {
		rc.StripGene = *stripGene
	}
	if setByUser["strip-species"] {
		rc.StripSpecies = *stripSpecies
	}
	if setByUser["most-parsimonious"] {
		rc.MostParsimonious = *mostParsimonious
	}

	opts, err := cfg.Options()
	if err != nil {
		log.Fatal(err)
	}

	if *synonymsF != "" {
		r, err := taxa.Open(*synonymsF)
		if err != nil {
			log.Fatal(err)
		}
		if opts.Resolver != nil {
			opts.Resolver = taxa.Chain{opts.Resolver, r}
		} else {
			opts.Resolver = r
		}
	}
	return opts, rc.Search, cfg.Workers(threads)
}

func labels(nodes []*tree.Node) (l []string) {
	for _, n := range nodes {
		l = append(l, n.Label())
	}
	return
}

func run(threads int) (summary *RunSummary) {
	startTime := time.Now()
	summary = &RunSummary{}

	opts, method, workers := settings(threads)
	log.Infof("Algorithm: %v, rooting search: %s, workers: %d", opts.Algorithm, method, workers)
	summary.Algorithm = opts.Algorithm.String()

	gene := readTree(*geneFileName, tree.ExtractCode)
	species := readTree(*speciesFileName, tree.ExtractName)
	log.Infof("Gene tree: %d external, %d internal nodes", gene.NLeaves(), gene.NInternal())
	log.Infof("Species tree: %d external, %d internal nodes", species.NLeaves(), species.NInternal())
	log.Debugf("gene=%s", gene.NHX())
	log.Debugf("species=%s", species.NHX())

	if species.NLeaves() < 2 {
		log.Fatal("Species tree has less than two external nodes")
	}

	var (
		res *sdi.Result
		lr  *sdi.LinkResult
		out *tree.Tree
		err error
	)

	switch method {
	case "none":
		res, err = sdi.Infer(gene, species, opts)
		if err == nil {
			lr, out = res.LinkResult, gene
		}
	case "exhaustive", "fast":
		var sr *sdi.SearchResult
		so := sdi.SearchOptions{Options: opts, Workers: workers}
		if method == "fast" {
			sr, err = sdi.SearchRootingsFast(gene, species, so)
		} else {
			sr, err = sdi.SearchRootings(gene, species, so)
		}
		if err != nil {
			break
		}
		best := sr.MinTrees[0]
		res, lr, out = best.Result, sr.Link, best.Tree
		log.Noticef("Evaluated rootings: %d", sr.Evaluated)
		log.Noticef("Duplications: original rooting %d, minimum %d (%d rootings)",
			sr.OriginalDuplications, sr.MinDuplications, len(sr.MinTrees))
		log.Noticef("Duplications over rootings: %v", sr.Stats)
		summary.Search = &SearchSummary{
			Method:               method,
			Evaluated:            sr.Evaluated,
			MinDuplications:      sr.MinDuplications,
			OriginalDuplications: sr.OriginalDuplications,
			MinRootings:          len(sr.MinTrees),
			Stats:                sr.Stats,
		}
		summary.DuplicationCounts = sr.Counts
	default:
		err = fmt.Errorf("unknown rooting search: %q", method)
	}
	if err != nil {
		switch {
		case errors.Is(err, sdi.ErrUnmappableGeneTreeNode):
			log.Error("Use -strip-gene to remove gene tree leaves without species")
		case errors.Is(err, sdi.ErrNonBinaryGeneTree):
			log.Error("Gene tree must be binary")
		}
		log.Fatal(err)
	}

	summary.Base = lr.Base.String()
	summary.Duplications = res.Duplications
	summary.Speciations = res.Speciations
	summary.SpeciationOrDuplications = res.SpeciationOrDuplications
	summary.MappedSpecies = len(lr.MappedSpecies)
	summary.StrippedGene = labels(lr.StrippedGene)
	summary.StrippedSpecies = labels(lr.StrippedSpecies)
	summary.Remapped = lr.Remapped

	log.Infof("Linked on: %v", lr.Base)
	log.Infof("Mapped species: %d of %d", len(lr.MappedSpecies), species.NLeaves()+len(lr.StrippedSpecies))
	for _, s := range lr.StrippedGene {
		log.Noticef("Stripped gene tree node: %s", s.Label())
	}
	for _, r := range lr.Remapped {
		log.Noticef("Remapped: %s", r)
	}

	log.Noticef("Duplications: %d", res.Duplications)
	log.Noticef("Speciations: %d", res.Speciations)
	if opts.Algorithm == sdi.GSDI {
		log.Noticef("Speciations or duplications: %d", res.SpeciationOrDuplications)
	}

	if *cost {
		c := sdi.MappingCost(out, species, res.Mapping)
		log.Noticef("Mapping cost: %d", c)
		summary.MappingCost = &c
	}

	summary.Tree = out.NHX()
	f := os.Stdout
	if *outF != "" {
		f, err = os.Create(*outF)
		if err != nil {
			log.Fatal("Error creating tree output file:", err)
		}
		defer f.Close()
	}
	fmt.Fprintln(f, summary.Tree)

	if *histF != "" {
		if len(summary.DuplicationCounts) == 0 {
			log.Warning("No rooting search, not plotting the histogram")
		} else if err := dist.SaveHistogram(summary.DuplicationCounts, "duplications of all rootings",
			"duplications", *histF); err != nil {
			log.Error("Error plotting histogram:", err)
		}
	}

	deltaT := time.Since(startTime)
	log.Noticef("Running time: %v", deltaT)
	summary.Time = deltaT.Seconds()

	return
}

func main() {
	// .env is optional, it only provides GSDI_* defaults
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	// logging
	logging.SetFormatter(formatter)

	var backend *logging.LogBackend
	if *outLogF != "" {
		f, err := os.OpenFile(*outLogF, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("Error creating log file:", err)
		}
		defer f.Close()
		backend = logging.NewLogBackend(f, "", 0)
	} else {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
	}
	logging.SetBackend(backend)

	level, err := logging.LogLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	for _, module := range []string{"gsdi", "sdi", "taxa"} {
		logging.SetLevel(level, module)
	}

	// print revision
	log.Info(version)

	// print commandline
	log.Info("Command line:", os.Args)

	runtime.GOMAXPROCS(*nThreads)

	effectiveNThreads := runtime.GOMAXPROCS(0)
	log.Infof("Using threads: %d.", effectiveNThreads)

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	summary := run(effectiveNThreads)
	summary.NThreads = effectiveNThreads
	summary.Version = version
	summary.CommandLine = os.Args

	// output summary in json format
	if *jsonF != "" {
		j, err := json.Marshal(summary)
		if err != nil {
			log.Error(err)
		} else {
			log.Debug(string(j))
			f, err := os.Create(*jsonF)
			if err != nil {
				log.Error("Error creating json output file:", err)
			} else {
				f.Write(j)
				f.Close()
			}
		}
	}
}
