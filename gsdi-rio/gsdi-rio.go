/*

Gsdi-rio infers orthologs and paralogs of a query sequence from a set of
gene trees, e.g. bootstrap resamples, by reconciling every tree with the
species tree.

The basic usage looks like this:

	gsdi-rio -query BCL2_HUMAN gene_trees.nwk species.nwk

, this will root every gene tree to minimize duplications and print the
percentage of trees in which each sequence is an ortholog of the query.

Long runs can be continued after an interruption:

	gsdi-rio -checkpoint rio.db -query BCL2_HUMAN gene_trees.nwk.gz species.nwk

To see all the options run:

	gsdi-rio -h

*/
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/op/go-logging"

	"bitbucket.org/Davydov/gsdi/checkpoint"
	"bitbucket.org/Davydov/gsdi/config"
	"bitbucket.org/Davydov/gsdi/dist"
	"bitbucket.org/Davydov/gsdi/rio"
	"bitbucket.org/Davydov/gsdi/tree"
	"bitbucket.org/Davydov/gsdi/treeio"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = fmt.Sprintf("branch: %s, revision: %s, build time: %s", gitbranch, githash, buildstamp)

// Logger settings.
var log = logging.MustGetLogger("gsdi-rio")
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
	app = kingpin.New("gsdi-rio", "resampled inference of orthologs").Version(version)

	// input trees
	genesFileName   = app.Arg("genes", "gene trees, one or more per file (gzip and - for stdin accepted)").Required().String()
	speciesFileName = app.Arg("species", "species tree (newick or NHX)").Required().ExistingFile()

	// analysis
	query     = app.Flag("query", "label of the query sequence").Envar("GSDI_QUERY").String()
	rerooting = app.Flag("rerooting", "gene tree rooting "+
		"(none: keep, algorithm: fewest duplications, midpoint, outgroup: see -outgroup)").
		Default("algorithm").Action(mark("rerooting")).
		Enum("none", "algorithm", "midpoint", "outgroup")
	outgroup  = app.Flag("outgroup", "label of the outgroup node").Action(mark("outgroup")).String()
	first     = app.Flag("first", "first gene tree to analyze (0-based)").Default("-1").Action(mark("first")).Int()
	last      = app.Flag("last", "last gene tree to analyze (0-based, inclusive)").Default("-1").Action(mark("last")).Int()
	algorithm = app.Flag("algorithm", "sdi (binary species tree) or gsdi").
			Default("gsdi").Envar("GSDI_ALGORITHM").Action(mark("algorithm")).
			Enum("sdi", "gsdi", "SDI", "GSDI")
	fast = app.Flag("fast", "use the linear time rooting search").Action(mark("fast")).Bool()

	// output
	sortOrder = app.Flag("sort", "ortholog sort order "+
		"(0: orthologs, 1: orthologs then super-orthologs, 2: super-orthologs then orthologs)").
		Default("1").Action(mark("sort")).Int()
	threshold = app.Flag("threshold", "minimal ortholog percentage to report").
			Default("0").Action(mark("threshold")).Float64()
	upThreshold = app.Flag("up-threshold", "minimal ultra-paralog percentage to report").
			Default("50").Action(mark("up-threshold")).Float64()
	ciLevel  = app.Flag("level", "confidence level of the support intervals").Default("0.95").Float64()
	outF     = app.Flag("out", "write orthologs and ultra-paralogs to a file").String()
	tableF   = app.Flag("table", "write the ortholog table of all sequences to a file").String()
	outTreeF = app.Flag("tree", "write the gene tree with the fewest duplications to a file").String()
	histF    = app.Flag("hist", "plot duplications of the gene trees to a file (png, svg or pdf)").String()

	// settings
	configF = app.Flag("config", "TOML configuration file").Envar("GSDI_CONFIG").ExistingFile()

	// technical
	nThreads       = app.Flag("nt", "number of threads to use").Envar("GSDI_THREADS").Int()
	checkpointF    = app.Flag("checkpoint", "checkpoint database; an interrupted run with the same settings continues").String()
	checkpointFreq = app.Flag("checkpoint-freq", "minimal seconds between checkpoints").Default("60").Float64()
	cpuProfile     = app.Flag("cpuprofile", "write cpu profile to file").String()

	// logging
	outLogF  = app.Flag("log", "write log to a file").String()
	logLevel = app.Flag("loglevel", "set loglevel "+
		"('critical', 'error', 'warning', 'notice', 'info', 'debug')").
		Default("notice").
		Envar("GSDI_LOGLEVEL").
		Enum("critical", "error", "warning", "notice", "info", "debug")
	jsonF = app.Flag("json", "write json output to a file").String()
)

// settings merges the configuration file with the command line.
func settings(workers int) (opts rio.Options, cfg *config.Config) {
	cfg = config.Default()
	if *configF != "" {
		var err error
		cfg, err = config.Load(*configF)
		if err != nil {
			log.Fatal(err)
		}
		log.Infof("Read configuration from %s", *configF)
	}

	override := func(name string) bool {
		return setByUser[name] || *configF == ""
	}
	if override("algorithm") {
		cfg.Reconcile.Algorithm = *algorithm
	}
	if setByUser["fast"] {
		cfg.Reconcile.Search = "fast"
	}
	if override("rerooting") {
		cfg.RIO.Rerooting = *rerooting
	}
	if override("outgroup") {
		cfg.RIO.Outgroup = *outgroup
	}
	if override("first") {
		cfg.RIO.First = *first
	}
	if override("last") {
		cfg.RIO.Last = *last
	}
	if override("sort") {
		cfg.RIO.Sort = *sortOrder
	}
	if override("threshold") {
		cfg.RIO.Threshold = *threshold
	}
	if override("up-threshold") {
		cfg.RIO.UPThreshold = *upThreshold
	}
	cfg.Reconcile.Workers = cfg.Workers(workers)

	opts, err := cfg.RIOOptions()
	if err != nil {
		log.Fatal(err)
	}
	opts.Query = *query
	if *configF == "" {
		opts.MostParsimonious = true
	}
	return opts, cfg
}

// runKey identifies a run in the checkpoint database.
func runKey(opts rio.Options) []byte {
	genes, err := filepath.Abs(*genesFileName)
	if err != nil {
		genes = *genesFileName
	}
	species, err := filepath.Abs(*speciesFileName)
	if err != nil {
		species = *speciesFileName
	}
	return checkpoint.RunKey(genes, species, opts.Query,
		opts.Algorithm.String(), opts.Rerooting.String(), opts.Outgroup,
		fmt.Sprint(opts.First, opts.Last, opts.MostParsimonious, opts.Fast))
}

func writeFile(fn string, write func(f *os.File) error) {
	f, err := os.Create(fn)
	if err != nil {
		log.Error("Error creating output file:", err)
		return
	}
	defer f.Close()
	if err := write(f); err != nil {
		log.Errorf("Error writing %s: %v", fn, err)
	}
}

func run(workers int) (summary *RunSummary) {
	startTime := time.Now()
	summary = &RunSummary{}

	opts, cfg := settings(workers)
	log.Infof("Algorithm: %v, rerooting: %v, workers: %d", opts.Algorithm, opts.Rerooting, opts.Workers)

	genes, err := treeio.ReadTrees(*genesFileName, tree.ExtractCode)
	if err != nil {
		log.Fatal(err)
	}
	log.Infof("Read %d gene trees", len(genes))

	f, err := os.Open(*speciesFileName)
	if err != nil {
		log.Fatal(err)
	}
	species, err := tree.ParseNewickWith(f, tree.ExtractName)
	f.Close()
	if err != nil {
		log.Fatalf("Error reading %s: %v", *speciesFileName, err)
	}

	if *checkpointF != "" {
		db, err := checkpoint.Open(*checkpointF)
		if err != nil {
			log.Fatal("Error opening checkpoint database:", err)
		}
		defer db.Close()
		opts.Checkpoint = checkpoint.NewCheckpointIO(db, runKey(opts), *checkpointFreq)
	}

	a, err := rio.Analyze(genes, species, opts)
	if err != nil {
		log.Fatal(err)
	}

	summary.Algorithm = opts.Algorithm.String()
	summary.Rerooting = opts.Rerooting.String()
	summary.Base = a.Base.String()
	summary.First, summary.Last = a.First, a.Last
	summary.Samples = a.Samples()
	summary.Resumed = a.Resumed
	summary.ExtNodes, summary.IntNodes = a.ExtNodes, a.IntNodes
	summary.Duplications = a.Duplications
	summary.DuplicationCounts = a.DuplicationCounts
	summary.MinDuplicationsTree = a.MinDuplicationsTree.NHX()
	summary.RemovedGene, summary.RemovedSpecies = a.SortedRemoved()

	if a.Resumed > 0 {
		log.Noticef("Resumed %d gene trees from checkpoint", a.Resumed)
	}
	log.Noticef("Gene trees analyzed: %d", a.Samples())
	log.Noticef("External nodes: %d, internal nodes: %d", a.ExtNodes, a.IntNodes)
	d := a.Duplications
	log.Noticef("Duplications: mean %.2f (%.2f%%), sd %.2f, median %.1f (%.2f%%), min %.0f (%.2f%%), max %.0f (%.2f%%)",
		d.Mean, a.DuplicationPercent(d.Mean), d.SD, d.Median, a.DuplicationPercent(d.Median),
		d.Min, a.DuplicationPercent(d.Min), d.Max, a.DuplicationPercent(d.Max))
	if len(summary.RemovedGene) > 0 {
		log.Noticef("Removed from gene trees: %s", strings.Join(summary.RemovedGene, ", "))
	}
	if len(summary.RemovedSpecies) > 0 {
		log.Infof("Removed from species tree: %s", strings.Join(summary.RemovedSpecies, ", "))
	}

	out := os.Stdout
	if *outF != "" {
		out, err = os.Create(*outF)
		if err != nil {
			log.Fatal("Error creating output file:", err)
		}
		defer out.Close()
	}
	if t := a.Tally; t != nil {
		summary.Query = t.Query
		orthologs := t.OrthologLines(cfg.RIO.Sort, cfg.RIO.Threshold)
		ultraParalogs := t.UltraParalogLines(cfg.RIO.UPThreshold)
		summary.Orthologs = relations(t, rio.Ortholog, orthologs, *ciLevel)
		summary.UltraParalogs = relations(t, rio.UltraParalog, ultraParalogs, *ciLevel)

		fmt.Fprintf(out, "# orthologs of %s (%d trees)\n", t.Query, t.Samples)
		fmt.Fprintln(out, strings.TrimRight(rio.FormatOrthologs(orthologs, cfg.RIO.Sort), "\n"))
		fmt.Fprintf(out, "# ultra-paralogs of %s\n", t.Query)
		fmt.Fprintln(out, strings.TrimRight(rio.FormatUltraParalogs(ultraParalogs), "\n"))
	} else {
		log.Notice("No query given, only the ortholog table is computed")
	}

	if *tableF != "" {
		writeFile(*tableF, func(f *os.File) error {
			return a.Table.WriteTable(f)
		})
	}
	if *outTreeF != "" {
		writeFile(*outTreeF, func(f *os.File) error {
			_, err := fmt.Fprintln(f, summary.MinDuplicationsTree)
			return err
		})
	}
	if *histF != "" {
		if err := dist.SaveHistogram(a.DuplicationCounts, "duplications of gene trees",
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
	for _, module := range []string{"gsdi-rio", "rio", "sdi", "checkpoint"} {
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
