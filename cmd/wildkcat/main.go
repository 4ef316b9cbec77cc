package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"

	"github.com/h-escoffier/WILDkCAT/internal/brenda"
	"github.com/h-escoffier/WILDkCAT/internal/config"
	"github.com/h-escoffier/WILDkCAT/internal/kcat"
	"github.com/h-escoffier/WILDkCAT/internal/match"
	"github.com/h-escoffier/WILDkCAT/internal/pool"
	"github.com/h-escoffier/WILDkCAT/internal/report"
	"github.com/h-escoffier/WILDkCAT/internal/sabio"
	"github.com/h-escoffier/WILDkCAT/internal/similarity"
	"github.com/h-escoffier/WILDkCAT/internal/table"
	"github.com/h-escoffier/WILDkCAT/internal/uniprot"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// ---- CLI flags ----------------------------------------------------------
	queriesPath := flag.String("queries", "", "model extraction table, TSV or TSV.gz (required)")
	outPath := flag.String("out", "kcat_results.tsv", "annotated output table (path, .gz for gzip)")
	cfgPath := flag.String("config", "", "TOML run configuration")
	organism := flag.String("organism", "", "target organism (overrides config)")
	tempFlag := flag.String("temp", "", "target temperature range in °C, MIN:MAX (overrides config)")
	phFlag := flag.String("ph", "", "target pH range, MIN:MAX (overrides config)")
	aggFlag := flag.String("agg", "", "tie aggregation: min, mean or max (overrides config)")
	sourcesFlag := flag.String("sources", "", "comma-separated databases: sabio_rk,brenda (overrides config)")
	threads := flag.Int("threads", 0, "number of worker goroutines (overrides config)")
	jsonPath := flag.String("json", "", "optional: write run summary JSON here")
	htmlPath := flag.String("html", "", "optional: write HTML report here")
	mlPath := flag.String("ml-input", "", "optional: write prediction fallback CSV here")
	mlLimit := flag.Int("ml-limit", -1, "score above which rows enter the fallback file (overrides config)")
	verbose := flag.Bool("v", false, "verbose progress to stderr")
	showVer := flag.Bool("version", false, "print version and exit")

	flag.Usage = func() {
		b := &strings.Builder{}
		fmt.Fprintln(b, "wildkcat — kcat retrieval and reconciliation for metabolic models")
		fmt.Fprintln(b)
		fmt.Fprintln(b, "Usage:")
		fmt.Fprintln(b, "  wildkcat -queries <model.tsv> -organism <name> [options]")
		fmt.Fprintln(b)
		fmt.Fprintln(b, "Required flags:")
		fmt.Fprintln(b, "  -queries, and -organism unless a config file provides it")
		fmt.Fprintln(b)
		fmt.Fprintln(b, "Options:")
		flag.CommandLine.SetOutput(b)
		flag.PrintDefaults()
		flag.CommandLine.SetOutput(os.Stderr)
		fmt.Fprintln(b)
		fmt.Fprintln(b, "Examples:")
		fmt.Fprintln(b, "  # Lookup against both databases with default mesophilic conditions")
		fmt.Fprintln(b, "  wildkcat -queries model.tsv -organism \"Escherichia coli\"")
		fmt.Fprintln(b, "  # Thermophile run from a config file, with reports")
		fmt.Fprintln(b, "  wildkcat -queries model.tsv.gz -config run.toml -html report.html -json run.json")
		fmt.Fprintln(b, "  # SABIO-RK only, max aggregation, fallback file for prediction")
		fmt.Fprintln(b, "  wildkcat -queries model.tsv -organism \"Homo sapiens\" -sources sabio_rk -agg max -ml-input predict.csv")
		fmt.Fprint(os.Stderr, b.String()) // avoid extra blank line
	}

	flag.Parse()

	if *showVer {
		fmt.Printf("wildkcat %s (commit %s, %s)\n", version, commit, date)
		return
	}

	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *queriesPath == "" {
		fmt.Fprintln(os.Stderr, "error: flag -queries is required")
		flag.Usage()
		os.Exit(2)
	}

	// ---- configuration: file first, flags override --------------------------
	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			log.Fatal().Err(err).Msg("loading config")
		}
	}
	if *organism != "" {
		cfg.Organism = *organism
	}
	if *tempFlag != "" {
		cfg.Temperature = parseInterval(*tempFlag, "temp")
	}
	if *phFlag != "" {
		cfg.PH = parseInterval(*phFlag, "ph")
	}
	if *aggFlag != "" {
		cfg.Aggregation = *aggFlag
	}
	if *sourcesFlag != "" {
		cfg.Sources = strings.Split(*sourcesFlag, ",")
		for i := range cfg.Sources {
			cfg.Sources[i] = strings.TrimSpace(cfg.Sources[i])
		}
	}
	if *threads > 0 {
		cfg.Threads = *threads
	}
	if *mlLimit >= 0 {
		cfg.MLScoreLimit = *mlLimit
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// ---- input table --------------------------------------------------------
	tab, err := table.Read(*queriesPath)
	if err != nil {
		log.Fatal().Err(err).Msg("reading queries")
	}
	if len(tab.Rows) == 0 {
		log.Fatal().Str("path", *queriesPath).Msg("query table has no rows")
	}

	// ---- database clients ---------------------------------------------------
	var fetchers []pool.Fetcher
	if cfg.HasSource(kcat.SourceSabioRK) {
		fetchers = append(fetchers, sabio.New())
	}
	if cfg.HasSource(kcat.SourceBrenda) {
		email, password, err := brenda.CredentialsFromEnv()
		if err != nil {
			log.Fatal().Err(err).Msg("brenda is enabled")
		}
		fetchers = append(fetchers, brenda.New(email, password))
	}
	builder := pool.NewBuilder(fetchers...)

	sel := &match.Selector{
		Criteria: cfg.Criteria(),
		Agg:      cfg.Agg(),
		Ranker:   similarity.NewRanker(uniprot.New()),
	}

	// ---- start writer -------------------------------------------------------
	wIn, done, err := table.NewWriter(*outPath, tab.Header)
	if err != nil {
		log.Fatal().Err(err).Msg("opening output")
	}

	bar := progressbar.NewOptions(len(tab.Rows),
		progressbar.OptionSetDescription("matching"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetVisibility(!*verbose),
	)

	// ---- worker pool (deterministic order via job idx) ----------------------
	type job struct {
		idx int
		row table.Row
	}
	outcomes := make([]report.Outcome, len(tab.Rows))
	jobs := make(chan job, cfg.Threads)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				res, err := sel.Best(j.row.Query, builder.Candidates(j.row.Query))
				if err != nil {
					log.Fatal().Err(err).Str("rxn", j.row.Query.Rxn).Msg("matching")
				}
				outcomes[j.idx] = report.Outcome{Query: j.row.Query, Match: res}
				wIn <- table.Out{Idx: j.idx, Row: j.row, Match: res}
				_ = bar.Add(1)
				if *verbose {
					log.Debug().
						Str("rxn", j.row.Query.Rxn).
						Int("score", res.Score).
						Str("level", res.Level.String()).
						Msg("matched")
				}
			}
		}()
	}

	go func() {
		for idx, row := range tab.Rows {
			jobs <- job{idx: idx, row: row}
		}
		close(jobs)
	}()

	wg.Wait()
	close(wIn)
	stats := <-done
	_ = bar.Finish()
	fmt.Fprintln(os.Stderr)

	// ---- summary (to stderr so stdout stays clean) ---------------------------
	sum := report.Build(cfg.Organism, outcomes)
	sum.Print(os.Stderr)

	if *htmlPath != "" {
		if err := sum.WriteHTML(*htmlPath); err != nil {
			log.Fatal().Err(err).Msg("writing html report")
		}
	}
	if *mlPath != "" {
		n, err := report.WriteMLInput(*mlPath, outcomes, cfg.MLScoreLimit)
		if err != nil {
			log.Fatal().Err(err).Msg("writing prediction fallback")
		}
		fmt.Fprintf(os.Stderr, "prediction fallback: %d reactions -> %s\n", n, *mlPath)
	}
	if *jsonPath != "" {
		out := struct {
			RunID    string   `json:"run_id"`
			Organism string   `json:"organism"`
			Sources  []string `json:"sources"`
			table.Stats
		}{
			RunID:    sum.RunID,
			Organism: cfg.Organism,
			Sources:  cfg.Sources,
			Stats:    stats,
		}
		f, err := os.Create(*jsonPath)
		if err != nil {
			log.Fatal().Err(err).Msg("write json")
		}
		if err := json.NewEncoder(f).Encode(out); err != nil {
			log.Fatal().Err(err).Msg("encode json")
		}
		_ = f.Close()
	}
}

// parseInterval parses a MIN:MAX flag value.
func parseInterval(s, name string) config.Interval {
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		log.Fatal().Str("flag", name).Str("value", s).Msg("want MIN:MAX")
	}
	min, err1 := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	max, err2 := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err1 != nil || err2 != nil {
		log.Fatal().Str("flag", name).Str("value", s).Msg("want numeric MIN:MAX")
	}
	return config.Interval{Min: min, Max: max}
}
