package main

import (
	"cmp"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"slices"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/daniacca/starseed/internal/rules"
	"github.com/daniacca/starseed/internal/scan"
	"github.com/daniacca/starseed/internal/worldgen"
)

type simConfig struct {
	ruleFile    string
	themesFile  string
	start       int
	end         int
	concurrency int
	starCount   int
	resource    float64
	galaxySeed  int
	showGalaxy  bool
}

func main() {
	var cfg simConfig
	flag.StringVar(&cfg.ruleFile, "rule-file", "", "path to rule definition JSON file (required for scans)")
	flag.StringVar(&cfg.themesFile, "themes-file", "", "optional JSON theme catalog")
	flag.IntVar(&cfg.start, "start", 0, "first seed of the scan")
	flag.IntVar(&cfg.end, "end", 9999, "last seed of the scan (inclusive)")
	flag.IntVar(&cfg.concurrency, "concurrency", runtime.NumCPU(), "number of worker goroutines")
	flag.IntVar(&cfg.starCount, "stars", int(worldgen.DefaultStarCount), "stars per galaxy")
	flag.Float64Var(&cfg.resource, "resource", float64(worldgen.DefaultResourceMultiplier), "resource multiplier")
	flag.IntVar(&cfg.galaxySeed, "galaxy", 0, "seed of the galaxy to print with -print-galaxy")
	flag.BoolVar(&cfg.showGalaxy, "print-galaxy", false, "print one galaxy as JSON instead of scanning")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	if cfg.showGalaxy {
		err = printGalaxy(os.Stdout, cfg)
	} else {
		if cfg.ruleFile == "" {
			fmt.Fprintf(os.Stderr, "error: --rule-file is required\n")
			flag.Usage()
			os.Exit(1)
		}
		err = runScan(ctx, os.Stdout, cfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (c simConfig) gameDesc(seed int32) worldgen.GameDesc {
	return worldgen.GameDesc{
		Seed:               seed,
		StarCount:          int32(c.starCount),
		ResourceMultiplier: float32(c.resource),
	}
}

func (c simConfig) catalog() (*worldgen.Catalog, error) {
	if c.themesFile == "" {
		return worldgen.DefaultCatalog(), nil
	}
	return worldgen.LoadCatalog(c.themesFile)
}

func loadRuleFromFile(path string) (rules.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return rules.Definition{}, fmt.Errorf("reading rule file: %w", err)
	}
	def, err := rules.ParseDefinition(data)
	if err != nil {
		return rules.Definition{}, err
	}
	if err := rules.Validate(def); err != nil {
		return rules.Definition{}, fmt.Errorf("validating rule: %w", err)
	}
	return def, nil
}

func printGalaxy(w io.Writer, cfg simConfig) error {
	catalog, err := cfg.catalog()
	if err != nil {
		return err
	}
	galaxy, err := worldgen.CreateGalaxy(cfg.gameDesc(int32(cfg.galaxySeed)), catalog)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(galaxy)
}

// runScan scans the configured range and prints every match followed by a
// summary.
func runScan(ctx context.Context, w io.Writer, cfg simConfig) error {
	def, err := loadRuleFromFile(cfg.ruleFile)
	if err != nil {
		return err
	}
	catalog, err := cfg.catalog()
	if err != nil {
		return err
	}

	req := scan.Request{
		Game:        cfg.gameDesc(int32(cfg.start)),
		Rule:        def,
		Start:       int32(cfg.start),
		End:         int32(cfg.end),
		Concurrency: cfg.concurrency,
	}

	var found []scan.Event
	summary, err := scan.NewScanner(catalog, nil).Run(ctx, req, func(ev scan.Event) error {
		if ev.Type == scan.EventFound {
			found = append(found, ev)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Workers finish out of order
	slices.SortFunc(found, func(a, b scan.Event) int { return cmp.Compare(a.Seed, b.Seed) })
	for _, ev := range found {
		fmt.Fprintf(w, "seed %d: stars %v\n", ev.Seed, ev.Indexes)
	}
	printSummary(w, summary)
	return nil
}

func printSummary(w io.Writer, s scan.Summary) {
	status := "finished"
	if s.Stopped {
		status = "stopped"
	}
	rate := float64(s.Scanned) / max(s.Elapsed.Seconds(), 1e-9)
	fmt.Fprintf(w, "Scan %s (seeds=[%d, %d), scanned=%s, matches=%s)\n",
		status, s.Start, s.Watermark, humanize.Comma(s.Scanned), humanize.Comma(s.Matches))
	fmt.Fprintf(w, "Elapsed %s, %s seeds/s\n", s.Elapsed.Round(time.Millisecond), humanize.CommafWithDigits(rate, 1))
}
