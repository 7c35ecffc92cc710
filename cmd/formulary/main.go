package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/spelekhaty-ai/ummc-formulary/internal"
	"github.com/spelekhaty-ai/ummc-formulary/internal/config"
	"github.com/spelekhaty-ai/ummc-formulary/internal/dosing"
	"github.com/spelekhaty-ai/ummc-formulary/internal/formulary"
	"github.com/spelekhaty-ai/ummc-formulary/internal/source"
	"github.com/spelekhaty-ai/ummc-formulary/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "load":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		path := fs.String("path", "", "source file (defaults to configured candidates)")
		_ = fs.Parse(os.Args[2:])
		result := loadSource(db, cfg, *path)
		if result.Reused {
			fmt.Printf("load done snapshot=%s (unchanged)\n", result.SnapshotID)
		} else {
			fmt.Printf("load done snapshot=%s products=%d attributes=%d\n", result.SnapshotID, result.Products, result.Attributes)
		}
	case "fetch":
		fetcher := source.NewFetcher(db, cfg)
		row, err := fetcher.FetchAndStore(context.Background())
		must(err)
		svc := formulary.NewService(db)
		result, err := svc.ProcessSource(row)
		must(err)
		fmt.Printf("fetch done source=%s snapshot=%s products=%d\n", row.Location, result.SnapshotID, result.Products)
	case "export":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", "", "output path (.csv or .xlsx)")
		search := fs.String("search", "", "attribute-name filter")
		products := fs.String("products", "", "comma-separated product subset")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}

		svc := formulary.NewService(db)
		card, _, err := svc.CurrentViews()
		must(err)
		view := formulary.FilterCards(card, *search, splitList(*products))

		if strings.HasSuffix(strings.ToLower(*out), ".xlsx") {
			must(formulary.ExportCardsXLSX(view, *out))
		} else {
			f, err := os.Create(*out)
			must(err)
			err = formulary.ExportCardsCSV(view, f)
			_ = f.Close()
			must(err)
		}
		fmt.Printf("exported %d rows to %s\n", len(view.Rows), *out)
	case "dose":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		product := fs.String("product", "", "formula name")
		method := fs.String("method", "continuous", "continuous|bolus")
		hours := fs.Int("hours", 24, "infusion hours per day (continuous)")
		feeds := fs.Int("feeds", 5, "feeds per day (bolus)")
		kcal := fs.Float64("kcal", 0, "daily calorie goal")
		protein := fs.Float64("protein", 0, "daily protein goal, g")
		weight := fs.Float64("weight", 0, "dosing weight kg (derives goals)")
		kcalPerKg := fs.Float64("kcalPerKg", cfg.DefaultKcalPerKg, "kcal per kg")
		proteinPerKg := fs.Float64("proteinPerKg", cfg.DefaultProteinPerKg, "g protein per kg")
		propofol := fs.Float64("propofol", 0, "propofol rate mL/hr")
		clevidipine := fs.Float64("clevidipine", 0, "clevidipine rate mL/hr")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*product) == "" {
			must(fmt.Errorf("--product is required"))
		}

		svc := formulary.NewService(db)
		_, calc, err := svc.CurrentViews()
		must(err)
		record, ok := formulary.Product(calc, *product)
		if !ok {
			must(fmt.Errorf("unknown product: %s", *product))
		}

		targetKcal, targetProtein := *kcal, *protein
		if *weight > 0 {
			k, p := dosing.GoalsFromWeight(*weight, *kcalPerKg, *proteinPerKg)
			targetKcal, targetProtein = float64(k), float64(p)
			fmt.Printf("targets from weight: %d kcal, %d g protein\n", k, p)
		}

		result, err := dosing.Compute(internal.DoseRequest{
			TargetKcal:      targetKcal,
			TargetProtein:   targetProtein,
			PropofolRate:    *propofol,
			ClevidipineRate: *clevidipine,
			Product:         record,
			Method:          internal.FeedingMethod(*method),
			HoursPerDay:     *hours,
			FeedsPerDay:     *feeds,
		})
		must(err)
		printDose(result, internal.FeedingMethod(*method))
	default:
		usage()
		os.Exit(1)
	}
}

func loadSource(db *storage.DB, cfg config.Config, override string) formulary.ProcessResult {
	paths := cfg.SourcePaths
	if strings.TrimSpace(override) != "" {
		paths = []string{override}
	}

	path, kind, err := source.Discover(paths)
	must(err)
	blob, err := os.ReadFile(path)
	must(err)

	fetcher := source.NewFetcher(db, cfg)
	row, err := fetcher.Store(kind, path, blob)
	must(err)

	svc := formulary.NewService(db)
	result, err := svc.ProcessSource(row)
	must(err)
	return result
}

func printDose(result internal.DoseResult, method internal.FeedingMethod) {
	fmt.Printf("medication kcal/day: %.1f\n", result.MedKcal)
	fmt.Printf("net kcal via formula: %.1f\n", result.NetKcal)
	if method == internal.MethodBolus {
		fmt.Printf("volume per feed: %d mL/bolus\n", result.BolusMl)
	} else {
		fmt.Printf("goal hourly rate: %d mL/hr\n", result.RateMlPerHr)
	}
	fmt.Printf("total daily volume: %.0f mL\n", result.ActualVolumeMl)
	if result.GoalMet {
		fmt.Printf("protein goal met (%.1f g provided)\n", result.ProteinProvided)
		return
	}
	fmt.Printf("protein gap: %.1f g/day\n", result.ProteinGap)
	for _, s := range result.Supplements {
		fmt.Printf("  %s: %.1f %s\n", s.Name, s.Amount, s.Unit)
	}
}

func splitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func usage() {
	fmt.Println("usage: formulary <command>")
	fmt.Println("commands:")
	fmt.Println("  load [--path=formulary.csv]")
	fmt.Println("  fetch")
	fmt.Println("  export --out=./out/formulary.csv [--search=...] [--products=a,b]")
	fmt.Println("  dose --product=... [--method=continuous|bolus] [--hours=24] [--feeds=5]")
	fmt.Println("       [--kcal=1800 --protein=100 | --weight=70 [--kcalPerKg=25 --proteinPerKg=1.2]]")
	fmt.Println("       [--propofol=0 --clevidipine=0]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
