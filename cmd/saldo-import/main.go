// Command saldo-import loads a CSV or XLSX file into an owner's ledger, or
// seeds a new owner with starter accounts and categories.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"saldo/internal/cli"
	"saldo/internal/core"
	"saldo/internal/importer"
	"saldo/internal/log"
	"saldo/internal/services"
)

func main() {
	owner := flag.String("owner", "", "owner id (UUID)")
	file := flag.String("file", "", "CSV or XLSX file to import")
	seed := flag.Bool("seed", false, "create the default accounts and categories for owner")
	dryRun := flag.Bool("dry-run", false, "parse the file and report rows without importing")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentImporter)

	id, err := uuid.Parse(*owner)
	if err != nil {
		fmt.Fprintln(os.Stderr, "saldo-import: -owner must be a UUID")
		flag.Usage()
		os.Exit(2)
	}
	if *file == "" && !*seed {
		fmt.Fprintln(os.Stderr, "saldo-import: nothing to do, pass -file or -seed")
		flag.Usage()
		os.Exit(2)
	}

	var rows []core.ImportRow
	if *file != "" {
		rows, err = parseFile(*file)
		if err != nil {
			logger.Error("Failed to read import file", log.FieldError, err, "file", *file)
			os.Exit(1)
		}
		if *dryRun {
			fmt.Printf("%s rows parsed from %s\n", humanize.Comma(int64(len(rows))), *file)
			return
		}
	}

	cfg := cli.LoadAndValidateConfig(logger)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	res := cli.OpenBackend(ctx, logger, cfg)
	defer res.Close()
	svc := services.New(res.Store, res.Events, cli.ServiceOptions(logger, cfg))

	if *seed {
		seeded, err := svc.SeedDefaults(ctx, id.String())
		if err != nil {
			logger.Error("Seeding failed", log.FieldError, err)
			os.Exit(1)
		}
		fmt.Printf("seeded %d accounts and %d categories\n", len(seeded.Accounts), len(seeded.Categories))
	}

	if len(rows) == 0 {
		return
	}
	result, err := svc.Ledger.BulkImport(ctx, id.String(), rows)
	report(result)
	if err != nil {
		logger.Error("Import aborted", log.FieldError, err, "file", *file)
		os.Exit(1)
	}
	if len(result.Failed) > 0 {
		os.Exit(3)
	}
}

func parseFile(path string) ([]core.ImportRow, error) {
	format, err := importer.DetectFormat(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return importer.Parse(format, f)
}

func report(result core.ImportResult) {
	var total core.Money
	for _, t := range result.Created {
		total = total.Add(t.Amount)
	}
	fmt.Printf("imported %s rows (%s moved), %s failed\n",
		humanize.Comma(int64(result.Imported)),
		total.Display(),
		humanize.Comma(int64(len(result.Failed))))
	for _, f := range result.Failed {
		fmt.Printf("  row %d: %s: %s\n", f.Row, f.Kind, f.Message)
	}
}
