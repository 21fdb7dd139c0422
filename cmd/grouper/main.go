package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/points-grouper/internal/export"
	"github.com/eugenenazirov/points-grouper/internal/grouping"
	"github.com/eugenenazirov/points-grouper/internal/ingest"
	"github.com/eugenenazirov/points-grouper/internal/logging"
)

type options struct {
	target   float64
	input    string
	output   string
	format   string
	columns  string
	sheet    string
	logLevel string
}

func main() {
	app := kingpin.New("grouper", "Splits a spreadsheet of items into groups close to a points target")
	opts := options{}
	app.Flag("target", "Points target per group").Short('t').Required().Float64Var(&opts.target)
	app.Flag("input", "Input spreadsheet (.csv or .xlsx)").Short('i').Required().ExistingFileVar(&opts.input)
	app.Flag("output", "Output file, - for stdout").Short('o').Default("-").StringVar(&opts.output)
	app.Flag("format", "Output format (csv or xlsx); defaults to the output extension").Short('f').StringVar(&opts.format)
	app.Flag("columns", "Column mapping, e.g. name=C,quantity=D,weight=E,price=F").StringVar(&opts.columns)
	app.Flag("sheet", "Worksheet to read from .xlsx input; defaults to the first").StringVar(&opts.sheet)
	app.Flag("log-level", "Log level (debug, info, warn, error)").Default("info").StringVar(&opts.logLevel)

	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger, err := logging.NewCLI(opts.logLevel)
	app.FatalIfError(err, "failed to initialize logger")
	defer func() {
		_ = logger.Sync()
	}()

	if err := run(opts, os.Stdout, logger); err != nil {
		logger.Error("grouping failed", zap.Error(err))
		os.Exit(1)
	}
}

// run reads opts.input, partitions its items and writes the group table.
func run(opts options, stdout io.Writer, logger *zap.Logger) error {
	if err := grouping.ValidateTarget(opts.target); err != nil {
		return err
	}
	schema, err := ingest.ParseSchema(opts.columns)
	if err != nil {
		return err
	}
	format, err := outputFormat(opts.format, opts.output)
	if err != nil {
		return err
	}

	in, err := os.Open(opts.input)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	items, err := ingest.Read(opts.input, in, schema, opts.sheet)
	if err != nil {
		return fmt.Errorf("read %s: %w", opts.input, err)
	}
	if err := grouping.ValidateItems(items); err != nil {
		return err
	}

	start := time.Now()
	groups := grouping.New().Partition(items, opts.target)
	summary := grouping.Summarize(opts.target, groups)
	logger.Info("partitioned items",
		zap.Int("items", summary.TotalItems),
		zap.Int("groups", summary.TotalGroups),
		zap.Int("underfilled", summary.Underfilled),
		zap.Float64("total_weight", summary.TotalWeight),
		zap.Duration("elapsed", time.Since(start)),
	)

	if opts.output == "" || opts.output == "-" {
		return export.Write(stdout, format, groups)
	}

	out, err := os.Create(opts.output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := export.Write(out, format, groups); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", opts.output, err)
	}
	logger.Info("wrote groups", zap.String("output", opts.output), zap.String("format", string(format)))
	return nil
}

// outputFormat resolves the explicit format, falling back to the output
// file extension and then to CSV.
func outputFormat(explicit, output string) (export.Format, error) {
	if explicit != "" {
		return export.ParseFormat(explicit)
	}
	if output != "" && output != "-" {
		if format, err := ingest.FormatFromFilename(output); err == nil {
			return export.ParseFormat(format)
		}
	}
	return export.FormatCSV, nil
}
