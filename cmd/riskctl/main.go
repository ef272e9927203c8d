package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Skufu/GlucoRisk/internal/config"
	"github.com/Skufu/GlucoRisk/internal/features"
	"github.com/Skufu/GlucoRisk/internal/history"
	"github.com/Skufu/GlucoRisk/internal/input"
	"github.com/Skufu/GlucoRisk/internal/model"
	"github.com/Skufu/GlucoRisk/internal/observability"
	"github.com/Skufu/GlucoRisk/internal/report"
	"github.com/Skufu/GlucoRisk/internal/scoring"
)

type cliOptions struct {
	inputPath   string
	modelPath   string
	scalerPath  string
	historyPath string
	reportPath  string
	logLevel    string
}

func main() {
	opts, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "riskctl: %v\n", err)
		os.Exit(2)
	}
	logger := observability.InitLogger(observability.LogConfig{Level: opts.logLevel, Format: "text"})
	if err := run(context.Background(), opts, os.Stdout, logger); err != nil {
		fmt.Fprintf(os.Stderr, "riskctl: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (cliOptions, error) {
	var opts cliOptions
	fs.StringVar(&opts.inputPath, "input", "", "Lab report to score (.csv, .pdf or .txt)")
	fs.StringVar(&opts.modelPath, "model", config.DefaultModelPath, "Classifier resource")
	fs.StringVar(&opts.scalerPath, "scaler", config.DefaultScalerPath, "Scaler resource")
	fs.StringVar(&opts.historyPath, "history", "", "CSV history file to append the result to")
	fs.StringVar(&opts.reportPath, "report", "", "Write a report to this .pdf or .docx file")
	fs.StringVar(&opts.logLevel, "log-level", "warn", "debug, info, warn or error")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s -input FILE [options]\n\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	opts.inputPath = strings.TrimSpace(opts.inputPath)
	opts.reportPath = strings.TrimSpace(opts.reportPath)
	opts.historyPath = strings.TrimSpace(opts.historyPath)

	if opts.inputPath == "" {
		fs.Usage()
		return opts, errors.New("missing required -input file")
	}
	if opts.reportPath != "" {
		if _, err := report.ParseFormat(strings.TrimPrefix(filepath.Ext(opts.reportPath), ".")); err != nil {
			return opts, fmt.Errorf("-report: %w", err)
		}
	}
	return opts, nil
}

func run(ctx context.Context, opts cliOptions, stdout io.Writer, logger *slog.Logger) error {
	res := model.Load(logger, opts.modelPath, opts.scalerPath)
	pipeline := scoring.New(res, scoring.WithLogger(logger))

	f, err := os.Open(opts.inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat input: %w", err)
	}

	src, err := input.ForFile(opts.inputPath, f, info.Size(), nil)
	if err != nil {
		return err
	}
	v, err := src.Resolve(ctx)
	if err != nil {
		var insufficient *input.InsufficientDataError
		if errors.As(err, &insufficient) {
			fmt.Fprintf(stdout, "extracted values: %v\n", insufficient.Values)
		}
		return fmt.Errorf("read %s: %w", opts.inputPath, err)
	}

	verdict, err := pipeline.Score(ctx, v)
	if err != nil {
		return fmt.Errorf("score: %w", err)
	}
	now := time.Now()

	printVerdict(stdout, v, verdict)

	if opts.historyPath != "" {
		if err := history.NewCSVLog(opts.historyPath).Append(ctx, history.NewRecord(v, verdict, now)); err != nil {
			return err
		}
	}
	if opts.reportPath != "" {
		if err := writeReport(opts.reportPath, report.New(v, verdict, now)); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "report written to %s\n", opts.reportPath)
	}
	return nil
}

func printVerdict(w io.Writer, v features.Vector, verdict scoring.Verdict) {
	fmt.Fprintln(w, verdict.Summary())
	fmt.Fprintf(w, "label: %s\n", verdict.Label)
	fmt.Fprintln(w, verdict.Advice())
	for _, field := range v.Fields() {
		fmt.Fprintf(w, "  %-28s %s\n", field.Label, field.Display())
	}
}

func writeReport(path string, doc report.Document) error {
	format, err := report.ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := report.Write(out, format, doc); err != nil {
		out.Close()
		return fmt.Errorf("write report: %w", err)
	}
	return out.Close()
}
