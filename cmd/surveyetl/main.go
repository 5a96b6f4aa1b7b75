// Command surveyetl cleans a Global Findex microdata extract: it keeps the
// analysis columns, turns missing-value markers into blanks, recodes the
// numeric survey codes into labels and writes the result as CSV and XLSX.
//
//	surveyetl -in findex_2025.xlsx -out-csv clean.csv -out-xlsx clean.xlsx
//
// A pipeline file (-config) can carry the same settings plus a database sink
// and a metrics backend. Flags win over the environment, which wins over the
// file; a .env file in the working directory is loaded first.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"surveyetl/internal/codebook"
	"surveyetl/internal/config"
	"surveyetl/internal/logging"

	// register all backends with the storage factory.
	_ "surveyetl/internal/storage/all"
)

// options holds the parsed command line. Empty strings mean "not set".
type options struct {
	configPath     string
	in             string
	sheet          string
	outCSV         string
	outXLSX        string
	outSheet       string
	codebook       string
	dumpCodebook   string
	storageKind    string
	dbDSN          string
	dbTable        string
	metricsBackend string
	pushgatewayURL string
	logLevel       string
	logFormat      string
	validate       bool
	quiet          bool
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}
	os.Exit(realMain(os.Args[1:], os.Stdout, os.Stderr))
}

// realMain runs the command and returns the process exit code: 0 on success,
// 1 on a failed run or invalid configuration, 2 on bad usage.
func realMain(args []string, stdout, stderr io.Writer) int {
	o, err := parseArgs(args, stderr)
	if err != nil {
		return 2
	}

	if o.dumpCodebook != "" {
		cb, err := loadCodebook(o.codebook)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		if err := cb.Dump(stdout, o.dumpCodebook); err != nil {
			fmt.Fprintf(stderr, "dump codebook: %v\n", err)
			return 1
		}
		return 0
	}

	p, err := buildPipeline(o, os.Getenv)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		fmt.Fprintln(stderr, "configuration is invalid")
		return 1
	}
	if o.validate {
		fmt.Fprintln(stderr, "configuration is valid")
		return 0
	}

	log, err := logging.New(p.Logging.Level, p.Logging.Format)
	if err != nil {
		fmt.Fprintf(stderr, "logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	runID := uuid.NewString()
	log = log.With(zap.String("job", p.Job), zap.String("run_id", runID))

	stopMetrics := setupMetrics(p, runID, log)
	defer stopMetrics()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	report := stdout
	if o.quiet {
		report = io.Discard
	}
	if err := run(ctx, p, log, report); err != nil {
		log.Error("run failed", zap.Error(err))
		return 1
	}
	return 0
}

func parseArgs(args []string, stderr io.Writer) (options, error) {
	var o options
	fsFlags := flag.NewFlagSet("surveyetl", flag.ContinueOnError)
	fsFlags.SetOutput(stderr)

	fsFlags.StringVar(&o.configPath, "config", "", "pipeline config path (.json, .yaml, .toml)")
	fsFlags.StringVar(&o.in, "in", "", "input extract (.csv or .xlsx), a path or an http(s) URL")
	fsFlags.StringVar(&o.sheet, "sheet", "", "worksheet to read from an .xlsx input (default: first)")
	fsFlags.StringVar(&o.outCSV, "out-csv", "", "cleaned CSV output path")
	fsFlags.StringVar(&o.outXLSX, "out-xlsx", "", "cleaned XLSX output path")
	fsFlags.StringVar(&o.outSheet, "out-sheet", "", "worksheet name of the XLSX output (default: cleaned)")
	fsFlags.StringVar(&o.codebook, "codebook", "", "codebook file replacing the built-in tables")
	fsFlags.StringVar(&o.dumpCodebook, "dump-codebook", "", "print the codebook as json, yaml or toml and exit")
	fsFlags.StringVar(&o.storageKind, "storage", "", "database sink: sqlite, postgres, mysql or mssql")
	fsFlags.StringVar(&o.dbDSN, "db-dsn", "", "database DSN (overrides env SURVEYETL_DB_DSN)")
	fsFlags.StringVar(&o.dbTable, "db-table", "", "destination table for the database sink")
	fsFlags.StringVar(&o.metricsBackend, "metrics-backend", "", "metrics backend: pushgateway, datadog or none")
	fsFlags.StringVar(&o.pushgatewayURL, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	fsFlags.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error")
	fsFlags.StringVar(&o.logFormat, "log-format", "", "console or json")
	fsFlags.BoolVar(&o.validate, "validate", false, "validate the configuration and exit")
	fsFlags.BoolVar(&o.quiet, "q", false, "do not print the column profile")

	if err := fsFlags.Parse(args); err != nil {
		return o, err
	}
	if fsFlags.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fsFlags.Args())
		return o, fmt.Errorf("unexpected arguments")
	}
	return o, nil
}

// buildPipeline layers the config file, the environment and the flags, then
// applies defaults.
func buildPipeline(o options, getenv func(string) string) (config.Pipeline, error) {
	var p config.Pipeline
	if o.configPath != "" {
		if err := config.DecodeFile(o.configPath, &p); err != nil {
			return p, err
		}
	}
	p.ApplyEnv(getenv)

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	if o.in != "" {
		if strings.HasPrefix(o.in, "http://") || strings.HasPrefix(o.in, "https://") {
			p.Source = config.Source{Kind: "http", HTTP: config.SourceHTTP{URL: o.in}}
		} else {
			p.Source = config.Source{Kind: "file", File: config.SourceFile{Path: o.in}}
		}
	}
	set(&p.Output.CSV, o.outCSV)
	set(&p.Output.XLSX, o.outXLSX)
	set(&p.Output.Sheet, o.outSheet)
	set(&p.Codebook, o.codebook)
	set(&p.Storage.Kind, o.storageKind)
	set(&p.Storage.DB.DSN, o.dbDSN)
	set(&p.Storage.DB.Table, o.dbTable)
	set(&p.Metrics.Backend, o.metricsBackend)
	set(&p.Metrics.PushgatewayURL, o.pushgatewayURL)
	set(&p.Logging.Level, o.logLevel)
	set(&p.Logging.Format, o.logFormat)
	if o.sheet != "" {
		if p.Parser.Options == nil {
			p.Parser.Options = config.Options{}
		}
		p.Parser.Options["sheet"] = o.sheet
	}

	p.ApplyDefaults()
	return p, nil
}

func loadCodebook(path string) (*codebook.Codebook, error) {
	if path == "" {
		return codebook.Default(), nil
	}
	return codebook.LoadFile(path)
}
