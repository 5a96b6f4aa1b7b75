package config

import "testing"

func validPipeline() Pipeline {
	p := Pipeline{
		Source: Source{Kind: "file", File: SourceFile{Path: "findex.csv"}},
		Output: Output{CSV: "clean.csv", XLSX: "clean.xlsx"},
	}
	p.ApplyDefaults()
	return p
}

func hasIssue(issues []Issue, sev IssueSeverity, path string) bool {
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path {
			return true
		}
	}
	return false
}

func TestValidatePipeline_Valid(t *testing.T) {
	t.Parallel()

	if issues := ValidatePipeline(validPipeline()); len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
}

func TestValidatePipeline_Findings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Pipeline)
		sev    IssueSeverity
		path   string
	}{
		{
			name:   "no_outputs",
			mutate: func(p *Pipeline) { p.Output.CSV, p.Output.XLSX = "", "" },
			sev:    SeverityError,
			path:   "output",
		},
		{
			name:   "same_outputs",
			mutate: func(p *Pipeline) { p.Output.XLSX = p.Output.CSV },
			sev:    SeverityError,
			path:   "output",
		},
		{
			name:   "overwrite_input",
			mutate: func(p *Pipeline) { p.Output.CSV = "./findex.csv" },
			sev:    SeverityError,
			path:   "output.csv",
		},
		{
			name:   "unknown_parser",
			mutate: func(p *Pipeline) { p.Parser.Kind = "parquet" },
			sev:    SeverityError,
			path:   "parser.kind",
		},
		{
			name:   "bad_delimiter",
			mutate: func(p *Pipeline) { p.Parser.Options = Options{"comma": "\""} },
			sev:    SeverityError,
			path:   "parser.options.comma",
		},
		{
			name:   "empty_path",
			mutate: func(p *Pipeline) { p.Source.File.Path = "" },
			sev:    SeverityError,
			path:   "source.file.path",
		},
		{
			name:   "unknown_source",
			mutate: func(p *Pipeline) { p.Source.Kind = "s3" },
			sev:    SeverityError,
			path:   "source.kind",
		},
		{
			name:   "http_bad_url",
			mutate: func(p *Pipeline) { p.Source = Source{Kind: "http", HTTP: SourceHTTP{URL: "ftp://example.org/f.csv"}} },
			sev:    SeverityError,
			path:   "source.http.url",
		},
		{
			name:   "storage_without_dsn",
			mutate: func(p *Pipeline) { p.Storage = Storage{Kind: "sqlite", DB: DBConfig{Table: "t"}} },
			sev:    SeverityError,
			path:   "storage.db.dsn",
		},
		{
			name:   "unknown_storage",
			mutate: func(p *Pipeline) { p.Storage = Storage{Kind: "oracle", DB: DBConfig{DSN: "x", Table: "t"}} },
			sev:    SeverityError,
			path:   "storage.kind",
		},
		{
			name:   "unknown_metrics_backend",
			mutate: func(p *Pipeline) { p.Metrics.Backend = "graphite" },
			sev:    SeverityWarning,
			path:   "metrics.backend",
		},
		{
			name:   "xlsx_extension",
			mutate: func(p *Pipeline) { p.Output.XLSX = "clean.xls" },
			sev:    SeverityWarning,
			path:   "output.xlsx",
		},
		{
			name:   "long_sheet",
			mutate: func(p *Pipeline) { p.Output.Sheet = "a_sheet_name_longer_than_thirty_one" },
			sev:    SeverityError,
			path:   "output.sheet",
		},
		{
			name:   "bad_level",
			mutate: func(p *Pipeline) { p.Logging.Level = "trace" },
			sev:    SeverityError,
			path:   "logging.level",
		},
		{
			name:   "bad_codebook_ext",
			mutate: func(p *Pipeline) { p.Codebook = "codes.ini" },
			sev:    SeverityError,
			path:   "codebook",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := validPipeline()
			tt.mutate(&p)
			issues := ValidatePipeline(p)
			if !hasIssue(issues, tt.sev, tt.path) {
				t.Fatalf("want %s at %s, got %v", tt.sev, tt.path, issues)
			}
			if tt.sev == SeverityError && !HasErrors(issues) {
				t.Fatalf("HasErrors=false with error issue present")
			}
		})
	}
}
