// Package config defines the pipeline configuration model for surveyetl. A
// pipeline file names the input extract, the output artifacts and the optional
// database sink and metrics backend. Nothing here is required: the CLI can run
// from flags alone, and every field falls back to a default.
//
// The same structure is accepted as JSON, YAML or TOML; the decoder follows
// the file extension.
//
// Example (YAML, trimmed):
//
//	job: findex_2025
//	source:  { kind: file, file: { path: findex_2025.xlsx } }
//	parser:  { kind: xlsx, options: { sheet: Data } }
//	output:  { csv: findex_2025_cleaned.csv, xlsx: findex_2025_cleaned.xlsx }
//	storage: { kind: sqlite, db: { dsn: findex.db, table: findex_clean } }
package config

import (
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Pipeline is the top-level configuration object.
type Pipeline struct {
	// Job labels logs and metrics for this run.
	Job string `json:"job" yaml:"job" toml:"job"`

	Source Source `json:"source" yaml:"source" toml:"source"`
	Parser Parser `json:"parser" yaml:"parser" toml:"parser"`

	// Codebook optionally points at an externalized codebook file that
	// replaces the compiled-in column groups and recode tables.
	Codebook string `json:"codebook" yaml:"codebook" toml:"codebook"`

	Output  Output  `json:"output" yaml:"output" toml:"output"`
	Storage Storage `json:"storage" yaml:"storage" toml:"storage"`
	Metrics Metrics `json:"metrics" yaml:"metrics" toml:"metrics"`
	Logging Logging `json:"logging" yaml:"logging" toml:"logging"`
}

// Source identifies the input: "file" or "http".
type Source struct {
	Kind string     `json:"kind" yaml:"kind" toml:"kind"`
	File SourceFile `json:"file" yaml:"file" toml:"file"`
	HTTP SourceHTTP `json:"http" yaml:"http" toml:"http"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	Path string `json:"path" yaml:"path" toml:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	URL        string            `json:"url" yaml:"url" toml:"url"`
	Headers    map[string]string `json:"headers" yaml:"headers" toml:"headers"`
	TimeoutSec int               `json:"timeout_sec" yaml:"timeout_sec" toml:"timeout_sec"`
	MaxRetries int               `json:"max_retries" yaml:"max_retries" toml:"max_retries"`
}

// Location returns the path or URL the source reads from.
func (s Source) Location() string {
	if s.Kind == "http" {
		return s.HTTP.URL
	}
	return s.File.Path
}

// Parser selects the reader. An empty Kind is resolved from the source file
// extension (.csv or .xlsx).
//
// Options understood by the readers:
//
//	csv:  comma (string), trim_space (bool), header_map (object)
//	xlsx: sheet (string), header_map (object)
type Parser struct {
	Kind    string  `json:"kind" yaml:"kind" toml:"kind"`
	Options Options `json:"options" yaml:"options" toml:"options"`
}

// Output names the artifacts. Either path may be empty to skip that artifact,
// but not both.
type Output struct {
	CSV   string `json:"csv" yaml:"csv" toml:"csv"`
	XLSX  string `json:"xlsx" yaml:"xlsx" toml:"xlsx"`
	Sheet string `json:"sheet" yaml:"sheet" toml:"sheet"`
}

// Storage selects an optional database sink for the cleaned table. An empty
// Kind disables it.
type Storage struct {
	Kind string   `json:"kind" yaml:"kind" toml:"kind"`
	DB   DBConfig `json:"db" yaml:"db" toml:"db"`
}

// DBConfig configures the database sink.
type DBConfig struct {
	// DSN is passed to the backend driver unchanged.
	DSN string `json:"dsn" yaml:"dsn" toml:"dsn"`

	// Table is the destination table, optionally schema-qualified.
	Table string `json:"table" yaml:"table" toml:"table"`

	// BatchSize is the number of rows per insert batch.
	BatchSize int `json:"batch_size" yaml:"batch_size" toml:"batch_size"`

	// AutoCreateTable creates the destination table from the cleaned
	// table's columns when it does not exist.
	AutoCreateTable bool `json:"auto_create_table" yaml:"auto_create_table" toml:"auto_create_table"`

	// Truncate empties the destination table before loading.
	Truncate bool `json:"truncate" yaml:"truncate" toml:"truncate"`
}

// Metrics selects the metrics backend: "", "none", "pushgateway" or "datadog".
type Metrics struct {
	Backend        string   `json:"backend" yaml:"backend" toml:"backend"`
	PushgatewayURL string   `json:"pushgateway_url" yaml:"pushgateway_url" toml:"pushgateway_url"`
	DatadogAddr    string   `json:"datadog_addr" yaml:"datadog_addr" toml:"datadog_addr"`
	Namespace      string   `json:"namespace" yaml:"namespace" toml:"namespace"`
	Tags           []string `json:"tags" yaml:"tags" toml:"tags"`
}

// Logging configures the zap logger.
type Logging struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level" toml:"level"`
	// Format is "console" or "json".
	Format string `json:"format" yaml:"format" toml:"format"`
}

// Default batch size for database loads.
const DefaultBatchSize = 5000

// Load decodes the pipeline file at path, overlays the process environment and
// applies defaults.
func Load(path string) (Pipeline, error) {
	var p Pipeline
	if err := DecodeFile(path, &p); err != nil {
		return Pipeline{}, err
	}
	p.ApplyEnv(os.Getenv)
	p.ApplyDefaults()
	return p, nil
}

// ApplyDefaults fills zero fields with their defaults. It is idempotent, so
// callers may re-run it after overriding fields.
func (p *Pipeline) ApplyDefaults() {
	if p.Job == "" {
		p.Job = "surveyetl"
	}
	if p.Source.Kind == "" {
		p.Source.Kind = "file"
		if p.Source.File.Path == "" && p.Source.HTTP.URL != "" {
			p.Source.Kind = "http"
		}
	}
	if p.Parser.Kind == "" {
		p.Parser.Kind = KindFromPath(p.Source.Location())
	}
	if p.Parser.Options == nil {
		p.Parser.Options = Options{}
	}
	if p.Output.Sheet == "" {
		p.Output.Sheet = "cleaned"
	}
	if p.Storage.Kind != "" && p.Storage.DB.BatchSize <= 0 {
		p.Storage.DB.BatchSize = DefaultBatchSize
	}
	if p.Logging.Level == "" {
		p.Logging.Level = "info"
	}
	if p.Logging.Format == "" {
		p.Logging.Format = "console"
	}
}

// ApplyEnv overlays environment settings. getenv is os.Getenv in production.
//
//	SURVEYETL_JOB, SURVEYETL_STORAGE_KIND, SURVEYETL_DB_DSN, SURVEYETL_DB_TABLE,
//	SURVEYETL_BATCH_SIZE, SURVEYETL_LOG_LEVEL, METRICS_BACKEND,
//	PUSHGATEWAY_URL, DD_AGENT_ADDR
//
// Values already set in the file win, except the DSN, which is taken from the
// environment when present so secrets can stay out of pipeline files.
func (p *Pipeline) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	pick := func(dst *string, key string) {
		if *dst == "" {
			*dst = getenv(key)
		}
	}
	pick(&p.Job, "SURVEYETL_JOB")
	pick(&p.Storage.Kind, "SURVEYETL_STORAGE_KIND")
	pick(&p.Storage.DB.Table, "SURVEYETL_DB_TABLE")
	pick(&p.Logging.Level, "SURVEYETL_LOG_LEVEL")
	pick(&p.Metrics.Backend, "METRICS_BACKEND")
	pick(&p.Metrics.PushgatewayURL, "PUSHGATEWAY_URL")
	pick(&p.Metrics.DatadogAddr, "DD_AGENT_ADDR")
	if dsn := getenv("SURVEYETL_DB_DSN"); dsn != "" {
		p.Storage.DB.DSN = dsn
	}
	if p.Storage.DB.BatchSize == 0 {
		if n, err := strconv.Atoi(getenv("SURVEYETL_BATCH_SIZE")); err == nil && n > 0 {
			p.Storage.DB.BatchSize = n
		}
	}
}

// KindFromPath maps a file extension to a parser kind; unknown extensions
// yield "". URLs are judged by their path, ignoring the query.
func KindFromPath(path string) string {
	if u, err := url.Parse(path); err == nil && u.Scheme != "" && u.Host != "" {
		path = u.Path
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return "csv"
	case ".xlsx", ".xlsm":
		return "xlsx"
	default:
		return ""
	}
}

// Options is a small helper to fetch typed values from a decoded options map.
// It performs only minimal type coercion and returns the provided default when
// a key is absent or of an unexpected type. JSON numbers arrive as float64,
// YAML as int and TOML as int64; all three are accepted.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the integer value for key or def.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		case int64:
			return int(n)
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if the key is
// missing or empty. Used for single-character settings such as a delimiter.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	v, ok := o[key]
	if !ok {
		return res
	}
	switch m := v.(type) {
	case map[string]any:
		for k, vv := range m {
			if s, ok := vv.(string); ok {
				res[k] = s
			}
		}
	case map[string]string:
		for k, s := range m {
			res[k] = s
		}
	}
	return res
}

// UnmarshalJSON makes a missing or null "options" object decode to an empty,
// non-nil map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
