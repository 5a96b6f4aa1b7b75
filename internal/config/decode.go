package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for file extensions or format names other
// than json, yaml/yml and toml.
var ErrUnsupportedFormat = errors.New("config: unsupported format")

// FormatFromPath returns "json", "yaml" or "toml" for path, or "".
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	default:
		return ""
	}
}

// DecodeFile decodes the file at path into v using the decoder matching its
// extension.
func DecodeFile(path string, v any) error {
	format := FormatFromPath(path)
	if format == "" {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := Decode(f, format, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Decode reads one document of the given format from r into v.
func Decode(r io.Reader, format string, v any) error {
	switch format {
	case "json":
		return json.NewDecoder(r).Decode(v)
	case "yaml":
		err := yaml.NewDecoder(r).Decode(v)
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	case "toml":
		return toml.NewDecoder(r).Decode(v)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Encode writes v to w in the given format.
func Encode(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "toml":
		return toml.NewEncoder(w).Encode(v)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}
