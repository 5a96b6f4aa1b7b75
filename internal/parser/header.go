package parser

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrNoHeader is returned for input without a header row.
var ErrNoHeader = errors.New("parser: missing header row")

const utf8BOM = "\uFEFF"

// NormalizeHeaders produces canonical column names: the BOM is stripped from
// the first cell, names are trimmed, looked up in headerMap (exact match on
// the trimmed name), otherwise lowercased with accents removed and inner
// spaces turned into underscores. Empty names become "col_N". Repeated names
// get ".1", ".2", ... suffixes so every column stays addressable.
func NormalizeHeaders(h []string, headerMap map[string]string) []string {
	res := make([]string, len(h))
	seen := make(map[string]int, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if i == 0 {
			c = strings.TrimSpace(strings.TrimPrefix(c, utf8BOM))
		}
		name, ok := headerMap[c]
		if !ok {
			name = canonical(c)
		}
		if name == "" {
			name = fmt.Sprintf("col_%d", i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			for {
				cand := fmt.Sprintf("%s.%d", name, seen[name])
				if _, taken := seen[cand]; !taken {
					name = cand
					break
				}
				seen[name]++
			}
		}
		seen[name] = 0
		res[i] = name
	}
	return res
}

// canonical lowercases s, strips combining marks and joins words with "_".
func canonical(s string) string {
	s = strings.ToLower(s)
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}
	return strings.Join(strings.Fields(s), "_")
}
