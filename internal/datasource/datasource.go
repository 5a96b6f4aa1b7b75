// Package datasource abstracts where raw extract bytes come from.
package datasource

import (
	"context"
	"io"
)

// Source opens the raw input stream. Callers close it.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
