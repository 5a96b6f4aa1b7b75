package pipeline

import (
	"context"
	"errors"
	"fmt"

	"surveyetl/internal/datasource"
	"surveyetl/internal/parser"
	"surveyetl/internal/table"
)

// Read opens src and parses it with p. Every failure except context
// cancellation wraps ErrMalformedInput, so callers can stop before any stage
// runs or any output is written.
func Read(ctx context.Context, src datasource.Source, p parser.Parser) (*table.Table, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}
	defer rc.Close()

	t, err := p.Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}
	if t == nil {
		return nil, fmt.Errorf("%w: parser returned no table", ErrMalformedInput)
	}
	return t, nil
}
