// internal/catalog/source.go
package catalog

import (
	"context"
	"errors"

	"github.com/andresuchdata/autopo-insights/internal/domain"
)

// ErrNoSource is returned when neither a file nor a database is configured.
var ErrNoSource = errors.New("catalog: no snapshot source configured")

// Source loads a catalog snapshot. Items come back in source order.
type Source interface {
	Load(ctx context.Context) ([]domain.Item, error)
	Describe() string
}

// StaticSource serves an in-memory snapshot.
type StaticSource []domain.Item

func (s StaticSource) Load(ctx context.Context) ([]domain.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.Item, len(s))
	copy(out, s)
	return out, nil
}

func (s StaticSource) Describe() string { return "static" }
