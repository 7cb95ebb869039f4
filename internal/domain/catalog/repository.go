package catalog

import (
	"context"

	"github.com/khanhnv2901/moodscan/internal/domain/snapshot"
)

// Repository loads and replaces the persisted plugin catalog as a whole.
type Repository interface {
	Load(ctx context.Context) ([]Plugin, error)
	Replace(ctx context.Context, plugins []Plugin) (snapshot.Change, error)
}
