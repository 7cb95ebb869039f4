package vulnerability

import (
	"context"

	"github.com/khanhnv2901/moodscan/internal/domain/snapshot"
)

// Repository loads and replaces the persisted corpus as a whole.
type Repository interface {
	// Load returns the current corpus snapshot in stored order.
	Load(ctx context.Context) ([]Record, error)

	// Replace backs up the current corpus and writes records in its place.
	Replace(ctx context.Context, records []Record) (snapshot.Change, error)
}
