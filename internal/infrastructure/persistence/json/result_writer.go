package json

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/khanhnv2901/moodscan/internal/domain/scan"
	sharedErrors "github.com/khanhnv2901/moodscan/internal/shared/errors"
)

// ResultWriter implements scan.ResultWriter, replacing the output file atomically.
type ResultWriter struct{}

// NewResultWriter creates a result writer.
func NewResultWriter() *ResultWriter {
	return &ResultWriter{}
}

// Write serializes result to path.
func (w *ResultWriter) Write(ctx context.Context, path string, result scan.Result) error {
	if path == "" {
		return fmt.Errorf("output path cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", sharedErrors.ErrSerializationFailed, err)
	}
	return writeFileAtomic(filepath.Clean(path), append(data, '\n'))
}

// Read loads a result previously written by Write.
func (w *ResultWriter) Read(ctx context.Context, path string) (scan.Result, error) {
	if err := ctx.Err(); err != nil {
		return scan.Result{}, err
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return scan.Result{}, fmt.Errorf("failed to read scan result: %w", err)
	}

	var result scan.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return scan.Result{}, fmt.Errorf("%w: %v", sharedErrors.ErrDeserializationFailed, err)
	}
	return result, nil
}

var _ scan.ResultWriter = (*ResultWriter)(nil)
