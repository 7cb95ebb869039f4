package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/khanhnv2901/moodscan/internal/domain/scan"
	sharedErrors "github.com/khanhnv2901/moodscan/internal/shared/errors"
)

// UsageError reports invalid command-line input.
type UsageError struct {
	Flag   string
	Reason string
}

func (e *UsageError) Error() string {
	if e.Flag == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid --%s: %s", e.Flag, e.Reason)
}

// ScanFailedError signals that a scan ended in the failed state.
type ScanFailedError struct {
	Target    string
	LastState scan.State
	Err       error
}

func (e *ScanFailedError) Error() string {
	return fmt.Sprintf("scan of %s failed after %s: %v", e.Target, e.LastState, e.Err)
}

func (e *ScanFailedError) Unwrap() error {
	return e.Err
}

// isUnexpected reports whether err is a fault worth a diagnostic log rather than
// an outcome the user caused or was already told about.
func isUnexpected(err error) bool {
	var usage *UsageError
	var failed *ScanFailedError
	switch {
	case errors.As(err, &usage), errors.As(err, &failed):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, sharedErrors.ErrCorpusIntegrity):
		return false
	}
	return true
}
