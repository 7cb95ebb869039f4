package scan

import (
	"context"
	"time"

	"github.com/khanhnv2901/moodscan/internal/domain/catalog"
	"github.com/khanhnv2901/moodscan/internal/domain/vulnerability"
)

// ModuleOutcome is what one check module reported.
type ModuleOutcome struct {
	Name       string `json:"name"`
	Vulnerable bool   `json:"vulnerable"`
	Exploited  bool   `json:"exploited,omitempty"`
	TimedOut   bool   `json:"timed_out,omitempty"`
	Error      string `json:"error,omitempty"`
	// ExploitError is set when the exploit step failed; Vulnerable still stands.
	ExploitError string        `json:"exploit_error,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// Faulted reports whether the module failed to produce a trustworthy answer.
func (o ModuleOutcome) Faulted() bool {
	return o.TimedOut || o.Error != ""
}

// Result is the aggregated, persisted output of a scan.
type Result struct {
	URL       string                 `json:"url"`
	Version   string                 `json:"version"`
	Plugins   []catalog.Plugin       `json:"plugins"`
	Official  []vulnerability.Record `json:"official_vulnerabilities"`
	Community []string               `json:"community_vulnerabilities"`
}

// ResultWriter persists a scan result.
type ResultWriter interface {
	Write(ctx context.Context, path string, result Result) error
}
