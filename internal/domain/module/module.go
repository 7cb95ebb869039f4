// Package module defines the contract every check module implements and the
// registry that discovers them.
package module

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

// Module is an independent detection (and optionally exploitation) routine for one
// named vulnerability. Check must only probe; Exploit runs only when the operator
// asked for it and Check reported the target vulnerable.
type Module interface {
	Name() string
	Enabled() bool
	Check(ctx context.Context, sc *ScanContext) (bool, error)
	Exploit(ctx context.Context, sc *ScanContext) error
}

// Session is the HTTP session modules send requests through. Cookies and default
// headers are already configured by the scanner.
type Session interface {
	Do(req *http.Request) (*http.Response, error)
	Get(ctx context.Context, rawURL string) (*http.Response, error)
}

// Config carries the operator flags a module may look at.
type Config struct {
	Verbosity int
	Level     int
	Exploit   bool
	Headers   map[string]string
	Proxy     string
}

// ScanContext is the per-scan state shared with modules. Modules receive a
// reference for the duration of a call and must not change the session's
// authentication state.
type ScanContext struct {
	Target  string
	Version string
	Session Session
	Config  Config
	Logger  *zap.SugaredLogger
}

// WithSession returns a copy of sc bound to a different session.
func (sc *ScanContext) WithSession(s Session) *ScanContext {
	clone := *sc
	clone.Session = s
	return &clone
}

// URL joins path onto the target base URL.
func (sc *ScanContext) URL(path string) string {
	return sc.Target + path
}

// Log returns the scan logger, or a no-op logger when none is configured.
func (sc *ScanContext) Log() *zap.SugaredLogger {
	if sc.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return sc.Logger
}
