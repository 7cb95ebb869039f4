// Package scan holds the scan aggregate: its state machine and its findings.
package scan

import (
	"fmt"
	"time"

	"github.com/khanhnv2901/moodscan/internal/domain/catalog"
	"github.com/khanhnv2901/moodscan/internal/domain/vulnerability"
	sharedErrors "github.com/khanhnv2901/moodscan/internal/shared/errors"
)

// State is a step of a single scan.
type State string

const (
	StateIdle            State = "idle"
	StateTargetValidated State = "target_validated"
	StateAuthenticated   State = "authenticated"
	StateVersionResolved State = "version_resolved"
	StateEnumerated      State = "enumerated"
	StateScanned         State = "scanned"
	StateReported        State = "reported"
	StateDone            State = "done"
	StateFailed          State = "failed"
)

var transitions = map[State][]State{
	StateIdle:            {StateTargetValidated},
	StateTargetValidated: {StateAuthenticated, StateVersionResolved},
	StateAuthenticated:   {StateVersionResolved},
	StateVersionResolved: {StateEnumerated, StateScanned},
	StateEnumerated:      {StateScanned},
	StateScanned:         {StateReported},
	StateReported:        {StateDone},
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Transition records one state change.
type Transition struct {
	From State
	To   State
	At   time.Time
}

// Scan is one end-to-end run against a single target.
type Scan struct {
	target      string
	state       State
	history     []Transition
	version     string
	plugins     []catalog.Plugin
	official    []vulnerability.Record
	community   []ModuleOutcome
	failure     error
	startedAt   time.Time
	completedAt time.Time
}

// New creates an idle scan for target.
func New(target string) (*Scan, error) {
	if target == "" {
		return nil, sharedErrors.ErrEmptyTarget
	}
	return &Scan{
		target:    target,
		state:     StateIdle,
		startedAt: time.Now(),
	}, nil
}

// Advance moves the scan to the next state if the transition is allowed.
func (s *Scan) Advance(to State) error {
	if s.state.Terminal() {
		return fmt.Errorf("%w: scan already %s", sharedErrors.ErrInvalidTransition, s.state)
	}
	for _, allowed := range transitions[s.state] {
		if allowed == to {
			s.move(to)
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", sharedErrors.ErrInvalidTransition, s.state, to)
}

// Fail moves a non-terminal scan to StateFailed and records the cause.
func (s *Scan) Fail(cause error) error {
	if s.state.Terminal() {
		return fmt.Errorf("%w: scan already %s", sharedErrors.ErrInvalidTransition, s.state)
	}
	s.failure = cause
	s.move(StateFailed)
	return nil
}

func (s *Scan) move(to State) {
	now := time.Now()
	s.history = append(s.history, Transition{From: s.state, To: to, At: now})
	s.state = to
	if to.Terminal() {
		s.completedAt = now
	}
}

// SetVersion records the resolved target version.
func (s *Scan) SetVersion(v string) { s.version = v }

// SetPlugins records enumeration results.
func (s *Scan) SetPlugins(p []catalog.Plugin) { s.plugins = append([]catalog.Plugin(nil), p...) }

// SetOfficial records corpus-derived findings.
func (s *Scan) SetOfficial(r []vulnerability.Record) {
	s.official = append([]vulnerability.Record(nil), r...)
}

// SetCommunity records the module outcomes in dispatch order.
func (s *Scan) SetCommunity(o []ModuleOutcome) { s.community = append([]ModuleOutcome(nil), o...) }

// Getters

func (s *Scan) Target() string                   { return s.target }
func (s *Scan) State() State                     { return s.state }
func (s *Scan) Version() string                  { return s.version }
func (s *Scan) Plugins() []catalog.Plugin        { return s.plugins }
func (s *Scan) Official() []vulnerability.Record { return s.official }
func (s *Scan) Community() []ModuleOutcome       { return s.community }
func (s *Scan) Failure() error                   { return s.failure }
func (s *Scan) StartedAt() time.Time             { return s.startedAt }
func (s *Scan) CompletedAt() time.Time           { return s.completedAt }

// History returns the recorded transitions in order.
func (s *Scan) History() []Transition {
	return append([]Transition(nil), s.history...)
}

// Reached reports whether the scan passed through state at some point.
func (s *Scan) Reached(state State) bool {
	if s.state == state {
		return true
	}
	for _, t := range s.history {
		if t.To == state {
			return true
		}
	}
	return false
}

// Duration returns the elapsed time of the scan so far.
func (s *Scan) Duration() time.Duration {
	if s.completedAt.IsZero() {
		return time.Since(s.startedAt)
	}
	return s.completedAt.Sub(s.startedAt)
}

// Result builds the aggregated report of the scan.
func (s *Scan) Result() Result {
	official := s.official
	if official == nil {
		official = []vulnerability.Record{}
	}
	plugins := s.plugins
	if plugins == nil {
		plugins = []catalog.Plugin{}
	}
	community := make([]string, 0, len(s.community))
	for _, o := range s.community {
		if o.Vulnerable {
			community = append(community, o.Name)
		}
	}
	return Result{
		URL:       s.target,
		Version:   s.version,
		Plugins:   plugins,
		Official:  official,
		Community: community,
	}
}
