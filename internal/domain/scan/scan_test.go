package scan

import (
	"errors"
	"testing"

	"github.com/khanhnv2901/moodscan/internal/domain/vulnerability"
	sharedErrors "github.com/khanhnv2901/moodscan/internal/shared/errors"
)

func TestNewRequiresTarget(t *testing.T) {
	if _, err := New(""); !errors.Is(err, sharedErrors.ErrEmptyTarget) {
		t.Fatalf("expected ErrEmptyTarget, got %v", err)
	}
}

func TestScanHappyPath(t *testing.T) {
	s, err := New("http://moodle.test")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	steps := []State{
		StateTargetValidated,
		StateAuthenticated,
		StateVersionResolved,
		StateEnumerated,
		StateScanned,
		StateReported,
		StateDone,
	}
	for _, step := range steps {
		if err := s.Advance(step); err != nil {
			t.Fatalf("Advance(%s) from %s: %v", step, s.State(), err)
		}
	}

	if !s.State().Terminal() {
		t.Fatalf("expected terminal state, got %s", s.State())
	}
	if len(s.History()) != len(steps) {
		t.Fatalf("expected %d transitions, got %d", len(steps), len(s.History()))
	}
	if s.CompletedAt().IsZero() {
		t.Fatal("expected completion time to be set")
	}
}

func TestScanOptionalStepsCanBeSkipped(t *testing.T) {
	s, _ := New("http://moodle.test")
	for _, step := range []State{StateTargetValidated, StateVersionResolved, StateScanned, StateReported, StateDone} {
		if err := s.Advance(step); err != nil {
			t.Fatalf("Advance(%s): %v", step, err)
		}
	}
	if s.Reached(StateAuthenticated) || s.Reached(StateEnumerated) {
		t.Fatal("skipped steps must not appear as reached")
	}
}

func TestScanRejectsInvalidTransition(t *testing.T) {
	s, _ := New("http://moodle.test")
	if err := s.Advance(StateScanned); !errors.Is(err, sharedErrors.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestScanFailIsTerminal(t *testing.T) {
	s, _ := New("http://moodle.test")
	_ = s.Advance(StateTargetValidated)

	cause := sharedErrors.ErrAuthenticationFailed
	if err := s.Fail(cause); err != nil {
		t.Fatalf("Fail returned error: %v", err)
	}
	if s.State() != StateFailed || !errors.Is(s.Failure(), cause) {
		t.Fatalf("unexpected state %s / failure %v", s.State(), s.Failure())
	}
	if err := s.Advance(StateVersionResolved); err == nil {
		t.Fatal("expected no transition out of failed")
	}
	if err := s.Fail(cause); err == nil {
		t.Fatal("expected failing twice to be rejected")
	}
}

func TestScanResultAggregates(t *testing.T) {
	s, _ := New("http://moodle.test")
	s.SetVersion("3.9.5")
	s.SetOfficial([]vulnerability.Record{vulnerability.NewRecord("MSA", nil, "3.9", "l")})
	s.SetCommunity([]ModuleOutcome{
		{Name: "one", Vulnerable: true},
		{Name: "two", Vulnerable: false, Error: "boom"},
		{Name: "three", TimedOut: true},
	})

	res := s.Result()
	if res.URL != "http://moodle.test" || res.Version != "3.9.5" {
		t.Fatalf("unexpected header fields: %+v", res)
	}
	if len(res.Official) != 1 {
		t.Fatalf("expected one official finding, got %d", len(res.Official))
	}
	if len(res.Community) != 1 || res.Community[0] != "one" {
		t.Fatalf("expected only vulnerable modules in community findings, got %v", res.Community)
	}
	if res.Plugins == nil {
		t.Fatal("expected empty plugin list rather than nil")
	}
}
