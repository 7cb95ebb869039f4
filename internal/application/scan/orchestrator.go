package scan

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/khanhnv2901/moodscan/internal/domain/catalog"
	"github.com/khanhnv2901/moodscan/internal/domain/module"
	"github.com/khanhnv2901/moodscan/internal/domain/scan"
	"github.com/khanhnv2901/moodscan/internal/domain/version"
	"github.com/khanhnv2901/moodscan/internal/domain/vulnerability"
	consts "github.com/khanhnv2901/moodscan/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/moodscan/internal/shared/errors"
	"go.uber.org/zap"
)

// Platform runs the probes that depend on the scanned product.
type Platform interface {
	Validate(ctx context.Context, target string) (string, error)
	Authenticate(ctx context.Context, target, username, password string) error
	RefineVersion(ctx context.Context, target string) (string, error)
	Enumerate(ctx context.Context, target string, plugins []catalog.Plugin, onProbe catalog.ProbeFunc) ([]catalog.Plugin, error)
}

// ModuleProvider yields the modules of one scan.
type ModuleProvider interface {
	Active() ([]module.Module, []error)
}

// Credentials are used to log in before the version is resolved.
type Credentials struct {
	Username string
	Password string
}

// Request describes one scan.
type Request struct {
	Target      string
	Credentials *Credentials
	Config      module.Config
	OutputPath  string

	// Session is shared by every step in sequential mode.
	Session module.Session
	// CloneSession gives each module its own session in parallel mode.
	CloneSession func() (module.Session, error)

	Concurrency   int
	ModuleTimeout time.Duration
}

// Events lets callers follow a scan. Callbacks are never invoked concurrently.
type Events struct {
	OnTransition func(scan.Transition)
	OnModule     func(scan.ModuleOutcome)
	OnProbe      catalog.ProbeFunc
}

// Orchestrator coordinates a scan across the platform probes, the corpus and the
// check modules.
type Orchestrator struct {
	platform    Platform
	corpusRepo  vulnerability.Repository
	catalogRepo catalog.Repository
	modules     ModuleProvider
	writer      scan.ResultWriter
	logger      *zap.SugaredLogger
	events      Events

	eventsMu sync.Mutex
}

// NewOrchestrator creates a new scan orchestrator
func NewOrchestrator(
	platform Platform,
	corpusRepo vulnerability.Repository,
	catalogRepo catalog.Repository,
	modules ModuleProvider,
	writer scan.ResultWriter,
	logger *zap.SugaredLogger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Orchestrator{
		platform:    platform,
		corpusRepo:  corpusRepo,
		catalogRepo: catalogRepo,
		modules:     modules,
		writer:      writer,
		logger:      logger,
	}
}

// SetEvents installs the progress callbacks.
func (o *Orchestrator) SetEvents(events Events) {
	o.events = events
}

// Run executes a scan. The returned scan is Done or Failed; the error is the
// failure cause.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*scan.Scan, error) {
	s, err := scan.New(req.Target)
	if err != nil {
		return nil, err
	}
	if req.Session == nil {
		return o.fail(s, errors.New("scan requires a session"))
	}

	coarse, err := o.platform.Validate(ctx, req.Target)
	if err != nil {
		return o.fail(s, err)
	}
	s.SetVersion(coarse)
	if err := o.advance(s, scan.StateTargetValidated); err != nil {
		return o.fail(s, err)
	}

	if req.Credentials != nil {
		o.logger.Infow("authenticating", "username", req.Credentials.Username)
		if err := o.platform.Authenticate(ctx, req.Target, req.Credentials.Username, req.Credentials.Password); err != nil {
			return o.fail(s, err)
		}
		if err := o.advance(s, scan.StateAuthenticated); err != nil {
			return o.fail(s, err)
		}
	}

	if req.Config.Level > 1 {
		if specific, err := o.platform.RefineVersion(ctx, req.Target); err != nil {
			o.logger.Warnw("couldn't determine specific version", "error", err)
		} else {
			s.SetVersion(specific)
		}
	}
	if err := o.advance(s, scan.StateVersionResolved); err != nil {
		return o.fail(s, err)
	}

	if req.Config.Level > 2 {
		s.SetPlugins(o.enumerate(ctx, req.Target))
		if err := o.advance(s, scan.StateEnumerated); err != nil {
			return o.fail(s, err)
		}
	}

	s.SetOfficial(o.official(ctx, s.Version()))

	sc := &module.ScanContext{
		Target:  req.Target,
		Version: s.Version(),
		Session: req.Session,
		Config:  req.Config,
		Logger:  o.logger,
	}
	s.SetCommunity(o.runModules(ctx, sc, req))
	if err := o.advance(s, scan.StateScanned); err != nil {
		return o.fail(s, err)
	}

	if req.OutputPath != "" {
		if err := o.writer.Write(ctx, req.OutputPath, s.Result()); err != nil {
			return o.fail(s, fmt.Errorf("failed to save scan results: %w", err))
		}
	}
	if err := o.advance(s, scan.StateReported); err != nil {
		return o.fail(s, err)
	}
	if err := o.advance(s, scan.StateDone); err != nil {
		return o.fail(s, err)
	}
	return s, nil
}

func (o *Orchestrator) advance(s *scan.Scan, to scan.State) error {
	if err := s.Advance(to); err != nil {
		return err
	}
	o.emitTransition(s)
	return nil
}

func (o *Orchestrator) fail(s *scan.Scan, cause error) (*scan.Scan, error) {
	if err := s.Fail(cause); err != nil {
		return s, errors.Join(cause, err)
	}
	o.emitTransition(s)
	return s, cause
}

func (o *Orchestrator) emitTransition(s *scan.Scan) {
	if o.events.OnTransition == nil {
		return
	}
	history := s.History()
	o.eventsMu.Lock()
	defer o.eventsMu.Unlock()
	o.events.OnTransition(history[len(history)-1])
}

// enumerate is best-effort: a missing catalog or a failing probe only shrinks
// the plugin list.
func (o *Orchestrator) enumerate(ctx context.Context, target string) []catalog.Plugin {
	plugins, err := o.catalogRepo.Load(ctx)
	if err != nil {
		o.logger.Warnw("plugin catalog unavailable, skipping enumeration", "error", err)
		return nil
	}

	var onProbe catalog.ProbeFunc
	if o.events.OnProbe != nil {
		onProbe = func(p catalog.Plugin, found bool, at string, seconds float64) {
			o.eventsMu.Lock()
			defer o.eventsMu.Unlock()
			o.events.OnProbe(p, found, at, seconds)
		}
	}

	found, err := o.platform.Enumerate(ctx, target, plugins, onProbe)
	if err != nil {
		o.logger.Warnw("plugin enumeration incomplete", "error", err)
	}
	return found
}

// official matches the version against the corpus snapshot loaded for this scan.
func (o *Orchestrator) official(ctx context.Context, raw string) []vulnerability.Record {
	records, err := o.corpusRepo.Load(ctx)
	if err != nil {
		o.logger.Warnw("vulnerability corpus unavailable", "error", err)
		return nil
	}

	v, err := version.Normalize(raw)
	if err != nil {
		o.logger.Warnw("version cannot be matched against the corpus", "version", raw, "error", err)
		return nil
	}
	return vulnerability.NewIndex(records).Query(v)
}

func (o *Orchestrator) runModules(ctx context.Context, sc *module.ScanContext, req Request) []scan.ModuleOutcome {
	modules, errs := o.modules.Active()
	if len(errs) > 0 {
		o.logger.Warnw("some modules failed to load", "count", len(errs))
	}

	timeout := req.ModuleTimeout
	if timeout <= 0 {
		timeout = consts.DefaultModuleTimeout
	}

	outcomes := make([]scan.ModuleOutcome, len(modules))
	var exploitMu sync.Mutex

	if req.Concurrency <= 1 || req.CloneSession == nil {
		for i, m := range modules {
			outcomes[i] = o.runModule(ctx, m, sc, timeout, &exploitMu)
		}
		return outcomes
	}

	sem := make(chan struct{}, req.Concurrency)
	var wg sync.WaitGroup
	for i, m := range modules {
		wg.Add(1)
		go func(i int, m module.Module) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			moduleCtx := sc
			if clone, err := req.CloneSession(); err != nil {
				o.logger.Warnw("session clone failed, module shares the base session", "module", m.Name(), "error", err)
			} else {
				moduleCtx = sc.WithSession(clone)
			}
			outcomes[i] = o.runModule(ctx, m, moduleCtx, timeout, &exploitMu)
		}(i, m)
	}
	wg.Wait()
	return outcomes
}

// runModule isolates one module: an error, panic or timeout in Check counts as
// not vulnerable, and a failing Exploit keeps the positive Check.
func (o *Orchestrator) runModule(ctx context.Context, m module.Module, sc *module.ScanContext, timeout time.Duration, exploitMu *sync.Mutex) scan.ModuleOutcome {
	start := time.Now()
	outcome := scan.ModuleOutcome{Name: m.Name()}
	log := o.logger.With("module", outcome.Name)

	vulnerable, err := o.invoke(ctx, outcome.Name, "check", timeout, func(ctx context.Context) (bool, error) {
		return m.Check(ctx, sc)
	})
	if err != nil {
		outcome.Error = err.Error()
		outcome.TimedOut = errors.Is(err, sharedErrors.ErrModuleTimeout)
		log.Warnw("module faulted, treating target as not vulnerable", "error", err)
	}
	outcome.Vulnerable = vulnerable

	if vulnerable && sc.Config.Exploit {
		exploitMu.Lock()
		_, err := o.invoke(ctx, outcome.Name, "exploit", timeout, func(ctx context.Context) (bool, error) {
			return false, m.Exploit(ctx, sc)
		})
		exploitMu.Unlock()

		switch {
		case errors.Is(err, sharedErrors.ErrNoExploitStep):
			log.Debugw("module has no exploit step")
		case err != nil:
			outcome.ExploitError = err.Error()
			log.Warnw("exploit failed", "error", err)
		default:
			outcome.Exploited = true
		}
	}

	outcome.Duration = time.Since(start)
	if o.events.OnModule != nil {
		o.eventsMu.Lock()
		o.events.OnModule(outcome)
		o.eventsMu.Unlock()
	}
	return outcome
}

type stepResult struct {
	vulnerable bool
	err        error
}

// invoke runs fn in its own goroutine so a module that ignores its context still
// cannot stall the scan past timeout.
func (o *Orchestrator) invoke(ctx context.Context, name, step string, timeout time.Duration, fn func(context.Context) (bool, error)) (bool, error) {
	stepCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan stepResult, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				o.logger.Debugw("module panic", "module", name, "step", step, "stack", string(debug.Stack()))
				done <- stepResult{err: fmt.Errorf("panic: %v", rec)}
			}
		}()
		vulnerable, err := fn(stepCtx)
		done <- stepResult{vulnerable: vulnerable, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return false, &sharedErrors.ModuleFaultError{Module: name, Step: step, Err: res.err}
		}
		return res.vulnerable, nil
	case <-stepCtx.Done():
		cause := stepCtx.Err()
		if errors.Is(cause, context.DeadlineExceeded) && ctx.Err() == nil {
			cause = fmt.Errorf("%w after %s", sharedErrors.ErrModuleTimeout, timeout)
		}
		return false, &sharedErrors.ModuleFaultError{Module: name, Step: step, Err: cause}
	}
}
