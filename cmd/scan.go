package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	scanapp "github.com/khanhnv2901/moodscan/internal/application/scan"
	"github.com/khanhnv2901/moodscan/internal/domain/catalog"
	"github.com/khanhnv2901/moodscan/internal/domain/module"
	"github.com/khanhnv2901/moodscan/internal/domain/scan"
	"github.com/khanhnv2901/moodscan/internal/infrastructure/moodle"
	"github.com/khanhnv2901/moodscan/internal/infrastructure/session"
	sharedErrors "github.com/khanhnv2901/moodscan/internal/shared/errors"
	"github.com/spf13/cobra"
)

const (
	minScanLevel = 1
	maxScanLevel = 3
)

var scanCmd = &cobra.Command{
	Use:   "scan <url>",
	Short: "Scan a Moodle site",
	Long: `Validate that the target runs Moodle, resolve its version, list the official
advisories affecting that version and run every enabled check module.

Levels:
  1  coarse version from the documentation links
  2  refine the version by hashing static files
  3  also enumerate installed plugins and themes`,
	Example: `  moodscan scan https://lms.example.edu
  moodscan scan lms.example.edu --level 3 --auth tutor:secret -o result.json`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	flags := scanCmd.Flags()
	flags.IntVarP(&cliConfig.Scan.Level, "level", "l", cliConfig.Scan.Level, "scan level (1-3)")
	flags.StringVarP(&cliConfig.Scan.Auth, "auth", "a", "", "log in before scanning (user:password)")
	flags.BoolVarP(&cliConfig.Scan.Exploit, "exploit", "e", false, "run the exploit step of modules that report the target vulnerable")
	flags.StringArrayVarP(&cliConfig.Scan.Headers, "header", "H", nil, "extra request header (\"Name: value\", repeatable)")
	flags.StringVarP(&cliConfig.Scan.Proxy, "proxy", "p", "", "proxy URL (http, https or socks5)")
	flags.BoolVarP(&cliConfig.Scan.RandomAgent, "random-agent", "r", false, "send a random browser User-Agent")
	flags.StringVarP(&cliConfig.Scan.OutputPath, "output", "o", "", "write the scan result as JSON to this file")
	flags.IntVar(&cliConfig.Scan.Concurrency, "concurrency", cliConfig.Scan.Concurrency, "modules run in parallel (1 runs them sequentially)")
	flags.IntVar(&cliConfig.Scan.EnumConcurrency, "enum-concurrency", cliConfig.Scan.EnumConcurrency, "parallel plugin enumeration requests")
	flags.IntVar(&cliConfig.Scan.ModuleTimeoutSecs, "module-timeout", cliConfig.Scan.ModuleTimeoutSecs, "seconds a single module step may run")
	flags.IntVar(&cliConfig.Scan.TimeoutSecs, "timeout", cliConfig.Scan.TimeoutSecs, "HTTP request timeout in seconds")
	flags.IntVar(&cliConfig.Scan.RateLimit, "rate-limit", cliConfig.Scan.RateLimit, "enumeration requests per second")
	flags.BoolVar(&cliConfig.Scan.TelemetryEnabled, "telemetry", false, "append scan metrics to telemetry.jsonl in the data directory")
}

func runScan(cmd *cobra.Command, args []string) error {
	appCtx := getAppContext(cmd)
	if appCtx == nil || appCtx.Services == nil {
		return errors.New("application context not initialized")
	}
	cfg := appCtx.Config.Scan
	out := cmd.OutOrStdout()

	req, sess, err := buildScanRequest(args[0], cfg, appCtx.Verbosity)
	if err != nil {
		return err
	}

	if appCtx.Verbosity > 1 {
		printLoadedComponents(cmd, appCtx)
	}

	prober := moodle.NewProber(sess, appCtx.Logger, proberConfig(cfg, appCtx.Config.Sources))
	orchestrator := appCtx.Services.NewScanOrchestrator(prober)

	var progress *progressPrinter
	stopProgress := func() {
		if progress != nil {
			progress.Stop()
			progress = nil
		}
	}
	defer stopProgress()

	orchestrator.SetEvents(scanapp.Events{
		OnTransition: func(t scan.Transition) {
			if t.From == scan.StateVersionResolved || t.To == scan.StateFailed {
				stopProgress()
			}
			announceTransition(t, req)
			if t.To == scan.StateVersionResolved && cfg.Level > 2 {
				total := 0
				if plugins, err := appCtx.Services.CatalogRepo.Load(cmd.Context()); err == nil {
					total = len(plugins)
				}
				if total > 0 {
					progress = newProgressPrinter(out, total, "Enumeration")
					progress.Start()
				}
			}
		},
		OnProbe: func(p catalog.Plugin, found bool, at string, seconds float64) {
			if progress != nil {
				progress.Increment(found, seconds)
			}
			if found {
				appCtx.Logger.Debugw("plugin found", "name", p.Name, "url", at)
			}
		},
		OnModule: func(o scan.ModuleOutcome) {
			if appCtx.Verbosity > 0 {
				printStatus(fmt.Sprintf("Module %s: %s", o.Name, formatStatusWithColor(outcomeStatus(o))))
			}
		},
	})

	printStatus(fmt.Sprintf("Scanning %s", req.Target))
	result, runErr := orchestrator.Run(cmd.Context(), req)
	stopProgress()

	if result != nil && cfg.TelemetryEnabled {
		if err := recordTelemetry(appCtx, cmd.CommandPath(), cfg.Level, result); err != nil {
			appCtx.Logger.Warnw("failed to record telemetry", "error", err)
		}
	}

	if runErr != nil {
		last := scan.StateIdle
		if result != nil {
			if history := result.History(); len(history) > 0 {
				last = history[len(history)-1].From
			}
		}
		return &ScanFailedError{Target: req.Target, LastState: last, Err: runErr}
	}

	renderScanReport(out, result)
	if req.OutputPath != "" {
		printSuccess(fmt.Sprintf("Results saved to %s", req.OutputPath))
	}
	return nil
}

// buildScanRequest validates the scan flags and prepares the session the scan runs on.
func buildScanRequest(rawTarget string, cfg ScanRuntimeConfig, verbosity int) (scanapp.Request, *session.Session, error) {
	if cfg.Level < minScanLevel || cfg.Level > maxScanLevel {
		return scanapp.Request{}, nil, &UsageError{Flag: "level", Reason: fmt.Sprintf("must be between %d and %d", minScanLevel, maxScanLevel)}
	}
	if cfg.Concurrency < 1 {
		return scanapp.Request{}, nil, &UsageError{Flag: "concurrency", Reason: "must be at least 1"}
	}
	if cfg.EnumConcurrency < 1 {
		return scanapp.Request{}, nil, &UsageError{Flag: "enum-concurrency", Reason: "must be at least 1"}
	}

	target := moodle.NormalizeTarget(rawTarget)
	if target == "" {
		return scanapp.Request{}, nil, &UsageError{Reason: fmt.Sprintf("invalid target URL %q", rawTarget)}
	}

	headers, err := session.ParseHeaders(cfg.Headers)
	if err != nil {
		return scanapp.Request{}, nil, &UsageError{Flag: "header", Reason: err.Error()}
	}

	creds, err := parseCredentials(cfg.Auth)
	if err != nil {
		return scanapp.Request{}, nil, &UsageError{Flag: "auth", Reason: err.Error()}
	}

	sess, err := session.New(session.Options{
		Timeout:     time.Duration(cfg.TimeoutSecs) * time.Second,
		UserAgent:   cfg.UserAgent,
		RandomAgent: cfg.RandomAgent,
		Headers:     headers,
		Proxy:       cfg.Proxy,
	})
	if err != nil {
		return scanapp.Request{}, nil, &UsageError{Flag: "proxy", Reason: err.Error()}
	}

	req := scanapp.Request{
		Target:      target,
		Credentials: creds,
		Config: module.Config{
			Verbosity: verbosity,
			Level:     cfg.Level,
			Exploit:   cfg.Exploit,
			Headers:   headers,
			Proxy:     cfg.Proxy,
		},
		OutputPath: cfg.OutputPath,
		Session:    sess,
		CloneSession: func() (module.Session, error) {
			clone, err := sess.Clone(target)
			if err != nil {
				return nil, err
			}
			return clone, nil
		},
		Concurrency:   cfg.Concurrency,
		ModuleTimeout: time.Duration(cfg.ModuleTimeoutSecs) * time.Second,
	}
	return req, sess, nil
}

// proberConfig sizes enumeration independently of module parallelism.
func proberConfig(cfg ScanRuntimeConfig, sources SourceConfig) moodle.Config {
	return moodle.Config{
		VersionHashesURL: sources.VersionHashesURL,
		Concurrency:      cfg.EnumConcurrency,
		RateLimit:        cfg.RateLimit,
	}
}

func parseCredentials(raw string) (*scanapp.Credentials, error) {
	if raw == "" {
		return nil, nil
	}
	user, pass, ok := strings.Cut(raw, ":")
	if !ok || user == "" {
		return nil, sharedErrors.ErrInvalidCredentials
	}
	return &scanapp.Credentials{Username: user, Password: pass}, nil
}

func announceTransition(t scan.Transition, req scanapp.Request) {
	switch t.To {
	case scan.StateTargetValidated:
		printSuccess("Target is a Moodle site")
	case scan.StateAuthenticated:
		printSuccess(fmt.Sprintf("Logged in as %s", req.Credentials.Username))
	case scan.StateVersionResolved:
		printStatus("Version resolved, matching official advisories")
	case scan.StateEnumerated:
		printStatus("Plugin and theme enumeration finished")
	case scan.StateScanned:
		printStatus("Check modules finished")
	case scan.StateFailed:
		printError(fmt.Sprintf("Scan failed during %s", t.From))
	}
}

func outcomeStatus(o scan.ModuleOutcome) string {
	switch {
	case o.TimedOut:
		return "timed_out"
	case o.Error != "":
		return "error"
	case o.Vulnerable:
		return "vulnerable"
	}
	return "ok"
}

// printLoadedComponents reports the data and modules a scan will use.
func printLoadedComponents(cmd *cobra.Command, appCtx *AppContext) {
	ctx := cmd.Context()
	if plugins, err := appCtx.Services.CatalogRepo.Load(ctx); err == nil {
		printInfo(fmt.Sprintf("Loaded %d plugins and themes", len(plugins)))
	} else {
		printWarning(fmt.Sprintf("Plugin catalog unavailable: %v", err))
	}
	if records, err := appCtx.Services.CorpusRepo.Load(ctx); err == nil {
		printInfo(fmt.Sprintf("Loaded %d official vulnerabilities", len(records)))
	} else {
		printWarning(fmt.Sprintf("Vulnerability corpus unavailable: %v", err))
	}
	modules, errs := appCtx.Services.Registry.Discover()
	printInfo(fmt.Sprintf("Loaded %d modules (%d enabled)", len(modules), len(module.Enabled(modules))))
	for _, err := range errs {
		printWarning(err.Error())
	}
}
