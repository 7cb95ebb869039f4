package checker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/khanhnv2901/moodscan/internal/domain/module"
	sharedErrors "github.com/khanhnv2901/moodscan/internal/shared/errors"
)

// ExternalModuleConfig describes a module implemented by an external command.
type ExternalModuleConfig struct {
	Name           string
	Enabled        bool
	Command        string
	Args           []string
	ExploitArgs    []string
	Env            map[string]string
	TimeoutSeconds int
}

// ExternalModule runs a command once per step. The command gets its configured
// arguments followed by the target URL and version, plus the MOODSCAN_* environment.
type ExternalModule struct {
	name        string
	enabled     bool
	command     string
	args        []string
	exploitArgs []string
	env         map[string]string
	timeout     time.Duration
}

// externalVerdict is the JSON an external module prints on stdout.
type externalVerdict struct {
	Vulnerable bool   `json:"vulnerable"`
	Details    string `json:"details,omitempty"`
}

func NewExternalModule(cfg ExternalModuleConfig) *ExternalModule {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ExternalModule{
		name:        cfg.Name,
		enabled:     cfg.Enabled,
		command:     cfg.Command,
		args:        cfg.Args,
		exploitArgs: cfg.ExploitArgs,
		env:         cfg.Env,
		timeout:     timeout,
	}
}

func (e *ExternalModule) Name() string  { return e.name }
func (e *ExternalModule) Enabled() bool { return e.enabled }

// Check runs the command and decodes its verdict.
func (e *ExternalModule) Check(ctx context.Context, sc *module.ScanContext) (bool, error) {
	output, err := e.run(ctx, sc, e.args)
	if err != nil {
		return false, err
	}

	var verdict externalVerdict
	if err := json.Unmarshal(bytes.TrimSpace(output), &verdict); err != nil {
		return false, fmt.Errorf("invalid module output: %w", err)
	}
	if verdict.Details != "" {
		sc.Log().Debugw("external module details", "module", e.name, "details", verdict.Details)
	}
	return verdict.Vulnerable, nil
}

// Exploit runs the command with the exploit arguments. Modules without
// exploit arguments have nothing to run.
func (e *ExternalModule) Exploit(ctx context.Context, sc *module.ScanContext) error {
	if len(e.exploitArgs) == 0 {
		return sharedErrors.ErrNoExploitStep
	}
	output, err := e.run(ctx, sc, e.exploitArgs)
	if err != nil {
		return err
	}
	if out := strings.TrimSpace(string(output)); out != "" {
		sc.Log().Infow("exploit output", "module", e.name, "output", out)
	}
	return nil
}

func (e *ExternalModule) run(ctx context.Context, sc *module.ScanContext, baseArgs []string) ([]byte, error) {
	if e.command == "" {
		return nil, errors.New("external module command is empty")
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	args := append([]string{}, baseArgs...)
	args = append(args, sc.Target, sc.Version)

	cmd := exec.CommandContext(runCtx, e.command, args...)
	cmd.Env = append(os.Environ(), e.environment(sc)...)
	cmd.WaitDelay = time.Second

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%s: %s", e.command, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%s: %w", e.command, err)
	}
	return output, nil
}

func (e *ExternalModule) environment(sc *module.ScanContext) []string {
	env := []string{
		"MOODSCAN_TARGET=" + sc.Target,
		"MOODSCAN_VERSION=" + sc.Version,
		"MOODSCAN_LEVEL=" + strconv.Itoa(sc.Config.Level),
		"MOODSCAN_VERBOSITY=" + strconv.Itoa(sc.Config.Verbosity),
	}
	if sc.Config.Proxy != "" {
		env = append(env, "MOODSCAN_PROXY="+sc.Config.Proxy)
	}
	if jar, ok := sc.Session.(interface{ Cookies(string) []*http.Cookie }); ok {
		var pairs []string
		for _, c := range jar.Cookies(sc.Target) {
			pairs = append(pairs, c.Name+"="+c.Value)
		}
		if len(pairs) > 0 {
			env = append(env, "MOODSCAN_COOKIE="+strings.Join(pairs, "; "))
		}
	}
	for k, v := range e.env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}
