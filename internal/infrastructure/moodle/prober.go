// Package moodle talks to a live Moodle instance: it fingerprints the platform,
// refines the version, authenticates and enumerates installed plugins.
package moodle

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/khanhnv2901/moodscan/internal/domain/catalog"
	"github.com/khanhnv2901/moodscan/internal/infrastructure/session"
	sharedErrors "github.com/khanhnv2901/moodscan/internal/shared/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	editorProbePath = "/lib/editor/atto/lib.php"
	coursePath      = "/course/view.php"
	loginPath       = "/login/index.php"

	courseErrorMarker = "/error/moodle/unspecifycourseid"

	// DefaultVersionHashesURL lists "version;md5;file" rows for static Moodle files.
	DefaultVersionHashesURL = "https://raw.githubusercontent.com/inc0d3/moodlescan/master/data/version.txt"
)

// hashedFiles are static files whose content changes between releases.
var hashedFiles = []string{
	"/admin/environment.xml",
	"/composer.lock",
	"/lib/upgrade.txt",
	"/privacy/export_files/general.js",
	"/composer.json",
	"/question/upgrade.txt",
	"/admin/tool/lp/tests/behat/course_competencies.feature",
}

// Config tunes the prober.
type Config struct {
	VersionHashesURL string
	Concurrency      int // parallel enumeration requests
	RateLimit        int // enumeration requests per second
}

// Prober implements the platform-specific probes of a scan.
type Prober struct {
	session *session.Session
	logger  *zap.SugaredLogger
	cfg     Config
}

// NewProber creates a prober that sends every request through s.
func NewProber(s *session.Session, logger *zap.SugaredLogger, cfg Config) *Prober {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if cfg.VersionHashesURL == "" {
		cfg.VersionHashesURL = DefaultVersionHashesURL
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 10
	}
	return &Prober{session: s, logger: logger, cfg: cfg}
}

// Validate confirms that target is reachable and is a Moodle instance, and returns
// the coarse version advertised by its documentation links (for example "v3.10").
func (p *Prober) Validate(ctx context.Context, target string) (string, error) {
	status, _, err := p.session.GetBody(ctx, target)
	if err != nil {
		return "", fmt.Errorf("%w: %v", sharedErrors.ErrTargetUnreachable, err)
	}
	if status >= http.StatusBadRequest {
		return "", fmt.Errorf("%w: %s answered %d", sharedErrors.ErrTargetUnreachable, target, status)
	}

	editorStatus, editorBody, err := p.session.GetBody(ctx, target+editorProbePath)
	if err != nil {
		return "", fmt.Errorf("%w: unable to reach moodle endpoints: %v", sharedErrors.ErrTargetUnreachable, err)
	}
	_, courseBody, err := p.session.GetBody(ctx, target+coursePath)
	if err != nil {
		return "", fmt.Errorf("%w: unable to reach moodle endpoints: %v", sharedErrors.ErrTargetUnreachable, err)
	}

	if editorStatus != http.StatusOK || editorBody != "" || !strings.Contains(courseBody, courseErrorMarker) {
		return "", fmt.Errorf("%w: %s", sharedErrors.ErrNotThePlatform, target)
	}

	v, ok := coarseVersion(courseBody)
	if !ok {
		return "", fmt.Errorf("%w: no documentation version in %s", sharedErrors.ErrNotThePlatform, coursePath)
	}
	return v, nil
}

var docsRelease = regexp.MustCompile(`docs\.moodle\.org/([0-9]{2,})/`)

// coarseVersion turns the docs.moodle.org/<NNN>/ release marker into "vN.NN".
func coarseVersion(body string) (string, bool) {
	m := docsRelease.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	return "v" + m[1][:1] + "." + m[1][1:], true
}

// RefineVersion matches file hashes against the known-hash table and returns the
// specific release. It fails when no file hash identifies exactly one release.
func (p *Prober) RefineVersion(ctx context.Context, target string) (string, error) {
	// the table lives off-target, so none of the operator's headers go with it
	detached, err := p.session.Detached()
	if err != nil {
		return "", fmt.Errorf("fetch version hashes: %w", err)
	}
	status, table, err := detached.GetBody(ctx, p.cfg.VersionHashesURL)
	if err != nil {
		return "", fmt.Errorf("fetch version hashes: %w", err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("fetch version hashes: status %d", status)
	}
	rows := parseHashTable(table)

	for _, f := range hashedFiles {
		_, body, err := p.session.GetBody(ctx, target+f)
		if err != nil {
			p.logger.Debugw("hash probe failed", "file", f, "error", err)
			continue
		}
		sum := md5.Sum([]byte(body))
		digest := hex.EncodeToString(sum[:])

		var matches []hashRow
		for _, r := range rows {
			if r.hash == digest {
				matches = append(matches, r)
			}
		}
		if len(matches) == 1 {
			p.logger.Debugw("version determined from file hash", "file", matches[0].file, "version", matches[0].version)
			return matches[0].version, nil
		}
	}
	return "", errors.New("no file hash identifies a single release")
}

type hashRow struct {
	version string
	hash    string
	file    string
}

func parseHashTable(text string) []hashRow {
	var rows []hashRow
	for _, line := range strings.Split(text, "\n") {
		fields := strings.Split(strings.TrimSpace(line), ";")
		if len(fields) < 3 {
			continue
		}
		rows = append(rows, hashRow{version: fields[0], hash: fields[1], file: fields[2]})
	}
	return rows
}

// Authenticate logs in with the token from the login form. Being redirected back
// to the login page means the credentials were rejected.
func (p *Prober) Authenticate(ctx context.Context, target, username, password string) error {
	resp, err := p.session.Get(ctx, target+loginPath)
	if err != nil {
		return fmt.Errorf("%w: load login page: %v", sharedErrors.ErrAuthenticationFailed, err)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("%w: parse login page: %v", sharedErrors.ErrAuthenticationFailed, err)
	}
	token, ok := doc.Find(`input[type="hidden"][name="logintoken"]`).First().Attr("value")
	if !ok {
		return fmt.Errorf("%w: login token not found", sharedErrors.ErrAuthenticationFailed)
	}

	authResp, err := p.session.PostForm(ctx, target+loginPath, url.Values{
		"username":   {username},
		"password":   {password},
		"logintoken": {token},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", sharedErrors.ErrAuthenticationFailed, err)
	}
	authResp.Body.Close()

	if authResp.StatusCode == http.StatusSeeOther && authResp.Header.Get("Location") == target+loginPath {
		return fmt.Errorf("%w: credentials for %q rejected", sharedErrors.ErrAuthenticationFailed, username)
	}
	return nil
}

// Enumerate probes every catalog entry's install path and returns the installed
// ones in catalog order. A request failure only means the entry was not found.
func (p *Prober) Enumerate(ctx context.Context, target string, plugins []catalog.Plugin, onProbe catalog.ProbeFunc) ([]catalog.Plugin, error) {
	limiter := rate.NewLimiter(rate.Limit(p.cfg.RateLimit), p.cfg.RateLimit)

	sem := make(chan struct{}, p.cfg.Concurrency)
	var wg sync.WaitGroup
	found := make([]bool, len(plugins))

	for i, plugin := range plugins {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func(i int, plugin catalog.Plugin) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			start := time.Now()
			at := p.probePlugin(ctx, limiter, target, plugin)
			found[i] = at != ""

			if onProbe != nil {
				onProbe(plugin, found[i], at, time.Since(start).Seconds())
			}
		}(i, plugin)
	}
	wg.Wait()

	installed := make([]catalog.Plugin, 0)
	for i, ok := range found {
		if ok {
			installed = append(installed, plugins[i])
		}
	}
	return installed, ctx.Err()
}

func (p *Prober) probePlugin(ctx context.Context, limiter *rate.Limiter, target string, plugin catalog.Plugin) string {
	for _, file := range catalog.ProbeFiles {
		if err := limiter.Wait(ctx); err != nil {
			return ""
		}
		u := target + plugin.Path + file
		resp, err := p.session.Get(ctx, u)
		if err != nil {
			p.logger.Debugw("plugin probe failed", "url", u, "error", err)
			continue
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			return u
		}
	}
	return ""
}
