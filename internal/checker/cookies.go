package checker

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/khanhnv2901/moodscan/internal/domain/module"
)

const sessionCookiePrefix = "MoodleSession"

// CookieFinding describes a session cookie issued without protective flags.
type CookieFinding struct {
	Name              string
	MissingSecure     bool
	MissingHTTPOnly   bool
	OriginalSetCookie string
}

// AnalyzeCookies inspects the Set-Cookie headers of resp for session cookies missing
// HttpOnly, or missing Secure when the site is served over TLS.
func AnalyzeCookies(resp *http.Response, requireSecure bool) []CookieFinding {
	if resp == nil {
		return nil
	}

	raw := resp.Header["Set-Cookie"]
	if len(raw) == 0 {
		return nil
	}

	findings := make([]CookieFinding, 0)
	for i, cookie := range resp.Cookies() {
		if !strings.HasPrefix(cookie.Name, sessionCookiePrefix) {
			continue
		}
		finding := CookieFinding{
			Name:            cookie.Name,
			MissingSecure:   requireSecure && !cookie.Secure,
			MissingHTTPOnly: !cookie.HttpOnly,
		}
		if i < len(raw) {
			finding.OriginalSetCookie = raw[i]
		}
		if finding.MissingSecure || finding.MissingHTTPOnly {
			findings = append(findings, finding)
		}
	}
	return findings
}

// SessionCookieFlags reports a session cookie that scripts can read, or that is
// sent over plain HTTP on a TLS site.
type SessionCookieFlags struct {
	findings []CookieFinding
}

func (m *SessionCookieFlags) Name() string  { return "insecure_session_cookie" }
func (m *SessionCookieFlags) Enabled() bool { return true }

func (m *SessionCookieFlags) Check(ctx context.Context, sc *module.ScanContext) (bool, error) {
	resp, err := sc.Session.Get(ctx, sc.URL(guestLoginPath))
	if err != nil {
		return false, fmt.Errorf("request %s: %w", guestLoginPath, err)
	}
	resp.Body.Close()

	m.findings = AnalyzeCookies(resp, strings.HasPrefix(sc.Target, "https://"))
	return len(m.findings) > 0, nil
}

// Exploit logs the offending Set-Cookie headers.
func (m *SessionCookieFlags) Exploit(ctx context.Context, sc *module.ScanContext) error {
	for _, f := range m.findings {
		sc.Log().Infow("session cookie lacks protective flags",
			"module", m.Name(),
			"cookie", f.Name,
			"missing_secure", f.MissingSecure,
			"missing_httponly", f.MissingHTTPOnly,
			"set_cookie", f.OriginalSetCookie,
		)
	}
	return nil
}
