package checker

import (
	"context"
	"net/http"
	"testing"
)

func TestAnalyzeCookies(t *testing.T) {
	resp := &http.Response{
		Header: http.Header{},
	}
	resp.Header.Add("Set-Cookie", "MoodleSession=abc123; Path=/")
	resp.Header.Add("Set-Cookie", "MoodleSessionlms=def456; Path=/; HttpOnly")
	resp.Header.Add("Set-Cookie", "prefs=dark; Path=/")

	findings := AnalyzeCookies(resp, true)
	if len(findings) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(findings))
	}

	if !findings[0].MissingSecure || !findings[0].MissingHTTPOnly {
		t.Errorf("expected session cookie to miss both flags: %+v", findings[0])
	}
	if findings[1].MissingHTTPOnly || !findings[1].MissingSecure {
		t.Errorf("expected second session cookie to miss only Secure: %+v", findings[1])
	}
	if findings[0].OriginalSetCookie != "MoodleSession=abc123; Path=/" {
		t.Errorf("unexpected raw header %q", findings[0].OriginalSetCookie)
	}
}

func TestAnalyzeCookies_PlainHTTPIgnoresSecure(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Add("Set-Cookie", "MoodleSession=abc123; Path=/; HttpOnly")

	if findings := AnalyzeCookies(resp, false); len(findings) != 0 {
		t.Fatalf("expected no findings over plain HTTP, got %+v", findings)
	}
}

func TestAnalyzeCookies_NoSetCookie(t *testing.T) {
	resp := &http.Response{
		Header: http.Header{},
	}

	if findings := AnalyzeCookies(resp, true); len(findings) != 0 {
		t.Fatalf("expected no findings, got %d", len(findings))
	}
}

func TestSessionCookieFlagsModule(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		want   bool
	}{
		{name: "readable by scripts", cookie: "MoodleSession=abc; path=/", want: true},
		{name: "httponly", cookie: "MoodleSession=abc; path=/; HttpOnly", want: false},
		{name: "no session cookie", cookie: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := newScanContext(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != guestLoginPath {
					http.NotFound(w, r)
					return
				}
				if tt.cookie != "" {
					w.Header().Add("Set-Cookie", tt.cookie)
				}
			}), 1)

			m := &SessionCookieFlags{}
			got, err := m.Check(context.Background(), sc)
			if err != nil {
				t.Fatalf("Check: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Check = %v, want %v", got, tt.want)
			}
			if err := m.Exploit(context.Background(), sc); err != nil {
				t.Fatalf("Exploit: %v", err)
			}
		})
	}
}
