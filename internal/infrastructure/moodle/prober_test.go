package moodle

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/khanhnv2901/moodscan/internal/domain/catalog"
	"github.com/khanhnv2901/moodscan/internal/infrastructure/session"
	sharedErrors "github.com/khanhnv2901/moodscan/internal/shared/errors"
)

const courseErrorPage = `<html><body>
<div class="errorbox"><a href="https://docs.moodle.org/310/en/error/moodle/unspecifycourseid">More information</a></div>
</body></html>`

func newMoodleServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "<html>front page</html>")
	})
	mux.HandleFunc(editorProbePath, func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc(coursePath, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, courseErrorPage)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestProber(t *testing.T, cfg Config) *Prober {
	t.Helper()
	s, err := session.New(session.Options{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	return NewProber(s, nil, cfg)
}

func TestValidateDetectsMoodle(t *testing.T) {
	srv := newMoodleServer(t)
	p := newTestProber(t, Config{})

	v, err := p.Validate(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if v != "v3.10" {
		t.Fatalf("expected coarse version v3.10, got %q", v)
	}
}

func TestValidateRejectsOtherPlatforms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>wordpress</html>")
	}))
	defer srv.Close()

	p := newTestProber(t, Config{})
	_, err := p.Validate(context.Background(), srv.URL)
	if !errors.Is(err, sharedErrors.ErrNotThePlatform) {
		t.Fatalf("expected ErrNotThePlatform, got %v", err)
	}
}

func TestValidateUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := newTestProber(t, Config{})
	_, err := p.Validate(context.Background(), url)
	if !errors.Is(err, sharedErrors.ErrTargetUnreachable) {
		t.Fatalf("expected ErrTargetUnreachable, got %v", err)
	}
}

func TestCoarseVersion(t *testing.T) {
	tests := []struct {
		body string
		want string
		ok   bool
	}{
		{`href="https://docs.moodle.org/310/en/"`, "v3.10", true},
		{`href="https://docs.moodle.org/39/en/"`, "v3.9", true},
		{`href="https://docs.moodle.org/401/en/"`, "v4.01", true},
		{`href="https://docs.moodle.org/dev/"`, "", false},
		{`no link`, "", false},
	}
	for _, tt := range tests {
		got, ok := coarseVersion(tt.body)
		if got != tt.want || ok != tt.ok {
			t.Errorf("coarseVersion(%q) = %q, %v; want %q, %v", tt.body, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRefineVersionRequiresUniqueMatch(t *testing.T) {
	upgrade := "=== 3.10.4 ===\n"
	sum := md5.Sum([]byte(upgrade))
	digest := hex.EncodeToString(sum[:])

	composer := "{}"
	csum := md5.Sum([]byte(composer))
	cdigest := hex.EncodeToString(csum[:])

	mux := http.NewServeMux()
	mux.HandleFunc("/hashes.txt", func(w http.ResponseWriter, r *http.Request) {
		// composer.lock is shared by two releases and must not decide
		fmt.Fprintf(w, "3.10.3;%s;composer.lock\n3.10.4;%s;composer.lock\n3.10.4;%s;lib/upgrade.txt\n", cdigest, cdigest, digest)
	})
	mux.HandleFunc("/composer.lock", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, composer)
	})
	mux.HandleFunc("/lib/upgrade.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, upgrade)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := newTestProber(t, Config{VersionHashesURL: srv.URL + "/hashes.txt"})
	v, err := p.RefineVersion(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("RefineVersion: %v", err)
	}
	if v != "3.10.4" {
		t.Fatalf("expected 3.10.4, got %q", v)
	}
}

func TestRefineVersionNoMatch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/hashes.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "3.9.1;ffffffffffffffffffffffffffffffff;composer.json\n")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := newTestProber(t, Config{VersionHashesURL: srv.URL + "/hashes.txt"})
	if _, err := p.RefineVersion(context.Background(), srv.URL); err == nil {
		t.Fatal("expected refinement to fail without a matching hash")
	}
}

func TestRefineVersionKeepsTargetHeadersOffHashHost(t *testing.T) {
	var hashAuth, targetAuth atomic.Value
	hashes := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hashAuth.Store(r.Header.Get("Authorization"))
		fmt.Fprint(w, "3.9.1;ffffffffffffffffffffffffffffffff;composer.json\n")
	}))
	defer hashes.Close()
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		targetAuth.Store(r.Header.Get("Authorization"))
		http.NotFound(w, r)
	}))
	defer target.Close()

	s, err := session.New(session.Options{
		Timeout: 5 * time.Second,
		Headers: map[string]string{"Authorization": "Bearer target-secret"},
	})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	p := NewProber(s, nil, Config{VersionHashesURL: hashes.URL})

	_, _ = p.RefineVersion(context.Background(), target.URL)

	if got, _ := hashAuth.Load().(string); got != "" {
		t.Fatalf("hash host received Authorization %q", got)
	}
	if got, _ := targetAuth.Load().(string); got != "Bearer target-secret" {
		t.Fatalf("target should still receive operator headers, got %q", got)
	}
}

func newLoginServer(t *testing.T, user, pass string) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc(loginPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, `<form><input type="hidden" name="logintoken" value="tok123"></form>`)
			return
		}
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("logintoken") != "tok123" ||
			r.PostForm.Get("username") != user || r.PostForm.Get("password") != pass {
			w.Header().Set("Location", srv.URL+loginPath)
		} else {
			w.Header().Set("Location", srv.URL+"/my/")
		}
		w.WriteHeader(http.StatusSeeOther)
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestAuthenticate(t *testing.T) {
	srv := newLoginServer(t, "tutor", "s3cret")
	p := newTestProber(t, Config{})

	if err := p.Authenticate(context.Background(), srv.URL, "tutor", "s3cret"); err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
}

func TestAuthenticateRejected(t *testing.T) {
	srv := newLoginServer(t, "tutor", "s3cret")
	p := newTestProber(t, Config{})

	err := p.Authenticate(context.Background(), srv.URL, "tutor", "wrong")
	if !errors.Is(err, sharedErrors.ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestAuthenticateWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<form></form>")
	}))
	defer srv.Close()

	p := newTestProber(t, Config{})
	err := p.Authenticate(context.Background(), srv.URL, "a", "b")
	if !errors.Is(err, sharedErrors.ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestEnumerateKeepsCatalogOrder(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/blocks/alpha/version.php", "/theme/gamma/":
			fmt.Fprint(w, "ok")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	plugins := []catalog.Plugin{
		{ID: 1, Type: "block", Name: "Alpha", Path: "/blocks/alpha/"},
		{ID: 2, Type: "block", Name: "Beta", Path: "/blocks/beta/"},
		{ID: 3, Type: "theme", Name: "Gamma", Path: "/theme/gamma/"},
	}

	var probed atomic.Int32
	p := newTestProber(t, Config{Concurrency: 3, RateLimit: 1000})
	found, err := p.Enumerate(context.Background(), srv.URL, plugins, func(plugin catalog.Plugin, ok bool, at string, d float64) {
		probed.Add(1)
	})
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}

	if len(found) != 2 || found[0].Name != "Alpha" || found[1].Name != "Gamma" {
		t.Fatalf("unexpected enumeration result: %+v", found)
	}
	if probed.Load() != 3 {
		t.Fatalf("expected 3 progress callbacks, got %d", probed.Load())
	}
	// beta exhausts every probe file, alpha stops at the second, gamma at the first
	if got := hits.Load(); got != 7 {
		t.Fatalf("expected 7 requests, got %d", got)
	}
}

func TestEnumerateEmptyCatalog(t *testing.T) {
	p := newTestProber(t, Config{})
	found, err := p.Enumerate(context.Background(), "http://127.0.0.1:1", nil, nil)
	if err != nil {
		t.Fatalf("Enumerate: %v", err)
	}
	if found == nil || len(found) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", found)
	}
}
