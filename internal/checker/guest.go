package checker

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/khanhnv2901/moodscan/internal/domain/module"
)

const guestLoginPath = "/login/index.php"

// GuestAccess detects the "log in as a guest" button on the login page.
type GuestAccess struct{}

func (m *GuestAccess) Name() string  { return "guest_access_enabled" }
func (m *GuestAccess) Enabled() bool { return true }

func (m *GuestAccess) Check(ctx context.Context, sc *module.ScanContext) (bool, error) {
	status, body, err := fetch(ctx, sc, guestLoginPath)
	if err != nil {
		return false, err
	}
	if !isOK(status) {
		return false, nil
	}
	return strings.Contains(body, `id="loginguestbtn"`) ||
		(strings.Contains(body, `name="username" value="guest"`) && strings.Contains(body, `name="password" value="guest"`)), nil
}

// Exploit lists the course index as the guest user would see it.
func (m *GuestAccess) Exploit(ctx context.Context, sc *module.ScanContext) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sc.URL("/course/index.php"), nil)
	if err != nil {
		return err
	}
	resp, err := sc.Session.Do(req)
	if err != nil {
		return fmt.Errorf("fetch course index: %w", err)
	}
	resp.Body.Close()

	sc.Log().Infow("guest login available", "module", m.Name(), "course_index", req.URL.String(), "status", resp.StatusCode)
	return nil
}
