package checker

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/khanhnv2901/moodscan/internal/domain/module"
	"github.com/khanhnv2901/moodscan/internal/infrastructure/session"
)

// Builtin returns the compiled-in modules in their fixed run order.
func Builtin() []module.Module {
	return []module.Module{
		&OpenRegistration{},
		&GuestAccess{},
		&ConfigBackup{},
		&WebServiceExposure{},
		&SessionCookieFlags{},
	}
}

// BuiltinSource exposes the compiled-in modules to a registry.
func BuiltinSource() module.Source {
	return module.Static("builtin", Builtin()...)
}

// fetch requests path on the target and returns the status code and body.
func fetch(ctx context.Context, sc *module.ScanContext, path string) (int, string, error) {
	resp, err := sc.Session.Get(ctx, sc.URL(path))
	if err != nil {
		return 0, "", fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := session.ReadBody(resp)
	return resp.StatusCode, body, err
}

func containsAll(body string, needles ...string) bool {
	for _, n := range needles {
		if !strings.Contains(body, n) {
			return false
		}
	}
	return true
}

func isOK(status int) bool {
	return status == http.StatusOK
}
