package checker

import (
	"context"

	"github.com/khanhnv2901/moodscan/internal/domain/module"
)

const signupPath = "/login/signup.php"

// OpenRegistration detects email-based self registration, which lets anyone
// create an account on the site.
type OpenRegistration struct{}

func (m *OpenRegistration) Name() string  { return "open_self_registration" }
func (m *OpenRegistration) Enabled() bool { return true }

// Check looks for the signup form. Sites without self registration redirect the
// signup page to the login form.
func (m *OpenRegistration) Check(ctx context.Context, sc *module.ScanContext) (bool, error) {
	status, body, err := fetch(ctx, sc, signupPath)
	if err != nil {
		return false, err
	}
	return isOK(status) && containsAll(body, `name="username"`, `name="email"`, `name="password"`), nil
}

// Exploit reports where accounts can be created. It does not submit the form.
func (m *OpenRegistration) Exploit(ctx context.Context, sc *module.ScanContext) error {
	sc.Log().Infow("self registration form is publicly reachable", "module", m.Name(), "url", sc.URL(signupPath))
	return nil
}
