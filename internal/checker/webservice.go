package checker

import (
	"context"
	"strings"

	"github.com/khanhnv2901/moodscan/internal/domain/module"
)

const restServerPath = "/webservice/rest/server.php"

// WebServiceExposure detects an enabled REST web service endpoint. Disabled web
// services answer with a different error than a missing token does.
type WebServiceExposure struct{}

func (m *WebServiceExposure) Name() string  { return "rest_webservice_enabled" }
func (m *WebServiceExposure) Enabled() bool { return true }

func (m *WebServiceExposure) Check(ctx context.Context, sc *module.ScanContext) (bool, error) {
	_, body, err := fetch(ctx, sc, restServerPath+"?wsfunction=core_webservice_get_site_info&moodlewsrestformat=json")
	if err != nil {
		return false, err
	}
	return strings.Contains(body, "invalidtoken"), nil
}

func (m *WebServiceExposure) Exploit(ctx context.Context, sc *module.ScanContext) error {
	sc.Log().Infow("REST web service accepts token requests", "module", m.Name(), "url", sc.URL(restServerPath))
	return nil
}
