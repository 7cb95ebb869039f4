package checker

import (
	"context"
	"strings"

	"github.com/khanhnv2901/moodscan/internal/domain/module"
)

// configBackupSuffixes are editor and deployment leftovers of config.php that the
// web server serves as plain text.
var configBackupSuffixes = []string{"~", ".bak", ".old", ".orig", ".save", ".swp", ".txt"}

// ConfigBackup detects a readable copy of config.php, which holds the database
// credentials. Only runs at level 2 and above because it sends several requests.
type ConfigBackup struct {
	found string
}

func (m *ConfigBackup) Name() string  { return "config_backup_disclosure" }
func (m *ConfigBackup) Enabled() bool { return true }

func (m *ConfigBackup) Check(ctx context.Context, sc *module.ScanContext) (bool, error) {
	if sc.Config.Level < 2 {
		return false, nil
	}
	for _, suffix := range configBackupSuffixes {
		path := "/config.php" + suffix
		status, body, err := fetch(ctx, sc, path)
		if err != nil {
			sc.Log().Debugw("config backup probe failed", "path", path, "error", err)
			continue
		}
		if isOK(status) && strings.Contains(body, "$CFG") {
			m.found = path
			return true, nil
		}
	}
	return false, nil
}

// Exploit reports which settings the exposed file discloses, without their values.
func (m *ConfigBackup) Exploit(ctx context.Context, sc *module.ScanContext) error {
	if m.found == "" {
		return nil
	}
	_, body, err := fetch(ctx, sc, m.found)
	if err != nil {
		return err
	}

	var keys []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "$CFG->") {
			continue
		}
		key, _, _ := strings.Cut(strings.TrimPrefix(line, "$CFG->"), "=")
		keys = append(keys, strings.TrimSpace(key))
	}
	sc.Log().Infow("config.php copy disclosed", "module", m.Name(), "url", sc.URL(m.found), "settings", keys)
	return nil
}
