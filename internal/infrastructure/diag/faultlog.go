// Package diag writes diagnostic logs for faults the user should report.
package diag

import (
	"fmt"
	"os"
	"time"

	consts "github.com/khanhnv2901/moodscan/internal/shared/constants"
	"github.com/khanhnv2901/moodscan/internal/shared/security"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const timestampLayout = "20060102-150405"

// WriteFault records err with its context fields in a new timestamped log file
// under dir and returns the file path.
func WriteFault(dir string, err error, stack []byte, keysAndValues ...any) (string, error) {
	if err := os.MkdirAll(dir, consts.DefaultDirPerm); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}

	name := fmt.Sprintf("moodscan-%s-%d.log", time.Now().Format(timestampLayout), os.Getpid())
	path, rerr := security.ResolveWithin(dir, name)
	if rerr != nil {
		return "", rerr
	}

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	cfg.Sampling = nil
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, lerr := cfg.Build()
	if lerr != nil {
		return "", fmt.Errorf("failed to open diagnostic log: %w", lerr)
	}
	defer l.Sync()

	fields := append([]any{"error", err.Error()}, keysAndValues...)
	if len(stack) > 0 {
		fields = append(fields, "stack", string(stack))
	}
	l.Sugar().Errorw("unhandled fault", fields...)
	return path, nil
}
