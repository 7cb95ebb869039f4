package cmd

import (
	"context"

	"github.com/khanhnv2901/moodscan/internal/application"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const dataDirEnvVar = "MOODSCAN_DATA_DIR"

// AppContext carries the state shared by every subcommand.
type AppContext struct {
	Logger    *zap.SugaredLogger
	DataDir   string
	Verbosity int
	Config    *CLIConfig
	Services  *application.Container
}

type appContextKey struct{}

// globalAppContext is the fallback used when a command runs without the root
// pre-run hook, as happens in tests that invoke RunE directly.
var globalAppContext *AppContext

func storeAppContext(cmd *cobra.Command, appCtx *AppContext) {
	globalAppContext = appCtx
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, appContextKey{}, appCtx))
}

func getAppContext(cmd *cobra.Command) *AppContext {
	if cmd != nil {
		if ctx := cmd.Context(); ctx != nil {
			if appCtx, ok := ctx.Value(appContextKey{}).(*AppContext); ok {
				return appCtx
			}
		}
	}
	return globalAppContext
}
