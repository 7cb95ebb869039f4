package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/khanhnv2901/moodscan/internal/application"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// setupTestAppContext initializes an AppContext backed by a temporary data directory.
func setupTestAppContext(t *testing.T) *AppContext {
	t.Helper()

	original := globalAppContext
	dataDir := t.TempDir()
	t.Setenv(dataDirEnvVar, dataDir)

	services, err := application.NewContainer(dataDir, application.Sources{}, nil)
	if err != nil {
		t.Fatalf("failed to initialize services: %v", err)
	}

	appCtx := &AppContext{
		DataDir:  dataDir,
		Config:   newCLIConfig(),
		Services: services,
	}
	globalAppContext = appCtx

	t.Cleanup(func() {
		globalAppContext = original
	})
	return appCtx
}

// executeCommand runs the root command with args and returns what the command wrote
// to its output stream. Global flag and config state is restored afterwards.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	t.Cleanup(resetCommandState)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func resetCommandState() {
	viper.Reset()
	resetFlags(rootCmd)
	*cliConfig = *newCLIConfig()
	cfgFile = ""
	dataDirFlag = ""
	globalAppContext = nil
	rootCmd.SetOut(nil)
	rootCmd.SetErr(nil)
	rootCmd.SetArgs(nil)
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}
