package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/khanhnv2901/moodscan/internal/application"
	"github.com/khanhnv2901/moodscan/internal/infrastructure/diag"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var cfgFile string
var dataDirFlag string

var rootCmd = &cobra.Command{
	Use:   "moodscan",
	Short: "Moodle vulnerability scanner (for authorized testing only)",
	Long: `moodscan fingerprints a Moodle site, resolves its version, lists the official
security advisories affecting it, enumerates installed plugins and themes and
runs check modules against it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// init config
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			viper.AddConfigPath("$HOME")
			viper.SetConfigName(".moodscan")
			viper.SetConfigType("yaml")
		}
		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if cfgFile != "" || !errors.As(err, &notFound) {
				return fmt.Errorf("failed to read config: %w", err)
			}
		}

		applyConfigDefaults(cmd)

		dataDir, err := getDataDir()
		if err != nil {
			return err
		}

		logger, err := newLogger(cliConfig.Defaults.Verbosity)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		services, err := application.NewContainer(dataDir, application.Sources{
			AdvisoriesURL: cliConfig.Sources.AdvisoriesURL,
			PluginsAPIURL: cliConfig.Sources.PluginsAPIURL,
			RateLimit:     cliConfig.Sources.RateLimit,
		}, logger)
		if err != nil {
			return err
		}

		storeAppContext(cmd, &AppContext{
			Logger:    logger,
			DataDir:   dataDir,
			Verbosity: cliConfig.Defaults.Verbosity,
			Config:    cliConfig,
			Services:  services,
		})

		logger.Debugw("initialized", "data_dir", dataDir, "config", viper.ConfigFileUsed())
		return nil
	},
}

// newLogger builds the console logger. Warnings and errors are always shown; each
// -v lowers the threshold by one level.
func newLogger(verbosity int) (*zap.SugaredLogger, error) {
	level := zapcore.WarnLevel
	switch {
	case verbosity >= 2:
		level = zapcore.DebugLevel
	case verbosity == 1:
		level = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.DisableStacktrace = verbosity < 2

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer func() {
		if rec := recover(); rec != nil {
			reportFault(fmt.Errorf("panic: %v", rec), debug.Stack())
			os.Exit(2)
		}
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(err.Error())
		if isUnexpected(err) {
			reportFault(err, nil)
		}
		stop()
		os.Exit(1)
	}
}

// reportFault writes a diagnostic log for an unexpected failure and tells the user
// where it is.
func reportFault(err error, stack []byte) {
	dataDir, derr := getDataDir()
	if derr != nil {
		return
	}
	path, werr := diag.WriteFault(getLogsDir(dataDir), err, stack, "version", Version, "args", os.Args[1:])
	if werr != nil {
		fmt.Fprintf(os.Stderr, "failed to write diagnostic log: %v\n", werr)
		return
	}
	printInfo(fmt.Sprintf("Diagnostic log written to %s, please attach it when reporting this issue", path))
}

func init() {
	// config file flag
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.moodscan.yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "data directory (or set "+dataDirEnvVar+")")
	rootCmd.PersistentFlags().CountVarP(&cliConfig.Defaults.Verbosity, "verbose", "v", "increase verbosity (repeatable)")

	// add subcommands
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(modulesCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(versionCmd)
}
