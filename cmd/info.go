package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	consts "github.com/khanhnv2901/moodscan/internal/shared/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show system information and data directory paths",
	Long: `Display moodscan configuration information including:
  - Data directory locations
  - Configuration file path
  - Platform information`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)
		if appCtx == nil || appCtx.Services == nil {
			return errors.New("application context not initialized")
		}
		dataDir := appCtx.DataDir

		configPath := viper.ConfigFileUsed()
		configState := "(using defaults)"
		if configPath == "" {
			homeDir, _ := os.UserHomeDir()
			configPath = filepath.Join(homeDir, ".moodscan.yaml")
		} else {
			configState = "(loaded)"
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "moodscan System Information")
		fmt.Fprintln(out, "===========================")
		fmt.Fprintln(out)
		build := currentBuildInfo()
		fmt.Fprintf(out, "Platform:          %s\n", build.Platform)
		fmt.Fprintf(out, "Version:           %s\n", build.Summary())
		fmt.Fprintf(out, "Module API:        v%d\n", build.ModuleAPI)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Data Locations:")
		fmt.Fprintf(out, "  Data Directory:     %s\n", dataDir)
		fmt.Fprintf(out, "  Vulnerability DB:   %s %s\n", filepath.Join(dataDir, consts.CorpusFilename), presence(filepath.Join(dataDir, consts.CorpusFilename)))
		fmt.Fprintf(out, "  Plugin Catalog:     %s %s\n", filepath.Join(dataDir, consts.CatalogFilename), presence(filepath.Join(dataDir, consts.CatalogFilename)))
		fmt.Fprintf(out, "  Modules Directory:  %s %s\n", appCtx.Services.ModulesDir, presence(appCtx.Services.ModulesDir))
		fmt.Fprintf(out, "  Telemetry:          %s %s\n", filepath.Join(dataDir, telemetryFilename), presence(filepath.Join(dataDir, telemetryFilename)))
		fmt.Fprintf(out, "  Diagnostic Logs:    %s\n", getLogsDir(dataDir))
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Configuration File:   %s %s\n", configPath, configState)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "To override the data directory, set "+dataDirEnvVar+" or add to ~/.moodscan.yaml:")
		fmt.Fprintln(out, "  data_dir: /custom/path")
		if _, err := os.Stat(filepath.Join(dataDir, consts.CorpusFilename)); err != nil {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Run `moodscan update` to download the vulnerability database and plugin catalog.")
		}
		return nil
	},
}

func presence(path string) string {
	if _, err := os.Stat(path); err == nil {
		return "(exists)"
	}
	return "(not created yet)"
}
