package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	defaultHTTPTimeoutSeconds   = 10
	defaultModuleTimeoutSeconds = 60
	defaultScanLevel            = 1
	defaultRateLimit            = 10
	defaultEnumConcurrency      = 4
	defaultRefreshRateLimit     = 5
)

// CLIConfig captures runtime configuration shared across commands.
type CLIConfig struct {
	Defaults DefaultValues
	Scan     ScanRuntimeConfig
	Sources  SourceConfig
}

// DefaultValues represent operator-level defaults, typically derived from config.
type DefaultValues struct {
	TimeoutSecs      int
	TelemetryEnabled bool
	Verbosity        int
}

// ScanRuntimeConfig consolidates flag-driven settings for the scan command.
type ScanRuntimeConfig struct {
	Level             int
	Auth              string
	Exploit           bool
	Headers           []string
	Proxy             string
	RandomAgent       bool
	UserAgent         string
	OutputPath        string
	Concurrency       int
	EnumConcurrency   int
	ModuleTimeoutSecs int
	TimeoutSecs       int
	RateLimit         int
	TelemetryEnabled  bool
	ProgressEnabled   bool
}

// SourceConfig locates the upstream data the update command and the version
// refinement download.
type SourceConfig struct {
	AdvisoriesURL    string
	PluginsAPIURL    string
	VersionHashesURL string
	RateLimit        int
}

type defaultOverrides struct {
	TimeoutSecs       *int
	Level             *int
	Verbosity         *int
	UserAgent         string
	Proxy             string
	Concurrency       *int
	EnumConcurrency   *int
	ModuleTimeoutSecs *int
	RateLimit         *int
	TelemetryEnabled  *bool
	AdvisoriesURL     string
	PluginsAPIURL     string
	VersionHashesURL  string
}

var cliConfig = newCLIConfig()

func newCLIConfig() *CLIConfig {
	return &CLIConfig{
		Defaults: DefaultValues{
			TimeoutSecs: defaultHTTPTimeoutSeconds,
		},
		Scan: ScanRuntimeConfig{
			Level:             defaultScanLevel,
			Concurrency:       1,
			EnumConcurrency:   defaultEnumConcurrency,
			ModuleTimeoutSecs: defaultModuleTimeoutSeconds,
			TimeoutSecs:       defaultHTTPTimeoutSeconds,
			RateLimit:         defaultRateLimit,
		},
		Sources: SourceConfig{
			RateLimit: defaultRefreshRateLimit,
		},
	}
}

func loadDefaultOverrides() defaultOverrides {
	overrides := defaultOverrides{}

	if viper.IsSet("defaults.timeout_secs") {
		val := viper.GetInt("defaults.timeout_secs")
		overrides.TimeoutSecs = &val
	}

	if viper.IsSet("defaults.level") {
		val := viper.GetInt("defaults.level")
		overrides.Level = &val
	}

	if viper.IsSet("defaults.verbosity") {
		val := viper.GetInt("defaults.verbosity")
		overrides.Verbosity = &val
	}

	if viper.IsSet("defaults.concurrency") {
		val := viper.GetInt("defaults.concurrency")
		overrides.Concurrency = &val
	}

	if viper.IsSet("defaults.enum_concurrency") {
		val := viper.GetInt("defaults.enum_concurrency")
		overrides.EnumConcurrency = &val
	}

	if viper.IsSet("defaults.module_timeout_secs") {
		val := viper.GetInt("defaults.module_timeout_secs")
		overrides.ModuleTimeoutSecs = &val
	}

	if viper.IsSet("defaults.rate_limit") {
		val := viper.GetInt("defaults.rate_limit")
		overrides.RateLimit = &val
	}

	if viper.IsSet("defaults.telemetry") {
		val := viper.GetBool("defaults.telemetry")
		overrides.TelemetryEnabled = &val
	}

	overrides.UserAgent = viper.GetString("defaults.user_agent")
	overrides.Proxy = viper.GetString("defaults.proxy")
	overrides.AdvisoriesURL = viper.GetString("sources.advisories_url")
	overrides.PluginsAPIURL = viper.GetString("sources.plugins_api_url")
	overrides.VersionHashesURL = viper.GetString("sources.version_hashes_url")

	return overrides
}

// applyConfigDefaults merges config file defaults into the runtime config when the user
// did not explicitly override the corresponding flag.
func applyConfigDefaults(cmd *cobra.Command) {
	overrides := loadDefaultOverrides()
	flags := cmd.Flags()

	if overrides.TimeoutSecs != nil {
		applyIntDefault(flags, "timeout", *overrides.TimeoutSecs, func(v int) {
			cliConfig.Defaults.TimeoutSecs = v
			cliConfig.Scan.TimeoutSecs = v
		})
	}

	if overrides.Level != nil {
		applyIntDefault(flags, "level", *overrides.Level, func(v int) {
			cliConfig.Scan.Level = v
		})
	}

	if overrides.Verbosity != nil {
		applyIntDefault(cmd.Root().PersistentFlags(), "verbose", *overrides.Verbosity, func(v int) {
			cliConfig.Defaults.Verbosity = v
		})
	}

	if overrides.Concurrency != nil {
		applyIntDefault(flags, "concurrency", *overrides.Concurrency, func(v int) {
			cliConfig.Scan.Concurrency = v
		})
	}

	if overrides.EnumConcurrency != nil {
		applyIntDefault(flags, "enum-concurrency", *overrides.EnumConcurrency, func(v int) {
			cliConfig.Scan.EnumConcurrency = v
		})
	}

	if overrides.ModuleTimeoutSecs != nil {
		applyIntDefault(flags, "module-timeout", *overrides.ModuleTimeoutSecs, func(v int) {
			cliConfig.Scan.ModuleTimeoutSecs = v
		})
	}

	if overrides.RateLimit != nil {
		applyIntDefault(flags, "rate-limit", *overrides.RateLimit, func(v int) {
			cliConfig.Scan.RateLimit = v
		})
	}

	if overrides.TelemetryEnabled != nil {
		applyBoolDefault(flags, "telemetry", *overrides.TelemetryEnabled, func(v bool) {
			cliConfig.Defaults.TelemetryEnabled = v
			cliConfig.Scan.TelemetryEnabled = v
		})
	}

	if overrides.Proxy != "" {
		setStringFlagIfUnset(flags, "proxy", overrides.Proxy)
	}

	if overrides.UserAgent != "" {
		cliConfig.Scan.UserAgent = overrides.UserAgent
	}
	if overrides.AdvisoriesURL != "" {
		cliConfig.Sources.AdvisoriesURL = overrides.AdvisoriesURL
	}
	if overrides.PluginsAPIURL != "" {
		cliConfig.Sources.PluginsAPIURL = overrides.PluginsAPIURL
	}
	if overrides.VersionHashesURL != "" {
		cliConfig.Sources.VersionHashesURL = overrides.VersionHashesURL
	}
}

func applyIntDefault(flags *pflag.FlagSet, name string, value int, setter func(int)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func applyBoolDefault(flags *pflag.FlagSet, name string, value bool, setter func(bool)) {
	if flags == nil || setter == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag != nil && flag.Changed {
		return
	}
	setter(value)
}

func setStringFlagIfUnset(flags *pflag.FlagSet, name, value string) {
	if flags == nil {
		return
	}
	flag := flags.Lookup(name)
	if flag == nil || flag.Changed {
		return
	}
	_ = flag.Value.Set(value)
}
