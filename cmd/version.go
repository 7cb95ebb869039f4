package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/khanhnv2901/moodscan/internal/checker"
	"github.com/spf13/cobra"
)

// Injected at build time via -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const shortCommitLen = 12

// buildInfo describes the running binary. Commit and date fall back to the VCS
// stamp the Go toolchain embeds when ldflags did not set them.
type buildInfo struct {
	Version   string
	Commit    string
	Date      string
	Dirty     bool
	GoVersion string
	Platform  string
	ModuleAPI int
}

func currentBuildInfo() buildInfo {
	info := buildInfo{
		Version:   Version,
		Commit:    GitCommit,
		Date:      BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		ModuleAPI: checker.ModuleAPIVersion,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "unknown" {
				info.Commit = s.Value
				if len(info.Commit) > shortCommitLen {
					info.Commit = info.Commit[:shortCommitLen]
				}
			}
		case "vcs.time":
			if info.Date == "unknown" {
				info.Date = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	return info
}

// Summary is the one-line form used by info.
func (b buildInfo) Summary() string {
	if b.Commit == "unknown" {
		return b.Version
	}
	s := fmt.Sprintf("%s (%s", b.Version, b.Commit)
	if b.Dirty {
		s += ", modified"
	}
	return s + ")"
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Display the moodscan release, the commit it was built from and the external module API it accepts",
	Run: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		out := cmd.OutOrStdout()
		if !verbose {
			fmt.Fprintf(out, "moodscan version %s\n", Version)
			return
		}

		info := currentBuildInfo()
		fmt.Fprintf(out, "moodscan %s\n", info.Summary())
		fmt.Fprintf(out, "  Build Date:  %s\n", info.Date)
		fmt.Fprintf(out, "  Go Version:  %s\n", info.GoVersion)
		fmt.Fprintf(out, "  OS/Arch:     %s\n", info.Platform)
		fmt.Fprintf(out, "  Module API:  v%d\n", info.ModuleAPI)
	},
}

func init() {
	versionCmd.Flags().BoolP("verbose", "v", false, "Show build details")
}
