package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/khanhnv2901/moodscan/internal/domain/snapshot"
	sharedErrors "github.com/khanhnv2901/moodscan/internal/shared/errors"
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Refresh the vulnerability database and the plugin catalog",
	Long: `Download the official security advisories and the plugin directory listing and
replace the local copies. The previous copy of each file is kept with an .old
suffix. The plugin catalog is not refreshed when the vulnerability database
update fails.`,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().Bool("vulndb-only", false, "only refresh the vulnerability database")
	updateCmd.Flags().Bool("plugins-only", false, "only refresh the plugin catalog")
	updateCmd.MarkFlagsMutuallyExclusive("vulndb-only", "plugins-only")
}

func runUpdate(cmd *cobra.Command, args []string) error {
	appCtx := getAppContext(cmd)
	if appCtx == nil || appCtx.Services == nil {
		return errors.New("application context not initialized")
	}
	vulndbOnly, _ := cmd.Flags().GetBool("vulndb-only")
	pluginsOnly, _ := cmd.Flags().GetBool("plugins-only")

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	svc := appCtx.Services.RefreshService

	if !pluginsOnly {
		printStatus("Updating vulnerability database")
		change, err := svc.RefreshCorpus(ctx, pageProgress(out, "Advisories"))
		fmt.Fprintln(out)
		if err != nil {
			return explainRefreshError(err)
		}
		reportChange("Vulnerability database", change)
	}

	if !vulndbOnly {
		printStatus("Updating plugin catalog")
		change, err := svc.RefreshCatalog(ctx, pageProgress(out, "Plugins"))
		fmt.Fprintln(out)
		if err != nil {
			return explainRefreshError(err)
		}
		reportChange("Plugin catalog", change)
	}

	return nil
}

// pageProgress prints download progress on a single line.
func pageProgress(out io.Writer, name string) snapshot.ProgressFunc {
	return func(step, total int) {
		if total > 0 {
			fmt.Fprintf(out, "\r[%s] page %d/%d", name, step, total)
			return
		}
		fmt.Fprintf(out, "\r[%s] batch %d", name, step)
	}
}

func explainRefreshError(err error) error {
	var integrity *sharedErrors.CorpusIntegrityError
	if errors.As(err, &integrity) {
		printWarning(fmt.Sprintf("The new %s is smaller than the previous one; the source may have changed its layout.", integrity.Name))
		printWarning(fmt.Sprintf("Restore %s if the new data looks wrong.", integrity.Backup))
	}
	return err
}

func reportChange(label string, change snapshot.Change) {
	if change.Unchanged {
		printSuccess(fmt.Sprintf("%s already up to date (%d entries)", label, change.After))
		return
	}
	msg := fmt.Sprintf("%s updated: %d entries (%+d)", label, change.After, change.Added())
	if change.Backup != "" {
		msg += fmt.Sprintf(", previous copy in %s", change.Backup)
	}
	printSuccess(msg)
}
