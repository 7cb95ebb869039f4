package cmd

import (
	"errors"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "Inspect check modules",
}

var modulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List discovered check modules",
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)
		if appCtx == nil || appCtx.Services == nil {
			return errors.New("application context not initialized")
		}

		modules, errs := appCtx.Services.Registry.Discover()
		out := cmd.OutOrStdout()

		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"#", "Module", "Enabled"})
		for i, m := range modules {
			enabled := formatStatusWithColor("disabled")
			if m.Enabled() {
				enabled = formatStatusWithColor("ok")
			}
			table.Append([]string{fmt.Sprintf("%d", i+1), m.Name(), enabled})
		}
		table.Render()

		fmt.Fprintf(out, "Module definitions are read from %s\n", appCtx.Services.ModulesDir)
		for _, err := range errs {
			printWarning(err.Error())
		}
		return nil
	},
}

func init() {
	modulesCmd.AddCommand(modulesListCmd)
}
