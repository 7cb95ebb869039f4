package cmd

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/khanhnv2901/moodscan/internal/domain/catalog"
	"github.com/khanhnv2901/moodscan/internal/domain/scan"
	"github.com/khanhnv2901/moodscan/internal/domain/vulnerability"
	consts "github.com/khanhnv2901/moodscan/internal/shared/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

const (
	htmlTemplatePath     = "templates/report.html"
	markdownTemplatePath = "templates/report.md"
	jsonPrefix           = ""
	jsonIndent           = "  "
)

//go:embed templates/report.html templates/report.md
var reportTemplateFS embed.FS

var (
	templateFuncs = map[string]any{
		"add":            addInts,
		"join":           strings.Join,
		"riskBadgeClass": riskBadgeClass,
	}

	markdownReportTemplate = template.Must(template.New("report.md").Funcs(templateFuncs).ParseFS(reportTemplateFS, markdownTemplatePath))
	htmlReportTemplate     = htmltemplate.Must(htmltemplate.New("report.html").Funcs(templateFuncs).ParseFS(reportTemplateFS, htmlTemplatePath))
)

// TemplateData holds the data for HTML/Markdown template rendering.
type TemplateData struct {
	Result      scan.Result
	GeneratedAt string
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render saved scan results and telemetry",
}

var reportGenerateCmd = &cobra.Command{
	Use:   "generate <result.json>",
	Short: "Render a scan result written with scan --output",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)
		if appCtx == nil || appCtx.Services == nil {
			return errors.New("application context not initialized")
		}

		format, _ := cmd.Flags().GetString("format")
		outputPath, _ := cmd.Flags().GetString("output")

		format = strings.ToLower(strings.TrimSpace(format))
		if format != "table" && format != "md" && format != "html" && format != "json" {
			return &UsageError{Flag: "format", Reason: fmt.Sprintf("%q is not one of table, md, html, json", format)}
		}

		result, err := appCtx.Services.ResultWriter.Read(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		data := TemplateData{Result: result, GeneratedAt: time.Now().UTC().Format(time.RFC3339)}
		switch format {
		case "table":
			renderResultTables(&buf, result)
		case "md":
			err = markdownReportTemplate.Execute(&buf, data)
		case "html":
			err = htmlReportTemplate.Execute(&buf, data)
		case "json":
			var payload []byte
			payload, err = json.MarshalIndent(result, jsonPrefix, jsonIndent)
			buf.Write(append(payload, '\n'))
		}
		if err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}

		if outputPath == "" {
			_, err := cmd.OutOrStdout().Write(buf.Bytes())
			return err
		}
		if err := os.WriteFile(filepath.Clean(outputPath), buf.Bytes(), consts.DefaultFilePerm); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		printSuccess(fmt.Sprintf("Report generated: %s (%s)", outputPath, format))
		return nil
	},
}

var reportTelemetryCmd = &cobra.Command{
	Use:   "telemetry",
	Short: "Show recorded scan telemetry",
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)
		if appCtx == nil {
			return errors.New("application context not initialized")
		}

		format, _ := cmd.Flags().GetString("format")
		limit, _ := cmd.Flags().GetInt("limit")

		history, err := loadTelemetryHistory(appCtx.DataDir, limit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(history) == 0 {
			fmt.Fprintf(out, "%s telemetry records found in %s\n", colorWarn("No"), appCtx.DataDir)
			return nil
		}

		switch strings.ToLower(format) {
		case "json":
			payload, err := json.MarshalIndent(history, jsonPrefix, jsonIndent)
			if err != nil {
				return fmt.Errorf("marshal telemetry: %w", err)
			}
			fmt.Fprintln(out, string(payload))
		case "table":
			printTelemetryTable(out, history)
		default:
			return &UsageError{Flag: "format", Reason: fmt.Sprintf("%q is not one of table, json", format)}
		}
		return nil
	},
}

func init() {
	reportGenerateCmd.Flags().String("format", "table", "Output format: table|md|html|json")
	reportGenerateCmd.Flags().StringP("output", "o", "", "Write the report to this file instead of stdout")
	reportTelemetryCmd.Flags().String("format", "table", "Output format: table|json")
	reportTelemetryCmd.Flags().Int("limit", 10, "Number of recent scans to display")
	reportCmd.AddCommand(reportGenerateCmd)
	reportCmd.AddCommand(reportTelemetryCmd)
}

// renderScanReport prints the findings of a finished scan, including the outcome
// of every module that ran.
func renderScanReport(out io.Writer, s *scan.Scan) {
	result := s.Result()
	printVersionLine(out, result.Version)
	printPluginTable(out, result.Plugins)
	printOfficialTable(out, result.Official)

	outcomes := s.Community()
	if len(outcomes) == 0 {
		fmt.Fprintln(out, colorWarn("No check modules ran."))
		return
	}
	fmt.Fprintf(out, "\n%s\n", colorInfo("Check modules"))
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Module", "Status", "Exploited", "Duration", "Details"})
	table.SetAutoWrapText(false)
	for _, o := range outcomes {
		details := o.Error
		if o.ExploitError != "" {
			details = "exploit: " + o.ExploitError
		}
		exploited := "-"
		if o.Exploited {
			exploited = "yes"
		}
		table.Append([]string{
			o.Name,
			formatStatusWithColor(outcomeStatus(o)),
			exploited,
			o.Duration.Round(time.Millisecond).String(),
			details,
		})
	}
	table.Render()
}

// renderResultTables prints a persisted result, which only names the vulnerable modules.
func renderResultTables(out io.Writer, result scan.Result) {
	fmt.Fprintf(out, "%s %s\n", colorInfo("Target:"), result.URL)
	printVersionLine(out, result.Version)
	printPluginTable(out, result.Plugins)
	printOfficialTable(out, result.Official)

	if len(result.Community) == 0 {
		fmt.Fprintf(out, "\n%s\n", colorSuccess("No check module reported the target vulnerable."))
		return
	}
	fmt.Fprintf(out, "\n%s\n", colorError("Community findings"))
	for _, name := range result.Community {
		fmt.Fprintf(out, "  - %s\n", name)
	}
}

func printVersionLine(out io.Writer, version string) {
	if version == "" {
		version = "unknown"
	}
	fmt.Fprintf(out, "%s %s\n", colorInfo("Version:"), version)
}

func printPluginTable(out io.Writer, plugins []catalog.Plugin) {
	if len(plugins) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s (%d)\n", colorInfo("Plugins and themes"), len(plugins))
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Kind", "Name", "Path"})
	table.SetAutoWrapText(false)
	for _, p := range plugins {
		table.Append([]string{p.Kind(), p.Name, p.Path})
	}
	table.Render()
}

func printOfficialTable(out io.Writer, records []vulnerability.Record) {
	if len(records) == 0 {
		fmt.Fprintf(out, "\n%s\n", colorSuccess("No official advisory matches this version."))
		return
	}
	fmt.Fprintf(out, "\n%s (%d)\n", colorError("Official vulnerabilities"), len(records))
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"#", "Title", "CVEs", "Versions affected", "Link"})
	table.SetRowLine(true)
	for i, r := range records {
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			r.Title,
			strings.Join(r.CVEs, ", "),
			r.VersionsAffected,
			r.Link,
		})
	}
	table.Render()
}

func printTelemetryTable(out io.Writer, records []telemetryRecord) {
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Time", "Target", "State", "Level", "Plugins", "Official", "Vulnerable", "Faults", "Duration"})
	for _, rec := range records {
		table.Append([]string{
			rec.Timestamp.Format("2006-01-02 15:04"),
			rec.Target,
			formatStatusWithColor(rec.State),
			fmt.Sprintf("%d", rec.Level),
			fmt.Sprintf("%d", rec.PluginsFound),
			fmt.Sprintf("%d", rec.OfficialFindings),
			fmt.Sprintf("%d/%d", rec.VulnerableCount, rec.ModuleCount),
			fmt.Sprintf("%d", rec.FaultCount),
			fmt.Sprintf("%.1fs", rec.DurationSeconds),
		})
	}
	table.Render()
}

func addInts(a, b int) int {
	return a + b
}

func riskBadgeClass(findings int) string {
	if findings > 0 {
		return "badge-high"
	}
	return "badge-ok"
}
