package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
	colorStatus  = color.New(color.FgBlue, color.Bold).SprintFunc()
)

func formatStatusWithColor(status string) string {
	switch strings.ToLower(status) {
	case "ok", "success", "pass", "found", "done":
		return colorSuccess(status)
	case "error", "fail", "failed", "vulnerable":
		return colorError(status)
	case "timed_out", "skipped", "disabled":
		return colorWarn(status)
	default:
		return status
	}
}

func printStatus(msg string) {
	fmt.Fprintf(color.Output, "%s %s\n", colorStatus("[*]"), msg)
}

func printSuccess(msg string) {
	fmt.Fprintf(color.Output, "%s %s\n", colorSuccess("[+]"), msg)
}

func printInfo(msg string) {
	fmt.Fprintf(color.Output, "%s %s\n", colorInfo("[i]"), msg)
}

func printWarning(msg string) {
	fmt.Fprintf(color.Error, "%s %s\n", colorWarn("[!]"), msg)
}

func printError(msg string) {
	fmt.Fprintf(color.Error, "%s %s\n", colorError("[-]"), msg)
}
