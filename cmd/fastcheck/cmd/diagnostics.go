package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ErikING-Chile/fast-check/pkg/diagnostics"
)

var diagnosticsCmd = &cobra.Command{
	Use:   "diagnostics",
	Short: "Check service and host readiness",
	Long:  `Fetch the service's diagnostics report: host resources and external tool availability. Falls back to a local probe when the service is unreachable.`,
	RunE:  runDiagnostics,
}

func init() {
	rootCmd.AddCommand(diagnosticsCmd)
}

func runDiagnostics(cmd *cobra.Command, args []string) error {
	report, err := fetchDiagnostics()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service unreachable (%v), probing locally\n", err)
		report = diagnostics.Collect(cmd.Context())
	}

	if outputFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Field", "Value")
	table.Append("OS", fmt.Sprintf("%s/%s", report.OS, report.Arch))
	table.Append("CPU", fmt.Sprintf("%s (%d threads)", report.CPUModel, report.CPUThreads))
	table.Append("CPU Usage", fmt.Sprintf("%.1f%%", report.CPUUsagePct))
	table.Append("Memory", fmt.Sprintf("%.1f%% of %.1f GB used", report.MemUsedPct, float64(report.MemTotalBytes)/(1<<30)))
	table.Append("Disk Free", fmt.Sprintf("%.1f GB", float64(report.DiskFreeBytes)/(1<<30)))
	for _, tool := range report.Tools {
		status := "missing"
		if tool.Available {
			status = tool.Path
		}
		table.Append(tool.Name, status)
	}
	table.Append("Ready", fmt.Sprintf("%t", report.Ready))
	table.Render()
	return nil
}

func fetchDiagnostics() (*diagnostics.Report, error) {
	resp, err := http.Get(serverURL + "/diagnostics")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("diagnostics request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var report diagnostics.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, err
	}
	return &report, nil
}
