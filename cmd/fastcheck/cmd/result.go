package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ErikING-Chile/fast-check/pkg/poller"
)

var rawResult bool

var resultCmd = &cobra.Command{
	Use:   "result <job-id>",
	Short: "Get the analysis result for a completed job",
	Long:  `Fetch a job's analysis result. Speaker corrections are applied unless --raw is given.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runResult,
}

func init() {
	rootCmd.AddCommand(resultCmd)
	resultCmd.Flags().BoolVar(&rawResult, "raw", false, "return the base result without applying edits")
}

func runResult(cmd *cobra.Command, args []string) error {
	client := poller.NewClient(serverURL)

	result, err := client.GetResult(args[0], !rawResult)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Start", "End", "Speaker", "Text")
	for _, seg := range result.Transcript.Segments {
		table.Append(
			fmt.Sprintf("%.1fs", seg.Start),
			fmt.Sprintf("%.1fs", seg.End),
			seg.Speaker,
			seg.Text,
		)
	}
	table.Render()

	fmt.Printf("\nClaims: %d", len(result.Claims))
	if len(result.Verifications) > 0 {
		fmt.Printf(", verified: %d", len(result.Verifications))
	}
	fmt.Println()
	return nil
}
