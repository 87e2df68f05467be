package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ErikING-Chile/fast-check/pkg/poller"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export <job-id> <format>",
	Short: "Export a job's result",
	Long:  `Download the edits-applied result in one of: json, csv, srt, vtt.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "out", "o", "", "output file (default stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	client := poller.NewClient(serverURL)

	out := os.Stdout
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := client.Export(args[0], args[1], out); err != nil {
		return err
	}
	if exportOutput != "" {
		fmt.Printf("Exported to %s\n", exportOutput)
	}
	return nil
}
