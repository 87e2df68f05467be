package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var packsCmd = &cobra.Command{
	Use:   "packs",
	Short: "Manage knowledge packs",
	Long:  `Commands for listing knowledge packs and building their search indexes.`,
}

var packsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available packs",
	RunE:  runPacksList,
}

var packsIndexCmd = &cobra.Command{
	Use:   "index <pack-name>",
	Short: "Build the search index for a pack",
	Args:  cobra.ExactArgs(1),
	RunE:  runPacksIndex,
}

func init() {
	rootCmd.AddCommand(packsCmd)
	packsCmd.AddCommand(packsListCmd)
	packsCmd.AddCommand(packsIndexCmd)
}

func runPacksList(cmd *cobra.Command, args []string) error {
	resp, err := http.Get(serverURL + "/packs")
	if err != nil {
		return fmt.Errorf("failed to list packs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("list request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		Packs []string `json:"packs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("failed to decode packs: %w", err)
	}

	if outputFormat == "json" {
		return json.NewEncoder(os.Stdout).Encode(out.Packs)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Pack")
	for _, name := range out.Packs {
		table.Append(name)
	}
	table.Render()
	fmt.Printf("\nTotal: %d packs\n", len(out.Packs))
	return nil
}

func runPacksIndex(cmd *cobra.Command, args []string) error {
	payload, _ := json.Marshal(map[string]string{"pack": args[0]})
	resp, err := http.Post(serverURL+"/packs/index", "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to index pack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("index request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		Pack   string `json:"pack"`
		Chunks int    `json:"chunks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	fmt.Printf("Pack %s indexed: %d chunks\n", out.Pack, out.Chunks)
	return nil
}
