package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ErikING-Chile/fast-check/pkg/models"
	"github.com/ErikING-Chile/fast-check/pkg/poller"
)

var editsCmd = &cobra.Command{
	Use:   "edits",
	Short: "Correct speaker labels on a completed job",
	Long:  `Commands for appending speaker corrections to a job's edit log and inspecting it. Corrections never modify the stored result; they are applied when the result is read.`,
}

var editsListCmd = &cobra.Command{
	Use:   "list <job-id>",
	Short: "List a job's edit log",
	Args:  cobra.ExactArgs(1),
	RunE:  runEditsList,
}

var editsRenameCmd = &cobra.Command{
	Use:   "rename <job-id> <old-label> <new-label>",
	Short: "Rename a speaker across the whole transcript",
	Args:  cobra.ExactArgs(3),
	RunE:  runEditsRename,
}

var editsAssignCmd = &cobra.Command{
	Use:   "assign <job-id> <speaker> <start> <end>",
	Short: "Assign a speaker to the segment spanning [start, end] seconds",
	Args:  cobra.ExactArgs(4),
	RunE:  runEditsAssign,
}

func init() {
	rootCmd.AddCommand(editsCmd)
	editsCmd.AddCommand(editsListCmd)
	editsCmd.AddCommand(editsRenameCmd)
	editsCmd.AddCommand(editsAssignCmd)
}

func runEditsList(cmd *cobra.Command, args []string) error {
	client := poller.NewClient(serverURL)

	editLog, err := client.ListEdits(args[0])
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		return json.NewEncoder(os.Stdout).Encode(editLog)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Seq", "Action", "Details")
	for _, e := range editLog {
		details := ""
		switch e.Action {
		case models.EditActionRename:
			details = fmt.Sprintf("%s -> %s", e.Old, e.New)
		case models.EditActionAssign:
			details = fmt.Sprintf("%s @ [%.2f, %.2f]", e.Speaker, e.Start, e.End)
		case models.EditActionSplit:
			details = fmt.Sprintf("at %.2f", e.Time)
		case models.EditActionMerge:
			details = fmt.Sprintf("[%.2f, %.2f]", e.Start, e.End)
		}
		table.Append(strconv.Itoa(e.Seq), string(e.Action), details)
	}
	table.Render()
	fmt.Printf("\nTotal: %d edits\n", len(editLog))
	return nil
}

func runEditsRename(cmd *cobra.Command, args []string) error {
	edit := models.Edit{
		Action: models.EditActionRename,
		Old:    args[1],
		New:    args[2],
	}
	return saveOneEdit(args[0], edit)
}

func runEditsAssign(cmd *cobra.Command, args []string) error {
	start, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("invalid start time: %s", args[2])
	}
	end, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return fmt.Errorf("invalid end time: %s", args[3])
	}

	edit := models.Edit{
		Action:  models.EditActionAssign,
		Speaker: args[1],
		Start:   start,
		End:     end,
	}
	return saveOneEdit(args[0], edit)
}

func saveOneEdit(jobID string, edit models.Edit) error {
	client := poller.NewClient(serverURL)

	accepted, total, err := client.SaveEdits(jobID, []models.Edit{edit})
	if err != nil {
		return err
	}
	fmt.Printf("Accepted %d edit(s), log length is now %d\n", accepted, total)
	return nil
}
