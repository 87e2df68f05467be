package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ErikING-Chile/fast-check/pkg/models"
	"github.com/ErikING-Chile/fast-check/pkg/poller"
	"github.com/ErikING-Chile/fast-check/pkg/retry"
)

var (
	// Job submit flags
	videoPath   string
	language    string
	numSpeakers int
	packName    string
	verify      bool
	waitForJob  bool

	// Job status flags
	followStatus bool
)

// jobsCmd represents the jobs command
var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage analysis jobs",
	Long:  `Commands for submitting, listing, and following video analysis jobs.`,
}

var jobsSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a video for analysis",
	Long:  `Submit a video file to the job service for transcription, claim extraction, and optional verification.`,
	RunE:  runJobsSubmit,
}

var jobsStatusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Get job status",
	Long:  `Retrieve the status of a specific job by its ID. If no ID is provided, lists all jobs.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runJobsStatus,
}

var jobsLogsCmd = &cobra.Command{
	Use:   "logs <job-id>",
	Short: "Get logs for a job",
	Long:  `Retrieve the progress log lines recorded while a job ran.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runJobsLogs,
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsSubmitCmd)
	jobsCmd.AddCommand(jobsStatusCmd)
	jobsCmd.AddCommand(jobsLogsCmd)

	jobsSubmitCmd.Flags().StringVar(&videoPath, "video", "", "path to the video file (required)")
	jobsSubmitCmd.Flags().StringVar(&language, "language", "auto", "transcription language code, or auto")
	jobsSubmitCmd.Flags().IntVar(&numSpeakers, "speakers", 0, "expected speaker count (2-4, 0 for auto)")
	jobsSubmitCmd.Flags().StringVar(&packName, "pack", "", "knowledge pack to verify claims against")
	jobsSubmitCmd.Flags().BoolVar(&verify, "verify", false, "verify extracted claims (requires --pack)")
	jobsSubmitCmd.Flags().BoolVar(&waitForJob, "wait", false, "wait for the job to finish")
	jobsSubmitCmd.MarkFlagRequired("video")

	jobsStatusCmd.Flags().BoolVar(&followStatus, "follow", false, "poll job status every 2 seconds until completion")
}

func runJobsSubmit(cmd *cobra.Command, args []string) error {
	req := &models.JobRequest{
		VideoPath: videoPath,
		Language:  language,
		PackName:  packName,
		Verify:    verify,
	}
	if numSpeakers > 0 {
		req.NumSpeakers = &numSpeakers
	}

	client := poller.NewClient(serverURL)

	// Retry submission on transient connection errors; validation errors
	// from the server are final
	var job *models.Job
	var finalErr error
	err := retry.Do(cmd.Context(), retry.DefaultConfig(), func() error {
		j, submitErr := client.SubmitJob(req)
		if submitErr != nil {
			if retry.IsRetryable(submitErr) {
				return submitErr
			}
			finalErr = submitErr
			return nil
		}
		job = j
		return nil
	})
	if err == nil {
		err = finalErr
	}
	if err != nil {
		return fmt.Errorf("failed to submit job: %w", err)
	}

	if outputFormat == "json" {
		return json.NewEncoder(os.Stdout).Encode(job)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Field", "Value")
	table.Append("Job ID", job.ID)
	table.Append("Video", job.VideoPath)
	table.Append("Language", job.Language)
	table.Append("Status", string(job.Status))
	table.Append("Created At", job.CreatedAt.Format(time.RFC3339))
	table.Render()
	fmt.Println("\nJob submitted successfully!")

	if waitForJob {
		return followJob(cmd.Context(), client, job.ID)
	}
	return nil
}

func followJob(ctx context.Context, client *poller.Client, jobID string) error {
	watcher := poller.NewWatcher(client, 2*time.Second)
	lastStep := ""
	final, err := watcher.Watch(ctx, jobID, func(s *models.StatusSnapshot) {
		if s.CurrentStep != lastStep {
			lastStep = s.CurrentStep
			fmt.Printf("[%3.0f%%] %s\n", s.Progress*100, s.CurrentStep)
		}
	})
	if err != nil {
		return err
	}
	if final.Status == models.JobStatusFailed {
		return fmt.Errorf("job failed: %s", final.Error)
	}
	fmt.Println("Job completed")
	return nil
}

func runJobsStatus(cmd *cobra.Command, args []string) error {
	client := poller.NewClient(serverURL)

	if len(args) == 0 {
		return listJobs(client)
	}
	jobID := args[0]

	if followStatus {
		return followJob(cmd.Context(), client, jobID)
	}

	snapshot, err := client.GetStatus(jobID)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		return json.NewEncoder(os.Stdout).Encode(snapshot)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Field", "Value")
	table.Append("Job ID", snapshot.JobID)
	table.Append("Status", string(snapshot.Status))
	table.Append("Progress", fmt.Sprintf("%.0f%%", snapshot.Progress*100))
	table.Append("Step", snapshot.CurrentStep)
	if snapshot.Error != "" {
		table.Append("Error", snapshot.Error)
	}
	table.Render()
	return nil
}

func listJobs(client *poller.Client) error {
	jobs, err := client.ListJobs()
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		return json.NewEncoder(os.Stdout).Encode(jobs)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Job ID", "Status", "Progress", "Video", "Created")
	for _, job := range jobs {
		table.Append(
			job.ID,
			string(job.Status),
			fmt.Sprintf("%.0f%%", job.Progress*100),
			job.VideoPath,
			job.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	table.Render()
	fmt.Printf("\nTotal: %d jobs\n", len(jobs))
	return nil
}

func runJobsLogs(cmd *cobra.Command, args []string) error {
	client := poller.NewClient(serverURL)

	snapshot, err := client.GetStatus(args[0])
	if err != nil {
		return err
	}

	if len(snapshot.Logs) == 0 {
		fmt.Println("No logs available for this job")
		return nil
	}
	fmt.Println(strings.Join(snapshot.Logs, "\n"))
	return nil
}
