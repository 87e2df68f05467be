// Package poller provides the HTTP client for the job service and a watcher
// that follows one job to a terminal state.
package poller

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ErikING-Chile/fast-check/pkg/models"
)

// ErrJobNotFound is returned when the service has no job under the given id
var ErrJobNotFound = errors.New("job not found")

// Client manages communication with the job service
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new job service client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SubmitJob submits a video for analysis
func (c *Client) SubmitJob(req *models.JobRequest) (*models.Job, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequest("POST", c.baseURL+"/jobs", bytes.NewBuffer(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to submit job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("submission failed with status %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		JobID string      `json:"job_id"`
		Job   *models.Job `json:"job"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode job: %w", err)
	}
	if out.Job == nil {
		return nil, fmt.Errorf("submission response missing job record for id %q", out.JobID)
	}
	return out.Job, nil
}

// ListJobs fetches all jobs known to the service
func (c *Client) ListJobs() ([]*models.Job, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/jobs")
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("list request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		Jobs []*models.Job `json:"jobs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode jobs: %w", err)
	}
	return out.Jobs, nil
}

// GetStatus fetches the poll view of one job
func (c *Client) GetStatus(jobID string) (*models.StatusSnapshot, error) {
	resp, err := c.httpClient.Get(fmt.Sprintf("%s/jobs/%s", c.baseURL, jobID))
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("job %s: %w", jobID, ErrJobNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var snapshot models.StatusSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode status: %w", err)
	}
	return &snapshot, nil
}

// GetResult fetches a job's analysis result. With applyEdits set, corrections
// from the edit log are layered over the base result.
func (c *Client) GetResult(jobID string, applyEdits bool) (*models.AnalysisResult, error) {
	url := fmt.Sprintf("%s/jobs/%s/result?apply_edits=%t", c.baseURL, jobID, applyEdits)
	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("result request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result models.AnalysisResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode result: %w", err)
	}
	return &result, nil
}

// SaveEdits appends a batch of edits to a completed job
func (c *Client) SaveEdits(jobID string, edits []models.Edit) (accepted, total int, err error) {
	payload := map[string]interface{}{"edits": edits}
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to marshal edits: %w", err)
	}

	httpReq, err := http.NewRequest("PATCH", fmt.Sprintf("%s/jobs/%s/edits", c.baseURL, jobID), bytes.NewBuffer(data))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to save edits: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, 0, fmt.Errorf("save edits failed with status %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		Accepted int `json:"accepted"`
		Total    int `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, 0, fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Accepted, out.Total, nil
}

// ListEdits fetches a job's edit log in append order
func (c *Client) ListEdits(jobID string) ([]models.Edit, error) {
	resp, err := c.httpClient.Get(fmt.Sprintf("%s/jobs/%s/edits", c.baseURL, jobID))
	if err != nil {
		return nil, fmt.Errorf("failed to list edits: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("edits request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var out struct {
		Edits []models.Edit `json:"edits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode edits: %w", err)
	}
	return out.Edits, nil
}

// Export downloads the edits-applied result in the given format
func (c *Client) Export(jobID, format string, w io.Writer) error {
	resp, err := c.httpClient.Get(fmt.Sprintf("%s/jobs/%s/export/%s", c.baseURL, jobID, format))
	if err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("export failed with status %d: %s", resp.StatusCode, string(body))
	}

	_, err = io.Copy(w, resp.Body)
	return err
}
