package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/ErikING-Chile/fast-check/pkg/models"
)

// Transcriber is a pluggable transcription backend
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) ([]models.Segment, error)
}

// DefaultTranscriber returns the command-backed transcriber when the helper
// is installed, otherwise a placeholder that keeps the pipeline runnable.
func DefaultTranscriber() Transcriber {
	if _, err := exec.LookPath("fastcheck-transcribe"); err == nil {
		return &CommandTranscriber{Command: "fastcheck-transcribe"}
	}
	return PlaceholderTranscriber{}
}

// CommandTranscriber shells out to an ASR helper (a faster-whisper wrapper)
// that prints JSON segments on stdout.
type CommandTranscriber struct {
	Command string
	Model   string
}

type transcribeOutput struct {
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe runs the helper and parses its segment output
func (t *CommandTranscriber) Transcribe(ctx context.Context, audioPath, language string) ([]models.Segment, error) {
	model := t.Model
	if model == "" {
		model = "small"
	}
	args := []string{"--audio", audioPath, "--model", model}
	if language != "" && language != "auto" {
		args = append(args, "--language", language)
	}

	cmd := exec.CommandContext(ctx, t.Command, args...)
	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("%s failed: %s", t.Command, strings.TrimSpace(string(ee.Stderr)))
		}
		return nil, fmt.Errorf("%s failed: %w", t.Command, err)
	}

	var parsed transcribeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse %s output: %w", t.Command, err)
	}

	segments := make([]models.Segment, 0, len(parsed.Segments))
	for _, seg := range parsed.Segments {
		segments = append(segments, models.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  strings.TrimSpace(seg.Text),
		})
	}
	return segments, nil
}

// PlaceholderTranscriber produces a single unavailable-marker segment spanning
// the whole audio, so a machine without an ASR backend still yields a result.
type PlaceholderTranscriber struct{}

// Transcribe returns the placeholder segment
func (PlaceholderTranscriber) Transcribe(ctx context.Context, audioPath, language string) ([]models.Segment, error) {
	duration, err := AudioDuration(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	return []models.Segment{{
		Start: 0.0,
		End:   duration,
		Text:  "[transcription unavailable - install fastcheck-transcribe]",
	}}, nil
}
