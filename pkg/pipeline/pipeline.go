// Package pipeline runs the media analysis chain: audio extraction,
// diarization, transcription, speaker merge, claim extraction, and optional
// claim verification against a knowledge pack.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ErikING-Chile/fast-check/pkg/models"
	"github.com/ErikING-Chile/fast-check/pkg/packs"
)

// ProgressFunc reports pipeline progress back to the job record
type ProgressFunc func(fraction float64, step, logLine string)

// Runner executes the analysis for one job and produces the base result
type Runner interface {
	Run(ctx context.Context, job *models.Job, report ProgressFunc) (*models.AnalysisResult, error)
}

// Pipeline is the local Runner implementation
type Pipeline struct {
	WorkDir     string
	Transcriber Transcriber
	Diarizer    Diarizer
	Packs       *packs.Library
}

// New creates a pipeline with default collaborators
func New(workDir string, library *packs.Library) *Pipeline {
	return &Pipeline{
		WorkDir:     workDir,
		Transcriber: DefaultTranscriber(),
		Diarizer:    SingleSpeakerDiarizer{},
		Packs:       library,
	}
}

// Run executes the full chain for one job. The returned result is immutable
// from the caller's point of view: the store keeps its own copy and user
// corrections are layered on top at read time.
func (p *Pipeline) Run(ctx context.Context, job *models.Job, report ProgressFunc) (*models.AnalysisResult, error) {
	info, err := os.Stat(job.VideoPath)
	if err != nil {
		return nil, fmt.Errorf("video file not found: %s", job.VideoPath)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("video file is empty: %s", job.VideoPath)
	}

	jobDir := filepath.Join(p.WorkDir, "jobs", job.ID)
	if err := os.MkdirAll(jobDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create job directory: %w", err)
	}
	audioPath := filepath.Join(jobDir, "audio.wav")

	report(0.1, "extract_audio", "Extracting audio track")
	if err := ExtractAudio(ctx, job.VideoPath, audioPath); err != nil {
		return nil, fmt.Errorf("audio extraction failed: %w", err)
	}

	report(0.3, "diarize", "Detecting speaker turns")
	diarized, err := p.Diarizer.Diarize(ctx, audioPath, job.NumSpeakers)
	if err != nil {
		return nil, fmt.Errorf("diarization failed: %w", err)
	}

	report(0.5, "transcribe", "Transcribing audio")
	transcribed, err := p.Transcriber.Transcribe(ctx, audioPath, job.Language)
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	report(0.75, "merge", "Merging speakers into transcript")
	transcript := models.Transcript{Segments: MergeSpeakers(diarized, transcribed)}

	report(0.85, "claims", "Extracting claims")
	claims := ExtractClaims(transcript)

	var verifications []models.Verification
	if job.Verify && job.PackName != "" {
		report(0.95, "verify", fmt.Sprintf("Verifying %d claims against pack %q", len(claims), job.PackName))
		index, err := p.Packs.Open(job.PackName)
		if err != nil {
			return nil, fmt.Errorf("failed to open pack %q: %w", job.PackName, err)
		}
		verifications = VerifyClaims(claims, index)
	}

	return &models.AnalysisResult{
		Metadata: models.JobMetadata{
			JobID:       job.ID,
			VideoPath:   job.VideoPath,
			Language:    job.Language,
			NumSpeakers: job.NumSpeakers,
			PackName:    job.PackName,
			Verify:      job.Verify,
		},
		Transcript:    transcript,
		Claims:        claims,
		Verifications: verifications,
	}, nil
}
