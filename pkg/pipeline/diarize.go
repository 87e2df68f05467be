package pipeline

import (
	"context"

	"github.com/ErikING-Chile/fast-check/pkg/models"
)

// Diarizer produces speaker turns (segments with empty text) for an audio
// file. A proper implementation wraps an external diarization toolchain;
// the default covers the common single-voice case.
type Diarizer interface {
	Diarize(ctx context.Context, audioPath string, numSpeakers *int) ([]models.Segment, error)
}

// SingleSpeakerDiarizer attributes the whole recording to SPEAKER_00. Wrong
// labels are exactly what the edit log exists to correct.
type SingleSpeakerDiarizer struct{}

// Diarize returns one full-duration turn
func (SingleSpeakerDiarizer) Diarize(ctx context.Context, audioPath string, numSpeakers *int) ([]models.Segment, error) {
	duration, err := AudioDuration(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	return []models.Segment{{Start: 0.0, End: duration, Speaker: "SPEAKER_00"}}, nil
}
