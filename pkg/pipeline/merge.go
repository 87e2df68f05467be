package pipeline

import (
	"github.com/ErikING-Chile/fast-check/pkg/models"
)

// MergeSpeakers attributes each transcribed segment to the diarized speaker
// turn it overlaps the most. With no diarization output, everything falls
// back to SPEAKER_00.
func MergeSpeakers(diarized, transcribed []models.Segment) []models.Segment {
	merged := make([]models.Segment, 0, len(transcribed))

	if len(diarized) == 0 {
		for _, seg := range transcribed {
			seg.Speaker = "SPEAKER_00"
			merged = append(merged, seg)
		}
		return merged
	}

	for _, seg := range transcribed {
		bestSpeaker := diarized[0].Speaker
		bestOverlap := 0.0
		for _, turn := range diarized {
			if o := overlap(seg.Start, seg.End, turn.Start, turn.End); o > bestOverlap {
				bestOverlap = o
				bestSpeaker = turn.Speaker
			}
		}
		seg.Speaker = bestSpeaker
		merged = append(merged, seg)
	}
	return merged
}

func overlap(aStart, aEnd, bStart, bEnd float64) float64 {
	lo := aStart
	if bStart > lo {
		lo = bStart
	}
	hi := aEnd
	if bEnd < hi {
		hi = bEnd
	}
	if hi < lo {
		return 0.0
	}
	return hi - lo
}
