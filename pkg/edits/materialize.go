// Package edits layers user corrections on top of an immutable analysis
// result. The base result and the edit log are never mutated; every call
// produces a fresh, fully detached view.
package edits

import (
	"strings"

	"github.com/ErikING-Chile/fast-check/pkg/models"
)

// Materialize applies the edit log to the base result strictly in arrival
// order and returns the effective view. Later edits override earlier ones
// whenever they address the same segment, which is why the order must be
// preserved. A stale or unmatched edit is a silent no-op: one bad edit must
// never block rendering the rest of the result.
//
// Edits target transcript segments only; claim speaker labels are carried
// through unchanged.
func Materialize(base *models.AnalysisResult, log []models.Edit) *models.AnalysisResult {
	out := base.Clone()
	segments := out.Transcript.Segments
	for _, edit := range log {
		switch edit.Action {
		case models.EditActionRename:
			segments = applyRename(segments, edit)
		case models.EditActionAssign:
			segments = applyAssign(segments, edit)
		case models.EditActionSplit:
			segments = applySplit(segments, edit)
		case models.EditActionMerge:
			segments = applyMerge(segments, edit)
		}
	}
	out.Transcript.Segments = segments
	return out
}

// applyRename relabels every segment whose current label equals edit.Old.
// Matching against the current label, not the base label, makes rename
// chains compose: A→B then B→C leaves originally-A segments at C.
func applyRename(segments []models.Segment, edit models.Edit) []models.Segment {
	for i := range segments {
		if segments[i].Speaker == edit.Old {
			segments[i].Speaker = edit.New
		}
	}
	return segments
}

// applyAssign reattributes the segment identified by its exact (start, end)
// pair. The coordinates are echoed verbatim from the rendered transcript, so
// exact float64 equality is the match criterion.
func applyAssign(segments []models.Segment, edit models.Edit) []models.Segment {
	for i := range segments {
		if segments[i].Start == edit.Start && segments[i].End == edit.End {
			segments[i].Speaker = edit.Speaker
		}
	}
	return segments
}

// applySplit cuts the segment strictly containing edit.Time in two. The
// second half takes edit.Speaker when given, otherwise keeps the original
// label. Both halves keep the full text.
func applySplit(segments []models.Segment, edit models.Edit) []models.Segment {
	out := make([]models.Segment, 0, len(segments)+1)
	for _, seg := range segments {
		if seg.Start < edit.Time && edit.Time < seg.End {
			second := seg
			second.Start = edit.Time
			if edit.Speaker != "" {
				second.Speaker = edit.Speaker
			}
			seg.End = edit.Time
			out = append(out, seg, second)
			continue
		}
		out = append(out, seg)
	}
	return out
}

// applyMerge joins each contiguous run of segments fully contained in
// [edit.Start, edit.End] into one segment carrying the run's first speaker
// and the concatenated text.
func applyMerge(segments []models.Segment, edit models.Edit) []models.Segment {
	out := make([]models.Segment, 0, len(segments))
	var buffer []models.Segment
	flush := func() {
		if len(buffer) > 0 {
			out = append(out, mergeRun(buffer))
			buffer = nil
		}
	}
	for _, seg := range segments {
		if seg.Start >= edit.Start && seg.End <= edit.End {
			buffer = append(buffer, seg)
			continue
		}
		flush()
		out = append(out, seg)
	}
	flush()
	return out
}

func mergeRun(run []models.Segment) models.Segment {
	texts := make([]string, len(run))
	for i, seg := range run {
		texts[i] = seg.Text
	}
	return models.Segment{
		Start:   run[0].Start,
		End:     run[len(run)-1].End,
		Speaker: run[0].Speaker,
		Text:    strings.Join(texts, " "),
	}
}
