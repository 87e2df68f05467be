package edits

import (
	"reflect"
	"testing"

	"github.com/ErikING-Chile/fast-check/pkg/models"
)

func baseResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		Transcript: models.Transcript{
			Segments: []models.Segment{
				{Start: 0.0, End: 5.0, Speaker: "SPEAKER_00", Text: "hello there"},
				{Start: 5.0, End: 10.0, Speaker: "SPEAKER_01", Text: "general remarks"},
				{Start: 10.0, End: 15.0, Speaker: "SPEAKER_00", Text: "more from me"},
			},
		},
		Claims: []models.Claim{
			{ID: "c1", Speaker: "SPEAKER_00", Start: 0.0, End: 5.0, Text: "hello there"},
		},
	}
}

func speakers(result *models.AnalysisResult) []string {
	out := make([]string, len(result.Transcript.Segments))
	for i, seg := range result.Transcript.Segments {
		out[i] = seg.Speaker
	}
	return out
}

func TestMaterializeNoEdits(t *testing.T) {
	base := baseResult()
	got := Materialize(base, nil)
	if !reflect.DeepEqual(got, base) {
		t.Errorf("Materialize with empty log changed the result")
	}
}

func TestMaterializeDoesNotMutateBase(t *testing.T) {
	base := baseResult()
	Materialize(base, []models.Edit{
		{Action: models.EditActionRename, Old: "SPEAKER_00", New: "Alice"},
		{Action: models.EditActionSplit, Time: 7.5},
	})
	if base.Transcript.Segments[0].Speaker != "SPEAKER_00" {
		t.Errorf("base result was mutated: speaker = %s", base.Transcript.Segments[0].Speaker)
	}
	if len(base.Transcript.Segments) != 3 {
		t.Errorf("base result was mutated: %d segments", len(base.Transcript.Segments))
	}
}

func TestMaterializeRename(t *testing.T) {
	got := Materialize(baseResult(), []models.Edit{
		{Action: models.EditActionRename, Old: "SPEAKER_00", New: "Alice"},
	})
	want := []string{"Alice", "SPEAKER_01", "Alice"}
	if !reflect.DeepEqual(speakers(got), want) {
		t.Errorf("speakers = %v, want %v", speakers(got), want)
	}
	// Claims keep their original attribution
	if got.Claims[0].Speaker != "SPEAKER_00" {
		t.Errorf("claim speaker = %s, want SPEAKER_00", got.Claims[0].Speaker)
	}
}

func TestMaterializeRenameChainsCompose(t *testing.T) {
	// A→B then B→C moves originally-A segments to C
	got := Materialize(baseResult(), []models.Edit{
		{Action: models.EditActionRename, Old: "SPEAKER_00", New: "Bob"},
		{Action: models.EditActionRename, Old: "Bob", New: "Carol"},
	})
	want := []string{"Carol", "SPEAKER_01", "Carol"}
	if !reflect.DeepEqual(speakers(got), want) {
		t.Errorf("speakers = %v, want %v", speakers(got), want)
	}

	// Reversed order: B→C fires on nothing, then A→B
	got = Materialize(baseResult(), []models.Edit{
		{Action: models.EditActionRename, Old: "Bob", New: "Carol"},
		{Action: models.EditActionRename, Old: "SPEAKER_00", New: "Bob"},
	})
	want = []string{"Bob", "SPEAKER_01", "Bob"}
	if !reflect.DeepEqual(speakers(got), want) {
		t.Errorf("speakers = %v, want %v", speakers(got), want)
	}
}

func TestMaterializeAssign(t *testing.T) {
	got := Materialize(baseResult(), []models.Edit{
		{Action: models.EditActionAssign, Speaker: "Dana", Start: 5.0, End: 10.0},
	})
	want := []string{"SPEAKER_00", "Dana", "SPEAKER_00"}
	if !reflect.DeepEqual(speakers(got), want) {
		t.Errorf("speakers = %v, want %v", speakers(got), want)
	}
}

func TestMaterializeAssignNoMatchIsNoOp(t *testing.T) {
	// Near-miss coordinates do not match; the edit is silently absorbed
	got := Materialize(baseResult(), []models.Edit{
		{Action: models.EditActionAssign, Speaker: "Dana", Start: 5.001, End: 10.0},
	})
	if !reflect.DeepEqual(got, baseResult()) {
		t.Errorf("no-op assign changed the result")
	}
}

func TestMaterializeLaterEditWins(t *testing.T) {
	// Rename everything to Alice, then reattribute one segment to Bob
	got := Materialize(baseResult(), []models.Edit{
		{Action: models.EditActionRename, Old: "SPEAKER_00", New: "Alice"},
		{Action: models.EditActionAssign, Speaker: "Bob", Start: 0.0, End: 5.0},
	})
	want := []string{"Bob", "SPEAKER_01", "Alice"}
	if !reflect.DeepEqual(speakers(got), want) {
		t.Errorf("speakers = %v, want %v", speakers(got), want)
	}
}

func TestMaterializeSplit(t *testing.T) {
	got := Materialize(baseResult(), []models.Edit{
		{Action: models.EditActionSplit, Time: 2.5, Speaker: "Eve"},
	})
	segs := got.Transcript.Segments
	if len(segs) != 4 {
		t.Fatalf("segments = %d, want 4", len(segs))
	}
	if segs[0].End != 2.5 || segs[0].Speaker != "SPEAKER_00" {
		t.Errorf("first half = %+v", segs[0])
	}
	if segs[1].Start != 2.5 || segs[1].End != 5.0 || segs[1].Speaker != "Eve" {
		t.Errorf("second half = %+v", segs[1])
	}
	if segs[0].Text != segs[1].Text {
		t.Errorf("split halves should keep the same text")
	}
}

func TestMaterializeSplitOnBoundaryIsNoOp(t *testing.T) {
	got := Materialize(baseResult(), []models.Edit{
		{Action: models.EditActionSplit, Time: 5.0},
	})
	if len(got.Transcript.Segments) != 3 {
		t.Errorf("split on a segment boundary changed segment count")
	}
}

func TestMaterializeMerge(t *testing.T) {
	got := Materialize(baseResult(), []models.Edit{
		{Action: models.EditActionMerge, Start: 0.0, End: 10.0},
	})
	segs := got.Transcript.Segments
	if len(segs) != 2 {
		t.Fatalf("segments = %d, want 2", len(segs))
	}
	merged := segs[0]
	if merged.Start != 0.0 || merged.End != 10.0 {
		t.Errorf("merged span = [%v, %v]", merged.Start, merged.End)
	}
	if merged.Speaker != "SPEAKER_00" {
		t.Errorf("merged speaker = %s, want SPEAKER_00", merged.Speaker)
	}
	if merged.Text != "hello there general remarks" {
		t.Errorf("merged text = %q", merged.Text)
	}
}

func TestMaterializeIdempotent(t *testing.T) {
	log := []models.Edit{
		{Action: models.EditActionRename, Old: "SPEAKER_00", New: "Alice"},
		{Action: models.EditActionSplit, Time: 7.0},
		{Action: models.EditActionAssign, Speaker: "Bob", Start: 7.0, End: 10.0},
	}
	first := Materialize(baseResult(), log)
	second := Materialize(baseResult(), log)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated materialization diverged")
	}
}
