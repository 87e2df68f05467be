package models

import (
	"fmt"
)

// EditAction discriminates the correction variants accepted on the edit log
type EditAction string

const (
	EditActionRename EditAction = "rename" // relabel every segment currently under Old to New
	EditActionAssign EditAction = "assign" // reattribute the segment at exactly (Start, End) to Speaker
	EditActionSplit  EditAction = "split"  // cut the segment containing Time in two
	EditActionMerge  EditAction = "merge"  // join the segments contained in [Start, End]
)

// Edit is one user-issued correction. Edits are append-only: a mistake is
// fixed by appending a superseding edit, not by rewriting history. Seq is
// assigned by the store on append and orders replay.
type Edit struct {
	Seq    int        `json:"seq,omitempty"`
	Action EditAction `json:"action"`

	// rename
	Old string `json:"old,omitempty"`
	New string `json:"new,omitempty"`

	// assign, merge
	Start float64 `json:"start,omitempty"`
	End   float64 `json:"end,omitempty"`

	// assign, split
	Speaker string `json:"speaker,omitempty"`

	// split
	Time float64 `json:"time,omitempty"`
}

// Validate rejects malformed edits at the boundary so that replay never has
// to branch on unknown shapes. Validity against the base transcript is not
// checked here; a stale edit is absorbed as a no-op during materialization.
func (e Edit) Validate() error {
	switch e.Action {
	case EditActionRename:
		if e.Old == "" || e.New == "" {
			return fmt.Errorf("rename edit requires old and new speaker labels")
		}
	case EditActionAssign:
		if e.Speaker == "" {
			return fmt.Errorf("assign edit requires a speaker label")
		}
		if e.End <= e.Start {
			return fmt.Errorf("assign edit requires start < end, got [%v, %v]", e.Start, e.End)
		}
	case EditActionSplit:
		if e.Time <= 0 {
			return fmt.Errorf("split edit requires a positive split time")
		}
	case EditActionMerge:
		if e.End <= e.Start {
			return fmt.Errorf("merge edit requires start < end, got [%v, %v]", e.Start, e.End)
		}
	case "":
		return fmt.Errorf("edit is missing an action")
	default:
		return fmt.Errorf("unknown edit action: %s", e.Action)
	}
	return nil
}
