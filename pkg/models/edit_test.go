package models

import (
	"testing"
)

func TestEditValidate(t *testing.T) {
	tests := []struct {
		name    string
		edit    Edit
		wantErr bool
	}{
		{"valid rename", Edit{Action: EditActionRename, Old: "SPEAKER_00", New: "Alice"}, false},
		{"rename missing old", Edit{Action: EditActionRename, New: "Alice"}, true},
		{"rename missing new", Edit{Action: EditActionRename, Old: "SPEAKER_00"}, true},

		{"valid assign", Edit{Action: EditActionAssign, Speaker: "Bob", Start: 1.5, End: 3.25}, false},
		{"assign missing speaker", Edit{Action: EditActionAssign, Start: 1.5, End: 3.25}, true},
		{"assign start equals end", Edit{Action: EditActionAssign, Speaker: "Bob", Start: 2.0, End: 2.0}, true},
		{"assign inverted range", Edit{Action: EditActionAssign, Speaker: "Bob", Start: 3.0, End: 1.0}, true},

		{"valid split", Edit{Action: EditActionSplit, Time: 4.5}, false},
		{"split with speaker", Edit{Action: EditActionSplit, Time: 4.5, Speaker: "Carol"}, false},
		{"split at zero", Edit{Action: EditActionSplit, Time: 0}, true},

		{"valid merge", Edit{Action: EditActionMerge, Start: 0, End: 10}, false},
		{"merge empty range", Edit{Action: EditActionMerge, Start: 5, End: 5}, true},

		{"missing action", Edit{}, true},
		{"unknown action", Edit{Action: "delete"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.edit.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
