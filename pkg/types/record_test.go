package types

import (
	"errors"
	"testing"
)

func TestValidateUnique(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		wantErr error
	}{
		{name: "empty", records: nil},
		{name: "unique", records: []Record{{ID: 1}, {ID: 2}, {ID: 3}}},
		{name: "duplicate", records: []Record{{ID: 1}, {ID: 2}, {ID: 1}}, wantErr: ErrDuplicateID},
		{name: "zero id", records: []Record{{ID: 0}}, wantErr: ErrInvalidID},
		{name: "negative id", records: []Record{{ID: 4}, {ID: -1}}, wantErr: ErrInvalidID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUnique(tt.records)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateUnique() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestIDs(t *testing.T) {
	ids := IDs([]Record{{ID: 3}, {ID: 1}, {ID: 2}})
	want := []int64{3, 1, 2}
	if len(ids) != len(want) {
		t.Fatalf("got %d ids, want %d", len(ids), len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %d, want %d", i, ids[i], want[i])
		}
	}
}
