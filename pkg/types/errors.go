package types

import "errors"

// Record-related errors
var (
	// ErrDuplicateID is returned when two records share an identifier
	ErrDuplicateID = errors.New("duplicate record ID")

	// ErrInvalidID is returned when a record identifier is not positive
	ErrInvalidID = errors.New("invalid record ID")
)

// ValidateUnique checks that every record has a positive identifier and
// that no identifier repeats.
func ValidateUnique(records []Record) error {
	seen := make(map[int64]struct{}, len(records))
	for _, r := range records {
		if r.ID <= 0 {
			return ErrInvalidID
		}
		if _, dup := seen[r.ID]; dup {
			return ErrDuplicateID
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}
