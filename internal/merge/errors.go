package merge

import (
	"errors"
	"fmt"
)

// ErrUnsupportedSchemaPair reports that two documents cannot be merged
// through either the same-schema or the canonical path.
var ErrUnsupportedSchemaPair = errors.New("unsupported schema pair")

// MergeError describes a failed merge of Primary and Secondary.
type MergeError struct {
	Primary   string
	Secondary string
	Err       error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("merge %s with %s: %v", e.Primary, e.Secondary, e.Err)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}
