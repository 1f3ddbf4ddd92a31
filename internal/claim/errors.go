package claim

import (
	"errors"
	"fmt"
)

// Claim errors
var (
	ErrInvalidGeometry     = errors.New("invalid path shape")
	ErrComplexIntersection = errors.New("complex intersection")
)

// ClaimError describes why a claim was rejected. Kind is one of the package
// sentinels; Err is the underlying cause.
type ClaimError struct {
	Kind        error
	TerritoryID string
	Err         error
}

func (e *ClaimError) Error() string {
	if e.TerritoryID != "" {
		return fmt.Sprintf("%v (territory %s): %v", e.Kind, e.TerritoryID, e.Err)
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *ClaimError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
