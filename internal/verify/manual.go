package verify

import (
	"context"

	"github.com/google/uuid"
)

// ManualVerifier accepts the caller's transport-level identity as proof.
// There is no additional cryptographic check; the caller-may-act-for-this-
// employee rule is enforced by the session machine's authorization step,
// identically for every method.
type ManualVerifier struct{}

// NewManualVerifier creates a manual verifier.
func NewManualVerifier() *ManualVerifier {
	return &ManualVerifier{}
}

// Verify returns the claimed employee unchanged.
func (v *ManualVerifier) Verify(_ context.Context, claimed uuid.UUID, _ Proof) (Result, error) {
	return Result{EmployeeID: claimed}, nil
}
