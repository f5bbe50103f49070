package verify

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"hr-attendance-backend/internal/model"
)

// Proof carries the method-specific evidence presented with a check-in.
type Proof struct {
	QRData       string
	FaceTemplate []float64
}

// Result is a successful verification outcome.
type Result struct {
	EmployeeID uuid.UUID
	// Confidence is a 0-100 diagnostic figure, populated by the facial
	// verifier only.
	Confidence float64
}

// Verifier validates that a presented proof belongs to the claimed employee.
type Verifier interface {
	Verify(ctx context.Context, claimed uuid.UUID, proof Proof) (Result, error)
}

// Directory is the employee lookup the facial verifier reads descriptors from.
type Directory interface {
	GetEmployee(ctx context.Context, id uuid.UUID) (*model.Employee, error)
}

var (
	// ErrInvalidPayload means the proof could not be decoded at all.
	ErrInvalidPayload = errors.New("credential payload is not decodable")

	// ErrExpiredCredential means the proof decoded but is no longer fresh.
	ErrExpiredCredential = errors.New("credential has expired")

	// ErrNotEnrolled means the employee has no stored face descriptor.
	ErrNotEnrolled = errors.New("employee has no enrolled face descriptor")
)

// NotRecognizedError reports a facial mismatch together with the confidence
// figure, so the client can tell a near miss from a cold one.
type NotRecognizedError struct {
	Confidence float64
}

func (e *NotRecognizedError) Error() string {
	return fmt.Sprintf("face not recognized (confidence %.1f%%)", e.Confidence)
}
