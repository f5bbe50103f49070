package verify

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
)

// DescriptorLength is the fixed size of a face embedding vector.
const DescriptorLength = 128

// FaceVerifier compares a submitted face descriptor against the one stored
// for the claimed employee.
type FaceVerifier struct {
	directory Directory
	// threshold is the Euclidean-distance decision boundary; lower distance
	// means more similar. Defaults to 0.6 via configuration.
	threshold float64
}

// NewFaceVerifier creates a facial verifier reading descriptors from the
// given directory.
func NewFaceVerifier(directory Directory, threshold float64) *FaceVerifier {
	return &FaceVerifier{directory: directory, threshold: threshold}
}

// Verify fetches the stored descriptor and accepts the claim when the
// Euclidean distance to the submitted template is below the threshold.
func (v *FaceVerifier) Verify(ctx context.Context, claimed uuid.UUID, proof Proof) (Result, error) {
	if len(proof.FaceTemplate) != DescriptorLength {
		return Result{}, ErrInvalidPayload
	}

	emp, err := v.directory.GetEmployee(ctx, claimed)
	if err != nil {
		return Result{}, err
	}

	stored, err := emp.Descriptor()
	if err != nil {
		return Result{}, fmt.Errorf("stored descriptor for employee %s is corrupt: %w", claimed, err)
	}
	if stored == nil {
		return Result{}, ErrNotEnrolled
	}
	if len(stored) != DescriptorLength {
		return Result{}, fmt.Errorf("stored descriptor for employee %s has length %d, want %d", claimed, len(stored), DescriptorLength)
	}

	d := euclideanDistance(stored, proof.FaceTemplate)
	confidence := math.Max(0, 100*(1-d))
	if d >= v.threshold {
		return Result{}, &NotRecognizedError{Confidence: confidence}
	}

	return Result{EmployeeID: claimed, Confidence: confidence}, nil
}

func euclideanDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
