package verify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hr-attendance-backend/internal/model"
	"hr-attendance-backend/internal/store"
)

// stubDirectory serves a single employee from memory.
type stubDirectory struct {
	employee *model.Employee
}

func (d *stubDirectory) GetEmployee(_ context.Context, id uuid.UUID) (*model.Employee, error) {
	if d.employee == nil || d.employee.ID != id {
		return nil, store.ErrNotFound
	}
	return d.employee, nil
}

func enrolledEmployee(t *testing.T, vec []float64) *model.Employee {
	t.Helper()
	raw, err := json.Marshal(vec)
	require.NoError(t, err)
	return &model.Employee{ID: uuid.New(), FaceDescriptor: raw}
}

func descriptorAt(offset float64) []float64 {
	vec := make([]float64, DescriptorLength)
	vec[0] = offset
	return vec
}

func TestFaceVerify_IdenticalVectors(t *testing.T) {
	emp := enrolledEmployee(t, descriptorAt(0))
	v := NewFaceVerifier(&stubDirectory{employee: emp}, 0.6)

	res, err := v.Verify(context.Background(), emp.ID, Proof{FaceTemplate: descriptorAt(0)})
	require.NoError(t, err)
	assert.Equal(t, emp.ID, res.EmployeeID)
	assert.InDelta(t, 100.0, res.Confidence, 0.0001)
}

func TestFaceVerify_NearMatch(t *testing.T) {
	emp := enrolledEmployee(t, descriptorAt(0))
	v := NewFaceVerifier(&stubDirectory{employee: emp}, 0.6)

	// Distance 0.4 is under the threshold; confidence is 60%.
	res, err := v.Verify(context.Background(), emp.ID, Proof{FaceTemplate: descriptorAt(0.4)})
	require.NoError(t, err)
	assert.InDelta(t, 60.0, res.Confidence, 0.0001)
}

func TestFaceVerify_NotRecognized(t *testing.T) {
	emp := enrolledEmployee(t, descriptorAt(0))
	v := NewFaceVerifier(&stubDirectory{employee: emp}, 0.6)

	// Distance 0.65 fails with confidence 35%.
	_, err := v.Verify(context.Background(), emp.ID, Proof{FaceTemplate: descriptorAt(0.65)})
	var notRecognized *NotRecognizedError
	require.ErrorAs(t, err, &notRecognized)
	assert.InDelta(t, 35.0, notRecognized.Confidence, 0.0001)
}

func TestFaceVerify_ThresholdIsExclusive(t *testing.T) {
	emp := enrolledEmployee(t, descriptorAt(0))
	v := NewFaceVerifier(&stubDirectory{employee: emp}, 0.6)

	// Distance exactly at the threshold is rejected.
	_, err := v.Verify(context.Background(), emp.ID, Proof{FaceTemplate: descriptorAt(0.6)})
	var notRecognized *NotRecognizedError
	assert.ErrorAs(t, err, &notRecognized)
}

func TestFaceVerify_NotEnrolled(t *testing.T) {
	emp := &model.Employee{ID: uuid.New()}
	v := NewFaceVerifier(&stubDirectory{employee: emp}, 0.6)

	_, err := v.Verify(context.Background(), emp.ID, Proof{FaceTemplate: descriptorAt(0)})
	assert.ErrorIs(t, err, ErrNotEnrolled)
}

func TestFaceVerify_WrongTemplateLength(t *testing.T) {
	emp := enrolledEmployee(t, descriptorAt(0))
	v := NewFaceVerifier(&stubDirectory{employee: emp}, 0.6)

	_, err := v.Verify(context.Background(), emp.ID, Proof{FaceTemplate: make([]float64, 64)})
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestFaceVerify_UnknownEmployee(t *testing.T) {
	v := NewFaceVerifier(&stubDirectory{}, 0.6)

	_, err := v.Verify(context.Background(), uuid.New(), Proof{FaceTemplate: descriptorAt(0)})
	assert.ErrorIs(t, err, store.ErrNotFound)
}
