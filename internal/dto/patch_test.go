package dto

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yukikurage/field-service-api/internal/services"
)

func TestParseJobPatchAbsentVersusNull(t *testing.T) {
	patch, err := ParseJobPatch([]byte(`{"assignedWorkerId": null, "title": "Fix boiler"}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"assignedWorkerId", "title"}, patch.Keys)
	assert.True(t, patch.ClearAssignedWorker)
	assert.Nil(t, patch.AssignedWorkerID)
	require.NotNil(t, patch.Title)
	assert.Equal(t, "Fix boiler", *patch.Title)

	assert.False(t, patch.ClearScheduledDate)
	assert.Nil(t, patch.ScheduledDate)
	assert.Nil(t, patch.StatusID)
	assert.Empty(t, patch.Invalid)
}

func TestParseJobPatchScheduledDate(t *testing.T) {
	patch, err := ParseJobPatch([]byte(`{"scheduledDate": "2024-03-01"}`))
	require.NoError(t, err)
	require.NotNil(t, patch.ScheduledDate)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *patch.ScheduledDate)

	patch, err = ParseJobPatch([]byte(`{"scheduledDate": "2024-03-01T09:30:00Z"}`))
	require.NoError(t, err)
	require.NotNil(t, patch.ScheduledDate)
	assert.Equal(t, 9, patch.ScheduledDate.Hour())

	patch, err = ParseJobPatch([]byte(`{"scheduledDate": null}`))
	require.NoError(t, err)
	assert.True(t, patch.ClearScheduledDate)

	patch, err = ParseJobPatch([]byte(`{"scheduledDate": "tomorrow"}`))
	require.NoError(t, err)
	assert.Equal(t, []services.FieldError{{Field: "scheduledDate", Message: "scheduledDate must be a valid date"}}, patch.Invalid)
}

func TestParseJobPatchCollectsTypeErrors(t *testing.T) {
	patch, err := ParseJobPatch([]byte(`{"statusId": 42, "title": null, "priority": "high"}`))
	require.NoError(t, err)

	// Unknown keys are kept so the allow-list can reject them
	assert.Equal(t, []string{"priority", "statusId", "title"}, patch.Keys)
	assert.ElementsMatch(t, []services.FieldError{
		{Field: "statusId", Message: "statusId must be a string"},
		{Field: "title", Message: "title cannot be null"},
	}, patch.Invalid)
}

func TestParseJobPatchRejectsNonObject(t *testing.T) {
	for _, body := range []string{``, `[]`, `"x"`, `null`, `{`} {
		_, err := ParseJobPatch([]byte(body))
		assert.ErrorIs(t, err, ErrPatchNotObject, body)
	}
}

func TestParseCustomerPatch(t *testing.T) {
	input, err := ParseCustomerPatch([]byte(`{"phone": null, "email": "ops@acme.test"}`))
	require.NoError(t, err)

	assert.Nil(t, input.Name)
	assert.True(t, input.ClearPhone)
	assert.False(t, input.ClearEmail)
	require.NotNil(t, input.Email)
	assert.Equal(t, "ops@acme.test", *input.Email)

	_, err = ParseCustomerPatch([]byte(`{"name": null}`))
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Fields[0].Field)
}

func TestParseTaskPatch(t *testing.T) {
	input, err := ParseTaskPatch([]byte(`{"description": null}`))
	require.NoError(t, err)
	assert.True(t, input.ClearDescription)
	assert.Nil(t, input.Title)

	_, err = ParseTaskPatch([]byte(`{"title": 3}`))
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestParseDate(t *testing.T) {
	for _, value := range []string{"2024-03-01", "2024-03-01T10:00", "2024-03-01T10:00:00", "2024-03-01T10:00:00+02:00"} {
		_, err := ParseDate(value)
		assert.NoError(t, err, value)
	}
	_, err := ParseDate("03/01/2024")
	assert.Error(t, err)
}
