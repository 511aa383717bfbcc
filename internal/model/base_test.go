package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidDate(t *testing.T) {
	assert.True(t, ValidDate("2025-03-10"))
	assert.True(t, ValidDate("2025-12-31"))

	assert.False(t, ValidDate(""))
	assert.False(t, ValidDate("10-03-2025"))
	assert.False(t, ValidDate("2025-3-10"))
	assert.False(t, ValidDate("2025-13-01"))
	assert.False(t, ValidDate("2025-02-30"))
	assert.False(t, ValidDate("2025-03-10T00:00:00Z"))
}

func TestPatientKey(t *testing.T) {
	assert.Equal(t, "Asha-9000000001", PatientKey("Asha", "9000000001"))

	// distinct phones mean distinct patients even with the same name
	assert.NotEqual(t, PatientKey("Asha", "9000000001"), PatientKey("Asha", "9000000002"))
}

func TestAppointmentStatusTerminal(t *testing.T) {
	assert.False(t, AppointmentStatusScheduled.Terminal())
	assert.False(t, AppointmentStatusTokenGenerated.Terminal())
	assert.False(t, AppointmentStatusInProgress.Terminal())
	assert.True(t, AppointmentStatusCompleted.Terminal())
	assert.True(t, AppointmentStatusCancelled.Terminal())
}
