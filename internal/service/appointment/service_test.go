package appointment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qtrack/clinic-api/internal/model"
	"github.com/qtrack/clinic-api/internal/repository"
)

// fakeAppointmentRepo embeds the interface and implements only what the
// service under test touches; anything else panics loudly.
type fakeAppointmentRepo struct {
	repository.AppointmentRepository
	appointments map[uuid.UUID]*model.Appointment
	listed       []*model.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*model.Appointment)}
}

func (r *fakeAppointmentRepo) Create(_ context.Context, apt *model.Appointment) error {
	if apt.ID == uuid.Nil {
		apt.ID = uuid.New()
	}
	r.appointments[apt.ID] = apt
	return nil
}

func (r *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, ok := r.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *apt
	return &cp, nil
}

func (r *fakeAppointmentRepo) Update(_ context.Context, apt *model.Appointment) error {
	r.appointments[apt.ID] = apt
	return nil
}

func (r *fakeAppointmentRepo) List(_ context.Context, _ *model.AppointmentFilters) ([]*model.Appointment, error) {
	return r.listed, nil
}

type fakeStaffRepo struct {
	repository.StaffRepository
	doctors []*model.Staff
	fail    bool
}

func (r *fakeStaffRepo) List(_ context.Context, _ model.StaffRole) ([]*model.Staff, error) {
	if r.fail {
		return nil, assert.AnError
	}
	return r.doctors, nil
}

func doctor(name string) *model.Staff {
	s := &model.Staff{FullName: name, Role: model.StaffRoleDoctor}
	s.ID = uuid.New()
	return s
}

func TestCreateResolvesDoctorByDisplayName(t *testing.T) {
	repo := newFakeAppointmentRepo()
	asha := doctor("Dr. Asha Rao")
	staffRepo := &fakeStaffRepo{doctors: []*model.Staff{doctor("Dr. Binu Nair"), asha}}
	svc := NewService(repo, staffRepo, nil)

	apt, err := svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientName:  "Chitra",
		PatientPhone: "9000000003",
		DoctorName:   "asha rao",
		Date:         "2025-03-10",
		Type:         model.AppointmentTypeConsultation,
	})
	require.NoError(t, err)

	require.NotNil(t, apt.DoctorID)
	assert.Equal(t, asha.ID, *apt.DoctorID)
	assert.Equal(t, "asha rao", apt.DoctorName)
	assert.Equal(t, model.AppointmentStatusScheduled, apt.Status)
}

func TestCreateKeepsNameOnlyWhenUnresolved(t *testing.T) {
	repo := newFakeAppointmentRepo()
	staffRepo := &fakeStaffRepo{doctors: []*model.Staff{doctor("Dr. Binu Nair")}}
	svc := NewService(repo, staffRepo, nil)

	apt, err := svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientName:  "Chitra",
		PatientPhone: "9000000003",
		DoctorName:   "Dr. Unknown",
		Date:         "2025-03-10",
		Type:         model.AppointmentTypeConsultation,
	})
	require.NoError(t, err)

	assert.Nil(t, apt.DoctorID)
	assert.Equal(t, "Dr. Unknown", apt.DoctorName)
}

func TestCreateSurvivesDoctorLookupFailure(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := NewService(repo, &fakeStaffRepo{fail: true}, nil)

	apt, err := svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientName:  "Chitra",
		PatientPhone: "9000000003",
		DoctorName:   "Dr. Asha Rao",
		Date:         "2025-03-10",
		Type:         model.AppointmentTypeConsultation,
	})
	require.NoError(t, err)
	assert.Nil(t, apt.DoctorID)
}

func TestUpdateBlockedOnTerminalStates(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := NewService(repo, &fakeStaffRepo{}, nil)

	apt, err := svc.Create(context.Background(), &model.CreateAppointmentRequest{
		PatientName:  "Chitra",
		PatientPhone: "9000000003",
		DoctorName:   "Dr. Asha Rao",
		Date:         "2025-03-10",
		Type:         model.AppointmentTypeConsultation,
	})
	require.NoError(t, err)

	notes := "updated notes"
	updated, err := svc.Update(context.Background(), apt.ID, &model.UpdateAppointmentRequest{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "updated notes", updated.Notes)

	repo.appointments[apt.ID].Status = model.AppointmentStatusCompleted
	_, err = svc.Update(context.Background(), apt.ID, &model.UpdateAppointmentRequest{Notes: &notes})
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)

	repo.appointments[apt.ID].Status = model.AppointmentStatusCancelled
	_, err = svc.Update(context.Background(), apt.ID, &model.UpdateAppointmentRequest{Notes: &notes})
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)
}

func TestListForDoctorMixesIDAndNameRows(t *testing.T) {
	repo := newFakeAppointmentRepo()
	svc := NewService(repo, &fakeStaffRepo{}, nil)

	claims := &model.TokenClaims{
		StaffID:  uuid.New(),
		FullName: "Dr. Asha Rao",
		Role:     model.StaffRoleDoctor,
	}

	mine := &model.Appointment{DoctorID: &claims.StaffID, DoctorName: "Dr. Asha Rao"}
	mine.ID = uuid.New()
	legacy := &model.Appointment{DoctorName: "asha rao"}
	legacy.ID = uuid.New()
	otherID := uuid.New()
	other := &model.Appointment{DoctorID: &otherID, DoctorName: "Dr. Asha Rao"}
	other.ID = uuid.New()

	repo.listed = []*model.Appointment{mine, legacy, other}

	results, err := svc.ListForDoctor(context.Background(), claims, "2025-03-10")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, mine.ID, results[0].ID)
	assert.Equal(t, legacy.ID, results[1].ID)
}
