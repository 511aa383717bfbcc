package prescription

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qtrack/clinic-api/internal/model"
	"github.com/qtrack/clinic-api/internal/repository"
	apperrors "github.com/qtrack/clinic-api/pkg/errors"
)

type fakePrescriptionRepo struct {
	prescriptions map[uuid.UUID]*model.Prescription
}

func newFakePrescriptionRepo() *fakePrescriptionRepo {
	return &fakePrescriptionRepo{prescriptions: make(map[uuid.UUID]*model.Prescription)}
}

func (r *fakePrescriptionRepo) Create(_ context.Context, p *model.Prescription) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.prescriptions[p.ID] = p
	return nil
}

func (r *fakePrescriptionRepo) Get(_ context.Context, id uuid.UUID) (*model.Prescription, error) {
	p, ok := r.prescriptions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePrescriptionRepo) Update(_ context.Context, p *model.Prescription) error {
	r.prescriptions[p.ID] = p
	return nil
}

func (r *fakePrescriptionRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.prescriptions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.prescriptions, id)
	return nil
}

func (r *fakePrescriptionRepo) List(_ context.Context, _ *model.PrescriptionFilters) ([]*model.Prescription, error) {
	var out []*model.Prescription
	for _, p := range r.prescriptions {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// fakeAppointmentGetter backs Draft; nothing else is touched.
type fakeAppointmentGetter struct {
	appointments map[uuid.UUID]*model.Appointment
}

func (r *fakeAppointmentGetter) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, ok := r.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return apt, nil
}

func (r *fakeAppointmentGetter) Create(context.Context, *model.Appointment) error { return nil }
func (r *fakeAppointmentGetter) Update(context.Context, *model.Appointment) error { return nil }
func (r *fakeAppointmentGetter) Delete(context.Context, uuid.UUID) error          { return nil }
func (r *fakeAppointmentGetter) List(context.Context, *model.AppointmentFilters) ([]*model.Appointment, error) {
	return nil, nil
}
func (r *fakeAppointmentGetter) ListRecent(context.Context, int) ([]*model.Appointment, error) {
	return nil, nil
}
func (r *fakeAppointmentGetter) AssignNextToken(context.Context, uuid.UUID) (*model.Appointment, error) {
	return nil, repository.ErrNotFound
}
func (r *fakeAppointmentGetter) StartNext(context.Context, string, *uuid.UUID) (*model.Appointment, error) {
	return nil, repository.ErrNoneWaiting
}
func (r *fakeAppointmentGetter) Transition(context.Context, uuid.UUID, []model.AppointmentStatus, model.AppointmentStatus) (*model.Appointment, error) {
	return nil, repository.ErrNotFound
}
func (r *fakeAppointmentGetter) GetInProgress(context.Context, string, *uuid.UUID) (*model.Appointment, error) {
	return nil, repository.ErrNotFound
}
func (r *fakeAppointmentGetter) GetNextWaiting(context.Context, string, *uuid.UUID) (*model.Appointment, error) {
	return nil, repository.ErrNotFound
}

func doctorClaims() *model.TokenClaims {
	return &model.TokenClaims{
		StaffID:  uuid.New(),
		Email:    "asha@clinic.example.com",
		FullName: "Dr. Asha Rao",
		Role:     model.StaffRoleDoctor,
	}
}

func TestCreateAttributesSessionDoctor(t *testing.T) {
	repo := newFakePrescriptionRepo()
	svc := NewService(repo, &fakeAppointmentGetter{})
	claims := doctorClaims()

	p, err := svc.Create(context.Background(), claims, &model.CreatePrescriptionRequest{
		PatientName: "Binu",
		Diagnosis:   "Viral fever",
		Medicines: []model.MedicineLine{
			{MedicineID: uuid.New(), Name: "Paracetamol", Dosage: "500mg"},
		},
	})
	require.NoError(t, err)

	require.NotNil(t, p.DoctorID)
	assert.Equal(t, claims.StaffID, *p.DoctorID)
	assert.Equal(t, claims.FullName, p.DoctorName)
	assert.Equal(t, model.PrescriptionStatusActive, p.Status)
}

func TestCreateRejectsDuplicateMedicine(t *testing.T) {
	repo := newFakePrescriptionRepo()
	svc := NewService(repo, &fakeAppointmentGetter{})

	med := uuid.New()
	_, err := svc.Create(context.Background(), doctorClaims(), &model.CreatePrescriptionRequest{
		PatientName: "Binu",
		Medicines: []model.MedicineLine{
			{MedicineID: med, Name: "Paracetamol", Dosage: "500mg"},
			{MedicineID: med, Name: "Paracetamol", Dosage: "250mg"},
		},
	})
	require.Error(t, err)
	appErr, ok := apperrors.AsApp(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
}

func TestDraftPrefillsFromAppointment(t *testing.T) {
	doctorID := uuid.New()
	apt := &model.Appointment{
		PatientName:   "Binu",
		PatientAge:    "34",
		PatientGender: "male",
		PatientPhone:  "9000000002",
		DoctorID:      &doctorID,
		DoctorName:    "Dr. Asha Rao",
		Symptoms:      "fever, cough",
	}
	apt.ID = uuid.New()

	aptRepo := &fakeAppointmentGetter{appointments: map[uuid.UUID]*model.Appointment{apt.ID: apt}}
	svc := NewService(newFakePrescriptionRepo(), aptRepo)

	draft, err := svc.Draft(context.Background(), apt.ID)
	require.NoError(t, err)

	require.NotNil(t, draft.AppointmentID)
	assert.Equal(t, apt.ID, *draft.AppointmentID)
	assert.Equal(t, "Binu", draft.PatientName)
	assert.Equal(t, "fever, cough", draft.Symptoms)
	assert.Equal(t, model.PrescriptionStatusPending, draft.Status)
	assert.Empty(t, draft.Medicines)
}

func TestDraftUnknownAppointment(t *testing.T) {
	svc := NewService(newFakePrescriptionRepo(), &fakeAppointmentGetter{})
	_, err := svc.Draft(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateValidatesMedicines(t *testing.T) {
	repo := newFakePrescriptionRepo()
	svc := NewService(repo, &fakeAppointmentGetter{})

	p, err := svc.Create(context.Background(), doctorClaims(), &model.CreatePrescriptionRequest{
		PatientName: "Binu",
		Medicines:   []model.MedicineLine{{MedicineID: uuid.New(), Name: "Paracetamol"}},
	})
	require.NoError(t, err)

	med := uuid.New()
	_, err = svc.Update(context.Background(), p.ID, &model.UpdatePrescriptionRequest{
		Medicines: []model.MedicineLine{
			{MedicineID: med, Name: "Azithromycin"},
			{MedicineID: med, Name: "Azithromycin"},
		},
	})
	assert.Error(t, err)

	updated, err := svc.Update(context.Background(), p.ID, &model.UpdatePrescriptionRequest{
		Medicines: []model.MedicineLine{{MedicineID: med, Name: "Azithromycin"}},
	})
	require.NoError(t, err)
	require.Len(t, updated.Medicines, 1)
	assert.Equal(t, "Azithromycin", updated.Medicines[0].Name)
}

func TestListForDoctorMatchesIDThenName(t *testing.T) {
	repo := newFakePrescriptionRepo()
	svc := NewService(repo, &fakeAppointmentGetter{})
	claims := doctorClaims()

	// id-attributed row
	mine, err := svc.Create(context.Background(), claims, &model.CreatePrescriptionRequest{
		PatientName: "Binu",
		Medicines:   []model.MedicineLine{{MedicineID: uuid.New(), Name: "Paracetamol"}},
	})
	require.NoError(t, err)

	// legacy name-only row for the same doctor
	legacy := &model.Prescription{
		PatientName: "Chitra",
		DoctorName:  "asha rao",
		Status:      model.PrescriptionStatusActive,
	}
	require.NoError(t, repo.Create(context.Background(), legacy))

	// another doctor's row
	otherID := uuid.New()
	other := &model.Prescription{
		PatientName: "Dev",
		DoctorID:    &otherID,
		DoctorName:  "Dr. Binu Nair",
		Status:      model.PrescriptionStatusActive,
	}
	require.NoError(t, repo.Create(context.Background(), other))

	results, err := svc.ListForDoctor(context.Background(), claims)
	require.NoError(t, err)
	require.Len(t, results, 2)

	ids := map[uuid.UUID]bool{}
	for _, p := range results {
		ids[p.ID] = true
	}
	assert.True(t, ids[mine.ID])
	assert.True(t, ids[legacy.ID])
	assert.False(t, ids[other.ID])
}
