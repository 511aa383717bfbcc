package prescription

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/qtrack/clinic-api/internal/model"
	"github.com/qtrack/clinic-api/internal/repository"
	"github.com/qtrack/clinic-api/internal/service/directory"
	"github.com/qtrack/clinic-api/pkg/errors"
)

type Service struct {
	repo    repository.PrescriptionRepository
	aptRepo repository.AppointmentRepository
}

func NewService(repo repository.PrescriptionRepository, aptRepo repository.AppointmentRepository) *Service {
	return &Service{repo: repo, aptRepo: aptRepo}
}

// Create stores a prescription attributed to the session doctor. Patient
// demographics are duplicated onto the document at creation time.
func (s *Service) Create(ctx context.Context, claims *model.TokenClaims, req *model.CreatePrescriptionRequest) (*model.Prescription, error) {
	if err := validateMedicines(req.Medicines); err != nil {
		return nil, err
	}

	doctorID := claims.StaffID
	p := &model.Prescription{
		AppointmentID: req.AppointmentID,
		PatientName:   req.PatientName,
		PatientAge:    req.PatientAge,
		PatientGender: req.PatientGender,
		PatientPhone:  req.PatientPhone,
		PatientEmail:  req.PatientEmail,
		DoctorID:      &doctorID,
		DoctorName:    claims.FullName,
		Diagnosis:     req.Diagnosis,
		Symptoms:      req.Symptoms,
		Medicines:     req.Medicines,
		Instructions:  req.Instructions,
		FollowUpDate:  req.FollowUpDate,
		Status:        model.PrescriptionStatusActive,
		Notes:         req.Notes,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create prescription: %w", err)
	}
	return p, nil
}

// Draft pre-fills a prescription form from an appointment.
func (s *Service) Draft(ctx context.Context, appointmentID uuid.UUID) (*model.Prescription, error) {
	apt, err := s.aptRepo.Get(ctx, appointmentID)
	if err != nil {
		return nil, err
	}

	return &model.Prescription{
		AppointmentID: &apt.ID,
		PatientName:   apt.PatientName,
		PatientAge:    apt.PatientAge,
		PatientGender: apt.PatientGender,
		PatientPhone:  apt.PatientPhone,
		PatientEmail:  apt.PatientEmail,
		DoctorID:      apt.DoctorID,
		DoctorName:    apt.DoctorName,
		Symptoms:      apt.Symptoms,
		Status:        model.PrescriptionStatusPending,
	}, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	return s.repo.Get(ctx, id)
}

// Update edits the prescription in place; there is no versioning.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdatePrescriptionRequest) (*model.Prescription, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Medicines != nil {
		if err := validateMedicines(req.Medicines); err != nil {
			return nil, err
		}
		p.Medicines = req.Medicines
	}
	if req.Diagnosis != nil {
		p.Diagnosis = *req.Diagnosis
	}
	if req.Symptoms != nil {
		p.Symptoms = *req.Symptoms
	}
	if req.Instructions != nil {
		p.Instructions = *req.Instructions
	}
	if req.FollowUpDate != nil {
		p.FollowUpDate = *req.FollowUpDate
	}
	if req.Status != nil {
		p.Status = *req.Status
	}
	if req.Notes != nil {
		p.Notes = *req.Notes
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update prescription: %w", err)
	}
	return p, nil
}

// Delete is a hard delete; the handler requires explicit confirmation.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.PrescriptionFilters) ([]*model.Prescription, error) {
	return s.repo.List(ctx, filters)
}

// ListForDoctor returns the session doctor's prescriptions: id match
// when the row carries one, display-name matching otherwise.
func (s *Service) ListForDoctor(ctx context.Context, claims *model.TokenClaims) ([]*model.Prescription, error) {
	prescriptions, err := s.repo.List(ctx, nil)
	if err != nil {
		return nil, err
	}

	mine := make([]*model.Prescription, 0)
	for _, p := range prescriptions {
		if p.DoctorID != nil {
			if *p.DoctorID == claims.StaffID {
				mine = append(mine, p)
			}
			continue
		}
		if directory.MatchesDoctor(claims.FullName, p.DoctorName) {
			mine = append(mine, p)
		}
	}
	return mine, nil
}

// validateMedicines enforces that a medicine appears at most once per
// prescription.
func validateMedicines(lines []model.MedicineLine) error {
	seen := make(map[uuid.UUID]bool, len(lines))
	for _, line := range lines {
		if seen[line.MedicineID] {
			return errors.BadRequest(fmt.Sprintf("medicine %s listed more than once", line.Name), nil)
		}
		seen[line.MedicineID] = true
	}
	return nil
}
