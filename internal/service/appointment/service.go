package appointment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/qtrack/clinic-api/internal/model"
	"github.com/qtrack/clinic-api/internal/repository"
	"github.com/qtrack/clinic-api/internal/service/directory"
)

type Service struct {
	repo      repository.AppointmentRepository
	staffRepo repository.StaffRepository
	dir       *directory.Service
}

func NewService(repo repository.AppointmentRepository, staffRepo repository.StaffRepository, dir *directory.Service) *Service {
	return &Service{
		repo:      repo,
		staffRepo: staffRepo,
		dir:       dir,
	}
}

func (s *Service) Create(ctx context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	apt := &model.Appointment{
		PatientName:    req.PatientName,
		PatientAge:     req.PatientAge,
		PatientGender:  req.PatientGender,
		PatientPhone:   req.PatientPhone,
		PatientEmail:   req.PatientEmail,
		DoctorID:       req.DoctorID,
		DoctorName:     req.DoctorName,
		Date:           req.Date,
		TimeSlot:       req.TimeSlot,
		Type:           req.Type,
		Status:         model.AppointmentStatusScheduled,
		Symptoms:       req.Symptoms,
		Notes:          req.Notes,
		MedicalHistory: req.MedicalHistory,
		Medications:    req.Medications,
		VitalSigns:     req.VitalSigns,
	}

	// Resolve the doctor id from the directory when the desk only typed
	// a display name; legacy-style rows stay name-only if nothing
	// matches.
	if apt.DoctorID == nil && apt.DoctorName != "" {
		if doc := s.resolveDoctor(ctx, apt.DoctorName); doc != nil {
			apt.DoctorID = &doc.ID
		}
	}

	if err := s.repo.Create(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	if s.dir != nil {
		s.dir.Apply(apt)
	}
	return apt, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if apt.Status.Terminal() {
		return nil, repository.ErrInvalidTransition
	}

	applyUpdate(apt, req)

	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}
	return apt, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return s.repo.List(ctx, filters)
}

// ListForDoctor returns the appointments attributed to the session
// doctor: id match when the row carries one, display-name matching
// otherwise.
func (s *Service) ListForDoctor(ctx context.Context, claims *model.TokenClaims, date string) ([]*model.Appointment, error) {
	appointments, err := s.repo.List(ctx, &model.AppointmentFilters{Date: date})
	if err != nil {
		return nil, err
	}

	mine := make([]*model.Appointment, 0)
	for _, apt := range appointments {
		if apt.DoctorID != nil {
			if *apt.DoctorID == claims.StaffID {
				mine = append(mine, apt)
			}
			continue
		}
		if directory.MatchesDoctor(claims.FullName, apt.DoctorName) {
			mine = append(mine, apt)
		}
	}
	return mine, nil
}

func (s *Service) resolveDoctor(ctx context.Context, name string) *model.Staff {
	doctors, err := s.staffRepo.List(ctx, model.StaffRoleDoctor)
	if err != nil {
		// Auxiliary lookup only; the appointment still goes through with
		// the typed display name.
		return nil
	}
	for _, doc := range doctors {
		if directory.MatchesDoctor(doc.FullName, name) {
			return doc
		}
	}
	return nil
}

func applyUpdate(apt *model.Appointment, req *model.UpdateAppointmentRequest) {
	if req.PatientName != nil {
		apt.PatientName = *req.PatientName
	}
	if req.PatientAge != nil {
		apt.PatientAge = *req.PatientAge
	}
	if req.PatientGender != nil {
		apt.PatientGender = *req.PatientGender
	}
	if req.PatientPhone != nil {
		apt.PatientPhone = *req.PatientPhone
	}
	if req.PatientEmail != nil {
		apt.PatientEmail = *req.PatientEmail
	}
	if req.DoctorID != nil {
		apt.DoctorID = req.DoctorID
	}
	if req.DoctorName != nil {
		apt.DoctorName = *req.DoctorName
	}
	if req.Date != nil {
		apt.Date = *req.Date
	}
	if req.TimeSlot != nil {
		apt.TimeSlot = *req.TimeSlot
	}
	if req.Type != nil {
		apt.Type = *req.Type
	}
	if req.Symptoms != nil {
		apt.Symptoms = *req.Symptoms
	}
	if req.Notes != nil {
		apt.Notes = *req.Notes
	}
	if req.MedicalHistory != nil {
		apt.MedicalHistory = *req.MedicalHistory
	}
	if req.Medications != nil {
		apt.Medications = *req.Medications
	}
	if req.VitalSigns != nil {
		apt.VitalSigns = *req.VitalSigns
	}
}
