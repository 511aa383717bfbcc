package staff

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/qtrack/clinic-api/internal/model"
	"github.com/qtrack/clinic-api/internal/repository"
)

type Service struct {
	repo repository.StaffRepository
}

func NewService(repo repository.StaffRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Staff, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, role model.StaffRole) ([]*model.Staff, error) {
	return s.repo.List(ctx, role)
}

func (s *Service) ListDoctors(ctx context.Context) ([]*model.Staff, error) {
	return s.repo.List(ctx, model.StaffRoleDoctor)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateStaffRequest) (*model.Staff, error) {
	staff, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		staff.FullName = *req.FullName
	}
	if req.Phone != nil {
		staff.Phone = *req.Phone
	}
	if req.Specialization != nil {
		staff.Specialization = *req.Specialization
	}
	if req.Status != nil {
		staff.Status = *req.Status
	}

	if err := s.repo.Update(ctx, staff); err != nil {
		return nil, fmt.Errorf("failed to update staff: %w", err)
	}
	return staff, nil
}
