package medicine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/qtrack/clinic-api/internal/model"
	"github.com/qtrack/clinic-api/internal/repository"
)

type Service struct {
	repo repository.MedicineRepository
}

func NewService(repo repository.MedicineRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req *model.CreateMedicineRequest) (*model.Medicine, error) {
	m := &model.Medicine{
		Name:         req.Name,
		Category:     req.Category,
		Manufacturer: req.Manufacturer,
		Unit:         req.Unit,
		Stock:        req.Stock,
		Description:  req.Description,
	}

	if err := s.repo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create medicine: %w", err)
	}
	return m, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Medicine, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateMedicineRequest) (*model.Medicine, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		m.Name = *req.Name
	}
	if req.Category != nil {
		m.Category = *req.Category
	}
	if req.Manufacturer != nil {
		m.Manufacturer = *req.Manufacturer
	}
	if req.Unit != nil {
		m.Unit = *req.Unit
	}
	if req.Stock != nil {
		m.Stock = *req.Stock
	}
	if req.Description != nil {
		m.Description = *req.Description
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to update medicine: %w", err)
	}
	return m, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, search string) ([]*model.Medicine, error) {
	return s.repo.List(ctx, search)
}
