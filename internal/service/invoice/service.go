package invoice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/qtrack/clinic-api/internal/model"
	"github.com/qtrack/clinic-api/internal/repository"
	"github.com/qtrack/clinic-api/pkg/errors"
)

type Service struct {
	repo repository.InvoiceRepository
}

func NewService(repo repository.InvoiceRepository) *Service {
	return &Service{repo: repo}
}

// Totals computes subtotal and grand total from line items.
func Totals(items []model.InvoiceItem, tax, discount float64) (subtotal, total float64) {
	for _, item := range items {
		subtotal += item.Amount()
	}
	total = subtotal + tax - discount
	if total < 0 {
		total = 0
	}
	return subtotal, total
}

func (s *Service) Create(ctx context.Context, req *model.CreateInvoiceRequest) (*model.Invoice, error) {
	subtotal, total := Totals(req.Items, req.Tax, req.Discount)

	inv := &model.Invoice{
		InvoiceNumber: newInvoiceNumber(),
		AppointmentID: req.AppointmentID,
		PatientName:   req.PatientName,
		PatientPhone:  req.PatientPhone,
		DoctorName:    req.DoctorName,
		Items:         req.Items,
		Subtotal:      subtotal,
		Tax:           req.Tax,
		Discount:      req.Discount,
		Total:         total,
		Status:        model.InvoiceStatusPending,
		DueDate:       req.DueDate,
	}

	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}
	return inv, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.InvoiceFilters) ([]*model.Invoice, error) {
	return s.repo.List(ctx, filters)
}

// RecordPayment marks the invoice paid and persists the payment record.
// The amount must cover the invoice total; partial payments are not
// supported.
func (s *Service) RecordPayment(ctx context.Context, id uuid.UUID, req *model.RecordPaymentRequest) (*model.Invoice, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status == model.InvoiceStatusPaid {
		return nil, errors.Conflict("invoice is already paid", nil)
	}
	if req.Amount < inv.Total {
		return nil, errors.BadRequest(
			fmt.Sprintf("payment %.2f does not cover invoice total %.2f", req.Amount, inv.Total), nil)
	}

	payment := &model.Payment{
		Amount:    req.Amount,
		Method:    req.Method,
		Reference: req.Reference,
		PaidAt:    time.Now(),
	}

	updated, err := s.repo.MarkPaid(ctx, id, payment)
	if err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	return updated, nil
}

func (s *Service) ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]*model.Payment, error) {
	return s.repo.ListPayments(ctx, invoiceID)
}

func newInvoiceNumber() string {
	now := time.Now()
	return fmt.Sprintf("INV-%s-%06d", now.Format("20060102"), now.UnixNano()%1000000)
}
