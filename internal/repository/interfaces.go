package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/qtrack/clinic-api/internal/model"
)

// Sentinel errors shared by all implementations.
var (
	ErrNotFound = errors.New("record not found")

	// ErrInvalidTransition is returned by the guarded status updates when
	// the row is not in an allowed source state.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNoneWaiting is returned by StartNext when no token_generated
	// appointment exists for the date.
	ErrNoneWaiting = errors.New("no waiting appointments")

	// ErrConsultationActive is returned by StartNext when an appointment
	// is already in progress for the date.
	ErrConsultationActive = errors.New("a consultation is already in progress")
)

// All repository interfaces in one file
type (
	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		// ListRecent returns appointments ordered by creation time
		// descending; it feeds the patient directory derivation.
		ListRecent(ctx context.Context, limit int) ([]*model.Appointment, error)

		// AssignNextToken atomically assigns max(token)+1 for the
		// appointment's date and moves the row from scheduled to
		// token_generated. Returns ErrInvalidTransition if the row is not
		// scheduled.
		AssignNextToken(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		// StartNext atomically picks the waiting appointment with the
		// lowest token for the date and moves it to in_progress. Only one
		// appointment may be in progress per date at a time.
		StartNext(ctx context.Context, date string, doctorID *uuid.UUID) (*model.Appointment, error)
		// Transition moves the row to the target status only if its
		// current status is one of from.
		Transition(ctx context.Context, id uuid.UUID, from []model.AppointmentStatus, to model.AppointmentStatus) (*model.Appointment, error)

		GetInProgress(ctx context.Context, date string, doctorID *uuid.UUID) (*model.Appointment, error)
		GetNextWaiting(ctx context.Context, date string, doctorID *uuid.UUID) (*model.Appointment, error)
	}

	PrescriptionRepository interface {
		Create(ctx context.Context, p *model.Prescription) error
		Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error)
		Update(ctx context.Context, p *model.Prescription) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.PrescriptionFilters) ([]*model.Prescription, error)
	}

	MedicineRepository interface {
		Create(ctx context.Context, m *model.Medicine) error
		Get(ctx context.Context, id uuid.UUID) (*model.Medicine, error)
		Update(ctx context.Context, m *model.Medicine) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, search string) ([]*model.Medicine, error)
	}

	InvoiceRepository interface {
		Create(ctx context.Context, inv *model.Invoice) error
		Get(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
		Update(ctx context.Context, inv *model.Invoice) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.InvoiceFilters) ([]*model.Invoice, error)
		// MarkPaid flips the invoice to paid and inserts the payment in
		// one transaction.
		MarkPaid(ctx context.Context, id uuid.UUID, payment *model.Payment) (*model.Invoice, error)
		ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]*model.Payment, error)
		// MarkOverdue flips pending invoices whose due date is before
		// asOf; returns the number of rows changed.
		MarkOverdue(ctx context.Context, asOf string) (int64, error)
	}

	StaffRepository interface {
		Create(ctx context.Context, s *model.Staff) error
		Get(ctx context.Context, id uuid.UUID) (*model.Staff, error)
		GetByEmail(ctx context.Context, email string) (*model.Staff, error)
		Update(ctx context.Context, s *model.Staff) error
		List(ctx context.Context, role model.StaffRole) ([]*model.Staff, error)
	}

	TokenRepository interface {
		StoreVerificationToken(ctx context.Context, staffID uuid.UUID, token string, expiry time.Time) error
		ValidateVerificationToken(ctx context.Context, token string) (uuid.UUID, error)
		StoreResetToken(ctx context.Context, staffID uuid.UUID, token string, expiry time.Time) error
		ValidateResetToken(ctx context.Context, token string) (uuid.UUID, error)
		InvalidateToken(ctx context.Context, token string) error
		RevokeRefreshToken(ctx context.Context, tokenHash string, expiry time.Time) error
		IsRefreshTokenRevoked(ctx context.Context, tokenHash string) (bool, error)
	}

	OutboxRepository interface {
		Insert(ctx context.Context, event *model.OutboxEvent) error
		GetPendingWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	}
)
