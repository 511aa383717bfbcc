package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/qtrack/clinic-api/internal/model"
	"github.com/qtrack/clinic-api/internal/repository"
)

const invoiceColumns = `
	id, invoice_number, appointment_id, patient_name, patient_phone, doctor_name,
	items, subtotal, tax, discount, total, status, payment_method, due_date,
	paid_at, created_at, updated_at
`

const paymentColumns = `
	id, invoice_id, amount, method, reference, paid_at, created_at, updated_at
`

func (r *invoiceRepository) Create(ctx context.Context, inv *model.Invoice) error {
	query := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES (
			:id, :invoice_number, :appointment_id, :patient_name, :patient_phone, :doctor_name,
			:items, :subtotal, :tax, :discount, :total, :status, :payment_method, :due_date,
			:paid_at, :created_at, :updated_at
		)
	`
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = inv.CreatedAt

	if _, err := r.db.NamedExecContext(ctx, query, inv); err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

func (r *invoiceRepository) Get(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.db.GetContext(ctx, &inv, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return &inv, nil
}

func (r *invoiceRepository) Update(ctx context.Context, inv *model.Invoice) error {
	query := `
		UPDATE invoices SET
			patient_name = :patient_name, patient_phone = :patient_phone,
			doctor_name = :doctor_name, items = :items, subtotal = :subtotal,
			tax = :tax, discount = :discount, total = :total, status = :status,
			due_date = :due_date, updated_at = :updated_at
		WHERE id = :id
	`
	inv.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx, query, inv)
	if err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *invoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *invoiceRepository) List(ctx context.Context, filters *model.InvoiceFilters) ([]*model.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if filters.PatientPhone != "" {
			query += fmt.Sprintf(" AND patient_phone = $%d", argCount)
			args = append(args, filters.PatientPhone)
			argCount++
		}
		if filters.DoctorName != "" {
			query += fmt.Sprintf(" AND doctor_name = $%d", argCount)
			args = append(args, filters.DoctorName)
			argCount++
		}
	}

	query += " ORDER BY created_at DESC"

	var invoices []*model.Invoice
	if err := r.db.SelectContext(ctx, &invoices, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, nil
}

// MarkPaid flips the invoice status and records the payment in one
// transaction, so a paid invoice always has its payment row.
func (r *invoiceRepository) MarkPaid(ctx context.Context, id uuid.UUID, payment *model.Payment) (*model.Invoice, error) {
	var updated model.Invoice

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &updated, `
			UPDATE invoices
			SET status = $1, payment_method = $2, paid_at = now(), updated_at = now()
			WHERE id = $3 AND status IN ($4, $5)
			RETURNING `+invoiceColumns,
			model.InvoiceStatusPaid, payment.Method, id,
			model.InvoiceStatusPending, model.InvoiceStatusOverdue,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrInvalidTransition
		}
		if err != nil {
			return fmt.Errorf("failed to mark invoice paid: %w", err)
		}

		payment.ID = uuid.New()
		payment.InvoiceID = id
		payment.CreatedAt = time.Now()
		payment.UpdatedAt = payment.CreatedAt
		if payment.PaidAt.IsZero() {
			payment.PaidAt = payment.CreatedAt
		}

		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO payments (`+paymentColumns+`)
			VALUES (:id, :invoice_id, :amount, :method, :reference, :paid_at, :created_at, :updated_at)
		`, payment)
		if err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *invoiceRepository) ListPayments(ctx context.Context, invoiceID uuid.UUID) ([]*model.Payment, error) {
	var payments []*model.Payment
	err := r.db.SelectContext(ctx, &payments,
		`SELECT `+paymentColumns+` FROM payments WHERE invoice_id = $1 ORDER BY paid_at ASC`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

func (r *invoiceRepository) MarkOverdue(ctx context.Context, asOf string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE invoices
		SET status = $1, updated_at = now()
		WHERE status = $2 AND due_date <> '' AND due_date < $3
	`, model.InvoiceStatusOverdue, model.InvoiceStatusPending, asOf)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue invoices: %w", err)
	}
	return result.RowsAffected()
}
