package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/qtrack/clinic-api/internal/model"
	"github.com/qtrack/clinic-api/internal/repository"
)

const staffColumns = `
	id, email, full_name, phone, role, specialization, password_hash, status,
	email_verified, failed_login_attempts, locked_until, last_login_at,
	created_at, updated_at
`

func (r *staffRepository) Create(ctx context.Context, s *model.Staff) error {
	query := `
		INSERT INTO staff (` + staffColumns + `)
		VALUES (
			:id, :email, :full_name, :phone, :role, :specialization, :password_hash, :status,
			:email_verified, :failed_login_attempts, :locked_until, :last_login_at,
			:created_at, :updated_at
		)
	`
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt

	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("failed to create staff: %w", err)
	}
	return nil
}

func (r *staffRepository) Get(ctx context.Context, id uuid.UUID) (*model.Staff, error) {
	var s model.Staff
	err := r.db.GetContext(ctx, &s, `SELECT `+staffColumns+` FROM staff WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get staff: %w", err)
	}
	return &s, nil
}

func (r *staffRepository) GetByEmail(ctx context.Context, email string) (*model.Staff, error) {
	var s model.Staff
	err := r.db.GetContext(ctx, &s, `SELECT `+staffColumns+` FROM staff WHERE lower(email) = lower($1)`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get staff by email: %w", err)
	}
	return &s, nil
}

func (r *staffRepository) Update(ctx context.Context, s *model.Staff) error {
	query := `
		UPDATE staff SET
			full_name = :full_name, phone = :phone, specialization = :specialization,
			password_hash = :password_hash, status = :status,
			email_verified = :email_verified,
			failed_login_attempts = :failed_login_attempts,
			locked_until = :locked_until, last_login_at = :last_login_at,
			updated_at = :updated_at
		WHERE id = :id
	`
	s.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx, query, s)
	if err != nil {
		return fmt.Errorf("failed to update staff: %w", err)
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

func (r *staffRepository) List(ctx context.Context, role model.StaffRole) ([]*model.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff`
	args := []interface{}{}

	if role != "" {
		query += ` WHERE role = $1`
		args = append(args, role)
	}

	query += ` ORDER BY full_name ASC`

	var staff []*model.Staff
	if err := r.db.SelectContext(ctx, &staff, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	return staff, nil
}
