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

const medicineColumns = `
	id, name, category, manufacturer, unit, stock, description, created_at, updated_at
`

func (r *medicineRepository) Create(ctx context.Context, m *model.Medicine) error {
	query := `
		INSERT INTO medicines (` + medicineColumns + `)
		VALUES (:id, :name, :category, :manufacturer, :unit, :stock, :description, :created_at, :updated_at)
	`
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt

	if _, err := r.db.NamedExecContext(ctx, query, m); err != nil {
		return fmt.Errorf("failed to create medicine: %w", err)
	}
	return nil
}

func (r *medicineRepository) Get(ctx context.Context, id uuid.UUID) (*model.Medicine, error) {
	var m model.Medicine
	err := r.db.GetContext(ctx, &m, `SELECT `+medicineColumns+` FROM medicines WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get medicine: %w", err)
	}
	return &m, nil
}

func (r *medicineRepository) Update(ctx context.Context, m *model.Medicine) error {
	query := `
		UPDATE medicines SET
			name = :name, category = :category, manufacturer = :manufacturer,
			unit = :unit, stock = :stock, description = :description,
			updated_at = :updated_at
		WHERE id = :id
	`
	m.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx, query, m)
	if err != nil {
		return fmt.Errorf("failed to update medicine: %w", err)
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

func (r *medicineRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM medicines WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete medicine: %w", err)
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

func (r *medicineRepository) List(ctx context.Context, search string) ([]*model.Medicine, error) {
	query := `SELECT ` + medicineColumns + ` FROM medicines`
	args := []interface{}{}

	if search != "" {
		query += ` WHERE name ILIKE $1 OR category ILIKE $1`
		args = append(args, "%"+search+"%")
	}

	query += ` ORDER BY name ASC`

	var medicines []*model.Medicine
	if err := r.db.SelectContext(ctx, &medicines, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list medicines: %w", err)
	}
	return medicines, nil
}
