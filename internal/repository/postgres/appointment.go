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

const appointmentColumns = `
	id, patient_name, patient_age, patient_gender, patient_phone, patient_email,
	doctor_id, doctor_name, appointment_date, time_slot, appointment_type, status,
	token_number, token_issued_at, symptoms, notes, medical_history, medications,
	blood_pressure, heart_rate, temperature, weight, created_at, updated_at
`

// Queue display order: tokened appointments first by token, untokened
// after, creation time as the tie-break.
const queueOrder = " ORDER BY token_number ASC NULLS LAST, created_at ASC"

func (r *appointmentRepository) Create(ctx context.Context, a *model.Appointment) error {
	query := `
		INSERT INTO appointments (` + appointmentColumns + `)
		VALUES (
			:id, :patient_name, :patient_age, :patient_gender, :patient_phone, :patient_email,
			:doctor_id, :doctor_name, :appointment_date, :time_slot, :appointment_type, :status,
			:token_number, :token_issued_at, :symptoms, :notes, :medical_history, :medications,
			:blood_pressure, :heart_rate, :temperature, :weight, :created_at, :updated_at
		)
	`
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt

	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var a model.Appointment
	err := r.db.GetContext(ctx, &a, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &a, nil
}

func (r *appointmentRepository) Update(ctx context.Context, a *model.Appointment) error {
	query := `
		UPDATE appointments SET
			patient_name = :patient_name, patient_age = :patient_age,
			patient_gender = :patient_gender, patient_phone = :patient_phone,
			patient_email = :patient_email, doctor_id = :doctor_id,
			doctor_name = :doctor_name, appointment_date = :appointment_date,
			time_slot = :time_slot, appointment_type = :appointment_type,
			symptoms = :symptoms, notes = :notes,
			medical_history = :medical_history, medications = :medications,
			blood_pressure = :blood_pressure, heart_rate = :heart_rate,
			temperature = :temperature, weight = :weight,
			updated_at = :updated_at
		WHERE id = :id
	`
	a.UpdatedAt = time.Now()

	result, err := r.db.NamedExecContext(ctx, query, a)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
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

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
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

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.Date != "" {
			query += fmt.Sprintf(" AND appointment_date = $%d", argCount)
			args = append(args, filters.Date)
			argCount++
		}
		if filters.DoctorID != nil {
			query += fmt.Sprintf(" AND doctor_id = $%d", argCount)
			args = append(args, *filters.DoctorID)
			argCount++
		}
		if filters.DoctorName != "" {
			query += fmt.Sprintf(" AND doctor_name = $%d", argCount)
			args = append(args, filters.DoctorName)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
	}

	query += queueOrder

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListRecent(ctx context.Context, limit int) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments ORDER BY created_at DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list recent appointments: %w", err)
	}
	return appointments, nil
}

// AssignNextToken serializes token assignment per date with an advisory
// lock, so max(token)+1 cannot race even across concurrent desks.
func (r *appointmentRepository) AssignNextToken(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var updated model.Appointment

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var a model.Appointment
		err := tx.GetContext(ctx, &a, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get appointment: %w", err)
		}
		if a.Status != model.AppointmentStatusScheduled {
			return repository.ErrInvalidTransition
		}

		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "token:"+a.Date); err != nil {
			return fmt.Errorf("failed to take date lock: %w", err)
		}

		var maxToken int
		if err := tx.GetContext(ctx, &maxToken,
			`SELECT COALESCE(MAX(token_number), 0) FROM appointments WHERE appointment_date = $1`, a.Date); err != nil {
			return fmt.Errorf("failed to read max token: %w", err)
		}

		err = tx.GetContext(ctx, &updated, `
			UPDATE appointments
			SET token_number = $1, token_issued_at = now(), status = $2, updated_at = now()
			WHERE id = $3 AND status = $4
			RETURNING `+appointmentColumns,
			maxToken+1, model.AppointmentStatusTokenGenerated, id, model.AppointmentStatusScheduled,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrInvalidTransition
		}
		if err != nil {
			return fmt.Errorf("failed to assign token: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// StartNext picks the lowest-token waiting appointment for the date and
// moves it to in_progress, refusing while another consultation is active.
func (r *appointmentRepository) StartNext(ctx context.Context, date string, doctorID *uuid.UUID) (*model.Appointment, error) {
	var updated model.Appointment

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "token:"+date); err != nil {
			return fmt.Errorf("failed to take date lock: %w", err)
		}

		busyQuery := `SELECT EXISTS (SELECT 1 FROM appointments WHERE appointment_date = $1 AND status = $2`
		busyArgs := []interface{}{date, model.AppointmentStatusInProgress}
		if doctorID != nil {
			busyQuery += ` AND doctor_id = $3`
			busyArgs = append(busyArgs, *doctorID)
		}
		busyQuery += `)`

		var busy bool
		if err := tx.GetContext(ctx, &busy, busyQuery, busyArgs...); err != nil {
			return fmt.Errorf("failed to check active consultation: %w", err)
		}
		if busy {
			return repository.ErrConsultationActive
		}

		pickQuery := `
			SELECT id FROM appointments
			WHERE appointment_date = $1 AND status = $2`
		pickArgs := []interface{}{date, model.AppointmentStatusTokenGenerated}
		if doctorID != nil {
			pickQuery += ` AND doctor_id = $3`
			pickArgs = append(pickArgs, *doctorID)
		}
		pickQuery += ` ORDER BY token_number ASC LIMIT 1`

		var nextID uuid.UUID
		err := tx.GetContext(ctx, &nextID, pickQuery, pickArgs...)
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNoneWaiting
		}
		if err != nil {
			return fmt.Errorf("failed to pick next appointment: %w", err)
		}

		err = tx.GetContext(ctx, &updated, `
			UPDATE appointments
			SET status = $1, updated_at = now()
			WHERE id = $2 AND status = $3
			RETURNING `+appointmentColumns,
			model.AppointmentStatusInProgress, nextID, model.AppointmentStatusTokenGenerated,
		)
		if err != nil {
			return fmt.Errorf("failed to start consultation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *appointmentRepository) Transition(ctx context.Context, id uuid.UUID, from []model.AppointmentStatus, to model.AppointmentStatus) (*model.Appointment, error) {
	states := make([]string, 0, len(from))
	for _, s := range from {
		states = append(states, string(s))
	}

	query, args, err := sqlx.In(`
		UPDATE appointments
		SET status = ?, updated_at = now()
		WHERE id = ? AND status IN (?)
		RETURNING `+appointmentColumns,
		to, id, states,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build transition query: %w", err)
	}
	query = r.db.Rebind(query)

	var updated model.Appointment
	err = r.db.GetContext(ctx, &updated, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		// Distinguish a missing row from a disallowed state.
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, repository.ErrInvalidTransition
	}
	if err != nil {
		return nil, fmt.Errorf("failed to transition appointment: %w", err)
	}
	return &updated, nil
}

func (r *appointmentRepository) GetInProgress(ctx context.Context, date string, doctorID *uuid.UUID) (*model.Appointment, error) {
	return r.getOneByStatus(ctx, date, doctorID, model.AppointmentStatusInProgress)
}

func (r *appointmentRepository) GetNextWaiting(ctx context.Context, date string, doctorID *uuid.UUID) (*model.Appointment, error) {
	return r.getOneByStatus(ctx, date, doctorID, model.AppointmentStatusTokenGenerated)
}

func (r *appointmentRepository) getOneByStatus(ctx context.Context, date string, doctorID *uuid.UUID, status model.AppointmentStatus) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE appointment_date = $1 AND status = $2`
	args := []interface{}{date, status}
	if doctorID != nil {
		query += ` AND doctor_id = $3`
		args = append(args, *doctorID)
	}
	query += ` ORDER BY token_number ASC LIMIT 1`

	var a model.Appointment
	err := r.db.GetContext(ctx, &a, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment by status: %w", err)
	}
	return &a, nil
}
