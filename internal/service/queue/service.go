package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/qtrack/clinic-api/internal/model"
	"github.com/qtrack/clinic-api/internal/repository"
	"github.com/qtrack/clinic-api/internal/service/event"
	"github.com/qtrack/clinic-api/pkg/metrics"
)

// Exported queue errors; handlers map these to user-visible notices.
var (
	ErrNoneWaiting        = repository.ErrNoneWaiting
	ErrConsultationActive = repository.ErrConsultationActive
	ErrInvalidTransition  = repository.ErrInvalidTransition
)

// Service drives the per-appointment token lifecycle:
// scheduled → token_generated → in_progress → completed, with cancel
// allowed from any non-terminal state. Every transition is published to
// the date's queue channel so all viewers stay in sync.
type Service struct {
	repo    repository.AppointmentRepository
	events  event.Publisher
	metrics *metrics.Metrics
}

func NewService(repo repository.AppointmentRepository, events event.Publisher, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		events:  events,
		metrics: m,
	}
}

// GenerateToken assigns the next token number for the appointment's date
// and moves it to token_generated. Tokens are monotonically increasing
// per date with no gaps: assignment is serialized inside the repository.
func (s *Service) GenerateToken(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.AssignNextToken(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) || errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	if s.metrics != nil {
		s.metrics.TokensIssued.Inc()
	}
	s.publish(ctx, apt, model.QueueEventTokenGenerated)
	return apt, nil
}

// CallNext moves the waiting appointment with the lowest token into
// in_progress. It refuses while a consultation is active and reports
// ErrNoneWaiting when the queue is empty; both are notices, not faults.
func (s *Service) CallNext(ctx context.Context, date string, doctorID *uuid.UUID) (*model.Appointment, error) {
	if !model.ValidDate(date) {
		return nil, fmt.Errorf("invalid date %q", date)
	}

	apt, err := s.repo.StartNext(ctx, date, doctorID)
	if err != nil {
		if errors.Is(err, repository.ErrNoneWaiting) || errors.Is(err, repository.ErrConsultationActive) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to call next patient: %w", err)
	}

	s.publish(ctx, apt, model.QueueEventPatientCalled)
	return apt, nil
}

// Complete finishes the consultation; only valid from in_progress.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Transition(ctx, id,
		[]model.AppointmentStatus{model.AppointmentStatusInProgress},
		model.AppointmentStatusCompleted,
	)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) || errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to complete consultation: %w", err)
	}

	s.publish(ctx, apt, model.QueueEventCompleted)
	return apt, nil
}

// Cancel is reachable from any non-terminal state. Cancelled
// appointments drop out of CallNext selection.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Transition(ctx, id,
		[]model.AppointmentStatus{
			model.AppointmentStatusScheduled,
			model.AppointmentStatusTokenGenerated,
			model.AppointmentStatusInProgress,
		},
		model.AppointmentStatusCancelled,
	)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) || errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to cancel appointment: %w", err)
	}

	s.publish(ctx, apt, model.QueueEventCancelled)
	return apt, nil
}

// Current returns the at-most-one in-progress appointment for the date.
func (s *Service) Current(ctx context.Context, date string, doctorID *uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.GetInProgress(ctx, date, doctorID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return apt, err
}

// Next returns the waiting appointment with the smallest token.
func (s *Service) Next(ctx context.Context, date string, doctorID *uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.GetNextWaiting(ctx, date, doctorID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return apt, err
}

// Snapshot partitions the date's appointments for display. The input is
// already in queue order (token ascending, untokened last, then creation
// time), so the partitions preserve it.
func (s *Service) Snapshot(ctx context.Context, date string, doctorID *uuid.UUID) (*model.QueueSnapshot, error) {
	if !model.ValidDate(date) {
		return nil, fmt.Errorf("invalid date %q", date)
	}

	appointments, err := s.repo.List(ctx, &model.AppointmentFilters{Date: date, DoctorID: doctorID})
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	snap := &model.QueueSnapshot{
		Date:      date,
		Waiting:   []*model.Appointment{},
		Scheduled: []*model.Appointment{},
		Completed: []*model.Appointment{},
		Cancelled: []*model.Appointment{},
	}

	for _, apt := range appointments {
		switch apt.Status {
		case model.AppointmentStatusInProgress:
			snap.Current = apt
		case model.AppointmentStatusTokenGenerated:
			if snap.Next == nil {
				snap.Next = apt
			}
			snap.Waiting = append(snap.Waiting, apt)
		case model.AppointmentStatusScheduled:
			snap.Scheduled = append(snap.Scheduled, apt)
		case model.AppointmentStatusCompleted:
			snap.Completed = append(snap.Completed, apt)
		case model.AppointmentStatusCancelled:
			snap.Cancelled = append(snap.Cancelled, apt)
		}
	}

	return snap, nil
}

// Board is the waiting-room view: token numbers only.
func (s *Service) Board(ctx context.Context, date string) (*model.DisplayBoard, error) {
	snap, err := s.Snapshot(ctx, date, nil)
	if err != nil {
		return nil, err
	}

	board := &model.DisplayBoard{
		Date:    date,
		Waiting: len(snap.Waiting),
	}
	if snap.Current != nil {
		board.CurrentToken = snap.Current.TokenNumber
	}
	if snap.Next != nil {
		board.NextToken = snap.Next.TokenNumber
	}
	return board, nil
}

func (s *Service) publish(ctx context.Context, apt *model.Appointment, eventType model.QueueEventType) {
	if s.metrics != nil {
		s.metrics.QueueTransitions.WithLabelValues(string(apt.Status)).Inc()
	}
	if s.events == nil {
		return
	}

	evt := model.QueueEvent{
		Type:          eventType,
		Date:          apt.Date,
		AppointmentID: apt.ID,
		TokenNumber:   apt.TokenNumber,
		Status:        apt.Status,
		OccurredAt:    time.Now(),
	}
	// Event delivery is non-critical; the transition itself has already
	// committed. Log and move on.
	if err := s.events.Publish(ctx, model.QueueChannel(apt.Date), string(eventType), evt); err != nil {
		log.Error().Err(err).
			Str("appointment_id", apt.ID.String()).
			Str("event_type", string(eventType)).
			Msg("failed to enqueue queue event")
	}
}
