package queue

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qtrack/clinic-api/internal/model"
	"github.com/qtrack/clinic-api/internal/repository"
)

// fakeAppointmentRepo mirrors the postgres repository's transition
// semantics in memory.
type fakeAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*model.Appointment
	seq          int
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*model.Appointment)}
}

func (r *fakeAppointmentRepo) Create(_ context.Context, apt *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if apt.ID == uuid.Nil {
		apt.ID = uuid.New()
	}
	r.seq++
	apt.CreatedAt = time.Unix(int64(r.seq), 0)
	if apt.Status == "" {
		apt.Status = model.AppointmentStatusScheduled
	}
	r.appointments[apt.ID] = apt
	return nil
}

func (r *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	apt, ok := r.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *apt
	return &cp, nil
}

func (r *fakeAppointmentRepo) Update(_ context.Context, apt *model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[apt.ID]; !ok {
		return repository.ErrNotFound
	}
	r.appointments[apt.ID] = apt
	return nil
}

func (r *fakeAppointmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.appointments, id)
	return nil
}

func (r *fakeAppointmentRepo) List(_ context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.Appointment
	for _, apt := range r.appointments {
		if filters != nil {
			if filters.Date != "" && apt.Date != filters.Date {
				continue
			}
			if filters.DoctorID != nil && (apt.DoctorID == nil || *apt.DoctorID != *filters.DoctorID) {
				continue
			}
			if filters.Status != "" && apt.Status != filters.Status {
				continue
			}
		}
		cp := *apt
		out = append(out, &cp)
	}

	// token ascending with untokened last, creation time as tie-break
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].TokenNumber, out[j].TokenNumber
		switch {
		case ti != nil && tj != nil && *ti != *tj:
			return *ti < *tj
		case ti != nil && tj == nil:
			return true
		case ti == nil && tj != nil:
			return false
		default:
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
	})
	return out, nil
}

func (r *fakeAppointmentRepo) ListRecent(_ context.Context, limit int) ([]*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*model.Appointment
	for _, apt := range r.appointments {
		cp := *apt
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeAppointmentRepo) AssignNextToken(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	apt, ok := r.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if apt.Status != model.AppointmentStatusScheduled {
		return nil, repository.ErrInvalidTransition
	}

	max := 0
	for _, other := range r.appointments {
		if other.Date == apt.Date && other.TokenNumber != nil && *other.TokenNumber > max {
			max = *other.TokenNumber
		}
	}
	token := max + 1
	now := time.Now()
	apt.TokenNumber = &token
	apt.TokenIssuedAt = &now
	apt.Status = model.AppointmentStatusTokenGenerated

	cp := *apt
	return &cp, nil
}

func (r *fakeAppointmentRepo) StartNext(_ context.Context, date string, doctorID *uuid.UUID) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var next *model.Appointment
	for _, apt := range r.appointments {
		if apt.Date != date {
			continue
		}
		if doctorID != nil && (apt.DoctorID == nil || *apt.DoctorID != *doctorID) {
			continue
		}
		if apt.Status == model.AppointmentStatusInProgress {
			return nil, repository.ErrConsultationActive
		}
		if apt.Status != model.AppointmentStatusTokenGenerated {
			continue
		}
		if next == nil || *apt.TokenNumber < *next.TokenNumber {
			next = apt
		}
	}
	if next == nil {
		return nil, repository.ErrNoneWaiting
	}

	next.Status = model.AppointmentStatusInProgress
	cp := *next
	return &cp, nil
}

func (r *fakeAppointmentRepo) Transition(_ context.Context, id uuid.UUID, from []model.AppointmentStatus, to model.AppointmentStatus) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	apt, ok := r.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	allowed := false
	for _, s := range from {
		if apt.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, repository.ErrInvalidTransition
	}

	apt.Status = to
	cp := *apt
	return &cp, nil
}

func (r *fakeAppointmentRepo) GetInProgress(_ context.Context, date string, doctorID *uuid.UUID) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, apt := range r.appointments {
		if apt.Date == date && apt.Status == model.AppointmentStatusInProgress {
			if doctorID != nil && (apt.DoctorID == nil || *apt.DoctorID != *doctorID) {
				continue
			}
			cp := *apt
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAppointmentRepo) GetNextWaiting(_ context.Context, date string, doctorID *uuid.UUID) (*model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var next *model.Appointment
	for _, apt := range r.appointments {
		if apt.Date != date || apt.Status != model.AppointmentStatusTokenGenerated {
			continue
		}
		if doctorID != nil && (apt.DoctorID == nil || *apt.DoctorID != *doctorID) {
			continue
		}
		if next == nil || *apt.TokenNumber < *next.TokenNumber {
			next = apt
		}
	}
	if next == nil {
		return nil, repository.ErrNotFound
	}
	cp := *next
	return &cp, nil
}

type capturedEvent struct {
	channel   string
	eventType string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (p *fakePublisher) Publish(_ context.Context, channel, eventType string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, capturedEvent{channel: channel, eventType: eventType})
	return nil
}

func newTestService() (*Service, *fakeAppointmentRepo, *fakePublisher) {
	repo := newFakeAppointmentRepo()
	pub := &fakePublisher{}
	return NewService(repo, pub, nil), repo, pub
}

func createScheduled(t *testing.T, repo *fakeAppointmentRepo, date, patient string) *model.Appointment {
	t.Helper()
	apt := &model.Appointment{
		PatientName:  patient,
		PatientPhone: "9000000000",
		DoctorName:   "Dr. Asha Rao",
		Date:         date,
		Type:         model.AppointmentTypeConsultation,
		Status:       model.AppointmentStatusScheduled,
	}
	require.NoError(t, repo.Create(context.Background(), apt))
	return apt
}

func TestGenerateTokenSequencesPerDate(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	a := createScheduled(t, repo, "2025-03-10", "Asha")
	b := createScheduled(t, repo, "2025-03-10", "Binu")
	other := createScheduled(t, repo, "2025-03-11", "Chitra")

	first, err := svc.GenerateToken(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, *first.TokenNumber)
	assert.Equal(t, model.AppointmentStatusTokenGenerated, first.Status)
	assert.NotNil(t, first.TokenIssuedAt)

	second, err := svc.GenerateToken(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, *second.TokenNumber)

	// a different date starts its own sequence
	otherDay, err := svc.GenerateToken(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, *otherDay.TokenNumber)
}

func TestGenerateTokenRejectsNonScheduled(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	apt := createScheduled(t, repo, "2025-03-10", "Asha")
	_, err := svc.GenerateToken(ctx, apt.ID)
	require.NoError(t, err)

	_, err = svc.GenerateToken(ctx, apt.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestGenerateTokenUnknownAppointment(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.GenerateToken(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCallNextPicksLowestToken(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	a := createScheduled(t, repo, "2025-03-10", "Asha")
	b := createScheduled(t, repo, "2025-03-10", "Binu")
	_, err := svc.GenerateToken(ctx, a.ID)
	require.NoError(t, err)
	_, err = svc.GenerateToken(ctx, b.ID)
	require.NoError(t, err)

	called, err := svc.CallNext(ctx, "2025-03-10", nil)
	require.NoError(t, err)
	assert.Equal(t, a.ID, called.ID)
	assert.Equal(t, model.AppointmentStatusInProgress, called.Status)
}

func TestCallNextRefusesWhileConsultationActive(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	a := createScheduled(t, repo, "2025-03-10", "Asha")
	b := createScheduled(t, repo, "2025-03-10", "Binu")
	_, err := svc.GenerateToken(ctx, a.ID)
	require.NoError(t, err)
	_, err = svc.GenerateToken(ctx, b.ID)
	require.NoError(t, err)

	_, err = svc.CallNext(ctx, "2025-03-10", nil)
	require.NoError(t, err)

	_, err = svc.CallNext(ctx, "2025-03-10", nil)
	assert.ErrorIs(t, err, ErrConsultationActive)

	// completing frees the queue
	_, err = svc.Complete(ctx, a.ID)
	require.NoError(t, err)

	next, err := svc.CallNext(ctx, "2025-03-10", nil)
	require.NoError(t, err)
	assert.Equal(t, b.ID, next.ID)
}

func TestCallNextEmptyQueue(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	// scheduled-only appointments are not waiting
	createScheduled(t, repo, "2025-03-10", "Asha")

	_, err := svc.CallNext(ctx, "2025-03-10", nil)
	assert.ErrorIs(t, err, ErrNoneWaiting)
}

func TestCallNextRejectsBadDate(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.CallNext(context.Background(), "10-03-2025", nil)
	assert.Error(t, err)
}

func TestCompleteOnlyFromInProgress(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	apt := createScheduled(t, repo, "2025-03-10", "Asha")
	_, err := svc.Complete(ctx, apt.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.GenerateToken(ctx, apt.ID)
	require.NoError(t, err)
	_, err = svc.Complete(ctx, apt.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.CallNext(ctx, "2025-03-10", nil)
	require.NoError(t, err)

	done, err := svc.Complete(ctx, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCompleted, done.Status)
}

func TestCancelFromAnyNonTerminalState(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	scheduled := createScheduled(t, repo, "2025-03-10", "Asha")
	tokened := createScheduled(t, repo, "2025-03-10", "Binu")
	inProgress := createScheduled(t, repo, "2025-03-10", "Chitra")

	_, err := svc.GenerateToken(ctx, tokened.ID)
	require.NoError(t, err)
	_, err = svc.GenerateToken(ctx, inProgress.ID)
	require.NoError(t, err)

	// tokened holds token 1, so it is called first; cancel it and call
	// again to bring inProgress into consultation
	_, err = svc.CallNext(ctx, "2025-03-10", nil)
	require.NoError(t, err)
	_, err = svc.Complete(ctx, tokened.ID)
	require.NoError(t, err)
	_, err = svc.CallNext(ctx, "2025-03-10", nil)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, scheduled.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)

	cancelled, err = svc.Cancel(ctx, inProgress.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)

	// terminal states refuse
	_, err = svc.Cancel(ctx, tokened.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = svc.Cancel(ctx, inProgress.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelledDropsOutOfQueue(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	a := createScheduled(t, repo, "2025-03-10", "Asha")
	b := createScheduled(t, repo, "2025-03-10", "Binu")
	_, err := svc.GenerateToken(ctx, a.ID)
	require.NoError(t, err)
	_, err = svc.GenerateToken(ctx, b.ID)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, a.ID)
	require.NoError(t, err)

	called, err := svc.CallNext(ctx, "2025-03-10", nil)
	require.NoError(t, err)
	assert.Equal(t, b.ID, called.ID)
}

func TestTokenNumbersSurviveCancellation(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	a := createScheduled(t, repo, "2025-03-10", "Asha")
	b := createScheduled(t, repo, "2025-03-10", "Binu")
	_, err := svc.GenerateToken(ctx, a.ID)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, a.ID)
	require.NoError(t, err)

	// the cancelled token is not reused
	tokened, err := svc.GenerateToken(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, *tokened.TokenNumber)
}

func TestSnapshotPartitions(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	current := createScheduled(t, repo, "2025-03-10", "Asha")
	waiting1 := createScheduled(t, repo, "2025-03-10", "Binu")
	waiting2 := createScheduled(t, repo, "2025-03-10", "Chitra")
	scheduled := createScheduled(t, repo, "2025-03-10", "Dev")
	cancelled := createScheduled(t, repo, "2025-03-10", "Esha")

	for _, apt := range []*model.Appointment{current, waiting1, waiting2} {
		_, err := svc.GenerateToken(ctx, apt.ID)
		require.NoError(t, err)
	}
	_, err := svc.CallNext(ctx, "2025-03-10", nil)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, cancelled.ID)
	require.NoError(t, err)

	snap, err := svc.Snapshot(ctx, "2025-03-10", nil)
	require.NoError(t, err)

	require.NotNil(t, snap.Current)
	assert.Equal(t, current.ID, snap.Current.ID)
	require.NotNil(t, snap.Next)
	assert.Equal(t, waiting1.ID, snap.Next.ID)
	require.Len(t, snap.Waiting, 2)
	assert.Equal(t, waiting1.ID, snap.Waiting[0].ID)
	assert.Equal(t, waiting2.ID, snap.Waiting[1].ID)
	require.Len(t, snap.Scheduled, 1)
	assert.Equal(t, scheduled.ID, snap.Scheduled[0].ID)
	require.Len(t, snap.Cancelled, 1)
	assert.Empty(t, snap.Completed)
}

func TestBoardExposesTokensOnly(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	a := createScheduled(t, repo, "2025-03-10", "Asha")
	b := createScheduled(t, repo, "2025-03-10", "Binu")
	_, err := svc.GenerateToken(ctx, a.ID)
	require.NoError(t, err)
	_, err = svc.GenerateToken(ctx, b.ID)
	require.NoError(t, err)
	_, err = svc.CallNext(ctx, "2025-03-10", nil)
	require.NoError(t, err)

	board, err := svc.Board(ctx, "2025-03-10")
	require.NoError(t, err)
	require.NotNil(t, board.CurrentToken)
	assert.Equal(t, 1, *board.CurrentToken)
	require.NotNil(t, board.NextToken)
	assert.Equal(t, 2, *board.NextToken)
	assert.Equal(t, 1, board.Waiting)
}

func TestTransitionsPublishEvents(t *testing.T) {
	svc, repo, pub := newTestService()
	ctx := context.Background()

	apt := createScheduled(t, repo, "2025-03-10", "Asha")
	_, err := svc.GenerateToken(ctx, apt.ID)
	require.NoError(t, err)
	_, err = svc.CallNext(ctx, "2025-03-10", nil)
	require.NoError(t, err)
	_, err = svc.Complete(ctx, apt.ID)
	require.NoError(t, err)

	require.Len(t, pub.events, 3)
	assert.Equal(t, string(model.QueueEventTokenGenerated), pub.events[0].eventType)
	assert.Equal(t, string(model.QueueEventPatientCalled), pub.events[1].eventType)
	assert.Equal(t, string(model.QueueEventCompleted), pub.events[2].eventType)
	for _, evt := range pub.events {
		assert.Equal(t, model.QueueChannel("2025-03-10"), evt.channel)
	}
}
