package directory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/qtrack/clinic-api/internal/model"
	"github.com/qtrack/clinic-api/internal/repository"
)

const snapshotCacheKey = "directory"

// Service derives the deduplicated patient directory from the
// appointment history. The index is loaded once and then maintained
// incrementally as appointments are created, instead of recomputing the
// whole view on every read.
type Service struct {
	repo        repository.AppointmentRepository
	cache       *gocache.Cache
	snapshotTTL time.Duration

	mu     sync.RWMutex
	index  map[string]*model.PatientRecord
	order  []string
	loaded bool
}

func NewService(repo repository.AppointmentRepository, snapshotTTL time.Duration) *Service {
	if snapshotTTL <= 0 {
		snapshotTTL = 30 * time.Second
	}
	return &Service{
		repo:        repo,
		cache:       gocache.New(snapshotTTL, 2*snapshotTTL),
		snapshotTTL: snapshotTTL,
		index:       make(map[string]*model.PatientRecord),
	}
}

// BuildDirectory derives patient records from appointments ordered by
// creation time descending. The first appointment seen per name+phone
// key wins; later duplicates are discarded, not merged. Order of the
// result is order of first appearance.
func BuildDirectory(appointments []*model.Appointment) []*model.PatientRecord {
	seen := make(map[string]bool, len(appointments))
	records := make([]*model.PatientRecord, 0, len(appointments))

	for _, apt := range appointments {
		key := model.PatientKey(apt.PatientName, apt.PatientPhone)
		if seen[key] {
			continue
		}
		seen[key] = true
		records = append(records, recordFrom(key, apt))
	}

	return records
}

// List returns the directory, serving a cached snapshot when fresh.
func (s *Service) List(ctx context.Context) ([]*model.PatientRecord, error) {
	if cached, ok := s.cache.Get(snapshotCacheKey); ok {
		return cached.([]*model.PatientRecord), nil
	}

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	records := make([]*model.PatientRecord, 0, len(s.order))
	for _, key := range s.order {
		records = append(records, s.index[key])
	}
	s.mu.RUnlock()

	s.cache.Set(snapshotCacheKey, records, s.snapshotTTL)
	return records, nil
}

// Search filters the directory by a case-insensitive substring of name
// or phone. Zero matches is an empty result, not an error.
func (s *Service) Search(ctx context.Context, term string) ([]*model.PatientRecord, error) {
	records, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if term == "" {
		return records, nil
	}

	lower := strings.ToLower(term)
	matched := make([]*model.PatientRecord, 0)
	for _, rec := range records {
		if strings.Contains(strings.ToLower(rec.Name), lower) || strings.Contains(rec.Phone, term) {
			matched = append(matched, rec)
		}
	}
	return matched, nil
}

// Apply folds a newly created appointment into the index. A new
// appointment is by definition the most recently created for its key, so
// it replaces any existing entry and moves to the front, matching what a
// full rebuild over the descending history would produce.
func (s *Service) Apply(apt *model.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		// Nothing in memory yet; the next List will see this row in the
		// repository anyway.
		return
	}

	key := model.PatientKey(apt.PatientName, apt.PatientPhone)
	if _, exists := s.index[key]; exists {
		for i, k := range s.order {
			if k == key {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	s.index[key] = recordFrom(key, apt)
	s.order = append([]string{key}, s.order...)

	s.cache.Delete(snapshotCacheKey)
}

func (s *Service) ensureLoaded(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}

	appointments, err := s.repo.ListRecent(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to load appointment history: %w", err)
	}

	for _, rec := range BuildDirectory(appointments) {
		s.index[rec.Key] = rec
		s.order = append(s.order, rec.Key)
	}
	s.loaded = true
	return nil
}

func recordFrom(key string, apt *model.Appointment) *model.PatientRecord {
	// Last visit follows the most recently created appointment for the
	// key, not the latest appointment date; out-of-order entry can make
	// these diverge.
	return &model.PatientRecord{
		Key:       key,
		Name:      apt.PatientName,
		Age:       apt.PatientAge,
		Gender:    apt.PatientGender,
		Phone:     apt.PatientPhone,
		Email:     apt.PatientEmail,
		LastVisit: apt.Date,
		SeenAt:    apt.CreatedAt,
	}
}
