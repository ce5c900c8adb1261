package roster

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var markingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rollcall_markings_total",
	Help: "Attendance marking actions by observed status.",
}, []string{"status"})

// Store is the record-store surface the service needs.
type Store interface {
	GetStudent(ctx context.Context, ref Ref) (StudentRecord, error)
	ListStudents(ctx context.Context, batch, section string) ([]StudentRecord, error)
	UpdateStudent(ctx context.Context, ref Ref, patch Patch) error
	ApplyMark(ctx context.Context, ref Ref, observed Status) (StudentRecord, error)
}

// Service coordinates marking actions and roster reads.
type Service struct {
	store  Store
	cache  Cache
	logger *zap.Logger
}

// NewService creates a service. cache may be nil to disable caching.
func NewService(store Store, cache Cache, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, cache: cache, logger: logger}
}

// Mark records one observation for a student and returns the confirmed record.
// The write is a single conditional update; there is no partial state to roll
// back on failure. Repeated calls for the same logical session keep counting;
// no idempotency key exists in the data model.
func (s *Service) Mark(ctx context.Context, ref Ref, observed Status) (StudentRecord, error) {
	if !observed.Valid() {
		return StudentRecord{}, fmt.Errorf("%w %q", ErrInvalidStatus, observed)
	}
	rec, err := s.store.ApplyMark(ctx, ref, observed)
	if err != nil {
		s.logger.Warn("mark failed",
			zap.String("student", ref.Path()),
			zap.String("status", string(observed)),
			zap.Error(err))
		return StudentRecord{}, err
	}
	markingsTotal.WithLabelValues(string(observed)).Inc()
	if s.cache != nil {
		s.cache.Invalidate(ctx, ref.Batch, ref.Section)
	}
	s.logger.Info("attendance marked",
		zap.String("student", ref.Path()),
		zap.String("status", string(observed)),
		zap.Int("total_classes", rec.TotalClasses),
		zap.Int("classes_attended", rec.ClassesAttended))
	return rec, nil
}

// Get reads one student document.
func (s *Service) Get(ctx context.Context, ref Ref) (StudentRecord, error) {
	return s.store.GetStudent(ctx, ref)
}

// Roster returns the students of a batch and section, served from cache when fresh.
func (s *Service) Roster(ctx context.Context, batch, section string) ([]StudentRecord, error) {
	if s.cache != nil {
		if recs, ok := s.cache.GetRoster(ctx, batch, section); ok {
			return recs, nil
		}
	}
	recs, err := s.store.ListStudents(ctx, batch, section)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetRoster(ctx, batch, section, recs)
	}
	return recs, nil
}

// Update applies a partial merge of roster metadata fields.
func (s *Service) Update(ctx context.Context, ref Ref, patch Patch) error {
	if err := s.store.UpdateStudent(ctx, ref, patch); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, ref.Batch, ref.Section)
	}
	return nil
}
