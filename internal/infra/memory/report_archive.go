package memory

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"mathsprint-quiz-service/internal/domain"
)

// ReportStore persists finished-run reports in a backing store (e.g. Postgres).
type ReportStore interface {
	SaveReport(ctx context.Context, id string, report domain.Report) error
	LoadReport(ctx context.Context, id string) (domain.Report, error)
}

// ReportArchive caches reports with TTL in front of an optional backing
// store so repeated lookups of the same finished run stay cheap.
type ReportArchive struct {
	store ReportStore // may be nil
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group

	mu    sync.RWMutex
	cache map[string]cachedReport
}

type cachedReport struct {
	report    domain.Report
	expiresAt time.Time
}

func NewReportArchive(store ReportStore, ttl time.Duration) *ReportArchive {
	return &ReportArchive{
		store: store,
		ttl:   ttl,
		clock: time.Now,
		cache: make(map[string]cachedReport),
	}
}

func (a *ReportArchive) Save(ctx context.Context, id string, report domain.Report) error {
	a.mu.Lock()
	a.cache[id] = cachedReport{report: report, expiresAt: a.clock().Add(a.ttl)}
	a.mu.Unlock()

	if a.store == nil {
		return nil
	}
	return a.store.SaveReport(ctx, id, report)
}

func (a *ReportArchive) Load(ctx context.Context, id string) (domain.Report, error) {
	now := a.clock()

	a.mu.RLock()
	if entry, ok := a.cache[id]; ok && entry.expiresAt.After(now) {
		a.mu.RUnlock()
		return entry.report, nil
	}
	a.mu.RUnlock()

	if a.store == nil {
		return domain.Report{}, domain.ErrReportNotFound
	}

	result, err, _ := a.sf.Do(id, func() (interface{}, error) {
		now := a.clock()
		a.mu.RLock()
		if entry, ok := a.cache[id]; ok && entry.expiresAt.After(now) {
			a.mu.RUnlock()
			return entry.report, nil
		}
		a.mu.RUnlock()

		report, err := a.store.LoadReport(ctx, id)
		if err != nil {
			return domain.Report{}, err
		}

		a.mu.Lock()
		a.cache[id] = cachedReport{report: report, expiresAt: now.Add(a.ttl)}
		a.mu.Unlock()
		return report, nil
	})
	if err != nil {
		return domain.Report{}, err
	}
	return result.(domain.Report), nil
}

// StaticReportStore is a map-backed ReportStore (useful for tests/demos).
type StaticReportStore struct {
	mu      sync.RWMutex
	reports map[string]domain.Report
}

func NewStaticReportStore() *StaticReportStore {
	return &StaticReportStore{reports: make(map[string]domain.Report)}
}

func (s *StaticReportStore) SaveReport(_ context.Context, id string, report domain.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[id] = report
	return nil
}

func (s *StaticReportStore) LoadReport(_ context.Context, id string) (domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if report, ok := s.reports[id]; ok {
		return report, nil
	}
	return domain.Report{}, domain.ErrReportNotFound
}
