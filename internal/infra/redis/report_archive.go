package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"mathsprint-quiz-service/internal/domain"
)

// ReportStore persists finished-run reports in a backing store (e.g. Postgres).
type ReportStore interface {
	SaveReport(ctx context.Context, id string, report domain.Report) error
	LoadReport(ctx context.Context, id string) (domain.Report, error)
}

// ReportArchive keeps finished reports in Redis as JSON with a TTL and
// falls back to the backing store on a cache miss.
// Reports are stored as: SET mathsprint:report:{id} {json} EX ttl
type ReportArchive struct {
	client *redis.Client
	store  ReportStore // may be nil
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewReportArchive(client *redis.Client, store ReportStore, ttl time.Duration) *ReportArchive {
	return &ReportArchive{
		client: client,
		store:  store,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (a *ReportArchive) Save(ctx context.Context, id string, report domain.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	if err := a.client.Set(ctx, a.key(id), data, a.ttlWithJitter()).Err(); err != nil {
		return err
	}
	if a.store == nil {
		return nil
	}
	return a.store.SaveReport(ctx, id, report)
}

func (a *ReportArchive) Load(ctx context.Context, id string) (domain.Report, error) {
	if report, ok := a.fromCache(ctx, id); ok {
		return report, nil
	}
	if a.store == nil {
		return domain.Report{}, domain.ErrReportNotFound
	}

	result, err, _ := a.sf.Do(id, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if report, ok := a.fromCache(ctx, id); ok {
			return report, nil
		}

		report, err := a.store.LoadReport(ctx, id)
		if err != nil {
			return domain.Report{}, err
		}

		if data, err := json.Marshal(report); err == nil {
			_ = a.client.Set(ctx, a.key(id), data, a.ttlWithJitter()).Err()
		}
		return report, nil
	})
	if err != nil {
		return domain.Report{}, err
	}
	return result.(domain.Report), nil
}

func (a *ReportArchive) fromCache(ctx context.Context, id string) (domain.Report, bool) {
	data, err := a.client.Get(ctx, a.key(id)).Bytes()
	if err != nil {
		return domain.Report{}, false
	}
	var report domain.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return domain.Report{}, false
	}
	return report, true
}

func (a *ReportArchive) key(id string) string {
	return "mathsprint:report:" + id
}

func (a *ReportArchive) ttlWithJitter() time.Duration {
	if a.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(a.ttl) / 10
	return a.ttl + time.Duration(a.rnd.Int63n(jitterMax+1))
}
