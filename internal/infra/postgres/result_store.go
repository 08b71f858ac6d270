package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"mathsprint-quiz-service/internal/domain"
)

// ResultStore persists finished-run reports as JSONB in Postgres.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

func (s *ResultStore) SaveReport(ctx context.Context, id string, report domain.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO results (id, data) VALUES ($1, $2::jsonb)
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`,
		id, data)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func (s *ResultStore) LoadReport(ctx context.Context, id string) (domain.Report, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM results WHERE id=$1`, id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Report{}, domain.ErrReportNotFound
	}
	if err != nil {
		return domain.Report{}, fmt.Errorf("load report: %w", err)
	}
	var report domain.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return domain.Report{}, fmt.Errorf("unmarshal report: %w", err)
	}
	return report, nil
}
