package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var dbQueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "fileshare_db_query_duration_seconds",
		Help:    "Duration of file store queries in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"op"},
)

// SQLExecutor는 스토어가 *sql.DB 구현 세부사항에 묶이지 않도록 하는 최소 인터페이스입니다.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqlDBExecutor struct {
	db *sql.DB
}

// NewSQLExecutor는 *sql.DB를 감싸고 쿼리 시간을 기록하는 SQLExecutor를 생성합니다.
func NewSQLExecutor(db *sql.DB) SQLExecutor {
	return &sqlDBExecutor{db: db}
}

func (s *sqlDBExecutor) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	defer observeQuery("exec", time.Now())
	return s.db.ExecContext(ctx, query, args...)
}

func (s *sqlDBExecutor) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	defer observeQuery("query_row", time.Now())
	return s.db.QueryRowContext(ctx, query, args...)
}

func observeQuery(op string, start time.Time) {
	dbQueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
