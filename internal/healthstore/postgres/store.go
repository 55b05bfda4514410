// Package postgres provides the pgx-backed device health store.
package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/healthbridge/internal/healthstore"
	"example.com/healthbridge/internal/observability"
)

// Store persists health records and scope grants in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store over the provided pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// ReadStepIntervals returns step intervals fully contained in [start, end].
func (s *Store) ReadStepIntervals(ctx context.Context, start, end time.Time) ([]healthstore.StepInterval, error) {
	const query = `SELECT step_count, start_time, end_time
        FROM step_records
        WHERE start_time >= $1 AND end_time <= $2
        ORDER BY start_time`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]healthstore.StepInterval, 0)
	for rows.Next() {
		var interval healthstore.StepInterval
		if err := rows.Scan(&interval.Count, &interval.StartTime, &interval.EndTime); err != nil {
			return nil, err
		}
		out = append(out, interval)
	}
	return out, rows.Err()
}

// ReadHeartRateSeries returns session-level series with their nested samples
// for every series fully contained in [start, end].
func (s *Store) ReadHeartRateSeries(ctx context.Context, start, end time.Time) ([]healthstore.HeartRateSeries, error) {
	const query = `SELECT hs.series_id, hs.start_time, hs.end_time, hp.sampled_at, hp.beats_per_minute
        FROM heart_rate_series hs
        JOIN heart_rate_samples hp ON hp.series_id = hs.series_id
        WHERE hs.start_time >= $1 AND hs.end_time <= $2
        ORDER BY hs.start_time, hp.sampled_at`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]healthstore.HeartRateSeries, 0)
	index := make(map[string]int)
	for rows.Next() {
		var (
			seriesID string
			series   healthstore.HeartRateSeries
			point    healthstore.SamplePoint
		)
		if err := rows.Scan(&seriesID, &series.StartTime, &series.EndTime, &point.Time, &point.BeatsPerMinute); err != nil {
			return nil, err
		}
		pos, seen := index[seriesID]
		if !seen {
			pos = len(out)
			index[seriesID] = pos
			out = append(out, series)
		}
		out[pos].Samples = append(out[pos].Samples, point)
	}
	return out, rows.Err()
}

// ReadSleepRecords returns sleep intervals fully contained in [start, end].
func (s *Store) ReadSleepRecords(ctx context.Context, start, end time.Time) ([]healthstore.SleepRecord, error) {
	const query = `SELECT start_time, end_time, title, notes
        FROM sleep_sessions
        WHERE start_time >= $1 AND end_time <= $2
        ORDER BY start_time`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]healthstore.SleepRecord, 0)
	for rows.Next() {
		var rec healthstore.SleepRecord
		if err := rows.Scan(&rec.StartTime, &rec.EndTime, &rec.Title, &rec.Notes); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GrantedScopes returns the currently granted scope set.
func (s *Store) GrantedScopes(ctx context.Context) (map[healthstore.Scope]struct{}, error) {
	rows, err := s.pool.Query(ctx, `SELECT scope FROM scope_grants WHERE granted`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[healthstore.Scope]struct{})
	for rows.Next() {
		var scope string
		if err := rows.Scan(&scope); err != nil {
			return nil, err
		}
		out[healthstore.Scope(scope)] = struct{}{}
	}
	return out, rows.Err()
}

// RecordSteps inserts one step interval.
func (s *Store) RecordSteps(ctx context.Context, interval healthstore.StepInterval) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO step_records (record_id, step_count, start_time, end_time) VALUES ($1,$2,$3,$4)`,
		uuid.NewString(), interval.Count, interval.StartTime, interval.EndTime,
	)
	if err == nil {
		observability.RecordIngestWatermark("steps", interval.EndTime)
	}
	return err
}

// RecordHeartRate inserts a series and its samples in a single transaction.
func (s *Store) RecordHeartRate(ctx context.Context, series healthstore.HeartRateSeries) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	seriesID := uuid.NewString()
	if _, err := tx.Exec(ctx,
		`INSERT INTO heart_rate_series (series_id, start_time, end_time) VALUES ($1,$2,$3)`,
		seriesID, series.StartTime, series.EndTime,
	); err != nil {
		return err
	}
	for _, point := range series.Samples {
		if _, err := tx.Exec(ctx,
			`INSERT INTO heart_rate_samples (sample_id, series_id, sampled_at, beats_per_minute) VALUES ($1,$2,$3,$4)`,
			uuid.NewString(), seriesID, point.Time, point.BeatsPerMinute,
		); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordIngestWatermark("heart_rate", series.EndTime)
	return nil
}

// RecordSleep inserts one sleep session.
func (s *Store) RecordSleep(ctx context.Context, rec healthstore.SleepRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sleep_sessions (session_id, start_time, end_time, title, notes) VALUES ($1,$2,$3,$4,$5)`,
		uuid.NewString(), rec.StartTime, rec.EndTime, rec.Title, rec.Notes,
	)
	if err == nil {
		observability.RecordIngestWatermark("sleep", rec.EndTime)
	}
	return err
}

// SetGrant upserts the granted flag for one scope.
func (s *Store) SetGrant(ctx context.Context, scope healthstore.Scope, granted bool) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO scope_grants (scope, granted, updated_at) VALUES ($1,$2,now())
         ON CONFLICT (scope) DO UPDATE SET granted = EXCLUDED.granted, updated_at = now()`,
		string(scope), granted,
	)
	return err
}
