package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/aykutaslan/event-analytics-pipeline/internal/domain"
	"github.com/aykutaslan/event-analytics-pipeline/internal/repository"
)

// Repository implements EventRepository for Postgres
type Repository struct {
	client *Client
	log    *zap.Logger
}

// NewRepository creates a new Postgres repository
func NewRepository(client *Client, log *zap.Logger) *Repository {
	return &Repository{
		client: client,
		log:    log,
	}
}

// InitSchema creates the events table and the index paths backing every
// analytics query: occurred_at, user_id and event_type alone, plus the
// composite pairs used by the windowed aggregations.
func (r *Repository) InitSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS events (
			event_id UUID PRIMARY KEY,
			occurred_at TIMESTAMPTZ NOT NULL,
			user_id BIGINT NOT NULL,
			event_type TEXT NOT NULL,
			properties JSONB NOT NULL DEFAULT '{}',
			ingested_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_occurred_at ON events (occurred_at)`,
		`CREATE INDEX IF NOT EXISTS idx_events_user_id ON events (user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_event_type ON events (event_type)`,
		`CREATE INDEX IF NOT EXISTS idx_events_occurred_at_user_id ON events (occurred_at, user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_occurred_at_event_type ON events (occurred_at, event_type)`,
		`CREATE INDEX IF NOT EXISTS idx_events_user_id_occurred_at ON events (user_id, occurred_at)`,
	}

	for _, stmt := range statements {
		if _, err := r.client.DB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	r.log.Info("Postgres schema initialized successfully")
	return nil
}

// Insert writes a single event. The primary key on event_id enforces
// uniqueness server-side; a conflicting insert affects zero rows and is
// reported as OutcomeAlreadyExists rather than an error.
func (r *Repository) Insert(ctx context.Context, event *domain.Event) (repository.InsertOutcome, error) {
	properties, err := json.Marshal(event.Properties)
	if err != nil {
		return 0, fmt.Errorf("failed to encode properties: %w", err)
	}

	result, err := r.client.DB().ExecContext(ctx, `
		INSERT INTO events (event_id, occurred_at, user_id, event_type, properties, ingested_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id) DO NOTHING`,
		event.EventID, event.OccurredAt, event.UserID, event.EventType, properties, event.IngestedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert event: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read insert result: %w", err)
	}

	if affected == 0 {
		return repository.OutcomeAlreadyExists, nil
	}
	return repository.OutcomeInserted, nil
}

// DailyActiveUsers counts distinct users per UTC calendar day of
// occurred_at within [from, to), ascending by day. Days with no events
// produce no row.
func (r *Repository) DailyActiveUsers(ctx context.Context, from, to time.Time) ([]repository.DAURow, error) {
	rows, err := r.client.DB().QueryContext(ctx, `
		SELECT to_char(occurred_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
		       COUNT(DISTINCT user_id) AS dau
		FROM events
		WHERE occurred_at >= $1 AND occurred_at < $2
		GROUP BY day
		ORDER BY day ASC`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily active users: %w", err)
	}
	defer r.closeRows(rows, "daily active users")

	result := []repository.DAURow{}
	for rows.Next() {
		var row repository.DAURow
		if err := rows.Scan(&row.Date, &row.DAU); err != nil {
			return nil, fmt.Errorf("failed to scan daily active users row: %w", err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily active users rows: %w", err)
	}

	return result, nil
}

// TopEventTypes returns the limit most frequent event types in [from, to).
// Ties break on event_type ascending so equal counts always rank in the
// same order.
func (r *Repository) TopEventTypes(ctx context.Context, from, to time.Time, limit int) ([]repository.EventTypeCount, error) {
	rows, err := r.client.DB().QueryContext(ctx, `
		SELECT event_type, COUNT(*) AS count
		FROM events
		WHERE occurred_at >= $1 AND occurred_at < $2
		GROUP BY event_type
		ORDER BY count DESC, event_type ASC
		LIMIT $3`,
		from, to, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query top event types: %w", err)
	}
	defer r.closeRows(rows, "top event types")

	result := []repository.EventTypeCount{}
	for rows.Next() {
		var row repository.EventTypeCount
		if err := rows.Scan(&row.EventType, &row.Count); err != nil {
			return nil, fmt.Errorf("failed to scan top event types row: %w", err)
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating top event types rows: %w", err)
	}

	return result, nil
}

// DistinctUsers returns the distinct user ids with at least one event in
// [from, to).
func (r *Repository) DistinctUsers(ctx context.Context, from, to time.Time) ([]int64, error) {
	rows, err := r.client.DB().QueryContext(ctx, `
		SELECT DISTINCT user_id
		FROM events
		WHERE occurred_at >= $1 AND occurred_at < $2`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct users: %w", err)
	}
	defer r.closeRows(rows, "distinct users")

	users := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan distinct users row: %w", err)
		}
		users = append(users, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating distinct users rows: %w", err)
	}

	return users, nil
}

// RetainedUsers counts the cohort members with at least one event in
// [from, to). Only users in the given cohort are considered.
func (r *Repository) RetainedUsers(ctx context.Context, from, to time.Time, cohort []int64) (int64, error) {
	if len(cohort) == 0 {
		return 0, nil
	}

	var count int64
	err := r.client.DB().QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT user_id)
		FROM events
		WHERE occurred_at >= $1 AND occurred_at < $2
		  AND user_id = ANY($3)`,
		from, to, pq.Array(cohort),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to query retained users: %w", err)
	}

	return count, nil
}

// TotalEvents returns the total number of persisted events
func (r *Repository) TotalEvents(ctx context.Context) (int64, error) {
	var count int64
	err := r.client.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// OldestEvent returns the earliest occurred_at in the store
func (r *Repository) OldestEvent(ctx context.Context) (time.Time, bool, error) {
	return r.boundaryEvent(ctx, "ASC")
}

// NewestEvent returns the latest occurred_at in the store
func (r *Repository) NewestEvent(ctx context.Context) (time.Time, bool, error) {
	return r.boundaryEvent(ctx, "DESC")
}

func (r *Repository) boundaryEvent(ctx context.Context, direction string) (time.Time, bool, error) {
	var ts time.Time
	err := r.client.DB().QueryRowContext(ctx, fmt.Sprintf(`
		SELECT occurred_at FROM events
		ORDER BY occurred_at %s
		LIMIT 1`, direction),
	).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query event time bound: %w", err)
	}
	return ts.UTC(), true, nil
}

// Ping checks if the Postgres connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.DB().PingContext(ctx)
}

// Close closes the Postgres connection
func (r *Repository) Close() error {
	return r.client.Close()
}

func (r *Repository) closeRows(rows *sql.Rows, query string) {
	if err := rows.Close(); err != nil {
		r.log.Error("Failed to close rows", zap.String("query", query), zap.Error(err))
	}
}
