package feedback

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/onnwee/venuefinder/internal/tracing"
)

const insertFeedbackQuery = `
	INSERT INTO feedback (id, name, message, created_at)
	VALUES ($1, $2, $3, $4)
`

const listFeedbackQuery = `
	SELECT id, name, message, created_at
	FROM feedback
	ORDER BY created_at DESC, id DESC
	LIMIT $1
`

// PostgresStore implements Store on the feedback table.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{db: db, logger: logger}
}

// Create validates and inserts a new entry.
func (s *PostgresStore) Create(ctx context.Context, name, message string) (_ *Entry, err error) {
	e, err := NewEntry(name, message, time.Now())
	if err != nil {
		return nil, err
	}

	ctx, endSpan := tracing.StartDBSpan(ctx, "feedback", tracing.DBOperationInsert)
	defer func() { endSpan(err) }()

	if _, err = s.db.ExecContext(ctx, insertFeedbackQuery, e.ID, e.Name, e.Message, e.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert feedback: %w", err)
	}

	s.logger.InfoContext(ctx, "feedback stored", slog.String("feedback_id", e.ID))
	return e, nil
}

// List returns up to limit entries, newest first.
func (s *PostgresStore) List(ctx context.Context, limit int) (entries []Entry, err error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	ctx, endSpan := tracing.StartDBSpan(ctx, "feedback", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	rows, err := s.db.QueryContext(ctx, listFeedbackQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	entries = []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback: %w", err)
	}
	return entries, nil
}
