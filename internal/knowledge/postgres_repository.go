package knowledge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgxQuerier is the subset of pgxpool.Pool the repository uses; pgxmock
// satisfies it in tests.
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores knowledge entries in the chatbot_knowledge table.
type PostgresRepository struct {
	pool pgxQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("knowledge: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Search runs the provider-side full-text recall filter over the keywords
// column, priority descending.
func (r *PostgresRepository) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, intent, keywords, response, priority, active, created_at, updated_at
		FROM chatbot_knowledge
		WHERE active = TRUE
		  AND to_tsvector('simple', keywords) @@ plainto_tsquery('simple', $1)
		ORDER BY priority DESC
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("knowledge: search failed: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// List returns all entries, including inactive ones, for the admin screens.
func (r *PostgresRepository) List(ctx context.Context) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, intent, keywords, response, priority, active, created_at, updated_at
		FROM chatbot_knowledge
		ORDER BY priority DESC, intent ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("knowledge: list failed: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Create inserts a new entry.
func (r *PostgresRepository) Create(ctx context.Context, entry *Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, `
		INSERT INTO chatbot_knowledge (id, intent, keywords, response, priority, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, entry.ID, entry.Intent, entry.Keywords, entry.Response, entry.Priority, entry.Active).Scan(&createdAt); err != nil {
		return fmt.Errorf("knowledge: insert failed: %w", err)
	}
	entry.CreatedAt = createdAt
	entry.UpdatedAt = createdAt
	return nil
}

// Update rewrites an existing entry.
func (r *PostgresRepository) Update(ctx context.Context, entry *Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE chatbot_knowledge
		SET intent = $2, keywords = $3, response = $4, priority = $5, active = $6, updated_at = NOW()
		WHERE id = $1
	`, entry.ID, entry.Intent, entry.Keywords, entry.Response, entry.Priority, entry.Active)
	if err != nil {
		return fmt.Errorf("knowledge: update failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// Delete removes an entry.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM chatbot_knowledge WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("knowledge: delete failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func scanEntries(rows pgx.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Intent, &e.Keywords, &e.Response, &e.Priority, &e.Active, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("knowledge: scan failed: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("knowledge: rows failed: %w", err)
	}
	return entries, nil
}
