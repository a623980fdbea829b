package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostgresStore is the durable copy of session contexts. Saves use a
// compare-and-swap on the revision column so concurrent writers for the same
// session never silently overwrite each other.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates the durable context store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	if db == nil {
		panic("conversation: db cannot be nil")
	}
	return &PostgresStore{db: db}
}

// Load fetches the stored context, ErrContextNotFound when the session is new.
func (s *PostgresStore) Load(ctx context.Context, sessionID string) (*Context, error) {
	var (
		c            Context
		messagesJSON []byte
		needsJSON    []byte
		leadJSON     []byte
		userIntent   sql.NullString
		businessCtx  sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT session_id, messages, user_intent, detected_needs, lead_info,
		       business_context, revision, created_at, updated_at
		FROM chat_conversations
		WHERE session_id = $1
	`, sessionID).Scan(
		&c.SessionID, &messagesJSON, &userIntent, &needsJSON, &leadJSON,
		&businessCtx, &c.Revision, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrContextNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("conversation: load failed: %w", err)
	}

	if err := json.Unmarshal(messagesJSON, &c.Messages); err != nil {
		return nil, fmt.Errorf("conversation: decode messages failed: %w", err)
	}
	if len(needsJSON) > 0 {
		if err := json.Unmarshal(needsJSON, &c.DetectedNeeds); err != nil {
			return nil, fmt.Errorf("conversation: decode needs failed: %w", err)
		}
	}
	if len(leadJSON) > 0 {
		var lead LeadInfo
		if err := json.Unmarshal(leadJSON, &lead); err != nil {
			return nil, fmt.Errorf("conversation: decode lead failed: %w", err)
		}
		if lead != (LeadInfo{}) {
			c.LeadInfo = &lead
		}
	}
	c.UserIntent = userIntent.String
	c.BusinessContext = businessCtx.String
	return &c, nil
}

// Save persists the context. A context with Revision zero is inserted; an
// existing one is updated only if the stored revision still matches. Either
// way a concurrent writer surfaces as ErrRevisionConflict, and on success the
// in-memory Revision is advanced to match the row.
func (s *PostgresStore) Save(ctx context.Context, c *Context) error {
	messagesJSON, err := json.Marshal(c.Messages)
	if err != nil {
		return fmt.Errorf("conversation: encode messages failed: %w", err)
	}
	needsJSON, err := json.Marshal(c.DetectedNeeds)
	if err != nil {
		return fmt.Errorf("conversation: encode needs failed: %w", err)
	}
	var leadJSON []byte
	if c.LeadInfo != nil {
		if leadJSON, err = json.Marshal(c.LeadInfo); err != nil {
			return fmt.Errorf("conversation: encode lead failed: %w", err)
		}
	}

	now := time.Now().UTC()
	if c.Revision == 0 {
		result, err := s.db.ExecContext(ctx, `
			INSERT INTO chat_conversations (
				id, session_id, messages, user_intent, detected_needs,
				lead_info, business_context, revision, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8, $8)
			ON CONFLICT (session_id) DO NOTHING
		`, uuid.New(), c.SessionID, messagesJSON, c.UserIntent, needsJSON,
			leadJSON, c.BusinessContext, now,
		)
		if err != nil {
			return fmt.Errorf("conversation: insert failed: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("conversation: insert result failed: %w", err)
		}
		if rows == 0 {
			// Another writer created the session first.
			return ErrRevisionConflict
		}
		c.Revision = 1
		c.UpdatedAt = now
		return nil
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE chat_conversations SET
			messages = $2,
			user_intent = $3,
			detected_needs = $4,
			lead_info = $5,
			business_context = $6,
			revision = revision + 1,
			updated_at = $7
		WHERE session_id = $1 AND revision = $8
	`, c.SessionID, messagesJSON, c.UserIntent, needsJSON, leadJSON,
		c.BusinessContext, now, c.Revision,
	)
	if err != nil {
		return fmt.Errorf("conversation: update failed: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("conversation: update result failed: %w", err)
	}
	if rows == 0 {
		return ErrRevisionConflict
	}
	c.Revision++
	c.UpdatedAt = now
	return nil
}
