package turnlog

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store handles chat_turns persistence.
type Store struct {
	db *pgxpool.Pool
}

// NewStore returns a Store backed by the given connection pool.
func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Insert writes one entry. Re-inserting a turn ID is silently skipped.
func (s *Store) Insert(ctx context.Context, e Entry) error {
	intents := e.Intents
	if len(intents) == 0 {
		intents = []byte("[]")
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO chat_turns
			(turn_id, user_id, message, intents, degraded, added_pois, removed_pois,
			 option_count, outcome, error_message, streamed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (turn_id) DO NOTHING
	`, e.TurnID, e.UserID, e.Message, string(intents), e.Degraded, nonNil(e.AddedPOIs), nonNil(e.RemovedPOIs),
		e.OptionCount, string(e.Outcome), e.ErrorMessage, e.Streamed, e.CreatedAt)
	return err
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
