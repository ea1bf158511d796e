// README: Turn-log module tests (async recording and Postgres persistence).
package turnlog

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryStore struct {
	mu      sync.Mutex
	entries []Entry
	err     error
}

func (m *memoryStore) Insert(ctx context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func TestRecord_WritesAfterRequestCancelled(t *testing.T) {
	store := &memoryStore{}
	svc := newService(store, time.Second, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	svc.Record(ctx, Entry{TurnID: uuid.NewString(), Message: "add Tokyo", Outcome: OutcomeApplied})
	cancel()
	svc.Close()

	require.Len(t, store.entries, 1)
	assert.Equal(t, "add Tokyo", store.entries[0].Message)
	assert.False(t, store.entries[0].CreatedAt.IsZero())
}

func TestRecord_DropsInvalidEntries(t *testing.T) {
	store := &memoryStore{}
	svc := newService(store, time.Second, zap.NewNop())

	svc.Record(context.Background(), Entry{Message: "no id", Outcome: OutcomeApplied})
	svc.Record(context.Background(), Entry{TurnID: uuid.NewString()})
	svc.Close()

	assert.Empty(t, store.entries)
}

func TestRecord_StoreFailureIsSwallowed(t *testing.T) {
	store := &memoryStore{err: errors.New("db down")}
	svc := newService(store, time.Second, zap.NewNop())

	svc.Record(context.Background(), Entry{TurnID: uuid.NewString(), Outcome: OutcomeFailed})
	svc.Close()

	assert.Empty(t, store.entries)
}

// TestStoreInsert verifies an entry lands in chat_turns and duplicates are ignored.
func TestStoreInsert(t *testing.T) {
	store, db := setupTestStore(t)
	ctx := context.Background()

	id := uuid.NewString()
	e := Entry{
		TurnID:      id,
		UserID:      "firebase-uid-1",
		Message:     "add Kyoto",
		Intents:     []byte(`[{"intent":"Points_Of_Interest","action":"add","value":"Kyoto"}]`),
		AddedPOIs:   []string{"Kinkaku-ji", "Fushimi Inari"},
		OptionCount: 2,
		Outcome:     OutcomeApplied,
		Streamed:    true,
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, store.Insert(ctx, e))
	require.NoError(t, store.Insert(ctx, e))

	var (
		count   int
		userID  string
		added   []string
		removed []string
		outcome string
	)
	require.NoError(t, db.QueryRow(ctx,
		"SELECT count(*) OVER (), user_id, added_pois, removed_pois, outcome FROM chat_turns WHERE turn_id = $1", id,
	).Scan(&count, &userID, &added, &removed, &outcome))

	assert.Equal(t, 1, count)
	assert.Equal(t, "firebase-uid-1", userID)
	assert.Equal(t, []string{"Kinkaku-ji", "Fushimi Inari"}, added)
	assert.Empty(t, removed)
	assert.Equal(t, string(OutcomeApplied), outcome)
}

// setupTestStore creates a real postgres-backed Store for integration tests.
// It skips the test when ATLAS_TEST_DSN is not set.
func setupTestStore(t *testing.T) (*Store, *pgxpool.Pool) {
	t.Helper()

	dsn := os.Getenv("ATLAS_TEST_DSN")
	if dsn == "" {
		t.Skip("ATLAS_TEST_DSN not set; skipping DB-backed tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := applyMigrations(ctx, db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := db.Exec(ctx, "TRUNCATE TABLE chat_turns"); err != nil {
		t.Fatalf("truncate chat_turns: %v", err)
	}

	return NewStore(db), db
}

func applyMigrations(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	content, err := os.ReadFile(filepath.Join(root, "migrations", "0001_turns.sql"))
	if err != nil {
		return err
	}
	for _, stmt := range splitSQL(stripSQLComments(string(content))) {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func splitSQL(input string) []string {
	parts := strings.Split(input, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if stmt := strings.TrimSpace(p); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
