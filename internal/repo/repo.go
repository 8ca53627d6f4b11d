package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"eventease/internal/model"
)

// The three persisted records live under fixed namespaced keys in a flat
// key-value table. The managers are the sole writers.
const (
	KeyCurrentUser     = "eventease:user"
	KeyRegisteredUsers = "eventease:users"
	KeyEvents          = "eventease:events"
)

type Repository interface {
	SaveCurrentUser(ctx context.Context, u *model.User) error
	LoadCurrentUser(ctx context.Context) (*model.User, error)
	RemoveCurrentUser(ctx context.Context) error
	SaveRegisteredUsers(ctx context.Context, users []model.User) error
	LoadRegisteredUsers(ctx context.Context) ([]model.User, error)
	SaveEvents(ctx context.Context, events []model.Event) error
	LoadEvents(ctx context.Context) ([]model.Event, error)
	ClearAll(ctx context.Context) error
	Close() error
}

type repository struct {
	db  *sql.DB
	log *zerolog.Logger
}

// NewRepository opens (or creates) the local store at dsn and prepares the
// key-value schema. The single connection keeps SQLite a strict single
// writer, so concurrent saves from the managers serialize here as well.
func NewRepository(dsn string, log *zerolog.Logger) (Repository, error) {
	if dsn == "" {
		return nil, fmt.Errorf("storage dsn cannot be empty")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping local store: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS kv (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize local store schema: %w", err)
	}

	return &repository{db: db, log: log}, nil
}

func (r *repository) Close() error {
	return r.db.Close()
}

// save serializes value to JSON and writes it under key. Write failures
// propagate to the caller and are never retried.
func (r *repository) save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to serialize record %s: %w", key, err)
	}

	query := `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := r.db.ExecContext(ctx, query, key, string(data)); err != nil {
		return fmt.Errorf("failed to write record %s: %w", key, err)
	}
	return nil
}

// load reads and deserializes the record under key into dest. A missing key
// is not an error: load reports found=false. A corrupt value is logged and
// treated as absent.
func (r *repository) load(ctx context.Context, key string, dest any) (bool, error) {
	var raw string
	row := r.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key)
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read record %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("corrupt record in local store, treating as absent")
		return false, nil
	}
	return true, nil
}

func (r *repository) remove(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to remove record %s: %w", key, err)
	}
	return nil
}

func (r *repository) SaveCurrentUser(ctx context.Context, u *model.User) error {
	if u == nil {
		return fmt.Errorf("current user cannot be nil")
	}
	// The current-user record never carries the credential hash.
	return r.save(ctx, KeyCurrentUser, u.Public())
}

func (r *repository) LoadCurrentUser(ctx context.Context) (*model.User, error) {
	var u model.User
	found, err := r.load(ctx, KeyCurrentUser, &u)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &u, nil
}

func (r *repository) RemoveCurrentUser(ctx context.Context) error {
	return r.remove(ctx, KeyCurrentUser)
}

func (r *repository) SaveRegisteredUsers(ctx context.Context, users []model.User) error {
	if users == nil {
		users = []model.User{}
	}
	return r.save(ctx, KeyRegisteredUsers, users)
}

func (r *repository) LoadRegisteredUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if _, err := r.load(ctx, KeyRegisteredUsers, &users); err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

func (r *repository) SaveEvents(ctx context.Context, events []model.Event) error {
	if events == nil {
		events = []model.Event{}
	}
	return r.save(ctx, KeyEvents, events)
}

func (r *repository) LoadEvents(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	if _, err := r.load(ctx, KeyEvents, &events); err != nil {
		return nil, err
	}
	if events == nil {
		events = []model.Event{}
	}
	return events, nil
}

// ClearAll removes the three namespaced records in one statement, so the
// wipe is atomic from the caller's perspective.
func (r *repository) ClearAll(ctx context.Context) error {
	query := `DELETE FROM kv WHERE key IN (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, KeyCurrentUser, KeyRegisteredUsers, KeyEvents); err != nil {
		return fmt.Errorf("failed to clear local store: %w", err)
	}
	return nil
}
