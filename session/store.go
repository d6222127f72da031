// Package session restores wallet-connection state across restarts from
// durable key-value storage.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/glebarez/go-sqlite"

	"github.com/A-Here-And-Now/perp-trader/trading_core/models"
)

const (
	keyConnected = "wallet_connected"
	keyAddress   = "wallet_address"
)

// Store persists the session flags in a small sqlite KV table. Both keys
// are written in one transaction, so a concurrent Restore never observes a
// partial write.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return nil, fmt.Errorf("set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS session (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("create session table: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Restore reads the connected flag and address. A missing or empty address
// forces IsConnected=false regardless of the stored flag - a restored
// session must never claim a connection it cannot name.
func (s *Store) Restore(ctx context.Context) (models.Session, error) {
	connected, err := s.get(ctx, keyConnected)
	if err != nil {
		return models.Session{}, err
	}
	address, err := s.get(ctx, keyAddress)
	if err != nil {
		return models.Session{}, err
	}
	return models.Session{
		IsConnected: connected == "1",
		Address:     address,
	}.Normalize(), nil
}

// Persist writes both keys in one transaction. The session is normalized
// first, so the invariant holds on disk as well as in memory.
func (s *Store) Persist(ctx context.Context, sess models.Session) error {
	sess = sess.Normalize()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin persist: %w", err)
	}
	defer tx.Rollback()

	connected := "0"
	if sess.IsConnected {
		connected = "1"
	}
	if err := upsert(ctx, tx, keyConnected, connected); err != nil {
		return err
	}
	if err := upsert(ctx, tx, keyAddress, sess.Address); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM session WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return value, nil
}

func upsert(ctx context.Context, tx *sql.Tx, key, value string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO session (key, value, updated_at) VALUES (?, ?, unixepoch())
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
