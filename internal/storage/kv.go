package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Veraticus/sortwise/internal/common"
)

// Get returns the raw value stored under key, or common.ErrNotFound.
func (s *SQLiteStorage) Get(ctx context.Context, key string) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateString(key, "key"); err != nil {
		return "", err
	}

	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("key %q: %w", key, common.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get %q: %w", key, err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value, and notifies
// subscribers of key.
func (s *SQLiteStorage) Set(ctx context.Context, key, value string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(key, "key"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set %q: %w", key, err)
	}

	s.notify(key, value)
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *SQLiteStorage) Delete(ctx context.Context, key string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(key, "key"); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}

	s.notify(key, "")
	return nil
}

// Subscribe returns a channel receiving the new value of key after each Set
// (or "" after a Delete). Slow readers miss intermediate values but always
// see the latest one. The returned function ends the subscription.
func (s *SQLiteStorage) Subscribe(key string) (<-chan string, func()) {
	ch := make(chan string, 1)

	s.subsMu.Lock()
	s.subscribers[key] = append(s.subscribers[key], ch)
	s.subsMu.Unlock()

	var once bool
	cancel := func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		if once {
			return
		}
		once = true

		subs := s.subscribers[key]
		for i, sub := range subs {
			if sub == ch {
				s.subscribers[key] = append(subs[:i], subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

func (s *SQLiteStorage) notify(key, value string) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for _, ch := range s.subscribers[key] {
		// Replace any unread value so the reader always sees the latest.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- value:
		default:
		}
	}
}
