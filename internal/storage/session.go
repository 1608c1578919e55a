package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ключи состояния сессии, повторяют ключи localStorage клиента
const (
	KeyAuthToken   = "auth-token"
	KeyCart        = "cartItems"
	KeyServerCart  = "server-cart"
	KeyWishlist    = "wishlist"
	KeyTheme       = "theme"
	KeyPersonalize = "personalization-events"
)

var (
	ErrKeyNotFound    = errors.New("session key not found")
	ErrStoreBusy      = errors.New("session storage is busy, please try again")
	ErrInvalidSession = errors.New("invalid session id")
)

// SessionStorage - долговременное хранилище ключ-значение в разрезе сессии.
// Последняя запись побеждает, координации между вкладками/инстансами нет
type SessionStorage interface {
	// Get читает значение key и раскладывает JSON в dst
	Get(ctx context.Context, sessionID, key string, dst any) error
	// Set перезаписывает значение key
	Set(ctx context.Context, sessionID, key string, value any) error
	Delete(ctx context.Context, sessionID, key string) error
	DeleteAll(ctx context.Context, sessionID string) error
}

type sessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) SessionStorage {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Get(ctx context.Context, sessionID, key string, dst any) error {
	if sessionID == "" {
		return ErrInvalidSession
	}
	var raw []byte
	row := r.db.QueryRowContext(ctx, "SELECT value FROM session_state WHERE session_id = $1 AND key = $2", sessionID, key)
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrKeyNotFound
		}
		return wrapPQ(err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode %q: %w", key, err)
	}
	return nil
}

func (r *sessionRepository) Set(ctx context.Context, sessionID, key string, value any) error {
	if sessionID == "" {
		return ErrInvalidSession
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}
	query := `INSERT INTO session_state (session_id, key, value, updated_at)
	          VALUES ($1, $2, $3, NOW())
	          ON CONFLICT (session_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	if _, err := r.db.ExecContext(ctx, query, sessionID, key, raw); err != nil {
		return wrapPQ(err)
	}
	return nil
}

func (r *sessionRepository) Delete(ctx context.Context, sessionID, key string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM session_state WHERE session_id = $1 AND key = $2", sessionID, key); err != nil {
		return wrapPQ(err)
	}
	return nil
}

func (r *sessionRepository) DeleteAll(ctx context.Context, sessionID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM session_state WHERE session_id = $1", sessionID); err != nil {
		return wrapPQ(err)
	}
	return nil
}

// wrapPQ переводит блокировки и сериализационные конфликты postgres в ErrStoreBusy
func wrapPQ(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "55P03", "40001", "40P01": // lock_not_available, serialization_failure, deadlock
			return fmt.Errorf("%w: %v", ErrStoreBusy, err)
		}
	}
	return err
}
