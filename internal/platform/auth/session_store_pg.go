package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospital/hms/internal/platform/db"
)

// PGSessionStore stores sessions in the sessions table. Calls made with a
// transaction in context take part in it.
type PGSessionStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewPGSessionStore(pool *pgxpool.Pool) *PGSessionStore {
	return &PGSessionStore{pool: pool, now: time.Now}
}

func (s *PGSessionStore) Create(ctx context.Context, claims Claims, ttl time.Duration) (*Session, error) {
	id, err := NewSessionID()
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	claims.IssuedAt = now
	sess := &Session{ID: id, Claims: claims, CreatedAt: now, ExpiresAt: now.Add(ttl)}

	_, err = db.Conn(ctx, s.pool).Exec(ctx, `
		INSERT INTO sessions (id, user_id, role, name, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		sess.ID, claims.UserID, string(claims.Role), claims.Name, sess.CreatedAt, sess.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

func (s *PGSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	var (
		sess Session
		role string
	)
	err := db.Conn(ctx, s.pool).QueryRow(ctx, `
		SELECT id, user_id, role, name, created_at, expires_at
		FROM sessions WHERE id = $1 AND expires_at > $2`, id, s.now().UTC()).
		Scan(&sess.ID, &sess.Claims.UserID, &role, &sess.Claims.Name, &sess.CreatedAt, &sess.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	r, err := ParseRole(role)
	if err != nil {
		// A row with a role outside the enum is treated as no session.
		return nil, nil
	}
	sess.Claims.Role = r
	sess.Claims.IssuedAt = sess.CreatedAt
	return &sess, nil
}

func (s *PGSessionStore) Delete(ctx context.Context, id string) error {
	if _, err := db.Conn(ctx, s.pool).Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *PGSessionStore) DeleteForUser(ctx context.Context, userID int) error {
	if _, err := db.Conn(ctx, s.pool).Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete sessions for user %d: %w", userID, err)
	}
	return nil
}

// PurgeExpired removes expired rows and returns how many were deleted.
func (s *PGSessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := db.Conn(ctx, s.pool).Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
