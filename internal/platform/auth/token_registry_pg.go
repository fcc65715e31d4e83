package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospital/hms/internal/platform/db"
)

// PGTokenRegistry stores issued tokens in the issued_tokens table. Rows
// go with their user through ON DELETE CASCADE.
type PGTokenRegistry struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewPGTokenRegistry(pool *pgxpool.Pool) *PGTokenRegistry {
	return &PGTokenRegistry{pool: pool, now: time.Now}
}

func (r *PGTokenRegistry) Record(ctx context.Context, jti string, userID int, expiresAt time.Time) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO issued_tokens (jti, user_id, issued_at, expires_at)
		VALUES ($1, $2, $3, $4)`,
		jti, userID, r.now().UTC(), expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("record token: %w", err)
	}
	return nil
}

func (r *PGTokenRegistry) Active(ctx context.Context, jti string) (bool, error) {
	var active bool
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM issued_tokens WHERE jti = $1 AND expires_at > $2)`,
		jti, r.now().UTC()).Scan(&active)
	if err != nil {
		return false, fmt.Errorf("check token: %w", err)
	}
	return active, nil
}

func (r *PGTokenRegistry) Revoke(ctx context.Context, jti string) error {
	if _, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM issued_tokens WHERE jti = $1`, jti); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (r *PGTokenRegistry) DeleteForUser(ctx context.Context, userID int) error {
	if _, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM issued_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("revoke tokens for user %d: %w", userID, err)
	}
	return nil
}

// PurgeExpired removes expired rows and returns how many were deleted.
func (r *PGTokenRegistry) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM issued_tokens WHERE expires_at <= $1`, r.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
