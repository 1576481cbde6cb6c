// Package platformadmin records which users administer the whole platform.
package platformadmin

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository tracks which users administer the whole platform.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Add grants platform-admin rights to userID. Granting twice is a no-op.
func (r *Repository) Add(ctx context.Context, userID uuid.UUID) error {
	q := `INSERT INTO platform_admins (user_id, created_at) VALUES ($1, $2) ON CONFLICT (user_id) DO NOTHING`
	if _, err := r.db.Exec(ctx, q, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("add platform admin: %w", err)
	}
	return nil
}

// Remove revokes platform-admin rights from userID.
func (r *Repository) Remove(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM platform_admins WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("remove platform admin: %w", err)
	}
	return nil
}

// IsPlatformAdmin reports whether userID holds platform-admin rights.
func (r *Repository) IsPlatformAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	q := `SELECT EXISTS(SELECT 1 FROM platform_admins WHERE user_id = $1)`
	if err := r.db.QueryRow(ctx, q, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check platform admin: %w", err)
	}
	return exists, nil
}
