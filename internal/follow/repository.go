// Package follow stores user follow relationships in PostgreSQL.
package follow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmerrifield20/profiles/internal/users"
)

// ErrSelfFollow is returned when a user attempts to follow themselves.
var ErrSelfFollow = errors.New("a user cannot follow themselves")

// Stats holds the aggregate follow counts of a user.
type Stats struct {
	Followers  int `json:"followers"`
	Followings int `json:"followings"`
}

// Repository provides follow-relationship operations against PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Follow records that follower follows followed. Following twice is a no-op.
func (r *Repository) Follow(ctx context.Context, follower, followed *users.User) error {
	if follower.ID == followed.ID {
		return ErrSelfFollow
	}
	q := `
		INSERT INTO follows (follower_id, followed_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (follower_id, followed_id) DO NOTHING`
	if _, err := r.db.Exec(ctx, q, follower.ID, followed.ID, time.Now().UTC()); err != nil {
		return fmt.Errorf("follow: %w", err)
	}
	return nil
}

// Unfollow removes the relationship if it exists.
func (r *Repository) Unfollow(ctx context.Context, follower, followed *users.User) error {
	q := `DELETE FROM follows WHERE follower_id = $1 AND followed_id = $2`
	if _, err := r.db.Exec(ctx, q, follower.ID, followed.ID); err != nil {
		return fmt.Errorf("unfollow: %w", err)
	}
	return nil
}

// GetStats counts the followers and followings of u in a single round trip.
func (r *Repository) GetStats(ctx context.Context, u *users.User) (Stats, error) {
	q := `
		SELECT
			(SELECT COUNT(*) FROM follows WHERE followed_id = $1),
			(SELECT COUNT(*) FROM follows WHERE follower_id = $1)`
	var s Stats
	if err := r.db.QueryRow(ctx, q, u.ID).Scan(&s.Followers, &s.Followings); err != nil {
		return Stats{}, fmt.Errorf("get follow stats: %w", err)
	}
	return s, nil
}

// IsFollowedBy reports whether viewer follows subject.
func (r *Repository) IsFollowedBy(ctx context.Context, subject, viewer *users.User) (bool, error) {
	return r.isFollowing(ctx, viewer.ID, subject.ID)
}

func (r *Repository) isFollowing(ctx context.Context, follower, followed uuid.UUID) (bool, error) {
	var exists bool
	q := `SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND followed_id = $2)`
	if err := r.db.QueryRow(ctx, q, follower, followed).Scan(&exists); err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	return exists, nil
}
