package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a user lookup finds no matching record.
var ErrNotFound = errors.New("user not found")

// ErrDuplicate is returned when a user with the same ID already exists.
var ErrDuplicate = errors.New("user already exists")

const userColumns = `id, firstname, lastname, emails, job_title, service,
	building_location, office_location, main_phone, description,
	preferred_domain_id, current_avatar, password_hash,
	accounts, domains, login, metadata, created_at, updated_at`

// UserRepository reads and writes user records in PostgreSQL.
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user record. Sets ID, CreatedAt, UpdatedAt on the user.
func (r *UserRepository) Create(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.Emails == nil {
		u.Emails = []string{}
	}
	if u.Accounts == nil {
		u.Accounts = []Account{}
	}
	if u.Domains == nil {
		u.Domains = []DomainMembership{}
	}

	q := `INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
	_, err := r.db.Exec(ctx, q,
		u.ID, u.Firstname, u.Lastname, u.Emails, u.JobTitle, u.Service,
		u.BuildingLocation, u.OfficeLocation, u.MainPhone, u.Description,
		u.PreferredDomainID, u.CurrentAvatar, u.PasswordHash,
		u.Accounts, u.Domains, u.Login, u.Metadata, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by their UUID.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	found, err := r.query(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return found[0], nil
}

// GetByEmail returns every user that has email among its registered addresses.
// An empty slice means no match.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) ([]*User, error) {
	return r.query(ctx,
		`SELECT `+userColumns+` FROM users WHERE $1 = ANY(emails) ORDER BY created_at`,
		email,
	)
}

// SetLoginDisabled enables or disables sign-in for a user.
func (r *UserRepository) SetLoginDisabled(ctx context.Context, id uuid.UUID, disabled bool) error {
	q := `UPDATE users SET login = jsonb_set(login, '{disabled}', to_jsonb($2::boolean)), updated_at = $3 WHERE id = $1`
	tag, err := r.db.Exec(ctx, q, id, disabled, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set login disabled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// query runs q and scans every row into a User.
// Column order matches userColumns.
func (r *UserRepository) query(ctx context.Context, q string, args ...any) ([]*User, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	out := []*User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(
			&u.ID, &u.Firstname, &u.Lastname, &u.Emails, &u.JobTitle, &u.Service,
			&u.BuildingLocation, &u.OfficeLocation, &u.MainPhone, &u.Description,
			&u.PreferredDomainID, &u.CurrentAvatar, &u.PasswordHash,
			&u.Accounts, &u.Domains, &u.Login, &u.Metadata, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
