package users_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jmerrifield20/profiles/internal/migrate"
	"github.com/jmerrifield20/profiles/internal/pgtest"
	"github.com/jmerrifield20/profiles/internal/users"
	"github.com/jmerrifield20/profiles/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRepo(t *testing.T) *users.UserRepository {
	t.Helper()
	db := pgtest.Pool(t, "profiles_users_test")
	_, err := migrate.Run(context.Background(), db, migrations.FS, zap.NewNop())
	require.NoError(t, err)
	return users.NewUserRepository(db)
}

func sampleUser(email string) *users.User {
	avatar := uuid.New()
	return &users.User{
		Firstname:         "Ada",
		Lastname:          "Lovelace",
		Emails:            []string{email},
		JobTitle:          "Engineer",
		PreferredDomainID: uuid.New(),
		CurrentAvatar:     &avatar,
		PasswordHash:      "hash",
		Accounts:          []users.Account{{Type: users.AccountTypeEmail, Emails: []string{email}}},
		Domains:           []users.DomainMembership{},
		Metadata:          map[string]any{"source": "import"},
	}
}

func TestUserRepository_createAndGet(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	u := sampleUser("ada@example.test")

	require.NoError(t, repo.Create(ctx, u))
	require.NotEqual(t, uuid.Nil, u.ID)

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Firstname, got.Firstname)
	assert.Equal(t, u.Emails, got.Emails)
	assert.Equal(t, *u.CurrentAvatar, *got.CurrentAvatar)
	assert.Equal(t, users.AccountTypeEmail, got.Accounts[0].Type)
	assert.Equal(t, "import", got.Metadata["source"])
	assert.Equal(t, "hash", got.PasswordHash)
}

func TestUserRepository_getMissing(t *testing.T) {
	repo := newRepo(t)

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, users.ErrNotFound)
}

func TestUserRepository_createDuplicate(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	u := sampleUser("ada@example.test")
	require.NoError(t, repo.Create(ctx, u))

	again := sampleUser("other@example.test")
	again.ID = u.ID
	assert.ErrorIs(t, repo.Create(ctx, again), users.ErrDuplicate)
}

func TestUserRepository_getByEmail(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	first := sampleUser("shared@example.test")
	second := sampleUser("shared@example.test")
	second.Emails = append(second.Emails, "second@example.test")
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	found, err := repo.GetByEmail(ctx, "shared@example.test")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	found, err = repo.GetByEmail(ctx, "second@example.test")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, second.ID, found[0].ID)

	found, err = repo.GetByEmail(ctx, "nobody@example.test")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestUserRepository_setLoginDisabled(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	u := sampleUser("ada@example.test")
	require.NoError(t, repo.Create(ctx, u))

	require.NoError(t, repo.SetLoginDisabled(ctx, u.ID, true))
	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.Login.Disabled)

	assert.ErrorIs(t, repo.SetLoginDisabled(ctx, uuid.New(), true), users.ErrNotFound)
}
