package platformadmin_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jmerrifield20/profiles/internal/migrate"
	"github.com/jmerrifield20/profiles/internal/pgtest"
	"github.com/jmerrifield20/profiles/internal/platformadmin"
	"github.com/jmerrifield20/profiles/internal/users"
	"github.com/jmerrifield20/profiles/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRepository_addRemove(t *testing.T) {
	db := pgtest.Pool(t, "profiles_platformadmin_test")
	ctx := context.Background()
	_, err := migrate.Run(ctx, db, migrations.FS, zap.NewNop())
	require.NoError(t, err)

	u := &users.User{PreferredDomainID: uuid.New()}
	require.NoError(t, users.NewUserRepository(db).Create(ctx, u))
	repo := platformadmin.NewRepository(db)

	ok, err := repo.IsPlatformAdmin(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Add(ctx, u.ID))
	require.NoError(t, repo.Add(ctx, u.ID))
	ok, err = repo.IsPlatformAdmin(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.Remove(ctx, u.ID))
	ok, err = repo.IsPlatformAdmin(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
