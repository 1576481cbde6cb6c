package migrate

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/jmerrifield20/profiles/internal/pgtest"
	"github.com/jmerrifield20/profiles/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestVersionFromFile(t *testing.T) {
	tests := []struct {
		name    string
		want    int64
		wantErr bool
	}{
		{"001_users.up.sql", 1, false},
		{"042_add_index.up.sql", 42, false},
		{"users.up.sql", 0, true},
		{"abc_users.up.sql", 0, true},
	}
	for _, tc := range tests {
		got, err := versionFromFile(tc.name)
		if tc.wantErr {
			assert.Error(t, err, tc.name)
			continue
		}
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.want, got, tc.name)
	}
}

func TestRun_appliesOnce(t *testing.T) {
	db := pgtest.Pool(t, "profiles_migrate_test")
	ctx := context.Background()

	n, err := Run(ctx, db, migrations.FS, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = Run(ctx, db, migrations.FS, zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, n)

	var tables int
	require.NoError(t, db.QueryRow(ctx, `
		SELECT COUNT(*) FROM information_schema.tables
		WHERE table_schema = current_schema()
		  AND table_name IN ('users', 'follows', 'platform_admins')`).Scan(&tables))
	assert.Equal(t, 3, tables)
}

func TestRun_failedMigrationStaysDirty(t *testing.T) {
	db := pgtest.Pool(t, "profiles_migrate_dirty_test")
	ctx := context.Background()

	files := fstest.MapFS{
		"001_ok.up.sql":     {Data: []byte(`CREATE TABLE ok (id int)`)},
		"002_broken.up.sql": {Data: []byte(`CREATE TABLE`)},
	}

	n, err := Run(ctx, db, files, zap.NewNop())
	assert.Error(t, err)
	assert.Equal(t, 1, n)

	var dirty bool
	require.NoError(t, db.QueryRow(ctx, `SELECT dirty FROM schema_migrations WHERE version = 2`).Scan(&dirty))
	assert.True(t, dirty)
}
