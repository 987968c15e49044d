package persistence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

func TestNewPostgresWithoutDSN(t *testing.T) {
	pg, err := NewPostgres(context.Background(), config.PostgresConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, pg.Enabled())
	assert.Nil(t, pg.PoolHandle())
	assert.Error(t, pg.Ping(context.Background()))
	pg.Close()
}

func TestNewRedisDisabled(t *testing.T) {
	r := NewRedis(context.Background(), config.RedisConfig{Enabled: false}, zap.NewNop())
	assert.False(t, r.Enabled())
	assert.Error(t, r.Ping(context.Background()))
	r.Close()
}

func TestRunMigrationsWithoutPool(t *testing.T) {
	assert.NoError(t, RunMigrations(context.Background(), nil, "does-not-exist", zap.NewNop()))
}

func TestMigrationFilesSortedSQLOnly(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_indexes.sql", "0001_helpdesk.sql", "README.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "0003_dir.sql"), 0o700))

	names, err := migrationFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_helpdesk.sql", "0002_indexes.sql"}, names)

	_, err = migrationFiles(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestPingWithRetry(t *testing.T) {
	calls := 0
	flaky := func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}
	require.NoError(t, pingWithRetry(context.Background(), flaky, 5, time.Millisecond, zap.NewNop()))
	assert.Equal(t, 3, calls)

	calls = 0
	down := func(context.Context) error {
		calls++
		return errors.New("connection refused")
	}
	err := pingWithRetry(context.Background(), down, 2, time.Millisecond, zap.NewNop())
	assert.ErrorContains(t, err, "after 2 attempts")
	assert.Equal(t, 2, calls)
}
