// File: internal/service/factory_test.go
package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/xkilldash9x/intake-cli/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.Export.Path = filepath.Join(t.TempDir(), "profiles.xlsx")
	return cfg
}

func TestCreate_Defaults(t *testing.T) {
	cfg := testConfig(t)

	c, err := NewComponentFactory().Create(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer c.Shutdown()

	require.NotNil(t, c.Exporter)
	assert.Equal(t, cfg.Export.Path, c.Exporter.Path())
	assert.Nil(t, c.Archiver)
	assert.Nil(t, c.Notifier)

	deps := c.Deps()
	assert.NotNil(t, deps.Exporter)
	assert.Nil(t, deps.Archiver, "a disabled archiver must be a nil interface")
	assert.Nil(t, deps.Notifier, "a disabled notifier must be a nil interface")
}

func TestCreate_OptionalComponents(t *testing.T) {
	cfg := testConfig(t)
	cfg.Archive = config.ArchiveConfig{Enabled: true, Bucket: "intake-archive", Region: "eu-west-1", AccessKey: "AKIATEST", SecretKey: "secret"}
	cfg.Mail = config.MailConfig{Enabled: true, Host: "smtp.example.com", Port: 587, From: "robot@example.com", To: []string{"ops@example.com"}, TLS: "mandatory"}

	c, err := NewComponentFactory().Create(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer c.Shutdown()

	assert.NotNil(t, c.Archiver)
	assert.NotNil(t, c.Notifier)
	deps := c.Deps()
	assert.NotNil(t, deps.Archiver)
	assert.NotNil(t, deps.Notifier)
}

func TestCreate_MissingExportPath(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Export.Path = ""

	_, err := NewComponentFactory().Create(context.Background(), cfg, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export path is not configured")
}

func TestCreate_RunLock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "run", "intake.lock")

	t.Run("held lock is released on shutdown", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Run.LockFile = lockPath

		c, err := NewComponentFactory().Create(context.Background(), cfg, zaptest.NewLogger(t))
		require.NoError(t, err)

		other := flock.New(lockPath)
		locked, err := other.TryLock()
		require.NoError(t, err)
		assert.False(t, locked, "lock must be held while components are alive")

		c.Shutdown()
		locked, err = other.TryLock()
		require.NoError(t, err)
		assert.True(t, locked)
		require.NoError(t, other.Unlock())
	})

	t.Run("second run is refused", func(t *testing.T) {
		holder := flock.New(lockPath)
		locked, err := holder.TryLock()
		require.NoError(t, err)
		require.True(t, locked)
		defer holder.Unlock()

		cfg := testConfig(t)
		cfg.Run.LockFile = lockPath
		_, err = NewComponentFactory().Create(context.Background(), cfg, zaptest.NewLogger(t))
		require.ErrorIs(t, err, ErrAlreadyRunning)
	})

	t.Run("lock is released when a later step fails", func(t *testing.T) {
		cfg := config.NewDefaultConfig()
		cfg.Run.LockFile = lockPath
		cfg.Export.Path = ""

		_, err := NewComponentFactory().Create(context.Background(), cfg, zaptest.NewLogger(t))
		require.Error(t, err)

		probe := flock.New(lockPath)
		locked, err := probe.TryLock()
		require.NoError(t, err)
		assert.True(t, locked)
		require.NoError(t, probe.Unlock())
	})
}
