// File: internal/service/factory.go
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/xkilldash9x/intake-cli/internal/archive"
	"github.com/xkilldash9x/intake-cli/internal/config"
	"github.com/xkilldash9x/intake-cli/internal/export"
	"github.com/xkilldash9x/intake-cli/internal/notify"
)

// ErrAlreadyRunning is returned when another process holds run.lock_file.
var ErrAlreadyRunning = errors.New("another intake run holds the lock")

// ComponentFactory creates the collaborators a run needs. The run command
// depends on this interface so tests can substitute the components.
type ComponentFactory interface {
	Create(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error)
}

// concreteFactory is the production implementation of the ComponentFactory.
type concreteFactory struct{}

// NewComponentFactory creates a new production component factory.
func NewComponentFactory() ComponentFactory {
	return &concreteFactory{}
}

// Create acquires the run lock and builds the exporter, archiver and notifier.
func (f *concreteFactory) Create(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	components := &Components{}

	// Release anything already acquired if a later step fails.
	var initializationErr error
	defer func() {
		if initializationErr != nil {
			logger.Warn("Initialization failed, shutting down partially created components.", zap.Error(initializationErr))
			components.Shutdown()
		}
	}()

	// 1. Run lock
	if cfg.Run.LockFile != "" {
		lock, err := acquireRunLock(cfg.Run.LockFile)
		if err != nil {
			initializationErr = err
			return nil, initializationErr
		}
		components.runLock = lock
		logger.Debug("Run lock acquired.", zap.String("path", cfg.Run.LockFile))
	}

	// 2. Exporter
	if cfg.Export.Path == "" {
		initializationErr = fmt.Errorf("export path is not configured (hint: check INTAKE_EXPORT_PATH)")
		return nil, initializationErr
	}
	components.Exporter = export.NewWorkbook(cfg.Export, logger)
	logger.Debug("Workbook exporter initialized.", zap.String("path", cfg.Export.Path))

	// 3. Archiver
	if cfg.Archive.Enabled {
		archiver, err := archive.NewS3Archiver(cfg.Archive, logger)
		if err != nil {
			initializationErr = fmt.Errorf("failed to initialize archiver: %w", err)
			return nil, initializationErr
		}
		components.Archiver = archiver
		logger.Debug("S3 archiver initialized.", zap.String("bucket", cfg.Archive.Bucket))
	}

	// 4. Notifier
	if cfg.Mail.Enabled {
		mailer, err := notify.NewMailer(cfg.Mail, logger)
		if err != nil {
			initializationErr = fmt.Errorf("failed to initialize notifier: %w", err)
			return nil, initializationErr
		}
		components.Notifier = mailer
		logger.Debug("Mail notifier initialized.", zap.String("host", cfg.Mail.Host))
	}

	logger.Info("Run components initialized.",
		zap.Bool("archive", components.Archiver != nil),
		zap.Bool("mail", components.Notifier != nil),
	)
	return components, nil
}

func acquireRunLock(path string) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	lock := flock.New(path)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire run lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, path)
	}
	return lock, nil
}
