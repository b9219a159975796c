// File: internal/service/components.go
package service

import (
	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/xkilldash9x/intake-cli/internal/archive"
	"github.com/xkilldash9x/intake-cli/internal/export"
	"github.com/xkilldash9x/intake-cli/internal/notify"
	"github.com/xkilldash9x/intake-cli/internal/observability"
	"github.com/xkilldash9x/intake-cli/internal/runner"
)

// Components holds the initialized collaborators of a run.
// Archiver and Notifier are nil when their sections are disabled.
type Components struct {
	Exporter *export.Workbook
	Archiver *archive.S3Archiver
	Notifier *notify.Mailer

	// runLock is held for the lifetime of the components when run.lock_file is set.
	runLock *flock.Flock
}

// Deps converts the components into runner dependencies. Disabled
// collaborators stay nil interfaces.
func (c *Components) Deps() runner.Deps {
	deps := runner.Deps{Exporter: c.Exporter}
	if c.Archiver != nil {
		deps.Archiver = c.Archiver
	}
	if c.Notifier != nil {
		deps.Notifier = c.Notifier
	}
	return deps
}

// Shutdown releases everything the factory acquired.
func (c *Components) Shutdown() {
	logger := observability.GetLogger()
	if c.runLock != nil {
		if err := c.runLock.Unlock(); err != nil {
			logger.Warn("Failed to release run lock.", zap.String("path", c.runLock.Path()), zap.Error(err))
		} else {
			logger.Debug("Run lock released.", zap.String("path", c.runLock.Path()))
		}
		c.runLock = nil
	}
	logger.Debug("Components shut down.")
}
