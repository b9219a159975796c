// internal/runner/runner.go
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/intake-cli/internal/browser"
	"github.com/xkilldash9x/intake-cli/internal/config"
	"github.com/xkilldash9x/intake-cli/internal/intake"
	"github.com/xkilldash9x/intake-cli/internal/notify"
	"github.com/xkilldash9x/intake-cli/internal/persona"
)

// Exporter persists a generated profile and returns where it went.
type Exporter interface {
	Append(ctx context.Context, p persona.Profile) (string, error)
}

// Archiver uploads a local file and returns its remote location.
type Archiver interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// Notifier reports a finished run.
type Notifier interface {
	Send(ctx context.Context, n notify.Notification) error
}

// Filler drives the form for one profile.
type Filler interface {
	Run(ctx context.Context, p persona.Profile) (intake.Report, error)
}

// BrowserOpener starts a browser for one run.
type BrowserOpener func(ctx context.Context, logger *zap.Logger) (browser.Driver, error)

// FillerFactory binds a filler to an open browser.
type FillerFactory func(d browser.Driver, logger *zap.Logger) Filler

// Deps are the collaborators of a Runner. Archiver and Notifier are optional.
type Deps struct {
	Generator   *persona.Generator
	Exporter    Exporter
	Archiver    Archiver
	Notifier    Notifier
	OpenBrowser BrowserOpener
	NewFiller   FillerFactory
}

// Result describes one run.
type Result struct {
	RunID        string
	Profile      persona.Profile
	WorkbookPath string
	ArchiveURL   string
	Report       intake.Report
	// Err is the browser stage failure, if any.
	Err      error
	Started  time.Time
	Finished time.Time
}

// Runner executes the generate, export, fill and notify sequence.
type Runner struct {
	cfg    *config.Config
	deps   Deps
	logger *zap.Logger
	now    func() time.Time
}

// New creates a runner. Missing browser and filler constructors default to
// the configured browser and the standard intake form.
func New(cfg *config.Config, deps Deps, logger *zap.Logger) *Runner {
	if deps.Generator == nil {
		deps.Generator = persona.New()
	}
	if deps.OpenBrowser == nil {
		deps.OpenBrowser = func(ctx context.Context, l *zap.Logger) (browser.Driver, error) {
			return browser.Open(ctx, cfg.Browser, l)
		}
	}
	if deps.NewFiller == nil {
		deps.NewFiller = func(d browser.Driver, l *zap.Logger) Filler {
			return intake.NewFiller(d, cfg.Form, l)
		}
	}
	return &Runner{cfg: cfg, deps: deps, logger: logger.Named("runner"), now: time.Now}
}

// RunOnce performs a single run. An export failure aborts before the browser
// starts. Browser and form failures are kept in Result.Err, notified, and
// returned.
func (r *Runner) RunOnce(ctx context.Context) (Result, error) {
	res := Result{RunID: uuid.NewString(), Started: r.now()}
	logger := r.logger.With(zap.String("run_id", res.RunID))

	res.Profile = r.deps.Generator.Generate()
	logger.Info("Profile generated.",
		zap.String("profile_id", res.Profile.ID),
		zap.String("name", res.Profile.FullName()),
	)

	path, err := r.deps.Exporter.Append(ctx, res.Profile)
	if err != nil {
		res.Finished = r.now()
		return res, fmt.Errorf("failed to export profile: %w", err)
	}
	res.WorkbookPath = path

	if r.deps.Archiver != nil {
		if url, err := r.deps.Archiver.Upload(ctx, path); err != nil {
			logger.Warn("Failed to archive workbook.", zap.Error(err))
		} else {
			res.ArchiveURL = url
		}
	}

	res.Report, res.Err = r.fill(ctx, res.Profile, logger)
	res.Finished = r.now()

	if res.Err != nil {
		logger.Error("Run failed.", zap.Error(res.Err), zap.Duration("duration", res.Finished.Sub(res.Started)))
	} else {
		logger.Info("Run completed.",
			zap.Bool("submitted", res.Report.Submitted),
			zap.Int("failed_fields", res.Report.FailedFields()),
			zap.Duration("duration", res.Finished.Sub(res.Started)),
		)
	}

	r.notify(ctx, res, logger)
	return res, res.Err
}

func (r *Runner) fill(ctx context.Context, p persona.Profile, logger *zap.Logger) (intake.Report, error) {
	d, err := r.deps.OpenBrowser(ctx, logger)
	if err != nil {
		return intake.Report{}, fmt.Errorf("failed to open browser: %w", err)
	}
	defer func() {
		if err := d.Close(); err != nil {
			logger.Warn("Failed to close browser.", zap.Error(err))
		}
	}()

	return r.deps.NewFiller(d, logger).Run(ctx, p)
}

func (r *Runner) notify(ctx context.Context, res Result, logger *zap.Logger) {
	if r.deps.Notifier == nil {
		return
	}
	// A cancelled run is still reported.
	sendCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(browser.Detach(ctx), 30*time.Second)
		defer cancel()
	}

	n := notify.Notification{
		RunID:        res.RunID,
		Profile:      res.Profile,
		Report:       res.Report,
		Err:          res.Err,
		WorkbookPath: res.WorkbookPath,
		ArchiveURL:   res.ArchiveURL,
	}
	if err := r.deps.Notifier.Send(sendCtx, n); err != nil {
		logger.Warn("Failed to send notification.", zap.Error(err))
	}
}

// Summary counts loop outcomes.
type Summary struct {
	Runs      int
	Succeeded int
	Failed    int
}

// Loop runs run.count times, at most one run per run.interval. Failed runs
// are logged and the loop moves on. It returns ctx.Err() when cancelled.
func (r *Runner) Loop(ctx context.Context) (Summary, error) {
	var sum Summary
	count := r.cfg.Run.Count
	if count < 1 {
		count = 1
	}

	limit := rate.Inf
	if r.cfg.Run.Interval > 0 {
		limit = rate.Every(r.cfg.Run.Interval)
	}
	limiter := rate.NewLimiter(limit, 1)

	for i := 0; i < count; i++ {
		if err := limiter.Wait(ctx); err != nil {
			r.logger.Info("Loop stopped.", zap.Int("completed", sum.Runs), zap.Error(err))
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			// Wait reports a deadline shorter than the interval before it expires.
			return sum, err
		}

		r.logger.Info("Starting run.", zap.Int("run", i+1), zap.Int("of", count))
		_, err := r.RunOnce(ctx)
		sum.Runs++
		if err != nil {
			sum.Failed++
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			if !errors.Is(err, intake.ErrPageAborted) {
				r.logger.Warn("Run did not reach the form.", zap.Int("run", i+1), zap.Error(err))
			}
			continue
		}
		sum.Succeeded++
	}

	r.logger.Info("All runs finished.",
		zap.Int("runs", sum.Runs),
		zap.Int("succeeded", sum.Succeeded),
		zap.Int("failed", sum.Failed),
	)
	return sum, nil
}
