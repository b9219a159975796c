// internal/export/workbook.go
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"baliance.com/gooxml/spreadsheet"
	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/xkilldash9x/intake-cli/internal/config"
	"github.com/xkilldash9x/intake-cli/internal/persona"
)

const (
	defaultSheet   = "Profiles"
	lockRetryDelay = 100 * time.Millisecond
)

// ErrSheetMismatch is returned when an existing workbook's header row does
// not match the profile columns.
var ErrSheetMismatch = errors.New("workbook header does not match profile columns")

// Workbook appends profiles to an xlsx file, one row per profile.
type Workbook struct {
	path   string
	sheet  string
	logger *zap.Logger
}

// NewWorkbook creates a writer for the configured workbook path.
func NewWorkbook(cfg config.ExportConfig, logger *zap.Logger) *Workbook {
	sheet := cfg.Sheet
	if sheet == "" {
		sheet = defaultSheet
	}
	return &Workbook{
		path:   cfg.Path,
		sheet:  sheet,
		logger: logger.Named("export"),
	}
}

// Path returns the workbook location.
func (w *Workbook) Path() string { return w.path }

// Append writes p as a new row. A missing workbook is created with a header
// row first. The write happens under an exclusive lock on "<path>.lock".
func (w *Workbook) Append(ctx context.Context, p persona.Profile) (string, error) {
	if w.path == "" {
		return "", errors.New("export path is empty")
	}
	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	lock := flock.New(w.path + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return "", fmt.Errorf("failed to acquire workbook lock: %w", err)
	}
	if !locked {
		return "", fmt.Errorf("workbook %s is locked by another run", w.path)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			w.logger.Warn("Failed to release workbook lock.", zap.Error(err))
		}
	}()

	wb, sheet, created, err := w.openOrCreate()
	if err != nil {
		return "", err
	}

	row := sheet.AddRow()
	for _, f := range p.Fields() {
		row.AddCell().SetString(f.Value)
	}

	if err := wb.SaveToFile(w.path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Info("Profile exported.",
		zap.String("path", w.path),
		zap.String("profile_id", p.ID),
		zap.Bool("created", created),
	)
	return w.path, nil
}

// openOrCreate loads the workbook at w.path or builds a new one with a
// header row. The bool result reports whether the file was created.
func (w *Workbook) openOrCreate() (*spreadsheet.Workbook, spreadsheet.Sheet, bool, error) {
	if _, err := os.Stat(w.path); errors.Is(err, os.ErrNotExist) {
		wb := spreadsheet.New()
		sheet := wb.AddSheet()
		sheet.SetName(w.sheet)
		header := sheet.AddRow()
		for _, h := range persona.Headers() {
			header.AddCell().SetString(h)
		}
		return wb, sheet, true, nil
	} else if err != nil {
		return nil, spreadsheet.Sheet{}, false, fmt.Errorf("failed to stat workbook: %w", err)
	}

	wb, err := spreadsheet.Open(w.path)
	if err != nil {
		return nil, spreadsheet.Sheet{}, false, fmt.Errorf("failed to open workbook: %w", err)
	}
	for _, s := range wb.Sheets() {
		if s.Name() != w.sheet {
			continue
		}
		if err := checkHeader(s); err != nil {
			return nil, spreadsheet.Sheet{}, false, err
		}
		return wb, s, false, nil
	}

	// Existing workbook without our sheet: add it alongside whatever is there.
	sheet := wb.AddSheet()
	sheet.SetName(w.sheet)
	header := sheet.AddRow()
	for _, h := range persona.Headers() {
		header.AddCell().SetString(h)
	}
	return wb, sheet, false, nil
}

func checkHeader(s spreadsheet.Sheet) error {
	rows := s.Rows()
	if len(rows) == 0 {
		return fmt.Errorf("sheet %q: %w", s.Name(), ErrSheetMismatch)
	}
	cells := rows[0].Cells()
	headers := persona.Headers()
	if len(cells) != len(headers) {
		return fmt.Errorf("sheet %q has %d columns, want %d: %w", s.Name(), len(cells), len(headers), ErrSheetMismatch)
	}
	for i, c := range cells {
		if c.GetString() != headers[i] {
			return fmt.Errorf("sheet %q column %d is %q, want %q: %w", s.Name(), i+1, c.GetString(), headers[i], ErrSheetMismatch)
		}
	}
	return nil
}

// ReadRows returns every row of the named sheet as strings, header included.
func ReadRows(path, sheet string) ([][]string, error) {
	wb, err := spreadsheet.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	for _, s := range wb.Sheets() {
		if s.Name() != sheet {
			continue
		}
		var out [][]string
		for _, r := range s.Rows() {
			var vals []string
			for _, c := range r.Cells() {
				vals = append(vals, c.GetString())
			}
			out = append(out, vals)
		}
		return out, nil
	}
	return nil, fmt.Errorf("sheet %q not found in %s", sheet, path)
}
