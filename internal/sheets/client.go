package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/UnknownOlympus/hestia/internal/metrics"
	"github.com/UnknownOlympus/hestia/internal/tabular"
	"github.com/hashicorp/go-multierror"
)

// Common errors for sheet downloads.
var (
	ErrSheetNotFound = errors.New("sheet not found in spreadsheet")
	ErrEmptySheet    = errors.New("sheet has no data")
	ErrAllFailed     = errors.New("every sheet download failed")
)

// Sheet pairs a remote sheet title with its local mirror file name.
type Sheet struct {
	Name string
	File string
}

// DefaultSheets is the fixed set of listing sheets mirrored on every sync.
var DefaultSheets = []Sheet{
	{Name: "상가임대차", File: "상가임대차.xlsx"},
	{Name: "구분상가매매", File: "구분상가매매.xlsx"},
	{Name: "건물토지매매", File: "건물토지매매.xlsx"},
}

// SyncResult maps each sheet name to whether its mirror was refreshed.
type SyncResult map[string]bool

// Client mirrors remote sheets into local xlsx files.
type Client struct {
	api           API
	spreadsheetID string
	dir           string
	sheets        []Sheet
	log           *slog.Logger
	metrics       *metrics.Metrics
}

// NewClient creates a Client writing mirrors into dir.
func NewClient(
	api API,
	spreadsheetID, dir string,
	sheets []Sheet,
	log *slog.Logger,
	metrics *metrics.Metrics,
) *Client {
	return &Client{
		api:           api,
		spreadsheetID: spreadsheetID,
		dir:           dir,
		sheets:        sheets,
		log:           log,
		metrics:       metrics,
	}
}

// Dir returns the mirror directory.
func (c *Client) Dir() string {
	return c.dir
}

// DownloadSheet fetches one sheet and overwrites its mirror file. Failures are logged and
// reported as false.
func (c *Client) DownloadSheet(ctx context.Context, sheet, file string) bool {
	return c.download(ctx, sheet, file) == nil
}

// DownloadAll downloads every configured sheet. One failure does not stop the others.
func (c *Client) DownloadAll(ctx context.Context) map[string]bool {
	result, _ := c.Sync(ctx)
	return result
}

// Sync downloads every configured sheet and returns the per-sheet outcome. The error is non-nil
// only when no sheet could be mirrored; it aggregates every per-sheet cause.
func (c *Client) Sync(ctx context.Context) (SyncResult, error) {
	result := make(SyncResult, len(c.sheets))
	var errs error

	for _, sheet := range c.sheets {
		err := c.download(ctx, sheet.Name, sheet.File)
		result[sheet.Name] = err == nil
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w", sheet.Name, err))
		}
	}

	succeeded := 0
	for _, ok := range result {
		if ok {
			succeeded++
		}
	}
	c.log.InfoContext(ctx, "Sheet sync finished", "succeeded", succeeded, "total", len(c.sheets))

	if succeeded == 0 && errs != nil {
		return result, fmt.Errorf("%w: %w", ErrAllFailed, errs)
	}

	return result, nil
}

// LastDownloadTime returns the newest modification time among the mirror files, or the zero
// time when none exists.
func (c *Client) LastDownloadTime() time.Time {
	var latest time.Time
	for _, sheet := range c.sheets {
		info, err := os.Stat(filepath.Join(c.dir, sheet.File))
		if err != nil {
			continue
		}
		if info.ModTime().After(latest) {
			latest = info.ModTime()
		}
	}

	return latest
}

func (c *Client) download(ctx context.Context, sheet, file string) error {
	err := c.downloadSheet(ctx, sheet, file)
	if err != nil {
		c.metrics.SheetDownloads.WithLabelValues(sheet, "error").Inc()
		c.log.ErrorContext(ctx, "Sheet download failed", "sheet", sheet, "error", err)
		return err
	}

	c.metrics.SheetDownloads.WithLabelValues(sheet, "success").Inc()
	return nil
}

func (c *Client) downloadSheet(ctx context.Context, sheet, file string) error {
	titles, err := c.api.SheetTitles(ctx, c.spreadsheetID)
	if err != nil {
		return err
	}
	if !slices.Contains(titles, sheet) {
		return fmt.Errorf("%w: %s", ErrSheetNotFound, sheet)
	}

	rows, err := c.api.Values(ctx, c.spreadsheetID, sheet)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptySheet, sheet)
	}

	path := filepath.Join(c.dir, file)
	if err = tabular.WriteXLSX(path, sheet, rows); err != nil {
		return err
	}

	c.log.InfoContext(ctx, "Sheet downloaded", "sheet", sheet, "path", path, "rows", len(rows)-1)

	return nil
}
