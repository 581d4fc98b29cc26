package coordcache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/UnknownOlympus/hestia/internal/metrics"
	"github.com/UnknownOlympus/hestia/internal/models"
	"github.com/UnknownOlympus/hestia/internal/tabular"
)

// Layout of the coordinate cache workbook.
const (
	SheetName       = "지도캐시"
	ColumnAddress   = "주소"
	ColumnLatitude  = "위도"
	ColumnLongitude = "경도"
	ColumnUpdatedAt = "업데이트일"

	TimestampLayout = "2006-01-02 15:04:05"
)

// ErrInvalidHeader is returned when a non-empty cache file lacks the address or coordinate columns.
var ErrInvalidHeader = errors.New("coordinate cache header is missing required columns")

// record is one persisted row, kept verbatim so rows that fail validation survive a merge.
type record struct {
	Address   string
	Latitude  string
	Longitude string
	UpdatedAt string
}

// MergeResult counts how a merge changed the cache.
type MergeResult struct {
	Added   int
	Updated int
}

// Cache is the persisted address to coordinate mapping. Load and Merge on one Cache are serialized.
type Cache struct {
	log     *slog.Logger
	path    string
	metrics *metrics.Metrics
	now     func() time.Time

	mu sync.Mutex
}

// NewCache creates a Cache backed by the workbook at path.
func NewCache(log *slog.Logger, path string, metrics *metrics.Metrics) *Cache {
	return &Cache{log: log, path: path, metrics: metrics, now: time.Now}
}

// Path returns the workbook location.
func (c *Cache) Path() string {
	return c.path
}

// Load reads the whole cache. A missing file yields an empty map; rows with a blank address or
// coordinates that do not parse or fall outside the WGS84 ranges are skipped.
func (c *Cache) Load(ctx context.Context) (map[string]models.Coordinates, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.readRecords()
	if err != nil {
		return nil, err
	}

	coords := make(map[string]models.Coordinates, len(records))
	skipped := 0
	for _, rec := range records {
		point, ok := parseRecord(rec)
		if !ok {
			skipped++
			c.log.DebugContext(ctx, "Skipping invalid coordinate cache row",
				"address", rec.Address, "lat", rec.Latitude, "lng", rec.Longitude)
			continue
		}
		coords[strings.TrimSpace(rec.Address)] = point
	}

	c.metrics.CoordinateEntries.Set(float64(len(coords)))
	c.log.DebugContext(ctx, "Coordinate cache loaded", "entries", len(coords), "skipped", skipped)

	return coords, nil
}

// Merge updates rows whose address is already present and appends the rest, stamping each
// touched row with the current time. The previous workbook is copied to a timestamped backup
// before the new one replaces it.
func (c *Cache) Merge(ctx context.Context, entries map[string]models.Coordinates) (MergeResult, error) {
	var result MergeResult
	if len(entries) == 0 {
		return result, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.readRecords()
	if err != nil {
		return result, fmt.Errorf("refusing to merge into unreadable cache: %w", err)
	}

	position := make(map[string]int, len(records))
	for idx, rec := range records {
		position[strings.TrimSpace(rec.Address)] = idx
	}

	now := c.now()
	stamp := now.Format(TimestampLayout)
	addresses := make([]string, 0, len(entries))
	for address := range entries {
		addresses = append(addresses, address)
	}
	slices.Sort(addresses)

	for _, address := range addresses {
		point := entries[address]
		lat := strconv.FormatFloat(point.Latitude, 'f', -1, 64)
		lng := strconv.FormatFloat(point.Longitude, 'f', -1, 64)

		if idx, ok := position[address]; ok {
			records[idx].Latitude, records[idx].Longitude, records[idx].UpdatedAt = lat, lng, stamp
			result.Updated++
			continue
		}
		position[address] = len(records)
		records = append(records, record{Address: address, Latitude: lat, Longitude: lng, UpdatedAt: stamp})
		result.Added++
	}

	if err = c.backup(ctx, now); err != nil {
		return MergeResult{}, err
	}

	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, []string{ColumnAddress, ColumnLatitude, ColumnLongitude, ColumnUpdatedAt})
	for _, rec := range records {
		rows = append(rows, []string{rec.Address, rec.Latitude, rec.Longitude, rec.UpdatedAt})
	}
	if err = tabular.WriteXLSX(c.path, SheetName, rows); err != nil {
		return MergeResult{}, fmt.Errorf("failed to write coordinate cache: %w", err)
	}

	c.log.InfoContext(ctx, "Coordinate cache updated",
		"rows", len(records), "added", result.Added, "updated", result.Updated)

	return result, nil
}

// BackupPath returns the backup location used for a merge at the given time.
func (c *Cache) BackupPath(at time.Time) string {
	ext := filepath.Ext(c.path)
	return strings.TrimSuffix(c.path, ext) + "_backup_" + strconv.FormatInt(at.Unix(), 10) + ext
}

func (c *Cache) backup(ctx context.Context, at time.Time) error {
	if _, err := os.Stat(c.path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	backupPath := c.BackupPath(at)
	if err := tabular.CopyFile(c.path, backupPath); err != nil {
		return fmt.Errorf("failed to back up coordinate cache: %w", err)
	}
	c.log.InfoContext(ctx, "Coordinate cache backed up", "path", backupPath)

	return nil
}

func (c *Cache) readRecords() ([]record, error) {
	rows, err := tabular.ReadRows(c.path, tabular.XLSXEngine{Sheet: SheetName}, tabular.CSVEngine{})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read coordinate cache: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	columns := make(map[string]int, len(rows[0]))
	for idx, name := range rows[0] {
		columns[strings.TrimSpace(name)] = idx
	}
	for _, required := range []string{ColumnAddress, ColumnLatitude, ColumnLongitude} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrInvalidHeader, required)
		}
	}

	cell := func(row []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	records := make([]record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, record{
			Address:   cell(row, ColumnAddress),
			Latitude:  cell(row, ColumnLatitude),
			Longitude: cell(row, ColumnLongitude),
			UpdatedAt: cell(row, ColumnUpdatedAt),
		})
	}

	return records, nil
}

func parseRecord(rec record) (models.Coordinates, bool) {
	if strings.TrimSpace(rec.Address) == "" {
		return models.Coordinates{}, false
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(rec.Latitude), 64)
	if err != nil {
		return models.Coordinates{}, false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(rec.Longitude), 64)
	if err != nil {
		return models.Coordinates{}, false
	}

	point := models.Coordinates{Latitude: lat, Longitude: lng}
	if !point.Valid() {
		return models.Coordinates{}, false
	}

	return point, true
}
