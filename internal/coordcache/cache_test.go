package coordcache

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Flaque/filet"
	"github.com/UnknownOlympus/hestia/internal/metrics"
	"github.com/UnknownOlympus/hestia/internal/models"
	"github.com/UnknownOlympus/hestia/internal/tabular"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var header = []string{ColumnAddress, ColumnLatitude, ColumnLongitude, ColumnUpdatedAt}

func newTestCache(t *testing.T, rows [][]string) (*Cache, *metrics.Metrics) {
	t.Helper()
	dir := filet.TmpDir(t, "")
	path := filepath.Join(dir, "지도캐시.xlsx")
	if rows != nil {
		require.NoError(t, tabular.WriteXLSX(path, SheetName, rows))
	}

	appMetrics := metrics.NewMetrics(prometheus.NewRegistry())
	cache := NewCache(slog.Default(), path, appMetrics)
	cache.now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }

	return cache, appMetrics
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	defer filet.CleanUp(t)
	cache, _ := newTestCache(t, nil)

	coords, err := cache.Load(t.Context())

	require.NoError(t, err)
	assert.Empty(t, coords)
}

func TestLoad_SkipsInvalidRows(t *testing.T) {
	defer filet.CleanUp(t)
	cache, appMetrics := newTestCache(t, [][]string{
		header,
		{"서울 강남구 1", "37.5", "127.0", "2024-01-01 00:00:00"},
		{" 서울 서초구 2 ", " 37.48 ", "127.03"},
		{"", "37.1", "127.1"},
		{"부산 해운대구 3", "not-a-number", "129.1"},
		{"제주 제주시 4", "95", "126.5"},
		{"대구 중구 5", "35.8", ""},
	})

	coords, err := cache.Load(t.Context())

	require.NoError(t, err)
	assert.Equal(t, map[string]models.Coordinates{
		"서울 강남구 1": {Latitude: 37.5, Longitude: 127.0},
		"서울 서초구 2": {Latitude: 37.48, Longitude: 127.03},
	}, coords)
	assert.InDelta(t, 2, testutil.ToFloat64(appMetrics.CoordinateEntries), 0)
}

func TestLoad_FallsBackToFirstSheet(t *testing.T) {
	defer filet.CleanUp(t)
	dir := filet.TmpDir(t, "")
	path := filepath.Join(dir, "지도캐시.xlsx")
	require.NoError(t, tabular.WriteXLSX(path, "Sheet1", [][]string{header, {"서울 강남구 1", "37.5", "127"}}))
	cache := NewCache(slog.Default(), path, metrics.NewMetrics(prometheus.NewRegistry()))

	coords, err := cache.Load(t.Context())

	require.NoError(t, err)
	assert.Len(t, coords, 1)
}

func TestLoad_RejectsUnknownHeader(t *testing.T) {
	defer filet.CleanUp(t)
	cache, _ := newTestCache(t, [][]string{{"address", "lat", "lng"}, {"a", "1", "2"}})

	_, err := cache.Load(t.Context())

	require.ErrorIs(t, err, ErrInvalidHeader)
}

func TestMerge_CreatesFileWithoutBackup(t *testing.T) {
	defer filet.CleanUp(t)
	cache, _ := newTestCache(t, nil)

	result, err := cache.Merge(t.Context(), map[string]models.Coordinates{
		"서울 강남구 1": {Latitude: 37.5, Longitude: 127.0},
	})

	require.NoError(t, err)
	assert.Equal(t, MergeResult{Added: 1}, result)
	assert.False(t, filet.Exists(t, cache.BackupPath(cache.now())))

	rows, err := tabular.ReadRows(cache.Path(), tabular.XLSXEngine{Sheet: SheetName})
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		header,
		{"서울 강남구 1", "37.5", "127", "2024-05-01 09:30:00"},
	}, rows)
}

func TestMerge_UpdatesAppendsAndBacksUp(t *testing.T) {
	defer filet.CleanUp(t)
	cache, _ := newTestCache(t, [][]string{
		header,
		{"서울 강남구 1", "37.5", "127", "2024-01-01 00:00:00"},
		{"깨진 주소", "oops", "127", "2024-01-01 00:00:00"},
	})
	before, err := os.ReadFile(cache.Path())
	require.NoError(t, err)

	result, err := cache.Merge(t.Context(), map[string]models.Coordinates{
		"서울 강남구 1": {Latitude: 37.51, Longitude: 127.01},
		"부산 해운대구 3": {Latitude: 35.16, Longitude: 129.16},
	})

	require.NoError(t, err)
	assert.Equal(t, MergeResult{Added: 1, Updated: 1}, result)
	assert.True(t, filet.FileSays(t, cache.BackupPath(cache.now()), before))

	rows, err := tabular.ReadRows(cache.Path(), tabular.XLSXEngine{Sheet: SheetName})
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		header,
		{"서울 강남구 1", "37.51", "127.01", "2024-05-01 09:30:00"},
		{"깨진 주소", "oops", "127", "2024-01-01 00:00:00"},
		{"부산 해운대구 3", "35.16", "129.16", "2024-05-01 09:30:00"},
	}, rows, "invalid rows are preserved and new rows are appended")

	coords, err := cache.Load(t.Context())
	require.NoError(t, err)
	assert.Len(t, coords, 2)
}

func TestMerge_EmptyEntriesIsNoop(t *testing.T) {
	defer filet.CleanUp(t)
	cache, _ := newTestCache(t, nil)

	result, err := cache.Merge(t.Context(), nil)

	require.NoError(t, err)
	assert.Zero(t, result)
	assert.False(t, filet.Exists(t, cache.Path()))
}

func TestMerge_RefusesUnreadableCache(t *testing.T) {
	defer filet.CleanUp(t)
	cache, _ := newTestCache(t, nil)
	filet.File(t, cache.Path(), "\x00\x01\x02 garbage \xff")

	_, err := cache.Merge(t.Context(), map[string]models.Coordinates{"a": {Latitude: 37, Longitude: 127}})

	require.Error(t, err)
	assert.True(t, filet.FileSays(t, cache.Path(), []byte("\x00\x01\x02 garbage \xff")))
}

func TestBackupPath(t *testing.T) {
	cache := NewCache(slog.Default(), "/data/cache/지도캐시.xlsx", nil)

	assert.Equal(t, "/data/cache/지도캐시_backup_1714555800.xlsx",
		cache.BackupPath(time.Unix(1714555800, 0)))
}
