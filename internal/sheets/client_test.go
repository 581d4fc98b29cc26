package sheets_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Flaque/filet"
	"github.com/UnknownOlympus/hestia/internal/metrics"
	"github.com/UnknownOlympus/hestia/internal/sheets"
	"github.com/UnknownOlympus/hestia/internal/tabular"
	"github.com/UnknownOlympus/hestia/test/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const spreadsheetID = "sheet-id"

var allTitles = []string{"상가임대차", "구분상가매매", "건물토지매매", "메모"}

func newClient(t *testing.T, api sheets.API) (*sheets.Client, *metrics.Metrics) {
	t.Helper()
	appMetrics := metrics.NewMetrics(prometheus.NewRegistry())
	dir := filepath.Join(filet.TmpDir(t, ""), "raw")

	return sheets.NewClient(api, spreadsheetID, dir, sheets.DefaultSheets, slog.Default(), appMetrics), appMetrics
}

func TestDownloadSheet(t *testing.T) {
	defer filet.CleanUp(t)
	ctx := t.Context()
	rows := [][]string{{"지역2", "지역", "지번"}, {"서울", "강남구", "1"}}

	t.Run("writes the mirror file", func(t *testing.T) {
		api := mocks.NewAPI(t)
		client, appMetrics := newClient(t, api)
		api.On("SheetTitles", ctx, spreadsheetID).Return(allTitles, nil).Once()
		api.On("Values", ctx, spreadsheetID, "상가임대차").Return(rows, nil).Once()

		ok := client.DownloadSheet(ctx, "상가임대차", "상가임대차.xlsx")

		require.True(t, ok)
		got, err := tabular.ReadRows(filepath.Join(client.Dir(), "상가임대차.xlsx"), tabular.XLSXEngine{})
		require.NoError(t, err)
		assert.Equal(t, rows, got)
		assert.InDelta(t, 1, testutil.ToFloat64(appMetrics.SheetDownloads.WithLabelValues("상가임대차", "success")), 0)
	})

	t.Run("overwrites the previous mirror", func(t *testing.T) {
		api := mocks.NewAPI(t)
		client, _ := newClient(t, api)
		path := filepath.Join(client.Dir(), "상가임대차.xlsx")
		require.NoError(t, tabular.WriteXLSX(path, "상가임대차", [][]string{{"old"}, {"1"}, {"2"}}))
		api.On("SheetTitles", ctx, spreadsheetID).Return(allTitles, nil).Once()
		api.On("Values", ctx, spreadsheetID, "상가임대차").Return(rows, nil).Once()

		require.True(t, client.DownloadSheet(ctx, "상가임대차", "상가임대차.xlsx"))

		got, err := tabular.ReadRows(path, tabular.XLSXEngine{})
		require.NoError(t, err)
		assert.Equal(t, rows, got)
	})

	t.Run("missing sheet", func(t *testing.T) {
		api := mocks.NewAPI(t)
		client, appMetrics := newClient(t, api)
		api.On("SheetTitles", ctx, spreadsheetID).Return([]string{"메모"}, nil).Once()

		ok := client.DownloadSheet(ctx, "상가임대차", "상가임대차.xlsx")

		assert.False(t, ok)
		assert.False(t, filet.Exists(t, filepath.Join(client.Dir(), "상가임대차.xlsx")))
		assert.InDelta(t, 1, testutil.ToFloat64(appMetrics.SheetDownloads.WithLabelValues("상가임대차", "error")), 0)
	})

	t.Run("empty payload keeps the previous mirror", func(t *testing.T) {
		api := mocks.NewAPI(t)
		client, _ := newClient(t, api)
		path := filepath.Join(client.Dir(), "상가임대차.xlsx")
		require.NoError(t, tabular.WriteXLSX(path, "상가임대차", rows))
		api.On("SheetTitles", ctx, spreadsheetID).Return(allTitles, nil).Once()
		api.On("Values", ctx, spreadsheetID, "상가임대차").Return([][]string{}, nil).Once()

		assert.False(t, client.DownloadSheet(ctx, "상가임대차", "상가임대차.xlsx"))

		got, err := tabular.ReadRows(path, tabular.XLSXEngine{})
		require.NoError(t, err)
		assert.Equal(t, rows, got)
	})

	t.Run("network error", func(t *testing.T) {
		api := mocks.NewAPI(t)
		client, _ := newClient(t, api)
		api.On("SheetTitles", ctx, spreadsheetID).Return(nil, assert.AnError).Once()

		assert.False(t, client.DownloadSheet(ctx, "상가임대차", "상가임대차.xlsx"))
	})
}

func TestSync(t *testing.T) {
	defer filet.CleanUp(t)
	ctx := t.Context()
	rows := [][]string{{"a"}, {"1"}}

	t.Run("one failure does not block the others", func(t *testing.T) {
		api := mocks.NewAPI(t)
		client, _ := newClient(t, api)
		api.On("SheetTitles", ctx, spreadsheetID).Return(allTitles, nil).Times(3)
		api.On("Values", ctx, spreadsheetID, "상가임대차").Return(rows, nil).Once()
		api.On("Values", ctx, spreadsheetID, "구분상가매매").Return(nil, assert.AnError).Once()
		api.On("Values", ctx, spreadsheetID, "건물토지매매").Return(rows, nil).Once()

		result, err := client.Sync(ctx)

		require.NoError(t, err)
		assert.Equal(t, sheets.SyncResult{"상가임대차": true, "구분상가매매": false, "건물토지매매": true}, result)
	})

	t.Run("every sheet failing is an error", func(t *testing.T) {
		api := mocks.NewAPI(t)
		client, _ := newClient(t, api)
		api.On("SheetTitles", ctx, spreadsheetID).Return([]string{}, nil).Times(3)

		result, err := client.Sync(ctx)

		require.ErrorIs(t, err, sheets.ErrAllFailed)
		require.ErrorIs(t, err, sheets.ErrSheetNotFound)
		assert.Len(t, result, 3)
		for name, ok := range result {
			assert.False(t, ok, name)
		}
	})

	t.Run("unavailable API", func(t *testing.T) {
		client, _ := newClient(t, sheets.Unavailable(os.ErrNotExist))

		result := client.DownloadAll(ctx)

		assert.Equal(t, map[string]bool{"상가임대차": false, "구분상가매매": false, "건물토지매매": false}, result)
	})
}

func TestLastDownloadTime(t *testing.T) {
	defer filet.CleanUp(t)
	client, _ := newClient(t, sheets.Unavailable(os.ErrNotExist))

	assert.True(t, client.LastDownloadTime().IsZero())

	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for file, mtime := range map[string]time.Time{"상가임대차.xlsx": older, "건물토지매매.xlsx": newer} {
		path := filepath.Join(client.Dir(), file)
		require.NoError(t, tabular.WriteXLSX(path, "", [][]string{{"a"}}))
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}

	assert.True(t, newer.Equal(client.LastDownloadTime()))
}
