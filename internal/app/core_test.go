package app_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/UnknownOlympus/hestia/internal/app"
	"github.com/UnknownOlympus/hestia/internal/metrics"
	"github.com/UnknownOlympus/hestia/internal/models"
	"github.com/UnknownOlympus/hestia/internal/scheduler"
	"github.com/UnknownOlympus/hestia/internal/sheets"
	"github.com/UnknownOlympus/hestia/test/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const listingPath = "/data/raw/상가임대차.xlsx"

type stubListings struct {
	items []models.Listing
	force []bool
}

func (s *stubListings) GetListings(_ context.Context, forceReload bool) ([]models.Listing, int, error) {
	s.force = append(s.force, forceReload)
	return s.items, len(s.items), nil
}

type stubMirror struct {
	paths   []string
	removed bool
	err     error
}

func (s *stubMirror) Clear(mirrorPath string) (bool, error) {
	s.paths = append(s.paths, mirrorPath)
	return s.removed, s.err
}

type fixture struct {
	core     *app.Core
	syncer   *mocks.SheetSyncer
	updater  *mocks.GeocodingUpdater
	listings *stubListings
	mirror   *stubMirror
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		syncer:   mocks.NewSheetSyncer(t),
		updater:  mocks.NewGeocodingUpdater(t),
		listings: &stubListings{},
		mirror:   &stubMirror{},
	}
	f.core = app.NewCore(
		slog.Default(),
		f.syncer,
		f.updater,
		f.listings,
		f.mirror,
		metrics.NewMetrics(prometheus.NewRegistry()),
		app.Config{
			ListingPath:     listingPath,
			SheetInterval:   time.Hour,
			SheetCooldown:   time.Hour,
			GeocodeInterval: time.Hour,
			GeocodeCooldown: time.Hour,
		},
	)

	return f
}

func TestCore_StartRunsBothSchedulers(t *testing.T) {
	f := newFixture(t)
	f.syncer.On("Sync", mock.Anything).Return(sheets.SyncResult{"상가임대차": true}, nil).Once()
	f.updater.On("RunUpdate", mock.Anything).Return(models.UpdateResult{Total: 3, New: 1}, nil).Once()

	f.core.Start()
	defer f.core.Stop()

	require.Eventually(t, func() bool {
		return f.core.SheetSyncStatus().RunCount == 1 && f.core.GeocodingSyncStatus().RunCount == 1
	}, 2*time.Second, 5*time.Millisecond)

	sheetStatus := f.core.SheetSyncStatus()
	assert.Equal(t, app.SheetJobName, sheetStatus.Name)
	assert.True(t, sheetStatus.IsRunning)
	require.NotNil(t, sheetStatus.LastResult)
	assert.Equal(t, sheets.SyncResult{"상가임대차": true}, *sheetStatus.LastResult)

	geoStatus := f.core.GeocodingSyncStatus()
	assert.Equal(t, app.GeocodingJobName, geoStatus.Name)
	require.NotNil(t, geoStatus.LastResult)
	assert.Equal(t, models.UpdateResult{Total: 3, New: 1}, *geoStatus.LastResult)
}

func TestCore_StopHaltsSchedulers(t *testing.T) {
	f := newFixture(t)
	f.syncer.On("Sync", mock.Anything).Return(sheets.SyncResult{}, nil).Once()
	f.updater.On("RunUpdate", mock.Anything).Return(models.UpdateResult{}, nil).Once()

	f.core.Start()
	require.Eventually(t, func() bool {
		return f.core.SheetSyncStatus().RunCount == 1 && f.core.GeocodingSyncStatus().RunCount == 1
	}, 2*time.Second, 5*time.Millisecond)
	f.core.Stop()

	assert.False(t, f.core.SheetSyncStatus().IsRunning)
	assert.False(t, f.core.GeocodingSyncStatus().IsRunning)
}

func TestCore_RunGeocodingNow(t *testing.T) {
	f := newFixture(t)
	expected := models.UpdateResult{Total: 2, New: 1}
	f.updater.On("RunUpdate", mock.Anything).Return(expected, nil).Once()

	result, err := f.core.RunGeocodingNow(t.Context())

	require.NoError(t, err)
	assert.Equal(t, expected, result)

	status := f.core.GeocodingSyncStatus()
	assert.False(t, status.IsRunning)
	assert.Zero(t, status.RunCount)
	require.NotNil(t, status.LastResult)
	assert.Equal(t, expected, *status.LastResult)
}

func TestCore_RunGeocodingNowError(t *testing.T) {
	f := newFixture(t)
	f.updater.On("RunUpdate", mock.Anything).Return(models.UpdateResult{}, assert.AnError).Once()

	_, err := f.core.RunGeocodingNow(t.Context())

	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, assert.AnError.Error(), f.core.GeocodingSyncStatus().LastError)
}

func TestCore_Regeocode(t *testing.T) {
	f := newFixture(t)
	f.updater.On("Regeocode", mock.Anything, "서울 강남구 1").
		Return(models.UpdateResult{Total: 1, Updated: 1}, nil).Once()

	result, err := f.core.Regeocode(t.Context(), "서울 강남구 1")

	require.NoError(t, err)
	assert.Equal(t, models.UpdateResult{Total: 1, Updated: 1}, result)
}

func TestCore_ForceSheetDownload(t *testing.T) {
	tests := []struct {
		name     string
		results  map[string]bool
		expected bool
	}{
		{
			name:     "all sheets downloaded",
			results:  map[string]bool{"상가임대차": true, "구분상가매매": true, "건물토지매매": true},
			expected: true,
		},
		{
			name:     "one sheet failed",
			results:  map[string]bool{"상가임대차": true, "구분상가매매": false, "건물토지매매": true},
			expected: false,
		},
		{
			name:     "nothing configured",
			results:  map[string]bool{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.syncer.On("DownloadAll", mock.Anything).Return(tt.results).Once()

			assert.Equal(t, tt.expected, f.core.ForceSheetDownload(t.Context()))
		})
	}
}

func TestCore_ClearMirrorCache(t *testing.T) {
	t.Run("blob removed", func(t *testing.T) {
		f := newFixture(t)
		f.mirror.removed = true

		assert.True(t, f.core.ClearMirrorCache())
		assert.Equal(t, []string{listingPath}, f.mirror.paths)
	})

	t.Run("nothing cached", func(t *testing.T) {
		f := newFixture(t)

		assert.True(t, f.core.ClearMirrorCache())
	})

	t.Run("remove failed", func(t *testing.T) {
		f := newFixture(t)
		f.mirror.err = assert.AnError

		assert.False(t, f.core.ClearMirrorCache())
	})
}

func TestCore_GetListings(t *testing.T) {
	f := newFixture(t)
	f.listings.items = []models.Listing{{ID: "lst_000001"}, {ID: "lst_000002"}}

	items, total, err := f.core.GetListings(t.Context(), true)

	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, items, 2)
	assert.Equal(t, []bool{true}, f.listings.force)
}

func TestCore_ChangeIntervals(t *testing.T) {
	f := newFixture(t)

	require.ErrorIs(t, f.core.ChangeSheetInterval(30*time.Second), scheduler.ErrIntervalTooShort)
	require.NoError(t, f.core.ChangeGeocodingInterval(10*time.Minute))

	assert.Equal(t, time.Hour, f.core.SheetSyncStatus().Interval)
	assert.Equal(t, 10*time.Minute, f.core.GeocodingSyncStatus().Interval)
}

func TestCore_LastDownloadTime(t *testing.T) {
	f := newFixture(t)
	stamp := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	f.syncer.On("LastDownloadTime").Return(stamp).Once()

	assert.Equal(t, stamp, f.core.LastDownloadTime())
}
