package service_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/Flaque/filet"
	"github.com/UnknownOlympus/hestia/internal/coordcache"
	"github.com/UnknownOlympus/hestia/internal/listing"
	"github.com/UnknownOlympus/hestia/internal/metrics"
	"github.com/UnknownOlympus/hestia/internal/mirror"
	"github.com/UnknownOlympus/hestia/internal/models"
	"github.com/UnknownOlympus/hestia/internal/service"
	"github.com/UnknownOlympus/hestia/internal/tabular"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var listingHeader = []string{
	listing.ColumnStatus, listing.ColumnRegionDetail, listing.ColumnRegion, listing.ColumnLot,
	listing.ColumnDeposit, listing.ColumnRent,
}

type env struct {
	metrics  *metrics.Metrics
	mirror   *mirror.Cache
	coords   *coordcache.Cache
	listings *service.MirrorListings
	path     string
}

func newEnv(t *testing.T, rows ...[]string) *env {
	t.Helper()
	dir := filet.TmpDir(t, "")
	path := filepath.Join(dir, "raw", "상가임대차.xlsx")
	if rows != nil {
		require.NoError(t, tabular.WriteXLSX(path, "상가임대차", append([][]string{listingHeader}, rows...)))
	}

	appMetrics := metrics.NewMetrics(prometheus.NewRegistry())
	mirrorCache := mirror.NewCache(slog.Default(), filepath.Join(dir, "cache"), appMetrics)
	coords := coordcache.NewCache(slog.Default(), filepath.Join(dir, "raw", "지도캐시.xlsx"), appMetrics)

	return &env{
		metrics:  appMetrics,
		mirror:   mirrorCache,
		coords:   coords,
		listings: service.NewMirrorListings(mirrorCache, path, listing.NewNormalizer(slog.Default())),
		path:     path,
	}
}

func TestGetListings_DropsRowsWithoutAddress(t *testing.T) {
	defer filet.CleanUp(t)
	fx := newEnv(t,
		[]string{"생", "서울", "강남구", "1", "1,000", "50"},
		[]string{"생", "서울", "서초구", "", "2,000", "60"},
		[]string{"완료", "부산", "해운대구", "3", "협의", "-"},
	)
	svc := service.NewListingService(slog.Default(), fx.listings, fx.coords)

	items, total, err := svc.GetListings(t.Context(), false)

	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, "lst_000001", items[0].ID)
	assert.Equal(t, "서울 강남구 1", items[0].Address)
	assert.Equal(t, "lst_000003", items[1].ID)
	assert.Nil(t, items[1].Numbers.Deposit)
}

func TestGetListings_AttachesCoordinatesToActiveListingsOnly(t *testing.T) {
	defer filet.CleanUp(t)
	fx := newEnv(t,
		[]string{"생", "서울", "강남구", "1"},
		[]string{"완료", "서울", "서초구", "2"},
		[]string{"생", "서울", "종로구", "3"},
	)
	_, err := fx.coords.Merge(t.Context(), map[string]models.Coordinates{
		"서울 강남구 1": {Latitude: 37.5, Longitude: 127.0},
		"서울 서초구 2": {Latitude: 37.48, Longitude: 127.03},
	})
	require.NoError(t, err)
	svc := service.NewListingService(slog.Default(), fx.listings, fx.coords)

	items, _, err := svc.GetListings(t.Context(), false)

	require.NoError(t, err)
	require.Len(t, items, 3)
	require.NotNil(t, items[0].Coords)
	assert.Equal(t, models.Coordinates{Latitude: 37.5, Longitude: 127.0}, *items[0].Coords)
	assert.Nil(t, items[1].Coords, "inactive listings never carry coordinates")
	assert.Nil(t, items[2].Coords, "uncached address")
}

func TestGetListings_IsServedFromCacheUntilMirrorChanges(t *testing.T) {
	defer filet.CleanUp(t)
	fx := newEnv(t, []string{"생", "서울", "강남구", "1"})
	svc := service.NewListingService(slog.Default(), fx.listings, fx.coords)
	ctx := t.Context()

	first, _, err := svc.GetListings(ctx, false)
	require.NoError(t, err)
	second, _, err := svc.GetListings(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.InDelta(t, 1, testutil.ToFloat64(fx.metrics.CacheReads.WithLabelValues("miss")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(fx.metrics.CacheReads.WithLabelValues("hit")), 0)

	_, _, err = svc.GetListings(ctx, true)
	require.NoError(t, err)
	assert.InDelta(t, 1, testutil.ToFloat64(fx.metrics.CacheReads.WithLabelValues("forced")), 0)
}

func TestGetListings_UnreadableCoordinateCache(t *testing.T) {
	defer filet.CleanUp(t)
	fx := newEnv(t, []string{"생", "서울", "강남구", "1"})
	filet.File(t, fx.coords.Path(), "\x00\x01 not a workbook \xff")
	svc := service.NewListingService(slog.Default(), fx.listings, fx.coords)

	items, total, err := svc.GetListings(t.Context(), false)

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Nil(t, items[0].Coords)
}

func TestGetListings_MissingMirror(t *testing.T) {
	defer filet.CleanUp(t)
	fx := newEnv(t)
	svc := service.NewListingService(slog.Default(), fx.listings, fx.coords)

	_, _, err := svc.GetListings(t.Context(), false)

	require.ErrorIs(t, err, mirror.ErrMirrorNotFound)
	_, statErr := os.Stat(fx.path)
	require.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestActiveAddresses(t *testing.T) {
	listings := []models.Listing{
		{Address: "B", Status: "생"},
		{Address: "A", Status: " 생 "},
		{Address: "B", Status: "생"},
		{Address: "C", Status: "완료"},
		{Address: "", Status: "생"},
	}

	assert.Equal(t, []string{"B", "A"}, service.ActiveAddresses(listings))
}
