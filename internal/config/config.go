package config

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/hestia/internal/models"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the listing service.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - Port: The port for the monitoring server.
// - MirrorDir: Directory holding the sheet mirrors and the coordinate cache.
// - CacheDir: Directory holding the parsed mirror blobs.
// - ListingFile: Mirror file served by the listings read path.
// - MapCacheFile: Coordinate cache workbook, relative to MirrorDir.
// - Sheets: Remote spreadsheet and sheet sync schedule.
// - Geocoding: Provider selection, credentials and geocoding schedule.
// - Database: Optional PostgreSQL failure journal.
type Config struct {
	Env          string          `yaml:"env"`            // Env is the current environment: local, development, production.
	Port         int             `yaml:"health_port"`    // Port is the monitoring server port.
	MirrorDir    string          `yaml:"mirror_dir"`     // MirrorDir holds the downloaded sheets.
	CacheDir     string          `yaml:"cache_dir"`      // CacheDir holds parsed mirror blobs.
	ListingFile  string          `yaml:"listing_sheet"`  // ListingFile is the hot mirror file name.
	MapCacheFile string          `yaml:"map_cache_file"` // MapCacheFile is the coordinate cache file name.
	Sheets       SheetsConfig    `yaml:"sheets"`         // Sheets holds the remote spreadsheet settings.
	Geocoding    GeocodingConfig `yaml:"geocoding"`      // Geocoding holds the provider settings.
	Database     PostgresConfig  `yaml:"postgres"`       // Database holds the postgres database configuration.
}

// SheetsConfig describes the remote spreadsheet and its sync schedule.
type SheetsConfig struct {
	SpreadsheetID      string        `yaml:"spreadsheet_id"`
	ServiceAccountFile string        `yaml:"service_account_file"`
	Interval           time.Duration `yaml:"interval"`
	Cooldown           time.Duration `yaml:"cooldown"`
}

// GeocodingConfig describes the geocoding provider and the enrichment schedule.
type GeocodingConfig struct {
	ProviderType string             `yaml:"provider_type"` // naver, google or nominatim.
	ClientID     string             `yaml:"client_id"`     // Naver NCP client id.
	ClientSecret string             `yaml:"client_secret"` // Naver NCP client secret.
	APIKey       string             `yaml:"api_key"`       // Google Maps API key.
	AddrPrefix   string             `yaml:"addr_prefix"`   // Address prefix for more accurate geocoding.
	Interval     time.Duration      `yaml:"interval"`
	Cooldown     time.Duration      `yaml:"cooldown"`
	Delay        time.Duration      `yaml:"delay"` // Minimum spacing between provider calls.
	Bounds       models.BoundingBox `yaml:"bounds"`
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string `yaml:"host"`                        // Host is the database server address; empty disables the journal.
	Port     string `yaml:"port"     env-default:"5432"` // Port is the database server port.
	User     string `yaml:"user"`                        // User is the database user.
	Password string `yaml:"password"`                    // Password is the database user's password.
	Name     string `yaml:"db_name"`                     // Name is the name of the database.
	SSLMode  string `yaml:"sslmode"`                     // SSLMode is passed through to the connection string.
}

// Enabled reports whether a database host is configured.
func (p PostgresConfig) Enabled() bool {
	return p.Host != ""
}

// MapCachePath returns the absolute location of the coordinate cache.
func (c *Config) MapCachePath() string {
	return filepath.Join(c.MirrorDir, c.MapCacheFile)
}

// ListingPath returns the location of the hot mirror file.
func (c *Config) ListingPath() string {
	return filepath.Join(c.MirrorDir, c.ListingFile)
}

var defaults = map[string]string{
	"HESTIA_ENV":              "production",
	"HESTIA_HEALTH_PORT":      "8080",
	"HESTIA_DATA_DIR":         "./data",
	"HESTIA_LISTING_SHEET":    "상가임대차.xlsx",
	"HESTIA_MAP_CACHE_FILE":   "지도캐시.xlsx",
	"SERVICE_ACCOUNT_FILE":    "service_account.json",
	"HESTIA_SHEET_INTERVAL":   "5m",
	"HESTIA_SHEET_COOLDOWN":   "10s",
	"HESTIA_GEOCODE_INTERVAL": "30m",
	"HESTIA_GEOCODE_COOLDOWN": "60s",
	"HESTIA_GEOCODE_DELAY":    "1s",
	"HESTIA_PROVIDER_TYPE":    "naver",
	"HESTIA_BOUNDS_MIN_LAT":   "33",
	"HESTIA_BOUNDS_MAX_LAT":   "39",
	"HESTIA_BOUNDS_MIN_LNG":   "124",
	"HESTIA_BOUNDS_MAX_LNG":   "132",
	"DB_PORT":                 "5432",
	"DB_SSLMODE":              "disable",
}

var passthrough = []string{
	"HESTIA_CACHE_DIR",
	"HESTIA_ADDRESS_PREFIX",
	"HESTIA_PROVIDER_KEY",
	"SPREADSHEET_ID",
	"NAVER_MAPS_NCP_CLIENT_ID",
	"NAVER_MAPS_NCP_CLIENT_SECRET",
	"DB_HOST",
	"DB_USERNAME",
	"DB_PASSWORD",
	"DB_NAME",
}

// MustLoad reads .env when present, then the environment, and panics on values that do not parse.
func MustLoad() *Config {
	_ = godotenv.Load()

	env := viper.New()
	for key, value := range defaults {
		env.SetDefault(key, value)
		_ = env.BindEnv(key)
	}
	for _, key := range passthrough {
		_ = env.BindEnv(key)
	}

	healthPort, err := strconv.Atoi(env.GetString("HESTIA_HEALTH_PORT"))
	if err != nil {
		panic("failed to parse port for monitoring server from configuration")
	}

	dataDir := env.GetString("HESTIA_DATA_DIR")
	cacheDir := env.GetString("HESTIA_CACHE_DIR")
	if cacheDir == "" {
		cacheDir = filepath.Join(dataDir, "cache")
	}

	bounds := models.BoundingBox{
		MinLat: mustFloat(env, "HESTIA_BOUNDS_MIN_LAT"),
		MaxLat: mustFloat(env, "HESTIA_BOUNDS_MAX_LAT"),
		MinLng: mustFloat(env, "HESTIA_BOUNDS_MIN_LNG"),
		MaxLng: mustFloat(env, "HESTIA_BOUNDS_MAX_LNG"),
	}
	if bounds.MinLat > bounds.MaxLat || bounds.MinLng > bounds.MaxLng {
		panic("failed to parse bounding box from configuration, minimum exceeds maximum")
	}

	return &Config{
		Env:          env.GetString("HESTIA_ENV"),
		Port:         healthPort,
		MirrorDir:    filepath.Join(dataDir, "raw"),
		CacheDir:     cacheDir,
		ListingFile:  env.GetString("HESTIA_LISTING_SHEET"),
		MapCacheFile: env.GetString("HESTIA_MAP_CACHE_FILE"),
		Sheets: SheetsConfig{
			SpreadsheetID:      env.GetString("SPREADSHEET_ID"),
			ServiceAccountFile: env.GetString("SERVICE_ACCOUNT_FILE"),
			Interval:           mustDuration(env, "HESTIA_SHEET_INTERVAL", "sheet sync interval"),
			Cooldown:           mustDuration(env, "HESTIA_SHEET_COOLDOWN", "sheet sync cooldown"),
		},
		Geocoding: GeocodingConfig{
			ProviderType: strings.ToLower(env.GetString("HESTIA_PROVIDER_TYPE")),
			ClientID:     env.GetString("NAVER_MAPS_NCP_CLIENT_ID"),
			ClientSecret: env.GetString("NAVER_MAPS_NCP_CLIENT_SECRET"),
			APIKey:       env.GetString("HESTIA_PROVIDER_KEY"),
			AddrPrefix:   env.GetString("HESTIA_ADDRESS_PREFIX"),
			Interval:     mustDuration(env, "HESTIA_GEOCODE_INTERVAL", "geocoding interval"),
			Cooldown:     mustDuration(env, "HESTIA_GEOCODE_COOLDOWN", "geocoding cooldown"),
			Delay:        mustDuration(env, "HESTIA_GEOCODE_DELAY", "geocoding delay"),
			Bounds:       bounds,
		},
		Database: PostgresConfig{
			Host:     env.GetString("DB_HOST"),
			Port:     env.GetString("DB_PORT"),
			User:     env.GetString("DB_USERNAME"),
			Password: env.GetString("DB_PASSWORD"),
			Name:     env.GetString("DB_NAME"),
			SSLMode:  env.GetString("DB_SSLMODE"),
		},
	}
}

func mustDuration(env *viper.Viper, key, name string) time.Duration {
	value, err := time.ParseDuration(env.GetString(key))
	if err != nil || value <= 0 {
		panic("failed to parse " + name + " from configuration")
	}

	return value
}

func mustFloat(env *viper.Viper, key string) float64 {
	value, err := strconv.ParseFloat(env.GetString(key), 64)
	if err != nil {
		panic("failed to parse bounding box from configuration")
	}

	return value
}
