package mirror

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/UnknownOlympus/hestia/internal/metrics"
	"github.com/UnknownOlympus/hestia/internal/tabular"
	"github.com/goccy/go-json"
)

// ErrMirrorNotFound is returned when the mirror file to read does not exist.
var ErrMirrorNotFound = errors.New("mirror file not found")

// blob is the serialized snapshot of one mirror file. It is valid only while the
// mirror still has the recorded modification time and size.
type blob struct {
	Source        string     `json:"source"`
	SourceModTime time.Time  `json:"source_mod_time"`
	SourceSize    int64      `json:"source_size"`
	CreatedAt     time.Time  `json:"created_at"`
	Rows          [][]string `json:"rows"`
}

// Cache is a read-through cache of parsed mirror rows, persisted as one blob per mirror
// file. Reads of the same mirror path are serialized; different paths proceed in parallel.
type Cache struct {
	log     *slog.Logger
	dir     string
	engines []tabular.Engine
	metrics *metrics.Metrics

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Cache.
type Option func(*Cache)

// WithEngines replaces the engine cascade used to read mirror files.
func WithEngines(engines ...tabular.Engine) Option {
	return func(c *Cache) {
		c.engines = engines
	}
}

// NewCache creates a Cache storing its blobs under dir.
func NewCache(log *slog.Logger, dir string, metrics *metrics.Metrics, opts ...Option) *Cache {
	cache := &Cache{
		log:     log,
		dir:     dir,
		engines: tabular.DefaultEngines(),
		metrics: metrics,
		locks:   make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

// BlobPath returns where the blob for mirrorPath is stored.
func (c *Cache) BlobPath(mirrorPath string) string {
	sum := sha256.Sum256([]byte(canonical(mirrorPath)))
	const hashLen = 8

	return filepath.Join(c.dir, filepath.Base(mirrorPath)+"."+hex.EncodeToString(sum[:hashLen])+".json")
}

// ReadRows returns the rows of the mirror file, header first. Unless forceReload is set,
// a valid blob is served without touching the mirror contents. Otherwise the mirror is
// parsed and a fresh blob is written; failing to write the blob never fails the read.
func (c *Cache) ReadRows(ctx context.Context, mirrorPath string, forceReload bool) ([][]string, error) {
	lock := c.lockFor(mirrorPath)
	lock.Lock()
	defer lock.Unlock()

	info, err := os.Stat(mirrorPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMirrorNotFound, mirrorPath)
		}
		return nil, fmt.Errorf("failed to stat mirror file: %w", err)
	}

	blobPath := c.BlobPath(mirrorPath)
	result := "forced"
	if !forceReload {
		if rows, ok := c.loadBlob(ctx, blobPath, info); ok {
			c.metrics.CacheReads.WithLabelValues("hit").Inc()
			return rows, nil
		}
		result = "miss"
	}
	c.metrics.CacheReads.WithLabelValues(result).Inc()

	rows, err := tabular.ReadRows(mirrorPath, c.engines...)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMirrorNotFound, mirrorPath)
		}
		return nil, fmt.Errorf("failed to read mirror file: %w", err)
	}

	c.log.DebugContext(ctx, "Mirror file parsed", "path", mirrorPath, "rows", len(rows), "reason", result)
	c.storeBlob(ctx, blobPath, blob{
		Source:        mirrorPath,
		SourceModTime: info.ModTime(),
		SourceSize:    info.Size(),
		CreatedAt:     time.Now(),
		Rows:          rows,
	})

	return rows, nil
}

// Clear deletes the blob of mirrorPath so the next read parses the mirror file.
// It reports whether a blob existed.
func (c *Cache) Clear(mirrorPath string) (bool, error) {
	lock := c.lockFor(mirrorPath)
	lock.Lock()
	defer lock.Unlock()

	err := os.Remove(c.BlobPath(mirrorPath))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to remove cache blob: %w", err)
	}
}

func (c *Cache) loadBlob(ctx context.Context, path string, source fs.FileInfo) ([][]string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.log.WarnContext(ctx, "Failed to read cache blob", "path", path, "error", err)
		}
		return nil, false
	}

	var cached blob
	if err = json.Unmarshal(data, &cached); err != nil {
		c.log.WarnContext(ctx, "Cache blob is corrupt, falling back to mirror file", "path", path, "error", err)
		return nil, false
	}

	if !cached.SourceModTime.Equal(source.ModTime()) || cached.SourceSize != source.Size() {
		c.log.DebugContext(ctx, "Cache blob is stale", "path", path)
		return nil, false
	}

	if len(cached.Rows) == 0 || cached.Rows[0] == nil {
		c.log.WarnContext(ctx, "Cache blob has no header row, falling back to mirror file", "path", path)
		return nil, false
	}

	return cached.Rows, true
}

func (c *Cache) storeBlob(ctx context.Context, path string, snapshot blob) {
	err := tabular.WriteFileAtomic(path, func(w io.Writer) error {
		return json.NewEncoder(w).Encode(snapshot)
	})
	if err != nil {
		c.log.WarnContext(ctx, "Failed to write cache blob", "path", path, "error", err)
	}
}

func (c *Cache) lockFor(mirrorPath string) *sync.Mutex {
	key := canonical(mirrorPath)

	c.mu.Lock()
	defer c.mu.Unlock()

	lock, ok := c.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		c.locks[key] = lock
	}

	return lock
}

func canonical(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}

	return filepath.Clean(path)
}
