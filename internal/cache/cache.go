// Package cache keeps the analysis of subject files that have not changed
// since they were last analysed with the same rules and limits.
package cache

import (
	"crypto/sha256"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gnoswap-labs/cornelius/internal/report"
	"github.com/gnoswap-labs/cornelius/internal/saturate"
)

const fileName = "equiv_cache.gob"

// Entry is the cached analysis of one subject file.
type Entry struct {
	Hash         string
	Fingerprint  string
	Subjects     []report.SubjectResult
	Equivalences int
	Reason       saturate.StopReason
	Iterations   int
	Nodes        int
	CreatedAt    time.Time
}

type Cache struct {
	Dir         string
	fingerprint string
	maxAge      time.Duration
	entries     map[string]Entry
	mutex       sync.Mutex
}

// New opens the cache in dir, creating dir when missing. Entries written
// under a different fingerprint are never returned.
func New(dir, fingerprint string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	c := &Cache{
		Dir:         dir,
		fingerprint: fingerprint,
		entries:     make(map[string]Entry),
	}
	if err := c.load(); err != nil {
		return nil, fmt.Errorf("failed to load cache: %w", err)
	}
	return c, nil
}

func (c *Cache) load() error {
	file, err := os.Open(filepath.Join(c.Dir, fileName))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(&c.entries); err != nil {
		return fmt.Errorf("failed to decode cache file: %w", err)
	}
	return nil
}

func (c *Cache) save() error {
	file, err := os.Create(filepath.Join(c.Dir, fileName))
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(c.entries); err != nil {
		return fmt.Errorf("failed to encode cache file: %w", err)
	}
	return nil
}

// SetMaxAge expires entries older than d. Zero keeps entries forever.
func (c *Cache) SetMaxAge(d time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.maxAge = d
}

// Get returns the entry for path if the file is unchanged.
func (c *Cache) Get(path string) (Entry, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, ok := c.entries[path]
	if !ok {
		return Entry{}, false
	}
	if c.stale(path, entry) {
		delete(c.entries, path)
		return Entry{}, false
	}
	return entry, true
}

func (c *Cache) stale(path string, entry Entry) bool {
	if entry.Fingerprint != c.fingerprint {
		return true
	}
	if c.maxAge > 0 && time.Since(entry.CreatedAt) > c.maxAge {
		return true
	}
	hash, err := FileHash(path)
	return err != nil || hash != entry.Hash
}

// Set stores entry for path, stamping it with the file's current hash.
func (c *Cache) Set(path string, entry Entry) error {
	hash, err := FileHash(path)
	if err != nil {
		return err
	}
	entry.Hash = hash
	entry.Fingerprint = c.fingerprint
	entry.CreatedAt = time.Now()

	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries[path] = entry
	return c.save()
}

func (c *Cache) InvalidateAll() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries = make(map[string]Entry)
	return c.save()
}

func (c *Cache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.entries)
}

func FileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("failed to calculate hash: %w", err)
	}
	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}

// Fingerprint identifies the inputs besides the subject file that decide
// an analysis: the limits and the printed rule set.
func Fingerprint(parts ...any) string {
	hash := sha256.New()
	for _, p := range parts {
		fmt.Fprintln(hash, p)
	}
	return fmt.Sprintf("%x", hash.Sum(nil))
}
