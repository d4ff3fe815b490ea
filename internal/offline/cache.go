// Package offline serves a fixed set of application resources from a
// local snapshot so the device keeps working without network access.
package offline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/flarebyte/shiftlog/internal/log"
)

// ErrInstallFailed wraps any failure that aborted an install.
var ErrInstallFailed = errors.New("offline cache install failed")

// CacheHeader marks responses served from the snapshot.
const CacheHeader = "X-Shiftlog-Cache"

// DefaultManifest is the app shell, each form route, the export route and
// the app manifest.
var DefaultManifest = []string{
	"/",
	"/forms/injections",
	"/forms/assemblies",
	"/forms/coloring",
	"/forms/filling",
	"/export",
	"/manifest.json",
}

// Config describes one named, versioned cache.
type Config struct {
	Name      string
	Version   string
	Origin    string
	Dir       string
	Manifest  []string
	Transport http.RoundTripper
	Workers   int
	Now       func() time.Time
}

// Cache is a cache-first http.RoundTripper over an installed snapshot.
// Only install writes to the snapshot; network responses are never stored.
type Cache struct {
	cfg    Config
	origin *url.URL

	mu      sync.RWMutex
	index   *Index
	entries map[string]Entry
}

// New opens the cache and loads its snapshot when one is installed.
func New(cfg Config) (*Cache, error) {
	if cfg.Name == "" || cfg.Version == "" {
		return nil, errors.New("offline: cache name and version are required")
	}
	if cfg.Dir == "" {
		return nil, errors.New("offline: cache dir is required")
	}
	origin, err := url.Parse(cfg.Origin)
	if err != nil || origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("offline: invalid origin %q", cfg.Origin)
	}
	if len(cfg.Manifest) == 0 {
		cfg.Manifest = DefaultManifest
	}
	if cfg.Transport == nil {
		cfg.Transport = http.DefaultTransport
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	c := &Cache{cfg: cfg, origin: origin}
	idx, err := readIndex(filepath.Join(c.path(), indexFile))
	switch {
	case err == nil:
		c.setIndex(&idx)
	case !os.IsNotExist(err):
		log.GetLogger().WithError(err).Warn("ignoring unreadable offline cache")
	}
	return c, nil
}

// ID is the cache name joined with its version, e.g. employee-tracking-v1.
func (c *Cache) ID() string { return c.cfg.Name + "-" + c.cfg.Version }

// Origin is the upstream the manifest is fetched from.
func (c *Cache) Origin() *url.URL { u := *c.origin; return &u }

func (c *Cache) path() string { return filepath.Join(c.cfg.Dir, c.ID()) }

// Installed reports whether a snapshot is available.
func (c *Cache) Installed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index != nil
}

// Entries lists the cached resources sorted by path.
func (c *Cache) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.index == nil {
		return nil
	}
	return append([]Entry(nil), c.index.Entries...)
}

func (c *Cache) setIndex(idx *Index) {
	m := make(map[string]Entry, len(idx.Entries))
	for _, e := range idx.Entries {
		m[e.Path] = e
	}
	c.mu.Lock()
	c.index, c.entries = idx, m
	c.mu.Unlock()
}

func requestKey(u *url.URL) string {
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	if u.RawQuery != "" {
		p += "?" + u.RawQuery
	}
	return p
}

// RoundTrip answers GET requests for snapshot paths from disk and passes
// everything else to the network unmodified.
func (c *Cache) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method == http.MethodGet {
		key := requestKey(req.URL)
		c.mu.RLock()
		e, ok := c.entries[key]
		dir := c.path()
		c.mu.RUnlock()
		if ok {
			resp, err := c.cachedResponse(req, dir, e)
			if err == nil {
				log.GetLogger().WithField("path", key).Debug("offline cache hit")
				return resp, nil
			}
			log.GetLogger().WithError(err).WithField("path", key).Warn("offline cache entry unreadable")
		}
	}
	return c.cfg.Transport.RoundTrip(req)
}

func (c *Cache) cachedResponse(req *http.Request, dir string, e Entry) (*http.Response, error) {
	f, err := os.Open(filepath.Join(dir, e.Digest))
	if err != nil {
		return nil, err
	}
	h := http.Header{}
	if e.ContentType != "" {
		h.Set("Content-Type", e.ContentType)
	}
	h.Set(CacheHeader, "hit")
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status)),
		StatusCode:    e.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        h,
		Body:          f,
		ContentLength: e.Size,
		Request:       req,
	}, nil
}

type fetchResult struct {
	entry Entry
	err   error
}

// Install fetches every manifest path and swaps the new snapshot in only
// when all of them succeeded. On failure the previous snapshot stays as it
// was. A successful install evicts every other cache under the cache dir.
func (c *Cache) Install(ctx context.Context) error {
	if err := os.MkdirAll(c.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrInstallFailed, err)
	}
	staging, err := os.MkdirTemp(c.cfg.Dir, "."+c.ID()+".staging-")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInstallFailed, err)
	}
	defer os.RemoveAll(staging)

	results := c.fetchAll(ctx, staging)
	idx := Index{Name: c.ID(), Origin: c.origin.String(), InstalledAt: c.cfg.Now().UTC().Format(time.RFC3339)}
	for i, r := range results {
		if r.err != nil {
			log.GetLogger().WithError(r.err).WithField("path", c.cfg.Manifest[i]).Warn("offline cache install aborted")
			return fmt.Errorf("%w: %s: %v", ErrInstallFailed, c.cfg.Manifest[i], r.err)
		}
		idx.Entries = append(idx.Entries, r.entry)
	}
	b, err := marshalIndex(idx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInstallFailed, err)
	}
	if err := os.WriteFile(filepath.Join(staging, indexFile), b, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrInstallFailed, err)
	}
	if err := c.swap(staging); err != nil {
		return fmt.Errorf("%w: %v", ErrInstallFailed, err)
	}
	stored, err := readIndex(filepath.Join(c.path(), indexFile))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInstallFailed, err)
	}
	c.setIndex(&stored)
	log.GetLogger().WithField("cache", c.ID()).WithField("entries", len(stored.Entries)).Info("offline cache installed")

	if _, err := c.EvictOthers(); err != nil {
		log.GetLogger().WithError(err).Warn("offline cache eviction failed")
	}
	return nil
}

// swap moves staging into place, keeping the old snapshot until the new
// one is there.
func (c *Cache) swap(staging string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	target := c.path()
	var old string
	if _, err := os.Stat(target); err == nil {
		old = staging + ".old"
		if err := os.Rename(target, old); err != nil {
			return err
		}
	}
	if err := os.Rename(staging, target); err != nil {
		if old != "" {
			_ = os.Rename(old, target)
		}
		return err
	}
	if old != "" {
		_ = os.RemoveAll(old)
	}
	return nil
}

func (c *Cache) fetchAll(ctx context.Context, staging string) []fetchResult {
	n := len(c.cfg.Manifest)
	out := make([]fetchResult, n)
	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := c.cfg.Workers
	if workers > n {
		workers = n
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				e, err := c.fetchOne(ctx, staging, c.cfg.Manifest[i])
				out[i] = fetchResult{entry: e, err: err}
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return out
}

func (c *Cache) fetchOne(ctx context.Context, staging, p string) (Entry, error) {
	ref, err := url.Parse(p)
	if err != nil || !strings.HasPrefix(ref.Path, "/") {
		return Entry{}, fmt.Errorf("invalid manifest path %q", p)
	}
	target := c.origin.ResolveReference(ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return Entry{}, err
	}
	resp, err := c.cfg.Transport.RoundTrip(req)
	if err != nil {
		return Entry{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Entry{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Entry{}, err
	}
	sum := sha256.Sum256(body)
	digest := hex.EncodeToString(sum[:])
	if err := os.WriteFile(filepath.Join(staging, digest), body, 0o644); err != nil {
		return Entry{}, err
	}
	return Entry{
		Path:        requestKey(ref),
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Digest:      digest,
		Size:        int64(len(body)),
	}, nil
}
