// Package scan turns a directory tree into hashed entities ready for
// grouping.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/pomo-mondreganto/lookalike/internal/exclude"
	"github.com/pomo-mondreganto/lookalike/internal/imghash"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".tiff": true,
	".tif":  true,
}

// IsImage reports whether path has a supported image extension.
func IsImage(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// Fingerprint identifies a file version by size and modification time.
func Fingerprint(info os.FileInfo) string {
	return strconv.FormatInt(info.Size(), 10) + ":" + strconv.FormatInt(info.ModTime().UnixNano(), 10)
}

// Cache keeps hashes between runs, keyed by path and file fingerprint.
type Cache interface {
	LoadHashes(path, fingerprint string) (map[imghash.Algorithm]imghash.Blob, error)
	SaveHashes(path, fingerprint string, blobs map[imghash.Algorithm]imghash.Blob) error
}

type Option func(*Scanner)

func WithWorkers(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.workers = n
		}
	}
}

func WithCache(c Cache) Option {
	return func(s *Scanner) {
		s.cache = c
	}
}

func WithExclude(l *exclude.List) Option {
	return func(s *Scanner) {
		s.exclude = l
	}
}

// WithPrecompute makes workers fill every slot of cmp and drop the decoded
// image right away.
func WithPrecompute(cmp *imghash.Comparator) Option {
	return func(s *Scanner) {
		s.cmp = cmp
	}
}

// WithProgress is called once per processed file, possibly from several
// goroutines at once.
func WithProgress(fn func(path string)) Option {
	return func(s *Scanner) {
		s.progress = fn
	}
}

func New(opts ...Option) *Scanner {
	s := &Scanner{
		workers: 1,
		logger:  logrus.WithField("component", "scan"),
		records: make(map[string]record),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type Scanner struct {
	workers  int
	cache    Cache
	exclude  *exclude.List
	cmp      *imghash.Comparator
	progress func(path string)
	logger   *logrus.Entry

	found   atomic.Int64
	decoded atomic.Int64
	cached  atomic.Int64
	skipped atomic.Int64

	mu      sync.Mutex
	records map[string]record
}

type record struct {
	fingerprint string
	fromCache   bool
}

type Stats struct {
	Found   int64
	Decoded int64
	Cached  int64
	Skipped int64
}

func (s *Scanner) Stats() Stats {
	return Stats{
		Found:   s.found.Load(),
		Decoded: s.decoded.Load(),
		Cached:  s.cached.Load(),
		Skipped: s.skipped.Load(),
	}
}

// Walk lists image files under root in sorted order. Hidden entries and
// excluded paths are left out.
func (s *Scanner) Walk(ctx context.Context, root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || s.exclude.Contains(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && IsImage(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(paths)
	s.found.Store(int64(len(paths)))
	return paths, nil
}

// Scan walks root and loads every image it finds. Files that can not be
// read are logged and left out.
func (s *Scanner) Scan(ctx context.Context, root string) ([]*imghash.Entity, error) {
	paths, err := s.Walk(ctx, root)
	if err != nil {
		return nil, err
	}
	s.logger.Infof("Found %d images in %s", len(paths), root)
	return s.Load(ctx, paths)
}

// Load decodes paths with the worker pool. The result keeps the order of
// paths.
func (s *Scanner) Load(ctx context.Context, paths []string) ([]*imghash.Entity, error) {
	results := make([]*imghash.Entity, len(paths))
	group, ctx := errgroup.WithContext(ctx)
	ch := make(chan int)

	group.Go(func() error {
		defer close(ch)
		for i := range paths {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ch <- i:
			}
		}
		return nil
	})
	for w := 0; w < s.workers; w++ {
		group.Go(func() error {
			for i := range ch {
				results[i] = s.load(paths[i])
				if s.progress != nil {
					s.progress(paths[i])
				}
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("loading images: %w", err)
	}

	entities := make([]*imghash.Entity, 0, len(results))
	for _, e := range results {
		if e != nil {
			entities = append(entities, e)
		}
	}
	return entities, nil
}

func (s *Scanner) load(path string) *imghash.Entity {
	logger := s.logger.WithField("path", path)

	info, err := os.Stat(path)
	if err != nil {
		logger.Warnf("Skipping unreadable file: %v", err)
		s.skipped.Inc()
		return nil
	}
	fingerprint := Fingerprint(info)

	var blobs map[imghash.Algorithm]imghash.Blob
	if s.cache != nil {
		if blobs, err = s.cache.LoadHashes(path, fingerprint); err != nil {
			logger.Warnf("Error reading cached hashes: %v", err)
			blobs = nil
		}
	}
	if s.complete(blobs) {
		e, err := imghash.NewCachedEntity(path, blobs)
		if err == nil {
			logger.Debug("Using cached hashes")
			s.cached.Inc()
			s.remember(path, record{fingerprint: fingerprint, fromCache: true})
			return e
		}
		logger.Warnf("Ignoring cached hashes: %v", err)
		blobs = nil
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		logger.Warnf("Skipping undecodable file: %v", err)
		s.skipped.Inc()
		return nil
	}
	e := imghash.NewEntity(path, img)
	for alg, blob := range blobs {
		_ = e.Seed(alg, blob)
	}
	if s.cmp != nil {
		if err := s.cmp.Complete(e); err != nil {
			logger.Warnf("Skipping file that can not be hashed: %v", err)
			s.skipped.Inc()
			return nil
		}
		e.Release()
	}
	s.decoded.Inc()
	s.remember(path, record{fingerprint: fingerprint})
	return e
}

// complete reports whether blobs cover every algorithm the scan needs.
func (s *Scanner) complete(blobs map[imghash.Algorithm]imghash.Blob) bool {
	if len(blobs) == 0 {
		return false
	}
	needed := imghash.Algorithms()
	if s.cmp != nil {
		needed = needed[:0]
		for _, spec := range s.cmp.Specs() {
			needed = append(needed, spec.Algorithm)
		}
	}
	for _, alg := range needed {
		if _, ok := blobs[alg]; !ok {
			return false
		}
	}
	return true
}

func (s *Scanner) remember(path string, r record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[path] = r
}

// Persist writes the computed hashes of freshly decoded entities to the
// cache and returns how many entries were stored.
func (s *Scanner) Persist(entities []*imghash.Entity) (int, error) {
	if s.cache == nil {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := 0
	for _, e := range entities {
		r, ok := s.records[e.ID]
		if !ok || r.fromCache {
			continue
		}
		blobs := e.Blobs()
		if len(blobs) == 0 {
			continue
		}
		if err := s.cache.SaveHashes(e.ID, r.fingerprint, blobs); err != nil {
			return stored, fmt.Errorf("persisting hashes: %w", err)
		}
		stored++
	}
	return stored, nil
}
