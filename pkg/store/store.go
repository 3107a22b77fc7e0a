// Package store binds a class-info cache to a classpath: it opens class
// resources, drives the decoder over them and reports scan failures.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"go.uber.org/zap"

	"github.com/daimatz/classinfo/internal/config"
	"github.com/daimatz/classinfo/pkg/classfile"
	"github.com/daimatz/classinfo/pkg/classpath"
	"github.com/daimatz/classinfo/pkg/info"
	"github.com/daimatz/classinfo/pkg/intern"
)

// Stats reports scan activity and the state of the cache.
type Stats struct {
	Scans        int
	Failures     map[ErrorKind]int
	ScanDuration time.Duration
	Cache        info.Stats
}

// Store owns one scanning session over one classpath. Like the cache it
// wraps, it is not safe for concurrent use.
type Store struct {
	locator  classpath.Locator
	logger   *zap.Logger
	capacity int
	interns  *intern.Tables
	cache    *info.Cache
	open     bool

	scans    int
	failures map[ErrorKind]int
	scanTime time.Duration
}

var _ info.Scanner = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithCapacity sets the number of evictable classes the cache holds.
func WithCapacity(capacity int) Option {
	return func(s *Store) { s.capacity = capacity }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithInternTables shares intern tables across stores.
func WithInternTables(tables *intern.Tables) Option {
	return func(s *Store) { s.interns = tables }
}

// New creates a store over locator. The store is the cache's scanner.
func New(locator classpath.Locator, opts ...Option) (*Store, error) {
	s := &Store{
		locator:  locator,
		logger:   zap.NewNop(),
		capacity: config.DefaultCacheSize,
		failures: make(map[ErrorKind]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	cacheOpts := []info.Option{info.WithLogger(s.logger), info.WithScanner(s)}
	if s.interns != nil {
		cacheOpts = append(cacheOpts, info.WithInternTables(s.interns))
	}
	cache, err := info.NewCache(s.capacity, cacheOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating cache: %w", err)
	}
	s.cache = cache
	return s, nil
}

// Open opens the classpath.
func (s *Store) Open() error {
	if s.open {
		return nil
	}
	if err := s.locator.Open(); err != nil {
		return fmt.Errorf("opening classpath %s: %w", s.locator, err)
	}
	s.open = true
	s.logger.Info("store opened", zap.Stringer("classpath", s.locator), zap.Int("capacity", s.capacity))
	return nil
}

// Close closes the classpath and logs the session statistics. Records
// already resolved stay usable.
func (s *Store) Close() error {
	if !s.open {
		return nil
	}
	s.open = false
	stats := s.cache.Stats()
	s.logger.Info("store closed",
		zap.Stringer("classpath", s.locator),
		zap.Int("scans", s.scans),
		zap.Int("failures", s.failureCount()),
		zap.Duration("scanTime", s.scanTime),
		zap.Int("evictions", stats.Evictions),
		zap.Int("artificialClasses", stats.ArtificialClasses),
	)
	if err := s.locator.Close(); err != nil {
		return fmt.Errorf("closing classpath %s: %w", s.locator, err)
	}
	return nil
}

// ResolveNewClass scans the named class into the cache. It reports the
// failure of this one class as a *ScanError.
func (s *Store) ResolveNewClass(name string) error {
	return s.ScanClass(name)
}

// ScanClass opens the class resource and populates the cache from it. The
// stream is closed before returning on every path.
func (s *Store) ScanClass(name string) (err error) {
	if !s.open {
		return fmt.Errorf("scanning %s: %w", name, ErrNotOpen)
	}
	start := time.Now()
	s.scans++
	defer func() {
		elapsed := time.Since(start)
		s.scanTime += elapsed
		s.logger.Debug("scanned class", zap.String("class", name), zap.Duration("elapsed", elapsed), zap.Bool("ok", err == nil))
	}()

	rc, err := s.locator.OpenResource(name, classpath.ResourceName(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s.fail(name, ScanNotFound, err)
		}
		return s.fail(name, ScanOpenFailed, err)
	}
	defer func() {
		if closeErr := rc.Close(); closeErr != nil && err == nil {
			err = s.fail(name, ScanCloseFailed, closeErr)
		}
	}()

	if err := classfile.Read(rc, info.NewClassVisitor(s.cache, name)); err != nil {
		var visitErr *info.VisitError
		if errors.As(err, &visitErr) {
			return s.fail(name, ScanProtocolViolation, err)
		}
		return s.fail(name, ScanDecodeFailed, err)
	}
	return nil
}

func (s *Store) fail(name string, kind ErrorKind, err error) error {
	s.failures[kind]++
	scanErr := &ScanError{ClassName: name, Kind: kind, Err: err}
	if kind == ScanNotFound {
		s.logger.Debug("class resource not found", zap.String("class", name))
	} else {
		s.logger.Warn("class scan failed", zap.String("class", name), zap.Stringer("kind", kind), zap.Error(err))
	}
	return scanErr
}

func (s *Store) failureCount() int {
	n := 0
	for _, count := range s.failures {
		n += count
	}
	return n
}

// Cache returns the cache populated by this store.
func (s *Store) Cache() *info.Cache { return s.cache }

func (s *Store) Resolve(name string) *info.ClassInfo         { return s.cache.Resolve(name) }
func (s *Store) ResolveConcrete(name string) *info.ClassInfo { return s.cache.ResolveConcrete(name) }
func (s *Store) GetPackage(name string) *info.PackageInfo    { return s.cache.GetPackage(name) }

// ResolvePackage returns the package record for name; see
// info.Cache.ResolvePackage.
func (s *Store) ResolvePackage(name string, force bool) *info.PackageInfo {
	return s.cache.ResolvePackage(name, force)
}

func (s *Store) Stats() Stats {
	failures := make(map[ErrorKind]int, len(s.failures))
	for kind, count := range s.failures {
		failures[kind] = count
	}
	return Stats{
		Scans:        s.scans,
		Failures:     failures,
		ScanDuration: s.scanTime,
		Cache:        s.cache.Stats(),
	}
}
