// Package explorer loads scenario snapshots from a document source and
// tracks the user's current selection.
package explorer

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ChicagoDave/latamgrid/pkg/dataset"
	"github.com/ChicagoDave/latamgrid/pkg/geo"
	"github.com/ChicagoDave/latamgrid/pkg/scenario"
	"github.com/ChicagoDave/latamgrid/pkg/source"
	"github.com/ChicagoDave/latamgrid/pkg/validation"
)

const (
	DefaultManifestName = "scenarios.json"
	DefaultTopologyName = "ne_110m_admin_0_map_units-1.json"
)

// LoaderOptions configures a Loader. Zero values select defaults.
type LoaderOptions struct {
	ManifestName string
	TopologyName string
	// NameProperty is the GeoJSON property holding the country name.
	NameProperty string
	// CacheSize is the number of assembled snapshots kept. Zero disables
	// the cache.
	CacheSize    int
	FetchTimeout time.Duration
	Logger       *zap.Logger
}

type loadResult struct {
	snapshot *dataset.Snapshot
	report   *validation.Report
}

// Loader fetches and assembles snapshots. Concurrent loads of one scenario
// share a single fetch, and assembled snapshots are kept in an LRU.
type Loader struct {
	src     source.Source
	opts    LoaderOptions
	logger  *zap.Logger
	cache   *lru.Cache[string, *loadResult]
	flights singleflight.Group

	// Invalidation counters. A load only caches its result if no
	// invalidation touched its key while it ran.
	mu          sync.Mutex
	purges      uint64
	invalidated map[string]uint64
}

func NewLoader(src source.Source, opts LoaderOptions) (*Loader, error) {
	if opts.ManifestName == "" {
		opts.ManifestName = DefaultManifestName
	}
	if opts.TopologyName == "" {
		opts.TopologyName = DefaultTopologyName
	}
	if opts.NameProperty == "" {
		opts.NameProperty = geo.DefaultNameProperty
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Loader{src: src, opts: opts, logger: logger, invalidated: make(map[string]uint64)}
	if opts.CacheSize > 0 {
		cache, err := lru.New[string, *loadResult](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("snapshot cache: %w", err)
		}
		l.cache = cache
	}
	return l, nil
}

// ManifestName is the document name the manifest is read from.
func (l *Loader) ManifestName() string {
	return l.opts.ManifestName
}

// Manifest fetches and parses the scenario manifest. The report carries
// structural findings; entries with out-of-domain values are never
// selectable but do not fail the load.
func (l *Loader) Manifest(ctx context.Context) (*scenario.Manifest, *validation.Report, error) {
	data, err := l.src.Fetch(ctx, l.opts.ManifestName)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", scenario.ErrManifestUnavailable, l.opts.ManifestName, err)
	}
	m, err := scenario.LoadManifest(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	report := m.Validate()
	for _, w := range report.Errors {
		l.logger.Warn("manifest entry rejected", zap.String("path", w.Path), zap.String("reason", w.Message))
	}
	l.logger.Info("manifest loaded", zap.Int("scenarios", m.Len()), zap.String("summary", report.Summary))
	return m, report, nil
}

// Topology fetches the base map.
func (l *Loader) Topology(ctx context.Context) (*geo.Topology, error) {
	data, err := l.src.Fetch(ctx, l.opts.TopologyName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", geo.ErrTopologyUnavailable, l.opts.TopologyName, err)
	}
	return geo.LoadTopology(bytes.NewReader(data), l.opts.NameProperty)
}

// Load returns the snapshot for cfg. Cancelling ctx abandons the wait; a
// fetch already shared with other callers runs to completion and is cached.
func (l *Loader) Load(ctx context.Context, cfg scenario.Config) (*dataset.Snapshot, *validation.Report, error) {
	key := cfg.Key()
	if l.cache != nil {
		if res, ok := l.cache.Get(key); ok {
			return res.snapshot, res.report, nil
		}
	}

	ch := l.flights.DoChan(key, func() (any, error) {
		epoch := l.epoch(key)
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.opts.FetchTimeout)
		defer cancel()
		return l.load(fctx, cfg, epoch)
	})

	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	case res := <-ch:
		lr, _ := res.Val.(*loadResult)
		if res.Err != nil {
			var report *validation.Report
			if lr != nil {
				report = lr.report
			}
			return nil, report, res.Err
		}
		return lr.snapshot, lr.report, nil
	}
}

func (l *Loader) load(ctx context.Context, cfg scenario.Config, epoch uint64) (*loadResult, error) {
	key := cfg.Key()
	start := time.Now()

	raw := make(map[dataset.Kind][]byte, len(dataset.Kinds))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, k := range dataset.Kinds {
		name := dataset.DocumentName(key, k)
		g.Go(func() error {
			data, err := l.src.Fetch(gctx, name)
			if err != nil {
				return fmt.Errorf("%w: %s: %w", dataset.ErrDataUnavailable, name, err)
			}
			mu.Lock()
			raw[k] = data
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		l.logger.Warn("scenario fetch failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}

	docs, err := dataset.DecodeDocuments(key, raw)
	if err != nil {
		l.logger.Warn("scenario decode failed", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	snap, report, err := dataset.Assemble(cfg, docs)
	if err != nil {
		l.logger.Warn("scenario assembly failed", zap.String("key", key), zap.Error(err))
		return &loadResult{report: report}, err
	}
	for _, w := range report.Warnings {
		l.logger.Debug("scenario data warning",
			zap.String("key", key),
			zap.String("source", w.Source),
			zap.String("path", w.Path),
			zap.String("message", w.Message))
	}

	snap.ID = uuid.NewString()
	snap.LoadedAt = time.Now()
	res := &loadResult{snapshot: snap, report: report}
	l.store(key, res, epoch)
	l.logger.Info("scenario loaded",
		zap.String("key", key),
		zap.String("snapshot", snap.ID),
		zap.Int("lines", len(snap.KPI.Regional.Lines)),
		zap.Int("warnings", len(report.Warnings)),
		zap.Duration("elapsed", time.Since(start)))
	return res, nil
}

func (l *Loader) epoch(key string) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.purges + l.invalidated[key]
}

// store caches res unless key was invalidated after epoch was taken.
func (l *Loader) store(key string, res *loadResult, epoch uint64) {
	if l.cache == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.purges+l.invalidated[key] != epoch {
		l.logger.Debug("not caching snapshot invalidated during load", zap.String("key", key))
		return
	}
	l.cache.Add(key, res)
}

// Invalidate drops the cached snapshot for a scenario key. A load of key
// already in flight is not cached, and later loads do not join it.
func (l *Loader) Invalidate(key string) bool {
	l.mu.Lock()
	l.invalidated[key]++
	l.mu.Unlock()
	l.flights.Forget(key)
	if l.cache == nil {
		return false
	}
	return l.cache.Remove(key)
}

// InvalidateDocument drops the snapshot built from the named document and
// returns its scenario key, if the name is a scenario document.
func (l *Loader) InvalidateDocument(name string) (string, bool) {
	key, _, ok := dataset.ParseDocumentName(name)
	if !ok {
		return "", false
	}
	l.Invalidate(key)
	return key, true
}

// Purge empties the snapshot cache. Loads in flight are not cached.
func (l *Loader) Purge() {
	l.mu.Lock()
	l.purges++
	l.mu.Unlock()
	if l.cache != nil {
		l.cache.Purge()
	}
}

// Cached reports whether a snapshot for key is cached.
func (l *Loader) Cached(key string) bool {
	return l.cache != nil && l.cache.Contains(key)
}
