package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ChicagoDave/latamgrid/internal/config"
	"github.com/ChicagoDave/latamgrid/internal/logging"
	"github.com/ChicagoDave/latamgrid/internal/server"
	"github.com/ChicagoDave/latamgrid/pkg/analytics"
	"github.com/ChicagoDave/latamgrid/pkg/country"
	"github.com/ChicagoDave/latamgrid/pkg/dataset"
	"github.com/ChicagoDave/latamgrid/pkg/explorer"
	"github.com/ChicagoDave/latamgrid/pkg/heatmap"
	"github.com/ChicagoDave/latamgrid/pkg/scenario"
	"github.com/ChicagoDave/latamgrid/pkg/source"
	"github.com/ChicagoDave/latamgrid/pkg/validation"
)

// app holds what every command needs: config, logger, document source and
// snapshot loader.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	cache  *source.RedisCache
	loader *explorer.Loader
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	src, err := buildSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening %s source: %w", cfg.Data.Source, err)
	}
	a := &app{cfg: cfg, logger: logger}
	if cfg.Redis.Enabled {
		a.cache = source.NewRedisCache(src, source.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		}, logger.Named("redis"))
		src = a.cache
	}

	a.loader, err = explorer.NewLoader(src, explorer.LoaderOptions{
		ManifestName: cfg.Data.Manifest,
		TopologyName: cfg.Data.Topology,
		NameProperty: cfg.Data.TopologyProperty,
		CacheSize:    cfg.Cache.Snapshots,
		FetchTimeout: cfg.Data.FetchTimeout,
		Logger:       logger.Named("loader"),
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("configured",
		zap.String("source", cfg.Data.Source),
		zap.Bool("redis", cfg.Redis.Enabled),
		zap.Int("snapshot_cache", cfg.Cache.Snapshots))
	return a, nil
}

func (a *app) Close() {
	if a.cache != nil {
		_ = a.cache.Close()
	}
	_ = a.logger.Sync()
}

func buildSource(cfg config.Config) (source.Source, error) {
	switch cfg.Data.Source {
	case config.SourceHTTP:
		return source.NewHTTP(cfg.Data.BaseURL)
	case config.SourceMinio:
		return source.NewMinio(source.MinioOptions{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			Prefix:    cfg.Minio.Prefix,
			UseSSL:    cfg.Minio.UseSSL,
		})
	default:
		return source.NewDir(cfg.Data.Dir)
	}
}

// scenarioFor returns the manifest entry with the given key, or the
// manifest's first entry when key is empty.
func scenarioFor(m *scenario.Manifest, key string) (scenario.Config, error) {
	if key == "" {
		return m.Default(), nil
	}
	for _, c := range m.Scenarios() {
		if c.Key() == key {
			return c, nil
		}
	}
	return scenario.Config{}, fmt.Errorf("%w: %q is not in the manifest", scenario.ErrNoResolution, key)
}

// loadScenario opens the app, reads the manifest and loads one snapshot.
func loadScenario(ctx context.Context, key string) (*app, *dataset.Snapshot, error) {
	a, err := newApp()
	if err != nil {
		return nil, nil, err
	}
	m, _, err := a.loader.Manifest(ctx)
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	cfg, err := scenarioFor(m, key)
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	snap, report, err := a.loader.Load(ctx, cfg)
	if err != nil {
		if report != nil {
			printValidationReport(report)
		}
		a.Close()
		return nil, nil, err
	}
	return a, snap, nil
}

func runValidate(ctx context.Context) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	m, report, err := a.loader.Manifest(ctx)
	if err != nil {
		return err
	}

	if _, err := a.loader.Topology(ctx); err != nil {
		report.AddWarning(validation.Result{
			Level:       validation.LevelTopology,
			Message:     fmt.Sprintf("base map could not be loaded (%v); regions will not be drawn", err),
			Source:      a.cfg.Data.Topology,
			ActualValue: a.cfg.Data.TopologyProperty,
		})
	}

	failed := 0
	for _, cfg := range m.Scenarios() {
		snap, r, err := a.loader.Load(ctx, cfg)
		switch {
		case r != nil:
			report.Merge(r)
		case err != nil:
			report.AddError(validation.Result{
				Level:   validation.LevelDocument,
				Message: err.Error(),
				Source:  cfg.Key(),
			})
		}
		if err != nil {
			failed++
			continue
		}
		_, ar := analytics.Regional(snap)
		report.Merge(ar)
	}

	printValidationReport(report)
	if !report.Valid {
		return fmt.Errorf("validation failed: %d of %d scenarios could not be assembled", failed, m.Len())
	}
	return nil
}

func runOptions(ctx context.Context, key string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	m, _, err := a.loader.Manifest(ctx)
	if err != nil {
		return err
	}
	cfg, err := scenarioFor(m, key)
	if err != nil {
		return err
	}
	printOptions(cfg, m.Options(cfg))
	return nil
}

func runResolve(ctx context.Context, key, field, value string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	m, _, err := a.loader.Manifest(ctx)
	if err != nil {
		return err
	}
	from, err := scenarioFor(m, key)
	if err != nil {
		return err
	}
	f, err := scenario.ParseField(field)
	if err != nil {
		return err
	}
	to, err := scenario.Resolve(from, m, f, value)
	if err != nil {
		if errors.Is(err, scenario.ErrNoResolution) {
			fmt.Printf("No scenario matches %s=%s; keeping %s\n", field, value, from.Key())
		}
		return err
	}
	printResolution(from, to)
	return nil
}

func runHeatmap(ctx context.Context, key, metricID string) error {
	metric, err := heatmap.Lookup(metricID)
	if err != nil {
		return err
	}
	a, snap, err := loadScenario(ctx, key)
	if err != nil {
		return err
	}
	defer a.Close()

	printHeatmap(snap, heatmap.Compute(metric, snap))
	return nil
}

func runSummary(ctx context.Context, key, name string) error {
	a, snap, err := loadScenario(ctx, key)
	if err != nil {
		return err
	}
	defer a.Close()

	if name != "" {
		cs, err := analytics.Country(snap, name)
		if err != nil {
			return fmt.Errorf("%w (known: %v)", err, analytics.Countries(snap))
		}
		printCountrySummary(cs)
		return nil
	}

	rs, report := analytics.Regional(snap)
	printRegionalSummary(rs)
	if len(report.Warnings) > 0 {
		fmt.Println()
		printValidationReport(report)
	}
	return nil
}

func runServe(ctx context.Context) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	m, _, err := a.loader.Manifest(ctx)
	if err != nil {
		return err
	}

	topo, err := a.loader.Topology(ctx)
	if err != nil {
		logger.Warn("serving without a base map", zap.Error(err))
	} else {
		topo = topo.Filter(country.IsKnown)
	}

	session := explorer.NewSession(a.loader, m, logger.Named("session"))
	if _, err := session.Select(ctx, m.Default()); err != nil {
		logger.Warn("initial scenario unavailable", zap.String("key", m.Default().Key()), zap.Error(err))
	}

	if a.cfg.Data.Watch {
		stop, err := a.watch(ctx, session)
		if err != nil {
			return err
		}
		defer stop()
	}

	srv := server.New(session, topo, server.Options{
		Port:   a.cfg.Server.Port,
		Mode:   a.cfg.Server.Mode,
		Logger: logger.Named("http"),
	})
	return srv.Start(ctx)
}

// watch feeds data directory changes into the session. Changed documents are
// dropped from the Redis cache first so the reload reads the new bytes.
func (a *app) watch(ctx context.Context, session *explorer.Session) (func(), error) {
	if a.cfg.Data.Source != config.SourceDir {
		a.logger.Warn("data.watch only applies to the dir source; ignoring", zap.String("source", a.cfg.Data.Source))
		return func() {}, nil
	}
	w, err := source.NewWatcher(a.cfg.Data.Dir)
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Start(); err != nil {
		return nil, fmt.Errorf("watching %s: %w", a.cfg.Data.Dir, err)
	}
	a.logger.Info("watching data directory", zap.String("dir", a.cfg.Data.Dir))

	changes := w.Changes
	if a.cache != nil {
		changes = forgetting(ctx, a.cache, w.Changes, a.logger)
	}
	go session.Watch(ctx, changes)
	return w.Stop, nil
}

func forgetting(ctx context.Context, cache *source.RedisCache, in <-chan source.Change, logger *zap.Logger) <-chan source.Change {
	out := make(chan source.Change)
	go func() {
		defer close(out)
		for c := range in {
			if err := cache.Forget(ctx, c.Name); err != nil {
				logger.Debug("redis forget failed", zap.String("name", c.Name), zap.Error(err))
			}
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
