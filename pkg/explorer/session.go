package explorer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ChicagoDave/latamgrid/pkg/dataset"
	"github.com/ChicagoDave/latamgrid/pkg/scenario"
	"github.com/ChicagoDave/latamgrid/pkg/source"
	"github.com/ChicagoDave/latamgrid/pkg/validation"
)

// ErrSuperseded is returned to a caller whose selection was replaced by a
// newer one before its load finished. Its result is discarded.
var ErrSuperseded = errors.New("selection superseded by a newer change")

// Session is the explorer's selection state: the manifest, the desired
// config, and the snapshot for it. The latest selection always wins,
// whatever order loads complete in.
type Session struct {
	loader *Loader
	logger *zap.Logger

	mu       sync.Mutex
	manifest *scenario.Manifest
	desired  scenario.Config
	current  *dataset.Snapshot
	report   *validation.Report
	loadErr  error
	loading  bool
	gen      uint64
	cancel   context.CancelFunc
}

// View is a consistent copy of the session state.
type View struct {
	Config   scenario.Config             `json:"config"`
	Key      string                      `json:"key"`
	Options  map[scenario.Field][]string `json:"options"`
	Snapshot *dataset.Snapshot           `json:"-"`
	Report   *validation.Report          `json:"report,omitempty"`
	Loading  bool                        `json:"loading"`
	Error    string                      `json:"error,omitempty"`
}

// NewSession starts at the manifest's first scenario. Nothing is loaded
// until Select, Change, or Reload is called.
func NewSession(loader *Loader, m *scenario.Manifest, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{loader: loader, logger: logger, manifest: m, desired: m.Default()}
}

// Manifest returns the manifest in use.
func (s *Session) Manifest() *scenario.Manifest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manifest
}

// Config returns the desired config.
func (s *Session) Config() scenario.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.desired
}

// Snapshot returns the snapshot for the desired config, or nil while it is
// loading or when its data is unavailable.
func (s *Session) Snapshot() *dataset.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Session) View() View {
	s.mu.Lock()
	v := View{
		Config:   s.desired,
		Key:      s.desired.Key(),
		Snapshot: s.current,
		Report:   s.report,
		Loading:  s.loading,
	}
	if s.loadErr != nil {
		v.Error = s.loadErr.Error()
	}
	m := s.manifest
	s.mu.Unlock()

	v.Options = m.Options(v.Config)
	return v
}

// Change applies a single-field edit through the resolver and loads the
// resulting scenario. ErrNoResolution leaves the session untouched.
func (s *Session) Change(ctx context.Context, field, value string) (*dataset.Snapshot, error) {
	f, err := scenario.ParseField(field)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	cfg, err := scenario.Resolve(s.desired, s.manifest, f, value)
	s.mu.Unlock()
	if err != nil {
		s.logger.Debug("edit rejected", zap.String("field", field), zap.String("value", value), zap.Error(err))
		return nil, err
	}
	return s.Select(ctx, cfg)
}

// Select makes cfg the desired config and loads it. Any load still running
// for an earlier selection is cancelled and returns ErrSuperseded.
//
// Cancelling ctx only stops the wait: the load keeps running and its result
// still becomes the session state unless a newer selection replaces it.
func (s *Session) Select(ctx context.Context, cfg scenario.Config) (*dataset.Snapshot, error) {
	s.mu.Lock()
	if !s.manifest.Contains(cfg) {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s is not in the manifest", scenario.ErrNoResolution, cfg.Key())
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	lctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.desired = cfg
	s.current = nil
	s.report = nil
	s.loadErr = nil
	s.loading = true
	s.mu.Unlock()

	done := make(chan loadOutcome, 1)
	go func() {
		defer cancel()
		snap, report, err := s.loader.Load(lctx, cfg)
		done <- s.finish(gen, cfg, snap, report, err)
	}()

	select {
	case out := <-done:
		return out.snapshot, out.err
	case <-ctx.Done():
		s.logger.Debug("caller stopped waiting; load continues", zap.String("key", cfg.Key()))
		return nil, ctx.Err()
	}
}

type loadOutcome struct {
	snapshot *dataset.Snapshot
	err      error
}

// finish records a load result if gen is still the latest selection.
func (s *Session) finish(gen uint64, cfg scenario.Config, snap *dataset.Snapshot, report *validation.Report, err error) loadOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		s.logger.Debug("discarding superseded load", zap.String("key", cfg.Key()))
		return loadOutcome{err: fmt.Errorf("%w: %s", ErrSuperseded, cfg.Key())}
	}
	s.cancel = nil
	s.loading = false
	s.report = report
	if err != nil {
		s.loadErr = err
		return loadOutcome{err: err}
	}
	s.current = snap
	return loadOutcome{snapshot: snap}
}

// Reload drops the cached snapshot for the desired config and loads it again.
func (s *Session) Reload(ctx context.Context) (*dataset.Snapshot, error) {
	cfg := s.Config()
	s.loader.Invalidate(cfg.Key())
	return s.Select(ctx, cfg)
}

// SetManifest swaps in a new manifest. A desired config that is no longer
// listed falls back to the new manifest's first scenario. It reports whether
// the desired config changed.
func (s *Session) SetManifest(m *scenario.Manifest) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifest = m
	if m.Contains(s.desired) {
		return false
	}
	s.desired = m.Default()
	s.current = nil
	return true
}

// Watch applies document changes until ctx is done or changes is closed.
// A changed manifest is reloaded; a changed scenario document evicts its
// snapshot and reloads it if it is the current selection.
func (s *Session) Watch(ctx context.Context, changes <-chan source.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			s.apply(ctx, c)
		}
	}
}

func (s *Session) apply(ctx context.Context, c source.Change) {
	if c.Name == s.loader.ManifestName() {
		m, _, err := s.loader.Manifest(ctx)
		if err != nil {
			s.logger.Warn("manifest reload failed; keeping previous manifest", zap.Error(err))
			return
		}
		s.loader.Purge()
		s.SetManifest(m)
		if _, err := s.Select(ctx, s.Config()); err != nil && !errors.Is(err, ErrSuperseded) {
			s.logger.Warn("reload after manifest change failed", zap.Error(err))
		}
		return
	}

	key, ok := s.loader.InvalidateDocument(c.Name)
	if !ok {
		return
	}
	s.logger.Info("scenario document changed", zap.String("name", c.Name))
	if key != s.Config().Key() {
		return
	}
	if _, err := s.Select(ctx, s.Config()); err != nil && !errors.Is(err, ErrSuperseded) {
		s.logger.Warn("reload after document change failed", zap.String("key", key), zap.Error(err))
	}
}
