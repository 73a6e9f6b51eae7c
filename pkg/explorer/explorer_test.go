package explorer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/ChicagoDave/latamgrid/pkg/dataset"
	"github.com/ChicagoDave/latamgrid/pkg/scenario"
	"github.com/ChicagoDave/latamgrid/pkg/source"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	cfgA = scenario.Config{Year: 2025, Transmission: scenario.Isolated, Sovereignty: scenario.WithSovereignty, Demand: scenario.BaseCase, HydroAndean: scenario.High, HydroConoSur: scenario.High}
	cfgB = scenario.Config{Year: 2025, Transmission: scenario.Integrated, Sovereignty: scenario.WithSovereignty, Demand: scenario.BaseCase, HydroAndean: scenario.High, HydroConoSur: scenario.High}
	cfgC = scenario.Config{Year: 2035, Transmission: scenario.Integrated, Sovereignty: scenario.WithoutSovereignty, Demand: scenario.NoCoal, HydroAndean: scenario.Low, HydroConoSur: scenario.Low}
)

const manifestDoc = `{"scenarios": [
  {"year": 2025, "transmission": "Isolated", "sovereignty": "WithSovereignty", "demand": "BaseCase", "hydroAndean": "High", "hydroConoSur": "High"},
  {"year": 2025, "transmission": "Integrated", "sovereignty": "WithSovereignty", "demand": "BaseCase", "hydroAndean": "High", "hydroConoSur": "High"},
  {"year": 2035, "transmission": "Integrated", "sovereignty": "WithoutSovereignty", "demand": "NoCoal", "hydroAndean": "Low", "hydroConoSur": "Low"}
]}`

const scenarioDoc = `{
  "regional": {"generationMix": {"Solar": 10, "Hydro_Embalse": 5, "Hydro_Pasada": 5}},
  "countries": {"CL": {"generationMix": {"Solar": 10}}},
  "staticLines": [{"id": "AR-CL", "from": "Argentina", "to": "Chile", "existingCapacity": 100}]
}`

const kpiDoc = `{
  "regional": {"totalCost": 1, "totalInvestment": 2, "totalEmissions": 3, "geopoliticalCost": 4},
  "countries": {"CL": {"lossToTrust": 1, "energyBalance": {"imports": 1, "exports": -2}}}
}`

const investmentDoc = `{
  "generation": {"regional": {"Solar": 5}, "countries": {"CL": {"Solar": 5}}},
  "transmission": {"lines": [{"id": "AR-CL", "newCapacityMW": 50}]}
}`

// fakeSource serves in-memory documents. A gated name blocks until its gate
// is closed or the fetch context ends.
type fakeSource struct {
	mu      sync.Mutex
	docs    map[string][]byte
	gates   map[string]chan struct{}
	started chan string
	fetches atomic.Int32
}

func newFakeSource(configs ...scenario.Config) *fakeSource {
	f := &fakeSource{
		docs:    map[string][]byte{DefaultManifestName: []byte(manifestDoc)},
		gates:   map[string]chan struct{}{},
		started: make(chan string, 64),
	}
	for _, c := range configs {
		f.put(c)
	}
	return f
}

func (f *fakeSource) put(c scenario.Config) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[dataset.DocumentName(c.Key(), dataset.KindScenario)] = []byte(scenarioDoc)
	f.docs[dataset.DocumentName(c.Key(), dataset.KindKPI)] = []byte(kpiDoc)
	f.docs[dataset.DocumentName(c.Key(), dataset.KindInvestment)] = []byte(investmentDoc)
}

func (f *fakeSource) gate(c scenario.Config) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := make(chan struct{})
	f.gates[dataset.DocumentName(c.Key(), dataset.KindScenario)] = g
	return g
}

func (f *fakeSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	f.fetches.Add(1)
	f.mu.Lock()
	gate := f.gates[name]
	data, ok := f.docs[name]
	f.mu.Unlock()

	if gate != nil {
		f.started <- name
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, source.ErrNotFound
	}
	return data, nil
}

func newTestLoader(t *testing.T, src source.Source, cacheSize int) *Loader {
	t.Helper()
	l, err := NewLoader(src, LoaderOptions{CacheSize: cacheSize})
	if err != nil {
		t.Fatalf("NewLoader: %v", err)
	}
	return l
}

func waitStarted(t *testing.T, f *fakeSource) {
	t.Helper()
	select {
	case <-f.started:
	case <-time.After(5 * time.Second):
		t.Fatal("gated fetch never started")
	}
}

func TestLoaderManifest(t *testing.T) {
	l := newTestLoader(t, newFakeSource(), 0)
	m, report, err := l.Manifest(context.Background())
	if err != nil {
		t.Fatalf("Manifest: %v", err)
	}
	if m.Len() != 3 || !report.Valid {
		t.Errorf("manifest len %d, report %s", m.Len(), report.Summary)
	}
}

func TestLoaderManifestUnavailable(t *testing.T) {
	f := newFakeSource()
	delete(f.docs, DefaultManifestName)
	l := newTestLoader(t, f, 0)
	_, _, err := l.Manifest(context.Background())
	if !errors.Is(err, scenario.ErrManifestUnavailable) || !errors.Is(err, source.ErrNotFound) {
		t.Errorf("expected ErrManifestUnavailable wrapping ErrNotFound, got %v", err)
	}
}

func TestLoaderLoadCaches(t *testing.T) {
	f := newFakeSource(cfgA)
	l := newTestLoader(t, f, 4)

	snap, report, err := l.Load(context.Background(), cfgA)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snap.ID == "" || snap.Key != cfgA.Key() || report == nil {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if got := snap.KPI.Regional.Lines[0].Capacity; got != 150 {
		t.Errorf("merged capacity = %v, want 150", got)
	}

	again, _, err := l.Load(context.Background(), cfgA)
	if err != nil {
		t.Fatal(err)
	}
	if again != snap {
		t.Error("second load should return the cached snapshot")
	}
	if n := f.fetches.Load(); n != 3 {
		t.Errorf("fetches = %d, want 3", n)
	}

	if !l.Cached(cfgA.Key()) {
		t.Fatal("expected snapshot to be cached")
	}
	if key, ok := l.InvalidateDocument(dataset.DocumentName(cfgA.Key(), dataset.KindKPI)); !ok || key != cfgA.Key() {
		t.Errorf("InvalidateDocument = %q, %v", key, ok)
	}
	if l.Cached(cfgA.Key()) {
		t.Error("snapshot should be evicted")
	}
}

func TestLoaderMissingDocument(t *testing.T) {
	f := newFakeSource(cfgA)
	delete(f.docs, dataset.DocumentName(cfgA.Key(), dataset.KindInvestment))
	l := newTestLoader(t, f, 4)

	snap, _, err := l.Load(context.Background(), cfgA)
	if !errors.Is(err, dataset.ErrDataUnavailable) || !errors.Is(err, source.ErrNotFound) {
		t.Fatalf("expected ErrDataUnavailable wrapping ErrNotFound, got %v", err)
	}
	if snap != nil {
		t.Error("no partial snapshot may be returned")
	}
	if l.Cached(cfgA.Key()) {
		t.Error("failures must not be cached")
	}
}

func TestLoaderDeduplicatesConcurrentLoads(t *testing.T) {
	f := newFakeSource(cfgA)
	gate := f.gate(cfgA)
	l := newTestLoader(t, f, 4)

	var wg sync.WaitGroup
	results := make([]*dataset.Snapshot, 2)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _, _ = l.Load(context.Background(), cfgA)
		}()
	}
	waitStarted(t, f)
	// Give the second caller time to join the in-flight load.
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	if results[0] == nil || results[0] != results[1] {
		t.Errorf("callers should share one snapshot, got %p and %p", results[0], results[1])
	}
	if n := f.fetches.Load(); n != 3 {
		t.Errorf("fetches = %d, want 3", n)
	}
}

func TestLoaderCallerCancel(t *testing.T) {
	f := newFakeSource(cfgA)
	gate := f.gate(cfgA)
	l := newTestLoader(t, f, 4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, _, err := l.Load(ctx, cfgA)
		done <- err
	}()
	waitStarted(t, f)
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	close(gate)
}

func TestLoaderInvalidateDuringLoad(t *testing.T) {
	f := newFakeSource(cfgA)
	gate := f.gate(cfgA)
	l := newTestLoader(t, f, 4)
	ctx := context.Background()

	load := func() <-chan *dataset.Snapshot {
		out := make(chan *dataset.Snapshot, 1)
		go func() {
			snap, _, _ := l.Load(ctx, cfgA)
			out <- snap
		}()
		return out
	}

	first := load()
	waitStarted(t, f)
	l.Invalidate(cfgA.Key())

	// A load after the invalidation reads the documents again instead of
	// joining the one already running.
	second := load()
	waitStarted(t, f)
	close(gate)

	a, b := <-first, <-second
	if a == nil || b == nil || a.ID == b.ID {
		t.Fatalf("expected two distinct snapshots, got %v and %v", a, b)
	}
	if n := f.fetches.Load(); n != 6 {
		t.Errorf("fetches = %d, want 6", n)
	}
	cached, _, err := l.Load(ctx, cfgA)
	if err != nil {
		t.Fatal(err)
	}
	if cached != b {
		t.Error("only the load started after the invalidation may be cached")
	}
}

func TestLoaderPurgeDuringLoad(t *testing.T) {
	f := newFakeSource(cfgA)
	gate := f.gate(cfgA)
	l := newTestLoader(t, f, 4)

	done := make(chan error, 1)
	go func() {
		_, _, err := l.Load(context.Background(), cfgA)
		done <- err
	}()
	waitStarted(t, f)
	l.Purge()
	close(gate)
	if err := <-done; err != nil {
		t.Fatalf("Load: %v", err)
	}
	if l.Cached(cfgA.Key()) {
		t.Error("a load running across a purge must not be cached")
	}
}

func newTestSession(t *testing.T, f *fakeSource) *Session {
	t.Helper()
	l := newTestLoader(t, f, 4)
	m, _, err := l.Manifest(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return NewSession(l, m, nil)
}

func TestSessionChange(t *testing.T) {
	s := newTestSession(t, newFakeSource(cfgA, cfgB))
	ctx := context.Background()

	if s.Config() != cfgA {
		t.Fatalf("session should start at the first scenario, got %v", s.Config())
	}
	snap, err := s.Change(ctx, "transmission", "Integrated")
	if err != nil {
		t.Fatalf("Change: %v", err)
	}
	if snap.Config != cfgB || s.Snapshot() != snap {
		t.Errorf("expected snapshot for %v, got %v", cfgB, snap.Config)
	}

	v := s.View()
	if v.Key != cfgB.Key() || v.Loading || v.Error != "" {
		t.Errorf("unexpected view %+v", v)
	}
	if len(v.Options[scenario.FieldYear]) != 2 {
		t.Errorf("year options = %v", v.Options[scenario.FieldYear])
	}
}

func TestSessionNoResolutionKeepsState(t *testing.T) {
	s := newTestSession(t, newFakeSource(cfgA, cfgB))
	ctx := context.Background()
	before, err := s.Select(ctx, cfgA)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Change(ctx, "sovereignty", "WithoutSovereignty"); !errors.Is(err, scenario.ErrNoResolution) {
		t.Fatalf("expected ErrNoResolution, got %v", err)
	}
	if s.Config() != cfgA || s.Snapshot() != before {
		t.Error("rejected edit must not change the session")
	}
	if _, err := s.Change(ctx, "season", "winter"); !errors.Is(err, scenario.ErrInvalidField) {
		t.Errorf("expected ErrInvalidField, got %v", err)
	}
}

func TestSessionDataUnavailableClearsSnapshot(t *testing.T) {
	s := newTestSession(t, newFakeSource(cfgA)) // no documents for cfgB
	ctx := context.Background()
	if _, err := s.Select(ctx, cfgA); err != nil {
		t.Fatal(err)
	}

	_, err := s.Select(ctx, cfgB)
	if !errors.Is(err, dataset.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
	if s.Snapshot() != nil {
		t.Error("previous snapshot must be cleared")
	}
	v := s.View()
	if v.Config != cfgB || v.Error == "" {
		t.Errorf("view should show the failed selection and its error: %+v", v)
	}
}

func TestSessionLastWriteWins(t *testing.T) {
	f := newFakeSource(cfgA, cfgB)
	gate := f.gate(cfgA)
	defer close(gate)
	s := newTestSession(t, f)
	ctx := context.Background()

	stale := make(chan error, 1)
	go func() {
		_, err := s.Select(ctx, cfgA)
		stale <- err
	}()
	waitStarted(t, f)

	snap, err := s.Select(ctx, cfgB)
	if err != nil {
		t.Fatalf("Select(B): %v", err)
	}
	if err := <-stale; !errors.Is(err, ErrSuperseded) {
		t.Errorf("stale selection should be superseded, got %v", err)
	}
	if s.Snapshot() != snap || s.Config() != cfgB {
		t.Errorf("current state should be B, got %v", s.Config())
	}
}

func waitSnapshot(t *testing.T, s *Session) *dataset.Snapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if snap := s.Snapshot(); snap != nil {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("session never received a snapshot")
	return nil
}

func TestSessionCallerCancelKeepsLoading(t *testing.T) {
	f := newFakeSource(cfgA)
	gate := f.gate(cfgA)
	s := newTestSession(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := s.Select(ctx, cfgA)
		done <- err
	}()
	waitStarted(t, f)
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if v := s.View(); !v.Loading || v.Error != "" {
		t.Errorf("an abandoned wait is not a load failure: %+v", v)
	}

	close(gate)
	snap := waitSnapshot(t, s)
	if snap.Config != cfgA {
		t.Errorf("snapshot for %v, want %v", snap.Config, cfgA)
	}
	if v := s.View(); v.Loading || v.Error != "" || v.Key != cfgA.Key() {
		t.Errorf("unexpected view after the load finished: %+v", v)
	}
}

func TestSessionSelectUnknownConfig(t *testing.T) {
	s := newTestSession(t, newFakeSource(cfgA))
	unknown := cfgC
	unknown.Year = 2045
	if _, err := s.Select(context.Background(), unknown); !errors.Is(err, scenario.ErrNoResolution) {
		t.Errorf("expected ErrNoResolution, got %v", err)
	}
}

func TestSessionWatchReloadsCurrent(t *testing.T) {
	f := newFakeSource(cfgA)
	s := newTestSession(t, f)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := s.Select(ctx, cfgA)
	if err != nil {
		t.Fatal(err)
	}

	changes := make(chan source.Change, 1)
	done := make(chan struct{})
	go func() {
		s.Watch(ctx, changes)
		close(done)
	}()
	changes <- source.Change{Name: dataset.DocumentName(cfgA.Key(), dataset.KindKPI)}
	close(changes)
	<-done

	second := s.Snapshot()
	if second == nil || second.ID == first.ID {
		t.Error("changed document should produce a fresh snapshot")
	}
}
