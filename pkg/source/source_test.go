package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDirFetch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "scenarios.json", `{"scenarios": []}`)

	d, err := NewDir(dir)
	if err != nil {
		t.Fatalf("NewDir: %v", err)
	}
	got, err := d.Fetch(context.Background(), "scenarios.json")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(got) != `{"scenarios": []}` {
		t.Errorf("Fetch = %q", got)
	}

	if _, err := d.Fetch(context.Background(), "missing.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDirRejectsEscapes(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "data")
	if err := os.Mkdir(root, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, parent, "secret.json", "{}")

	d, err := NewDir(root)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"../secret.json", "a/../../secret.json", "..\\secret.json", ""} {
		if _, err := d.Fetch(context.Background(), name); !errors.Is(err, ErrNotFound) {
			t.Errorf("Fetch(%q) = %v, want ErrNotFound", name, err)
		}
	}
}

func TestNewDirMissing(t *testing.T) {
	if _, err := NewDir(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestDirCanceled(t *testing.T) {
	d, err := NewDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Fetch(ctx, "x.json"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestHTTPFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/scenarios.json":
			w.Write([]byte(`{"ok": true}`))
		case "/data/broken.json":
			http.Error(w, "boom", http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	h, err := NewHTTP(srv.URL + "/data")
	if err != nil {
		t.Fatalf("NewHTTP: %v", err)
	}
	ctx := context.Background()

	got, err := h.Fetch(ctx, "scenarios.json")
	if err != nil || string(got) != `{"ok": true}` {
		t.Errorf("Fetch = %q, %v", got, err)
	}
	if _, err := h.Fetch(ctx, "other.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := h.Fetch(ctx, "broken.json"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("expected a non-NotFound error, got %v", err)
	}
}

func TestNewHTTPRejectsRelative(t *testing.T) {
	if _, err := NewHTTP("data/"); err == nil {
		t.Error("expected error for relative base url")
	}
}

func TestMinioObjectKey(t *testing.T) {
	m, err := NewMinio(MinioOptions{Endpoint: "localhost:9000", Bucket: "grid", Prefix: "v1/data"})
	if err != nil {
		t.Fatalf("NewMinio: %v", err)
	}
	if got := m.objectKey("scenarios.json"); got != "v1/data/scenarios.json" {
		t.Errorf("objectKey = %q", got)
	}
	if _, err := NewMinio(MinioOptions{Endpoint: "localhost:9000"}); err == nil {
		t.Error("expected error without bucket")
	}
}

// With Redis unreachable the cache degrades to the wrapped source.
func TestCachedFallsBackWithoutRedis(t *testing.T) {
	calls := 0
	inner := Func(func(ctx context.Context, name string) ([]byte, error) {
		calls++
		if name == "missing.json" {
			return nil, ErrNotFound
		}
		return []byte("doc:" + name), nil
	})
	c := NewRedisCache(inner, RedisOptions{Addr: "127.0.0.1:1", TTL: time.Minute}, zap.NewNop())
	defer c.Close()

	got, err := c.Fetch(context.Background(), "a.json")
	if err != nil || string(got) != "doc:a.json" {
		t.Errorf("Fetch = %q, %v", got, err)
	}
	if _, err := c.Fetch(context.Background(), "missing.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if calls != 2 {
		t.Errorf("inner called %d times, want 2", calls)
	}
}

func TestWatcherReportsChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	writeFile(t, dir, "notes.txt", "ignored")
	writeFile(t, dir, "scenarios.json", "{}")

	select {
	case c := <-w.Changes:
		if c.Name != "scenarios.json" {
			t.Errorf("unexpected change %+v", c)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatcherKeepsChangesWhileReceiverIsBehind(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	const files = 24 // more than the change buffer holds
	for i := range files {
		writeFile(t, dir, fmt.Sprintf("doc-%02d.json", i), "{}")
	}
	// Let the buffer fill before anyone reads.
	time.Sleep(5 * w.debounce)

	seen := make(map[string]bool)
	timeout := time.After(5 * time.Second)
	for len(seen) < files {
		select {
		case c := <-w.Changes:
			seen[c.Name] = true
		case <-timeout:
			t.Fatalf("only %d of %d changes reported", len(seen), files)
		}
	}
}
