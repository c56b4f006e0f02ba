package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

const testDebounce = 100 * time.Millisecond

func startWatcher(t *testing.T, path string, calls *int32) *Watcher {
	t.Helper()
	w := NewWatcher(path, func(string) { atomic.AddInt32(calls, 1) }, WithDebounce(testDebounce))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(w.Stop)
	return w
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partners.xlsx")
	var calls int32
	startWatcher(t, path, &calls)

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte{byte(i)}, 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !waitFor(t, 2*time.Second, func() bool { return atomic.LoadInt32(&calls) >= 1 }) {
		t.Fatal("expected a change callback")
	}
	time.Sleep(3 * testDebounce)
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("burst of writes produced %d callbacks, want 1", n)
	}
}

func TestWatcher_ReplaceByRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partners.xlsx")
	var calls int32
	startWatcher(t, path, &calls)

	tmp := filepath.Join(dir, "~$partners.xlsx")
	if err := os.WriteFile(tmp, []byte("new"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, 2*time.Second, func() bool { return atomic.LoadInt32(&calls) == 1 }) {
		t.Errorf("rename onto the file: got %d callbacks, want 1", atomic.LoadInt32(&calls))
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	var calls int32
	startWatcher(t, filepath.Join(dir, "partners.xlsx"), &calls)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(4 * testDebounce)
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Errorf("unrelated file produced %d callbacks", n)
	}
}

func TestWatcher_StopDropsPending(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partners.xlsx")
	var calls int32
	w := NewWatcher(path, func(string) { atomic.AddInt32(&calls, 1) }, WithDebounce(time.Second))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	w.Stop()
	w.Stop()
	time.Sleep(1200 * time.Millisecond)
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Errorf("callback ran after Stop: %d", n)
	}
}

func TestWatcher_ExpiredTimerAfterStop(t *testing.T) {
	var calls int32
	w := NewWatcher(filepath.Join(t.TempDir(), "partners.xlsx"),
		func(string) { atomic.AddInt32(&calls, 1) }, WithDebounce(time.Hour))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.schedule()
	w.mu.Lock()
	gen := w.gen
	w.mu.Unlock()

	// The timer expired just before Stop; its callback only runs afterwards.
	w.Stop()
	w.fire(gen)
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Errorf("callback ran after Stop: %d", n)
	}
}

func TestWatcher_SupersededTimer(t *testing.T) {
	var calls int32
	w := NewWatcher(filepath.Join(t.TempDir(), "partners.xlsx"),
		func(string) { atomic.AddInt32(&calls, 1) }, WithDebounce(time.Hour))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()
	w.schedule()
	w.mu.Lock()
	stale := w.gen
	w.mu.Unlock()
	w.schedule()

	w.fire(stale)
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Errorf("superseded timer ran the callback: %d", n)
	}
	w.mu.Lock()
	current := w.gen
	w.mu.Unlock()
	w.fire(current)
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("current timer: %d callbacks, want 1", n)
	}
}

func TestWatcher_StopWaitsForRunningChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partners.xlsx")
	entered := make(chan struct{})
	release := make(chan struct{})
	w := NewWatcher(path, func(string) {
		close(entered)
		<-release
	}, WithDebounce(testDebounce))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change callback")
	}

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
		t.Fatal("Stop returned while a change was still being handled")
	case <-time.After(150 * time.Millisecond):
	}
	close(release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the change finished")
	}
}

func TestWatcher_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	var calls int32
	w := startWatcher(t, filepath.Join(dir, "partners.xlsx"), &calls)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("directory not created: %v", err)
	}
	if !filepath.IsAbs(w.Path()) {
		t.Errorf("Path() = %q, want absolute", w.Path())
	}
}

func TestNewWatcher_defaults(t *testing.T) {
	w := NewWatcher("partners.xlsx", nil, WithDebounce(0))
	if w.debounce != DefaultDebounce {
		t.Errorf("debounce = %v, want %v", w.debounce, DefaultDebounce)
	}
	if w.logger == nil {
		t.Error("logger must default to a no-op logger")
	}
}
