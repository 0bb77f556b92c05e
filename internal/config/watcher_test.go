package config

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
)

// rewrite replaces the file's content and moves its modification time
// forward, so the change is visible even on coarse-grained filesystems.
func rewrite(t *testing.T, path, content string, age time.Duration) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	mtime := time.Now().Add(age)
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

// syncBuffer is a bytes.Buffer safe for use by a logger on another goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatcher_Poll(t *testing.T) {
	path := writeConfig(t, "detector.conf", "merge_distance 4\n")
	var logs syncBuffer
	w, err := NewWatcher(path, log.New(&logs, "", 0))
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	if w.Current().MergeDistance != 4 {
		t.Fatalf("initial merge_distance: got %v", w.Current().MergeDistance)
	}

	if w.Poll() {
		t.Error("Poll reported a change for an untouched file")
	}

	first := w.Current()
	rewrite(t, path, "merge_distance 9\n", time.Hour)
	if !w.Poll() {
		t.Fatal("Poll missed the rewrite")
	}
	if w.Current().MergeDistance != 9 || w.Reloads() != 1 {
		t.Errorf("after reload: merge_distance %v, reloads %d", w.Current().MergeDistance, w.Reloads())
	}
	if first.MergeDistance != 4 {
		t.Error("the previous snapshot was modified")
	}

	rewrite(t, path, "merge_distance -1\n", 2*time.Hour)
	if w.Poll() {
		t.Error("an invalid file should not be applied")
	}
	if w.Current().MergeDistance != 9 {
		t.Errorf("invalid file replaced the config: merge_distance %v", w.Current().MergeDistance)
	}
	if !strings.Contains(logs.String(), "keeping previous settings") {
		t.Errorf("log output: %q", logs.String())
	}

	// The bad version is not retried until the file changes again.
	if w.Poll() {
		t.Error("Poll retried an unchanged invalid file")
	}
}

func TestNewWatcher_Errors(t *testing.T) {
	if _, err := NewWatcher(writeConfig(t, "bad.conf", "harris_aperture 4\n"), nil); err == nil {
		t.Error("an invalid initial file should fail")
	}
	if _, err := NewWatcher("/nonexistent/detector.conf", nil); err == nil {
		t.Error("a missing file should fail")
	}
}

func TestWatcher_Run(t *testing.T) {
	path := writeConfig(t, "detector.yaml", "merge_distance: 4\n")
	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	w.SetInterval(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	rewrite(t, path, "merge_distance: 6\n", time.Hour)
	deadline := time.Now().Add(5 * time.Second)
	for w.Current().MergeDistance != 6 {
		if time.Now().After(deadline) {
			t.Fatal("watcher did not pick up the change")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
