package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchPaths(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	changed := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- watchPaths(ctx, []string{dir}, func() error {
			select {
			case changed <- struct{}{}:
			default:
			}
			return nil
		})
	}()

	// give the watcher time to register before writing
	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "sonido.yaml"), []byte("piano: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changed:
	case <-ctx.Done():
		t.Fatal("no change reported")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watchPaths: %v", err)
	}
}

func TestWatchPathsMissingDir(t *testing.T) {
	err := watchPaths(context.Background(), []string{filepath.Join(t.TempDir(), "nope")}, func() error { return nil })
	if err == nil {
		t.Fatal("expected error for missing path")
	}
}
