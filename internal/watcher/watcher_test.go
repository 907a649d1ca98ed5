package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 4)
	w, err := New(100*time.Millisecond, 0, []string{"exclude_dir"}, []string{"*_pb2.py"}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	testFile := filepath.Join(tmpDir, "module.py")
	os.WriteFile(testFile, []byte("x = 1\n"), 0644)

	select {
	case paths := <-changedFiles:
		found := false
		for _, p := range paths {
			if p == testFile {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected to find %s in changed files %v", testFile, paths)
		}
	case <-time.After(2 * time.Second):
		t.Error("Timed out waiting for file change event")
	}

	// Non-Python and excluded files never trigger.
	os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("irrelevant"), 0644)
	os.WriteFile(filepath.Join(tmpDir, "gen_pb2.py"), []byte("x = 1\n"), 0644)

	select {
	case paths := <-changedFiles:
		for _, p := range paths {
			base := filepath.Base(p)
			if base == "notes.txt" || base == "gen_pb2.py" {
				t.Errorf("Excluded file triggered event: %s", p)
			}
		}
	case <-time.After(500 * time.Millisecond):
		// Expected
	}

	// New directory should be recursively watched after create.
	subdir := filepath.Join(tmpDir, "pkg")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatal(err)
	}
	subFile := filepath.Join(subdir, "nested.py")
	if err := os.WriteFile(subFile, []byte("y = 2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	foundNested := false
	timeout := time.After(2 * time.Second)
	for !foundNested {
		select {
		case paths := <-changedFiles:
			for _, p := range paths {
				if p == subFile {
					foundNested = true
					break
				}
			}
		case <-timeout:
			t.Fatal("timed out waiting for nested file event in newly created directory")
		}
	}
}

func TestWatcherDebounceCoalesces(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 4)
	w, err := New(200*time.Millisecond, 0, nil, nil, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	a := filepath.Join(tmpDir, "a.py")
	b := filepath.Join(tmpDir, "b.py")
	os.WriteFile(a, []byte("x = 1\n"), 0644)
	os.WriteFile(b, []byte("y = 2\n"), 0644)

	select {
	case paths := <-changedFiles:
		if len(paths) < 2 {
			// Both writes landed inside one debounce window; a single-path
			// batch means the window split them, which is timing-dependent
			// but the second batch must still arrive.
			select {
			case <-changedFiles:
			case <-time.After(2 * time.Second):
				t.Error("second change never flushed")
			}
		}
	case <-time.After(2 * time.Second):
		t.Error("Timed out waiting for coalesced batch")
	}
}
