package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{"aliases.hpp", false},
		{"include/fn/aliases.hpp", false},
		{"", true},
		{"/etc/passwd", true},
		{"C:/out.hpp", true},
		{"c:out.hpp", true},
		{"../out.hpp", true},
		{"a/../b.hpp", true},
		{"a//b.hpp", true},
		{"./a.hpp", true},
		{"a/b/", true},
		{`a\b.hpp`, true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestMemorySink(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySink()

	content := []byte("using F = void();\n")
	if err := s.WriteFile(ctx, "a.hpp", content); err != nil {
		t.Fatal(err)
	}
	content[0] = 'X'
	if got := string(s.Get("a.hpp")); got != "using F = void();\n" {
		t.Errorf("sink content aliased caller buffer: %q", got)
	}
	if s.Get("missing.hpp") != nil {
		t.Error("Get of unknown path should be nil")
	}

	files := s.Files()
	files["a.hpp"][0] = 'Y'
	if s.Get("a.hpp")[0] != 'u' {
		t.Error("Files returned shared buffers")
	}

	if err := s.WriteFile(ctx, "../x", nil); err == nil {
		t.Error("expected invalid path error")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := s.WriteFile(cancelled, "b.hpp", nil); err == nil {
		t.Error("expected context error")
	}
}

func TestMemorySink_Concurrent(t *testing.T) {
	s := NewMemorySink()
	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.WriteFile(context.Background(), fmt.Sprintf("f%d.hpp", i), []byte{byte(i)})
		}()
	}
	wg.Wait()
	if n := len(s.Files()); n != 32 {
		t.Errorf("expected 32 files, got %d", n)
	}
}

func TestFilesystemSink(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := NewFilesystemSink(root)

	if err := s.WriteFile(ctx, "include/aliases.hpp", []byte("one")); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteFile(ctx, "include/aliases.hpp", []byte("two")); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(filepath.Join(root, "include", "aliases.hpp"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "two" {
		t.Errorf("expected overwritten content, got %q", got)
	}

	info, err := os.Stat(filepath.Join(root, "include", "aliases.hpp"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("expected mode 0644, got %v", info.Mode().Perm())
	}

	entries, err := os.ReadDir(filepath.Join(root, "include"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestFilesystemSink_NoOverwrite(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := &FilesystemSink{Root: root}

	if err := s.WriteFile(ctx, "a.hpp", []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteFile(ctx, "a.hpp", []byte("second")); err == nil {
		t.Fatal("expected error writing over an existing file")
	}
	got, _ := os.ReadFile(filepath.Join(root, "a.hpp"))
	if string(got) != "first" {
		t.Errorf("existing file modified: %q", got)
	}
}

func TestFilesystemSink_PathSecurity(t *testing.T) {
	s := NewFilesystemSink(t.TempDir())
	for _, p := range []string{"../escape.hpp", "/abs.hpp", ".", ""} {
		if err := s.WriteFile(context.Background(), p, []byte("x")); err == nil {
			t.Errorf("WriteFile(%q) should fail", p)
		}
	}
}

func TestCheckSink(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "same.hpp"), []byte("same"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "old.hpp"), []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	s := NewCheckSink(root)
	for path, content := range map[string]string{
		"same.hpp":    "same",
		"old.hpp":     "new",
		"missing.hpp": "x",
	} {
		if err := s.WriteFile(ctx, path, []byte(content)); err != nil {
			t.Fatalf("%s: %v", path, err)
		}
	}

	stale := s.Stale()
	if len(stale) != 2 || stale[0] != "missing.hpp" || stale[1] != "old.hpp" {
		t.Errorf("Stale() = %v", stale)
	}
	if _, err := os.Stat(filepath.Join(root, "missing.hpp")); !os.IsNotExist(err) {
		t.Error("CheckSink must not write files")
	}
}
