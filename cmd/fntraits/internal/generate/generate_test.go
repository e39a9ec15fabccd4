package generate

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/broady/fntraits"
	"github.com/broady/fntraits/cmd/fntraits/internal/cli"
)

const manifest = `
target: generic
output: include/cb.hpp
namespace: app
aliases:
  - name: Handler
    type: "int (*)(int, char)"
  - name: Strict
    from: Handler
    overrides: {noexcept: true}
`

func setup(t *testing.T) (*cli.Globals, *bytes.Buffer, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "aliases.yaml")
	if err := os.WriteFile(path, []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	g := &cli.Globals{Stdout: &out, Stderr: io.Discard}
	if err := g.Init(); err != nil {
		t.Fatal(err)
	}
	return g, &out, path
}

func TestGenAndCheck(t *testing.T) {
	g, out, path := setup(t)
	ctx := context.Background()
	header := filepath.Join(filepath.Dir(path), "include", "cb.hpp")

	if err := (&CheckCmd{Manifests: []string{path}}).Run(g, ctx); err == nil {
		t.Error("check should fail before gen")
	}

	if err := (&Cmd{Manifests: []string{path}}).Run(g, ctx); err != nil {
		t.Fatalf("gen: %v", err)
	}
	data, err := os.ReadFile(header)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "using Strict = int (*)(int, char) noexcept;") {
		t.Errorf("header:\n%s", data)
	}
	if !strings.Contains(out.String(), "wrote "+header+" (2 aliases, generic)") {
		t.Errorf("gen output = %q", out.String())
	}

	out.Reset()
	if err := (&CheckCmd{Manifests: []string{path}}).Run(g, ctx); err != nil {
		t.Errorf("check after gen: %v", err)
	}
	if !strings.Contains(out.String(), "up to date") {
		t.Errorf("check output = %q", out.String())
	}

	if err := (&Cmd{Manifests: []string{path}, NoClobber: true}).Run(g, ctx); err == nil {
		t.Error("--no-clobber should refuse to overwrite")
	}

	if err := os.WriteFile(header, []byte("// edited\n"), 0644); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	err = (&CheckCmd{Manifests: []string{path}}).Run(g, ctx)
	if err == nil || !strings.Contains(out.String(), "stale "+header) {
		t.Errorf("edited header: err = %v, output = %q", err, out.String())
	}
}

func TestGenRootAndTargetOverride(t *testing.T) {
	g, _, path := setup(t)
	g.Target = "generic-c++14"
	root := t.TempDir()

	err := (&Cmd{Manifests: []string{path}, Root: root}).Run(g, context.Background())
	var fe *fntraits.Error
	if !errors.As(err, &fe) || fe.Code != fntraits.CodeUnsupportedOverride || fe.Details["alias"] != "Strict" {
		t.Errorf("noexcept alias must fail on a C++14 target, got %v", err)
	}

	g.Target = ""
	if err := (&Cmd{Manifests: []string{path}, Root: root}).Run(g, context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(root, "include", "cb.hpp")); err != nil {
		t.Errorf("header not written under --root: %v", err)
	}
}
