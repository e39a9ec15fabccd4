package gen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/broady/fntraits"
	"github.com/broady/fntraits/ctype"
	"github.com/broady/fntraits/sink"
)

func quietGenerator() *Generator {
	return &Generator{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

const callbacksManifest = `
target: x86-windows-msvc
output: include/callbacks.hpp
namespace: app::cb
guard: APP_CB_H
aliases:
  - name: Handler
    doc: Handler receives events.
    type: "int (*)(int, char)"
  - name: StdHandler
    from: Handler
    overrides:
      convention: stdcall
  - name: Method
    from: Handler
    overrides:
      class: Widget
      qualifiers: {const: true}
      insert:
        - {at: 0, type: "const Widget&"}
  - name: Plain
    type: "void(int)"
    overrides:
      noexcept: true
      remove: [0]
`

func TestParseManifest(t *testing.T) {
	m, err := ParseManifest([]byte(callbacksManifest))
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if m.Target != "x86-windows-msvc" || m.Output != "include/callbacks.hpp" || len(m.Aliases) != 4 {
		t.Errorf("unexpected manifest %+v", m)
	}
	if !m.commentsEnabled() {
		t.Error("comments default to enabled")
	}
	if m.Aliases[1].Overrides == nil || *m.Aliases[1].Overrides.Convention != "stdcall" {
		t.Errorf("overrides not decoded: %+v", m.Aliases[1])
	}
}

func TestParseManifest_Errors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"empty", "", ""},
		{"syntax", "aliases: [", ""},
		{"unknown field", "output: a.hpp\nbogus: 1\naliases: [{name: F, type: int()}]", ""},
		{"no output", "aliases: [{name: F, type: \"void()\"}]", "Output"},
		{"no aliases", "output: a.hpp", "Aliases"},
		{"no name", "output: a.hpp\naliases: [{type: \"void()\"}]", "Aliases[0].Name"},
		{"no base", "output: a.hpp\naliases: [{name: F}]", "Aliases[0].Type"},
		{"two bases", "output: a.hpp\naliases: [{name: F, type: \"void()\", from: G}]", "Aliases[0].Type"},
		{"go without func", "output: a.hpp\naliases: [{name: F, go: {package: p}}]", "Aliases[0].Go.Func"},
		{"bad ref", "output: a.hpp\naliases: [{name: F, type: \"void()\", overrides: {qualifiers: {ref: sideways}}}]", "Aliases[0].Overrides.Qualifiers.Ref"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.src))
			if !fntraits.IsCode(err, fntraits.CodeInvalidArgument) {
				t.Fatalf("expected invalid_argument, got %v", err)
			}
			if tt.field == "" {
				return
			}
			fe := err.(*fntraits.Error)
			if _, ok := fe.Details[tt.field]; !ok {
				t.Errorf("expected detail for %s, got %v", tt.field, fe.Details)
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	m, err := ParseManifest([]byte(callbacksManifest))
	if err != nil {
		t.Fatal(err)
	}
	out := sink.NewMemorySink()
	res, err := quietGenerator().Generate(context.Background(), m, out)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Path != "include/callbacks.hpp" || res.Target != "x86-windows-msvc" || len(res.Aliases) != 4 {
		t.Errorf("unexpected result %+v", res)
	}

	want := map[string]string{
		"Handler":    "int (*)(int, char)",
		"StdHandler": "int (__stdcall *)(int, char)",
		"Method":     "int (Widget::*)(const Widget&, int, char) const",
		"Plain":      "void() noexcept",
	}
	for _, r := range res.Aliases {
		if got := ctype.Spell(r.Type); got != want[r.Name] {
			t.Errorf("%s = %s, want %s", r.Name, got, want[r.Name])
		}
		if r.Descriptor == nil {
			t.Errorf("%s has no descriptor", r.Name)
		}
	}

	header := string(out.Get("include/callbacks.hpp"))
	for _, line := range []string{
		"// Code generated by fntraits gen. DO NOT EDIT.",
		"// Target: x86-windows-msvc (C++17)",
		"#ifndef APP_CB_H",
		"namespace app::cb {",
		"// Handler receives events.",
		"using Handler = int (*)(int, char);",
		"using StdHandler = int (__stdcall *)(int, char);",
		"using Method = int (Widget::*)(const Widget&, int, char) const;",
		"using Plain = void() noexcept;",
		"}  // namespace app::cb",
		"#endif  // APP_CB_H",
	} {
		if !strings.Contains(header, line+"\n") {
			t.Errorf("header missing %q:\n%s", line, header)
		}
	}
	if len(header) != res.Size {
		t.Errorf("Size = %d, header has %d bytes", res.Size, len(header))
	}
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		code  fntraits.ErrorCode
		alias string
	}{
		{"unknown target", "target: pdp11\noutput: a.hpp\naliases: [{name: F, type: \"void()\"}]", fntraits.CodeInvalidArgument, ""},
		{"unparseable", "output: a.hpp\naliases: [{name: F, type: \"void(\"}]", fntraits.CodeInvalidArgument, "F"},
		{"not callable", "output: a.hpp\naliases: [{name: F, type: \"int\"}]", fntraits.CodeUnrecognizedShape, "F"},
		{"forward from", "output: a.hpp\naliases: [{name: F, from: G}, {name: G, type: \"void()\"}]", fntraits.CodeInvalidArgument, "F"},
		{"index", "output: a.hpp\naliases: [{name: F, type: \"void(int)\", overrides: {remove: [3]}}]", fntraits.CodeIndexOutOfRange, "F"},
		{"unavailable convention", "target: x86_64-linux-gnu\noutput: a.hpp\naliases: [{name: F, type: \"void()\", overrides: {convention: stdcall}}]", fntraits.CodeUnsupportedOverride, "F"},
		{"keyword name", "output: a.hpp\naliases: [{name: class, type: \"void()\"}]", fntraits.CodeInvalidArgument, ""},
		{"duplicate name", "output: a.hpp\naliases: [{name: F, type: \"void()\"}, {name: F, type: \"void()\"}]", fntraits.CodeInvalidArgument, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseManifest([]byte(tt.src))
			if err != nil {
				t.Fatalf("ParseManifest: %v", err)
			}
			out := sink.NewMemorySink()
			_, err = quietGenerator().Generate(context.Background(), m, out)
			if !fntraits.IsCode(err, tt.code) {
				t.Fatalf("expected %s, got %v", tt.code, err)
			}
			if tt.alias != "" && err.(*fntraits.Error).Details["alias"] != tt.alias {
				t.Errorf("expected alias detail %q, got %v", tt.alias, err.(*fntraits.Error).Details)
			}
			if len(out.Files()) != 0 {
				t.Error("nothing may be written when an alias fails")
			}
		})
	}
}

func TestAliasError(t *testing.T) {
	inner := fntraits.NewError(fntraits.CodeIndexOutOfRange, "position 3 out of range").WithDetail("position", 3)

	direct := aliasError(inner, 0, "F")
	fe, ok := direct.(*fntraits.Error)
	if !ok || fe.Message != inner.Message || fe.Details["alias"] != "F" || fe.Details["index"] != 0 || fe.Details["position"] != 3 {
		t.Errorf("direct = %#v", direct)
	}

	nested := aliasError(fmt.Errorf("remove[0]: %w", inner), 2, "G")
	fe, ok = nested.(*fntraits.Error)
	if !ok {
		t.Fatalf("nested = %T, want *fntraits.Error", nested)
	}
	if fe.Code != fntraits.CodeIndexOutOfRange {
		t.Errorf("code = %s", fe.Code)
	}
	if !strings.Contains(fe.Message, "remove[0]") || !strings.Contains(fe.Message, "position 3 out of range") {
		t.Errorf("outer context lost: %q", fe.Message)
	}
	if fe.Details["alias"] != "G" || fe.Details["index"] != 2 || fe.Details["position"] != 3 {
		t.Errorf("details = %v", fe.Details)
	}
	if !errors.Is(nested, inner) {
		t.Error("nested error should unwrap to the original")
	}

	plain := aliasError(io.ErrUnexpectedEOF, 1, "H")
	if !errors.Is(plain, io.ErrUnexpectedEOF) || !strings.Contains(plain.Error(), `alias "H"`) {
		t.Errorf("plain = %v", plain)
	}
}

func TestGenerate_GoBase(t *testing.T) {
	m, err := ParseManifest([]byte(`
target: generic
output: go.hpp
comments: false
aliases:
  - name: Divide
    go: {package: github.com/broady/fntraits/provider/testdata, func: Divide}
  - name: Add
    go: {package: github.com/broady/fntraits/provider/testdata, type: Counter, method: Add}
  - name: Value
    go: {package: github.com/broady/fntraits/provider/testdata, type: Counter, method: Value}
    overrides: {noexcept: true}
`))
	if err != nil {
		t.Fatal(err)
	}
	out := sink.NewMemorySink()
	if _, err := quietGenerator().Generate(context.Background(), m, out); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	header := string(out.Get("go.hpp"))
	for _, line := range []string{
		"using Divide = std::tuple<long long, long long, std::error_code>(long long, long long);",
		"using Add = long long (Counter::*)(int);",
		"using Value = long long (Counter::*)() const noexcept;",
	} {
		if !strings.Contains(header, line) {
			t.Errorf("header missing %q:\n%s", line, header)
		}
	}
	if strings.Contains(header, "(#") {
		t.Error("comments: false must suppress descriptor comments")
	}
}

func TestCheck(t *testing.T) {
	m, err := ParseManifest([]byte(callbacksManifest))
	if err != nil {
		t.Fatal(err)
	}
	g := quietGenerator()
	root := t.TempDir()

	stale, err := g.Check(context.Background(), m, root)
	if err != nil {
		t.Fatal(err)
	}
	if len(stale) != 1 {
		t.Errorf("missing header should be stale, got %v", stale)
	}

	if _, err := g.Generate(context.Background(), m, sink.NewFilesystemSink(root)); err != nil {
		t.Fatal(err)
	}
	stale, err = g.Check(context.Background(), m, root)
	if err != nil || len(stale) != 0 {
		t.Errorf("fresh header reported stale: %v, %v", stale, err)
	}

	path := filepath.Join(root, "include", "callbacks.hpp")
	if err := os.WriteFile(path, []byte("edited"), 0644); err != nil {
		t.Fatal(err)
	}
	stale, _ = g.Check(context.Background(), m, root)
	if len(stale) != 1 || stale[0] != "include/callbacks.hpp" {
		t.Errorf("edited header should be stale, got %v", stale)
	}
}

func TestLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	if err := os.WriteFile(path, []byte("output: a.hpp\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadManifest(path)
	fe, ok := err.(*fntraits.Error)
	if !ok || fe.Details["path"] != path {
		t.Errorf("expected error with path detail, got %v", err)
	}
	if _, err := LoadManifest(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
