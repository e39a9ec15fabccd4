package provider

import (
	"context"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"io"
	"log/slog"
	"testing"

	"github.com/broady/fntraits/ctype"
)

const testdataPkg = "github.com/broady/fntraits/provider/testdata"

func quietProvider() *SourceProvider {
	return &SourceProvider{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func loadTestdata(t *testing.T, names ...string) *Package {
	t.Helper()
	pkgs, err := quietProvider().Load(context.Background(), SourceInputOptions{
		Packages: []string{testdataPkg},
		Names:    names,
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(pkgs) != 1 {
		t.Fatalf("expected 1 package, got %d", len(pkgs))
	}
	return pkgs[0]
}

var (
	str     = ctype.Named("std::string")
	errCode = ctype.Named("std::error_code")
)

func TestSourceProvider_Funcs(t *testing.T) {
	pkg := loadTestdata(t)

	if pkg.Name != "testdata" || pkg.Path != testdataPkg {
		t.Errorf("unexpected package info %q %q", pkg.Name, pkg.Path)
	}

	tests := []struct {
		name string
		want *ctype.Function
	}{
		{"Divide", ctype.Func(ctype.Tuple(ctype.LongLong, ctype.LongLong, errCode), ctype.LongLong, ctype.LongLong)},
		{"Sum", ctype.VariadicFunc(ctype.Double, ctype.Double)},
		{"Apply", ctype.Func(
			ctype.Named("std::map", str, ctype.Bool),
			ctype.Named("std::vector", str),
			ctype.Named("std::function", ctype.Func(ctype.Bool, str)),
		)},
		{"Copy", ctype.Func(ctype.Tuple(ctype.LongLong, errCode), ctype.Named("io::Writer"), ctype.Named("io::Reader"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := pkg.Func(tt.name)
			if !ok {
				t.Fatalf("function %s not found", tt.name)
			}
			if !ctype.Identical(got, tt.want) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}

	if _, ok := pkg.Func("unexported"); ok {
		t.Error("unexported function should not be extracted")
	}
	if _, ok := pkg.Func("Fanout"); ok {
		t.Error("Fanout has a channel parameter and should be skipped")
	}
}

func TestSourceProvider_Classes(t *testing.T) {
	pkg := loadTestdata(t)

	counter, ok := pkg.Class("Counter")
	if !ok {
		t.Fatal("Counter not found")
	}
	want := map[string]*ctype.Function{
		"Add":   ctype.Func(ctype.LongLong, ctype.Int),
		"Reset": ctype.Func(ctype.Void),
		"Value": ctype.Func(ctype.LongLong).With(ctype.WithConst()),
	}
	if len(counter.Members) != len(want) {
		t.Fatalf("Counter has %d members, want %d: %v", len(counter.Members), len(want), counter.Members)
	}
	for _, m := range counter.Members {
		w, ok := want[m.Name]
		if !ok {
			t.Errorf("unexpected member %s", m.Name)
			continue
		}
		if !ctype.Identical(m.Type, w) {
			t.Errorf("%s: got %s, want %s", m.Name, m.Type, w)
		}
	}

	named, ok := pkg.Class("Named")
	if !ok {
		t.Fatal("Named not found")
	}
	for _, name := range []string{"Add", "Reset", "Value", "String"} {
		if len(named.Lookup(name)) != 1 {
			t.Errorf("Named should have promoted or declared member %s", name)
		}
	}
}

func TestSourceProvider_Warnings(t *testing.T) {
	pkg := loadTestdata(t)

	codes := map[string]string{}
	for _, w := range pkg.Warnings {
		codes[w.Name] = w.Code
	}
	if codes["Fanout"] != "UNSUPPORTED_FUNC" {
		t.Errorf("expected UNSUPPORTED_FUNC for Fanout, got %q", codes["Fanout"])
	}
	if codes["Pair"] != "GENERIC_TYPE" {
		t.Errorf("expected GENERIC_TYPE for Pair, got %q", codes["Pair"])
	}
}

func TestSourceProvider_Names(t *testing.T) {
	pkg := loadTestdata(t, "Sum", "Counter")
	if len(pkg.Funcs) != 1 || len(pkg.Classes) != 1 {
		t.Errorf("expected exactly Sum and Counter, got %d funcs and %d classes", len(pkg.Funcs), len(pkg.Classes))
	}

	_, err := quietProvider().Load(context.Background(), SourceInputOptions{
		Packages: []string{testdataPkg},
		Names:    []string{"Missing"},
	})
	if err == nil {
		t.Error("expected error for missing name")
	}
}

func TestSourceProvider_Directives(t *testing.T) {
	pkg := loadTestdata(t)

	notify, ok := pkg.Func("Notify")
	if !ok {
		t.Fatal("Notify not found")
	}
	want := ctype.Func(ctype.Void, ctype.Int).With(ctype.WithNoexcept(), ctype.WithConvention(ctype.ConvStdcall))
	if !ctype.Identical(notify, want) {
		t.Errorf("Notify: got %s, want %s", notify, want)
	}
	if _, ok := pkg.Func("Debug"); ok {
		t.Error("Debug is marked skip and should not be extracted")
	}

	buf, ok := pkg.Class("Buffer")
	if !ok {
		t.Fatal("Buffer not found")
	}
	ms := buf.Lookup("Len")
	if len(ms) != 1 || !ms[0].Type.Noexcept {
		t.Errorf("Buffer.Len should be noexcept, got %v", ms)
	}
	if len(buf.Lookup("Drain")) != 0 {
		t.Error("Buffer.Drain is marked skip and should not be a member")
	}
	// Promoted methods keep the annotations of their declaring type.
	if add := buf.Lookup("Add"); len(add) != 1 || add[0].Type.Noexcept {
		t.Errorf("Buffer.Add should be promoted unannotated, got %v", add)
	}

	for _, w := range pkg.Warnings {
		if w.Name == "Debug" || w.Name == "Buffer.Drain" {
			t.Errorf("skipped declarations should not warn: %+v", w)
		}
	}
}

func TestConvert_IgnoresDirectives(t *testing.T) {
	pkg := checkSource(t, `package p

//fntraits:noexcept
func F() {}
`)
	out, err := quietProvider().Convert(pkg)
	if err != nil {
		t.Fatal(err)
	}
	f, ok := out.Func("F")
	if !ok || f.Noexcept {
		t.Errorf("Convert works on types alone and should not see directives, got %v", f)
	}
}

func TestSourceProvider_NoPackages(t *testing.T) {
	if _, err := quietProvider().Load(context.Background(), SourceInputOptions{}); err == nil {
		t.Error("expected error when no packages are given")
	}
}

func checkSource(t *testing.T, src string) *types.Package {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "src.go", src, 0)
	if err != nil {
		t.Fatal(err)
	}
	conf := types.Config{Importer: importer.Default()}
	pkg, err := conf.Check("example.com/p", fset, []*ast.File{f}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return pkg
}

func TestConvert_BasicTypes(t *testing.T) {
	pkg := checkSource(t, `package p

import "unsafe"

func F(a int8, b uint8, c int16, d uint16, e uint32, f uint, g uintptr, h float32, i complex128, j unsafe.Pointer, k any, l *bool) {}
`)
	out, err := quietProvider().Convert(pkg)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := out.Func("F")
	if !ok {
		t.Fatalf("F not converted: %v", out.Warnings)
	}
	want := ctype.MustParse("void(signed char, unsigned char, short, unsigned short, unsigned int, unsigned long long, std::uintptr_t, float, std::complex<double>, void*, std::any, bool*)")
	if !ctype.Identical(got, want) {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestConvert_ReceiverQualifiers(t *testing.T) {
	pkg := checkSource(t, `package p

type T struct{}

func (T) Get() string { return "" }
func (*T) Set(string) {}
`)
	out, err := quietProvider().Convert(pkg)
	if err != nil {
		t.Fatal(err)
	}
	c, ok := out.Class("T")
	if !ok {
		t.Fatal("T not converted")
	}
	get := c.Lookup("Get")
	set := c.Lookup("Set")
	if len(get) != 1 || !get[0].Type.Const {
		t.Errorf("value receiver should yield a const member, got %v", get)
	}
	if len(set) != 1 || set[0].Type.Const {
		t.Errorf("pointer receiver should yield a non-const member, got %v", set)
	}
}
