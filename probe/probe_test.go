package probe_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/broady/fntraits"
	"github.com/broady/fntraits/ctype"
	"github.com/broady/fntraits/platform"
	"github.com/broady/fntraits/probe"
	"github.com/broady/fntraits/provider"
)

func newProber(t *testing.T) *probe.Prober {
	t.Helper()
	target, ok := platform.Lookup(platform.Generic)
	if !ok {
		t.Fatal("generic target missing")
	}
	e := fntraits.NewEngine(
		fntraits.WithTarget(target),
		fntraits.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return probe.New(e.IsCallable)
}

var widget = ctype.Named("Widget").WithMembers(
	ctype.Method("draw", ctype.Func(ctype.Void).With(ctype.WithConst())),
	ctype.Method("resize", ctype.Func(ctype.Void, ctype.Int, ctype.Int)),
	ctype.Method("resize", ctype.Func(ctype.Void, ctype.LRef(ctype.Const(ctype.Named("Size"))))),
	ctype.Member{Name: "create", Type: ctype.Func(ctype.PtrTo(ctype.Named("Widget"))), Static: true},
	ctype.Method("legacy", ctype.Func(ctype.Void).With(ctype.WithConvention(ctype.ConvStdcall))),
	ctype.Method("broken", nil),
)

var functor = ctype.Named("Less").WithMembers(
	ctype.Method(ctype.CallOperator, ctype.Func(ctype.Bool, ctype.Int, ctype.Int).With(ctype.WithConst())),
)

func TestHasMember(t *testing.T) {
	p := newProber(t)
	tests := []struct {
		class ctype.Type
		name  string
		want  bool
	}{
		{widget, "draw", true},
		{widget, "create", true},
		{widget, "legacy", true},
		{widget, "broken", true},
		{widget, "missing", false},
		{ctype.Const(widget), "draw", true},
		{ctype.LRef(widget), "resize", true},
		{ctype.Int, "draw", false},
		{ctype.PtrTo(widget), "draw", false},
	}
	for _, tt := range tests {
		t.Run(ctype.Spell(tt.class)+"::"+tt.name, func(t *testing.T) {
			if got := p.HasMember(tt.class, tt.name); got != tt.want {
				t.Errorf("HasMember = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasCallableMember(t *testing.T) {
	p := newProber(t)
	tests := []struct {
		name string
		want bool
	}{
		{"draw", true},
		{"resize", true},
		{"create", true},
		// __stdcall does not exist on the generic target.
		{"legacy", false},
		{"broken", false},
		{"missing", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.HasCallableMember(widget, tt.name); got != tt.want {
				t.Errorf("HasCallableMember(%s) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestHasMemberWithSignature(t *testing.T) {
	p := newProber(t)
	tests := []struct {
		desc string
		name string
		sig  ctype.Type
		want bool
	}{
		{"function type", "draw", ctype.Func(ctype.Void).With(ctype.WithConst()), true},
		{"missing const", "draw", ctype.Func(ctype.Void), false},
		{"member pointer", "draw", ctype.MustParse("void (Widget::*)() const"), true},
		{"wrong class", "draw", ctype.MustParse("void (Other::*)() const"), false},
		{"first overload", "resize", ctype.Func(ctype.Void, ctype.Int, ctype.Int), true},
		{"second overload", "resize", ctype.MustParse("void (Widget::*)(const Size&)"), true},
		{"no such overload", "resize", ctype.Func(ctype.Void, ctype.Int), false},
		{"static", "create", ctype.MustParse("Widget*()"), true},
		{"static as member pointer", "create", ctype.MustParse("Widget* (Widget::*)()"), false},
		{"uncallable", "legacy", ctype.Func(ctype.Void).With(ctype.WithConvention(ctype.ConvStdcall)), false},
		{"nil signature", "draw", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := p.HasMemberWithSignature(widget, tt.name, tt.sig); got != tt.want {
				t.Errorf("HasMemberWithSignature(%s, %v) = %v, want %v", tt.name, tt.sig, got, tt.want)
			}
		})
	}
}

func TestHasMemberWithSignature_TargetIdentity(t *testing.T) {
	target, _ := platform.Lookup(platform.X86Windows)
	e := fntraits.NewEngine(
		fntraits.WithTarget(target),
		fntraits.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	window := ctype.Named("Window").WithMembers(
		ctype.Method("show", ctype.Func(ctype.Void, ctype.Int).With(ctype.WithConvention(ctype.ConvThiscall))),
		ctype.Method("log", ctype.VariadicFunc(ctype.Void, ctype.Int)),
	)

	tests := []struct {
		desc string
		name string
		sig  ctype.Type
		want bool
	}{
		{"implicit thiscall member pointer", "show", ctype.MustParse("void (Window::*)(int)"), true},
		{"implicit thiscall function type", "show", ctype.Func(ctype.Void, ctype.Int), true},
		{"explicit thiscall", "show", ctype.MustParse("void (__thiscall Window::*)(int)"), true},
		{"other convention", "show", ctype.MustParse("void (__stdcall Window::*)(int)"), false},
		{"variadic explicit cdecl", "log", ctype.MustParse("void (__cdecl Window::*)(int, ...)"), true},
	}
	p := probe.New(e.IsCallable, probe.WithIdentity(e.Identical))
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := p.HasMemberWithSignature(window, tt.name, tt.sig); got != tt.want {
				t.Errorf("HasMemberWithSignature(%s, %s) = %v, want %v", tt.name, tt.sig, got, tt.want)
			}
		})
	}

	structural := probe.New(e.IsCallable)
	if structural.HasMemberWithSignature(window, "show", ctype.MustParse("void (Window::*)(int)")) {
		t.Error("the default identity is structural and should see the explicit __thiscall")
	}
}

func TestHasCallOperator(t *testing.T) {
	p := newProber(t)
	if !p.HasCallOperator(functor) {
		t.Error("Less should have a call operator")
	}
	if p.HasCallOperator(widget) {
		t.Error("Widget has no call operator")
	}
	if p.HasCallOperator(ctype.Int) {
		t.Error("int is not a class")
	}
}

func TestPredicateIsOnlyDependency(t *testing.T) {
	var seen []string
	p := probe.New(func(t ctype.Type) bool {
		seen = append(seen, ctype.Spell(t))
		return true
	})
	if !p.HasCallableMember(widget, "legacy") {
		t.Error("a permissive predicate should accept every member")
	}
	if len(seen) != 1 || seen[0] != "void (__stdcall Widget::*)()" {
		t.Errorf("predicate saw %v", seen)
	}
}

func TestPackage(t *testing.T) {
	pkgs, err := (&provider.SourceProvider{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}).Load(
		context.Background(),
		provider.SourceInputOptions{Packages: []string{"github.com/broady/fntraits/provider/testdata"}},
	)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	g := newProber(t).Package(pkgs[0])

	ok, err := g.HasCallableMember("Counter", "Add")
	if err != nil || !ok {
		t.Errorf("Counter.Add: %v, %v", ok, err)
	}
	ok, err = g.HasMemberWithSignature("Counter", "Value", ctype.MustParse("long long (Counter::*)() const"))
	if err != nil || !ok {
		t.Errorf("Counter.Value signature: %v, %v", ok, err)
	}
	ok, err = g.HasMember("Counter", "hidden")
	if err != nil || ok {
		t.Errorf("unexported methods must not be members: %v, %v", ok, err)
	}
	if _, err := g.HasMember("Nope", "Add"); err == nil {
		t.Error("expected error for unknown type")
	}
}
