package shape

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/broady/fntraits/ctype"
	"github.com/broady/fntraits/platform"
)

func target(t *testing.T, name string) *platform.Target {
	t.Helper()
	tgt, ok := platform.Lookup(name)
	if !ok {
		t.Fatalf("unknown target %s", name)
	}
	return tgt
}

func TestGenerate_Counts(t *testing.T) {
	tests := []struct {
		target string
		want   int
	}{
		{platform.Generic, 52},
		{platform.GenericCXX14, 26},
		{platform.AArch64Linux, 52},
		{platform.X8664Linux, 104},
		{platform.X86Windows, 154},
	}
	for _, tt := range tests {
		c := Generate(target(t, tt.target))
		if got := c.Len(); got != tt.want {
			t.Errorf("%s: Len() = %d, want %d", tt.target, got, tt.want)
		}
	}
}

func TestGenerate_Exclusive(t *testing.T) {
	for _, tgt := range platform.Builtin() {
		c := Generate(tgt)
		seen := map[Key]bool{}
		names := map[string]bool{}
		for i, e := range c.Entries() {
			if e.Ordinal != i {
				t.Errorf("%s: entry %d has ordinal %d", tgt.Name, i, e.Ordinal)
			}
			if seen[e.Key] {
				t.Errorf("%s: duplicate key %s", tgt.Name, e.Key)
			}
			seen[e.Key] = true
			if names[e.Name()] {
				t.Errorf("%s: duplicate name %s", tgt.Name, e.Name())
			}
			names[e.Name()] = true
			got, ok := c.Lookup(e.Key)
			if !ok || got != e {
				t.Errorf("%s: Lookup(%s) = %v, %v", tgt.Name, e.Key, got, ok)
			}
			if err := c.Explain(e.Key); err != nil {
				t.Errorf("%s: Explain(%s) = %v for a present key", tgt.Name, e.Key, err)
			}
		}
	}
}

func TestGenerate_FreeShapesUnqualified(t *testing.T) {
	c := Generate(target(t, platform.X86Windows))
	c.Each(func(e Entry) bool {
		if !e.Key.Member && (e.Key.Const || e.Key.Volatile || e.Key.Ref != ctype.RefNone) {
			t.Errorf("free entry %s carries member qualifiers", e.Name())
		}
		return true
	})
}

func TestKeyName(t *testing.T) {
	tests := []struct {
		key  Key
		want string
	}{
		{Key{}, "free"},
		{Key{Variadic: true}, "free_variadic"},
		{Key{Member: true}, "member"},
		{
			Key{Member: true, Const: true, Ref: ctype.RefLValue, Noexcept: true, Variadic: true, Convention: ctype.ConvCdecl},
			"member_const_lref_noexcept_variadic_cdecl",
		},
		{Key{Member: true, Volatile: true, Ref: ctype.RefRValue, Convention: ctype.ConvAAPCSVFP}, "member_volatile_rref_aapcs_vfp"},
	}
	for _, tt := range tests {
		if got := tt.key.Name(); got != tt.want {
			t.Errorf("Name() = %q, want %q", got, tt.want)
		}
	}
}

func TestKeyOf_NormalisesDefault(t *testing.T) {
	win := target(t, platform.X86Windows)
	fn := ctype.Func(ctype.Void).With(ctype.WithConvention(ctype.ConvCdecl))
	if k := KeyOf(win, fn, false); k.Convention != ctype.ConvDefault {
		t.Errorf("free __cdecl on %s: convention %v, want default", win.Name, k.Convention)
	}
	if k := KeyOf(win, fn, true); k.Convention != ctype.ConvCdecl {
		t.Errorf("member __cdecl on %s: convention %v, want cdecl", win.Name, k.Convention)
	}
	this := ctype.Func(ctype.Void).With(ctype.WithConvention(ctype.ConvThiscall))
	if k := KeyOf(win, this, true); k.Convention != ctype.ConvDefault {
		t.Errorf("member __thiscall: convention %v, want default", k.Convention)
	}

	// Variadic members fall back to __cdecl, so only that spelling folds.
	vfn := ctype.VariadicFunc(ctype.Void, ctype.Int).With(ctype.WithConvention(ctype.ConvCdecl))
	if k := KeyOf(win, vfn, true); k.Convention != ctype.ConvDefault {
		t.Errorf("variadic member __cdecl: convention %v, want default", k.Convention)
	}
	vthis := ctype.VariadicFunc(ctype.Void, ctype.Int).With(ctype.WithConvention(ctype.ConvThiscall))
	if k := KeyOf(win, vthis, true); k.Convention != ctype.ConvThiscall {
		t.Errorf("variadic member __thiscall: convention %v, want thiscall", k.Convention)
	}
}

func TestGenerate_NoExplicitDefaultKeys(t *testing.T) {
	for _, tgt := range platform.Builtin() {
		Generate(tgt).Each(func(e Entry) bool {
			if e.Key.Convention != ctype.ConvDefault && e.Key.Convention == tgt.DefaultFor(e.Key.Member, e.Key.Variadic) {
				t.Errorf("%s: entry %s spells the default convention", tgt.Name, e.Name())
			}
			return true
		})
	}
}

func TestExplain(t *testing.T) {
	tests := []struct {
		target string
		key    Key
		axis   Axis
		reason string
	}{
		{platform.Generic, Key{Const: true}, AxisQualifiers, "require a member function"},
		{platform.Generic, Key{Ref: ctype.RefRValue}, AxisRef, "ref-qualifier && requires a member function"},
		{platform.GenericCXX14, Key{Noexcept: true}, AxisException, "C++14"},
		{platform.X8664Linux, Key{Convention: ctype.ConvStdcall}, AxisConvention, "__stdcall is not available on x86_64-linux-gnu"},
		{platform.X86Windows, Key{Convention: ctype.ConvStdcall, Variadic: true}, AxisConvention, "does not allow variadic"},
		{platform.X86Windows, Key{Convention: ctype.ConvThiscall}, AxisConvention, "__thiscall requires a member function"},
		{platform.X86Windows, Key{Convention: ctype.ConvCdecl}, AxisConvention, "__cdecl is the default on x86-windows-msvc"},
		{platform.X86Windows, Key{Member: true, Variadic: true, Convention: ctype.ConvThiscall}, AxisConvention, "__thiscall does not allow variadic functions"},
		{platform.X86Windows, Key{Member: true, Variadic: true, Convention: ctype.ConvCdecl}, AxisConvention, "__cdecl is the default"},
		{platform.X86Linux, Key{Convention: ctype.ConvThiscall}, AxisConvention, "requires a member function"},
	}
	for _, tt := range tests {
		t.Run(tt.target+"/"+tt.key.Name(), func(t *testing.T) {
			c := Generate(target(t, tt.target))
			if _, ok := c.Lookup(tt.key); ok {
				t.Fatalf("key %s unexpectedly present", tt.key)
			}
			err := c.Explain(tt.key)
			var absent *AbsentError
			if !errors.As(err, &absent) {
				t.Fatalf("Explain = %v, want *AbsentError", err)
			}
			if absent.Axis != tt.axis {
				t.Errorf("axis = %s, want %s", absent.Axis, tt.axis)
			}
			if !strings.Contains(absent.Error(), tt.reason) {
				t.Errorf("reason %q does not contain %q", absent.Error(), tt.reason)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	c := ctype.Named("C")
	k := Key{Member: true, Const: true, Ref: ctype.RefLValue, Noexcept: true}
	got := k.Build(c, ctype.Int, []ctype.Type{ctype.Const(ctype.Int)})
	if s := got.String(); s != "int (C::*)(int) const & noexcept" {
		t.Errorf("Build = %q", s)
	}
	free := Key{Variadic: true, Convention: ctype.ConvStdcall}.Build(nil, ctype.Void, []ctype.Type{ctype.Char})
	if s := free.String(); s != "void __stdcall(char, ...)" {
		t.Errorf("Build = %q", s)
	}
}

func TestFor_Memoised(t *testing.T) {
	tgt := target(t, platform.X8664Linux)
	var wg sync.WaitGroup
	results := make([]*Catalog, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = For(tgt)
		}()
	}
	wg.Wait()
	for _, c := range results[1:] {
		if c != results[0] {
			t.Fatal("For returned different catalogs for one target")
		}
	}
	if results[0].Target() != tgt {
		t.Error("Target() mismatch")
	}
}

func TestFor_ReplacedTarget(t *testing.T) {
	first := &platform.Target{Name: "replaced-for-test", Standard: platform.CXX17}
	c1 := For(first)
	if c1.Len() != 52 {
		t.Fatalf("first catalog has %d entries", c1.Len())
	}

	second := &platform.Target{Name: first.Name, Standard: platform.CXX14}
	c2 := For(second)
	if c2 == c1 || c2.Target() != second || c2.Len() != 26 {
		t.Fatalf("replacement catalog = %p (len %d), first = %p", c2, c2.Len(), c1)
	}
	if For(second) != c2 {
		t.Error("replacement catalog not memoised")
	}

	n := 0
	catalogs.Range(func(k, v any) bool {
		if k == first.Name {
			n++
			if v.(*Catalog) != c2 {
				t.Error("cache still holds the replaced catalog")
			}
		}
		return true
	})
	if n != 1 {
		t.Errorf("%d cache slots for %s, want 1", n, first.Name)
	}
}
