// Package shape generates the catalog of function-type shapes recognised on a
// target.
//
// A shape is one combination of the orthogonal axes member, cv, ref,
// exception specification, variadic and calling convention. The catalog is
// the cross product of those axes filtered by the target's rules. Entries are
// keyed by the axis tuple, so no type can match two entries.
package shape

import (
	"fmt"
	"strings"
	"sync"

	"github.com/broady/fntraits/ctype"
	"github.com/broady/fntraits/platform"
)

// Key is the axis tuple identifying a shape. Convention is normalised:
// ctype.ConvDefault stands for the target's default convention.
type Key struct {
	Member     bool
	Const      bool
	Volatile   bool
	Ref        ctype.RefQualifier
	Noexcept   bool
	Variadic   bool
	Convention ctype.Convention
}

// KeyOf returns the axis tuple of fn. The convention is normalised against t
// so that an explicit default spelling maps to ctype.ConvDefault.
func KeyOf(t *platform.Target, fn *ctype.Function, member bool) Key {
	return Key{
		Member:     member,
		Const:      fn.Const,
		Volatile:   fn.Volatile,
		Ref:        fn.Ref,
		Noexcept:   fn.Noexcept,
		Variadic:   fn.Variadic,
		Convention: t.Normalize(fn.Convention, member, fn.Variadic),
	}
}

// Name returns the mnemonic of k, e.g. member_const_lref_noexcept_variadic_stdcall.
func (k Key) Name() string {
	parts := make([]string, 0, 7)
	if k.Member {
		parts = append(parts, "member")
	} else {
		parts = append(parts, "free")
	}
	if k.Const {
		parts = append(parts, "const")
	}
	if k.Volatile {
		parts = append(parts, "volatile")
	}
	switch k.Ref {
	case ctype.RefLValue:
		parts = append(parts, "lref")
	case ctype.RefRValue:
		parts = append(parts, "rref")
	}
	if k.Noexcept {
		parts = append(parts, "noexcept")
	}
	if k.Variadic {
		parts = append(parts, "variadic")
	}
	if k.Convention != ctype.ConvDefault {
		parts = append(parts, string(k.Convention))
	}
	return strings.Join(parts, "_")
}

func (k Key) String() string { return k.Name() }

// Function builds the function type of this shape with the given return and
// parameter types. Parameters are adjusted as in a declarator.
func (k Key) Function(ret ctype.Type, params []ctype.Type) *ctype.Function {
	return &ctype.Function{
		Return:     ret,
		Params:     ctype.AdjustParams(params),
		Variadic:   k.Variadic,
		Const:      k.Const,
		Volatile:   k.Volatile,
		Ref:        k.Ref,
		Noexcept:   k.Noexcept,
		Convention: k.Convention,
	}
}

// Build constructs the canonical type of this shape: a function type for a
// free shape, a pointer to member function of class for a member shape.
func (k Key) Build(class *ctype.Class, ret ctype.Type, params []ctype.Type) ctype.Type {
	fn := k.Function(ret, params)
	if k.Member {
		return ctype.MemPtr(class, fn)
	}
	return fn
}

// Entry is one shape of a catalog.
type Entry struct {
	// Ordinal is the position of the entry in generation order.
	Ordinal int
	Key     Key
}

// Name returns the mnemonic of the entry's key.
func (e Entry) Name() string { return e.Key.Name() }

func (e Entry) String() string { return fmt.Sprintf("#%d %s", e.Ordinal, e.Key.Name()) }

// Catalog is the closed set of shapes recognised on one target. It is
// immutable and safe for concurrent use.
type Catalog struct {
	target  *platform.Target
	entries []Entry
	index   map[Key]int
}

var (
	cvAxis   = [][2]bool{{false, false}, {true, false}, {false, true}, {true, true}}
	refAxis  = []ctype.RefQualifier{ctype.RefNone, ctype.RefLValue, ctype.RefRValue}
	boolAxis = []bool{false, true}
)

// Generate enumerates the cross product of all axes for t and keeps the legal
// combinations.
func Generate(t *platform.Target) *Catalog {
	convs := make([]ctype.Convention, 0, len(t.Conventions)+1)
	convs = append(convs, ctype.ConvDefault)
	for _, r := range t.Conventions {
		convs = append(convs, r.Convention)
	}

	c := &Catalog{target: t, index: make(map[Key]int)}
	for _, member := range boolAxis {
		for _, cv := range cvAxis {
			for _, ref := range refAxis {
				for _, noexcept := range boolAxis {
					for _, variadic := range boolAxis {
						for _, conv := range convs {
							k := Key{
								Member:     member,
								Const:      cv[0],
								Volatile:   cv[1],
								Ref:        ref,
								Noexcept:   noexcept,
								Variadic:   variadic,
								Convention: conv,
							}
							if check(t, k) != nil {
								continue
							}
							c.index[k] = len(c.entries)
							c.entries = append(c.entries, Entry{Ordinal: len(c.entries), Key: k})
						}
					}
				}
			}
		}
	}
	return c
}

var catalogs sync.Map // target name -> *Catalog

// For returns the catalog of t, generating it on first use. Concurrent callers
// for the same target observe the same catalog. One catalog is kept per
// target name: when a registry replaces a target, the first lookup of the
// replacement evicts the old catalog.
func For(t *platform.Target) *Catalog {
	if v, ok := catalogs.Load(t.Name); ok && v.(*Catalog).target == t {
		return v.(*Catalog)
	}
	fresh := Generate(t)
	for {
		v, loaded := catalogs.LoadOrStore(t.Name, fresh)
		if !loaded {
			return fresh
		}
		if c := v.(*Catalog); c.target == t {
			return c
		}
		if catalogs.CompareAndSwap(t.Name, v, fresh) {
			return fresh
		}
	}
}

// Target returns the target the catalog was generated for.
func (c *Catalog) Target() *platform.Target { return c.target }

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// Lookup returns the entry for k.
func (c *Catalog) Lookup(k Key) (Entry, bool) {
	i, ok := c.index[k]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Entries returns a copy of all entries in ordinal order.
func (c *Catalog) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Each calls fn for every entry in ordinal order until fn returns false.
func (c *Catalog) Each(fn func(Entry) bool) {
	for _, e := range c.entries {
		if !fn(e) {
			return
		}
	}
}

// Explain returns nil if k is in the catalog and otherwise an *AbsentError
// naming the axis that excludes it.
func (c *Catalog) Explain(k Key) error {
	if _, ok := c.index[k]; ok {
		return nil
	}
	if err := check(c.target, k); err != nil {
		return err
	}
	return &AbsentError{Key: k, Axis: AxisConvention, Reason: fmt.Sprintf("shape %s is not in the catalog for %s", k.Name(), c.target.Name)}
}
