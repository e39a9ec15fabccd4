// Package probe answers member-existence questions about class types.
//
// A Prober consumes only a predicate that recognises callable types; it does
// not decompose anything itself. Use the engine's IsCallable:
//
//	e := fntraits.Default()
//	p := probe.New(e.IsCallable, probe.WithIdentity(e.Identical))
//	p.HasCallableMember(widget, "draw")
package probe

import "github.com/broady/fntraits/ctype"

// Predicate reports whether a type is a recognised callable shape.
type Predicate func(ctype.Type) bool

// Identity reports whether two types are the same type.
type Identity func(a, b ctype.Type) bool

// Prober checks classes for members.
type Prober struct {
	callable  Predicate
	identical Identity
}

// Option configures a Prober.
type Option func(*Prober)

// WithIdentity sets the type identity used to match signatures. The default
// is ctype.Identical, which treats an explicit default calling convention as
// different from an omitted one; pass the engine's Identical to compare on
// its target.
func WithIdentity(identical Identity) Option {
	return func(p *Prober) {
		if identical != nil {
			p.identical = identical
		}
	}
}

// New returns a Prober that uses callable to decide whether a member can be
// called.
func New(callable Predicate, opts ...Option) *Prober {
	p := &Prober{callable: callable, identical: ctype.Identical}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// classOf strips cv-qualifiers and references down to a class type.
func classOf(t ctype.Type) (*ctype.Class, bool) {
	for {
		switch x := t.(type) {
		case *ctype.Class:
			return x, true
		case *ctype.Qualified:
			t = x.Elem
		case *ctype.Reference:
			t = x.Elem
		default:
			return nil, false
		}
	}
}

// memberType is the type naming a member: a pointer to member for non-static
// members and a plain function for static ones.
func memberType(c *ctype.Class, m ctype.Member) ctype.Type {
	if m.Static {
		return m.Type
	}
	return ctype.MemPtr(ctype.Named(c.Name, c.Args...), m.Type)
}

// HasMember reports whether class declares a member named name.
func (p *Prober) HasMember(class ctype.Type, name string) bool {
	c, ok := classOf(class)
	return ok && len(c.Lookup(name)) > 0
}

// HasCallableMember reports whether class declares a member named name whose
// type is a recognised callable shape.
func (p *Prober) HasCallableMember(class ctype.Type, name string) bool {
	c, ok := classOf(class)
	if !ok {
		return false
	}
	for _, m := range c.Lookup(name) {
		if m.Type != nil && p.callable(memberType(c, m)) {
			return true
		}
	}
	return false
}

// HasMemberWithSignature reports whether class declares a callable member
// named name with signature sig. sig is either the member's function type
// (qualifiers included) or the pointer-to-member type naming it.
func (p *Prober) HasMemberWithSignature(class ctype.Type, name string, sig ctype.Type) bool {
	c, ok := classOf(class)
	if !ok || sig == nil {
		return false
	}
	for _, m := range c.Lookup(name) {
		if m.Type == nil {
			continue
		}
		mt := memberType(c, m)
		if !p.callable(mt) {
			continue
		}
		want := sig
		if fn, ok := sig.(*ctype.Function); ok && !m.Static {
			want = ctype.MemPtr(ctype.Named(c.Name, c.Args...), fn)
		}
		if p.identical(want, mt) {
			return true
		}
	}
	return false
}

// HasCallOperator reports whether class declares a callable operator().
func (p *Prober) HasCallOperator(class ctype.Type) bool {
	return p.HasCallableMember(class, ctype.CallOperator)
}
