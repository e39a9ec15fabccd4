package fntraits

import (
	"github.com/broady/fntraits/args"
	"github.com/broady/fntraits/ctype"
	"github.com/broady/fntraits/shape"
)

// draft is the mutable working copy an Override edits.
type draft struct {
	ret      ctype.Type
	params   []ctype.Type
	class    *ctype.Class
	quals    QualifierSet
	noexcept bool
	variadic bool
	conv     ctype.Convention
	bare     bool
}

// Override edits one component of a signature during synthesis.
type Override func(*draft) error

// SetReturn replaces the return type.
func SetReturn(r ctype.Type) Override {
	return func(d *draft) error {
		if err := checkReturn(r); err != nil {
			return err
		}
		d.ret = r
		return nil
	}
}

// SetArg replaces the parameter at position i, for i in [0, ArgCount).
func SetArg(i int, a ctype.Type) Override {
	return func(d *draft) error {
		if err := checkParam(a); err != nil {
			return err
		}
		p, err := args.SetAt(d.params, i, a)
		if err != nil {
			return indexError(err, i, len(d.params))
		}
		d.params = p
		return nil
	}
}

// Insert inserts a parameter before position i, for i in [0, ArgCount].
func Insert(i int, a ctype.Type) Override {
	return func(d *draft) error {
		if err := checkParam(a); err != nil {
			return err
		}
		p, err := args.InsertAt(d.params, i, a)
		if err != nil {
			return indexError(err, i, len(d.params))
		}
		d.params = p
		return nil
	}
}

// Remove removes the parameter at position i, for i in [0, ArgCount).
func Remove(i int) Override {
	return func(d *draft) error {
		p, err := args.RemoveAt(d.params, i)
		if err != nil {
			return indexError(err, i, len(d.params))
		}
		d.params = p
		return nil
	}
}

// SetArgs replaces the entire parameter sequence. The variadic marker is
// not part of the sequence and is left alone.
func SetArgs(list ...ctype.Type) Override {
	return func(d *draft) error {
		for _, a := range list {
			if err := checkParam(a); err != nil {
				return err
			}
		}
		d.params = append([]ctype.Type(nil), list...)
		return nil
	}
}

// SetNoexcept sets or clears noexcept.
func SetNoexcept(v bool) Override {
	return func(d *draft) error {
		d.noexcept = v
		return nil
	}
}

// SetQualifiers replaces the member qualification.
func SetQualifiers(q QualifierSet) Override {
	return func(d *draft) error {
		d.quals = q
		return nil
	}
}

// SetConvention sets the calling convention. ctype.ConvDefault or the
// target's named default both select the default.
func SetConvention(c ctype.Convention) Override {
	return func(d *draft) error {
		d.conv = c
		return nil
	}
}

// SetVariadic adds or removes the variadic marker.
func SetVariadic(v bool) Override {
	return func(d *draft) error {
		d.variadic = v
		return nil
	}
}

// AttachClass turns the shape into a member function of c, or moves a member
// function to c. c must be a class type; a nil *ctype.Class detaches.
func AttachClass(c ctype.Type) Override {
	return func(d *draft) error {
		class, ok := ctype.Unqualified(c).(*ctype.Class)
		if !ok {
			return Errorf(CodeUnsupportedOverride, "cannot attach non-class type %s as enclosing class", ctype.Spell(c)).
				WithDetail("class", ctype.Spell(c))
		}
		d.class = class
		return nil
	}
}

// DetachClass turns a member function into a free function. Member
// qualifiers must be cleared first, or synthesis fails.
func DetachClass() Override {
	return func(d *draft) error {
		d.class = nil
		return nil
	}
}

// Bare drops the pointer or reference wrapper of the input so the result is
// the shape type itself.
func Bare() Override {
	return func(d *draft) error {
		d.bare = true
		return nil
	}
}

func checkReturn(r ctype.Type) error {
	switch ctype.Unqualified(r).(type) {
	case nil:
		return NewError(CodeInvalidArgument, "return type is nil")
	case *ctype.Function:
		return Errorf(CodeUnsupportedOverride, "a function cannot return the function type %s", r).
			WithDetail("return", ctype.Spell(r))
	}
	return nil
}

func checkParam(a ctype.Type) error {
	switch x := ctype.Unqualified(a).(type) {
	case nil:
		return NewError(CodeInvalidArgument, "parameter type is nil")
	case *ctype.Builtin:
		if x.Name == "void" {
			return NewError(CodeUnsupportedOverride, "a parameter cannot have type void")
		}
	}
	return nil
}

// Synthesize applies the overrides in order to a copy of d and constructs the
// canonical type of the resulting shape.
//
// The input's pointer or reference wrapper is preserved when it still fits
// the result: a pointer wraps only free functions, references wrap any
// shape. An unchanged function object synthesises to itself; once edited it
// synthesises to the new shape of its call operator.
func (e *Engine) Synthesize(d *Descriptor, overrides ...Override) (ctype.Type, error) {
	if d == nil {
		return nil, NewError(CodeInvalidArgument, "nil descriptor")
	}
	w := &draft{
		ret:      d.ret,
		params:   append([]ctype.Type(nil), d.params...),
		class:    d.class,
		quals:    d.quals,
		noexcept: d.noexcept,
		variadic: d.variadic,
		conv:     d.conv,
	}
	for _, o := range overrides {
		if err := o(w); err != nil {
			return nil, err
		}
	}

	member := w.class != nil
	fn := &ctype.Function{
		Return:     w.ret,
		Variadic:   w.variadic,
		Const:      w.quals.Const,
		Volatile:   w.quals.Volatile,
		Ref:        w.quals.Ref,
		Noexcept:   w.noexcept,
		Convention: w.conv,
	}
	key := shape.KeyOf(e.target, fn, member)
	if _, ok := e.catalog.Lookup(key); !ok {
		return nil, absent(CodeUnsupportedOverride, d.canonical, e.catalog.Explain(key))
	}
	out := key.Build(w.class, w.ret, w.params)

	if d.object != nil && !w.bare && ctype.Identical(out, d.canonical) {
		return d.object, nil
	}
	if w.bare || d.object != nil {
		return out, nil
	}
	return rewrap(d, out), nil
}

// rewrap restores the input's wrapper around out where it still applies.
func rewrap(d *Descriptor, out ctype.Type) ctype.Type {
	_, isFn := out.(*ctype.Function)
	switch d.form {
	case FormPointer:
		if !isFn {
			return out
		}
		return ctype.Qualify(ctype.PtrTo(out), d.wrapCV[0], d.wrapCV[1])
	case FormLValueRef, FormRValueRef:
		if _, isMP := out.(*ctype.MemberPointer); isMP {
			out = ctype.Qualify(out, d.wrapCV[0], d.wrapCV[1])
		}
		if d.form == FormRValueRef {
			return ctype.RRef(out)
		}
		return ctype.LRef(out)
	}
	if _, isMP := out.(*ctype.MemberPointer); isMP {
		return ctype.Qualify(out, d.wrapCV[0], d.wrapCV[1])
	}
	return out
}
