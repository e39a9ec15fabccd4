package fntraits

import (
	"errors"
	"log/slog"

	"github.com/broady/fntraits/ctype"
	"github.com/broady/fntraits/shape"
)

// Decompose maps t to exactly one catalog entry and extracts its components.
//
// Accepted inputs are a function type, a pointer or reference to one, a
// pointer to member function (optionally cv-qualified, behind a reference,
// or both), and a class with exactly one call operator, possibly behind a
// reference. Only one level of indirection is stripped, so a reference to a
// function pointer is rejected. Everything else, including shapes the
// target's catalog lacks, fails with CodeUnrecognizedShape.
func (e *Engine) Decompose(t ctype.Type) (*Descriptor, error) {
	d, err := e.decompose(t)
	if err != nil {
		e.logger.Debug("decompose failed",
			slog.String("target", e.target.Name),
			slog.String("type", ctype.Spell(t)),
			slog.Any("error", err))
		return nil, err
	}
	return d, nil
}

func (e *Engine) decompose(t ctype.Type) (*Descriptor, error) {
	if t == nil {
		return nil, NewError(CodeUnrecognizedShape, "nil type is not callable")
	}
	d := &Descriptor{target: e.target}

	inner := t
	switch x := t.(type) {
	case *ctype.Qualified:
		switch y := x.Elem.(type) {
		case *ctype.Pointer:
			d.form, inner = FormPointer, y.Elem
			d.wrapCV = [2]bool{x.Const, x.Volatile}
		case *ctype.MemberPointer:
			inner = y
			d.wrapCV = [2]bool{x.Const, x.Volatile}
		default:
			inner = x.Elem
		}
	case *ctype.Pointer:
		d.form, inner = FormPointer, x.Elem
	case *ctype.Reference:
		d.form, inner = FormLValueRef, x.Elem
		if x.RValue {
			d.form = FormRValueRef
		}
		if q, ok := inner.(*ctype.Qualified); ok {
			switch q.Elem.(type) {
			case *ctype.Class:
				inner = q.Elem
			case *ctype.MemberPointer:
				inner = q.Elem
				d.wrapCV = [2]bool{q.Const, q.Volatile}
			}
		}
	}

	var fn *ctype.Function
	switch x := inner.(type) {
	case *ctype.Function:
		if x.Qualified() {
			return nil, unrecognized(t, "cv- or ref-qualified function type %s is only valid as the pointee of a member function pointer", x)
		}
		fn = x
	case *ctype.MemberPointer:
		if d.form == FormPointer {
			return nil, unrecognized(t, "pointer to member function pointer is not callable")
		}
		if x.Class == nil || x.Pointee == nil {
			return nil, unrecognized(t, "incomplete member function pointer")
		}
		fn, d.class = x.Pointee, x.Class
	case *ctype.Class:
		if d.form == FormPointer {
			return nil, unrecognized(t, "pointer to class %s is not callable", x.Name)
		}
		op, err := callOperator(t, x)
		if err != nil {
			return nil, err
		}
		fn, d.object = op.Type, t
		if !op.Static {
			d.class = x
		}
	default:
		if isFuncPointer(inner) && d.form != FormPointer {
			return nil, unrecognized(t, "%s is a reference to a function pointer; only one level of indirection is stripped", ctype.Spell(t))
		}
		return nil, unrecognized(t, "%s is not a callable type", ctype.Spell(t))
	}
	if fn.Return == nil {
		return nil, unrecognized(t, "function type has no return type")
	}

	member := d.class != nil
	if !member && fn.Qualified() {
		return nil, unrecognized(t, "static call operator of %s cannot be cv- or ref-qualified", ctype.Spell(inner))
	}
	key := shape.KeyOf(e.target, fn, member)
	entry, ok := e.catalog.Lookup(key)
	if !ok {
		return nil, absent(CodeUnrecognizedShape, t, e.catalog.Explain(key))
	}

	d.entry = entry
	d.ret = fn.Return
	d.params = ctype.AdjustParams(fn.Params)
	d.quals = QualifierSet{Const: fn.Const, Volatile: fn.Volatile, Ref: fn.Ref}
	d.noexcept = fn.Noexcept
	d.variadic = fn.Variadic
	d.conv = key.Convention
	d.canonical = key.Build(d.class, d.ret, d.params)
	return d, nil
}

// isFuncPointer reports whether t is a possibly cv-qualified pointer to
// function.
func isFuncPointer(t ctype.Type) bool {
	if q, ok := t.(*ctype.Qualified); ok {
		t = q.Elem
	}
	p, ok := t.(*ctype.Pointer)
	if !ok {
		return false
	}
	_, ok = p.Elem.(*ctype.Function)
	return ok
}

// callOperator returns the single call operator of a function object.
func callOperator(t ctype.Type, c *ctype.Class) (ctype.Member, error) {
	ops := c.Lookup(ctype.CallOperator)
	switch {
	case len(ops) == 0:
		return ctype.Member{}, unrecognized(t, "class %s has no call operator", c.Name)
	case len(ops) > 1:
		return ctype.Member{}, unrecognized(t, "class %s has %d overloads of operator(); the call shape is ambiguous", c.Name, len(ops)).
			WithDetail("overloads", len(ops))
	case ops[0].Type == nil:
		return ctype.Member{}, unrecognized(t, "call operator of %s has no type", c.Name)
	}
	return ops[0], nil
}

func unrecognized(t ctype.Type, format string, args ...any) *Error {
	return Errorf(CodeUnrecognizedShape, format, args...).WithDetail("type", ctype.Spell(t))
}

// absent converts a catalog explanation into an error with the given code.
func absent(code ErrorCode, t ctype.Type, cause error) *Error {
	err := Errorf(code, "%w", cause).WithDetail("type", ctype.Spell(t))
	var ae *shape.AbsentError
	if errors.As(cause, &ae) {
		err = err.WithDetail("axis", string(ae.Axis)).WithDetail("shape", ae.Key.Name())
	}
	return err
}
