package fntraits

import (
	"fmt"
	"strings"

	"github.com/broady/fntraits/args"
	"github.com/broady/fntraits/ctype"
	"github.com/broady/fntraits/platform"
	"github.com/broady/fntraits/shape"
)

// Form is the pointer or reference wrapper around a decomposed shape. It
// never takes part in the catalog key.
type Form int

const (
	FormDirect    Form = iota // the shape itself: R(A...), R (C::*)(A...) or a function object
	FormPointer               // R (*)(A...)
	FormLValueRef             // R (&)(A...)
	FormRValueRef             // R (&&)(A...)
)

func (f Form) String() string {
	switch f {
	case FormPointer:
		return "pointer"
	case FormLValueRef:
		return "lvalue-ref"
	case FormRValueRef:
		return "rvalue-ref"
	default:
		return "direct"
	}
}

// QualifierSet is the cv and ref qualification of a member function.
type QualifierSet struct {
	Const    bool               `json:"const"`
	Volatile bool               `json:"volatile"`
	Ref      ctype.RefQualifier `json:"ref"`
}

// IsZero reports whether no qualifier is set.
func (q QualifierSet) IsZero() bool { return q == QualifierSet{} }

func (q QualifierSet) String() string {
	var parts []string
	if q.Const {
		parts = append(parts, "const")
	}
	if q.Volatile {
		parts = append(parts, "volatile")
	}
	if tok := q.Ref.Token(); tok != "" {
		parts = append(parts, tok)
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}

// ExceptionSpec is the exception specification of a function type.
type ExceptionSpec int

const (
	MayThrow ExceptionSpec = iota
	NoThrow
)

func (s ExceptionSpec) String() string {
	if s == NoThrow {
		return "noexcept"
	}
	return "may-throw"
}

// Descriptor is the decomposition of one function type. It is immutable;
// slices returned by its methods are copies.
type Descriptor struct {
	target *platform.Target
	entry  shape.Entry

	ret      ctype.Type
	params   []ctype.Type
	class    *ctype.Class // member shapes only
	quals    QualifierSet
	noexcept bool
	variadic bool
	conv     ctype.Convention // normalised: ConvDefault is the target default

	form      Form
	wrapCV    [2]bool    // top-level cv on a pointer or member pointer
	object    ctype.Type // the function object, if the input was one
	canonical ctype.Type // canonical shape type without the wrapper
}

// ReturnType returns the return type.
func (d *Descriptor) ReturnType() ctype.Type { return d.ret }

// ArgCount returns the number of declared parameters. The implicit object
// argument of a member function and the variadic marker are not counted.
func (d *Descriptor) ArgCount() int { return len(d.params) }

// ArgType returns the i-th parameter type.
func (d *Descriptor) ArgType(i int) (ctype.Type, error) {
	t, err := args.At(d.params, i)
	if err != nil {
		return nil, indexError(err, i, len(d.params))
	}
	return t, nil
}

// Args returns the parameter types in order.
func (d *Descriptor) Args() []ctype.Type { return append([]ctype.Type(nil), d.params...) }

// ArgsSlice returns the parameter types in [from, to).
func (d *Descriptor) ArgsSlice(from, to int) ([]ctype.Type, error) {
	s, err := args.Slice(d.params, from, to)
	if err != nil {
		return nil, indexError(err, from, len(d.params)).WithDetail("to", to)
	}
	return s, nil
}

// IsVariadic reports whether the parameter list ends with the variadic marker.
func (d *Descriptor) IsVariadic() bool { return d.variadic }

// IsNoexcept reports whether the function type is noexcept.
func (d *Descriptor) IsNoexcept() bool { return d.noexcept }

// Exception returns the exception specification.
func (d *Descriptor) Exception() ExceptionSpec {
	if d.noexcept {
		return NoThrow
	}
	return MayThrow
}

// Qualifiers returns the member qualification; zero for free functions.
func (d *Descriptor) Qualifiers() QualifierSet { return d.quals }

// CallingConvention returns the effective calling convention: the target's
// named default when none was spelled. It is ctype.ConvDefault only on
// targets that have no name for their default.
func (d *Descriptor) CallingConvention() ctype.Convention {
	if d.conv == ctype.ConvDefault {
		return d.target.DefaultFor(d.IsMember(), d.variadic)
	}
	return d.conv
}

// ClassType returns the enclosing class, or nil for free functions.
func (d *Descriptor) ClassType() *ctype.Class { return d.class }

// IsMember reports whether the shape is a member function.
func (d *Descriptor) IsMember() bool { return d.class != nil }

// Entry returns the catalog entry the type matched.
func (d *Descriptor) Entry() shape.Entry { return d.entry }

// Form returns the pointer or reference wrapper of the input.
func (d *Descriptor) Form() Form { return d.form }

// IsFunctionObject reports whether the input was a class with a call
// operator.
func (d *Descriptor) IsFunctionObject() bool { return d.object != nil }

// Type returns the canonical shape type without any pointer or reference
// wrapper: a function type for free shapes, a pointer to member function for
// member shapes.
func (d *Descriptor) Type() ctype.Type { return d.canonical }

// Target returns the target the descriptor was decomposed for.
func (d *Descriptor) Target() *platform.Target { return d.target }

func (d *Descriptor) String() string {
	return fmt.Sprintf("%s [%s]", d.canonical, d.entry.Name())
}

func indexError(err error, i, n int) *Error {
	return Errorf(CodeIndexOutOfRange, "argument index %d out of range for arity %d: %w", i, n, err).
		WithDetail("index", i).
		WithDetail("arity", n)
}
