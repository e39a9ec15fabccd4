package fntraits

import (
	"github.com/broady/fntraits/ctype"
)

// The functions below are the query and transform surface over the default
// engine. Each decomposes its input first and fails with the decomposition
// error if the input is not a recognised callable shape.

// DecomposeSignature decomposes t on the default engine.
func DecomposeSignature(t ctype.Type) (*Descriptor, error) {
	return Default().Decompose(t)
}

// IsCallable reports whether t is a recognised callable shape on the host
// target.
func IsCallable(t ctype.Type) bool {
	return Default().IsCallable(t)
}

// ReturnType returns the return type of t.
func ReturnType(t ctype.Type) (ctype.Type, error) {
	d, err := DecomposeSignature(t)
	if err != nil {
		return nil, err
	}
	return d.ReturnType(), nil
}

// ArgCount returns the number of parameters of t.
func ArgCount(t ctype.Type) (int, error) {
	d, err := DecomposeSignature(t)
	if err != nil {
		return 0, err
	}
	return d.ArgCount(), nil
}

// ArgType returns the i-th parameter type of t.
func ArgType(t ctype.Type, i int) (ctype.Type, error) {
	d, err := DecomposeSignature(t)
	if err != nil {
		return nil, err
	}
	return d.ArgType(i)
}

// ArgsSlice returns the parameter types of t in [from, to).
func ArgsSlice(t ctype.Type, from, to int) ([]ctype.Type, error) {
	d, err := DecomposeSignature(t)
	if err != nil {
		return nil, err
	}
	return d.ArgsSlice(from, to)
}

// IsVariadic reports whether t ends with the variadic marker.
func IsVariadic(t ctype.Type) (bool, error) {
	d, err := DecomposeSignature(t)
	if err != nil {
		return false, err
	}
	return d.IsVariadic(), nil
}

// IsNoexcept reports whether t is noexcept.
func IsNoexcept(t ctype.Type) (bool, error) {
	d, err := DecomposeSignature(t)
	if err != nil {
		return false, err
	}
	return d.IsNoexcept(), nil
}

// Qualifiers returns the member qualification of t.
func Qualifiers(t ctype.Type) (QualifierSet, error) {
	d, err := DecomposeSignature(t)
	if err != nil {
		return QualifierSet{}, err
	}
	return d.Qualifiers(), nil
}

// CallingConvention returns the effective calling convention of t.
func CallingConvention(t ctype.Type) (ctype.Convention, error) {
	d, err := DecomposeSignature(t)
	if err != nil {
		return ctype.ConvDefault, err
	}
	return d.CallingConvention(), nil
}

// ClassType returns the enclosing class of t, or nil for a free function.
func ClassType(t ctype.Type) (*ctype.Class, error) {
	d, err := DecomposeSignature(t)
	if err != nil {
		return nil, err
	}
	return d.ClassType(), nil
}

// WithReturnType returns t with its return type replaced by r.
func WithReturnType(t, r ctype.Type) (ctype.Type, error) {
	return Default().Transform(t, SetReturn(r))
}

// WithArg returns t with parameter i replaced by a.
func WithArg(t ctype.Type, i int, a ctype.Type) (ctype.Type, error) {
	return Default().Transform(t, SetArg(i, a))
}

// InsertArg returns t with a inserted before parameter i.
func InsertArg(t ctype.Type, i int, a ctype.Type) (ctype.Type, error) {
	return Default().Transform(t, Insert(i, a))
}

// RemoveArg returns t without parameter i.
func RemoveArg(t ctype.Type, i int) (ctype.Type, error) {
	return Default().Transform(t, Remove(i))
}

// WithArgs returns t with its parameter list replaced.
func WithArgs(t ctype.Type, list ...ctype.Type) (ctype.Type, error) {
	return Default().Transform(t, SetArgs(list...))
}

// PushFront returns t with a prepended to its parameters.
func PushFront(t, a ctype.Type) (ctype.Type, error) {
	return InsertArg(t, 0, a)
}

// PushBack returns t with a appended to its parameters, before any variadic
// marker.
func PushBack(t, a ctype.Type) (ctype.Type, error) {
	n, err := ArgCount(t)
	if err != nil {
		return nil, err
	}
	return InsertArg(t, n, a)
}

// PopFront returns t without its first parameter.
func PopFront(t ctype.Type) (ctype.Type, error) {
	return RemoveArg(t, 0)
}

// PopBack returns t without its last parameter.
func PopBack(t ctype.Type) (ctype.Type, error) {
	n, err := ArgCount(t)
	if err != nil {
		return nil, err
	}
	return RemoveArg(t, n-1)
}

// WithNoexcept returns t with noexcept set to v.
func WithNoexcept(t ctype.Type, v bool) (ctype.Type, error) {
	return Default().Transform(t, SetNoexcept(v))
}

// WithQualifiers returns t with its member qualification replaced by q.
func WithQualifiers(t ctype.Type, q QualifierSet) (ctype.Type, error) {
	return Default().Transform(t, SetQualifiers(q))
}

// WithCallingConvention returns t with calling convention c.
func WithCallingConvention(t ctype.Type, c ctype.Convention) (ctype.Type, error) {
	return Default().Transform(t, SetConvention(c))
}

// WithClass returns t as a member function of c. A nil c detaches the class
// and yields a free function.
func WithClass(t, c ctype.Type) (ctype.Type, error) {
	if c == nil {
		return Default().Transform(t, DetachClass())
	}
	return Default().Transform(t, AttachClass(c))
}

// WithVariadic returns t with the variadic marker added or removed.
func WithVariadic(t ctype.Type, v bool) (ctype.Type, error) {
	return Default().Transform(t, SetVariadic(v))
}
