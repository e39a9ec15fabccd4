package ctype

import (
	"fmt"
	"sort"
	"strings"
)

// builtinNames lists every canonical fundamental type spelling.
var builtinNames = []string{
	"void", "bool", "char", "signed char", "unsigned char",
	"wchar_t", "char8_t", "char16_t", "char32_t",
	"short", "unsigned short", "int", "unsigned int",
	"long", "unsigned long", "long long", "unsigned long long",
	"float", "double", "long double",
}

var builtins = func() map[string]*Builtin {
	m := make(map[string]*Builtin, len(builtinNames))
	for _, n := range builtinNames {
		m[n] = &Builtin{Name: n}
	}
	return m
}()

// LookupBuiltin returns the fundamental type with the given canonical name
// and reports whether the name is known.
func LookupBuiltin(name string) (*Builtin, bool) {
	b, ok := builtins[name]
	return b, ok
}

// BuiltinNames returns the canonical spelling of every fundamental type.
func BuiltinNames() []string {
	return append([]string(nil), builtinNames...)
}

func mustBuiltin(name string) *Builtin {
	b, ok := builtins[name]
	if !ok {
		panic("ctype: unknown builtin " + name)
	}
	return b
}

// Frequently used fundamental types.
var (
	Void     = mustBuiltin("void")
	Bool     = mustBuiltin("bool")
	Char     = mustBuiltin("char")
	Short    = mustBuiltin("short")
	Int      = mustBuiltin("int")
	Uint     = mustBuiltin("unsigned int")
	Long     = mustBuiltin("long")
	LongLong = mustBuiltin("long long")
	Float    = mustBuiltin("float")
	Double   = mustBuiltin("double")
)

// canonicalBuiltin folds a multiset of simple-type-specifier words into the
// canonical spelling ("long int unsigned" -> "unsigned long").
func canonicalBuiltin(words []string) (string, error) {
	count := map[string]int{}
	for _, w := range words {
		count[w]++
	}
	signed := count["signed"] > 0
	unsigned := count["unsigned"] > 0
	if signed && unsigned {
		return "", fmt.Errorf("both signed and unsigned in %q", strings.Join(words, " "))
	}
	if count["signed"] > 1 || count["unsigned"] > 1 || count["int"] > 1 || count["short"] > 1 || count["long"] > 2 {
		return "", fmt.Errorf("duplicate specifier in %q", strings.Join(words, " "))
	}
	longs := count["long"]
	rest := make([]string, 0, len(words))
	for _, w := range words {
		switch w {
		case "signed", "unsigned", "long", "short", "int":
		default:
			rest = append(rest, w)
		}
	}
	sort.Strings(rest)

	invalid := func() (string, error) {
		return "", fmt.Errorf("invalid type specifier combination %q", strings.Join(words, " "))
	}

	switch {
	case len(rest) > 1:
		return invalid()
	case len(rest) == 1:
		base := rest[0]
		switch base {
		case "char":
			if longs > 0 || count["short"] > 0 || count["int"] > 0 {
				return invalid()
			}
			if signed {
				return "signed char", nil
			}
			if unsigned {
				return "unsigned char", nil
			}
			return "char", nil
		case "double":
			if signed || unsigned || count["short"] > 0 || count["int"] > 0 || longs > 1 {
				return invalid()
			}
			if longs == 1 {
				return "long double", nil
			}
			return "double", nil
		default:
			if signed || unsigned || longs > 0 || count["short"] > 0 || count["int"] > 0 {
				return invalid()
			}
			if _, ok := builtins[base]; !ok {
				return invalid()
			}
			return base, nil
		}
	}

	prefix := ""
	if unsigned {
		prefix = "unsigned "
	}
	switch {
	case count["short"] > 0:
		if longs > 0 {
			return invalid()
		}
		return prefix + "short", nil
	case longs == 2:
		return prefix + "long long", nil
	case longs == 1:
		return prefix + "long", nil
	default:
		return prefix + "int", nil
	}
}

// Named returns a class type. Members are attached with WithMembers.
func Named(name string, args ...Type) *Class {
	return &Class{Name: name, Args: append([]Type(nil), args...)}
}

// Tuple returns std::tuple<elems...>.
func Tuple(elems ...Type) *Class {
	return Named("std::tuple", elems...)
}

// WithMembers returns a copy of c declaring the given members.
func (t *Class) WithMembers(members ...Member) *Class {
	c := *t
	c.Members = append(append([]Member(nil), t.Members...), members...)
	return &c
}

// Method builds a non-static member.
func Method(name string, fn *Function) Member {
	return Member{Name: name, Type: fn}
}

// Qualify applies cv-qualification to t. Qualifying a function or
// reference type leaves it unchanged, matching the language rule that such
// qualifiers are ignored.
func Qualify(t Type, isConst, isVolatile bool) Type {
	if !isConst && !isVolatile {
		return t
	}
	switch e := t.(type) {
	case *Qualified:
		return &Qualified{Elem: e.Elem, Const: e.Const || isConst, Volatile: e.Volatile || isVolatile}
	case *Function, *Reference:
		return t
	}
	return &Qualified{Elem: t, Const: isConst, Volatile: isVolatile}
}

// Const returns const t.
func Const(t Type) Type { return Qualify(t, true, false) }

// Volatile returns volatile t.
func Volatile(t Type) Type { return Qualify(t, false, true) }

// Unqualified strips top-level cv-qualification.
func Unqualified(t Type) Type {
	if q, ok := t.(*Qualified); ok {
		return q.Elem
	}
	return t
}

// PtrTo returns a pointer to t. A pointer to a reference is not a type and
// is reported by the parser; PtrTo itself does not check.
func PtrTo(t Type) *Pointer { return &Pointer{Elem: t} }

// LRef returns t&, applying reference collapsing.
func LRef(t Type) *Reference {
	if r, ok := t.(*Reference); ok {
		return &Reference{Elem: r.Elem}
	}
	return &Reference{Elem: t}
}

// RRef returns t&&, applying reference collapsing.
func RRef(t Type) *Reference {
	if r, ok := t.(*Reference); ok {
		return &Reference{Elem: r.Elem, RValue: r.RValue}
	}
	return &Reference{Elem: t, RValue: true}
}

// AdjustParam applies the parameter-type adjustments of a function
// declarator: top-level cv is dropped and a function parameter becomes a
// pointer to function.
func AdjustParam(t Type) Type {
	t = Unqualified(t)
	if fn, ok := t.(*Function); ok {
		return PtrTo(fn)
	}
	return t
}

// AdjustParams returns a new slice with AdjustParam applied to each element.
func AdjustParams(params []Type) []Type {
	out := make([]Type, len(params))
	for i, p := range params {
		out[i] = AdjustParam(p)
	}
	return out
}

// Func returns the unqualified function type ret(params...).
func Func(ret Type, params ...Type) *Function {
	return &Function{Return: ret, Params: AdjustParams(params)}
}

// VariadicFunc returns ret(params..., ...).
func VariadicFunc(ret Type, params ...Type) *Function {
	fn := Func(ret, params...)
	fn.Variadic = true
	return fn
}

// MemPtr returns a pointer to member function of class with the given
// pointee type.
func MemPtr(class *Class, pointee *Function) *MemberPointer {
	return &MemberPointer{Class: class, Pointee: pointee}
}

// With returns a copy of fn with the given options applied.
func (t *Function) With(opts ...FuncOption) *Function {
	c := t.Clone()
	for _, o := range opts {
		o(c)
	}
	return c
}

// FuncOption modifies a function type under construction.
type FuncOption func(*Function)

// WithConst marks the function const.
func WithConst() FuncOption { return func(f *Function) { f.Const = true } }

// WithVolatile marks the function volatile.
func WithVolatile() FuncOption { return func(f *Function) { f.Volatile = true } }

// WithRef sets the ref-qualifier.
func WithRef(r RefQualifier) FuncOption { return func(f *Function) { f.Ref = r } }

// WithNoexcept marks the function noexcept.
func WithNoexcept() FuncOption { return func(f *Function) { f.Noexcept = true } }

// WithConvention sets the calling convention.
func WithConvention(c Convention) FuncOption { return func(f *Function) { f.Convention = c } }

// WithVariadic sets the variadic marker.
func WithVariadic() FuncOption { return func(f *Function) { f.Variadic = true } }
