// Package ctype defines the closed type algebra the engine operates on.
//
// A Type is an immutable value. Constructors normalise their input so that two
// spellings of the same C++ type build structurally identical values; callers
// must not mutate a Type after it has been built.
package ctype

// Kind identifies the category of a Type.
type Kind int

const (
	KindBuiltin       Kind = iota // Fundamental type (int, void, double, ...)
	KindClass                     // Named class type, optionally a template specialization
	KindQualified                 // cv-qualified object type
	KindPointer                   // Pointer (*T)
	KindReference                 // Lvalue or rvalue reference (T&, T&&)
	KindFunction                  // Function type R(Args...)
	KindMemberPointer             // Pointer to member function R (C::*)(Args...)
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindBuiltin:
		return "Builtin"
	case KindClass:
		return "Class"
	case KindQualified:
		return "Qualified"
	case KindPointer:
		return "Pointer"
	case KindReference:
		return "Reference"
	case KindFunction:
		return "Function"
	case KindMemberPointer:
		return "MemberPointer"
	default:
		return "Unknown"
	}
}

// Type is the interface implemented by every node of the algebra.
type Type interface {
	// Kind returns the kind for type switching.
	Kind() Kind

	// String returns the canonical C++ spelling. Parse(t.String()) yields a
	// type identical to t.
	String() string

	// Ensure only types in this package can implement Type.
	sealed()
}

type node struct{}

func (node) sealed() {}

// Builtin is a fundamental type. Name is always the canonical spelling.
type Builtin struct {
	node
	Name string
}

// Kind returns KindBuiltin.
func (t *Builtin) Kind() Kind { return KindBuiltin }

func (t *Builtin) String() string { return Spell(t) }

// Class is a named class type. Identity is by Name and Args; Members only
// describe what the class exposes and do not take part in identity.
type Class struct {
	node

	// Name is the qualified name, e.g. "ns::Widget".
	Name string

	// Args are template arguments, e.g. [int, char] for std::tuple<int, char>.
	Args []Type

	// Members lists the member functions the class declares.
	Members []Member
}

// Kind returns KindClass.
func (t *Class) Kind() Kind { return KindClass }

func (t *Class) String() string { return Spell(t) }

// Lookup returns all members with the given name, in declaration order.
func (t *Class) Lookup(name string) []Member {
	var out []Member
	for _, m := range t.Members {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}

// Member is a member function declared by a Class.
// Type holds the member's function type including its qualifiers.
type Member struct {
	Name   string
	Type   *Function
	Static bool
}

// CallOperator is the member name of a function object's call operator.
const CallOperator = "operator()"

// Qualified is a const and/or volatile object type.
// Elem is never itself a *Qualified, *Reference or *Function.
type Qualified struct {
	node
	Elem     Type
	Const    bool
	Volatile bool
}

// Kind returns KindQualified.
func (t *Qualified) Kind() Kind { return KindQualified }

func (t *Qualified) String() string { return Spell(t) }

// Pointer is a pointer to Elem.
type Pointer struct {
	node
	Elem Type
}

// Kind returns KindPointer.
func (t *Pointer) Kind() Kind { return KindPointer }

func (t *Pointer) String() string { return Spell(t) }

// Reference is an lvalue (T&) or rvalue (T&&) reference to Elem.
type Reference struct {
	node
	Elem   Type
	RValue bool
}

// Kind returns KindReference.
func (t *Reference) Kind() Kind { return KindReference }

func (t *Reference) String() string { return Spell(t) }

// RefQualifier is the ref-qualifier of a member function.
type RefQualifier int

const (
	RefNone RefQualifier = iota
	RefLValue
	RefRValue
)

func (r RefQualifier) String() string {
	switch r {
	case RefLValue:
		return "lvalue"
	case RefRValue:
		return "rvalue"
	default:
		return "none"
	}
}

// Token returns the declarator spelling ("", "&" or "&&").
func (r RefQualifier) Token() string {
	switch r {
	case RefLValue:
		return "&"
	case RefRValue:
		return "&&"
	default:
		return ""
	}
}

// ParseRefQualifier accepts "none", "lvalue", "rvalue", "&" and "&&".
func ParseRefQualifier(s string) (RefQualifier, bool) {
	switch s {
	case "", "none":
		return RefNone, true
	case "lvalue", "&":
		return RefLValue, true
	case "rvalue", "&&":
		return RefRValue, true
	}
	return RefNone, false
}

// Function is a function type. Const, Volatile and Ref are only legal on the
// pointee of a MemberPointer; a bare qualified Function is representable so
// that it can be built up and then rejected with a precise error.
type Function struct {
	node
	Return     Type
	Params     []Type
	Variadic   bool
	Const      bool
	Volatile   bool
	Ref        RefQualifier
	Noexcept   bool
	Convention Convention
}

// Kind returns KindFunction.
func (t *Function) Kind() Kind { return KindFunction }

func (t *Function) String() string { return Spell(t) }

// Qualified reports whether the function carries cv or ref qualification.
func (t *Function) Qualified() bool {
	return t.Const || t.Volatile || t.Ref != RefNone
}

// Clone returns a copy with its own parameter slice.
func (t *Function) Clone() *Function {
	c := *t
	c.Params = append([]Type(nil), t.Params...)
	return &c
}

// MemberPointer is a pointer to a member function of Class.
type MemberPointer struct {
	node
	Class   *Class
	Pointee *Function
}

// Kind returns KindMemberPointer.
func (t *MemberPointer) Kind() Kind { return KindMemberPointer }

func (t *MemberPointer) String() string { return Spell(t) }
