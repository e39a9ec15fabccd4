package ctype

// Identical reports whether a and b denote the same type.
// Class members do not participate; classes are identified by name and
// template arguments.
func Identical(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case *Builtin:
		return x.Name == b.(*Builtin).Name
	case *Class:
		return identicalClass(x, b.(*Class))
	case *Qualified:
		y := b.(*Qualified)
		return x.Const == y.Const && x.Volatile == y.Volatile && Identical(x.Elem, y.Elem)
	case *Pointer:
		return Identical(x.Elem, b.(*Pointer).Elem)
	case *Reference:
		y := b.(*Reference)
		return x.RValue == y.RValue && Identical(x.Elem, y.Elem)
	case *Function:
		return identicalFunction(x, b.(*Function))
	case *MemberPointer:
		y := b.(*MemberPointer)
		return identicalClass(x.Class, y.Class) && identicalFunction(x.Pointee, y.Pointee)
	}
	return false
}

func identicalClass(x, y *Class) bool {
	if x == nil || y == nil {
		return x == y
	}
	if x.Name != y.Name || len(x.Args) != len(y.Args) {
		return false
	}
	for i := range x.Args {
		if !Identical(x.Args[i], y.Args[i]) {
			return false
		}
	}
	return true
}

func identicalFunction(x, y *Function) bool {
	if x == nil || y == nil {
		return x == y
	}
	if x.Variadic != y.Variadic || x.Const != y.Const || x.Volatile != y.Volatile ||
		x.Ref != y.Ref || x.Noexcept != y.Noexcept || x.Convention != y.Convention {
		return false
	}
	if len(x.Params) != len(y.Params) || !Identical(x.Return, y.Return) {
		return false
	}
	for i := range x.Params {
		if !Identical(x.Params[i], y.Params[i]) {
			return false
		}
	}
	return true
}

// IdenticalList reports whether two type sequences are pairwise identical.
func IdenticalList(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Identical(a[i], b[i]) {
			return false
		}
	}
	return true
}
