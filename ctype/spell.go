package ctype

import "strings"

// Spell returns the canonical C++ spelling of t.
func Spell(t Type) string {
	if t == nil {
		return "<nil>"
	}
	return declare(t, "", false)
}

// declare spells t around the abstract declarator inner, working outside-in
// the way a declarator is read. tight is set when inner is a bare parameter
// list, which attaches to the specifier without a space: double(int).
func declare(t Type, inner string, tight bool) string {
	switch t := t.(type) {
	case *Builtin:
		return joinDecl(t.Name, inner, tight)
	case *Class:
		return joinDecl(className(t), inner, tight)
	case *Qualified:
		switch e := t.Elem.(type) {
		case *Pointer, *MemberPointer:
			return declarePointerLike(e, cvSuffix(t.Const, t.Volatile), inner)
		default:
			return joinDecl(cvPrefix(t.Const, t.Volatile)+Spell(e), inner, tight)
		}
	case *Pointer, *MemberPointer:
		return declarePointerLike(t, "", inner)
	case *Reference:
		op := "&"
		if t.RValue {
			op = "&&"
		}
		return declare(t.Elem, wrapFunctionDecl(t.Elem, op+inner), false)
	case *Function:
		var b strings.Builder
		bare := inner == ""
		if bare {
			if s := t.Convention.Spelling(); s != "" {
				b.WriteString(s)
				bare = false
			}
		} else {
			b.WriteString(inner)
		}
		b.WriteString(paramList(t))
		b.WriteString(functionQualifiers(t))
		return declare(t.Return, b.String(), bare)
	default:
		return "<unknown>"
	}
}

func declarePointerLike(t Type, cv, inner string) string {
	switch t := t.(type) {
	case *Pointer:
		return declare(t.Elem, wrapFunctionDecl(t.Elem, "*"+cv+inner), false)
	case *MemberPointer:
		return declare(t.Pointee, wrapFunctionDecl(t.Pointee, className(t.Class)+"::*"+cv+inner), false)
	}
	return "<unknown>"
}

// wrapFunctionDecl parenthesises a pointer or reference declarator whose
// element is a function, placing the element's calling convention inside the
// parentheses: void (__stdcall *)(int).
func wrapFunctionDecl(elem Type, decl string) string {
	fn, ok := elem.(*Function)
	if !ok {
		return decl
	}
	if s := fn.Convention.Spelling(); s != "" {
		return "(" + s + " " + decl + ")"
	}
	return "(" + decl + ")"
}

// joinDecl glues a specifier to a declarator. Pointer and reference
// operators bind tightly (int*); anything else is separated by a space.
func joinDecl(spec, inner string, tight bool) string {
	switch {
	case inner == "":
		return spec
	case tight, strings.HasPrefix(inner, "*"), strings.HasPrefix(inner, "&"):
		return spec + inner
	default:
		return spec + " " + inner
	}
}

func className(c *Class) string {
	if len(c.Args) == 0 {
		return c.Name
	}
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = Spell(a)
	}
	return c.Name + "<" + strings.Join(args, ", ") + ">"
}

func cvPrefix(c, v bool) string {
	switch {
	case c && v:
		return "const volatile "
	case c:
		return "const "
	case v:
		return "volatile "
	}
	return ""
}

func cvSuffix(c, v bool) string {
	switch {
	case c && v:
		return " const volatile"
	case c:
		return " const"
	case v:
		return " volatile"
	}
	return ""
}

func paramList(fn *Function) string {
	parts := make([]string, 0, len(fn.Params)+1)
	for _, p := range fn.Params {
		parts = append(parts, Spell(p))
	}
	if fn.Variadic {
		parts = append(parts, "...")
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func functionQualifiers(fn *Function) string {
	var b strings.Builder
	b.WriteString(cvSuffix(fn.Const, fn.Volatile))
	if tok := fn.Ref.Token(); tok != "" {
		b.WriteString(" ")
		b.WriteString(tok)
	}
	if fn.Noexcept {
		b.WriteString(" noexcept")
	}
	return b.String()
}
