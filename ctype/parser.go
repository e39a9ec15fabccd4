package ctype

import (
	"fmt"
	"strings"
)

// Parse reads a C++ type-id such as "int (C::*)(float, ...) const & noexcept"
// or "void (__stdcall *)(int)". Parameter names are not accepted.
func Parse(s string) (Type, error) {
	toks, err := newLexer(s).tokens()
	if err != nil {
		return nil, err
	}
	p := &parser{input: s, toks: toks}
	t, err := p.parseTypeID()
	if err != nil {
		return nil, err
	}
	if !p.at(tokEOF) {
		return nil, p.errorf("unexpected %s after type", p.cur())
	}
	return t, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level tables.
func MustParse(s string) Type {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

type parser struct {
	input string
	toks  []token
	pos   int
}

func (p *parser) cur() token { return p.toks[p.pos] }

func (p *parser) peek(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) at(t tokenType) bool { return p.cur().typ == t }

func (p *parser) atIdent(lit string) bool {
	return p.cur().typ == tokIdent && p.cur().lit == lit
}

func (p *parser) advance() token {
	t := p.cur()
	if t.typ != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(t tokenType, what string) error {
	if !p.at(t) {
		return p.errorf("expected %s, found %s", what, p.cur())
	}
	p.advance()
	return nil
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Input: p.input, Pos: p.cur().pos, Msg: fmt.Sprintf(format, args...)}
}

var builtinWords = map[string]bool{
	"void": true, "bool": true, "char": true, "wchar_t": true,
	"char8_t": true, "char16_t": true, "char32_t": true,
	"short": true, "int": true, "long": true, "signed": true, "unsigned": true,
	"float": true, "double": true,
}

// elaborated type keywords carry no meaning for identity.
var elaboratedWords = map[string]bool{
	"struct": true, "class": true, "union": true, "enum": true, "typename": true,
}

// parseTypeID parses decl-specifiers followed by an optional abstract
// declarator.
func (p *parser) parseTypeID() (Type, error) {
	base, err := p.parseSpecifiers()
	if err != nil {
		return nil, err
	}
	apply, err := p.parseDeclarator()
	if err != nil {
		return nil, err
	}
	t, err := apply(base)
	if err != nil {
		return nil, p.errorf("%v", err)
	}
	return t, nil
}

// parseSpecifiers reads cv qualifiers and exactly one type name, in any order.
func (p *parser) parseSpecifiers() (Type, error) {
	var (
		isConst, isVolatile bool
		words               []string
		named               Type
	)
	for {
		switch {
		case p.atIdent("const"):
			p.advance()
			isConst = true
		case p.atIdent("volatile"):
			p.advance()
			isVolatile = true
		case p.at(tokIdent) && builtinWords[p.cur().lit]:
			if named != nil {
				return nil, p.errorf("unexpected %s after type name", p.cur())
			}
			words = append(words, p.advance().lit)
		case p.at(tokIdent) && elaboratedWords[p.cur().lit]:
			p.advance()
		case (p.at(tokIdent) && !isReserved(p.cur().lit) || p.at(tokScope)) && named == nil && len(words) == 0:
			if p.isMemberPointerStart() {
				return nil, p.errorf("expected type name, found %s", p.cur())
			}
			c, err := p.parseClassName()
			if err != nil {
				return nil, err
			}
			named = c
		default:
			var base Type
			switch {
			case named != nil:
				base = named
			case len(words) > 0:
				name, err := canonicalBuiltin(words)
				if err != nil {
					return nil, p.errorf("%v", err)
				}
				base = builtins[name]
			default:
				return nil, p.errorf("expected type name, found %s", p.cur())
			}
			return Qualify(base, isConst, isVolatile), nil
		}
	}
}

// reserved identifiers never start a class name.
func isReserved(lit string) bool {
	switch lit {
	case "const", "volatile", "noexcept", "throw", "__attribute__":
		return true
	}
	_, cc := keywordConvention[lit]
	return cc
}

// parseClassName reads a possibly qualified, possibly templated class name.
func (p *parser) parseClassName() (*Class, error) {
	var parts []string
	if p.at(tokScope) {
		p.advance()
	}
	for {
		if !p.at(tokIdent) {
			return nil, p.errorf("expected identifier, found %s", p.cur())
		}
		parts = append(parts, p.advance().lit)
		var args []Type
		if p.at(tokLAngle) {
			var err error
			args, err = p.parseTemplateArgs()
			if err != nil {
				return nil, err
			}
		}
		if p.at(tokScope) && p.peek(1).typ == tokIdent {
			if len(args) > 0 {
				// Nested name inside a specialization; keep the spelling.
				parts[len(parts)-1] = className(&Class{Name: parts[len(parts)-1], Args: args})
			}
			p.advance()
			continue
		}
		return &Class{Name: strings.Join(parts, "::"), Args: args}, nil
	}
}

func (p *parser) parseTemplateArgs() ([]Type, error) {
	if err := p.expect(tokLAngle, "'<'"); err != nil {
		return nil, err
	}
	var args []Type
	if p.at(tokRAngle) {
		p.advance()
		return args, nil
	}
	for {
		t, err := p.parseTypeID()
		if err != nil {
			return nil, err
		}
		args = append(args, t)
		if p.at(tokComma) {
			p.advance()
			continue
		}
		if err := p.expect(tokRAngle, "'>'"); err != nil {
			return nil, err
		}
		return args, nil
	}
}

// isMemberPointerStart reports whether the tokens at the cursor spell
// "Name::*" (optionally qualified and templated).
func (p *parser) isMemberPointerStart() bool {
	i := p.pos
	if p.toks[i].typ == tokScope {
		i++
	}
	for {
		if p.toks[i].typ != tokIdent {
			return false
		}
		i++
		if p.toks[i].typ == tokLAngle {
			depth := 0
			for ; i < len(p.toks); i++ {
				switch p.toks[i].typ {
				case tokLAngle:
					depth++
				case tokRAngle:
					depth--
				case tokEOF:
					return false
				}
				if depth == 0 {
					break
				}
			}
			i++
		}
		if p.toks[i].typ != tokScope {
			return false
		}
		i++
		if p.toks[i].typ == tokStar {
			return true
		}
	}
}

// applyFn turns the type named by the specifiers into the declared type.
type applyFn func(Type) (Type, error)

func identity(t Type) (Type, error) { return t, nil }

// parseDeclarator parses one level of an abstract declarator:
//
//	ptr-operators ( '(' declarator ')' )? function-suffix?
func (p *parser) parseDeclarator() (applyFn, error) {
	var ops []applyFn
	conv := ConvDefault
	convSeen := false

	for {
		switch {
		case p.at(tokStar):
			p.advance()
			c, v := p.parseCV()
			ops = append(ops, func(t Type) (Type, error) {
				if _, ok := t.(*Reference); ok {
					return nil, fmt.Errorf("pointer to reference is not a type")
				}
				return Qualify(PtrTo(t), c, v), nil
			})
			continue
		case p.at(tokAmp), p.at(tokAmpAmp):
			rvalue := p.advance().typ == tokAmpAmp
			ops = append(ops, func(t Type) (Type, error) {
				if b, ok := Unqualified(t).(*Builtin); ok && b.Name == "void" {
					return nil, fmt.Errorf("reference to void is not a type")
				}
				if rvalue {
					return RRef(t), nil
				}
				return LRef(t), nil
			})
			continue
		case p.at(tokIdent) || p.at(tokScope):
			if c, ok, err := p.parseConventionKeyword(); err != nil {
				return nil, err
			} else if ok {
				if convSeen {
					return nil, p.errorf("multiple calling conventions")
				}
				conv, convSeen = c, true
				continue
			}
			if p.isMemberPointerStart() {
				class, err := p.parseClassName()
				if err != nil {
					return nil, err
				}
				if err := p.expect(tokScope, "'::'"); err != nil {
					return nil, err
				}
				if err := p.expect(tokStar, "'*'"); err != nil {
					return nil, err
				}
				c, v := p.parseCV()
				ops = append(ops, func(t Type) (Type, error) {
					fn, ok := t.(*Function)
					if !ok {
						return nil, fmt.Errorf("pointer to data member %s::* is not supported", class.Name)
					}
					return Qualify(MemPtr(class, fn), c, v), nil
				})
				continue
			}
		}
		break
	}

	inner := applyFn(identity)
	if p.at(tokLParen) && p.isNestedDeclarator() {
		p.advance()
		var err error
		inner, err = p.parseDeclarator()
		if err != nil {
			return nil, err
		}
		if err := p.expect(tokRParen, "')'"); err != nil {
			return nil, err
		}
	}

	var suffix func(Type) (*Function, error)
	if p.at(tokLParen) {
		var err error
		suffix, err = p.parseFunctionSuffix()
		if err != nil {
			return nil, err
		}
		if p.at(tokLParen) {
			return nil, p.errorf("function returning function is not a type")
		}
	}
	if p.at(tokLBracket) {
		return nil, p.errorf("array types are not supported")
	}

	return func(t Type) (Type, error) {
		if convSeen && suffix == nil {
			fn, ok := t.(*Function)
			if !ok {
				return nil, fmt.Errorf("calling convention %s applied to non-function type %s", conv.Spelling(), Spell(t))
			}
			if fn.Convention != ConvDefault && fn.Convention != conv {
				return nil, fmt.Errorf("conflicting calling conventions %s and %s", fn.Convention.Spelling(), conv.Spelling())
			}
			fn = fn.Clone()
			fn.Convention = conv
			t = fn
		}
		var err error
		for _, op := range ops {
			if t, err = op(t); err != nil {
				return nil, err
			}
		}
		if suffix != nil {
			fn, err := suffix(t)
			if err != nil {
				return nil, err
			}
			if convSeen {
				if fn.Convention != ConvDefault && fn.Convention != conv {
					return nil, fmt.Errorf("conflicting calling conventions %s and %s", fn.Convention.Spelling(), conv.Spelling())
				}
				fn.Convention = conv
			}
			t = fn
		}
		return inner(t)
	}, nil
}

// isNestedDeclarator decides whether the '(' at the cursor opens a nested
// declarator rather than a parameter list.
func (p *parser) isNestedDeclarator() bool {
	next := p.peek(1)
	switch next.typ {
	case tokStar, tokAmp, tokAmpAmp, tokLParen:
		return true
	case tokIdent:
		if _, ok := keywordConvention[next.lit]; ok {
			return true
		}
		if next.lit == "__attribute__" {
			return true
		}
		saved := p.pos
		p.pos++
		defer func() { p.pos = saved }()
		return p.isMemberPointerStart()
	case tokScope:
		saved := p.pos
		p.pos++
		defer func() { p.pos = saved }()
		return p.isMemberPointerStart()
	}
	return false
}

func (p *parser) parseCV() (isConst, isVolatile bool) {
	for {
		switch {
		case p.atIdent("const"):
			p.advance()
			isConst = true
		case p.atIdent("volatile"):
			p.advance()
			isVolatile = true
		default:
			return
		}
	}
}

// parseConventionKeyword consumes a calling-convention keyword or GNU
// attribute if one is at the cursor.
func (p *parser) parseConventionKeyword() (Convention, bool, error) {
	if !p.at(tokIdent) {
		return ConvDefault, false, nil
	}
	if c, ok := keywordConvention[p.cur().lit]; ok {
		p.advance()
		return c, true, nil
	}
	if p.cur().lit != "__attribute__" {
		return ConvDefault, false, nil
	}
	p.advance()
	for range 2 {
		if err := p.expect(tokLParen, "'('"); err != nil {
			return ConvDefault, false, err
		}
	}
	if !p.at(tokIdent) {
		return ConvDefault, false, p.errorf("expected attribute name, found %s", p.cur())
	}
	name := p.advance().lit
	name = strings.TrimSuffix(strings.TrimPrefix(name, "__"), "__")
	var c Convention
	if name == "pcs" {
		if err := p.expect(tokLParen, "'('"); err != nil {
			return ConvDefault, false, err
		}
		if !p.at(tokString) {
			return ConvDefault, false, p.errorf("expected pcs string, found %s", p.cur())
		}
		switch v := p.advance().lit; v {
		case "aapcs":
			c = ConvAAPCS
		case "aapcs-vfp":
			c = ConvAAPCSVFP
		default:
			return ConvDefault, false, p.errorf("unknown pcs %q", v)
		}
		if err := p.expect(tokRParen, "')'"); err != nil {
			return ConvDefault, false, err
		}
	} else {
		var ok bool
		if c, ok = attributeConvention[name]; !ok {
			return ConvDefault, false, p.errorf("unsupported attribute %q", name)
		}
	}
	for range 2 {
		if err := p.expect(tokRParen, "')'"); err != nil {
			return ConvDefault, false, err
		}
	}
	return c, true, nil
}

// parseFunctionSuffix parses "(params) cv ref exception-spec attributes".
func (p *parser) parseFunctionSuffix() (func(Type) (*Function, error), error) {
	if err := p.expect(tokLParen, "'('"); err != nil {
		return nil, err
	}
	fn := &Function{}
	switch {
	case p.at(tokRParen):
	case p.atIdent("void") && p.peek(1).typ == tokRParen:
		p.advance()
	default:
		for {
			if p.at(tokEllipsis) {
				p.advance()
				fn.Variadic = true
				break
			}
			t, err := p.parseTypeID()
			if err != nil {
				return nil, err
			}
			if b, ok := Unqualified(t).(*Builtin); ok && b.Name == "void" {
				return nil, p.errorf("parameter of type void")
			}
			fn.Params = append(fn.Params, AdjustParam(t))
			if p.at(tokComma) {
				p.advance()
				continue
			}
			if p.at(tokEllipsis) {
				// "int..." without a comma is the same marker.
				p.advance()
				fn.Variadic = true
			}
			break
		}
	}
	if err := p.expect(tokRParen, "')'"); err != nil {
		return nil, err
	}

	fn.Const, fn.Volatile = p.parseCV()
	switch {
	case p.at(tokAmp):
		p.advance()
		fn.Ref = RefLValue
	case p.at(tokAmpAmp):
		p.advance()
		fn.Ref = RefRValue
	}
	if err := p.parseExceptionSpec(fn); err != nil {
		return nil, err
	}
	if c, ok, err := p.parseConventionKeyword(); err != nil {
		return nil, err
	} else if ok {
		fn.Convention = c
	}

	return func(ret Type) (*Function, error) {
		switch Unqualified(ret).(type) {
		case *Function:
			return nil, fmt.Errorf("function returning function is not a type")
		}
		out := fn.Clone()
		out.Return = ret
		return out, nil
	}, nil
}

func (p *parser) parseExceptionSpec(fn *Function) error {
	switch {
	case p.atIdent("noexcept"):
		p.advance()
		fn.Noexcept = true
		if !p.at(tokLParen) {
			return nil
		}
		p.advance()
		switch {
		case p.atIdent("true"):
		case p.atIdent("false"):
			fn.Noexcept = false
		default:
			return p.errorf("expected true or false in noexcept(), found %s", p.cur())
		}
		p.advance()
		return p.expect(tokRParen, "')'")
	case p.atIdent("throw"):
		p.advance()
		if err := p.expect(tokLParen, "'('"); err != nil {
			return err
		}
		if !p.at(tokRParen) {
			return p.errorf("dynamic exception specifications are not supported")
		}
		p.advance()
		fn.Noexcept = true
	}
	return nil
}
