// Package override describes synthesis overrides as data, for manifests,
// request bodies and command-line flags, and turns them into
// fntraits.Override values.
package override

import (
	"fmt"

	"github.com/broady/fntraits"
	"github.com/broady/fntraits/ctype"
)

// Spec is a declarative set of overrides. Unset fields leave the component
// unchanged. Build applies the fields in declaration order: return, args,
// set, insert, remove, noexcept, qualifiers, convention, class, variadic.
type Spec struct {
	Return string `yaml:"return,omitempty" json:"return,omitempty"`

	// Args replaces the whole argument list; an empty list clears it.
	Args *[]string `yaml:"args,omitempty" json:"args,omitempty"`

	Set    []Position `yaml:"set,omitempty" json:"set,omitempty" validate:"dive"`
	Insert []Position `yaml:"insert,omitempty" json:"insert,omitempty" validate:"dive"`
	Remove []int      `yaml:"remove,omitempty" json:"remove,omitempty"`

	Noexcept   *bool       `yaml:"noexcept,omitempty" json:"noexcept,omitempty"`
	Qualifiers *Qualifiers `yaml:"qualifiers,omitempty" json:"qualifiers,omitempty"`
	Convention *string     `yaml:"convention,omitempty" json:"convention,omitempty"`

	// Class attaches the named class; the empty string detaches.
	Class    *string `yaml:"class,omitempty" json:"class,omitempty"`
	Variadic *bool   `yaml:"variadic,omitempty" json:"variadic,omitempty"`

	// Bare drops the input's pointer or reference wrapper.
	Bare bool `yaml:"bare,omitempty" json:"bare,omitempty"`
}

// Position pairs an argument index with a type spelling.
type Position struct {
	At   int    `yaml:"at" json:"at"`
	Type string `yaml:"type" json:"type" validate:"required"`
}

// Qualifiers is the member qualification to set.
type Qualifiers struct {
	Const    bool   `yaml:"const,omitempty" json:"const,omitempty"`
	Volatile bool   `yaml:"volatile,omitempty" json:"volatile,omitempty"`
	Ref      string `yaml:"ref,omitempty" json:"ref,omitempty" validate:"omitempty,oneof=none lvalue rvalue & &&"`
}

// IsZero reports whether s changes nothing.
func (s *Spec) IsZero() bool {
	return s == nil || (s.Return == "" && s.Args == nil && len(s.Set) == 0 && len(s.Insert) == 0 &&
		len(s.Remove) == 0 && s.Noexcept == nil && s.Qualifiers == nil && s.Convention == nil &&
		s.Class == nil && s.Variadic == nil && !s.Bare)
}

// Build parses the type spellings in s and returns the overrides. Spelling
// errors are invalid_argument; an unknown convention is
// unsupported_override_combination.
func (s *Spec) Build() ([]fntraits.Override, error) {
	if s == nil {
		return nil, nil
	}
	var out []fntraits.Override

	if s.Return != "" {
		r, err := parse("return", s.Return)
		if err != nil {
			return nil, err
		}
		out = append(out, fntraits.SetReturn(r))
	}
	if s.Args != nil {
		list := make([]ctype.Type, len(*s.Args))
		for i, a := range *s.Args {
			t, err := parse(fmt.Sprintf("args[%d]", i), a)
			if err != nil {
				return nil, err
			}
			list[i] = t
		}
		out = append(out, fntraits.SetArgs(list...))
	}
	for i, p := range s.Set {
		t, err := parse(fmt.Sprintf("set[%d]", i), p.Type)
		if err != nil {
			return nil, err
		}
		out = append(out, fntraits.SetArg(p.At, t))
	}
	for i, p := range s.Insert {
		t, err := parse(fmt.Sprintf("insert[%d]", i), p.Type)
		if err != nil {
			return nil, err
		}
		out = append(out, fntraits.Insert(p.At, t))
	}
	for _, at := range s.Remove {
		out = append(out, fntraits.Remove(at))
	}
	if s.Noexcept != nil {
		out = append(out, fntraits.SetNoexcept(*s.Noexcept))
	}
	if q := s.Qualifiers; q != nil {
		ref, ok := ctype.ParseRefQualifier(q.Ref)
		if !ok {
			return nil, fntraits.Errorf(fntraits.CodeInvalidArgument, "qualifiers: unknown ref-qualifier %q", q.Ref).
				WithDetail("field", "qualifiers.ref")
		}
		out = append(out, fntraits.SetQualifiers(fntraits.QualifierSet{Const: q.Const, Volatile: q.Volatile, Ref: ref}))
	}
	if s.Convention != nil {
		c, ok := ctype.ParseConvention(*s.Convention)
		if !ok {
			return nil, fntraits.Errorf(fntraits.CodeUnsupportedOverride, "unknown calling convention %q", *s.Convention).
				WithDetail("field", "convention")
		}
		out = append(out, fntraits.SetConvention(c))
	}
	if s.Class != nil {
		if *s.Class == "" {
			out = append(out, fntraits.DetachClass())
		} else {
			c, err := parse("class", *s.Class)
			if err != nil {
				return nil, err
			}
			out = append(out, fntraits.AttachClass(c))
		}
	}
	if s.Variadic != nil {
		out = append(out, fntraits.SetVariadic(*s.Variadic))
	}
	if s.Bare {
		out = append(out, fntraits.Bare())
	}
	return out, nil
}

func parse(field, spelling string) (ctype.Type, error) {
	t, err := ctype.Parse(spelling)
	if err != nil {
		return nil, fntraits.Errorf(fntraits.CodeInvalidArgument, "%s: %w", field, err).WithDetail("field", field)
	}
	return t, nil
}
