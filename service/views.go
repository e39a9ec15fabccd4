package service

import (
	"github.com/broady/fntraits"
	"github.com/broady/fntraits/ctype"
	"github.com/broady/fntraits/platform"
	"github.com/broady/fntraits/shape"
)

// ShapeView is the JSON form of a catalog entry.
type ShapeView struct {
	Ordinal    int    `json:"ordinal"`
	Name       string `json:"name"`
	Member     bool   `json:"member"`
	Const      bool   `json:"const"`
	Volatile   bool   `json:"volatile"`
	Ref        string `json:"ref"`
	Noexcept   bool   `json:"noexcept"`
	Variadic   bool   `json:"variadic"`
	Convention string `json:"convention"`
}

// NewShapeView converts a catalog entry.
func NewShapeView(e shape.Entry) ShapeView {
	return ShapeView{
		Ordinal:    e.Ordinal,
		Name:       e.Name(),
		Member:     e.Key.Member,
		Const:      e.Key.Const,
		Volatile:   e.Key.Volatile,
		Ref:        e.Key.Ref.String(),
		Noexcept:   e.Key.Noexcept,
		Variadic:   e.Key.Variadic,
		Convention: e.Key.Convention.String(),
	}
}

// QualifiersView is the JSON form of fntraits.QualifierSet.
type QualifiersView struct {
	Const    bool   `json:"const"`
	Volatile bool   `json:"volatile"`
	Ref      string `json:"ref"`
}

// DescriptorView is the JSON form of a decomposition.
type DescriptorView struct {
	Type           string         `json:"type"`
	Canonical      string         `json:"canonical"`
	Target         string         `json:"target"`
	Shape          ShapeView      `json:"shape"`
	Form           string         `json:"form"`
	Return         string         `json:"return"`
	Args           []string       `json:"args"`
	Variadic       bool           `json:"variadic"`
	Noexcept       bool           `json:"noexcept"`
	Qualifiers     QualifiersView `json:"qualifiers"`
	Convention     string         `json:"convention"`
	Class          string         `json:"class,omitempty"`
	FunctionObject bool           `json:"function_object,omitempty"`
}

// NewDescriptorView converts a decomposition of input.
func NewDescriptorView(input ctype.Type, d *fntraits.Descriptor) DescriptorView {
	args := make([]string, 0, d.ArgCount())
	for _, a := range d.Args() {
		args = append(args, ctype.Spell(a))
	}
	q := d.Qualifiers()
	v := DescriptorView{
		Type:           ctype.Spell(input),
		Canonical:      ctype.Spell(d.Type()),
		Target:         d.Target().Name,
		Shape:          NewShapeView(d.Entry()),
		Form:           d.Form().String(),
		Return:         ctype.Spell(d.ReturnType()),
		Args:           args,
		Variadic:       d.IsVariadic(),
		Noexcept:       d.IsNoexcept(),
		Qualifiers:     QualifiersView{Const: q.Const, Volatile: q.Volatile, Ref: q.Ref.String()},
		Convention:     d.CallingConvention().String(),
		FunctionObject: d.IsFunctionObject(),
	}
	if c := d.ClassType(); c != nil {
		v.Class = ctype.Spell(ctype.Named(c.Name, c.Args...))
	}
	return v
}

// ConventionView is the JSON form of a convention rule.
type ConventionView struct {
	Name      string `json:"name"`
	Variadic  bool   `json:"variadic"`
	Placement string `json:"placement"`
}

// TargetView is the JSON form of a target.
type TargetView struct {
	Name                  string           `json:"name"`
	Description           string           `json:"description,omitempty"`
	Standard              string           `json:"standard"`
	Default               string           `json:"default"`
	MemberDefault         string           `json:"member_default"`
	VariadicMemberDefault string           `json:"variadic_member_default"`
	Conventions           []ConventionView `json:"conventions"`
	Shapes                int              `json:"shapes"`
}

// NewTargetView converts a target.
func NewTargetView(t *platform.Target) TargetView {
	v := TargetView{
		Name:                  t.Name,
		Description:           t.Description,
		Standard:              t.Standard.String(),
		Default:               t.DefaultFor(false, false).String(),
		MemberDefault:         t.DefaultFor(true, false).String(),
		VariadicMemberDefault: t.DefaultFor(true, true).String(),
		Conventions:           make([]ConventionView, 0, len(t.Conventions)),
		Shapes:                shape.For(t).Len(),
	}
	for _, r := range t.Conventions {
		rule, _ := t.Rule(r.Convention)
		v.Conventions = append(v.Conventions, ConventionView{
			Name:      rule.Convention.String(),
			Variadic:  rule.Variadic,
			Placement: string(rule.Placement),
		})
	}
	return v
}
