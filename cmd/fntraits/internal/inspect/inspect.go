// Package inspect implements the decompose, query, synth, catalog and
// targets commands.
package inspect

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/broady/fntraits/cmd/fntraits/internal/cli"
	"github.com/broady/fntraits/ctype"
	"github.com/broady/fntraits/emit"
	"github.com/broady/fntraits/internal/validation"
	"github.com/broady/fntraits/override"
	"github.com/broady/fntraits/service"
)

// DecomposeCmd prints the decomposition of each type.
type DecomposeCmd struct {
	Types []string `arg:"" name:"type" help:"C++ type spellings, e.g. 'int (*)(char) noexcept'."`
	JSON  bool     `help:"Print JSON."`
}

func (c *DecomposeCmd) Run(g *cli.Globals) error {
	eng, err := g.Engine()
	if err != nil {
		return err
	}
	views := make([]service.DescriptorView, 0, len(c.Types))
	for _, s := range c.Types {
		t, err := ctype.Parse(s)
		if err != nil {
			return fmt.Errorf("%s: %w", s, err)
		}
		d, err := eng.Decompose(t)
		if err != nil {
			return fmt.Errorf("%s: %w", s, err)
		}
		if c.JSON {
			views = append(views, service.NewDescriptorView(t, d))
			continue
		}
		g.Printf("%s\n  %s\n  canonical %s\n", ctype.Spell(t), emit.Summary(d), ctype.Spell(d.Type()))
	}
	if c.JSON {
		return g.PrintJSON(views)
	}
	return nil
}

// QueryCmd prints one trait of a type.
type QueryCmd struct {
	Type  string `arg:"" help:"C++ type spelling."`
	Field string `arg:"" help:"Trait: return, arg_count, arg, args, variadic, noexcept, qualifiers, convention, class, form or shape."`
	Index int    `arg:"" optional:"" default:"-1" help:"Argument index for the arg trait."`
	JSON  bool   `help:"Print JSON."`
}

func (c *QueryCmd) Run(g *cli.Globals, ctx context.Context) error {
	req := &service.QueryRequest{Type: c.Type, Target: g.Target, Field: c.Field}
	if c.Field == "arg" {
		if c.Index < 0 {
			return fmt.Errorf("the arg trait needs an argument index")
		}
		req.Index = &c.Index
	}
	if err := validation.Struct(req); err != nil {
		return err
	}
	res, err := g.Traits().Query(ctx, req)
	if err != nil {
		return err
	}
	if s, ok := res.Value.(string); ok && !c.JSON {
		g.Printf("%s\n", s)
		return nil
	}
	return g.PrintJSON(res.Value)
}

// SynthCmd applies overrides to a type and prints the result.
type SynthCmd struct {
	Type string `arg:"" help:"C++ type spelling to transform."`

	Return     string   `help:"Replace the return type."`
	Args       []string `help:"Replace the whole argument list; pass an empty value to clear it." sep:";"`
	Set        []string `help:"Replace one argument, as INDEX=TYPE; repeatable." sep:"none"`
	Insert     []string `help:"Insert an argument before INDEX, as INDEX=TYPE; repeatable." sep:"none"`
	Remove     []int    `help:"Remove the argument at INDEX; repeatable."`
	Noexcept   string   `help:"Set the exception specification (true or false)."`
	Qualifiers string   `help:"Set member qualifiers, e.g. 'const &&' or 'none'."`
	Convention string   `help:"Set the calling convention, e.g. stdcall or default."`
	Class      string   `help:"Attach the named class, making a pointer to member."`
	Detach     bool     `help:"Drop the class, making a free function."`
	Variadic   string   `help:"Add or remove the C variadic marker (true or false)."`
	Bare       bool     `help:"Drop the pointer or reference wrapper."`
	JSON       bool     `help:"Print JSON."`
}

// Spec converts the flags into an override spec.
func (c *SynthCmd) Spec() (*override.Spec, error) {
	spec := &override.Spec{Return: c.Return, Remove: c.Remove, Bare: c.Bare}
	if c.Args != nil {
		args := make([]string, 0, len(c.Args))
		for _, a := range c.Args {
			if a = strings.TrimSpace(a); a != "" {
				args = append(args, a)
			}
		}
		spec.Args = &args
	}
	var err error
	if spec.Set, err = positions("set", c.Set); err != nil {
		return nil, err
	}
	if spec.Insert, err = positions("insert", c.Insert); err != nil {
		return nil, err
	}
	if spec.Noexcept, err = optionalBool("noexcept", c.Noexcept); err != nil {
		return nil, err
	}
	if spec.Variadic, err = optionalBool("variadic", c.Variadic); err != nil {
		return nil, err
	}
	if c.Qualifiers != "" {
		if spec.Qualifiers, err = qualifiers(c.Qualifiers); err != nil {
			return nil, err
		}
	}
	if c.Convention != "" {
		spec.Convention = &c.Convention
	}
	switch {
	case c.Detach && c.Class != "":
		return nil, fmt.Errorf("--class and --detach are mutually exclusive")
	case c.Detach:
		empty := ""
		spec.Class = &empty
	case c.Class != "":
		spec.Class = &c.Class
	}
	return spec, nil
}

func (c *SynthCmd) Run(g *cli.Globals, ctx context.Context) error {
	spec, err := c.Spec()
	if err != nil {
		return err
	}
	req := &service.SynthesizeRequest{Type: c.Type, Target: g.Target, Overrides: *spec}
	if err := validation.Struct(req); err != nil {
		return err
	}
	res, err := g.Traits().Synthesize(ctx, req)
	if err != nil {
		return err
	}
	if c.JSON {
		return g.PrintJSON(res)
	}
	g.Printf("%s\n", res.Type)
	return nil
}

func positions(flag string, values []string) ([]override.Position, error) {
	out := make([]override.Position, 0, len(values))
	for _, v := range values {
		at, typ, ok := strings.Cut(v, "=")
		if !ok {
			return nil, fmt.Errorf("--%s %q: want INDEX=TYPE", flag, v)
		}
		i, err := strconv.Atoi(strings.TrimSpace(at))
		if err != nil {
			return nil, fmt.Errorf("--%s %q: bad index: %w", flag, v, err)
		}
		out = append(out, override.Position{At: i, Type: strings.TrimSpace(typ)})
	}
	return out, nil
}

func optionalBool(flag, s string) (*bool, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("--%s %q: want true or false", flag, s)
	}
	return &v, nil
}

func qualifiers(s string) (*override.Qualifiers, error) {
	q := &override.Qualifiers{}
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' }) {
		switch tok {
		case "none":
		case "const":
			q.Const = true
		case "volatile":
			q.Volatile = true
		case "&", "lvalue", "&&", "rvalue":
			if q.Ref != "" {
				return nil, fmt.Errorf("--qualifiers %q: more than one ref-qualifier", s)
			}
			q.Ref = tok
		default:
			return nil, fmt.Errorf("--qualifiers %q: unknown qualifier %q", s, tok)
		}
	}
	return q, nil
}

// CatalogCmd lists the shapes recognised on the target.
type CatalogCmd struct {
	Kind string `help:"Which shapes to list." default:"all" enum:"all,free,member"`
	JSON bool   `help:"Print JSON."`
}

func (c *CatalogCmd) Run(g *cli.Globals, ctx context.Context) error {
	req := &service.CatalogListRequest{Target: g.Target}
	if c.Kind != "all" {
		member := c.Kind == "member"
		req.Member = &member
	}
	res, err := g.Traits().List(ctx, req)
	if err != nil {
		return err
	}
	if c.JSON {
		return g.PrintJSON(res)
	}
	tw := tabwriter.NewWriter(g.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "#\tSHAPE\tCONVENTION\n")
	for _, s := range res.Shapes {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", s.Ordinal, s.Name, s.Convention)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	g.Printf("%d of %d shapes on %s\n", len(res.Shapes), res.Total, res.Target)
	return nil
}

// TargetsCmd lists the registered targets.
type TargetsCmd struct {
	JSON bool `help:"Print JSON."`
}

func (c *TargetsCmd) Run(g *cli.Globals, ctx context.Context) error {
	res, err := g.Traits().Targets(ctx, &service.TargetsRequest{})
	if err != nil {
		return err
	}
	if c.JSON {
		return g.PrintJSON(res)
	}
	tw := tabwriter.NewWriter(g.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "TARGET\tSTANDARD\tDEFAULT\tMEMBER\tVARIADIC MEMBER\tCONVENTIONS\tSHAPES\n")
	for _, t := range res.Targets {
		name := t.Name
		if name == res.Host {
			name += " (host)"
		}
		convs := make([]string, 0, len(t.Conventions))
		for _, cv := range t.Conventions {
			convs = append(convs, cv.Name)
		}
		if len(convs) == 0 {
			convs = append(convs, "-")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			name, t.Standard, t.Default, t.MemberDefault, t.VariadicMemberDefault, strings.Join(convs, ","), t.Shapes)
	}
	return tw.Flush()
}
