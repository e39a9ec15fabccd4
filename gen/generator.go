// Package gen generates C++ headers of function type aliases from YAML
// manifests.
//
// Each alias starts from a base type (a C++ spelling, an earlier alias, or a
// Go function or method) and applies overrides through the synthesis engine.
// A header is written only if every alias resolves.
package gen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/broady/fntraits"
	"github.com/broady/fntraits/ctype"
	"github.com/broady/fntraits/emit"
	"github.com/broady/fntraits/platform"
	"github.com/broady/fntraits/provider"
	"github.com/broady/fntraits/sink"
)

// Generator resolves manifests and writes headers.
type Generator struct {
	// Registry resolves target names. If nil, platform.Default is used.
	Registry *platform.Registry

	// Provider loads Go packages for aliases with a go base.
	// If nil, a SourceProvider with the generator's logger is used.
	Provider *provider.SourceProvider

	// Dir is the directory in which Go packages are loaded.
	Dir string

	// Logger receives progress output. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Result describes one generated header.
type Result struct {
	Path    string
	Target  string
	Size    int
	Aliases []Resolved
}

// Resolved is an alias after synthesis.
type Resolved struct {
	Name       string
	Type       ctype.Type
	Descriptor *fntraits.Descriptor
}

func (g *Generator) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

func (g *Generator) target(name string) (*platform.Target, error) {
	reg := g.Registry
	if reg == nil {
		reg = platform.Default
	}
	if name == "" {
		return platform.Host(), nil
	}
	t, ok := reg.Lookup(name)
	if !ok {
		return nil, fntraits.Errorf(fntraits.CodeInvalidArgument, "unknown target %q", name).WithDetail("target", name)
	}
	return t, nil
}

// Resolve synthesises every alias of m in order.
func (g *Generator) Resolve(ctx context.Context, m *Manifest) (*platform.Target, []Resolved, error) {
	t, err := g.target(m.Target)
	if err != nil {
		return nil, nil, err
	}
	eng := fntraits.NewEngine(fntraits.WithTarget(t), fntraits.WithLogger(g.logger()))
	goTypes := &goResolver{g: g, ctx: ctx, pkgs: map[string]*provider.Package{}}

	byName := make(map[string]ctype.Type, len(m.Aliases))
	out := make([]Resolved, 0, len(m.Aliases))
	for i, a := range m.Aliases {
		r, err := g.resolveAlias(eng, goTypes, byName, a)
		if err != nil {
			return nil, nil, aliasError(err, i, a.Name)
		}
		byName[a.Name] = r.Type
		out = append(out, r)
	}
	return t, out, nil
}

func (g *Generator) resolveAlias(eng *fntraits.Engine, goTypes *goResolver, byName map[string]ctype.Type, a Alias) (Resolved, error) {
	var base ctype.Type
	switch {
	case a.From != "":
		b, ok := byName[a.From]
		if !ok {
			return Resolved{}, fntraits.Errorf(fntraits.CodeInvalidArgument, "alias %q is not declared before %q", a.From, a.Name)
		}
		base = b
	case a.Go != nil:
		b, err := goTypes.resolve(a.Go)
		if err != nil {
			return Resolved{}, err
		}
		base = b
	default:
		b, err := ctype.Parse(a.Type)
		if err != nil {
			return Resolved{}, fntraits.Errorf(fntraits.CodeInvalidArgument, "type: %w", err)
		}
		base = b
	}

	ovs, err := a.Overrides.Build()
	if err != nil {
		return Resolved{}, err
	}
	typ, err := eng.Transform(base, ovs...)
	if err != nil {
		return Resolved{}, err
	}
	d, err := eng.Decompose(typ)
	if err != nil {
		return Resolved{}, err
	}
	return Resolved{Name: a.Name, Type: typ, Descriptor: d}, nil
}

// aliasError attaches the alias position to err. A *fntraits.Error nested
// under other wrappers is re-wrapped so the outer context stays in the
// message.
func aliasError(err error, i int, name string) error {
	at := map[string]any{"alias": name, "index": i}
	if fe, ok := err.(*fntraits.Error); ok {
		return fe.WithDetails(at)
	}
	var fe *fntraits.Error
	if errors.As(err, &fe) {
		return fntraits.Errorf(fe.Code, "alias %q: %w", name, err).WithDetails(fe.Details).WithDetails(at)
	}
	return fmt.Errorf("alias %q: %w", name, err)
}

// Generate resolves m and writes its header to out.
func (g *Generator) Generate(ctx context.Context, m *Manifest, out sink.OutputSink) (*Result, error) {
	t, resolved, err := g.Resolve(ctx, m)
	if err != nil {
		return nil, err
	}
	content, err := g.render(m, t, resolved)
	if err != nil {
		return nil, err
	}
	if err := out.WriteFile(ctx, m.Output, content); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", m.Output, err)
	}
	g.logger().Info("generated header",
		slog.String("path", m.Output),
		slog.String("target", t.Name),
		slog.Int("aliases", len(resolved)))
	return &Result{Path: m.Output, Target: t.Name, Size: len(content), Aliases: resolved}, nil
}

// Check reports whether the header under root is up to date with m. It
// returns the stale paths, if any.
func (g *Generator) Check(ctx context.Context, m *Manifest, root string) ([]string, error) {
	cs := sink.NewCheckSink(root)
	if _, err := g.Generate(ctx, m, cs); err != nil {
		return nil, err
	}
	return cs.Stale(), nil
}

func (g *Generator) render(m *Manifest, t *platform.Target, resolved []Resolved) ([]byte, error) {
	em, err := emit.New(emit.Config{
		Namespace:    m.Namespace,
		Guard:        m.Guard,
		Banner:       emit.Banner("fntraits gen", t),
		EmitComments: m.commentsEnabled(),
	})
	if err != nil {
		return nil, fntraits.Errorf(fntraits.CodeInvalidArgument, "%w", err)
	}
	aliases := make([]emit.Alias, len(resolved))
	for i, r := range resolved {
		aliases[i] = emit.Alias{Name: r.Name, Type: r.Type, Doc: m.Aliases[i].Doc, Descriptor: r.Descriptor}
	}
	content, err := em.Header(aliases)
	if err != nil {
		return nil, fntraits.Errorf(fntraits.CodeInvalidArgument, "%w", err)
	}
	return content, nil
}

// goResolver loads each Go package once per manifest.
type goResolver struct {
	g    *Generator
	ctx  context.Context
	pkgs map[string]*provider.Package
}

func (r *goResolver) load(path string) (*provider.Package, error) {
	if p, ok := r.pkgs[path]; ok {
		return p, nil
	}
	prov := r.g.Provider
	if prov == nil {
		prov = &provider.SourceProvider{Logger: r.g.logger()}
	}
	pkgs, err := prov.Load(r.ctx, provider.SourceInputOptions{Packages: []string{path}, Dir: r.g.Dir})
	if err != nil {
		return nil, err
	}
	r.pkgs[path] = pkgs[0]
	return pkgs[0], nil
}

// resolve returns the function type of a Go function, or the pointer to
// member of a Go method.
func (r *goResolver) resolve(ref *GoRef) (ctype.Type, error) {
	pkg, err := r.load(ref.Package)
	if err != nil {
		return nil, fntraits.Errorf(fntraits.CodeInvalidArgument, "go %s: %w", ref, err)
	}
	if ref.Func != "" {
		fn, ok := pkg.Func(ref.Func)
		if !ok {
			return nil, fntraits.Errorf(fntraits.CodeInvalidArgument, "go %s: no convertible function %s", ref, ref.Func)
		}
		return fn, nil
	}
	c, ok := pkg.Class(ref.Type)
	if !ok {
		return nil, fntraits.Errorf(fntraits.CodeInvalidArgument, "go %s: no type %s", ref, ref.Type)
	}
	ms := c.Lookup(ref.Method)
	if len(ms) != 1 {
		return nil, fntraits.Errorf(fntraits.CodeInvalidArgument, "go %s: no convertible method %s", ref, ref.Method)
	}
	return ctype.MemPtr(ctype.Named(c.Name), ms[0].Type), nil
}
