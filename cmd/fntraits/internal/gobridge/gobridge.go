// Package gobridge implements the go and probe commands, which view Go
// declarations as C++ function types.
package gobridge

import (
	"context"
	"fmt"

	"github.com/broady/fntraits/cmd/fntraits/internal/cli"
	"github.com/broady/fntraits/ctype"
	"github.com/broady/fntraits/probe"
	"github.com/broady/fntraits/provider"
)

// Cmd prints the C++ signatures of a Go package's exported declarations.
type Cmd struct {
	Packages []string `arg:"" name:"package" help:"Go package patterns."`
	Names    []string `help:"Only these top-level names." short:"n"`
	Dir      string   `help:"Directory to resolve packages from." type:"existingdir"`
	JSON     bool     `help:"Print JSON."`
}

// packageView is the JSON form of a converted package.
type packageView struct {
	Path     string             `json:"path"`
	Funcs    map[string]string  `json:"funcs"`
	Classes  []classView        `json:"classes"`
	Warnings []provider.Warning `json:"warnings,omitempty"`
}

type classView struct {
	Name    string            `json:"name"`
	Members map[string]string `json:"members"`
}

func (c *Cmd) Run(g *cli.Globals, ctx context.Context) error {
	pkgs, err := (&provider.SourceProvider{Logger: g.Logger()}).Load(ctx, provider.SourceInputOptions{
		Packages: c.Packages,
		Dir:      c.Dir,
		Names:    c.Names,
	})
	if err != nil {
		return err
	}
	views := make([]packageView, 0, len(pkgs))
	for _, pkg := range pkgs {
		v := packageView{Path: pkg.Path, Funcs: map[string]string{}, Warnings: pkg.Warnings}
		for _, f := range pkg.Funcs {
			v.Funcs[f.Name] = ctype.Spell(f.Type)
		}
		for _, cl := range pkg.Classes {
			cv := classView{Name: cl.Name, Members: map[string]string{}}
			for _, m := range cl.Members {
				cv.Members[m.Name] = ctype.Spell(ctype.MemPtr(ctype.Named(cl.Name), m.Type))
			}
			v.Classes = append(v.Classes, cv)
		}
		views = append(views, v)
	}
	if c.JSON {
		return g.PrintJSON(views)
	}
	for _, pkg := range pkgs {
		g.Printf("package %s\n", pkg.Path)
		for _, f := range pkg.Funcs {
			g.Printf("  func %s: %s\n", f.Name, ctype.Spell(f.Type))
		}
		for _, cl := range pkg.Classes {
			g.Printf("  type %s\n", cl.Name)
			for _, m := range cl.Members {
				g.Printf("    %s: %s\n", m.Name, ctype.Spell(ctype.MemPtr(ctype.Named(cl.Name), m.Type)))
			}
		}
		for _, w := range pkg.Warnings {
			g.Printf("  %s %s: %s\n", g.Paint("warn", "skipped"), w.Name, w.Message)
		}
	}
	return nil
}

// ProbeCmd asks whether a Go type has a method, optionally with a given C++
// signature.
type ProbeCmd struct {
	Package   string `arg:"" help:"Go package path."`
	Type      string `arg:"" help:"Named type in the package."`
	Member    string `arg:"" help:"Method name; use operator() for the call operator."`
	Signature string `help:"C++ signature the method must have, as a function or pointer-to-member type." short:"s"`
	Dir       string `help:"Directory to resolve the package from." type:"existingdir"`
}

func (c *ProbeCmd) Run(g *cli.Globals, ctx context.Context) error {
	eng, err := g.Engine()
	if err != nil {
		return err
	}
	pkgs, err := (&provider.SourceProvider{Logger: g.Logger()}).Load(ctx, provider.SourceInputOptions{
		Packages: []string{c.Package},
		Dir:      c.Dir,
		Names:    []string{c.Type},
	})
	if err != nil {
		return err
	}
	p := probe.New(eng.IsCallable, probe.WithIdentity(eng.Identical)).Package(pkgs[0])

	has, err := p.HasMember(c.Type, c.Member)
	if err != nil {
		return err
	}
	callable, err := p.HasCallableMember(c.Type, c.Member)
	if err != nil {
		return err
	}
	g.Printf("member:   %s\n", yesNo(g, has))
	g.Printf("callable: %s\n", yesNo(g, callable))

	if c.Signature == "" {
		return nil
	}
	sig, err := ctype.Parse(c.Signature)
	if err != nil {
		return fmt.Errorf("--signature: %w", err)
	}
	match, err := p.HasMemberWithSignature(c.Type, c.Member, sig)
	if err != nil {
		return err
	}
	g.Printf("signature: %s\n", yesNo(g, match))
	return nil
}

func yesNo(g *cli.Globals, v bool) string {
	if v {
		return g.Paint("ok", "yes")
	}
	return g.Paint("fail", "no")
}
