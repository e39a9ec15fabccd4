// Package generate implements the gen and check commands.
package generate

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/broady/fntraits/cmd/fntraits/internal/cli"
	"github.com/broady/fntraits/gen"
	"github.com/broady/fntraits/provider"
	"github.com/broady/fntraits/sink"
)

// Cmd generates the header described by each manifest.
type Cmd struct {
	Manifests []string `arg:"" name:"manifest" help:"Alias manifest (YAML)." type:"existingfile"`
	Root      string   `help:"Directory output paths are relative to (default: the manifest's directory)." type:"path"`
	NoClobber bool     `help:"Fail instead of overwriting an existing header." name:"no-clobber"`
}

func (c *Cmd) Run(g *cli.Globals, ctx context.Context) error {
	for _, path := range c.Manifests {
		m, gr, root, err := load(g, path, c.Root)
		if err != nil {
			return err
		}
		out := sink.NewFilesystemSink(root)
		out.Overwrite = !c.NoClobber
		res, err := gr.Generate(ctx, m, out)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		g.Printf("%s %s (%d aliases, %s)\n",
			g.Paint("ok", "wrote"), filepath.Join(root, res.Path), len(res.Aliases), res.Target)
	}
	return nil
}

// CheckCmd reports headers that are missing or out of date.
type CheckCmd struct {
	Manifests []string `arg:"" name:"manifest" help:"Alias manifest (YAML)." type:"existingfile"`
	Root      string   `help:"Directory output paths are relative to (default: the manifest's directory)." type:"path"`
}

func (c *CheckCmd) Run(g *cli.Globals, ctx context.Context) error {
	stale := 0
	for _, path := range c.Manifests {
		m, gr, root, err := load(g, path, c.Root)
		if err != nil {
			return err
		}
		paths, err := gr.Check(ctx, m, root)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if len(paths) == 0 {
			g.Printf("%s %s\n", g.Paint("ok", "up to date"), filepath.Join(root, m.Output))
			continue
		}
		for _, p := range paths {
			g.Printf("%s %s\n", g.Paint("stale", "stale"), filepath.Join(root, p))
		}
		stale += len(paths)
	}
	if stale > 0 {
		return fmt.Errorf("%d header(s) out of date; run fntraits gen", stale)
	}
	return nil
}

// load reads a manifest and prepares a generator whose Go packages resolve
// relative to the manifest.
func load(g *cli.Globals, path, root string) (*gen.Manifest, *gen.Generator, string, error) {
	m, err := gen.LoadManifest(path)
	if err != nil {
		return nil, nil, "", err
	}
	if g.Target != "" {
		m.Target = g.Target
	}
	dir := filepath.Dir(path)
	if root == "" {
		root = dir
	}
	gr := &gen.Generator{
		Registry: g.Registry(),
		Provider: &provider.SourceProvider{Logger: g.Logger()},
		Dir:      dir,
		Logger:   g.Logger(),
	}
	return m, gr, root, nil
}
