package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/broady/fntraits/cmd/fntraits/internal/cli"
	"github.com/broady/fntraits/cmd/fntraits/internal/generate"
	"github.com/broady/fntraits/cmd/fntraits/internal/gobridge"
	"github.com/broady/fntraits/cmd/fntraits/internal/inspect"
	"github.com/broady/fntraits/cmd/fntraits/internal/serve"
)

type CLI struct {
	cli.Globals

	Version   VersionCmd           `cmd:"" help:"Print version information."`
	Decompose inspect.DecomposeCmd `cmd:"" help:"Decompose callable types into their traits."`
	Query     inspect.QueryCmd     `cmd:"" help:"Print one trait of a callable type."`
	Synth     inspect.SynthCmd     `cmd:"" help:"Rebuild a callable type with some traits replaced."`
	Catalog   inspect.CatalogCmd   `cmd:"" help:"List the shapes recognised on the target."`
	Targets   inspect.TargetsCmd   `cmd:"" help:"List the known targets."`
	Gen       generate.Cmd         `cmd:"" help:"Generate C++ alias headers from manifests."`
	Check     generate.CheckCmd    `cmd:"" help:"Verify generated headers are up to date."`
	Go        gobridge.Cmd         `cmd:"" help:"Show Go declarations as C++ function types."`
	Probe     gobridge.ProbeCmd    `cmd:"" help:"Check a Go type for a method with a given signature."`
	Serve     serve.Cmd            `cmd:"" help:"Serve the trait queries over HTTP."`
}

type VersionCmd struct{}

func (c *VersionCmd) Run(g *cli.Globals) error {
	g.Printf("%s\n", Version())
	return nil
}

func main() {
	c := &CLI{}
	ctx := kong.Parse(c,
		kong.Name("fntraits"),
		kong.Description("Inspect and transform C++ function types."),
		kong.UsageOnError(),
	)
	if err := c.Globals.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "fntraits: %v\n", err)
		os.Exit(2)
	}

	sigctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx.BindTo(sigctx, (*context.Context)(nil))

	err := ctx.Run(&c.Globals)
	stop()
	ctx.FatalIfErrorf(err)
}
