// Package cli holds the flags and state shared by every fntraits command.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/broady/fntraits"
	"github.com/broady/fntraits/internal/logging"
	"github.com/broady/fntraits/platform"
	"github.com/broady/fntraits/service"
)

// Globals are the flags accepted before any command.
type Globals struct {
	Target     string   `help:"Target name (default: the host target)." short:"t" env:"FNTRAITS_TARGET"`
	TargetFile []string `help:"YAML file of extra target definitions; repeatable." name:"target-file" type:"existingfile"`
	LogLevel   string   `help:"Log level." name:"log-level" default:"warn" enum:"debug,info,warn,error"`
	LogFormat  string   `help:"Log format." name:"log-format" default:"text" enum:"text,json"`
	Color      string   `help:"Colour command output." default:"auto" enum:"auto,always,never"`

	Stdout io.Writer `kong:"-"`
	Stderr io.Writer `kong:"-"`

	registry *platform.Registry
	logger   *slog.Logger
	color    bool
}

// Init builds the logger and target registry. It runs once after flag
// parsing.
func (g *Globals) Init() error {
	if g.Stdout == nil {
		g.Stdout = os.Stdout
	}
	if g.Stderr == nil {
		g.Stderr = os.Stderr
	}

	logger, err := logging.New(logging.Config{Level: g.LogLevel, Format: g.LogFormat, Output: g.Stderr})
	if err != nil {
		return err
	}
	g.logger = logger

	color, err := logging.UseColor(g.Stdout, g.Color)
	if err != nil {
		return err
	}
	g.color = color

	g.registry = platform.NewRegistry()
	for _, path := range g.TargetFile {
		targets, err := g.registry.LoadFile(path)
		if err != nil {
			return err
		}
		for _, t := range targets {
			logger.Debug("registered target", slog.String("target", t.Name), slog.String("file", path))
		}
	}
	return nil
}

// Logger returns the configured logger.
func (g *Globals) Logger() *slog.Logger {
	if g.logger == nil {
		return slog.Default()
	}
	return g.logger
}

// Registry returns the built-in targets plus those from --target-file.
func (g *Globals) Registry() *platform.Registry {
	if g.registry == nil {
		return platform.Default
	}
	return g.registry
}

// Engine returns an engine for --target.
func (g *Globals) Engine() (*fntraits.Engine, error) {
	t := platform.Host()
	if g.Target != "" {
		var ok bool
		t, ok = g.Registry().Lookup(g.Target)
		if !ok {
			return nil, fmt.Errorf("unknown target %q (see `fntraits targets`)", g.Target)
		}
	}
	return fntraits.NewEngine(fntraits.WithTarget(t), fntraits.WithLogger(g.Logger())), nil
}

// Traits returns the service endpoints backed by the registry, for commands
// that share the service's semantics.
func (g *Globals) Traits() *service.Traits {
	return service.NewTraits(g.Registry(), g.Logger())
}

// Printf writes to stdout.
func (g *Globals) Printf(format string, args ...any) {
	fmt.Fprintf(g.Stdout, format, args...)
}

// Paint colours s for a status word when colour output is enabled.
func (g *Globals) Paint(status, s string) string {
	return logging.Paint(g.color, status, s)
}

// PrintJSON writes v as indented JSON to stdout.
func (g *Globals) PrintJSON(v any) error {
	enc := json.NewEncoder(g.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
