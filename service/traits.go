package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/broady/fntraits"
	"github.com/broady/fntraits/ctype"
	"github.com/broady/fntraits/override"
	"github.com/broady/fntraits/platform"
)

// Traits serves the decomposition, synthesis and catalog endpoints.
type Traits struct {
	registry *platform.Registry
	logger   *slog.Logger
	engines  sync.Map // target name -> *fntraits.Engine
}

// NewTraits returns the endpoints backed by reg. A nil reg means
// platform.Default.
func NewTraits(reg *platform.Registry, logger *slog.Logger) *Traits {
	if reg == nil {
		reg = platform.Default
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Traits{registry: reg, logger: logger}
}

// Register adds the Traits and Catalog services to app.
func (t *Traits) Register(app *App) {
	traits := app.Service("Traits")
	traits.Register("Decompose", Query(t.Decompose).Cache(time.Hour))
	traits.Register("Query", Query(t.Query).Cache(time.Hour))
	traits.Register("Synthesize", Exec(t.Synthesize))

	catalog := app.Service("Catalog")
	catalog.Register("List", Query(t.List).Cache(time.Hour))
	catalog.Register("Targets", Query(t.Targets).Cache(time.Hour))
}

// engine returns the engine for the named target; empty means the host.
func (t *Traits) engine(name string) (*fntraits.Engine, error) {
	var target *platform.Target
	if name == "" {
		target = platform.Host()
	} else {
		var ok bool
		target, ok = t.registry.Lookup(name)
		if !ok {
			return nil, fntraits.Errorf(fntraits.CodeInvalidArgument, "unknown target %q", name).
				WithDetail("target", name)
		}
	}
	if v, ok := t.engines.Load(target.Name); ok && v.(*fntraits.Engine).Target() == target {
		return v.(*fntraits.Engine), nil
	}
	fresh := fntraits.NewEngine(
		fntraits.WithTarget(target),
		fntraits.WithLogger(t.logger),
	)
	for {
		v, loaded := t.engines.LoadOrStore(target.Name, fresh)
		if !loaded {
			return fresh, nil
		}
		if e := v.(*fntraits.Engine); e.Target() == target {
			return e, nil
		}
		if t.engines.CompareAndSwap(target.Name, v, fresh) {
			return fresh, nil
		}
	}
}

func parseType(field, s string) (ctype.Type, error) {
	typ, err := ctype.Parse(s)
	if err != nil {
		return nil, fntraits.Errorf(fntraits.CodeInvalidArgument, "invalid type: %w", err).
			WithDetail("field", field)
	}
	return typ, nil
}

// DecomposeRequest names a type to decompose.
type DecomposeRequest struct {
	Type   string `schema:"type" validate:"required"`
	Target string `schema:"target"`
}

// Decompose returns the full decomposition of a type.
func (t *Traits) Decompose(ctx context.Context, req *DecomposeRequest) (*DescriptorView, error) {
	eng, err := t.engine(req.Target)
	if err != nil {
		return nil, err
	}
	typ, err := parseType("type", req.Type)
	if err != nil {
		return nil, err
	}
	d, err := eng.Decompose(typ)
	if err != nil {
		return nil, err
	}
	v := NewDescriptorView(typ, d)
	return &v, nil
}

// QueryRequest asks for one trait of a type.
type QueryRequest struct {
	Type   string `schema:"type" validate:"required"`
	Target string `schema:"target"`
	Field  string `schema:"field" validate:"required,oneof=return arg_count arg args variadic noexcept qualifiers convention class form shape"`
	Index  *int   `schema:"index" validate:"required_if=Field arg"`
}

// QueryResponse holds the value of one trait.
type QueryResponse struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// Query returns a single trait of a type. Callers outside the service
// should validate req first; an unknown field yields a null value.
func (t *Traits) Query(ctx context.Context, req *QueryRequest) (*QueryResponse, error) {
	eng, err := t.engine(req.Target)
	if err != nil {
		return nil, err
	}
	typ, err := parseType("type", req.Type)
	if err != nil {
		return nil, err
	}
	d, err := eng.Decompose(typ)
	if err != nil {
		return nil, err
	}
	v := NewDescriptorView(typ, d)

	resp := &QueryResponse{Field: req.Field}
	switch req.Field {
	case "return":
		resp.Value = v.Return
	case "arg_count":
		resp.Value = d.ArgCount()
	case "arg":
		if req.Index == nil {
			return nil, fntraits.NewError(fntraits.CodeInvalidArgument, "field arg requires an index").
				WithDetail("field", "index")
		}
		a, err := d.ArgType(*req.Index)
		if err != nil {
			return nil, err
		}
		resp.Value = ctype.Spell(a)
	case "args":
		resp.Value = v.Args
	case "variadic":
		resp.Value = v.Variadic
	case "noexcept":
		resp.Value = v.Noexcept
	case "qualifiers":
		resp.Value = v.Qualifiers
	case "convention":
		resp.Value = v.Convention
	case "class":
		if v.Class == "" {
			return nil, fntraits.Errorf(fntraits.CodeInvalidArgument, "%s is not a member function", v.Type)
		}
		resp.Value = v.Class
	case "form":
		resp.Value = v.Form
	case "shape":
		resp.Value = v.Shape
	}
	return resp, nil
}

// SynthesizeRequest transforms a type with a list of overrides.
type SynthesizeRequest struct {
	Type      string        `json:"type" validate:"required"`
	Target    string        `json:"target"`
	Overrides override.Spec `json:"overrides"`
}

// SynthesizeResponse is the transformed type and its decomposition.
type SynthesizeResponse struct {
	Type       string         `json:"type"`
	Descriptor DescriptorView `json:"descriptor"`
}

// Synthesize applies overrides to a type.
func (t *Traits) Synthesize(ctx context.Context, req *SynthesizeRequest) (*SynthesizeResponse, error) {
	eng, err := t.engine(req.Target)
	if err != nil {
		return nil, err
	}
	typ, err := parseType("type", req.Type)
	if err != nil {
		return nil, err
	}
	ops, err := req.Overrides.Build()
	if err != nil {
		return nil, err
	}
	out, err := eng.Transform(typ, ops...)
	if err != nil {
		return nil, err
	}
	d, err := eng.Decompose(out)
	if err != nil {
		return nil, err
	}
	t.logger.DebugContext(ctx, "synthesized",
		slog.String("from", req.Type),
		slog.String("to", ctype.Spell(out)),
		slog.String("target", d.Target().Name))
	return &SynthesizeResponse{Type: ctype.Spell(out), Descriptor: NewDescriptorView(out, d)}, nil
}

// CatalogListRequest selects the catalog of a target.
type CatalogListRequest struct {
	Target string `schema:"target"`
	Member *bool  `schema:"member"`
}

// CatalogListResponse lists catalog entries in ordinal order.
type CatalogListResponse struct {
	Target string      `json:"target"`
	Total  int         `json:"total"`
	Shapes []ShapeView `json:"shapes"`
}

// List returns the catalog of a target, optionally restricted to free or
// member shapes.
func (t *Traits) List(ctx context.Context, req *CatalogListRequest) (*CatalogListResponse, error) {
	eng, err := t.engine(req.Target)
	if err != nil {
		return nil, err
	}
	cat := eng.Catalog()
	resp := &CatalogListResponse{Target: eng.Target().Name, Total: cat.Len(), Shapes: []ShapeView{}}
	for _, e := range cat.Entries() {
		if req.Member != nil && e.Key.Member != *req.Member {
			continue
		}
		resp.Shapes = append(resp.Shapes, NewShapeView(e))
	}
	return resp, nil
}

// TargetsRequest is empty.
type TargetsRequest struct{}

// TargetsResponse lists every registered target.
type TargetsResponse struct {
	Host    string       `json:"host"`
	Targets []TargetView `json:"targets"`
}

// Targets returns every registered target.
func (t *Traits) Targets(ctx context.Context, req *TargetsRequest) (*TargetsResponse, error) {
	all := t.registry.All()
	resp := &TargetsResponse{Host: platform.Host().Name, Targets: make([]TargetView, 0, len(all))}
	for _, target := range all {
		resp.Targets = append(resp.Targets, NewTargetView(target))
	}
	return resp, nil
}
