// Package provider extracts function signatures from Go source code and
// converts them to C++ function types.
//
// Package-level functions become free functions. Named types become classes
// whose members are the exported methods of the type's pointer method set: a
// value receiver yields a const member, a pointer receiver a non-const one.
// Multiple results are returned as std::tuple and a Go variadic parameter
// becomes the C variadic marker.
//
// Load also honors //fntraits: directives in doc comments, which mark a
// function noexcept, give it a calling convention or skip it.
package provider

import (
	"context"
	"fmt"
	"go/types"
	"log/slog"
	"sort"

	"github.com/broady/fntraits/ctype"
	"github.com/broady/fntraits/internal/directive"
	"golang.org/x/tools/go/packages"
)

// SourceProvider extracts signatures by analyzing Go source code.
type SourceProvider struct {
	// Logger receives debug output about skipped declarations.
	// If nil, slog.Default() is used.
	Logger *slog.Logger
}

// SourceInputOptions configures source-based extraction.
type SourceInputOptions struct {
	// Packages are the Go package patterns to analyze.
	Packages []string

	// Dir is the directory in which to run the build system's query tool.
	// If empty, the current directory is used.
	Dir string

	// Names restricts extraction to these top-level names (functions or types).
	// If empty, all exported names are extracted.
	Names []string
}

// Package is the C++ view of one Go package.
type Package struct {
	Path    string
	Name    string
	Funcs   []Func
	Classes []*ctype.Class

	// Warnings lists declarations that were skipped.
	Warnings []Warning
}

// Func is a package-level function.
type Func struct {
	Name string
	Type *ctype.Function
}

// Warning describes a declaration that has no C++ counterpart.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Name    string `json:"name,omitempty"`
}

// Func returns the package-level function with the given name.
func (p *Package) Func(name string) (*ctype.Function, bool) {
	for _, f := range p.Funcs {
		if f.Name == name {
			return f.Type, true
		}
	}
	return nil, false
}

// Class returns the class for the named type with the given name.
func (p *Package) Class(name string) (*ctype.Class, bool) {
	for _, c := range p.Classes {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Load analyzes the packages named by opts and returns one Package per
// input package, in load order.
func (p *SourceProvider) Load(ctx context.Context, opts SourceInputOptions) ([]*Package, error) {
	if len(opts.Packages) == 0 {
		return nil, fmt.Errorf("no packages specified")
	}

	cfg := &packages.Config{
		Context: ctx,
		Dir:     opts.Dir,
		Mode: packages.NeedName |
			packages.NeedFiles |
			packages.NeedSyntax |
			packages.NeedTypes |
			packages.NeedTypesInfo,
	}

	pkgs, err := packages.Load(cfg, opts.Packages...)
	if err != nil {
		return nil, fmt.Errorf("failed to load packages: %w", err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found")
	}
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, fmt.Errorf("package %s has errors: %v", pkg.PkgPath, pkg.Errors)
		}
	}

	out := make([]*Package, 0, len(pkgs))
	for _, pkg := range pkgs {
		dirs, err := directive.Parse(pkg.Fset, pkg.Syntax)
		if err != nil {
			return nil, fmt.Errorf("package %s: %w", pkg.PkgPath, err)
		}
		cp, err := p.convert(pkg.Types, dirs, opts.Names...)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}

// Convert builds the C++ view of a type-checked package. If names is
// non-empty, only those top-level names are converted and each must exist.
func (p *SourceProvider) Convert(pkg *types.Package, names ...string) (*Package, error) {
	return p.convert(pkg, nil, names...)
}

func (p *SourceProvider) convert(pkg *types.Package, dirs directive.Set, names ...string) (*Package, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	b := &packageBuilder{
		pkg:    pkg,
		out:    &Package{Path: pkg.Path(), Name: pkg.Name()},
		dirs:   dirs,
		logger: logger,
	}

	scope := pkg.Scope()
	if len(names) == 0 {
		for _, name := range scope.Names() {
			obj := scope.Lookup(name)
			if obj.Exported() {
				b.extract(obj)
			}
		}
	} else {
		for _, name := range names {
			obj := scope.Lookup(name)
			if obj == nil {
				return nil, fmt.Errorf("%s not found in package %s", name, pkg.Path())
			}
			b.extract(obj)
		}
	}

	sort.Slice(b.out.Funcs, func(i, j int) bool { return b.out.Funcs[i].Name < b.out.Funcs[j].Name })
	sort.Slice(b.out.Classes, func(i, j int) bool { return b.out.Classes[i].Name < b.out.Classes[j].Name })
	return b.out, nil
}

// packageBuilder accumulates the converted declarations of one package.
type packageBuilder struct {
	pkg    *types.Package
	out    *Package
	dirs   directive.Set
	logger *slog.Logger
}

// annotate applies the directive for key to fn. It reports false if the
// declaration is marked skip.
func (b *packageBuilder) annotate(key string, fn *ctype.Function) bool {
	d, ok := b.dirs.Lookup(key)
	if !ok {
		return true
	}
	if d.Skip {
		b.logger.Debug("skipping declaration",
			slog.String("package", b.pkg.Path()),
			slog.String("name", key),
			slog.String("reason", "fntraits:skip"))
		return false
	}
	d.Apply(fn)
	return true
}

func (b *packageBuilder) warn(code, name string, err error) {
	b.out.Warnings = append(b.out.Warnings, Warning{Code: code, Message: err.Error(), Name: name})
	b.logger.Debug("skipping declaration",
		slog.String("package", b.pkg.Path()),
		slog.String("name", name),
		slog.String("reason", err.Error()))
}

func (b *packageBuilder) extract(obj types.Object) {
	switch o := obj.(type) {
	case *types.Func:
		fn, err := b.convertSignature(o.Type().(*types.Signature))
		if err != nil {
			b.warn("UNSUPPORTED_FUNC", o.Name(), err)
			return
		}
		if !b.annotate(o.Name(), fn) {
			return
		}
		b.out.Funcs = append(b.out.Funcs, Func{Name: o.Name(), Type: fn})

	case *types.TypeName:
		if o.IsAlias() {
			return
		}
		named, ok := o.Type().(*types.Named)
		if !ok {
			return
		}
		if named.TypeParams().Len() > 0 {
			b.warn("GENERIC_TYPE", o.Name(), fmt.Errorf("generic type %s has no single class", o.Name()))
			return
		}
		b.out.Classes = append(b.out.Classes, b.convertClass(named))
	}
}

// convertClass maps a named type to a class declaring its exported methods.
func (b *packageBuilder) convertClass(named *types.Named) *ctype.Class {
	c := ctype.Named(named.Obj().Name())
	mset := types.NewMethodSet(types.NewPointer(named))
	for i := range mset.Len() {
		sel := mset.At(i)
		m := sel.Obj().(*types.Func)
		if !m.Exported() {
			continue
		}
		sig := m.Type().(*types.Signature)
		fn, err := b.convertSignature(sig)
		if err != nil {
			b.warn("UNSUPPORTED_METHOD", named.Obj().Name()+"."+m.Name(), err)
			continue
		}
		if !pointerReceiver(sig) {
			fn.Const = true
		}
		if !b.annotate(receiverName(sig)+"."+m.Name(), fn) {
			continue
		}
		c.Members = append(c.Members, ctype.Method(m.Name(), fn))
	}
	return c
}

// receiverName returns the name of the type that declares the method, which
// differs from the class name for promoted methods.
func receiverName(sig *types.Signature) string {
	t := types.Unalias(sig.Recv().Type())
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}
	if named, ok := types.Unalias(t).(*types.Named); ok {
		return named.Obj().Name()
	}
	return ""
}

func pointerReceiver(sig *types.Signature) bool {
	recv := sig.Recv()
	if recv == nil {
		return false
	}
	_, ok := types.Unalias(recv.Type()).(*types.Pointer)
	return ok
}

// convertSignature maps a Go signature (ignoring the receiver) to a function
// type.
func (b *packageBuilder) convertSignature(sig *types.Signature) (*ctype.Function, error) {
	params := sig.Params()
	n := params.Len()
	if sig.Variadic() {
		n--
	}
	fn := &ctype.Function{Variadic: sig.Variadic()}
	for i := range n {
		t, err := b.convertType(params.At(i).Type())
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i, err)
		}
		fn.Params = append(fn.Params, t)
	}
	fn.Params = ctype.AdjustParams(fn.Params)

	results := sig.Results()
	switch results.Len() {
	case 0:
		fn.Return = ctype.Void
	case 1:
		t, err := b.convertType(results.At(0).Type())
		if err != nil {
			return nil, fmt.Errorf("result: %w", err)
		}
		fn.Return = t
	default:
		elems := make([]ctype.Type, results.Len())
		for i := range results.Len() {
			t, err := b.convertType(results.At(i).Type())
			if err != nil {
				return nil, fmt.Errorf("result %d: %w", i, err)
			}
			elems[i] = t
		}
		fn.Return = ctype.Tuple(elems...)
	}
	return fn, nil
}

// convertType maps a Go type to the closest C++ type.
func (b *packageBuilder) convertType(t types.Type) (ctype.Type, error) {
	switch typ := t.(type) {
	case *types.Basic:
		return convertBasicType(typ)

	case *types.Named:
		obj := typ.Obj()
		if obj.Pkg() == nil {
			if obj.Name() == "error" {
				return ctype.Named("std::error_code"), nil
			}
			return nil, fmt.Errorf("unsupported predeclared type: %s", obj.Name())
		}
		name := obj.Name()
		if obj.Pkg() != b.pkg {
			name = obj.Pkg().Name() + "::" + name
		}
		var args []ctype.Type
		if targs := typ.TypeArgs(); targs != nil {
			for i := range targs.Len() {
				a, err := b.convertType(targs.At(i))
				if err != nil {
					return nil, err
				}
				args = append(args, a)
			}
		}
		return ctype.Named(name, args...), nil

	case *types.Pointer:
		elem, err := b.convertType(typ.Elem())
		if err != nil {
			return nil, err
		}
		return ctype.PtrTo(elem), nil

	case *types.Slice:
		elem, err := b.convertType(typ.Elem())
		if err != nil {
			return nil, err
		}
		return ctype.Named("std::vector", elem), nil

	case *types.Map:
		key, err := b.convertType(typ.Key())
		if err != nil {
			return nil, err
		}
		value, err := b.convertType(typ.Elem())
		if err != nil {
			return nil, err
		}
		return ctype.Named("std::map", key, value), nil

	case *types.Interface:
		if typ.Empty() {
			return ctype.Named("std::any"), nil
		}
		return nil, fmt.Errorf("unsupported interface type: %s", typ)

	case *types.Signature:
		fn, err := b.convertSignature(typ)
		if err != nil {
			return nil, err
		}
		if fn.Variadic {
			return nil, fmt.Errorf("unsupported variadic function value: %s", typ)
		}
		return ctype.Named("std::function", fn), nil

	case *types.TypeParam:
		return ctype.Named(typ.Obj().Name()), nil

	case *types.Alias:
		return b.convertType(types.Unalias(typ))

	case *types.Array, *types.Chan, *types.Struct:
		return nil, fmt.Errorf("unsupported type: %s", t)

	default:
		return nil, fmt.Errorf("unknown type: %T", t)
	}
}

// convertBasicType maps Go's basic types to fixed-width C++ types on an LP64
// data model.
func convertBasicType(basic *types.Basic) (ctype.Type, error) {
	switch basic.Kind() {
	case types.Bool:
		return ctype.Bool, nil
	case types.String:
		return ctype.Named("std::string"), nil
	case types.Int8:
		return builtin("signed char"), nil
	case types.Int16:
		return ctype.Short, nil
	case types.Int32:
		return ctype.Int, nil
	case types.Int, types.Int64:
		return ctype.LongLong, nil
	case types.Uint8:
		return builtin("unsigned char"), nil
	case types.Uint16:
		return builtin("unsigned short"), nil
	case types.Uint32:
		return ctype.Uint, nil
	case types.Uint, types.Uint64:
		return builtin("unsigned long long"), nil
	case types.Uintptr:
		return ctype.Named("std::uintptr_t"), nil
	case types.Float32:
		return ctype.Float, nil
	case types.Float64:
		return ctype.Double, nil
	case types.Complex64:
		return ctype.Named("std::complex", ctype.Float), nil
	case types.Complex128:
		return ctype.Named("std::complex", ctype.Double), nil
	case types.UnsafePointer:
		return ctype.PtrTo(ctype.Void), nil
	default:
		return nil, fmt.Errorf("unsupported basic type: %s", basic)
	}
}

func builtin(name string) ctype.Type {
	t, _ := ctype.LookupBuiltin(name)
	return t
}
