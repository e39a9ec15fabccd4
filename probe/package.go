package probe

import (
	"fmt"

	"github.com/broady/fntraits/ctype"
	"github.com/broady/fntraits/provider"
)

// Package asks the same questions of the named types of a Go package.
type Package struct {
	p   *Prober
	pkg *provider.Package
}

// Package returns a view of pkg that probes its named types by name.
func (p *Prober) Package(pkg *provider.Package) *Package {
	return &Package{p: p, pkg: pkg}
}

// Class returns the class for the Go type typeName.
func (g *Package) Class(typeName string) (*ctype.Class, error) {
	c, ok := g.pkg.Class(typeName)
	if !ok {
		return nil, fmt.Errorf("type %s not found in package %s", typeName, g.pkg.Path)
	}
	return c, nil
}

// HasMember reports whether the Go type typeName has an exported method
// named name.
func (g *Package) HasMember(typeName, name string) (bool, error) {
	c, err := g.Class(typeName)
	if err != nil {
		return false, err
	}
	return g.p.HasMember(c, name), nil
}

// HasCallableMember reports whether the Go type typeName has an exported
// method named name whose signature is a recognised callable shape.
func (g *Package) HasCallableMember(typeName, name string) (bool, error) {
	c, err := g.Class(typeName)
	if err != nil {
		return false, err
	}
	return g.p.HasCallableMember(c, name), nil
}

// HasMemberWithSignature reports whether the Go type typeName has an
// exported method named name with the C++ signature sig.
func (g *Package) HasMemberWithSignature(typeName, name string, sig ctype.Type) (bool, error) {
	c, err := g.Class(typeName)
	if err != nil {
		return false, err
	}
	return g.p.HasMemberWithSignature(c, name, sig), nil
}
