package gen

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/broady/fntraits"
	"github.com/broady/fntraits/internal/validation"
	"github.com/broady/fntraits/override"
	"gopkg.in/yaml.v3"
)

// Manifest lists the aliases of one generated header.
type Manifest struct {
	// Target names the platform target; empty means the host target.
	Target string `yaml:"target"`

	// Output is the header path relative to the output directory.
	Output string `yaml:"output" validate:"required"`

	Namespace string `yaml:"namespace"`
	Guard     string `yaml:"guard"`

	// Comments controls doc and decomposition comments (default true).
	Comments *bool `yaml:"comments"`

	Aliases []Alias `yaml:"aliases" validate:"required,min=1,dive"`
}

// Alias declares one `using` alias. Its base type is exactly one of Type,
// From (an earlier alias of the manifest) or Go (a Go declaration).
type Alias struct {
	Name      string         `yaml:"name" validate:"required"`
	Doc       string         `yaml:"doc"`
	Type      string         `yaml:"type" validate:"required_without_all=From Go,excluded_with=From Go"`
	From      string         `yaml:"from" validate:"excluded_with=Go"`
	Go        *GoRef         `yaml:"go"`
	Overrides *override.Spec `yaml:"overrides"`
}

// GoRef names a Go function, or a method of a Go type.
type GoRef struct {
	Package string `yaml:"package" validate:"required"`
	Func    string `yaml:"func" validate:"required_without=Type,excluded_with=Type"`
	Type    string `yaml:"type"`
	Method  string `yaml:"method" validate:"required_with=Type"`
}

func (g *GoRef) String() string {
	if g.Func != "" {
		return g.Package + "." + g.Func
	}
	return g.Package + "." + g.Type + "." + g.Method
}

// commentsEnabled reports whether comments are emitted.
func (m *Manifest) commentsEnabled() bool {
	return m.Comments == nil || *m.Comments
}

// ParseManifest decodes and validates a YAML manifest. Unknown fields are
// rejected.
func ParseManifest(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var m Manifest
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fntraits.NewError(fntraits.CodeInvalidArgument, "manifest is empty")
		}
		return nil, fntraits.Errorf(fntraits.CodeInvalidArgument, "failed to parse manifest: %w", err)
	}
	if err := validation.Struct(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadManifest reads and parses the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		var fe *fntraits.Error
		if errors.As(err, &fe) {
			return nil, fe.WithDetail("path", path)
		}
		return nil, err
	}
	return m, nil
}
