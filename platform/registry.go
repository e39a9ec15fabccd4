package platform

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/broady/fntraits/ctype"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Registry maps target names to targets. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	targets map[string]*Target
}

// NewRegistry returns a registry holding the built-in targets.
func NewRegistry() *Registry {
	r := &Registry{targets: make(map[string]*Target)}
	for _, t := range builtin {
		r.targets[t.Name] = t
	}
	return r
}

// Default is the process-wide registry used by Lookup and Host.
var Default = NewRegistry()

// Lookup returns the target with the given name from the default registry.
func Lookup(name string) (*Target, bool) { return Default.Lookup(name) }

// Host returns the built-in target for the running process.
func Host() *Target {
	t, _ := Default.Lookup(HostName())
	if t == nil {
		t, _ = Default.Lookup(Generic)
	}
	return t
}

// Lookup returns the named target.
func (r *Registry) Lookup(name string) (*Target, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.targets[name]
	return t, ok
}

// Register validates t and adds it, replacing any target of the same name.
func (r *Registry) Register(t *Target) error {
	if err := Validate(t); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.targets[t.Name] = t
	return nil
}

// All returns every registered target sorted by name.
func (r *Registry) All() []*Target {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Target, 0, len(r.targets))
	for _, t := range r.targets {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Validate checks a target definition.
func Validate(t *Target) error {
	if err := validate.Struct(t); err != nil {
		return fmt.Errorf("target %q: %w", t.Name, err)
	}
	return t.validate()
}

// File is the YAML layout of a target file.
//
//	targets:
//	  - name: cortex-m4
//	    default: aapcs
//	    standard: 20
//	    conventions:
//	      - name: aapcs-vfp
//	        placement: free
type File struct {
	Targets []*Target `yaml:"targets"`
}

// ParseFile decodes and validates target definitions. Convention names may
// use any spelling ParseConvention accepts.
func ParseFile(data []byte) ([]*Target, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse target file: %w", err)
	}
	if len(f.Targets) == 0 {
		return nil, fmt.Errorf("invalid target file: no targets")
	}
	for i, t := range f.Targets {
		if t == nil {
			return nil, fmt.Errorf("invalid target file: empty target at index %d", i)
		}
		setDefaults(t)
		if err := canonicalize(t); err != nil {
			return nil, err
		}
		if err := Validate(t); err != nil {
			return nil, err
		}
	}
	return f.Targets, nil
}

// LoadFile reads a target file and registers its targets in r.
func (r *Registry) LoadFile(path string) ([]*Target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read target file: %w", err)
	}
	targets, err := ParseFile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for _, t := range targets {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return targets, nil
}

func setDefaults(t *Target) {
	if t.Standard == 0 {
		t.Standard = CXX17
	}
}

func canonicalize(t *Target) error {
	conv := func(c *ctype.Convention) error {
		v, ok := ctype.ParseConvention(string(*c))
		if !ok {
			return fmt.Errorf("target %s: unknown calling convention %q", t.Name, *c)
		}
		*c = v
		return nil
	}
	if err := conv(&t.Default); err != nil {
		return err
	}
	if err := conv(&t.MemberDefault); err != nil {
		return err
	}
	for i := range t.Conventions {
		if err := conv(&t.Conventions[i].Convention); err != nil {
			return err
		}
	}
	return nil
}
