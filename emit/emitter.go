// Package emit writes C++ headers declaring function type aliases.
package emit

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/broady/fntraits"
	"github.com/broady/fntraits/ctype"
	"github.com/broady/fntraits/platform"
)

// Alias is one `using` declaration.
type Alias struct {
	Name string
	Type ctype.Type

	// Doc is an optional comment emitted above the declaration.
	Doc string

	// Descriptor, if set, is summarised in a comment above the declaration.
	Descriptor *fntraits.Descriptor
}

// Config controls header layout.
type Config struct {
	// Namespace encloses the aliases; nested names use "::".
	Namespace string

	// Guard is the include-guard macro. If empty, #pragma once is used.
	Guard string

	// Banner lines are emitted as comments at the top of the header.
	Banner []string

	// EmitComments includes Doc and descriptor summaries.
	EmitComments bool

	// LineEnding is "lf" (default) or "crlf".
	LineEnding string
}

// Emitter renders aliases as a header.
type Emitter struct {
	config Config
}

// New returns an Emitter after checking cfg.
func New(cfg Config) (*Emitter, error) {
	if cfg.Namespace != "" {
		if err := ValidNamespace(cfg.Namespace); err != nil {
			return nil, err
		}
	}
	if cfg.Guard != "" {
		if err := ValidIdentifier(cfg.Guard); err != nil {
			return nil, fmt.Errorf("include guard: %w", err)
		}
	}
	switch cfg.LineEnding {
	case "", "lf", "crlf":
	default:
		return nil, fmt.Errorf("invalid line ending %q: must be lf or crlf", cfg.LineEnding)
	}
	return &Emitter{config: cfg}, nil
}

// Header renders a complete header declaring aliases in order.
func (e *Emitter) Header(aliases []Alias) ([]byte, error) {
	seen := make(map[string]bool, len(aliases))
	for _, a := range aliases {
		if err := ValidIdentifier(a.Name); err != nil {
			return nil, fmt.Errorf("alias %q: %w", a.Name, err)
		}
		if seen[a.Name] {
			return nil, fmt.Errorf("alias %q declared twice", a.Name)
		}
		seen[a.Name] = true
		if a.Type == nil {
			return nil, fmt.Errorf("alias %q has no type", a.Name)
		}
	}

	var buf bytes.Buffer
	for _, line := range e.config.Banner {
		buf.WriteString(comment(line))
	}
	if len(e.config.Banner) > 0 {
		buf.WriteString("\n")
	}

	if g := e.config.Guard; g != "" {
		fmt.Fprintf(&buf, "#ifndef %s\n#define %s\n\n", g, g)
	} else {
		buf.WriteString("#pragma once\n\n")
	}
	if ns := e.config.Namespace; ns != "" {
		fmt.Fprintf(&buf, "namespace %s {\n\n", ns)
	}

	for i, a := range aliases {
		if i > 0 {
			buf.WriteString("\n")
		}
		e.emitAlias(&buf, a)
	}

	if ns := e.config.Namespace; ns != "" {
		fmt.Fprintf(&buf, "\n}  // namespace %s\n", ns)
	}
	if g := e.config.Guard; g != "" {
		fmt.Fprintf(&buf, "\n#endif  // %s\n", g)
	}

	out := buf.Bytes()
	if e.config.LineEnding == "crlf" {
		out = bytes.ReplaceAll(out, []byte("\n"), []byte("\r\n"))
	}
	return out, nil
}

func (e *Emitter) emitAlias(buf *bytes.Buffer, a Alias) {
	if e.config.EmitComments {
		if a.Doc != "" {
			for _, line := range strings.Split(strings.TrimSpace(a.Doc), "\n") {
				buf.WriteString(comment(line))
			}
		}
		if a.Descriptor != nil {
			buf.WriteString(comment(Summary(a.Descriptor)))
		}
	}
	fmt.Fprintf(buf, "using %s = %s;\n", a.Name, ctype.Spell(a.Type))
}

func comment(line string) string {
	line = strings.TrimRight(line, " \t")
	if line == "" {
		return "//\n"
	}
	return "// " + line + "\n"
}

// Summary describes a decomposition on one line, e.g.
// "member_const (#5): returns int; args (int, char); class Widget".
func Summary(d *fntraits.Descriptor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (#%d): returns %s; ", d.Entry().Name(), d.Entry().Ordinal, ctype.Spell(d.ReturnType()))

	args := make([]string, 0, d.ArgCount()+1)
	for _, a := range d.Args() {
		args = append(args, ctype.Spell(a))
	}
	if d.IsVariadic() {
		args = append(args, "...")
	}
	if len(args) == 0 {
		b.WriteString("no args")
	} else {
		fmt.Fprintf(&b, "args (%s)", strings.Join(args, ", "))
	}

	if c := d.ClassType(); c != nil {
		fmt.Fprintf(&b, "; class %s", ctype.Spell(ctype.Named(c.Name, c.Args...)))
		if q := d.Qualifiers(); !q.IsZero() {
			fmt.Fprintf(&b, "; qualifiers %s", q)
		}
	}
	if d.IsNoexcept() {
		b.WriteString("; noexcept")
	}
	if cc := d.CallingConvention(); cc != ctype.ConvDefault {
		fmt.Fprintf(&b, "; convention %s", cc)
	}
	return b.String()
}

// Banner returns the standard banner for headers generated for target t.
func Banner(tool string, t *platform.Target) []string {
	return []string{
		fmt.Sprintf("Code generated by %s. DO NOT EDIT.", tool),
		fmt.Sprintf("Target: %s (%s)", t.Name, t.Standard),
	}
}
