// Package directive parses //fntraits: comment directives from Go source.
//
// Directives annotate functions and methods with properties Go signatures
// cannot carry:
//
//	//fntraits:noexcept
//	//fntraits:convention stdcall
//	//fntraits:skip
//
// A directive must appear in the doc comment of a function declaration.
package directive

import (
	"fmt"
	"go/ast"
	"go/token"
	"strings"

	"github.com/broady/fntraits/ctype"
)

const prefix = "//fntraits:"

// Directive is the set of annotations attached to one declaration.
type Directive struct {
	Noexcept   bool
	Convention ctype.Convention
	Skip       bool

	Pos token.Position
}

// Apply copies the annotations onto fn.
func (d Directive) Apply(fn *ctype.Function) {
	if d.Noexcept {
		fn.Noexcept = true
	}
	if d.Convention != ctype.ConvDefault {
		fn.Convention = d.Convention
	}
}

// Set maps declaration keys to their directives. Functions are keyed by
// name, methods by "Type.Method".
type Set map[string]Directive

// Lookup returns the directive for key.
func (s Set) Lookup(key string) (Directive, bool) {
	d, ok := s[key]
	return d, ok
}

// Key returns the Set key of a function declaration.
func Key(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return fn.Name.Name
	}
	return receiverName(fn.Recv.List[0].Type) + "." + fn.Name.Name
}

func receiverName(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.StarExpr:
		return receiverName(e.X)
	case *ast.ParenExpr:
		return receiverName(e.X)
	case *ast.IndexExpr:
		return receiverName(e.X)
	case *ast.IndexListExpr:
		return receiverName(e.X)
	case *ast.Ident:
		return e.Name
	}
	return ""
}

// Parse collects the directives declared in files. Files must have been
// parsed with parser.ParseComments.
func Parse(fset *token.FileSet, files []*ast.File) (Set, error) {
	set := Set{}
	for _, file := range files {
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Doc == nil {
				continue
			}
			d, found, err := parseGroup(fset, fn.Doc)
			if err != nil {
				return nil, err
			}
			if found {
				d.Pos = fset.Position(fn.Pos())
				set[Key(fn)] = d
			}
		}
		if err := checkStray(fset, file); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func parseGroup(fset *token.FileSet, cg *ast.CommentGroup) (Directive, bool, error) {
	var d Directive
	found := false
	for _, c := range cg.List {
		if !strings.HasPrefix(c.Text, prefix) {
			continue
		}
		found = true
		pos := fset.Position(c.Pos())
		fields := strings.Fields(strings.TrimPrefix(c.Text, prefix))
		if len(fields) == 0 {
			return d, false, fmt.Errorf("%s: empty directive", pos)
		}
		switch fields[0] {
		case "noexcept":
			if len(fields) != 1 {
				return d, false, fmt.Errorf("%s: noexcept takes no arguments", pos)
			}
			d.Noexcept = true
		case "skip":
			if len(fields) != 1 {
				return d, false, fmt.Errorf("%s: skip takes no arguments", pos)
			}
			d.Skip = true
		case "convention":
			if len(fields) != 2 {
				return d, false, fmt.Errorf("%s: convention requires exactly one name", pos)
			}
			conv, ok := ctype.ParseConvention(fields[1])
			if !ok {
				return d, false, fmt.Errorf("%s: unknown calling convention %q", pos, fields[1])
			}
			if d.Convention != ctype.ConvDefault && d.Convention != conv {
				return d, false, fmt.Errorf("%s: conflicting conventions %s and %s", pos, d.Convention, conv)
			}
			d.Convention = conv
		default:
			return d, false, fmt.Errorf("%s: unknown directive %q", pos, fields[0])
		}
	}
	return d, found, nil
}

// checkStray reports directives that are not part of a function's doc
// comment.
func checkStray(fset *token.FileSet, file *ast.File) error {
	attached := map[*ast.CommentGroup]bool{}
	for _, decl := range file.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok && fn.Doc != nil {
			attached[fn.Doc] = true
		}
	}
	for _, cg := range file.Comments {
		if attached[cg] {
			continue
		}
		for _, c := range cg.List {
			if strings.HasPrefix(c.Text, prefix) {
				return fmt.Errorf("%s: directive must be attached to a function declaration", fset.Position(c.Pos()))
			}
		}
	}
	return nil
}
