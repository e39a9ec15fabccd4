package emit

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/broady/fntraits"
	"github.com/broady/fntraits/ctype"
	"github.com/broady/fntraits/platform"
)

func genericEngine(t *testing.T) *fntraits.Engine {
	t.Helper()
	target, ok := platform.Lookup(platform.Generic)
	if !ok {
		t.Fatal("generic target missing")
	}
	return fntraits.NewEngine(
		fntraits.WithTarget(target),
		fntraits.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func TestHeader_Minimal(t *testing.T) {
	e, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}
	got, err := e.Header([]Alias{
		{Name: "Callback", Type: ctype.MustParse("void (*)(int)")},
		{Name: "Binary", Type: ctype.MustParse("double(double, double)")},
	})
	if err != nil {
		t.Fatal(err)
	}
	want := `#pragma once

using Callback = void (*)(int);

using Binary = double(double, double);
`
	if string(got) != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestHeader_Full(t *testing.T) {
	eng := genericEngine(t)
	typ := ctype.MustParse("int (Widget::*)(int, char) const noexcept")
	d, err := eng.Decompose(typ)
	if err != nil {
		t.Fatal(err)
	}

	e, err := New(Config{
		Namespace:    "app::sig",
		Guard:        "APP_SIG_H",
		Banner:       Banner("fntraits gen", eng.Target()),
		EmitComments: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	got, err := e.Header([]Alias{{
		Name:       "Measure",
		Type:       typ,
		Doc:        "Measure computes a width.\n\nIt never throws.",
		Descriptor: d,
	}})
	if err != nil {
		t.Fatal(err)
	}

	want := fmt.Sprintf(`// Code generated by fntraits gen. DO NOT EDIT.
// Target: generic (C++17)

#ifndef APP_SIG_H
#define APP_SIG_H

namespace app::sig {

// Measure computes a width.
//
// It never throws.
// %s (#%d): returns int; args (int, char); class Widget; qualifiers const; noexcept
using Measure = int (Widget::*)(int, char) const noexcept;

}  // namespace app::sig

#endif  // APP_SIG_H
`, d.Entry().Name(), d.Entry().Ordinal)
	if string(got) != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestHeader_CRLF(t *testing.T) {
	e, err := New(Config{LineEnding: "crlf"})
	if err != nil {
		t.Fatal(err)
	}
	got, err := e.Header([]Alias{{Name: "F", Type: ctype.Func(ctype.Void)}})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(string(got), "\r\n") != strings.Count(string(got), "\n") {
		t.Errorf("not every line ends in CRLF: %q", got)
	}
}

func TestHeader_Errors(t *testing.T) {
	e, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name    string
		aliases []Alias
	}{
		{"keyword", []Alias{{Name: "class", Type: ctype.Int}}},
		{"invalid char", []Alias{{Name: "my-alias", Type: ctype.Int}}},
		{"leading digit", []Alias{{Name: "1st", Type: ctype.Int}}},
		{"reserved", []Alias{{Name: "_Handler", Type: ctype.Int}}},
		{"double underscore", []Alias{{Name: "a__b", Type: ctype.Int}}},
		{"duplicate", []Alias{{Name: "F", Type: ctype.Int}, {Name: "F", Type: ctype.Int}}},
		{"nil type", []Alias{{Name: "F"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.Header(tt.aliases); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNew_Errors(t *testing.T) {
	for _, cfg := range []Config{
		{Namespace: "a::"},
		{Namespace: "::a"},
		{Namespace: "a:b"},
		{Namespace: "namespace"},
		{Guard: "MY-GUARD"},
		{LineEnding: "cr"},
	} {
		if _, err := New(cfg); err == nil {
			t.Errorf("New(%+v) should fail", cfg)
		}
	}
	if _, err := New(Config{Namespace: "a::b::c", Guard: "A_B_C_H"}); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestSummary(t *testing.T) {
	eng := genericEngine(t)
	tests := []struct {
		typ  string
		want string
	}{
		{"void()", "returns void; no args"},
		{"int(const char*, ...)", "returns int; args (const char*, ...)"},
		{"void (C::*)(int) &&", "returns void; args (int); class C; qualifiers &&"},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			d, err := eng.Decompose(ctype.MustParse(tt.typ))
			if err != nil {
				t.Fatal(err)
			}
			got := Summary(d)
			prefix := fmt.Sprintf("%s (#%d): ", d.Entry().Name(), d.Entry().Ordinal)
			if got != prefix+tt.want {
				t.Errorf("Summary = %q, want %q", got, prefix+tt.want)
			}
		})
	}
}
