// Package platform describes compilation targets: which calling conventions
// exist, how they combine with variadic and member functions, and whether the
// exception specification is part of a function type.
package platform

import (
	"fmt"
	"runtime"
	"sort"

	"github.com/broady/fntraits/ctype"
)

// Placement restricts a calling convention to free or member functions.
type Placement string

const (
	PlaceBoth   Placement = "both"
	PlaceFree   Placement = "free"
	PlaceMember Placement = "member"
)

// Allows reports whether a function with the given member status may use a
// convention with this placement.
func (p Placement) Allows(member bool) bool {
	switch p {
	case PlaceFree:
		return !member
	case PlaceMember:
		return member
	default:
		return true
	}
}

// Standard is the C++ language standard year suffix (11, 14, 17, 20, 23).
type Standard int

const (
	CXX11 Standard = 11
	CXX14 Standard = 14
	CXX17 Standard = 17
	CXX20 Standard = 20
	CXX23 Standard = 23
)

// NoexceptInType reports whether noexcept is part of the function type.
func (s Standard) NoexceptInType() bool { return s >= CXX17 }

func (s Standard) String() string { return fmt.Sprintf("C++%d", int(s)) }

// ConventionRule describes a named calling convention available on a target
// in addition to its default convention.
type ConventionRule struct {
	Convention ctype.Convention `yaml:"name" validate:"required"`
	Variadic   bool             `yaml:"variadic"`
	Placement  Placement        `yaml:"placement" validate:"omitempty,oneof=both free member"`
}

func (r ConventionRule) placement() Placement {
	if r.Placement == "" {
		return PlaceBoth
	}
	return r.Placement
}

// Target is one compilation target.
type Target struct {
	Name        string `yaml:"name" validate:"required"`
	Description string `yaml:"description"`

	// Default is the named convention that unannotated free functions use.
	// Spelling it explicitly produces the same type. Empty when the target
	// has no name for its default.
	Default ctype.Convention `yaml:"default"`

	// MemberDefault is the default for member functions. Empty means Default.
	MemberDefault ctype.Convention `yaml:"memberDefault"`

	// MemberDefaultVariadic reports whether variadic member functions also
	// use MemberDefault. When false they fall back to Default, as MSVC does
	// for __thiscall.
	MemberDefaultVariadic bool `yaml:"memberDefaultVariadic"`

	Standard Standard `yaml:"standard" validate:"oneof=11 14 17 20 23"`

	// Conventions lists the named conventions other than the default.
	Conventions []ConventionRule `yaml:"conventions" validate:"dive"`
}

// DefaultFor returns the named default convention for a free or member
// function, variadic or not.
func (t *Target) DefaultFor(member, variadic bool) ctype.Convention {
	if member && t.MemberDefault != ctype.ConvDefault && (!variadic || t.MemberDefaultVariadic) {
		return t.MemberDefault
	}
	return t.Default
}

// Normalize folds an explicit spelling of the default convention into
// ctype.ConvDefault. Other conventions are returned unchanged.
func (t *Target) Normalize(c ctype.Convention, member, variadic bool) ctype.Convention {
	if c != ctype.ConvDefault && c == t.DefaultFor(member, variadic) {
		return ctype.ConvDefault
	}
	return c
}

// Rule returns the rule for a named non-default convention.
func (t *Target) Rule(c ctype.Convention) (ConventionRule, bool) {
	for _, r := range t.Conventions {
		if r.Convention == c {
			r.Placement = r.placement()
			return r, true
		}
	}
	return ConventionRule{}, false
}

// NoexceptInType reports whether the target's standard makes noexcept part of
// function types.
func (t *Target) NoexceptInType() bool { return t.Standard.NoexceptInType() }

func (t *Target) String() string { return t.Name }

// validate checks what struct tags cannot express.
func (t *Target) validate() error {
	for _, c := range []ctype.Convention{t.Default, t.MemberDefault} {
		if !c.Known() {
			return fmt.Errorf("target %s: unknown default convention %q", t.Name, c)
		}
	}
	seen := map[ctype.Convention]bool{}
	for _, r := range t.Conventions {
		if !r.Convention.Known() || r.Convention == ctype.ConvDefault {
			return fmt.Errorf("target %s: unknown calling convention %q", t.Name, r.Convention)
		}
		place := r.placement()
		if (r.Convention == t.DefaultFor(false, false) && place.Allows(false)) ||
			(r.Convention == t.DefaultFor(true, false) && place.Allows(true)) ||
			(r.Variadic && r.Convention == t.DefaultFor(true, true) && place.Allows(true)) {
			return fmt.Errorf("target %s: convention %s is already the default", t.Name, r.Convention)
		}
		if seen[r.Convention] {
			return fmt.Errorf("target %s: convention %s listed twice", t.Name, r.Convention)
		}
		seen[r.Convention] = true
	}
	return nil
}

// Built-in target names.
const (
	X86Windows   = "x86-windows-msvc"
	X8664Windows = "x86_64-windows-msvc"
	X86Linux     = "x86-linux-gnu"
	X8664Linux   = "x86_64-linux-gnu"
	ARMLinux     = "arm-linux-gnueabihf"
	AArch64Linux = "aarch64-linux-gnu"
	Generic      = "generic"
	GenericCXX14 = "generic-c++14"
)

var builtin = []*Target{
	{
		Name:          X86Windows,
		Description:   "32-bit Windows, MSVC",
		Default:       ctype.ConvCdecl,
		MemberDefault: ctype.ConvThiscall,
		Standard:      CXX17,
		Conventions: []ConventionRule{
			{Convention: ctype.ConvCdecl, Placement: PlaceMember},
			{Convention: ctype.ConvStdcall, Placement: PlaceBoth},
			{Convention: ctype.ConvFastcall, Placement: PlaceBoth},
			{Convention: ctype.ConvVectorcall, Placement: PlaceBoth},
		},
	},
	{
		Name:        X8664Windows,
		Description: "64-bit Windows, MSVC",
		Default:     ctype.ConvCdecl,
		Standard:    CXX17,
		Conventions: []ConventionRule{
			{Convention: ctype.ConvVectorcall, Placement: PlaceBoth},
		},
	},
	{
		Name:        X86Linux,
		Description: "32-bit Linux, GCC",
		Default:     ctype.ConvCdecl,
		Standard:    CXX17,
		Conventions: []ConventionRule{
			{Convention: ctype.ConvStdcall, Placement: PlaceBoth},
			{Convention: ctype.ConvFastcall, Placement: PlaceBoth},
			{Convention: ctype.ConvThiscall, Placement: PlaceMember},
			{Convention: ctype.ConvRegcall, Placement: PlaceBoth},
		},
	},
	{
		Name:        X8664Linux,
		Description: "64-bit Linux, GCC",
		Default:     ctype.ConvSysVABI,
		Standard:    CXX17,
		Conventions: []ConventionRule{
			{Convention: ctype.ConvMSABI, Variadic: true, Placement: PlaceBoth},
		},
	},
	{
		Name:        ARMLinux,
		Description: "32-bit ARM Linux, hard-float ABI",
		Default:     ctype.ConvAAPCSVFP,
		Standard:    CXX17,
		Conventions: []ConventionRule{
			{Convention: ctype.ConvAAPCS, Variadic: true, Placement: PlaceBoth},
		},
	},
	{
		Name:        AArch64Linux,
		Description: "64-bit ARM Linux",
		Standard:    CXX17,
	},
	{
		Name:        Generic,
		Description: "default convention only",
		Standard:    CXX17,
	},
	{
		Name:        GenericCXX14,
		Description: "default convention only, noexcept outside the type system",
		Standard:    CXX14,
	},
}

// Builtin returns the built-in targets sorted by name.
func Builtin() []*Target {
	out := append([]*Target(nil), builtin...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// HostName returns the name of the built-in target closest to the running
// process.
func HostName() string {
	return hostName(runtime.GOOS, runtime.GOARCH)
}

func hostName(goos, goarch string) string {
	switch goos + "/" + goarch {
	case "windows/386":
		return X86Windows
	case "windows/amd64":
		return X8664Windows
	case "linux/386":
		return X86Linux
	case "linux/amd64":
		return X8664Linux
	case "linux/arm":
		return ARMLinux
	case "linux/arm64":
		return AArch64Linux
	}
	return Generic
}
