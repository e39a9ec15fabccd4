package ctype

import "sort"

// Convention is a calling-convention tag attached to a function type.
// The zero value is the target's default convention and has no spelling.
type Convention string

const (
	ConvDefault    Convention = ""
	ConvCdecl      Convention = "cdecl"
	ConvStdcall    Convention = "stdcall"
	ConvFastcall   Convention = "fastcall"
	ConvThiscall   Convention = "thiscall"
	ConvVectorcall Convention = "vectorcall"
	ConvRegcall    Convention = "regcall"
	ConvMSABI      Convention = "ms_abi"
	ConvSysVABI    Convention = "sysv_abi"
	ConvAAPCS      Convention = "aapcs"
	ConvAAPCSVFP   Convention = "aapcs_vfp"
)

// conventionSpelling maps every known convention to its declarator keyword.
var conventionSpelling = map[Convention]string{
	ConvCdecl:      "__cdecl",
	ConvStdcall:    "__stdcall",
	ConvFastcall:   "__fastcall",
	ConvThiscall:   "__thiscall",
	ConvVectorcall: "__vectorcall",
	ConvRegcall:    "__regcall",
	ConvMSABI:      "__attribute__((ms_abi))",
	ConvSysVABI:    "__attribute__((sysv_abi))",
	ConvAAPCS:      `__attribute__((pcs("aapcs")))`,
	ConvAAPCSVFP:   `__attribute__((pcs("aapcs-vfp")))`,
}

// keywordConvention maps the keyword forms accepted by the parser.
var keywordConvention = map[string]Convention{
	"__cdecl":      ConvCdecl,
	"_cdecl":       ConvCdecl,
	"__stdcall":    ConvStdcall,
	"_stdcall":     ConvStdcall,
	"__fastcall":   ConvFastcall,
	"_fastcall":    ConvFastcall,
	"__thiscall":   ConvThiscall,
	"__vectorcall": ConvVectorcall,
	"__regcall":    ConvRegcall,
}

// attributeConvention maps GNU attribute names to conventions.
var attributeConvention = map[string]Convention{
	"cdecl":      ConvCdecl,
	"stdcall":    ConvStdcall,
	"fastcall":   ConvFastcall,
	"thiscall":   ConvThiscall,
	"vectorcall": ConvVectorcall,
	"regcall":    ConvRegcall,
	"ms_abi":     ConvMSABI,
	"sysv_abi":   ConvSysVABI,
}

// Spelling returns the declarator keyword for c, or "" for the default.
func (c Convention) Spelling() string {
	return conventionSpelling[c]
}

// Known reports whether c is the default or one of the named conventions.
func (c Convention) Known() bool {
	if c == ConvDefault {
		return true
	}
	_, ok := conventionSpelling[c]
	return ok
}

func (c Convention) String() string {
	if c == ConvDefault {
		return "default"
	}
	return string(c)
}

// ParseConvention accepts a convention name ("stdcall"), a keyword
// ("__stdcall") or "default".
func ParseConvention(s string) (Convention, bool) {
	switch s {
	case "", "default":
		return ConvDefault, true
	case "aapcs-vfp":
		return ConvAAPCSVFP, true
	}
	if c, ok := keywordConvention[s]; ok {
		return c, true
	}
	c := Convention(s)
	if _, ok := conventionSpelling[c]; ok {
		return c, true
	}
	return ConvDefault, false
}

// Conventions returns every named convention in sorted order.
func Conventions() []Convention {
	out := make([]Convention, 0, len(conventionSpelling))
	for c := range conventionSpelling {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
