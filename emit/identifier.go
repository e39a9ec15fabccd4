package emit

import (
	"fmt"
	"unicode"
)

// C++ keywords and alternative tokens that cannot name an alias.
var reservedWords = map[string]bool{
	"alignas": true, "alignof": true, "and": true, "and_eq": true, "asm": true,
	"auto": true, "bitand": true, "bitor": true, "bool": true, "break": true,
	"case": true, "catch": true, "char": true, "char8_t": true, "char16_t": true,
	"char32_t": true, "class": true, "compl": true, "concept": true, "const": true,
	"consteval": true, "constexpr": true, "constinit": true, "const_cast": true,
	"continue": true, "co_await": true, "co_return": true, "co_yield": true,
	"decltype": true, "default": true, "delete": true, "do": true, "double": true,
	"dynamic_cast": true, "else": true, "enum": true, "explicit": true,
	"export": true, "extern": true, "false": true, "float": true, "for": true,
	"friend": true, "goto": true, "if": true, "inline": true, "int": true,
	"long": true, "mutable": true, "namespace": true, "new": true,
	"noexcept": true, "not": true, "not_eq": true, "nullptr": true,
	"operator": true, "or": true, "or_eq": true, "private": true,
	"protected": true, "public": true, "register": true,
	"reinterpret_cast": true, "requires": true, "return": true, "short": true,
	"signed": true, "sizeof": true, "static": true, "static_assert": true,
	"static_cast": true, "struct": true, "switch": true, "template": true,
	"this": true, "thread_local": true, "throw": true, "true": true, "try": true,
	"typedef": true, "typeid": true, "typename": true, "union": true,
	"unsigned": true, "using": true, "virtual": true, "void": true,
	"volatile": true, "wchar_t": true, "while": true, "xor": true, "xor_eq": true,
}

// ValidIdentifier reports why name cannot be used as a C++ identifier, or
// nil if it can.
func ValidIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier is empty")
	}
	for i, r := range name {
		switch {
		case r == '_', r < unicode.MaxASCII && unicode.IsLetter(r):
		case i > 0 && r < unicode.MaxASCII && unicode.IsDigit(r):
		default:
			return fmt.Errorf("identifier %q contains invalid character %q", name, r)
		}
	}
	if reservedWords[name] {
		return fmt.Errorf("identifier %q is a reserved word", name)
	}
	// Names beginning with an underscore and an uppercase letter, or
	// containing a double underscore, belong to the implementation.
	if len(name) >= 2 && name[0] == '_' && unicode.IsUpper(rune(name[1])) {
		return fmt.Errorf("identifier %q is reserved for the implementation", name)
	}
	for i := 0; i+1 < len(name); i++ {
		if name[i] == '_' && name[i+1] == '_' {
			return fmt.Errorf("identifier %q is reserved for the implementation", name)
		}
	}
	return nil
}

// ValidNamespace checks a possibly nested namespace name such as "a::b".
func ValidNamespace(ns string) error {
	start := 0
	for i := 0; i <= len(ns); i++ {
		if i < len(ns) && !(ns[i] == ':' && i+1 < len(ns) && ns[i+1] == ':') {
			continue
		}
		if err := ValidIdentifier(ns[start:i]); err != nil {
			return fmt.Errorf("namespace %q: %w", ns, err)
		}
		i++
		start = i + 1
	}
	return nil
}
