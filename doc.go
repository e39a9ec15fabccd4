// Package fntraits decomposes and synthesises C++ function types.
//
// A callable type (function, pointer or reference to function, pointer to
// member function, or a class with one call operator) is decomposed into a
// [Descriptor] holding its return type, parameters, variadic marker, member
// qualification, exception specification, calling convention and enclosing
// class. [Engine.Synthesize] is the inverse: it applies [Override] values to a
// descriptor and builds the canonical type of the resulting shape.
//
// Every shape belongs to exactly one entry of the target's catalog (package
// shape). A shape the target does not have is an error, never a best guess:
//
//	t := ctype.MustParse("double(int, float)")
//	n, _ := fntraits.ArgCount(t)               // 2
//	u, _ := fntraits.WithArg(t, 1, ctype.Char) // double(int, char)
//	_, err := fntraits.ArgType(t, 2)           // index_out_of_range
//
// Types are values of package ctype; [ctype.Parse] reads C++ spellings.
// Engines are bound to a target from package platform; the package-level
// functions use [Default], bound to the host target.
package fntraits
