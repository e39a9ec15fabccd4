package shape

import (
	"fmt"

	"github.com/broady/fntraits/ctype"
	"github.com/broady/fntraits/platform"
)

// Axis names one dimension of the shape space.
type Axis string

const (
	AxisQualifiers Axis = "qualifiers"
	AxisRef        Axis = "ref"
	AxisException  Axis = "exception"
	AxisConvention Axis = "convention"
)

// AbsentError explains why a key is not in a catalog.
type AbsentError struct {
	Key    Key
	Axis   Axis
	Reason string
}

func (e *AbsentError) Error() string { return e.Reason }

// check reports the first axis value that makes k illegal on t.
func check(t *platform.Target, k Key) *AbsentError {
	absent := func(axis Axis, format string, args ...any) *AbsentError {
		return &AbsentError{Key: k, Axis: axis, Reason: fmt.Sprintf(format, args...)}
	}
	if !k.Member && (k.Const || k.Volatile) {
		return absent(AxisQualifiers, "cv-qualifiers require a member function")
	}
	if !k.Member && k.Ref != ctype.RefNone {
		return absent(AxisRef, "ref-qualifier %s requires a member function", k.Ref.Token())
	}
	if k.Noexcept && !t.NoexceptInType() {
		return absent(AxisException, "noexcept is not part of the function type on %s (%s)", t.Name, t.Standard)
	}
	if k.Convention == ctype.ConvDefault {
		return nil
	}

	spelling := k.Convention.Spelling()
	if spelling == "" {
		spelling = string(k.Convention)
	}
	if k.Convention == t.DefaultFor(k.Member, k.Variadic) {
		return absent(AxisConvention, "calling convention %s is the default on %s and is keyed as the default", spelling, t.Name)
	}
	rule, ok := t.Rule(k.Convention)
	if !ok {
		if t.DefaultFor(true, false) == k.Convention {
			if !k.Member {
				return absent(AxisConvention, "calling convention %s requires a member function on %s", spelling, t.Name)
			}
			if k.Variadic {
				return absent(AxisConvention, "calling convention %s does not allow variadic functions on %s", spelling, t.Name)
			}
		}
		return absent(AxisConvention, "calling convention %s is not available on %s", spelling, t.Name)
	}
	if !rule.Placement.Allows(k.Member) {
		if k.Member {
			return absent(AxisConvention, "calling convention %s cannot be used on member functions on %s", spelling, t.Name)
		}
		return absent(AxisConvention, "calling convention %s requires a member function on %s", spelling, t.Name)
	}
	if k.Variadic && !rule.Variadic {
		return absent(AxisConvention, "calling convention %s does not allow variadic functions on %s", spelling, t.Name)
	}
	return nil
}
