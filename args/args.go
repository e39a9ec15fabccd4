// Package args implements positional operations on parameter sequences.
//
// Every function returns a new slice and leaves its input untouched.
package args

import (
	"errors"
	"fmt"
)

// ErrPosition is matched by every position error returned by this package.
var ErrPosition = errors.New("position out of range")

// PositionError reports a position outside the valid range [0, Max].
type PositionError struct {
	Op  string
	Pos int
	Max int // inclusive upper bound
	Len int
}

func (e *PositionError) Error() string {
	if e.Max < 0 {
		return fmt.Sprintf("%s: position %d out of range for empty sequence", e.Op, e.Pos)
	}
	return fmt.Sprintf("%s: position %d out of range [0, %d]", e.Op, e.Pos, e.Max)
}

// Is makes errors.Is(err, ErrPosition) succeed.
func (e *PositionError) Is(target error) bool { return target == ErrPosition }

func checkPos(op string, pos, max, n int) error {
	if pos < 0 || pos > max {
		return &PositionError{Op: op, Pos: pos, Max: max, Len: n}
	}
	return nil
}

// At returns list[pos] for pos in [0, len).
func At[T any](list []T, pos int) (T, error) {
	if err := checkPos("at", pos, len(list)-1, len(list)); err != nil {
		var zero T
		return zero, err
	}
	return list[pos], nil
}

// Slice returns a copy of list[from:to] for 0 <= from <= to <= len.
func Slice[T any](list []T, from, to int) ([]T, error) {
	if err := checkPos("slice", from, len(list), len(list)); err != nil {
		return nil, err
	}
	if err := checkPos("slice", to, len(list), len(list)); err != nil {
		return nil, err
	}
	if from > to {
		return nil, fmt.Errorf("slice: %w: from %d is after to %d", ErrPosition, from, to)
	}
	return append([]T(nil), list[from:to]...), nil
}

// InsertAt returns list with v inserted before position pos, for pos in
// [0, len]. Later elements shift right.
func InsertAt[T any](list []T, pos int, v T) ([]T, error) {
	if err := checkPos("insert", pos, len(list), len(list)); err != nil {
		return nil, err
	}
	out := make([]T, 0, len(list)+1)
	out = append(out, list[:pos]...)
	out = append(out, v)
	return append(out, list[pos:]...), nil
}

// RemoveAt returns list without the element at pos, for pos in [0, len).
func RemoveAt[T any](list []T, pos int) ([]T, error) {
	if err := checkPos("remove", pos, len(list)-1, len(list)); err != nil {
		return nil, err
	}
	out := make([]T, 0, len(list)-1)
	out = append(out, list[:pos]...)
	return append(out, list[pos+1:]...), nil
}

// SetAt returns list with the element at pos replaced by v, for pos in
// [0, len).
func SetAt[T any](list []T, pos int, v T) ([]T, error) {
	if err := checkPos("set", pos, len(list)-1, len(list)); err != nil {
		return nil, err
	}
	out := append([]T(nil), list...)
	out[pos] = v
	return out, nil
}

// Concat returns the concatenation of lists.
func Concat[T any](lists ...[]T) []T {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	out := make([]T, 0, n)
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
