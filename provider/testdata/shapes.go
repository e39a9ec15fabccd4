// Package testdata holds declarations for provider tests.
package testdata

import "io"

// Counter counts.
type Counter struct {
	n int
}

// Value returns the current count.
func (c Counter) Value() int { return c.n }

// Add increments the counter and returns the new value.
func (c *Counter) Add(delta int32) int { c.n += int(delta); return c.n }

// Reset zeroes the counter.
func (c *Counter) Reset() { c.n = 0 }

func (c *Counter) hidden() {}

// Named embeds Counter and inherits its methods.
type Named struct {
	Counter
	Label string
}

// String returns the label.
func (n Named) String() string { return n.Label }

// Divide returns the quotient and remainder.
func Divide(a, b int) (int, int, error) {
	return a / b, a % b, nil
}

// Sum adds its arguments.
func Sum(base float64, xs ...float64) float64 {
	for _, x := range xs {
		base += x
	}
	return base
}

// Apply calls f on every element.
func Apply(xs []string, f func(string) bool) map[string]bool {
	out := make(map[string]bool, len(xs))
	for _, x := range xs {
		out[x] = f(x)
	}
	return out
}

// Copy wraps io.Copy.
func Copy(dst io.Writer, src io.Reader) (int64, error) {
	return io.Copy(dst, src)
}

// Fanout uses a channel and has no C++ counterpart.
func Fanout(ch chan int) {}

// Pair is generic and skipped.
type Pair[K comparable, V any] struct {
	Key K
	Val V
}

func unexported() {}

// Notify is called from C with the stdcall convention.
//
//fntraits:noexcept
//fntraits:convention stdcall
func Notify(code int32) {}

// Debug is not part of the C++ surface.
//
//fntraits:skip
func Debug() {}

// Buffer holds bytes.
type Buffer struct {
	Counter
	data []byte
}

// Len returns the number of buffered bytes.
//
//fntraits:noexcept
func (b *Buffer) Len() int { return len(b.data) }

// Drain discards the buffer.
//
//fntraits:skip
func (b *Buffer) Drain() { b.data = nil }
