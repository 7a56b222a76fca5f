package attrs

import (
	"fmt"
	"log/slog"
)

// DefaultIterations is the PBKDF2 iteration count used when neither the
// store nor an override supplies one.
const DefaultIterations uint32 = 10000

// NoTruncation is the historical sentinel for "do not truncate". It only
// appears at the edges (decoding, CLI flags); inside the program an unset
// Truncation means the same thing.
const NoTruncation int32 = -1

// AttributeSet holds the tunable generation parameters for one domain.
//
// The zero value is the default AttributeSet: no domain, no iteration count,
// no truncation and special characters allowed. SuppressSpecialChars is
// stored negated so that the zero value stays the default.
//
// Set Truncation through WithTruncation. Assigning Some(NoTruncation)
// directly encodes as "-1", which decodes back to unset, so the set would
// not survive a round trip.
type AttributeSet struct {
	Domain               Opt[string]
	Iterations           Opt[uint32]
	Truncation           Opt[int32]
	SuppressSpecialChars bool
}

// Default returns the default AttributeSet.
func Default() AttributeSet {
	return AttributeSet{}
}

// Exist reports whether any field differs from the default.
// An AttributeSet for which Exist is false represents "no override".
func (a AttributeSet) Exist() bool {
	return a != AttributeSet{}
}

// AllowSpecialChars reports whether the output may use the special
// character alphabet.
func (a AttributeSet) AllowSpecialChars() bool {
	return !a.SuppressSpecialChars
}

// Equal reports field-wise equality. A field set to a value is never equal
// to the same field left unset, even if the value matches a default.
func (a AttributeSet) Equal(other AttributeSet) bool {
	return a == other
}

// TruncationLength returns the truncation as an int32, NoTruncation when
// unset.
func (a AttributeSet) TruncationLength() int32 {
	return a.Truncation.Or(NoTruncation)
}

// WithTruncation returns a copy with the truncation set to n. The
// NoTruncation sentinel clears the field.
func (a AttributeSet) WithTruncation(n int32) AttributeSet {
	if n == NoTruncation {
		a.Truncation = None[int32]()
	} else {
		a.Truncation = Some(n)
	}
	return a
}

// String renders the set for logs and text output.
func (a AttributeSet) String() string {
	domain, _ := a.Domain.Get()
	iter := "-"
	if n, ok := a.Iterations.Get(); ok {
		iter = fmt.Sprint(n)
	}
	trunc := "-"
	if n, ok := a.Truncation.Get(); ok {
		trunc = fmt.Sprint(n)
	}
	return fmt.Sprintf("domain=%q iterations=%s truncation=%s special=%t",
		domain, iter, trunc, a.AllowSpecialChars())
}

// LogValue implements slog.LogValuer.
func (a AttributeSet) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, 4)
	if d, ok := a.Domain.Get(); ok {
		attrs = append(attrs, slog.String("domain", d))
	}
	if n, ok := a.Iterations.Get(); ok {
		attrs = append(attrs, slog.Any("iterations", n))
	}
	if n, ok := a.Truncation.Get(); ok {
		attrs = append(attrs, slog.Any("truncation", n))
	}
	attrs = append(attrs, slog.Bool("special", a.AllowSpecialChars()))
	return slog.GroupValue(attrs...)
}
