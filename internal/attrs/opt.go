package attrs

// Opt is an explicitly optional value. The zero value is unset.
//
// Opt is comparable whenever T is, so an AttributeSet built from Opt fields
// can be compared with ==.
type Opt[T comparable] struct {
	value T
	set   bool
}

// Some returns a set Opt holding v.
func Some[T comparable](v T) Opt[T] {
	return Opt[T]{value: v, set: true}
}

// None returns an unset Opt.
func None[T comparable]() Opt[T] {
	return Opt[T]{}
}

// IsSet reports whether the value is present.
func (o Opt[T]) IsSet() bool {
	return o.set
}

// Get returns the value and whether it is present.
func (o Opt[T]) Get() (T, bool) {
	return o.value, o.set
}

// Or returns the value if present, otherwise fallback.
func (o Opt[T]) Or(fallback T) T {
	if o.set {
		return o.value
	}
	return fallback
}

// Equal reports whether both are unset, or both are set to the same value.
func (o Opt[T]) Equal(other Opt[T]) bool {
	return o == other
}
