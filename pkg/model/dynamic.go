package model

import "fmt"

// Dynamic holds either a literal value or a function computing it from In.
// The zero value is the literal zero of T.
type Dynamic[T any, In any] struct {
	literal T
	compute func(In) T
}

// Literal wraps a fixed value.
func Literal[T any, In any](value T) Dynamic[T, In] {
	return Dynamic[T, In]{literal: value}
}

// Computed wraps a function evaluated on every Resolve call. Results are
// never cached because the inputs (answers) may have just changed.
func Computed[T any, In any](fn func(In) T) Dynamic[T, In] {
	return Dynamic[T, In]{compute: fn}
}

// IsComputed reports whether the value comes from a function.
func (d Dynamic[T, In]) IsComputed() bool {
	return d.compute != nil
}

// LiteralValue returns the literal part, ignoring any function.
func (d Dynamic[T, In]) LiteralValue() T {
	return d.literal
}

// Resolve returns the literal or invokes the function. A panicking function
// yields the zero value of T and a *PanicError.
func (d Dynamic[T, In]) Resolve(in In) (T, error) {
	if d.compute == nil {
		return d.literal, nil
	}
	fn := d.compute
	return SafeCall(func() T { return fn(in) })
}

// SafeCall invokes fn inside a recover boundary.
func SafeCall[T any](fn func() T) (out T, err error) {
	if fn == nil {
		return out, nil
	}
	defer func() {
		if r := recover(); r != nil {
			var zero T
			out = zero
			err = &PanicError{Recovered: r}
		}
	}()
	return fn(), nil
}

// PanicError reports a user supplied function that panicked.
type PanicError struct {
	Recovered any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("model: rule function panicked: %v", e.Recovered)
}

// Required returns a literal required flag.
func Required(required bool) Flag {
	return Literal[bool, Scope](required)
}

// RequiredWhen returns a computed required flag.
func RequiredWhen(fn func(Scope) bool) Flag {
	return Computed[bool, Scope](fn)
}

// TextFunc returns a computed display string.
func TextFunc(fn func(translations map[string]string) string) Text {
	return Computed[string, map[string]string](fn)
}
