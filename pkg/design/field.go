package design

// Field is a raw user-entered value together with the verdict of upstream
// field validation (an entry widget, a flag parser, a request decoder).
// Mutations reject any Field whose Valid flag is false.
type Field[T any] struct {
	Value T
	Valid bool
}

// Valid wraps v as a valid field.
func Valid[T any](v T) Field[T] {
	return Field[T]{Value: v, Valid: true}
}

// Invalid returns a field that failed upstream validation.
func Invalid[T any]() Field[T] {
	return Field[T]{}
}

// Const is a valid activation constant.
func Const(v float64) Field[*float64] {
	return Valid(&v)
}

// NoConst is a valid, empty activation constant.
func NoConst() Field[*float64] {
	return Valid[*float64](nil)
}

// RangeInput carries the three initialisation fields of a synapse.
type RangeInput struct {
	Interval Field[float64]
	Min      Field[float64]
	Max      Field[float64]
}

// Range is a RangeInput with all three fields valid.
func Range(interval, min, max float64) RangeInput {
	return RangeInput{Interval: Valid(interval), Min: Valid(min), Max: Valid(max)}
}
