package common

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// Wrap returns i modulo n, always in [0, n). Returns 0 when n <= 0.
//
// Parameters:
//   - i: the index to wrap (may be negative)
//   - n: the length of the range
//
// Returns:
//   - int: the wrapped index
func Wrap(i, n int) int {
	if n <= 0 {
		return 0
	}
	return ((i % n) + n) % n
}
