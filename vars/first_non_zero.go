package vars

// FirstNonZero returns the first of values that is not the zero value, which gives earlier sources precedence.
func FirstNonZero[T comparable](values ...T) T {
	var zero T
	for _, value := range values {
		if value != zero {
			return value
		}
	}
	return zero
}
