package slice

// Map applies f to each element of list and returns the results in order.
func Map[T, R any](list []T, f func(t T) R) []R {
	output := make([]R, 0, len(list))
	for idx := range list {
		output = append(output, f(list[idx]))
	}

	return output
}

// Filter returns the elements of list for which keep returns true.
func Filter[T any](list []T, keep func(v T) bool) []T {
	output := make([]T, 0, len(list))
	for _, v := range list {
		if keep(v) {
			output = append(output, v)
		}
	}

	return output
}

// Find returns the first element satisfying f.
func Find[T any](list []T, f func(t T) bool) (T, bool) {
	var zero T
	for idx := range list {
		if f(list[idx]) {
			return list[idx], true
		}
	}

	return zero, false
}

// Count returns how many elements satisfy f.
func Count[T any](list []T, f func(t T) bool) int {
	var n int
	for idx := range list {
		if f(list[idx]) {
			n++
		}
	}

	return n
}
