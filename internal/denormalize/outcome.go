package denormalize

// outcome is the result of one enrichment lookup: either a value, or a
// degraded result carrying the error that caused the fallback.
type outcome[T any] struct {
	value T
	err   error
}

func attempt[T any](value T, err error) outcome[T] {
	if err != nil {
		var zero T
		return outcome[T]{value: zero, err: err}
	}
	return outcome[T]{value: value}
}

func (o outcome[T]) degraded() bool {
	return o.err != nil
}

// or returns the value, or fallback when the lookup degraded.
func (o outcome[T]) or(fallback T) T {
	if o.degraded() {
		return fallback
	}
	return o.value
}
