package pool

import "sync"

// slicePool hands out reusable slices of T sized on demand.
type slicePool[T any] struct {
	p sync.Pool
}

func newSlicePool[T any]() *slicePool[T] {
	return &slicePool[T]{
		p: sync.Pool{New: func() any { return &[]T{} }},
	}
}

// get returns a slice of exactly size elements and the function that returns it
// to the pool. Contents are not zeroed when a pooled slice is reused.
func (sp *slicePool[T]) get(size int) ([]T, func()) {
	ptr, _ := sp.p.Get().(*[]T)
	if cap(*ptr) < size {
		*ptr = make([]T, size)
	} else {
		*ptr = (*ptr)[:size]
	}

	return *ptr, func() { sp.p.Put(ptr) }
}

var (
	int64Slices   = newSlicePool[int64]()
	float64Slices = newSlicePool[float64]()
	stringSlices  = newSlicePool[string]()
)

// GetInt64Slice returns a pooled int64 slice of length size and its release function.
//
//	timestamps, release := pool.GetInt64Slice(n)
//	defer release()
func GetInt64Slice(size int) ([]int64, func()) {
	return int64Slices.get(size)
}

// GetFloat64Slice returns a pooled float64 slice of length size and its release function.
func GetFloat64Slice(size int) ([]float64, func()) {
	return float64Slices.get(size)
}

// GetStringSlice returns a pooled string slice of length size and its release function.
func GetStringSlice(size int) ([]string, func()) {
	return stringSlices.get(size)
}
