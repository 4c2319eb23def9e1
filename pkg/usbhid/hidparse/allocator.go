package hidparse

// Allocator supplies the backing memory for a PreparsedData blob
// (spec.md 5, 6.1). Parsing itself works in ordinary Go slices; only the
// final packed blob goes through the allocator, so a caller pooling
// preparsed-data buffers (for repeated parses of the same device model,
// for example) only needs to implement this one seam.
type Allocator interface {
	// Alloc returns a zeroed buffer of exactly size bytes.
	Alloc(size int) ([]byte, error)
}

// defaultAllocator satisfies Allocator with plain Go heap allocations.
type defaultAllocator struct{}

func (defaultAllocator) Alloc(size int) ([]byte, error) {
	return make([]byte, size), nil
}

// AllocatorFunc adapts a plain function to the Allocator interface.
type AllocatorFunc func(size int) ([]byte, error)

func (f AllocatorFunc) Alloc(size int) ([]byte, error) {
	return f(size)
}
