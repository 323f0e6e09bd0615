// Package partition splits record sequences into the contiguous chunks
// handed to worker tasks.
package partition

// Chunk splits items into contiguous slices of length size, preserving order.
// The last slice may be shorter. A non-positive size yields a single chunk
// holding every item. The returned slices share the backing array of items
// but are capacity-clipped, so appending to one never overwrites the next.
func Chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 || size >= len(items) {
		return [][]T{items[:len(items):len(items)]}
	}

	chunks := make([][]T, 0, Count(len(items), size))
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end:end])
	}
	return chunks
}

// Count returns the number of chunks Chunk would produce for n items.
func Count(n, size int) int {
	if n <= 0 {
		return 0
	}
	if size <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// Bounds returns the half-open [start, end) range of chunk index within n
// items. ok is false when index is out of range.
func Bounds(n, size, index int) (start, end int, ok bool) {
	if index < 0 || index >= Count(n, size) {
		return 0, 0, false
	}
	if size <= 0 {
		return 0, n, true
	}
	start = index * size
	end = start + size
	if end > n {
		end = n
	}
	return start, end, true
}
