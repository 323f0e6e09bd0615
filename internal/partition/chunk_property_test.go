package partition

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_ChunkPreservesSequence checks that concatenating chunks
// reproduces the input in order and that only the last chunk may be short.
func TestProperty_ChunkPreservesSequence(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("concatenated chunks equal the input", prop.ForAll(
		func(items []int, size int) bool {
			var joined []int
			for _, c := range Chunk(items, size) {
				joined = append(joined, c...)
			}
			if len(joined) != len(items) {
				return false
			}
			for i := range items {
				if joined[i] != items[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Int()),
		gen.IntRange(1, 64),
	))

	properties.Property("every chunk but the last has exactly size items", prop.ForAll(
		func(items []int, size int) bool {
			chunks := Chunk(items, size)
			for i, c := range chunks {
				if i < len(chunks)-1 && len(c) != size {
					return false
				}
				if len(c) == 0 || len(c) > size {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Int()),
		gen.IntRange(1, 64),
	))

	properties.Property("chunk count matches Count and Bounds", prop.ForAll(
		func(n, size int) bool {
			items := make([]int, n)
			chunks := Chunk(items, size)
			if len(chunks) != Count(n, size) {
				return false
			}
			for i, c := range chunks {
				start, end, ok := Bounds(n, size, i)
				if !ok || end-start != len(c) {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 2000),
		gen.IntRange(1, 300),
	))

	properties.TestingRun(t)
}
