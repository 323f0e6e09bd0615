// Package generator produces the synthetic purchase orders written by the
// benchmark scenarios.
package generator

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/google/uuid"
	"github.com/persistbench/persistbench/pkg/types"
)

// DefaultPrice is the unit price given to every generated record.
const DefaultPrice = 1000.0

// QuantityOffset is added to the zero-based record index to form its quantity.
const QuantityOffset = 5

// Generator creates records with sequential identifiers and UUID product names.
type Generator struct {
	price float64
	rand  io.Reader
}

// Option configures a Generator.
type Option func(*Generator)

// WithPrice overrides the unit price.
func WithPrice(price float64) Option {
	return func(g *Generator) {
		g.price = price
	}
}

// WithSeed makes product names reproducible. A zero seed keeps crypto/rand.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		if seed != 0 {
			g.rand = rand.New(rand.NewSource(seed))
		}
	}
}

// New creates a generator.
func New(opts ...Option) *Generator {
	g := &Generator{price: DefaultPrice}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns n records with IDs 1..n in order.
func (g *Generator) Generate(n int) ([]types.Record, error) {
	if n <= 0 {
		return []types.Record{}, nil
	}

	records := make([]types.Record, n)
	for i := 0; i < n; i++ {
		name, err := g.productName()
		if err != nil {
			return nil, fmt.Errorf("generator: record %d: %w", i+1, err)
		}
		records[i] = types.Record{
			ID:          int64(i + 1),
			ProductName: name,
			Price:       g.price,
			Quantity:    int64(i + QuantityOffset),
		}
	}
	return records, nil
}

func (g *Generator) productName() (string, error) {
	if g.rand == nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return "", err
		}
		return id.String(), nil
	}
	id, err := uuid.NewRandomFromReader(g.rand)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
