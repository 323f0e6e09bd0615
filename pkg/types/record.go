// Package types provides core data types for persistbench.
package types

// Record is a single purchase order written by every benchmark scenario.
type Record struct {
	// ID is the unique identifier, 1..N in generation order
	ID int64 `json:"id"`

	// ProductName is a generated unique product name
	ProductName string `json:"product_name"`

	// Price is the unit price
	Price float64 `json:"price"`

	// Quantity is the ordered quantity
	Quantity int64 `json:"quantity"`
}

// IDs returns the identifiers of records in order.
func IDs(records []Record) []int64 {
	ids := make([]int64, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}
