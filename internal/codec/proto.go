package codec

import (
	"fmt"
	"math"

	"github.com/persistbench/persistbench/pkg/types"
	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the record message.
const (
	fieldID          protowire.Number = 1
	fieldProductName protowire.Number = 2
	fieldPrice       protowire.Number = 3
	fieldQuantity    protowire.Number = 4
)

// marshalProto appends r in protobuf wire format. Zero values are omitted,
// matching proto3 encoding; a negative-zero price is kept.
func marshalProto(b []byte, r types.Record) []byte {
	if r.ID != 0 {
		b = protowire.AppendTag(b, fieldID, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(r.ID))
	}
	if r.ProductName != "" {
		b = protowire.AppendTag(b, fieldProductName, protowire.BytesType)
		b = protowire.AppendString(b, r.ProductName)
	}
	if math.Float64bits(r.Price) != 0 {
		b = protowire.AppendTag(b, fieldPrice, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(r.Price))
	}
	if r.Quantity != 0 {
		b = protowire.AppendTag(b, fieldQuantity, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(r.Quantity))
	}
	return b
}

func unmarshalProto(b []byte) (types.Record, error) {
	var r types.Record
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return types.Record{}, fmt.Errorf("codec: proto tag: %w", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldID && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return types.Record{}, fmt.Errorf("codec: proto id: %w", protowire.ParseError(n))
			}
			r.ID = int64(v)
			b = b[n:]
		case num == fieldProductName && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return types.Record{}, fmt.Errorf("codec: proto product_name: %w", protowire.ParseError(n))
			}
			r.ProductName = v
			b = b[n:]
		case num == fieldPrice && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return types.Record{}, fmt.Errorf("codec: proto price: %w", protowire.ParseError(n))
			}
			r.Price = math.Float64frombits(v)
			b = b[n:]
		case num == fieldQuantity && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return types.Record{}, fmt.Errorf("codec: proto quantity: %w", protowire.ParseError(n))
			}
			r.Quantity = int64(v)
			b = b[n:]
		default:
			// unknown field
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return types.Record{}, fmt.Errorf("codec: proto field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return r, nil
}
