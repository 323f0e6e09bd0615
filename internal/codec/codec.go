// Package codec serializes records into the self-describing envelope stored
// by the file-backed writer, one object per record.
package codec

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/golang/snappy"
	"github.com/persistbench/persistbench/pkg/types"
	"github.com/spaolacci/murmur3"
)

// Format identifies the payload encoding inside an envelope.
type Format byte

const (
	// FormatProto encodes records in protobuf wire format.
	FormatProto Format = 1
	// FormatJSON encodes records as JSON objects.
	FormatJSON Format = 2
)

const flagSnappy byte = 1 << 0

// headerSize is magic(4) + format(1) + flags(1) + checksum(4).
const headerSize = 10

var magic = [4]byte{'P', 'B', 'R', '1'}

// Codec errors
var (
	ErrTooShort         = errors.New("codec: data too short")
	ErrBadMagic         = errors.New("codec: bad magic")
	ErrChecksumMismatch = errors.New("codec: checksum mismatch")
	ErrUnknownFormat    = errors.New("codec: unknown format")
)

// String returns the config name of the format.
func (f Format) String() string {
	switch f {
	case FormatProto:
		return "proto"
	case FormatJSON:
		return "json"
	default:
		return fmt.Sprintf("format(%d)", byte(f))
	}
}

// ParseFormat maps a config name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "proto", "protobuf", "":
		return FormatProto, nil
	case "json":
		return FormatJSON, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// Codec encodes and decodes record envelopes.
type Codec struct {
	format   Format
	compress bool
}

// New creates a codec writing the given format, optionally snappy-compressed.
// The zero Format selects FormatProto.
func New(format Format, compress bool) *Codec {
	if format == 0 {
		format = FormatProto
	}
	return &Codec{format: format, compress: compress}
}

// Encode serializes a record.
// Layout:
//   - 4 bytes: magic "PBR1"
//   - 1 byte: payload format
//   - 1 byte: flags (bit 0: snappy)
//   - 4 bytes: murmur3-32 of the stored payload (big-endian)
//   - remaining: payload
func (c *Codec) Encode(r types.Record) ([]byte, error) {
	var payload []byte
	switch c.format {
	case FormatProto:
		payload = marshalProto(nil, r)
	case FormatJSON:
		var err error
		payload, err = json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("codec: marshal json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, c.format)
	}

	var flags byte
	if c.compress {
		payload = snappy.Encode(nil, payload)
		flags |= flagSnappy
	}

	buf := make([]byte, headerSize+len(payload))
	copy(buf[0:4], magic[:])
	buf[4] = byte(c.format)
	buf[5] = flags
	binary.BigEndian.PutUint32(buf[6:10], murmur3.Sum32(payload))
	copy(buf[headerSize:], payload)
	return buf, nil
}

// Decode reconstructs a record from any envelope, regardless of the
// format this codec writes.
func Decode(data []byte) (types.Record, error) {
	if len(data) < headerSize {
		return types.Record{}, ErrTooShort
	}
	if [4]byte(data[0:4]) != magic {
		return types.Record{}, ErrBadMagic
	}

	format := Format(data[4])
	flags := data[5]
	payload := data[headerSize:]

	if murmur3.Sum32(payload) != binary.BigEndian.Uint32(data[6:10]) {
		return types.Record{}, ErrChecksumMismatch
	}

	if flags&flagSnappy != 0 {
		raw, err := snappy.Decode(nil, payload)
		if err != nil {
			return types.Record{}, fmt.Errorf("codec: snappy decompress failed: %w", err)
		}
		payload = raw
	}

	switch format {
	case FormatProto:
		return unmarshalProto(payload)
	case FormatJSON:
		var r types.Record
		if err := json.Unmarshal(payload, &r); err != nil {
			return types.Record{}, fmt.Errorf("codec: unmarshal json: %w", err)
		}
		return r, nil
	default:
		return types.Record{}, fmt.Errorf("%w: %d", ErrUnknownFormat, format)
	}
}
