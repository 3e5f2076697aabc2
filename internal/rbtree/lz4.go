// Package rbtree provides an arena-backed red-black tree keyed by an injected
// total order, with LZ4 hibernation of idle arenas.
package rbtree

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// uint32ByteSize is the number of bytes in a uint32.
const uint32ByteSize = 4

// Leading byte of a compressed column.
const (
	columnRaw byte = iota
	columnLZ4
)

// ErrCorruptColumn is returned when a compressed column does not decode to the expected length.
var ErrCorruptColumn = errors.New("corrupt compressed column")

// CompressUInt32Slice compresses a slice of uint32-s with LZ4.
// An empty slice compresses to an empty block.
func CompressUInt32Slice(data []uint32) ([]byte, error) {
	if len(data) == 0 {
		return []byte{}, nil
	}

	buf := bytes.NewBuffer(make([]byte, 0, len(data)*uint32ByteSize))

	err := binary.Write(buf, binary.LittleEndian, data)
	if err != nil {
		return nil, fmt.Errorf("encode column: %w", err)
	}

	compressed := make([]byte, 1+lz4.CompressBlockBound(buf.Len()))

	written, err := lz4.CompressBlock(buf.Bytes(), compressed[1:], nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}

	if written == 0 || written >= buf.Len() {
		return append([]byte{columnRaw}, buf.Bytes()...), nil
	}

	compressed[0] = columnLZ4

	return compressed[:1+written], nil
}

// DecompressUInt32Slice restores n uint32-s previously compressed with CompressUInt32Slice.
func DecompressUInt32Slice(data []byte, n int) ([]uint32, error) {
	result := make([]uint32, n)
	if n == 0 {
		return result, nil
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty block for %d values", ErrCorruptColumn, n)
	}

	raw := data[1:]

	switch data[0] {
	case columnRaw:
		if len(raw) != n*uint32ByteSize {
			return nil, fmt.Errorf("%w: %d raw bytes instead of %d", ErrCorruptColumn, len(raw), n*uint32ByteSize)
		}
	case columnLZ4:
		raw = make([]byte, n*uint32ByteSize)

		read, err := lz4.UncompressBlock(data[1:], raw)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompress: %w", err)
		}

		if read != len(raw) {
			return nil, fmt.Errorf("%w: %d bytes instead of %d", ErrCorruptColumn, read, len(raw))
		}
	default:
		return nil, fmt.Errorf("%w: unknown block tag %d", ErrCorruptColumn, data[0])
	}

	err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, result)
	if err != nil {
		return nil, fmt.Errorf("decode column: %w", err)
	}

	return result, nil
}

// DeltaEncodeUInt32Slice replaces each element with the difference from its
// predecessor, in place. The first element is left unchanged. Sorted input turns
// into small repetitive values that LZ4 compresses well.
func DeltaEncodeUInt32Slice(data []uint32) {
	for i := len(data) - 1; i > 0; i-- {
		data[i] -= data[i-1]
	}
}

// DeltaDecodeUInt32Slice performs a prefix-sum to restore original values from
// deltas produced by DeltaEncodeUInt32Slice. The operation is performed in place.
func DeltaDecodeUInt32Slice(data []uint32) {
	for i := 1; i < len(data); i++ {
		data[i] += data[i-1]
	}
}
