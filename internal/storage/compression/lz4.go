package compression

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pierrec/lz4"
)

// ErrCorrupt is returned for input Decompress cannot have produced.
var ErrCorrupt = errors.New("corrupt compressed value")

// NoCompressor stores data unchanged.
type NoCompressor struct{}

func (NoCompressor) Name() string { return "none" }

func (NoCompressor) Compress(data []byte) ([]byte, error) {
	return append([]byte(nil), data...), nil
}

func (NoCompressor) Decompress(data []byte) ([]byte, error) {
	return append([]byte(nil), data...), nil
}

const (
	formatRaw byte = iota
	formatLZ4
)

// LZ4Compressor stores data as an LZ4 block. The output is a format byte,
// then for LZ4 blocks the uvarint uncompressed length and the block.
// Input LZ4 cannot shrink is kept raw behind the format byte.
type LZ4Compressor struct{}

func (LZ4Compressor) Name() string { return "lz4" }

func (LZ4Compressor) Compress(data []byte) ([]byte, error) {
	header := make([]byte, 1+binary.MaxVarintLen64)
	header[0] = formatLZ4
	n := 1 + binary.PutUvarint(header[1:], uint64(len(data)))

	block := make([]byte, lz4.CompressBlockBound(len(data)))
	size, err := lz4.CompressBlock(data, block, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}
	if size == 0 || n+size >= 1+len(data) {
		out := make([]byte, 1+len(data))
		out[0] = formatRaw
		copy(out[1:], data)
		return out, nil
	}
	return append(header[:n], block[:size]...), nil
}

func (LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrCorrupt
	}
	switch data[0] {
	case formatRaw:
		return append([]byte(nil), data[1:]...), nil
	case formatLZ4:
		size, n := binary.Uvarint(data[1:])
		if n <= 0 {
			return nil, ErrCorrupt
		}
		out := make([]byte, size)
		got, err := lz4.UncompressBlock(data[1+n:], out)
		if err != nil {
			return nil, fmt.Errorf("lz4 decompression failed: %w", err)
		}
		if uint64(got) != size {
			return nil, fmt.Errorf("%w: expected %d bytes, got %d", ErrCorrupt, size, got)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: format %d", ErrCorrupt, data[0])
	}
}
