package datastore

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// zstd encoders and decoders are safe for concurrent EncodeAll/DecodeAll.
var (
	encoderOnce = sync.OnceValues(func() (*zstd.Encoder, error) {
		return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	decoderOnce = sync.OnceValues(func() (*zstd.Decoder, error) {
		return zstd.NewReader(nil)
	})
)

// Compress zstd-compresses b.
func Compress(b []byte) ([]byte, error) {
	enc, err := encoderOnce()
	if err != nil {
		return nil, fmt.Errorf("init zstd encoder: %w", err)
	}
	return enc.EncodeAll(b, make([]byte, 0, len(b)/2)), nil
}

// Decompress reverses Compress.
func Decompress(b []byte) ([]byte, error) {
	dec, err := decoderOnce()
	if err != nil {
		return nil, fmt.Errorf("init zstd decoder: %w", err)
	}
	out, err := dec.DecodeAll(b, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return out, nil
}
