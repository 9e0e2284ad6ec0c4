// ABOUTME: Store decorator compressing stored text with zstd or lz4
// ABOUTME: Compressed bytes are base64 framed so text backends stay valid

package storage

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// CompressionType selects the compression algorithm
type CompressionType uint8

const (
	CompressionNone CompressionType = iota
	CompressionZSTD
	CompressionLZ4
)

func (c CompressionType) String() string {
	switch c {
	case CompressionZSTD:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	}
	return "none"
}

// ParseCompression maps a name to a CompressionType
func ParseCompression(name string) (CompressionType, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZSTD, nil
	case "lz4":
		return CompressionLZ4, nil
	}
	return CompressionNone, fmt.Errorf("unknown compression %q", name)
}

// blockHeaderSize covers [UncompressedSize uint32][CompressedSize uint32];
// a zero CompressedSize means the block is stored raw
const blockHeaderSize = 8

// Compressed wraps a Store and compresses text before storing it. Text
// without a compression frame is returned unchanged on Get.
type Compressed struct {
	inner Store
	kind  CompressionType
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// NewCompressed wraps inner with the given compression
func NewCompressed(inner Store, kind CompressionType) (*Compressed, error) {
	c := &Compressed{inner: inner, kind: kind}
	var err error
	c.enc, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	c.dec, err = zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return c, nil
}

func (c *Compressed) Set(ctx context.Context, id string, text string) error {
	if c.kind == CompressionNone {
		return c.inner.Set(ctx, id, text)
	}
	data, err := c.compress([]byte(text))
	if err != nil {
		return fmt.Errorf("compress %s: %w", id, err)
	}
	framed := c.kind.String() + ":" + base64.StdEncoding.EncodeToString(data)
	return c.inner.Set(ctx, id, framed)
}

func (c *Compressed) Get(ctx context.Context, id string) (string, bool, error) {
	text, ok, err := c.inner.Get(ctx, id)
	if err != nil || !ok {
		return text, ok, err
	}

	kind, payload, framed := c.frame(text)
	if !framed {
		return text, true, nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", false, fmt.Errorf("decode %s: %w", id, err)
	}
	out, err := c.decompress(data, kind)
	if err != nil {
		return "", false, fmt.Errorf("decompress %s: %w", id, err)
	}
	return string(out), true, nil
}

func (c *Compressed) frame(text string) (CompressionType, string, bool) {
	for _, kind := range []CompressionType{CompressionZSTD, CompressionLZ4} {
		if payload, ok := strings.CutPrefix(text, kind.String()+":"); ok {
			return kind, payload, true
		}
	}
	return CompressionNone, "", false
}

func (c *Compressed) compress(data []byte) ([]byte, error) {
	switch c.kind {
	case CompressionZSTD:
		return c.enc.EncodeAll(data, nil), nil
	case CompressionLZ4:
		bound := lz4.CompressBlockBound(len(data))
		out := make([]byte, blockHeaderSize+bound)
		n, err := lz4.CompressBlock(data, out[blockHeaderSize:], nil)
		if err != nil {
			return nil, err
		}
		binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
		if n == 0 {
			// incompressible
			binary.LittleEndian.PutUint32(out[4:], 0)
			return append(out[:blockHeaderSize], data...), nil
		}
		binary.LittleEndian.PutUint32(out[4:], uint32(n))
		return out[:blockHeaderSize+n], nil
	}
	return data, nil
}

func (c *Compressed) decompress(data []byte, kind CompressionType) ([]byte, error) {
	switch kind {
	case CompressionZSTD:
		return c.dec.DecodeAll(data, nil)
	case CompressionLZ4:
		if len(data) < blockHeaderSize {
			return nil, errors.New("block too small for header")
		}
		size := binary.LittleEndian.Uint32(data[0:])
		compressedSize := binary.LittleEndian.Uint32(data[4:])
		body := data[blockHeaderSize:]
		if compressedSize == 0 {
			if uint32(len(body)) < size {
				return nil, errors.New("block data too small")
			}
			return body[:size], nil
		}
		if uint32(len(body)) < compressedSize {
			return nil, errors.New("compressed block data too small")
		}
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(body[:compressedSize], out)
		if err != nil {
			return nil, err
		}
		if uint32(n) != size {
			return nil, errors.New("decompressed size mismatch")
		}
		return out, nil
	}
	return data, nil
}

// Close releases the zstd codecs and closes the inner store
func (c *Compressed) Close() error {
	c.dec.Close()
	if err := c.enc.Close(); err != nil {
		return err
	}
	return Close(c.inner)
}
