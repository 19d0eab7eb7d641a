package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/vmihailenco/msgpack/v5"

	"mvstories/internal/story"
	"mvstories/internal/storyerr"
)

const (
	// FormatVersion is the only container version this package reads or writes.
	FormatVersion = 1
	// Extension is the conventional file suffix for containers.
	Extension = ".mvstory"

	DefaultCompressionLevel = 3
	DefaultMaxDecompressed  = 512 << 20

	component = "container"
)

type envelope struct {
	Version int          `msgpack:"version"`
	Story   *story.Story `msgpack:"story"`
}

// Codec packs and unpacks containers.
type Codec struct {
	// Level is the zlib compression level (0-9).
	Level int
	// MaxDecompressed bounds the inflated payload size in bytes.
	MaxDecompressed int64
}

// Default returns a codec with the standard compression level and limits.
func Default() Codec {
	return Codec{Level: DefaultCompressionLevel, MaxDecompressed: DefaultMaxDecompressed}
}

// Pack encodes s with the default codec.
func Pack(ctx context.Context, s story.Story) ([]byte, error) {
	return Default().Pack(ctx, s)
}

// Unpack decodes data with the default codec.
func Unpack(ctx context.Context, data []byte) (story.Story, error) {
	return Default().Unpack(ctx, data)
}

// Pack serializes s into a compressed container.
func (c Codec) Pack(ctx context.Context, s story.Story) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.PackTo(ctx, &buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PackTo streams the container for s into w.
func (c Codec) PackTo(ctx context.Context, w io.Writer, s story.Story) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	zw, err := zlib.NewWriterLevel(w, c.level())
	if err != nil {
		return storyerr.Wrap(storyerr.ErrConfiguration, component, "pack", "invalid compression level", err)
	}
	enc := msgpack.NewEncoder(zw)
	enc.UseCompactInts(true)
	if err := enc.Encode(envelope{Version: FormatVersion, Story: &s}); err != nil {
		_ = zw.Close()
		return storyerr.Wrap(storyerr.ErrValidation, component, "pack", "encode story", err)
	}
	if err := zw.Close(); err != nil {
		return storyerr.Wrap(storyerr.ErrUnavailable, component, "pack", "flush compressed stream", err)
	}
	return ctx.Err()
}

// Unpack validates and decodes a container.
func (c Codec) Unpack(ctx context.Context, data []byte) (story.Story, error) {
	if err := ctx.Err(); err != nil {
		return story.Story{}, err
	}
	if len(data) == 0 {
		return story.Story{}, invalid("empty container", nil)
	}

	var payload []byte
	switch {
	case hasZlibHeader(data):
		inflated, err := c.inflate(data)
		if err != nil {
			return story.Story{}, err
		}
		payload = inflated
	case hasMsgpackMapHeader(data):
		payload = data
	default:
		return story.Story{}, invalid("unrecognized container signature", nil)
	}
	if err := ctx.Err(); err != nil {
		return story.Story{}, err
	}

	dec := msgpack.NewDecoder(bytes.NewReader(payload))
	dec.UseLooseInterfaceDecoding(true)
	var env envelope
	if err := dec.Decode(&env); err != nil {
		return story.Story{}, invalid("decode payload", err)
	}
	if env.Version != FormatVersion {
		return story.Story{}, invalid(fmt.Sprintf("unsupported story version %d", env.Version), nil)
	}
	if env.Story == nil {
		return story.Story{}, invalid("container has no story section", nil)
	}
	out := *env.Story
	if out.Metadata == nil {
		out.Metadata = story.Metadata{}
	}
	return out, nil
}

// Sniff reports whether data carries a container signature. It does not
// decode the payload.
func Sniff(data []byte) bool {
	return hasZlibHeader(data) || hasMsgpackMapHeader(data)
}

func (c Codec) inflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, invalid("open compressed stream", err)
	}
	defer zr.Close()

	limit := c.MaxDecompressed
	if limit <= 0 {
		limit = DefaultMaxDecompressed
	}
	out, err := io.ReadAll(io.LimitReader(zr, limit+1))
	if err != nil {
		return nil, invalid("inflate payload", err)
	}
	if int64(len(out)) > limit {
		return nil, invalid(fmt.Sprintf("payload exceeds %d bytes", limit), nil)
	}
	return out, nil
}

func (c Codec) level() int {
	if c.Level < zlib.NoCompression || c.Level > zlib.BestCompression {
		return DefaultCompressionLevel
	}
	return c.Level
}

func hasZlibHeader(data []byte) bool {
	if len(data) < 2 {
		return false
	}
	cmf, flg := data[0], data[1]
	if cmf&0x0f != 8 || cmf>>4 > 7 {
		return false
	}
	return (uint16(cmf)<<8|uint16(flg))%31 == 0
}

func hasMsgpackMapHeader(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	b := data[0]
	return (b >= 0x80 && b <= 0x8f) || b == 0xde || b == 0xdf
}

func invalid(message string, err error) error {
	return storyerr.Wrap(storyerr.ErrInvalidFormat, component, "unpack", message, err)
}

// IsInvalid reports whether err marks unreadable container input.
func IsInvalid(err error) bool {
	return errors.Is(err, storyerr.ErrInvalidFormat)
}
