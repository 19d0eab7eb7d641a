package container_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/vmihailenco/msgpack/v5"

	"mvstories/internal/container"
	"mvstories/internal/story"
	"mvstories/internal/storyerr"
	"mvstories/internal/storytext"
)

func twoSceneStory() story.Story {
	return story.Story{
		Metadata:   story.Metadata{"title": "Exosome", "tags": []any{"membrane", "vesicle"}},
		JavaScript: "const palette = ['#fff'];",
		Scenes: []story.Scene{
			{
				ID:     "scene1",
				Header: "Intro",
				Key:    "intro",
				Camera: &story.Camera{Mode: "orthographic", Target: story.Vec3{0, 0, 0}, Position: story.Vec3{0, 0, 50}, Up: story.Vec3{0, 1, 0}, FOV: 0.7},
			},
			{ID: "scene2", Header: "Detail", Key: "detail", Description: "**bold**", JavaScript: "builder;", LingerDurationMs: 3000},
		},
		Assets: []story.Asset{{Name: "test.pdb", Content: []byte{1, 2, 3, 4, 5}}},
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	ctx := context.Background()
	in := twoSceneStory()

	data, err := container.Pack(ctx, in)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if !container.Sniff(data) {
		t.Fatal("packed container should carry a signature")
	}
	out, err := container.Unpack(ctx, data)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if !story.Equal(in, out) {
		t.Fatalf("round trip mismatch:\n in=%+v\nout=%+v", in, out)
	}
}

func TestLargeAssetRoundTrip(t *testing.T) {
	ctx := context.Background()
	content := bytes.Repeat([]byte{0xAB}, 1<<20)
	in := story.Empty()
	in.Assets = []story.Asset{{Name: "big.bin", Content: content}}

	data, err := container.Pack(ctx, in)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	out, err := container.Unpack(ctx, data)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	got := out.Assets[0].Content
	if len(got) != 1048576 {
		t.Fatalf("asset length = %d, want 1048576", len(got))
	}
	if !bytes.Equal(got, content) {
		t.Fatal("asset content differs after round trip")
	}
}

func TestUnpackRejectsUnreadableInput(t *testing.T) {
	ctx := context.Background()
	cases := map[string][]byte{
		"empty":           {},
		"five bytes":      {1, 2, 3, 4, 5},
		"zlib garbage":    {0x78, 0x9c, 0xde, 0xad, 0xbe},
		"truncated map":   {0x82, 0xa7},
		"text":            []byte("hello world"),
		"empty msgpack":   {0x80},
		"single zlib hdr": {0x78, 0x01},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := container.Unpack(ctx, input)
			if !errors.Is(err, storyerr.ErrInvalidFormat) {
				t.Fatalf("expected ErrInvalidFormat, got %v", err)
			}
			if !container.IsInvalid(err) {
				t.Fatal("IsInvalid should report true")
			}
		})
	}
}

func TestUnpackRejectsUnsupportedVersion(t *testing.T) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	payload, err := msgpack.Marshal(map[string]any{"version": 2, "story": map[string]any{"metadata": map[string]any{"title": "x"}}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := zw.Write(payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	_, err = container.Unpack(context.Background(), buf.Bytes())
	if !errors.Is(err, storyerr.ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat, got %v", err)
	}
}

func TestUnpackAcceptsUncompressedPayload(t *testing.T) {
	payload, err := msgpack.Marshal(map[string]any{
		"version": 1,
		"story": map[string]any{
			"metadata":   map[string]any{"title": "Raw"},
			"javascript": "",
			"scenes":     []any{map[string]any{"id": "a", "header": "A"}},
			"assets":     []any{},
		},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s, err := container.Unpack(context.Background(), payload)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	if s.Metadata.Title() != "Raw" || len(s.Scenes) != 1 || s.Scenes[0].Header != "A" {
		t.Fatalf("unexpected story: %+v", s)
	}
}

func TestUnpackEnforcesDecompressedLimit(t *testing.T) {
	ctx := context.Background()
	in := story.Empty()
	in.Assets = []story.Asset{{Name: "zeros", Content: make([]byte, 64<<10)}}
	data, err := container.Pack(ctx, in)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	codec := container.Codec{Level: 3, MaxDecompressed: 1024}
	if _, err := codec.Unpack(ctx, data); !errors.Is(err, storyerr.ErrInvalidFormat) {
		t.Fatalf("expected size limit to reject payload, got %v", err)
	}
}

// unusualValuesStory holds values with no natural domain bound: negative
// durations and an asset with an empty name.
func unusualValuesStory() story.Story {
	return story.Story{
		Metadata: story.Metadata{"title": ""},
		Scenes: []story.Scene{
			{ID: "a", LingerDurationMs: -1, TransitionDurationMs: -250},
		},
		Assets: []story.Asset{{Name: "", Content: []byte{0}}},
	}
}

func TestStableThroughTextConversion(t *testing.T) {
	cases := map[string]story.Story{
		"two scenes":     twoSceneStory(),
		"unusual values": unusualValuesStory(),
	}
	for name, original := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			first, err := container.Pack(ctx, original)
			if err != nil {
				t.Fatalf("Pack: %v", err)
			}
			loaded, err := container.Unpack(ctx, first)
			if err != nil {
				t.Fatalf("Unpack: %v", err)
			}
			text, err := storytext.Encode(loaded)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			fromText, err := storytext.Decode(text)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			second, err := container.Pack(ctx, fromText)
			if err != nil {
				t.Fatalf("Pack again: %v", err)
			}
			final, err := container.Unpack(ctx, second)
			if err != nil {
				t.Fatalf("Unpack again: %v", err)
			}
			if !story.Equal(original, final) {
				t.Fatalf("story drifted through text conversion:\n%+v\n%+v", original, final)
			}
			if len(final.Scenes) != len(original.Scenes) || final.Scenes[0].ID != original.Scenes[0].ID {
				t.Fatalf("unexpected scenes: %+v", final.Scenes)
			}
		})
	}
}

func TestPackHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := container.Pack(ctx, story.Empty()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
