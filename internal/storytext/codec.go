package storytext

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"mvstories/internal/story"
	"mvstories/internal/storyerr"
)

const component = "storytext"

type wireStory struct {
	Metadata   story.Metadata `json:"metadata"`
	JavaScript string         `json:"javascript"`
	Scenes     []story.Scene  `json:"scenes"`
	Assets     []wireAsset    `json:"assets"`
}

type wireAsset struct {
	Name    string  `json:"name"`
	Content content `json:"content"`
}

// content is asset bytes carried as base64. Older exports serialized the
// buffer as an array of numbers or as an index-keyed object; both decode.
type content []byte

func (c content) MarshalJSON() ([]byte, error) {
	return json.Marshal(base64.StdEncoding.EncodeToString(c))
}

func (c *content) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty asset content")
	}
	switch data[0] {
	case '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		decoded, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return fmt.Errorf("asset content is not base64: %w", err)
		}
		*c = decoded
		return nil
	case '[':
		var values []int
		if err := json.Unmarshal(data, &values); err != nil {
			return err
		}
		out := make([]byte, len(values))
		for i, v := range values {
			if v < 0 || v > 255 {
				return fmt.Errorf("asset byte %d out of range: %d", i, v)
			}
			out[i] = byte(v)
		}
		*c = out
		return nil
	case '{':
		var indexed map[string]int
		if err := json.Unmarshal(data, &indexed); err != nil {
			return err
		}
		keys := make([]int, 0, len(indexed))
		for k := range indexed {
			idx, err := strconv.Atoi(k)
			if err != nil {
				return fmt.Errorf("asset content key %q is not an index", k)
			}
			keys = append(keys, idx)
		}
		sort.Ints(keys)
		out := make([]byte, len(keys))
		for i, idx := range keys {
			if idx != i {
				return fmt.Errorf("asset content index %d missing", i)
			}
			v := indexed[strconv.Itoa(idx)]
			if v < 0 || v > 255 {
				return fmt.Errorf("asset byte %d out of range: %d", idx, v)
			}
			out[i] = byte(v)
		}
		*c = out
		return nil
	default:
		return fmt.Errorf("unsupported asset content encoding")
	}
}

// Encode renders s as indented JSON.
func Encode(s story.Story) ([]byte, error) {
	wire := wireStory{
		Metadata:   s.Metadata,
		JavaScript: s.JavaScript,
		Scenes:     s.Scenes,
	}
	if wire.Metadata == nil {
		wire.Metadata = story.Metadata{}
	}
	if wire.Scenes == nil {
		wire.Scenes = []story.Scene{}
	}
	if s.Assets != nil {
		wire.Assets = make([]wireAsset, len(s.Assets))
		for i, asset := range s.Assets {
			wire.Assets[i] = wireAsset{Name: asset.Name, Content: content(asset.Content)}
		}
	}
	data, err := json.MarshalIndent(wire, "", "  ")
	if err != nil {
		return nil, storyerr.Wrap(storyerr.ErrValidation, component, "encode_text", "story cannot be encoded", err)
	}
	return data, nil
}

// Decode parses a JSON export produced by Encode (or by older exporters).
func Decode(data []byte) (story.Story, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return story.Story{}, invalid("malformed JSON", err)
	}
	if err := Validate(raw); err != nil {
		return story.Story{}, invalid("document is not a story export", err)
	}

	var wire wireStory
	if err := json.Unmarshal(data, &wire); err != nil {
		return story.Story{}, invalid("decode story", err)
	}

	out := story.Story{
		Metadata:   wire.Metadata,
		JavaScript: wire.JavaScript,
		Scenes:     wire.Scenes,
	}
	if wire.Assets != nil {
		out.Assets = make([]story.Asset, len(wire.Assets))
		for i, asset := range wire.Assets {
			buf := []byte(asset.Content)
			if buf == nil {
				buf = []byte{}
			}
			out.Assets[i] = story.Asset{Name: asset.Name, Content: buf}
		}
	}
	return out, nil
}

func invalid(message string, err error) error {
	return storyerr.Wrap(storyerr.ErrInvalidFormat, component, "decode_text", message, err)
}
