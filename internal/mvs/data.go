package mvs

import (
	"encoding/json"
	"time"
)

// Snapshot defaults applied when a scene leaves its timings unset.
const (
	DefaultLingerDurationMs     = 5000
	DefaultTransitionDurationMs = 500
	DefaultVersion              = "1.4"
)

// Format names the encoding of a compiled state.
type Format string

const (
	FormatMVSJ Format = "mvsj"
	FormatMVSX Format = "mvsx"
)

// Node is one element of the MVS tree.
type Node struct {
	Kind     string         `json:"kind"`
	Params   map[string]any `json:"params,omitempty"`
	Ref      string         `json:"ref,omitempty"`
	Custom   map[string]any `json:"custom,omitempty"`
	Children []*Node        `json:"children,omitempty"`
}

func (n *Node) add(child *Node) *Node {
	n.Children = append(n.Children, child)
	return child
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, child := range n.Children {
		total += child.Count()
	}
	return total
}

// SnapshotMetadata carries the playback information of one scene.
type SnapshotMetadata struct {
	Title                string `json:"title,omitempty"`
	Key                  string `json:"key,omitempty"`
	Description          string `json:"description,omitempty"`
	DescriptionFormat    string `json:"description_format,omitempty"`
	LingerDurationMs     int    `json:"linger_duration_ms"`
	TransitionDurationMs int    `json:"transition_duration_ms"`
}

// Snapshot is the compiled form of one scene.
type Snapshot struct {
	Root      *Node            `json:"root"`
	Metadata  SnapshotMetadata `json:"metadata"`
	Animation *Node            `json:"animation,omitempty"`
}

// DataMetadata describes the whole compiled story.
type DataMetadata struct {
	Title     string `json:"title,omitempty"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// Data is the multi-snapshot MVS document.
type Data struct {
	Kind      string       `json:"kind"`
	Metadata  DataMetadata `json:"metadata"`
	Snapshots []Snapshot   `json:"snapshots"`
}

func newData(title, version string, now time.Time) *Data {
	return &Data{
		Kind: "multiple",
		Metadata: DataMetadata{
			Title:     title,
			Timestamp: now.UTC().Format(time.RFC3339),
			Version:   version,
		},
		Snapshots: []Snapshot{},
	}
}

// State is the compiled visualization state of a story.
type State struct {
	Data *Data
	// Archive holds the MVSX zip when the story carries assets.
	Archive []byte
}

// Format reports whether the state is plain MVSJ or an MVSX archive.
func (s *State) Format() Format {
	if s != nil && len(s.Archive) > 0 {
		return FormatMVSX
	}
	return FormatMVSJ
}

// JSON returns the MVSJ encoding of the state.
func (s *State) JSON() ([]byte, error) {
	return json.Marshal(s.Data)
}

// Bytes returns the payload the viewer loads: the archive for MVSX states,
// the JSON document otherwise.
func (s *State) Bytes() ([]byte, error) {
	if s.Format() == FormatMVSX {
		return s.Archive, nil
	}
	return s.JSON()
}
