package library

import (
	"time"

	"mvstories/internal/storyerr"
)

// Kind separates editable sessions from published stories.
type Kind string

const (
	KindSession Kind = "session"
	KindStory   Kind = "story"
)

// Format names the payload encoding.
type Format string

const (
	FormatMVStory Format = "mvstory"
	FormatMVSJ    Format = "mvsj"
	FormatMVSX    Format = "mvsx"
)

// ContentType is the MIME type served for a payload.
func (f Format) ContentType() string {
	switch f {
	case FormatMVSJ:
		return "application/json"
	case FormatMVSX:
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}

// Item is the metadata row of a stored session or story.
type Item struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	Creator     string    `json:"creator"`
	Version     int       `json:"version"`
	Format      Format    `json:"format"`
	Size        int64     `json:"size"`
	Checksum    string    `json:"checksum"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewItem describes an item to create.
type NewItem struct {
	Kind        Kind
	Title       string
	Description string
	Tags        []string
	Creator     string
	Format      Format
	Data        []byte
}

// MetaPatch updates metadata fields; nil fields are left unchanged.
type MetaPatch struct {
	Title       *string
	Description *string
	Tags        *[]string
}

// Stats summarizes the library contents.
type Stats struct {
	Sessions   int   `json:"sessions"`
	Stories    int   `json:"stories"`
	TotalBytes int64 `json:"total_bytes"`
}

func validateKind(kind Kind) error {
	switch kind {
	case KindSession, KindStory:
		return nil
	}
	return storyerr.Wrap(storyerr.ErrValidation, component, "validate", "unknown item kind", nil).WithSubject(string(kind))
}

func validateFormat(kind Kind, format Format) error {
	switch {
	case kind == KindSession && format == FormatMVStory:
		return nil
	case kind == KindStory && (format == FormatMVSJ || format == FormatMVSX):
		return nil
	}
	return storyerr.Wrap(storyerr.ErrValidation, component, "validate",
		"format "+string(format)+" is not valid for a "+string(kind), nil).WithSubject(string(format))
}
