package mvs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zip"

	"mvstories/internal/story"
	"mvstories/internal/storyerr"
)

// IndexEntry is the name of the MVSJ document inside an MVSX archive.
const IndexEntry = "index.mvsj"

// buildArchive zips index plus every asset into an MVSX archive.
func buildArchive(index []byte, assets []story.Asset, modified time.Time) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	write := func(name string, data []byte) error {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		if _, err := w.Write(data); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		return nil
	}
	if err := write(IndexEntry, index); err != nil {
		_ = zw.Close()
		return nil, err
	}
	for _, asset := range assets {
		if asset.Name == IndexEntry {
			continue
		}
		if err := write(asset.Name, asset.Content); err != nil {
			_ = zw.Close()
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseState rebuilds a compiled state from its stored bytes: an MVSJ
// document or an MVSX archive carrying index.mvsj.
func ParseState(format Format, data []byte) (*State, error) {
	switch format {
	case FormatMVSJ:
		var doc Data
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, storyerr.Wrap(storyerr.ErrInvalidFormat, component, "parse_state", "malformed mvsj", err)
		}
		return &State{Data: &doc}, nil
	case FormatMVSX:
		index, err := readIndex(data)
		if err != nil {
			return nil, storyerr.Wrap(storyerr.ErrInvalidFormat, component, "parse_state", "malformed mvsx", err)
		}
		var doc Data
		if err := json.Unmarshal(index, &doc); err != nil {
			return nil, storyerr.Wrap(storyerr.ErrInvalidFormat, component, "parse_state", "malformed index", err)
		}
		return &State{Data: &doc, Archive: data}, nil
	}
	return nil, storyerr.Wrap(storyerr.ErrValidation, component, "parse_state", "unknown state format", nil).WithSubject(string(format))
}

func readIndex(archive []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, err
	}
	for _, f := range zr.File {
		if f.Name != IndexEntry {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("archive has no %s", IndexEntry)
}
