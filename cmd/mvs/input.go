package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"mvstories/internal/container"
	"mvstories/internal/fileutil"
	"mvstories/internal/story"
	"mvstories/internal/storyfolder"
	"mvstories/internal/storytext"
)

// loadStory reads a story folder, a JSON story, or an MVStory container.
func loadStory(ctx context.Context, path string, codec container.Codec) (story.Story, error) {
	info, err := os.Stat(path)
	if err != nil {
		return story.Story{}, fmt.Errorf("open %s: %w", path, err)
	}
	if info.IsDir() {
		return storyfolder.Parse(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return story.Story{}, fmt.Errorf("read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return storytext.Decode(data)
	case ".mvstory":
		return codec.Unpack(ctx, data)
	}
	if container.Sniff(data) {
		return codec.Unpack(ctx, data)
	}
	return storytext.Decode(data)
}

// writeOutput writes data to path, or to stdout when path is empty. Binary
// payloads on stdout are base64 encoded behind a "<LABEL>_BASE64:" prefix.
func writeOutput(out io.Writer, path, label string, data []byte, binary bool) error {
	if strings.TrimSpace(path) != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
		}
		if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		return nil
	}
	if binary {
		_, err := fmt.Fprintf(out, "%s_BASE64:%s\n", strings.ToUpper(label), base64.StdEncoding.EncodeToString(data))
		return err
	}
	if _, err := out.Write(data); err != nil {
		return err
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		_, err := io.WriteString(out, "\n")
		return err
	}
	return nil
}
