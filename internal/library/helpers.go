package library

import (
	"encoding/hex"
	"encoding/json"
	"time"

	"golang.org/x/crypto/blake2b"
)

const itemColumns = "id, kind, title, description, tags_json, creator, version, format, size, checksum, created_at, updated_at"

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Checksum returns the hex blake2b-256 digest used for payload integrity and ETags.
func Checksum(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		item       Item
		kind       string
		format     string
		tagsJSON   string
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&item.ID,
		&kind,
		&item.Title,
		&item.Description,
		&tagsJSON,
		&item.Creator,
		&item.Version,
		&format,
		&item.Size,
		&item.Checksum,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	item.Kind = Kind(kind)
	item.Format = Format(format)
	item.Tags = decodeTags(tagsJSON)
	if created, err := time.Parse(timeLayout, createdRaw); err == nil {
		item.CreatedAt = created
	}
	if updated, err := time.Parse(timeLayout, updatedRaw); err == nil {
		item.UpdatedAt = updated
	}
	return &item, nil
}

func encodeTags(tags []string) string {
	clean := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag != "" {
			clean = append(clean, tag)
		}
	}
	raw, _ := json.Marshal(clean)
	return string(raw)
}

func decodeTags(raw string) []string {
	tags := []string{}
	if raw == "" {
		return tags
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return []string{}
	}
	return tags
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
