package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"mvstories/internal/logging"
	"mvstories/internal/storyerr"
)

// DefaultTitle names items created without a title.
const DefaultTitle = "Untitled"

// Create stores a new item and its payload.
func (s *Store) Create(ctx context.Context, in NewItem) (*Item, error) {
	if err := validateKind(in.Kind); err != nil {
		return nil, err
	}
	if err := validateFormat(in.Kind, in.Format); err != nil {
		return nil, err
	}
	if len(in.Data) == 0 {
		return nil, storyerr.Wrap(storyerr.ErrValidation, component, "create", "payload is empty", nil)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = DefaultTitle
	}

	id := uuid.NewString()
	timestamp := formatTime(s.now())
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?, ?, ?, ?)`,
			id,
			string(in.Kind),
			title,
			strings.TrimSpace(in.Description),
			encodeTags(in.Tags),
			strings.TrimSpace(in.Creator),
			string(in.Format),
			int64(len(in.Data)),
			Checksum(in.Data),
			timestamp,
			timestamp,
		); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO payloads (item_id, data) VALUES (?, ?)`, id, in.Data)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	s.logger.Info("library item created",
		logging.String(logging.FieldStoryID, id),
		logging.String("kind", string(in.Kind)),
		logging.Bytes("bytes", len(in.Data)),
		logging.String(logging.FieldEventType, "item_created"),
	)
	return s.Get(ctx, id)
}

// Get fetches an item by identifier. A missing item returns nil, nil.
func (s *Store) Get(ctx context.Context, id string) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// List returns items of the given kind, most recently updated first. An empty
// kind lists everything.
func (s *Store) List(ctx context.Context, kind Kind) ([]*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items`
	var args []any
	if kind != "" {
		if err := validateKind(kind); err != nil {
			return nil, err
		}
		query += ` WHERE kind = ?`
		args = append(args, string(kind))
	}
	query += ` ORDER BY updated_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := []*Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateMeta applies patch to the item's metadata.
func (s *Store) UpdateMeta(ctx context.Context, id string, patch MetaPatch) (*Item, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, notFound("update_meta", id)
	}
	if patch.Title != nil {
		item.Title = strings.TrimSpace(*patch.Title)
		if item.Title == "" {
			item.Title = DefaultTitle
		}
	}
	if patch.Description != nil {
		item.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Tags != nil {
		item.Tags = *patch.Tags
	}
	err = retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`UPDATE items SET title = ?, description = ?, tags_json = ?, updated_at = ? WHERE id = ?`,
			item.Title, item.Description, encodeTags(item.Tags), formatTime(s.now()), id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return s.Get(ctx, id)
}

// ReplacePayload swaps the stored bytes and bumps the item version.
func (s *Store) ReplacePayload(ctx context.Context, id string, format Format, data []byte) (*Item, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, notFound("replace_payload", id)
	}
	if err := validateFormat(item.Kind, format); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, storyerr.Wrap(storyerr.ErrValidation, component, "replace_payload", "payload is empty", nil).WithSubject(id)
	}
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE items SET version = version + 1, format = ?, size = ?, checksum = ?, updated_at = ? WHERE id = ?`,
			string(format), int64(len(data)), Checksum(data), formatTime(s.now()), id,
		); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE payloads SET data = ? WHERE item_id = ?`, data, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("replace payload: %w", err)
	}
	return s.Get(ctx, id)
}

// Payload returns the stored bytes of an item.
func (s *Store) Payload(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM payloads WHERE item_id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("payload", id)
	}
	if err != nil {
		return nil, fmt.Errorf("read payload: %w", err)
	}
	return data, nil
}

// Delete removes an item and its payload. It reports whether anything was removed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	var affected int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	if affected > 0 {
		s.logger.Info("library item deleted",
			logging.String(logging.FieldStoryID, id),
			logging.String(logging.FieldEventType, "item_deleted"),
		)
	}
	return affected > 0, nil
}

// Stats counts items per kind and sums payload sizes.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, COUNT(1), COALESCE(SUM(size), 0) FROM items GROUP BY kind`)
	if err != nil {
		return Stats{}, fmt.Errorf("library stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var (
			kind  string
			count int
			bytes int64
		)
		if err := rows.Scan(&kind, &count, &bytes); err != nil {
			return Stats{}, err
		}
		switch Kind(kind) {
		case KindSession:
			stats.Sessions = count
		case KindStory:
			stats.Stories = count
		}
		stats.TotalBytes += bytes
	}
	return stats, rows.Err()
}

func notFound(op, id string) error {
	return storyerr.Wrap(storyerr.ErrNotFound, component, op, "library item not found", nil).WithSubject(id)
}
