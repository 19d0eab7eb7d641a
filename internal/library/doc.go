// Package library persists saved sessions and published stories in SQLite.
//
// A session is an editable MVStory container; a story is compiled scene data
// (mvsj or mvsx) ready for playback. Item metadata lives in the items table
// and the raw bytes in payloads, so listings never read blobs. Every payload
// carries a blake2b-256 checksum that doubles as the HTTP ETag, and its
// version increments whenever the bytes are replaced.
//
// Schema changes go into a new NNNN_name.sql file under migrations/; the
// highest applied number is kept in PRAGMA user_version.
package library
