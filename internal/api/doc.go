// Package api exposes the story editing and export operations as a single
// facade that the CLI, the library server, and embedding programs share.
//
// A Manager owns one story document. Editing calls are synchronous and
// thread-safe; export calls take a snapshot of the document first so that
// concurrent edits never leak into an export already in progress.
package api
