// Package devserver serves a live preview of a story folder.
//
// The server builds the folder once, then watches it recursively and
// rebuilds after a quiet period. Every successful rebuild is announced to
// connected pages over a websocket so they reload. A failed rebuild keeps
// the last good story on screen and reports the failing scenes through
// /api/status and the websocket. A file lock inside the folder keeps two
// previews from serving the same story.
package devserver
