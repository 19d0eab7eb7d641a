// Package bundle renders compiled stories as standalone playback documents
// and self-hosted archives.
package bundle
