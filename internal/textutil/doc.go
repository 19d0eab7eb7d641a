// Package textutil provides small text helpers for names that end up on disk
// or in the UI: filename sanitizing, URL-safe slugs, and display titles
// derived from folder names.
package textutil
