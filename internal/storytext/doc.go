// Package storytext converts stories to and from their human-readable JSON
// export.
//
// Binary asset content is carried as standard base64 strings. Decode checks
// the document against an embedded JSON schema before decoding it, so any
// input that is not a valid export fails with storyerr.ErrInvalidFormat and
// nothing is partially recovered.
package storytext
