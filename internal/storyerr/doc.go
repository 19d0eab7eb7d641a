// Package storyerr defines the error markers shared by the story toolchain.
//
// Every failure that crosses a package boundary is tagged with one of the
// exported sentinel markers so callers can classify it with errors.Is instead
// of matching on message text. Wrap attaches the component, operation, and
// (optionally) the offending scene id or asset name. The context helpers stamp
// request, story, and scene identifiers that the logging package turns into
// structured fields.
package storyerr
