// Command mvs authors, builds, previews, and publishes molecular stories.
//
// A story lives either as a folder (story.yaml, story.js, scenes/, assets/),
// as JSON text, or as an MVStory container. The build command compiles any of
// these into MVSJ/MVSX states, playback pages, or self-hosted bundles; watch
// serves a live preview of a folder; serve and library manage the local
// story library.
package main
