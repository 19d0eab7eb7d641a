// Package services assembles the story toolchain from configuration.
//
// Key responsibilities:
//   - Build the scene compiler with the configured timeout, worker count, and
//     MVS version.
//   - Build the container codec with the configured compression level and
//     decompression bound.
//   - Build the viewer bundle loader backed by the CDN and the on-disk cache.
//
// The HTTP API, the watch preview, and the CLI all obtain their toolchain
// here so a config change affects every surface the same way.
package services
