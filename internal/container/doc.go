// Package container implements the MVStory binary container.
//
// A container is a zlib stream wrapping one msgpack map of the form
// {version: 1, story: {...}}. Scene fields and metadata are encoded as msgpack
// values and asset content as msgpack binary, so assets round-trip byte for
// byte without any text encoding. Unpack checks the stream signature and the
// version before trusting the payload.
package container
