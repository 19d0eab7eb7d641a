// Package server exposes the story library over HTTP.
//
// Sessions are editable MVStory containers uploaded as raw request bodies.
// Stories are published compiled states produced by running every scene of
// an uploaded container; they can be downloaded as MVSJ/MVSX or viewed as a
// playback page. The router is gin-based and carries optional bearer-token
// authentication, a per-client token bucket, a body size limit, CORS, and
// request-scoped logging.
package server
