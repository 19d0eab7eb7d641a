// Package engine resolves the mvs-stories viewer bundle (script and style)
// that playback documents load.
//
// A Loader fetches the bundle at most once per readiness cycle: the first
// Ready call triggers resolution and every concurrent caller waits on the
// same result. Resolution checks an in-memory cache, then the on-disk cache
// under the configured cache directory, then the CDN.
package engine
