// Package preflight provides readiness checks for the filesystem paths,
// the story library, the API listen address, and the viewer bundle CDN.
//
// The CLI "mvs doctor" command runs RunAll and renders one row per check.
// Checks never return errors; a failed check carries its reason in Detail.
package preflight
