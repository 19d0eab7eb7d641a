// Package story holds the authored story document and the operations that
// mutate it.
//
// A Story is a plain value: metadata, a global script, an ordered list of
// scenes, and named binary assets. Document wraps one Story and exposes the
// scene and asset operations used by the authoring tools. Every Document
// operation is atomic with respect to other operations on the same Document;
// exporters should take a Clone snapshot before doing slow work so later
// edits are never observed mid-export.
//
// Identity misses (unknown scene ids, unknown asset names, out-of-range
// indexes) are reported through boolean results. The only error this package
// produces is the last-scene invariant on RemoveScene.
package story
