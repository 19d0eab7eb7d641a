// Package mvs compiles story scenes into MolViewSpec (MVS) visualization
// state.
//
// Each scene script runs in its own JavaScript runtime with three bindings:
// the builder (a capability handle that records a declarative node tree),
// the scene index, and the math/colour helper library. Scripts never render
// anything; the compiler only collects the tree each script builds, attaches
// the scene camera and playback metadata, and assembles the multi-snapshot
// MVS document that the viewer consumes.
//
// Scripts are time-bounded and isolated. A scene that throws, rejects, or
// exceeds its budget is reported as a *SceneError and the remaining scenes
// still compile. Stories that carry assets are additionally packaged as an
// MVSX archive (a zip of index.mvsj plus the asset files) so that scripts can
// reference the assets by relative URL.
package mvs
