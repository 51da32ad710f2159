// Package press renders typeset scores and caches the resulting artifacts.
//
// Each song gets one directory under the build root holding the typeset
// source, the rendered document and a fingerprint sidecar recording the
// sha256 of the source the artifact was built from. EnsureArtifact is
// nearly free when the artifact is current: fingerprint match (or bare
// existence for pre-fingerprint artifacts) short-circuits the expensive
// renderer invocation.
//
// The renderer is an external subprocess (lilypond by default) bounded by
// a timeout; renders are collapsed per song via singleflight and globally
// bounded by a worker semaphore so they never block catalog reads. Builds
// happen in a staging directory and are promoted only on success — a
// failed build withholds the cache entry, leaves any prior artifact in
// place and the next ensure retries.
//
// Optionally, finished artifacts are mirrored to object storage for
// CDN-style serving; the local directory remains the primary copy.
package press
