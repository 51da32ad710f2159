// Package library reconciles the on-disk content tree with the song
// catalog.
//
// A content unit is one directory holding a metadata.json record plus
// optional source.lytex (typeset source) and verses payloads. The
// Reconciler is the unit of work for one directory: it reads the record,
// resolves its identity against the catalog (by identifier, or by
// field-equality matching when none exists yet), resolves and deduplicates
// dependent entities (persons, sources) and upserts the song. Freshly
// minted identifiers are written back into metadata.json so the filesystem
// becomes eventually consistent with the catalog.
//
// The Scanner drives one full pass over the tree (cold start, manual
// resync); the Watcher reconciles incrementally on fsnotify events with a
// per-directory debounce. Both continue past bad units: parse errors and
// ambiguous identity matches are counted as skips, never fatal to the run.
//
// Reconciliation is idempotent — re-running on an unchanged unit issues
// zero catalog writes and reports an unchanged outcome.
package library
