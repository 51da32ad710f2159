// Package models defines the persisted catalog entities: Person, Source and
// Song, plus the source_authors many-to-many join between sources and their
// authors.
//
// Identifiers are string UUIDs. They are usually minted by the BeforeCreate
// hooks, but the library reconciler may set one explicitly to re-adopt an
// identifier already written back into a content unit's metadata file.
//
// Referential invariant: every Song.SourceID must point at an existing
// Source and every source author at an existing Person. The reconciler
// persists dependencies before the entities that reference them.
package models
