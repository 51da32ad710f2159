// Package songbook manages user-curated, ordered collections of catalog
// songs.
//
// Each entry carries a zero-based position and positions within a songbook
// are always dense: exactly {0, 1, …, n-1} for n entries. Appends take the
// next free position, removals shift everything behind the hole down by
// one, and reorders rewrite all positions from a caller-supplied song id
// list that may be partial. All position mutations run inside a single
// database transaction.
package songbook
