// Package utils contains small type-coercion helpers for loosely typed
// metadata values read from content trees.
package utils
