// Package storage provides the object-storage client used to mirror
// rendered score artifacts.
//
// The primary copy of every artifact lives on local disk (lilypond writes
// there and the HTTP layer serves from there); the mirror exists so a CDN or
// a second instance can pick finished renders up from a bucket. The Client
// interface wraps the Minio SDK and is mocked in core/storage/mocks for
// tests.
package storage
