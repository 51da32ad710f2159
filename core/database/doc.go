// Package database provides the GORM connection for the song catalog.
//
// Two drivers are supported: sqlite (default; the catalog lives next to the
// content tree) and mysql for shared multi-reader deployments. Schema
// migration is owned by the features: each feature package exposes a
// Migrate(db) helper that cmd/start.go and the one-shot commands call after
// connecting.
//
// No global handle is kept; the *gorm.DB returned by Connect is passed
// explicitly to every service that needs it.
package database
