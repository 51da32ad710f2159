// Package server holds the configuration for the HTTP layer.
//
// The actual Fiber application is assembled in cmd/start.go; this package
// only carries the settings (port, API key) so that core/config can bind them.
package server
