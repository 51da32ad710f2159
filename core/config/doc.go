// Package config assembles the application configuration from environment
// variables and an optional .env file.
//
// Defaults are declared as 'default' struct tags on the partial Config
// structs owned by each package (core/server, core/logger, core/database,
// core/storage, feature/library, feature/press) and bound into Viper by
// reflection, so every key is overridable via the environment, e.g.
// LIBRARY_CONTENT_DIR, DATABASE_DRIVER, PRESS_BINARY.
package config
