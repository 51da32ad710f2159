package library

// Config holds configuration for the content tree scan and watch.
type Config struct {
	// ContentDir is the root of the content tree (one subdirectory per song).
	ContentDir string `mapstructure:"content_dir" default:"./data"`
	// ScanOnStart runs a full library scan when the daemon starts.
	ScanOnStart bool `mapstructure:"scan_on_start" default:"true"`
	// Watch enables the filesystem change watcher.
	Watch bool `mapstructure:"watch" default:"true"`
	// DebounceMillis is how long the watcher waits after the last event for
	// a directory before reconciling it. Editors fire several writes per
	// save; one reconcile per burst is enough.
	DebounceMillis int `mapstructure:"debounce_millis" default:"500"`
	// WriteBackIDs writes freshly minted identifiers back into metadata.json.
	WriteBackIDs bool `mapstructure:"write_back_ids" default:"true"`
}
