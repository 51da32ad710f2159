package press

// Config holds configuration for the score renderer and build cache.
type Config struct {
	// Enabled turns score rendering on.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Binary is the typesetting executable.
	Binary string `mapstructure:"binary" default:"lilypond"`
	// BuildDir is the artifact root; each song gets one directory under it.
	BuildDir string `mapstructure:"build_dir" default:"./build"`
	// TimeoutSeconds bounds one renderer invocation. The subprocess is
	// killed on expiry and the failure reported as a build error.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"120"`
	// Workers is the maximum number of concurrent renderer subprocesses.
	Workers int `mapstructure:"workers" default:"2"`
	// PostProcess is an optional command run on the finished artifact
	// (e.g. tone inversion for the dark theme). It receives the artifact
	// path as its only argument. Empty disables post-processing.
	PostProcess string `mapstructure:"post_process" default:""`
}
