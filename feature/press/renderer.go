package press

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Artifact file names inside a song's build directory.
const (
	ScoreSourceFile = "source.lytex"
	ArtifactFile    = "source.pdf"
)

// Renderer invokes the external typesetting toolchain for one song.
// Success is determined solely by the process exit status and the presence
// of the expected output file.
type Renderer struct {
	binary        string
	postProcess   string
	timeout       time.Duration
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewRenderer creates a renderer from configuration.
func NewRenderer(cfg Config) *Renderer {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Renderer{
		binary:      cfg.Binary,
		postProcess: cfg.PostProcess,
		timeout:     timeout,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (r *Renderer) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	r.commandRunner = runner
}

// Render typesets lytex into destDir and returns the artifact path.
// The subprocess is bounded by the configured timeout; on expiry it is
// killed and the timeout surfaces as an error the cache wraps into a
// BuildError.
func (r *Renderer) Render(ctx context.Context, lytex, destDir string) (string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("ensure build dir: %w", err)
	}

	srcPath := filepath.Join(destDir, ScoreSourceFile)
	if err := os.WriteFile(srcPath, []byte(lytex), 0o644); err != nil {
		return "", fmt.Errorf("write score source: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.run(ctx, r.binary, "-o", destDir, srcPath); err != nil {
		return "", err
	}

	artifact := filepath.Join(destDir, ArtifactFile)
	if _, err := os.Stat(artifact); err != nil {
		return "", fmt.Errorf("renderer exited cleanly but produced no %s: %w", ArtifactFile, err)
	}

	if r.postProcess != "" {
		if err := r.run(ctx, r.postProcess, artifact); err != nil {
			return "", fmt.Errorf("post-process: %w", err)
		}
	}

	return artifact, nil
}

// run executes a command, using the custom runner if set.
func (r *Renderer) run(ctx context.Context, name string, args ...string) error {
	if r.commandRunner != nil {
		return r.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
