package cmd

import (
	"context"
	"fmt"

	"songlib/core/config"
	"songlib/core/database"
	"songlib/core/logger"
	"songlib/core/storage"
	"songlib/feature/press"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var forceRender bool

// renderCmd builds typeset score artifacts without starting the server.
var renderCmd = &cobra.Command{
	Use:   "render [song-id]",
	Short: "Render typeset score artifacts",
	Long: `Renders the typeset score artifact for one song, or for every song
with a typeset source when no song id is given. Without --force, songs whose
cached artifact still matches their source are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().BoolVar(&forceRender, "force", false, "Rebuild even when the cached artifact is current")
	RootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	var mirror *press.Mirror
	if cfg.Storage.Enabled {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to connect to storage: %w", err)
		}
		mirror = press.NewMirror(client, cfg.Storage.Bucket, l)
		if err := mirror.EnsureBucket(ctx); err != nil {
			l.Warn("Score mirror unavailable", zap.Error(err))
		}
	}

	renderer := press.NewRenderer(cfg.Press)
	cache := press.NewCache(cfg.Press, renderer, mirror, l)
	service := press.NewService(db, cache, l)

	if len(args) == 1 {
		path, err := service.Rebuild(ctx, args[0])
		if err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		l.Info("Score rendered", zap.String("song_id", args[0]), zap.String("artifact", path))
		return nil
	}

	built, failed, err := service.RebuildAll(ctx, forceRender)
	if err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	l.Info("Render pass finished", zap.Int("built", built), zap.Int("failed", failed))
	if failed > 0 {
		return fmt.Errorf("%d score(s) failed to render", failed)
	}
	return nil
}
