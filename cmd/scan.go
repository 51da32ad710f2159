package cmd

import (
	"context"
	"fmt"

	"songlib/core/config"
	"songlib/core/database"
	"songlib/core/logger"
	"songlib/feature/catalog/models"
	"songlib/feature/library"
	"songlib/feature/press"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// scanCmd runs one full reconciliation pass and exits.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Reconcile the content tree into the catalog once",
	Long: `Walks the content tree, reconciles every song directory into the
catalog database and prints a summary. Typeset renders triggered by changed
sources run in the background of the server; this command only updates the
catalog.`,
	RunE: runScan,
}

func init() {
	RootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
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
	if err := models.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate catalog schema: %w", err)
	}

	renderer := press.NewRenderer(cfg.Press)
	cache := press.NewCache(cfg.Press, renderer, nil, l)

	reconciler := library.NewReconciler(db, cache, l, cfg.Library.WriteBackIDs)
	scanner := library.NewScanner(reconciler, l)

	summary, err := scanner.Scan(ctx, cfg.Library.ContentDir)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	l.Info("Scan finished",
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("unchanged", summary.Unchanged),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Duration("duration", summary.Duration),
	)
	return nil
}
