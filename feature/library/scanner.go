package library

import (
	"context"
	"io/fs"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// ScanSummary aggregates the outcomes of one pass over the content tree.
type ScanSummary struct {
	Created   int           `json:"created"`
	Updated   int           `json:"updated"`
	Unchanged int           `json:"unchanged"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}

// Total returns the number of content units visited.
func (s ScanSummary) Total() int {
	return s.Created + s.Updated + s.Unchanged + s.Skipped + s.Failed
}

// Scanner walks the full content tree once, reconciling every content unit
// found. It is used for the cold start and for manual resyncs. Two scans
// must not run concurrently against the same tree; the caller serializes.
type Scanner struct {
	rec    *Reconciler
	logger *zap.Logger
}

// NewScanner creates a scan driver over the given reconciler.
func NewScanner(rec *Reconciler, logger *zap.Logger) *Scanner {
	return &Scanner{rec: rec, logger: logger}
}

// Scan seeds library.json definitions, then walks root for metadata.json
// files and reconciles each containing directory. Per-unit failures are
// counted and never abort the pass.
func (s *Scanner) Scan(ctx context.Context, root string) (ScanSummary, error) {
	started := time.Now()
	var summary ScanSummary

	defs, err := ReadLibraryDefs(root)
	if err != nil {
		// A broken library.json does not block song reconciliation.
		s.logger.Warn("Failed to read library definitions", zap.Error(err))
	} else if defs != nil {
		if err := s.rec.Deps().SeedFromDefs(ctx, defs); err != nil {
			s.logger.Warn("Failed to seed library definitions", zap.Error(err))
		}
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || d.Name() != MetadataFile {
			return nil
		}

		outcome, recErr := s.rec.Reconcile(ctx, filepath.Dir(path))
		switch {
		case recErr != nil:
			summary.Failed++
			s.logger.Error("Reconciliation failed", zap.String("dir", filepath.Dir(path)), zap.Error(recErr))
		case outcome.Kind == OutcomeCreated:
			summary.Created++
		case outcome.Kind == OutcomeUpdated:
			summary.Updated++
		case outcome.Kind == OutcomeUnchanged:
			summary.Unchanged++
		case outcome.Kind == OutcomeSkipped:
			summary.Skipped++
		}
		return nil
	})

	summary.Duration = time.Since(started)
	s.logger.Info("Library scan finished",
		zap.Int("total", summary.Total()),
		zap.Int("created", summary.Created),
		zap.Int("updated", summary.Updated),
		zap.Int("unchanged", summary.Unchanged),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Duration("duration", summary.Duration),
	)
	return summary, err
}
