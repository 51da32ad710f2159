package library

import (
	"context"
	"errors"
	"fmt"

	"songlib/feature/catalog/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OutcomeKind classifies the result of reconciling one content unit.
type OutcomeKind string

const (
	OutcomeCreated   OutcomeKind = "created"
	OutcomeUpdated   OutcomeKind = "updated"
	OutcomeUnchanged OutcomeKind = "unchanged"
	OutcomeSkipped   OutcomeKind = "skipped"
)

// Outcome is the result of reconciling one content unit.
type Outcome struct {
	Kind   OutcomeKind
	SongID string
	// Reason explains a skip (parse error, ambiguous match).
	Reason string
}

// ScoreBuilder is the press hook the reconciler notifies when a song's
// typeset source changes. Implemented by feature/press; nil disables
// artifact handling entirely.
type ScoreBuilder interface {
	// Invalidate removes the cached artifact for the song.
	Invalidate(songID string) error
	// ScheduleRebuild queues an asynchronous render of the song's score.
	ScheduleRebuild(song *models.Song)
}

// Reconciler brings one catalog song up to date with its content unit.
// It is the unit of work for one directory and is safe to re-run: an
// unchanged record issues zero catalog writes.
type Reconciler struct {
	db        *gorm.DB
	identity  *Resolver
	deps      *DependentResolver
	press     ScoreBuilder
	logger    *zap.Logger
	writeBack bool
}

// NewReconciler creates a reconciler. press may be nil.
func NewReconciler(db *gorm.DB, press ScoreBuilder, logger *zap.Logger, writeBack bool) *Reconciler {
	return &Reconciler{
		db:        db,
		identity:  NewResolver(db, logger),
		deps:      NewDependentResolver(db, logger),
		press:     press,
		logger:    logger,
		writeBack: writeBack,
	}
}

// Deps exposes the dependent-entity resolver, used by the scan driver to
// seed library.json definitions before walking the tree.
func (r *Reconciler) Deps() *DependentResolver {
	return r.deps
}

// Reconcile reads the content unit at dir and upserts it into the catalog.
//
// Parse errors and ambiguous identity matches produce a skipped Outcome
// with a nil error so batch runs continue past one bad unit. A non-nil
// error means the catalog write itself failed; it is fatal to this unit
// only and leaves the previous catalog state untouched.
func (r *Reconciler) Reconcile(ctx context.Context, dir string) (Outcome, error) {
	rec, err := ReadRecord(dir)
	if err != nil {
		r.logger.Warn("Skipping unit with bad metadata", zap.String("dir", dir), zap.Error(err))
		return Outcome{Kind: OutcomeSkipped, Reason: err.Error()}, nil
	}

	existing, err := r.identity.Resolve(ctx, rec)
	if errors.Is(err, ErrAmbiguousMatch) {
		return Outcome{Kind: OutcomeSkipped, Reason: err.Error()}, nil
	}
	if err != nil {
		return Outcome{}, err
	}

	if existing == nil {
		return r.create(ctx, rec)
	}
	return r.update(ctx, rec, existing)
}

func (r *Reconciler) create(ctx context.Context, rec *ContentRecord) (Outcome, error) {
	var recordedBy *models.Person
	if rec.RecordedBy != "" {
		person, err := r.deps.ResolveAuthor(ctx, rec.RecordedBy)
		if err != nil {
			return Outcome{}, err
		}
		recordedBy = person
	}

	source, err := r.deps.ResolveSource(ctx, rec.Source, nil)
	if err != nil {
		return Outcome{}, err
	}

	song := models.Song{
		ID:            rec.ID, // empty mints a fresh one, non-empty re-adopts
		Title:         rec.Title,
		Lytex:         rec.Lytex,
		Verses:        rec.Verses,
		SourceID:      source.ID,
		Signature:     rec.Signature,
		Page:          rec.Page,
		Number:        rec.Number,
		Tempo:         rec.Tempo,
		Type:          rec.Type,
		Year:          rec.Year,
		Location:      rec.Location,
		TranscribedBy: rec.TranscribedBy,
	}
	if recordedBy != nil {
		song.RecordedByID = &recordedBy.ID
	}

	if err := r.db.WithContext(ctx).Create(&song).Error; err != nil {
		return Outcome{}, fmt.Errorf("create song %q: %w", rec.Title, err)
	}

	if rec.ID == "" {
		r.writeBackID(rec.Dir, song.ID)
	}

	if song.Lytex != nil && r.press != nil {
		r.press.ScheduleRebuild(&song)
	}

	r.logger.Info("Created song", zap.String("id", song.ID), zap.String("title", song.Title))
	return Outcome{Kind: OutcomeCreated, SongID: song.ID}, nil
}

func (r *Reconciler) update(ctx context.Context, rec *ContentRecord, existing *models.Song) (Outcome, error) {
	changes := diffScalars(existing, rec)

	// recorded_by is a reference, not a scalar; it is only touched when the
	// record names someone.
	if rec.RecordedBy != "" {
		person, err := r.deps.ResolveAuthor(ctx, rec.RecordedBy)
		if err != nil {
			return Outcome{}, err
		}
		if existing.RecordedByID == nil || *existing.RecordedByID != person.ID {
			changes["recorded_by_id"] = person.ID
		}
	}

	lytexChanged := !equalPayload(existing.Lytex, rec.Lytex)
	if lytexChanged {
		changes["lytex"] = rec.Lytex
	}
	if !equalPayload(existing.Verses, rec.Verses) {
		changes["verses"] = rec.Verses
	}

	// The identifier was assigned externally but never made it back to
	// disk; retry the best-effort write-back so the next run resolves
	// directly.
	if rec.ID == "" {
		r.writeBackID(rec.Dir, existing.ID)
	}

	if len(changes) == 0 {
		return Outcome{Kind: OutcomeUnchanged, SongID: existing.ID}, nil
	}

	if err := r.db.WithContext(ctx).Model(existing).Updates(changes).Error; err != nil {
		return Outcome{}, fmt.Errorf("update song %s: %w", existing.ID, err)
	}

	existing.Lytex = rec.Lytex
	existing.Verses = rec.Verses

	if lytexChanged && r.press != nil {
		if err := r.press.Invalidate(existing.ID); err != nil {
			r.logger.Warn("Failed to invalidate cached score", zap.String("id", existing.ID), zap.Error(err))
		}
		if rec.Lytex != nil {
			r.press.ScheduleRebuild(existing)
		}
	}

	r.logger.Info("Updated song", zap.String("id", existing.ID), zap.Int("fields", len(changes)))
	return Outcome{Kind: OutcomeUpdated, SongID: existing.ID}, nil
}

// writeBackID persists the identifier into the unit's metadata file.
// Failures are logged, never propagated: the catalog write already
// happened and the field-equality fallback keeps future runs correct.
func (r *Reconciler) writeBackID(dir, id string) {
	if !r.writeBack {
		return
	}
	if err := WriteBackID(dir, id); err != nil {
		r.logger.Warn("Failed to write identifier back to metadata",
			zap.String("dir", dir), zap.String("id", id), zap.Error(err))
	}
}

// diffScalars computes the changed scalar, non-nested fields as a gorm
// update map. Empty strings were already normalized to nil at parse time,
// so nil-vs-nil compares equal and re-running on an unchanged record
// produces an empty diff.
func diffScalars(song *models.Song, rec *ContentRecord) map[string]any {
	changes := map[string]any{}

	if song.Title != rec.Title {
		changes["title"] = rec.Title
	}
	diffString(changes, "location", song.Location, rec.Location)
	diffString(changes, "signature", song.Signature, rec.Signature)
	diffString(changes, "type", song.Type, rec.Type)
	diffString(changes, "transcribed_by", song.TranscribedBy, rec.TranscribedBy)
	diffInt(changes, "year", song.Year, rec.Year)
	diffInt(changes, "page", song.Page, rec.Page)
	diffInt(changes, "number", song.Number, rec.Number)
	diffInt(changes, "tempo", song.Tempo, rec.Tempo)

	return changes
}

func diffString(changes map[string]any, column string, have, want *string) {
	if have == nil && want == nil {
		return
	}
	if have != nil && want != nil && *have == *want {
		return
	}
	changes[column] = want
}

func diffInt(changes map[string]any, column string, have, want *int) {
	if have == nil && want == nil {
		return
	}
	if have != nil && want != nil && *have == *want {
		return
	}
	changes[column] = want
}

func equalPayload(have, want *string) bool {
	if have == nil && want == nil {
		return true
	}
	if have == nil || want == nil {
		return false
	}
	return *have == *want
}
