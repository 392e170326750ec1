package repository

import (
	"context"
	"errors"

	"github.com/modtrackin/modtrackin/internal/constants"
	"github.com/modtrackin/modtrackin/internal/docstore"
	"github.com/modtrackin/modtrackin/internal/models"
)

// EmotionRepository keeps at most one entry per user and day, stored at
// models.EmotionEntryID.
type EmotionRepository struct {
	records[models.EmotionEntry]
}

func NewEmotionRepository(deps Deps) *EmotionRepository {
	return &EmotionRepository{newRecords(deps, constants.CollectionEmotions, func(e *models.EmotionEntry, id string) { e.ID = id })}
}

// Save upserts entry at (user, entry.DateString), defaulting the date to
// today. Saving twice for a day replaces the first entry.
func (r *EmotionRepository) Save(ctx context.Context, entry models.EmotionEntry) (models.EmotionEntry, error) {
	uid, err := r.uid()
	if err != nil {
		return entry, err
	}
	if entry.DateString == "" {
		entry.DateString = r.Today()
	}
	entry.UserID = uid
	entry.ID = models.EmotionEntryID(uid, entry.DateString)
	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.deps.now()
	}
	entry.Timestamp = stamp(entry.Timestamp)

	if _, err := r.put(ctx, entry.ID, entry); err != nil {
		return entry, err
	}
	return entry, nil
}

// GetDay returns the entry for day, reporting false when there is none.
func (r *EmotionRepository) GetDay(ctx context.Context, day string) (models.EmotionEntry, bool, error) {
	uid, err := r.uid()
	if err != nil {
		return models.EmotionEntry{}, false, err
	}
	entry, err := r.get(ctx, models.EmotionEntryID(uid, day))
	if errors.Is(err, docstore.ErrNotFound) {
		return models.EmotionEntry{}, false, nil
	}
	if err != nil {
		return models.EmotionEntry{}, false, err
	}
	return entry, true, nil
}

func (r *EmotionRepository) GetToday(ctx context.Context) (models.EmotionEntry, bool, error) {
	return r.GetDay(ctx, r.Today())
}

// History returns every entry for the user, most recent day first.
func (r *EmotionRepository) History(ctx context.Context) ([]models.EmotionEntry, error) {
	return r.list(ctx, docstore.Query{OrderBy: constants.FieldDateString, Direction: docstore.Descending})
}
