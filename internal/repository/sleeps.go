package repository

import (
	"context"
	"errors"

	"github.com/modtrackin/modtrackin/internal/constants"
	"github.com/modtrackin/modtrackin/internal/docstore"
	"github.com/modtrackin/modtrackin/internal/models"
	"github.com/modtrackin/modtrackin/internal/utils"
)

// SleepRepository keeps at most one entry per user and bedtime date.
type SleepRepository struct {
	records[models.SleepEntry]
}

func NewSleepRepository(deps Deps) *SleepRepository {
	return &SleepRepository{newRecords(deps, constants.CollectionSleeps, func(e *models.SleepEntry, id string) { e.ID = id })}
}

// Save upserts entry at (user, date of StartTime). Date and DurationHours are
// derived from the start and end times.
func (r *SleepRepository) Save(ctx context.Context, entry models.SleepEntry) (models.SleepEntry, error) {
	uid, err := r.uid()
	if err != nil {
		return entry, err
	}
	loc := r.deps.location()
	entry.UserID = uid
	entry.Date = utils.DateString(entry.StartTime.In(loc))
	entry.ID = models.SleepEntryID(uid, entry.Date)
	entry.DurationHours = utils.SleepHoursBetween(entry.StartTime.In(loc), entry.EndTime.In(loc))
	entry.StartTime = stamp(entry.StartTime)
	entry.EndTime = stamp(entry.EndTime)

	if _, err := r.put(ctx, entry.ID, entry); err != nil {
		return entry, err
	}
	return r.localize(entry), nil
}

// localize converts stored UTC instants back to the repository zone and
// recomputes the duration from them.
func (r *SleepRepository) localize(e models.SleepEntry) models.SleepEntry {
	loc := r.deps.location()
	e.StartTime = e.StartTime.In(loc)
	e.EndTime = e.EndTime.In(loc)
	e.DurationHours = utils.SleepHoursBetween(e.StartTime, e.EndTime)
	return e
}

// GetDay returns the entry whose bedtime falls on day.
func (r *SleepRepository) GetDay(ctx context.Context, day string) (models.SleepEntry, bool, error) {
	uid, err := r.uid()
	if err != nil {
		return models.SleepEntry{}, false, err
	}
	entry, err := r.get(ctx, models.SleepEntryID(uid, day))
	if errors.Is(err, docstore.ErrNotFound) {
		return models.SleepEntry{}, false, nil
	}
	if err != nil {
		return models.SleepEntry{}, false, err
	}
	return r.localize(entry), true, nil
}

// History returns the most recent nights, newest bedtime first.
func (r *SleepRepository) History(ctx context.Context) ([]models.SleepEntry, error) {
	entries, err := r.list(ctx, docstore.Query{
		OrderBy:   constants.FieldStartTime,
		Direction: docstore.Descending,
		Limit:     constants.SleepHistoryLimit,
	})
	if err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i] = r.localize(entries[i])
	}
	return entries, nil
}

func (r *SleepRepository) Delete(ctx context.Context, id string) error {
	return r.remove(ctx, id)
}
