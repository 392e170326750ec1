package repository

import (
	"context"

	"github.com/modtrackin/modtrackin/internal/constants"
	"github.com/modtrackin/modtrackin/internal/docstore"
	"github.com/modtrackin/modtrackin/internal/models"
)

type HabitRepository struct {
	records[models.Habit]
}

func NewHabitRepository(deps Deps) *HabitRepository {
	return &HabitRepository{newRecords(deps, constants.CollectionHabits, func(h *models.Habit, id string) { h.ID = id })}
}

var habitsNewestFirst = docstore.Query{OrderBy: constants.FieldCreatedAt, Direction: docstore.Descending}

func (r *HabitRepository) List(ctx context.Context) ([]models.Habit, error) {
	return r.list(ctx, habitsNewestFirst)
}

func (r *HabitRepository) Get(ctx context.Context, id string) (models.Habit, error) {
	return r.get(ctx, id)
}

// Save follows the same insert-or-overwrite policy as TaskRepository.Save.
// Category and daily goal fall back to their defaults when unset.
func (r *HabitRepository) Save(ctx context.Context, habit models.Habit) (models.Habit, error) {
	uid, err := r.uid()
	if err != nil {
		return habit, err
	}
	habit.UserID = uid
	if habit.CreatedAt.IsZero() {
		habit.CreatedAt = r.deps.now()
	}
	habit.CreatedAt = stamp(habit.CreatedAt)
	if habit.Category == "" {
		habit.Category = constants.DefaultHabitCategory
	}
	if habit.DailyGoal <= 0 {
		habit.DailyGoal = constants.DefaultHabitGoalMin
	}
	if habit.History == nil {
		habit.History = map[string]int{}
	}

	id, err := r.put(ctx, habit.ID, habit)
	if err != nil {
		return habit, err
	}
	habit.ID = id
	return habit, nil
}

// AddMinutes adds delta minutes to habit's history on day and writes the
// whole record back. It works from the caller's copy; a concurrent update
// made elsewhere since that copy was read is overwritten. A non-positive
// delta changes nothing and reports false.
func (r *HabitRepository) AddMinutes(ctx context.Context, habit models.Habit, day string, delta int) (models.Habit, bool, error) {
	if _, err := r.uid(); err != nil {
		return habit, false, err
	}
	updated, ok := habit.WithMinutesAdded(day, delta)
	if !ok {
		return habit, false, nil
	}
	saved, err := r.Save(ctx, updated)
	if err != nil {
		return habit, false, err
	}
	return saved, true, nil
}

func (r *HabitRepository) Delete(ctx context.Context, id string) error {
	return r.remove(ctx, id)
}

func (r *HabitRepository) Listen(ctx context.Context, fn func([]models.Habit, error)) (docstore.Subscription, error) {
	return r.listen(ctx, habitsNewestFirst, fn)
}
