package repository

import (
	"context"

	"github.com/modtrackin/modtrackin/internal/constants"
	"github.com/modtrackin/modtrackin/internal/docstore"
	"github.com/modtrackin/modtrackin/internal/models"
)

type TaskRepository struct {
	records[models.Task]
}

func NewTaskRepository(deps Deps) *TaskRepository {
	return &TaskRepository{newRecords(deps, constants.CollectionTasks, func(t *models.Task, id string) { t.ID = id })}
}

var tasksNewestFirst = docstore.Query{OrderBy: constants.FieldCreatedAt, Direction: docstore.Descending}

// List returns the user's tasks, newest first.
func (r *TaskRepository) List(ctx context.Context) ([]models.Task, error) {
	return r.list(ctx, tasksNewestFirst)
}

func (r *TaskRepository) Get(ctx context.Context, id string) (models.Task, error) {
	return r.get(ctx, id)
}

// DueBetween returns tasks whose due date falls in [from, to], both YYYY-MM-DD.
func (r *TaskRepository) DueBetween(ctx context.Context, from, to string) ([]models.Task, error) {
	return r.list(ctx, docstore.Query{
		Filters: []docstore.Filter{
			docstore.Where("dueDate", docstore.OpGreaterOrEqual, from),
			docstore.Where("dueDate", docstore.OpLessOrEqual, to),
		},
		OrderBy: "dueDate",
	})
}

// Save inserts the task when its ID is empty and otherwise overwrites the
// whole stored document, so task must be a complete, freshly read record.
// The saved task is returned with its ID and creation time filled in.
func (r *TaskRepository) Save(ctx context.Context, task models.Task) (models.Task, error) {
	uid, err := r.uid()
	if err != nil {
		return task, err
	}
	task.UserID = uid
	if task.CreatedAt.IsZero() {
		task.CreatedAt = r.deps.now()
	}
	task.CreatedAt = stamp(task.CreatedAt)
	if task.Priority == "" {
		task.Priority = models.PriorityLow
	}

	id, err := r.put(ctx, task.ID, task)
	if err != nil {
		return task, err
	}
	task.ID = id
	return task, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	return r.remove(ctx, id)
}

// Listen delivers the full task list on every change.
func (r *TaskRepository) Listen(ctx context.Context, fn func([]models.Task, error)) (docstore.Subscription, error) {
	return r.listen(ctx, tasksNewestFirst, fn)
}
