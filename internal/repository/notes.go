package repository

import (
	"context"

	"github.com/modtrackin/modtrackin/internal/constants"
	"github.com/modtrackin/modtrackin/internal/docstore"
	"github.com/modtrackin/modtrackin/internal/models"
)

type NoteRepository struct {
	records[models.Note]
}

func NewNoteRepository(deps Deps) *NoteRepository {
	return &NoteRepository{newRecords(deps, constants.CollectionNotes, func(n *models.Note, id string) { n.ID = id })}
}

var notesNewestFirst = docstore.Query{OrderBy: constants.FieldTimestamp, Direction: docstore.Descending}

func (r *NoteRepository) List(ctx context.Context) ([]models.Note, error) {
	return r.list(ctx, notesNewestFirst)
}

func (r *NoteRepository) Get(ctx context.Context, id string) (models.Note, error) {
	return r.get(ctx, id)
}

// Save follows the same insert-or-overwrite policy as TaskRepository.Save.
func (r *NoteRepository) Save(ctx context.Context, note models.Note) (models.Note, error) {
	uid, err := r.uid()
	if err != nil {
		return note, err
	}
	note.UserID = uid
	if note.Timestamp.IsZero() {
		note.Timestamp = r.deps.now()
	}
	note.Timestamp = stamp(note.Timestamp)

	id, err := r.put(ctx, note.ID, note)
	if err != nil {
		return note, err
	}
	note.ID = id
	return note, nil
}

func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	return r.remove(ctx, id)
}

func (r *NoteRepository) Listen(ctx context.Context, fn func([]models.Note, error)) (docstore.Subscription, error) {
	return r.listen(ctx, notesNewestFirst, fn)
}
