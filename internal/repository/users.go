package repository

import (
	"context"

	"github.com/modtrackin/modtrackin/internal/constants"
	apperrors "github.com/modtrackin/modtrackin/internal/errors"
	"github.com/modtrackin/modtrackin/internal/models"
)

// UserRepository stores the profile written at registration under users/{uid}.
type UserRepository struct {
	records[models.User]
}

func NewUserRepository(deps Deps) *UserRepository {
	return &UserRepository{newRecords(deps, constants.CollectionUsers, func(u *models.User, id string) { u.UID = id })}
}

// Create writes the profile for the signed-in user.
func (r *UserRepository) Create(ctx context.Context, name, email string) (models.User, error) {
	uid, err := r.uid()
	if err != nil {
		return models.User{}, err
	}
	user := models.User{UID: uid, Name: name, Email: email}
	fields, err := encode(user)
	if err != nil {
		return user, apperrors.Store("encode", r.name, err)
	}
	// Profiles are keyed by uid; userId makes them visible to owner-scoped reads.
	fields[constants.FieldUserID] = uid
	if err := r.coll.Set(ctx, uid, fields); err != nil {
		return user, apperrors.Store("set", r.name, err)
	}
	return user, nil
}

// Current returns the signed-in user's profile.
func (r *UserRepository) Current(ctx context.Context) (models.User, error) {
	uid, err := r.uid()
	if err != nil {
		return models.User{}, err
	}
	return r.get(ctx, uid)
}
