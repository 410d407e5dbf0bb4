// Package store persists care events. Repository is the contract shared
// by the SQLite and in-memory implementations; Publisher wraps either one
// and pushes a fresh snapshot to subscribers after every write.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/lhuanyu/Sumeru/internal/model"
)

var (
	ErrNotFound = errors.New("care event not found")
	// ErrConflict is returned by Insert when the id is already taken.
	ErrConflict = errors.New("care event already exists")
)

type Repository interface {
	// Insert validates and stores e, assigning e.ID when it is zero.
	Insert(ctx context.Context, e *model.CareEvent) error
	Update(ctx context.Context, e model.CareEvent) error
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteMany removes all ids or none of them.
	DeleteMany(ctx context.Context, ids []uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (model.CareEvent, error)
	// ListAll returns every event, newest timestamp first.
	ListAll(ctx context.Context) ([]model.CareEvent, error)
}
