package storage

import (
	"context"
	"errors"

	"ammLedger/internal/model"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// Mutation computes the next pool and position from a snapshot. Returning
// an error discards the whole update.
type Mutation func(pool model.Pool, position model.Position) (model.Pool, model.Position, error)

// LedgerStore persists admins, pools and positions. Apply must serialize all
// updates of one pool and commit pool and position together or not at all.
type LedgerStore interface {
	CreateAdmin(ctx context.Context, admin model.Admin) error
	GetAdmin(ctx context.Context, authority string) (model.Admin, error)
	CreatePool(ctx context.Context, pool model.Pool) error
	GetPool(ctx context.Context, id string) (model.Pool, error)
	ListPools(ctx context.Context, authority string) ([]model.Pool, error)
	GetPosition(ctx context.Context, poolID, owner string) (model.Position, error)
	Apply(ctx context.Context, poolID, owner string, fn Mutation) (model.Pool, model.Position, error)
}

// EventSink receives settled events.
type EventSink interface {
	PutEventBatch(ctx context.Context, events []model.Event) error
}
