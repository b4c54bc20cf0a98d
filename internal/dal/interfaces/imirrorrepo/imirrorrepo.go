package imirrorrepo

import (
	"context"

	"github.com/corray333/fasttech/internal/service/models/mirror"
)

// IMirrorRepository is an interface for the kitchen order mirror.
type IMirrorRepository interface {
	GetByID(ctx context.Context, id string) (mirror.Order, bool, error)
	// Insert returns false when a mirror with the same id already exists.
	Insert(ctx context.Context, o mirror.Order) (bool, error)
	// SetStatus returns false when there is no mirror with the id.
	SetStatus(ctx context.Context, id string, u mirror.StatusUpdate) (bool, error)
	ListByStatus(ctx context.Context, status mirror.Status, limit int) ([]mirror.Order, error)
}
