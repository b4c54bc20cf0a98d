package isequencerepo

import (
	"context"
	"time"
)

// ISequenceRepository hands out order number sequences scoped per calendar day.
type ISequenceRepository interface {
	Next(ctx context.Context, day time.Time) (int64, error)
}
