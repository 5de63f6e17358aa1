package repository

import (
	"context"

	"courtbook/pkg/model"
)

// Repository is the persistence boundary of the ledger. Save replaces the
// whole stored collection; Load returns whatever was last saved.
type Repository interface {
	Load(ctx context.Context) ([]*model.Booking, error)
	Save(ctx context.Context, bookings []*model.Booking) error
	Ping(ctx context.Context) error
}

func cloneAll(bookings []*model.Booking) []*model.Booking {
	out := make([]*model.Booking, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, b.Clone())
	}
	return out
}
