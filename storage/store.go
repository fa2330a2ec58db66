package storage

import (
	"context"

	"github.com/google/uuid"
	"bnbtrack/models"
)

// Store is the persistence contract for listings and acquisition runs.
// Implementations return models.ErrNotFound for missing listings and wrap
// everything else in models.ErrStoreIO.
type Store interface {
	// Upsert saves the listing and its images as one transaction. An
	// existing listing is fully replaced, images included.
	Upsert(ctx context.Context, listing *models.Listing) error
	GetByID(ctx context.Context, id int64) (*models.Listing, error)
	// GetByLocation matches the stored location case-insensitively as a
	// substring, ordered by listing id.
	GetByLocation(ctx context.Context, location string) ([]models.Listing, error)
	All(ctx context.Context) ([]models.Listing, error)
	Count(ctx context.Context) (int, error)
	UpdateNotes(ctx context.Context, id int64, notes string) error
	Delete(ctx context.Context, id int64) error

	CreateRun(ctx context.Context, run *models.AcquisitionRun) error
	FinishRun(ctx context.Context, id uuid.UUID, status, errMsg string) error

	Close() error
}
