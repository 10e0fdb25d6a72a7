package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/patientcare/patientcare/internal/platform/apperr"
	"github.com/patientcare/patientcare/internal/platform/kvstore"
	"github.com/patientcare/patientcare/internal/platform/metrics"
)

// CollectionKey is the document holding every review.
const CollectionKey = "patientcare_reviews"

type Repository interface {
	List(ctx context.Context) ([]*Review, error)
	Upsert(ctx context.Context, r *Review) error
}

// StoreRepo keeps the review collection as one JSON array.
type StoreRepo struct {
	store   kvstore.Store
	metrics *metrics.StoreMetrics
}

func NewStoreRepo(store kvstore.Store, m *metrics.StoreMetrics) *StoreRepo {
	return &StoreRepo{store: store, metrics: m}
}

func (r *StoreRepo) List(ctx context.Context) ([]*Review, error) {
	var items []*Review
	err := kvstore.GetJSON(ctx, r.store, CollectionKey, &items)
	if errors.Is(err, kvstore.ErrNotFound) {
		return []*Review{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load reviews: %w", err)
	}
	return items, nil
}

// Upsert appends rv, or replaces the review the same patient already left for
// the same doctor. On replace rv keeps the stored ID and CreatedAt, and its own
// CreatedAt becomes UpdatedAt.
func (r *StoreRepo) Upsert(ctx context.Context, rv *Review) error {
	err := kvstore.UpdateJSON(ctx, r.store, CollectionKey, func(items *[]*Review) error {
		for _, existing := range *items {
			if existing.DoctorID == rv.DoctorID && existing.PatientID == rv.PatientID {
				rv.UpdatedAt = rv.CreatedAt
				rv.ID = existing.ID
				rv.CreatedAt = existing.CreatedAt
				*existing = *rv
				return nil
			}
		}
		*items = append(*items, rv)
		return nil
	})
	r.metrics.ObserveWrite("reviews", err)
	return apperr.WrapStore("Failed to save review", err)
}
