package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/patientcare/patientcare/internal/platform/apperr"
	"github.com/patientcare/patientcare/internal/platform/kvstore"
	"github.com/patientcare/patientcare/internal/platform/metrics"
)

// CollectionKey is the document holding every appointment.
const CollectionKey = "patientcare_appointments"

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id string) (*Appointment, error)
	List(ctx context.Context) ([]*Appointment, error)
	Update(ctx context.Context, id string, fn func(a *Appointment) error) (*Appointment, error)
}

// StoreRepo keeps the appointment collection as one JSON array.
type StoreRepo struct {
	store   kvstore.Store
	metrics *metrics.StoreMetrics
}

func NewStoreRepo(store kvstore.Store, m *metrics.StoreMetrics) *StoreRepo {
	return &StoreRepo{store: store, metrics: m}
}

func (r *StoreRepo) List(ctx context.Context) ([]*Appointment, error) {
	var items []*Appointment
	err := kvstore.GetJSON(ctx, r.store, CollectionKey, &items)
	if errors.Is(err, kvstore.ErrNotFound) {
		return []*Appointment{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}
	return items, nil
}

func (r *StoreRepo) GetByID(ctx context.Context, id string) (*Appointment, error) {
	items, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range items {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, fmt.Errorf("appointment %s: %w", id, apperr.ErrNotFound)
}

// mutate runs fn over the collection as one atomic update. Store failures
// are counted and wrapped; errors returned by fn pass through.
func (r *StoreRepo) mutate(ctx context.Context, fn func(items *[]*Appointment) error) error {
	err := kvstore.UpdateJSON(ctx, r.store, CollectionKey, fn)
	if apperr.IsDomain(err) {
		return err
	}
	r.metrics.ObserveWrite("appointments", err)
	return apperr.WrapStore("Failed to save appointment", err)
}

func (r *StoreRepo) Create(ctx context.Context, a *Appointment) error {
	return r.mutate(ctx, func(items *[]*Appointment) error {
		*items = append(*items, a)
		return nil
	})
}

func (r *StoreRepo) Update(ctx context.Context, id string, fn func(a *Appointment) error) (*Appointment, error) {
	var updated *Appointment
	err := r.mutate(ctx, func(items *[]*Appointment) error {
		for _, a := range *items {
			if a.ID == id {
				if err := fn(a); err != nil {
					return err
				}
				updated = a
				return nil
			}
		}
		return fmt.Errorf("appointment %s: %w", id, apperr.ErrNotFound)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
