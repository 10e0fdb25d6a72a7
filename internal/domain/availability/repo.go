package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/patientcare/patientcare/internal/platform/apperr"
	"github.com/patientcare/patientcare/internal/platform/kvstore"
	"github.com/patientcare/patientcare/internal/platform/metrics"
)

const saveFailed = "Failed to save availability"

// Key returns the document key for doctorID.
func Key(doctorID string) string {
	return "patientcare_availability_" + doctorID
}

type Repository interface {
	Get(ctx context.Context, doctorID string) (*Availability, error)
	Put(ctx context.Context, doctorID string, a *Availability) error
	Update(ctx context.Context, doctorID string, fn func(a *Availability) error) (*Availability, error)
}

// StoreRepo keeps one document per doctor. A missing or undecodable document
// reads as the default schedule; the corrupt case is logged and the next
// write replaces it.
type StoreRepo struct {
	store   kvstore.Store
	metrics *metrics.StoreMetrics
	logger  zerolog.Logger
}

func NewStoreRepo(store kvstore.Store, m *metrics.StoreMetrics, logger zerolog.Logger) *StoreRepo {
	return &StoreRepo{store: store, metrics: m, logger: logger}
}

func (r *StoreRepo) decode(doctorID string, data []byte, exists bool) *Availability {
	if !exists {
		return Default()
	}
	var a Availability
	if err := json.Unmarshal(data, &a); err != nil || a.WeeklySchedule == nil {
		r.logger.Warn().Err(err).Str("doctor_id", doctorID).Msg("corrupt availability document, using default schedule")
		return Default()
	}
	a.normalize()
	return &a
}

func (r *StoreRepo) Get(ctx context.Context, doctorID string) (*Availability, error) {
	data, err := r.store.Get(ctx, Key(doctorID))
	if errors.Is(err, kvstore.ErrNotFound) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}
	return r.decode(doctorID, data, true), nil
}

func (r *StoreRepo) Put(ctx context.Context, doctorID string, a *Availability) error {
	a.normalize()
	err := kvstore.PutJSON(ctx, r.store, Key(doctorID), a)
	r.metrics.ObserveWrite("availability", err)
	return apperr.WrapStore(saveFailed, err)
}

// Update applies fn to the current document and writes the result in one
// atomic step. Errors from fn leave the stored document untouched.
func (r *StoreRepo) Update(ctx context.Context, doctorID string, fn func(a *Availability) error) (*Availability, error) {
	var result *Availability
	err := r.store.Update(ctx, Key(doctorID), func(current []byte, exists bool) ([]byte, error) {
		a := r.decode(doctorID, current, exists)
		if err := fn(a); err != nil {
			return nil, err
		}
		a.normalize()
		data, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("encode availability: %w", err)
		}
		result = a
		return data, nil
	})
	if apperr.IsDomain(err) {
		return nil, err
	}
	r.metrics.ObserveWrite("availability", err)
	if err != nil {
		return nil, apperr.WrapStore(saveFailed, err)
	}
	return result, nil
}
