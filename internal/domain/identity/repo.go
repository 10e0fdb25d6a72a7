package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/patientcare/patientcare/internal/platform/apperr"
	"github.com/patientcare/patientcare/internal/platform/kvstore"
	"github.com/patientcare/patientcare/internal/platform/metrics"
)

// CollectionKey is the document holding every registered user.
const CollectionKey = "registeredUsers"

type Repository interface {
	List(ctx context.Context) ([]*User, error)
	Create(ctx context.Context, u *User) error
}

type StoreRepo struct {
	store   kvstore.Store
	metrics *metrics.StoreMetrics
}

func NewStoreRepo(store kvstore.Store, m *metrics.StoreMetrics) *StoreRepo {
	return &StoreRepo{store: store, metrics: m}
}

func (r *StoreRepo) List(ctx context.Context) ([]*User, error) {
	var users []*User
	err := kvstore.GetJSON(ctx, r.store, CollectionKey, &users)
	if errors.Is(err, kvstore.ErrNotFound) {
		return []*User{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	return users, nil
}

// Create appends u unless its id or email is already registered.
func (r *StoreRepo) Create(ctx context.Context, u *User) error {
	err := kvstore.UpdateJSON(ctx, r.store, CollectionKey, func(users *[]*User) error {
		for _, existing := range *users {
			if existing.ID == u.ID {
				return apperr.Invalid("user %s is already registered", u.ID)
			}
			if equalEmail(existing.Email, u.Email) {
				v := apperr.NewValidation("Registration failed")
				v.Add("email", "An account with this email already exists")
				return v
			}
		}
		*users = append(*users, u)
		return nil
	})
	if apperr.IsDomain(err) {
		return err
	}
	r.metrics.ObserveWrite("users", err)
	return apperr.WrapStore("Failed to save user", err)
}
