package records

import (
	"context"
	"errors"
	"fmt"

	"github.com/patientcare/patientcare/internal/platform/apperr"
	"github.com/patientcare/patientcare/internal/platform/hipaa"
	"github.com/patientcare/patientcare/internal/platform/kvstore"
	"github.com/patientcare/patientcare/internal/platform/metrics"
)

// Key returns the document key holding doctorID's records.
func Key(doctorID string) string {
	return "patientcare_patient_records_" + doctorID
}

type Repository interface {
	List(ctx context.Context, doctorID string) ([]*PatientRecord, error)
	Update(ctx context.Context, doctorID string, fn func(items *[]*PatientRecord) error) error
}

// StoreRepo keeps each doctor's records as one JSON array. CPR and phone
// are passed through cipher on the way in and out.
type StoreRepo struct {
	store   kvstore.Store
	metrics *metrics.StoreMetrics
	cipher  hipaa.FieldCipher
}

// NewStoreRepo creates the repository. A nil cipher stores plaintext.
func NewStoreRepo(store kvstore.Store, m *metrics.StoreMetrics, cipher hipaa.FieldCipher) *StoreRepo {
	if cipher == nil {
		cipher = hipaa.Plaintext{}
	}
	return &StoreRepo{store: store, metrics: m, cipher: cipher}
}

func (r *StoreRepo) List(ctx context.Context, doctorID string) ([]*PatientRecord, error) {
	var items []*PatientRecord
	err := kvstore.GetJSON(ctx, r.store, Key(doctorID), &items)
	if errors.Is(err, kvstore.ErrNotFound) {
		return []*PatientRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load patient records: %w", err)
	}
	if err := r.decryptAll(items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *StoreRepo) Update(ctx context.Context, doctorID string, fn func(items *[]*PatientRecord) error) error {
	err := kvstore.UpdateJSON(ctx, r.store, Key(doctorID), func(items *[]*PatientRecord) error {
		if err := r.decryptAll(*items); err != nil {
			return err
		}
		if err := fn(items); err != nil {
			return err
		}
		return r.encryptAll(*items)
	})
	if apperr.IsDomain(err) {
		return err
	}
	r.metrics.ObserveWrite("patient_records", err)
	return apperr.WrapStore("Failed to save patient records", err)
}

// -- PHI encryption helpers --

func (r *StoreRepo) encryptAll(items []*PatientRecord) error {
	for _, p := range items {
		if err := r.encryptField(&p.CPRNumber); err != nil {
			return err
		}
		if err := r.encryptField(&p.ContactInfo.PhoneNumber); err != nil {
			return err
		}
	}
	return nil
}

func (r *StoreRepo) decryptAll(items []*PatientRecord) error {
	for _, p := range items {
		if err := r.decryptField(&p.CPRNumber); err != nil {
			return err
		}
		if err := r.decryptField(&p.ContactInfo.PhoneNumber); err != nil {
			return err
		}
	}
	return nil
}

func (r *StoreRepo) encryptField(value *string) error {
	if *value == "" || hipaa.IsEncrypted(*value) {
		return nil
	}
	encrypted, err := r.cipher.Encrypt(*value)
	if err != nil {
		return fmt.Errorf("encrypting PHI field: %w", err)
	}
	*value = encrypted
	return nil
}

func (r *StoreRepo) decryptField(value *string) error {
	if *value == "" {
		return nil
	}
	decrypted, err := r.cipher.Decrypt(*value)
	if err != nil {
		return fmt.Errorf("decrypting PHI field: %w", err)
	}
	*value = decrypted
	return nil
}
