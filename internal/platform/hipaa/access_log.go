package hipaa

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/patientcare/patientcare/internal/platform/apperr"
	"github.com/patientcare/patientcare/internal/platform/kvstore"
	"github.com/patientcare/patientcare/internal/platform/metrics"
)

// AccessLogKey is the document holding recent PHI access records.
const AccessLogKey = "patientcare_phi_access_log"

// DefaultAccessLogLimit bounds the stored log; older records are dropped.
const DefaultAccessLogLimit = 1000

// AccessRecord is one request that touched patient data.
type AccessRecord struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	UserRoles  []string  `json:"user_roles,omitempty"`
	Resource   string    `json:"resource"`
	PatientID  string    `json:"patient_id,omitempty"`
	Action     string    `json:"action"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	StatusCode int       `json:"status_code"`
	IPAddress  string    `json:"ip_address,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	AccessedAt time.Time `json:"accessed_at"`
}

// AccessFilter narrows Search. Empty fields match everything.
type AccessFilter struct {
	UserID    string
	PatientID string
	Resource  string
}

func (f AccessFilter) match(r *AccessRecord) bool {
	if f.UserID != "" && r.UserID != f.UserID {
		return false
	}
	if f.PatientID != "" && r.PatientID != f.PatientID {
		return false
	}
	if f.Resource != "" && r.Resource != f.Resource {
		return false
	}
	return true
}

// AccessLog keeps the most recent PHI access records in the document store.
type AccessLog struct {
	store   kvstore.Store
	metrics *metrics.StoreMetrics
	limit   int
}

// NewAccessLog creates a log holding at most limit records. A limit of zero
// or less means DefaultAccessLogLimit.
func NewAccessLog(store kvstore.Store, m *metrics.StoreMetrics, limit int) *AccessLog {
	if limit <= 0 {
		limit = DefaultAccessLogLimit
	}
	return &AccessLog{store: store, metrics: m, limit: limit}
}

// Record appends rec, assigning an ID and AccessedAt when unset.
func (l *AccessLog) Record(ctx context.Context, rec *AccessRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.AccessedAt.IsZero() {
		rec.AccessedAt = time.Now().UTC()
	}
	err := kvstore.UpdateJSON(ctx, l.store, AccessLogKey, func(items *[]*AccessRecord) error {
		*items = append(*items, rec)
		if over := len(*items) - l.limit; over > 0 {
			*items = (*items)[over:]
		}
		return nil
	})
	l.metrics.ObserveWrite("phi_access_log", err)
	return apperr.WrapStore("Failed to record PHI access", err)
}

// Search returns matching records, newest first.
func (l *AccessLog) Search(ctx context.Context, f AccessFilter) ([]*AccessRecord, error) {
	var items []*AccessRecord
	err := kvstore.GetJSON(ctx, l.store, AccessLogKey, &items)
	if errors.Is(err, kvstore.ErrNotFound) {
		return []*AccessRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load phi access log: %w", err)
	}
	out := []*AccessRecord{}
	for _, r := range items {
		if f.match(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AccessedAt.After(out[j].AccessedAt) })
	return out, nil
}
