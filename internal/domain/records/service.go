package records

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/patientcare/patientcare/internal/domain/appointment"
	"github.com/patientcare/patientcare/internal/platform/apperr"
)

// Appointments is the part of the appointment service records read.
type Appointments interface {
	ForDoctor(ctx context.Context, doctorID string) ([]*appointment.Appointment, error)
}

// Service scopes every read to the patients the doctor has seen, meaning
// those with at least one completed appointment with them.
type Service struct {
	repo  Repository
	appts Appointments
	now   func() time.Time
}

func NewService(repo Repository, appts Appointments) *Service {
	return &Service{repo: repo, appts: appts, now: time.Now}
}

func (s *Service) completed(ctx context.Context, doctorID string) ([]*appointment.Appointment, error) {
	all, err := s.appts.ForDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	out := make([]*appointment.Appointment, 0, len(all))
	for _, a := range all {
		if a.Status == appointment.StatusCompleted {
			out = append(out, a)
		}
	}
	return out, nil
}

// SeenPatients returns the patient ids (or emails, for appointments without
// an id) of doctorID's completed appointments. It is rebuilt on every call.
func (s *Service) SeenPatients(ctx context.Context, doctorID string) (map[string]bool, error) {
	done, err := s.completed(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(done))
	for _, a := range done {
		if k := a.PatientKey(); k != "" {
			seen[k] = true
		}
	}
	return seen, nil
}

func visible(r *PatientRecord, seen map[string]bool) bool {
	return seen[r.ID] || (r.ContactInfo.Email != "" && seen[r.ContactInfo.Email])
}

// Visible returns doctorID's records restricted to seen patients.
func (s *Service) Visible(ctx context.Context, doctorID string) ([]*PatientRecord, error) {
	seen, err := s.SeenPatients(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	out := []*PatientRecord{}
	if len(seen) == 0 {
		return out, nil
	}
	all, err := s.repo.List(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	for _, r := range all {
		if visible(r, seen) {
			out = append(out, r)
		}
	}
	return out, nil
}

// LoadRecords returns the visible records, or only patientID's when it is
// set. A patient the doctor may not see is reported as access denied even
// when no record exists.
func (s *Service) LoadRecords(ctx context.Context, doctorID, patientID string) ([]*PatientRecord, error) {
	recs, err := s.Visible(ctx, doctorID)
	if err != nil || patientID == "" {
		return recs, err
	}
	out := []*PatientRecord{}
	for _, r := range recs {
		if r.Matches(patientID) {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("patient %s: %w", patientID, apperr.ErrAccessDenied)
	}
	return out, nil
}

// Search filters the visible records by name, CPR or email. A blank query
// returns them all.
func (s *Service) Search(ctx context.Context, doctorID, query string) ([]*PatientRecord, error) {
	recs, err := s.Visible(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return recs, nil
	}
	out := []*PatientRecord{}
	for _, r := range recs {
		if r.matchesQuery(q) {
			out = append(out, r)
		}
	}
	return out, nil
}

// IncrementVisitCount records one more visit for a visible patient.
func (s *Service) IncrementVisitCount(ctx context.Context, doctorID, patientID string) (*PatientRecord, error) {
	if _, err := s.LoadRecords(ctx, doctorID, patientID); err != nil {
		return nil, err
	}

	var updated *PatientRecord
	err := s.repo.Update(ctx, doctorID, func(items *[]*PatientRecord) error {
		for _, r := range *items {
			if r.Matches(patientID) {
				now := s.now().UTC()
				r.NumberOfVisits++
				r.LastVisit = &now
				r.LastUpdated = now
				updated = r
				return nil
			}
		}
		return fmt.Errorf("patient %s: %w", patientID, apperr.ErrNotFound)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AddRecord validates the form and stores a new record. The id is the
// selected previous patient's id when given, otherwise a new UUID.
func (s *Service) AddRecord(ctx context.Context, doctorID string, in *NewRecordInput) (*PatientRecord, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	id := strings.TrimSpace(in.PatientID)
	if id == "" {
		id = uuid.NewString()
	}
	rec := in.Record(id, doctorID, s.now().UTC())

	err := s.repo.Update(ctx, doctorID, func(items *[]*PatientRecord) error {
		for _, r := range *items {
			if r.ID == rec.ID || strings.EqualFold(r.ContactInfo.Email, rec.ContactInfo.Email) {
				v := apperr.NewValidation("A record for this patient already exists")
				v.Add("email", "A record with this email already exists")
				return v
			}
		}
		*items = append(*items, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// PreviousPatients lists patients from completed appointments that have no
// record yet, first appointment per patient, optionally filtered by name or
// email.
func (s *Service) PreviousPatients(ctx context.Context, doctorID, search string) ([]PreviousPatient, error) {
	done, err := s.completed(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	recs, err := s.repo.List(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	hasRecord := make(map[string]bool, 2*len(recs))
	for _, r := range recs {
		hasRecord[r.ID] = true
		if r.ContactInfo.Email != "" {
			hasRecord[r.ContactInfo.Email] = true
		}
	}

	q := strings.ToLower(strings.TrimSpace(search))
	seen := map[string]bool{}
	out := []PreviousPatient{}
	for _, a := range done {
		key := a.PatientKey()
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if hasRecord[key] || (a.PatientEmail != "" && hasRecord[a.PatientEmail]) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(a.PatientName), q) &&
			!strings.Contains(strings.ToLower(a.PatientEmail), q) {
			continue
		}
		out = append(out, PreviousPatient{
			ID:              key,
			Name:            a.PatientName,
			Email:           a.PatientEmail,
			AppointmentDate: a.Date,
			AppointmentType: a.Type,
		})
	}
	return out, nil
}

// Export renders the visible records as indented JSON along with the
// download filename.
func (s *Service) Export(ctx context.Context, doctorID string) (string, []byte, error) {
	recs, err := s.Visible(ctx, doctorID)
	if err != nil {
		return "", nil, err
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("encode patient records: %w", err)
	}
	return "patient-records-" + s.now().UTC().Format("2006-01-02") + ".json", data, nil
}

func (s *Service) Summary(ctx context.Context, doctorID string) (Summary, error) {
	recs, err := s.Visible(ctx, doctorID)
	if err != nil {
		return Summary{}, err
	}
	sum := Summary{TotalPatients: len(recs)}
	for _, r := range recs {
		sum.TotalVisits += r.NumberOfVisits
	}
	return sum, nil
}
