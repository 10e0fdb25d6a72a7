package appointment

import (
	"context"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/patientcare/patientcare/internal/platform/apperr"
)

const dateLayout = "2006-01-02"

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Create(ctx context.Context, a *Appointment) error {
	v := apperr.NewValidation("Please complete the appointment details")
	if strings.TrimSpace(a.DoctorID) == "" {
		v.Add("doctorId", "doctorId is required")
	}
	if a.PatientID == "" && a.PatientEmail == "" {
		v.Add("patientId", "patientId or patientEmail is required")
	}
	if a.PatientEmail != "" {
		if _, err := mail.ParseAddress(a.PatientEmail); err != nil {
			v.Add("patientEmail", "Email is invalid")
		}
	}
	if _, err := time.Parse(dateLayout, a.Date); err != nil {
		v.Add("date", "date must be YYYY-MM-DD")
	}
	if a.Status == "" {
		a.Status = StatusPending
	}
	if !ValidStatus(a.Status) {
		v.Add("status", "invalid status: "+a.Status)
	}
	if err := v.OrNil(); err != nil {
		return err
	}

	a.ID = uuid.NewString()
	a.CreatedAt = s.now().UTC()
	return s.repo.Create(ctx, a)
}

func (s *Service) Get(ctx context.Context, id string) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

// ForDoctor returns every appointment of doctorID in date order.
func (s *Service) ForDoctor(ctx context.Context, doctorID string) ([]*Appointment, error) {
	return s.filter(ctx, func(a *Appointment) bool { return a.DoctorID == doctorID })
}

// ListByDoctor is ForDoctor narrowed to one status when status is not empty.
func (s *Service) ListByDoctor(ctx context.Context, doctorID, status string) ([]*Appointment, error) {
	return s.filter(ctx, func(a *Appointment) bool {
		return a.DoctorID == doctorID && (status == "" || a.Status == status)
	})
}

// ListByPatient matches on patient id or email, whichever the caller has.
func (s *Service) ListByPatient(ctx context.Context, patientID, email, status string) ([]*Appointment, error) {
	return s.filter(ctx, func(a *Appointment) bool {
		return a.BelongsTo(patientID, email) && (status == "" || a.Status == status)
	})
}

func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*Appointment, error) {
	if !ValidStatus(status) {
		return nil, apperr.Invalid("invalid status: %s", status)
	}
	return s.repo.Update(ctx, id, func(a *Appointment) error {
		a.Status = status
		a.UpdatedAt = s.now().UTC()
		return nil
	})
}

func (s *Service) filter(ctx context.Context, keep func(a *Appointment) bool) ([]*Appointment, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Appointment, 0, len(all))
	for _, a := range all {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out, nil
}
