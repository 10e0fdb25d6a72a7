// Package review stores patient ratings of doctors.
package review

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/patientcare/patientcare/internal/domain/appointment"
	"github.com/patientcare/patientcare/internal/platform/apperr"
)

type Service struct {
	repo  Repository
	appts Appointments
	now   func() time.Time
}

// NewService creates the service. With appts nil any patient may review any
// doctor.
func NewService(repo Repository, appts Appointments) *Service {
	return &Service{repo: repo, appts: appts, now: time.Now}
}

// Add stores r. A patient has one review per doctor, so a second review
// replaces the first. Patients may only review doctors they completed an
// appointment with.
func (s *Service) Add(ctx context.Context, r *Review) error {
	v := apperr.NewValidation("Please complete the review")
	if strings.TrimSpace(r.DoctorID) == "" {
		v.Add("doctorId", "doctorId is required")
	}
	if strings.TrimSpace(r.PatientID) == "" {
		v.Add("patientId", "patientId is required")
	}
	if r.Rating < 1 || r.Rating > 5 {
		v.Add("rating", "Rating must be between 1 and 5")
	}
	r.Comment = strings.TrimSpace(r.Comment)
	if err := v.OrNil(); err != nil {
		return err
	}

	if s.appts != nil {
		done, err := s.appts.ListByPatient(ctx, r.PatientID, "", appointment.StatusCompleted)
		if err != nil {
			return err
		}
		ok := false
		for _, a := range done {
			if a.DoctorID == r.DoctorID {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("review of %s: %w", r.DoctorID, apperr.ErrAccessDenied)
		}
	}

	r.ID = uuid.NewString()
	r.CreatedAt = s.now().UTC()
	r.UpdatedAt = time.Time{}
	return s.repo.Upsert(ctx, r)
}

// ListByDoctor returns the doctor's reviews, newest first.
func (s *Service) ListByDoctor(ctx context.Context, doctorID string) ([]*Review, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []*Review{}
	for _, r := range all {
		if r.DoctorID == doctorID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Service) Rating(ctx context.Context, doctorID string) (Rating, error) {
	reviews, err := s.ListByDoctor(ctx, doctorID)
	if err != nil {
		return Rating{}, err
	}
	r := Rating{DoctorID: doctorID, Count: len(reviews)}
	if r.Count == 0 {
		return r, nil
	}
	sum := 0
	for _, rv := range reviews {
		sum += rv.Rating
	}
	r.Average = math.Round(float64(sum)/float64(r.Count)*10) / 10
	return r, nil
}
