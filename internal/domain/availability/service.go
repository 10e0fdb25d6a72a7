package availability

import (
	"context"
	"time"

	"github.com/patientcare/patientcare/internal/domain/appointment"
	"github.com/patientcare/patientcare/internal/platform/apperr"
)

// Appointments is the part of the appointment service availability reads.
type Appointments interface {
	ForDoctor(ctx context.Context, doctorID string) ([]*appointment.Appointment, error)
}

// Directory resolves a doctor's display name for export filenames.
type Directory interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

type Service struct {
	repo   Repository
	appts  Appointments
	people Directory
	now    func() time.Time
}

// NewService wires the service. people may be nil, in which case exports are
// named after the doctor id.
func NewService(repo Repository, appts Appointments, people Directory) *Service {
	return &Service{repo: repo, appts: appts, people: people, now: time.Now}
}

func (s *Service) Load(ctx context.Context, doctorID string) (*Availability, error) {
	return s.repo.Get(ctx, doctorID)
}

// Save replaces the whole document after validating it. Missing ids are
// filled in and blank block types default to other. Single-step edits are
// not validated, so a document they produced, such as one with a freshly
// added overlapping slot, can be rejected here until it is corrected.
func (s *Service) Save(ctx context.Context, doctorID string, a *Availability) (*Availability, error) {
	if a == nil {
		return nil, apperr.Invalid("availability is required")
	}
	a.normalize()
	for day, d := range a.WeeklySchedule {
		for i := range d.TimeSlots {
			if d.TimeSlots[i].ID == "" {
				d.TimeSlots[i].ID = NewID()
			}
		}
		a.WeeklySchedule[day] = d
	}
	for i := range a.UnavailableDates {
		u := &a.UnavailableDates[i]
		if u.ID == "" {
			u.ID = NewID()
		}
		if u.Type == "" {
			u.Type = TypeOther
		}
		if u.Reason == "" {
			u.Reason = DefaultReason
		}
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Put(ctx, doctorID, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) ToggleDay(ctx context.Context, doctorID, day string) (*Availability, error) {
	return s.repo.Update(ctx, doctorID, func(a *Availability) error { return a.ToggleDay(day) })
}

func (s *Service) AddTimeSlot(ctx context.Context, doctorID, day string) (*Availability, error) {
	return s.repo.Update(ctx, doctorID, func(a *Availability) error {
		_, err := a.AddTimeSlot(day)
		return err
	})
}

func (s *Service) RemoveTimeSlot(ctx context.Context, doctorID, day, slotID string) (*Availability, error) {
	return s.repo.Update(ctx, doctorID, func(a *Availability) error { return a.RemoveTimeSlot(day, slotID) })
}

func (s *Service) UpdateTimeSlot(ctx context.Context, doctorID, day, slotID, field, value string) (*Availability, error) {
	return s.repo.Update(ctx, doctorID, func(a *Availability) error {
		return a.UpdateTimeSlot(day, slotID, field, value)
	})
}

func (s *Service) ApplyToSelectedDays(ctx context.Context, doctorID string, days []string) (*Availability, error) {
	return s.repo.Update(ctx, doctorID, func(a *Availability) error { return a.ApplyToSelectedDays(days) })
}

func (s *Service) ApplyPreset(ctx context.Context, doctorID, name string) (*Availability, error) {
	return s.repo.Update(ctx, doctorID, func(a *Availability) error { return a.ApplyPreset(name) })
}

func (s *Service) MarkDatesUnavailable(ctx context.Context, doctorID string, dates []string, reason, kind string) (*Availability, error) {
	return s.repo.Update(ctx, doctorID, func(a *Availability) error {
		_, err := a.MarkDatesUnavailable(dates, reason, kind)
		return err
	})
}

func (s *Service) MarkDatesAvailable(ctx context.Context, doctorID string, dates []string) (*Availability, error) {
	if len(dates) == 0 {
		return nil, apperr.Invalid("Please select at least one date")
	}
	return s.repo.Update(ctx, doctorID, func(a *Availability) error {
		a.MarkDatesAvailable(dates)
		return nil
	})
}

func (s *Service) RemoveUnavailableDate(ctx context.Context, doctorID, id string) (*Availability, error) {
	return s.repo.Update(ctx, doctorID, func(a *Availability) error { return a.RemoveUnavailableDate(id) })
}

// load returns the document together with the doctor's booked dates.
func (s *Service) load(ctx context.Context, doctorID string) (*Availability, []*appointment.Appointment, error) {
	a, err := s.repo.Get(ctx, doctorID)
	if err != nil {
		return nil, nil, err
	}
	appts, err := s.appts.ForDoctor(ctx, doctorID)
	if err != nil {
		return nil, nil, err
	}
	return a, appts, nil
}

// DateStatus returns the view of date (YYYY-MM-DD).
func (s *Service) DateStatus(ctx context.Context, doctorID, date string) (DayView, error) {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return DayView{}, apperr.Invalid("date %q must be YYYY-MM-DD", date)
	}
	a, appts, err := s.load(ctx, doctorID)
	if err != nil {
		return DayView{}, err
	}
	return a.DayView(t, BookedDates(appts)), nil
}

func (s *Service) MonthCalendar(ctx context.Context, doctorID string, year int, month time.Month) ([]CalendarDay, error) {
	if month < time.January || month > time.December {
		return nil, apperr.Invalid("month must be between 1 and 12")
	}
	a, appts, err := s.load(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	return a.MonthCalendar(year, month, BookedDates(appts)), nil
}

func (s *Service) Stats(ctx context.Context, doctorID string) (Stats, error) {
	a, appts, err := s.load(ctx, doctorID)
	if err != nil {
		return Stats{}, err
	}
	return a.Stats(appts, s.now()), nil
}

// ExportICS renders the next ExportMonths of unavailable dates and the
// download filename.
func (s *Service) ExportICS(ctx context.Context, doctorID string) (filename, body string, err error) {
	a, err := s.repo.Get(ctx, doctorID)
	if err != nil {
		return "", "", err
	}
	name := doctorID
	if s.people != nil {
		if n, err := s.people.DisplayName(ctx, doctorID); err == nil && n != "" {
			name = n
		}
	}
	now := s.now()
	return ICSFilename(name), a.ICS(now, ExportMonths, now), nil
}
