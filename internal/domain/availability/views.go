package availability

import (
	"time"

	"github.com/patientcare/patientcare/internal/domain/appointment"
)

const dateLayout = "2006-01-02"

type DateStatus string

const (
	StatusUnavailable DateStatus = "unavailable"
	StatusBooked      DateStatus = "booked"
	StatusAvailable   DateStatus = "available"
)

// DayView describes one calendar date. Status only reflects explicit blocks
// and bookings; Bookable also consults the weekly schedule.
type DayView struct {
	Date      string     `json:"date"`
	Day       string     `json:"day"`
	Status    DateStatus `json:"status"`
	Bookable  bool       `json:"bookable"`
	Reason    string     `json:"reason,omitempty"`
	Type      string     `json:"type,omitempty"`
	TimeSlots []TimeSlot `json:"timeSlots"`
}

type CalendarDay struct {
	Date     string     `json:"date"`
	InMonth  bool       `json:"inMonth"`
	Status   DateStatus `json:"status"`
	Bookable bool       `json:"bookable"`
}

type Stats struct {
	TotalAvailableHours  float64 `json:"totalAvailableHours"`
	UpcomingAppointments int     `json:"upcomingAppointments"`
	UnavailableDays      int     `json:"unavailableDays"`
	BookedAppointments   int     `json:"bookedAppointments"`
}

// BookedDates collects the dates holding a confirmed or pending appointment.
func BookedDates(appts []*appointment.Appointment) map[string]bool {
	booked := make(map[string]bool)
	for _, a := range appts {
		if a.IsBooked() {
			booked[a.Date] = true
		}
	}
	return booked
}

// StatusOn ranks unavailable over booked over available.
func (a *Availability) StatusOn(date string, booked map[string]bool) DateStatus {
	if _, blocked := a.IsBlocked(date); blocked {
		return StatusUnavailable
	}
	if booked[date] {
		return StatusBooked
	}
	return StatusAvailable
}

func (a *Availability) bookable(t time.Time) bool {
	if _, blocked := a.IsBlocked(t.Format(dateLayout)); blocked {
		return false
	}
	d := a.WeeklySchedule[DayOf(t)]
	return d.Available && len(d.TimeSlots) > 0
}

// DayView returns the view of one date.
func (a *Availability) DayView(date time.Time, booked map[string]bool) DayView {
	key := date.Format(dateLayout)
	day := DayOf(date)
	view := DayView{
		Date:      key,
		Day:       day,
		Status:    a.StatusOn(key, booked),
		Bookable:  a.bookable(date),
		TimeSlots: append([]TimeSlot{}, a.WeeklySchedule[day].TimeSlots...),
	}
	if u, ok := a.IsBlocked(key); ok {
		view.Reason = u.Reason
		view.Type = u.Type
	}
	return view
}

// MonthCalendar lays out six weeks starting on the Sunday on or before the
// first of month.
func (a *Availability) MonthCalendar(year int, month time.Month, booked map[string]bool) []CalendarDay {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	start := first.AddDate(0, 0, -int(first.Weekday()))

	days := make([]CalendarDay, 0, 42)
	for i := 0; i < 42; i++ {
		t := start.AddDate(0, 0, i)
		key := t.Format(dateLayout)
		days = append(days, CalendarDay{
			Date:     key,
			InMonth:  t.Month() == month,
			Status:   a.StatusOn(key, booked),
			Bookable: a.bookable(t),
		})
	}
	return days
}

// Stats summarises the schedule and the doctor's appointments as of today.
// Slots that do not parse contribute no hours.
func (a *Availability) Stats(appts []*appointment.Appointment, today time.Time) Stats {
	var total int
	for _, d := range a.WeeklySchedule {
		if !d.Available {
			continue
		}
		for _, s := range d.TimeSlots {
			from, err1 := minutes(s.Start)
			to, err2 := minutes(s.End)
			if err1 != nil || err2 != nil {
				continue
			}
			total += to - from
		}
	}

	st := Stats{
		TotalAvailableHours: float64(total) / 60,
		UnavailableDays:     len(a.UnavailableDates),
	}
	todayKey := today.Format(dateLayout)
	for _, ap := range appts {
		if !ap.IsBooked() {
			continue
		}
		st.BookedAppointments++
		if ap.Date >= todayKey {
			st.UpcomingAppointments++
		}
	}
	return st
}
