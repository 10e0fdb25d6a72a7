package availability

import (
	"fmt"
	"time"

	"github.com/patientcare/patientcare/internal/platform/apperr"
)

const (
	DefaultReason    = "Doctor unavailable"
	DefaultSlotStart = "09:00"
	DefaultSlotEnd   = "10:00"
)

func unknownDay(day string) error {
	return apperr.Invalid("unknown day: %s", day)
}

// ToggleDay flips the day's available flag. Slots are kept so switching a
// day back on restores them.
func (a *Availability) ToggleDay(day string) error {
	if !ValidDay(day) {
		return unknownDay(day)
	}
	d := a.WeeklySchedule[day]
	d.Available = !d.Available
	a.WeeklySchedule[day] = d
	return nil
}

// AddTimeSlot appends a 09:00-10:00 slot to day. Overlaps are not checked,
// so on a day already covering 09:00 the new slot has to be moved with
// UpdateTimeSlot before the document passes Validate.
func (a *Availability) AddTimeSlot(day string) (TimeSlot, error) {
	if !ValidDay(day) {
		return TimeSlot{}, unknownDay(day)
	}
	slot := TimeSlot{ID: NewID(), Start: DefaultSlotStart, End: DefaultSlotEnd}
	d := a.WeeklySchedule[day]
	d.TimeSlots = append(d.TimeSlots, slot)
	a.WeeklySchedule[day] = d
	return slot, nil
}

// RemoveTimeSlot drops the slot with slotID. A missing slot is not an error.
func (a *Availability) RemoveTimeSlot(day, slotID string) error {
	if !ValidDay(day) {
		return unknownDay(day)
	}
	d := a.WeeklySchedule[day]
	kept := make([]TimeSlot, 0, len(d.TimeSlots))
	for _, s := range d.TimeSlots {
		if s.ID != slotID {
			kept = append(kept, s)
		}
	}
	d.TimeSlots = kept
	a.WeeklySchedule[day] = d
	return nil
}

// UpdateTimeSlot sets the start or end of one slot to value as given. Range
// checks are left to Validate.
func (a *Availability) UpdateTimeSlot(day, slotID, field, value string) error {
	if !ValidDay(day) {
		return unknownDay(day)
	}
	if field != "start" && field != "end" {
		return apperr.Invalid("field must be start or end, got %q", field)
	}
	d := a.WeeklySchedule[day]
	slots := append([]TimeSlot{}, d.TimeSlots...)
	for i := range slots {
		if slots[i].ID != slotID {
			continue
		}
		if field == "start" {
			slots[i].Start = value
		} else {
			slots[i].End = value
		}
	}
	d.TimeSlots = slots
	a.WeeklySchedule[day] = d
	return nil
}

// ApplyToSelectedDays copies the first selected day onto every selected day.
// Each copied slot gets a fresh id so the days can be edited independently.
func (a *Availability) ApplyToSelectedDays(days []string) error {
	if len(days) == 0 {
		return apperr.Invalid("Please select at least one day to apply changes")
	}
	for _, day := range days {
		if !ValidDay(day) {
			return unknownDay(day)
		}
	}

	template := a.WeeklySchedule[days[0]]
	for _, day := range days {
		slots := make([]TimeSlot, len(template.TimeSlots))
		for i, s := range template.TimeSlots {
			slots[i] = TimeSlot{ID: NewID(), Start: s.Start, End: s.End}
		}
		a.WeeklySchedule[day] = DaySchedule{Available: template.Available, TimeSlots: slots}
	}
	return nil
}

// MarkDatesUnavailable appends one block per date. Dates already blocked get
// a second entry.
func (a *Availability) MarkDatesUnavailable(dates []string, reason, kind string) ([]UnavailableDate, error) {
	if len(dates) == 0 {
		return nil, apperr.Invalid("Please select at least one date")
	}
	if reason == "" {
		reason = DefaultReason
	}
	if kind == "" {
		kind = TypeOther
	}
	if !validTypes[kind] {
		return nil, apperr.Invalid("invalid unavailable type: %s", kind)
	}
	for _, date := range dates {
		if _, err := time.Parse(dateLayout, date); err != nil {
			return nil, apperr.Invalid("date %q must be YYYY-MM-DD", date)
		}
	}

	added := make([]UnavailableDate, 0, len(dates))
	for _, date := range dates {
		added = append(added, UnavailableDate{ID: NewID(), Date: date, Reason: reason, Type: kind})
	}
	a.UnavailableDates = append(a.UnavailableDates, added...)
	return added, nil
}

// MarkDatesAvailable removes every block on any of dates and returns how
// many entries went.
func (a *Availability) MarkDatesAvailable(dates []string) int {
	drop := make(map[string]bool, len(dates))
	for _, d := range dates {
		drop[d] = true
	}
	kept := make([]UnavailableDate, 0, len(a.UnavailableDates))
	for _, u := range a.UnavailableDates {
		if !drop[u.Date] {
			kept = append(kept, u)
		}
	}
	removed := len(a.UnavailableDates) - len(kept)
	a.UnavailableDates = kept
	return removed
}

// RemoveUnavailableDate removes the single block with id.
func (a *Availability) RemoveUnavailableDate(id string) error {
	for i, u := range a.UnavailableDates {
		if u.ID == id {
			a.UnavailableDates = append(a.UnavailableDates[:i:i], a.UnavailableDates[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("unavailable date %s: %w", id, apperr.ErrNotFound)
}

// IsBlocked reports whether date has at least one unavailable entry.
func (a *Availability) IsBlocked(date string) (UnavailableDate, bool) {
	for _, u := range a.UnavailableDates {
		if u.Date == date {
			return u, true
		}
	}
	return UnavailableDate{}, false
}
