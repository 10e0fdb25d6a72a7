package availability

import "github.com/patientcare/patientcare/internal/platform/apperr"

type preset struct {
	days       []string
	start, end string
}

var presets = map[string]preset{
	"weekdays":  {days: []string{"monday", "tuesday", "wednesday", "thursday", "friday"}, start: "08:00", end: "17:00"},
	"weekends":  {days: []string{"saturday", "sunday"}, start: "09:00", end: "15:00"},
	"full-time": {days: Days, start: "08:00", end: "20:00"},
	"part-time": {days: []string{"monday", "wednesday", "friday"}, start: "14:00", end: "18:00"},
}

// ApplyPreset replaces the weekly schedule with one of the named presets.
// Days outside the preset are switched off with no slots. Unavailable dates
// are left alone.
func (a *Availability) ApplyPreset(name string) error {
	p, ok := presets[name]
	if !ok {
		return apperr.Invalid("unknown preset: %s", name)
	}
	on := make(map[string]bool, len(p.days))
	for _, d := range p.days {
		on[d] = true
	}

	schedule := make(WeeklySchedule, len(Days))
	for _, day := range Days {
		if !on[day] {
			schedule[day] = DaySchedule{Available: false, TimeSlots: []TimeSlot{}}
			continue
		}
		schedule[day] = DaySchedule{
			Available: true,
			TimeSlots: []TimeSlot{{ID: NewID(), Start: p.start, End: p.end}},
		}
	}
	a.WeeklySchedule = schedule
	return nil
}
