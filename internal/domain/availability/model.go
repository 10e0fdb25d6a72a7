package availability

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

// Days lists the weekly schedule keys, Sunday first.
var Days = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

// DayOf returns the schedule key for t's weekday.
func DayOf(t time.Time) string {
	return Days[t.Weekday()]
}

// ValidDay reports whether day is a schedule key.
func ValidDay(day string) bool {
	for _, d := range Days {
		if d == day {
			return true
		}
	}
	return false
}

type TimeSlot struct {
	ID    string `json:"id"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type DaySchedule struct {
	Available bool       `json:"available"`
	TimeSlots []TimeSlot `json:"timeSlots"`
}

type WeeklySchedule map[string]DaySchedule

const (
	TypeVacation   = "vacation"
	TypeSick       = "sick"
	TypeConference = "conference"
	TypeOther      = "other"
)

var validTypes = map[string]bool{
	TypeVacation: true, TypeSick: true, TypeConference: true, TypeOther: true,
}

type UnavailableDate struct {
	ID     string `json:"id"`
	Date   string `json:"date"`
	Reason string `json:"reason"`
	Type   string `json:"type"`
}

// Availability is the stored document for one doctor.
type Availability struct {
	WeeklySchedule   WeeklySchedule    `json:"weeklySchedule"`
	UnavailableDates []UnavailableDate `json:"unavailableDates"`
}

// Clone returns a deep copy of a.
func (a *Availability) Clone() *Availability {
	out := &Availability{
		WeeklySchedule:   make(WeeklySchedule, len(a.WeeklySchedule)),
		UnavailableDates: append([]UnavailableDate{}, a.UnavailableDates...),
	}
	for day, d := range a.WeeklySchedule {
		out.WeeklySchedule[day] = DaySchedule{
			Available: d.Available,
			TimeSlots: append([]TimeSlot{}, d.TimeSlots...),
		}
	}
	return out
}

// normalize fills missing days and replaces nil slices so the document
// always encodes with every key present.
func (a *Availability) normalize() {
	if a.WeeklySchedule == nil {
		a.WeeklySchedule = WeeklySchedule{}
	}
	for _, day := range Days {
		d := a.WeeklySchedule[day]
		if d.TimeSlots == nil {
			d.TimeSlots = []TimeSlot{}
		}
		a.WeeklySchedule[day] = d
	}
	if a.UnavailableDates == nil {
		a.UnavailableDates = []UnavailableDate{}
	}
}

// Default is Monday to Friday 09:00-17:00 with the weekend off and nothing
// blocked. Slot ids are fixed so an unsaved default can still be edited by id.
func Default() *Availability {
	a := &Availability{WeeklySchedule: WeeklySchedule{}, UnavailableDates: []UnavailableDate{}}
	for _, day := range Days {
		if day == "saturday" || day == "sunday" {
			a.WeeklySchedule[day] = DaySchedule{Available: false, TimeSlots: []TimeSlot{}}
			continue
		}
		a.WeeklySchedule[day] = DaySchedule{
			Available: true,
			TimeSlots: []TimeSlot{{ID: "default-" + day, Start: "09:00", End: "17:00"}},
		}
	}
	return a
}

// NewID returns "<unix millis><9 base36 chars>". The random suffix keeps ids
// distinct when several are minted in the same millisecond.
var NewID = func() string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	var b strings.Builder
	b.WriteString(strconv.FormatInt(time.Now().UnixMilli(), 10))
	for i := 0; i < 9; i++ {
		b.WriteByte(alphabet[rand.IntN(len(alphabet))])
	}
	return b.String()
}

// minutes parses "HH:MM" into minutes after midnight.
func minutes(hhmm string) (int, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil || len(hhmm) != 5 {
		return 0, fmt.Errorf("time %q must be HH:MM", hhmm)
	}
	return t.Hour()*60 + t.Minute(), nil
}
