package availability

import (
	"regexp"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

// ExportMonths is how far ahead of the start date the calendar export reaches.
const ExportMonths = 6

const productID = "-//PatientCare//Doctor Availability//EN"

var whitespace = regexp.MustCompile(`\s+`)

// ICSFilename builds "doctor-availability-<name>.ics" with the display name
// lowercased and whitespace runs replaced by hyphens.
func ICSFilename(doctorName string) string {
	name := strings.ToLower(whitespace.ReplaceAllString(strings.TrimSpace(doctorName), "-"))
	if name == "" {
		name = "doctor"
	}
	return "doctor-availability-" + name + ".ics"
}

// ICS renders the unavailable dates between from and from+months as all-day
// events. Entries with unparseable dates are skipped.
func (a *Availability) ICS(from time.Time, months int, stamp time.Time) string {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, months, 0)

	entries := append([]UnavailableDate{}, a.UnavailableDates...)
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)

	for _, u := range entries {
		day, err := time.Parse(dateLayout, u.Date)
		if err != nil || day.Before(start) || day.After(end) {
			continue
		}
		ev := cal.AddEvent(u.ID + "@patientcare")
		ev.SetDtStampTime(stamp.UTC())
		ev.SetAllDayStartAt(day)
		ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
		ev.SetSummary("Unavailable - " + typeLabel(u.Type))
		ev.SetDescription(u.Reason)
	}
	return cal.Serialize()
}

func typeLabel(kind string) string {
	if kind == "" {
		kind = TypeOther
	}
	return strings.ToUpper(kind[:1]) + kind[1:]
}
