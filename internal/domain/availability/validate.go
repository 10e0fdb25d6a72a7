package availability

import (
	"fmt"
	"sort"
	"time"

	"github.com/patientcare/patientcare/internal/platform/apperr"
)

// Validate checks a whole document before it replaces the stored one. Slots
// must be HH:MM with start before end and must not overlap within a day.
// Slot ids are unique per day and unavailable-date ids across the document.
func (a *Availability) Validate() error {
	v := apperr.NewValidation("Please fix the availability before saving")

	for day, d := range a.WeeklySchedule {
		if !ValidDay(day) {
			v.Add("weeklySchedule."+day, "unknown day")
			continue
		}

		type span struct {
			id       string
			from, to int
		}
		spans := make([]span, 0, len(d.TimeSlots))
		ids := make(map[string]bool, len(d.TimeSlots))
		for i, s := range d.TimeSlots {
			field := fmt.Sprintf("weeklySchedule.%s.timeSlots[%d]", day, i)
			if s.ID != "" {
				if ids[s.ID] {
					v.Add(field+".id", "duplicate slot id "+s.ID)
				}
				ids[s.ID] = true
			}
			from, err := minutes(s.Start)
			if err != nil {
				v.Add(field+".start", err.Error())
				continue
			}
			to, err := minutes(s.End)
			if err != nil {
				v.Add(field+".end", err.Error())
				continue
			}
			if from >= to {
				v.Add(field, "start must be before end")
				continue
			}
			spans = append(spans, span{id: s.ID, from: from, to: to})
		}

		sort.Slice(spans, func(i, j int) bool { return spans[i].from < spans[j].from })
		for i := 1; i < len(spans); i++ {
			if spans[i].from < spans[i-1].to {
				v.Add("weeklySchedule."+day, fmt.Sprintf("slot %s overlaps slot %s", spans[i].id, spans[i-1].id))
			}
		}
	}

	blockIDs := make(map[string]bool, len(a.UnavailableDates))
	for i, u := range a.UnavailableDates {
		field := fmt.Sprintf("unavailableDates[%d]", i)
		if u.ID != "" {
			if blockIDs[u.ID] {
				v.Add(field+".id", "duplicate unavailable date id "+u.ID)
			}
			blockIDs[u.ID] = true
		}
		if _, err := time.Parse(dateLayout, u.Date); err != nil {
			v.Add(field+".date", "date must be YYYY-MM-DD")
		}
		if u.Type != "" && !validTypes[u.Type] {
			v.Add(field+".type", "invalid type: "+u.Type)
		}
	}

	return v.OrNil()
}
