package reminders

import (
	"sort"
	"time"

	"pet-care-tracker/internal/domain/calendar"
)

// Today: habilitados con fecha programada dentro del día de now.
func Today(items []Reminder, now time.Time) []Reminder {
	day := calendar.Day(now)
	out := make([]Reminder, 0)
	for _, r := range items {
		if r.IsEnabled && day.Contains(r.ScheduledDate) {
			out = append(out, r)
		}
	}
	return out
}

// Upcoming: habilitados desde mañana, ascendente por fecha programada.
func Upcoming(items []Reminder, now time.Time) []Reminder {
	tomorrow := calendar.Day(now).End
	out := make([]Reminder, 0)
	for _, r := range items {
		if r.IsEnabled && !r.ScheduledDate.Before(tomorrow) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ScheduledDate.Before(out[j].ScheduledDate)
	})
	return out
}

func Enabled(items []Reminder) []Reminder {
	out := make([]Reminder, 0, len(items))
	for _, r := range items {
		if r.IsEnabled {
			out = append(out, r)
		}
	}
	return out
}

func ForPet(items []Reminder, petID string) []Reminder {
	out := make([]Reminder, 0)
	for _, r := range items {
		if r.PetID != nil && *r.PetID == petID {
			out = append(out, r)
		}
	}
	return out
}
