package recurrence

import "time"

// Frequency es la frecuencia de una medicación. No usa Rule: cada valor
// mapea a un desplazamiento fijo hasta la próxima dosis.
type Frequency string

const (
	OnceDaily       Frequency = "once_daily"
	TwiceDaily      Frequency = "twice_daily"
	ThreeTimesDaily Frequency = "three_times_daily"
	EveryOtherDay   Frequency = "every_other_day"
	WeeklyDose      Frequency = "weekly"
	MonthlyDose     Frequency = "monthly"
	AsNeeded        Frequency = "as_needed"
	CustomDose      Frequency = "custom"
)

func (f Frequency) Valid() bool {
	switch f {
	case OnceDaily, TwiceDaily, ThreeTimesDaily, EveryOtherDay, WeeklyDose, MonthlyDose, AsNeeded, CustomDose:
		return true
	}
	return false
}

// NextDose devuelve la próxima dosis a partir de from, o nil para as_needed/custom.
func NextDose(from time.Time, f Frequency) *time.Time {
	var next time.Time
	switch f {
	case OnceDaily:
		next = from.AddDate(0, 0, 1)
	case TwiceDaily:
		next = from.Add(12 * time.Hour)
	case ThreeTimesDaily:
		next = from.Add(8 * time.Hour)
	case EveryOtherDay:
		next = from.AddDate(0, 0, 2)
	case WeeklyDose:
		next = from.AddDate(0, 0, 7)
	case MonthlyDose:
		next = addMonthsClamped(from, 1)
	default:
		return nil
	}
	return &next
}
