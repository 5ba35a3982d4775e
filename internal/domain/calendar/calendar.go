// Package calendar define ventanas de fechas en la zona horaria del instante dado.
package calendar

import "time"

// Window es el intervalo [Start, End). End es el inicio del período siguiente,
// así un instante a las 23:59:59 del último día queda dentro y el día siguiente no.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Day es la ventana del día calendario que contiene t.
func Day(t time.Time) Window {
	start := StartOfDay(t)
	return Window{Start: start, End: start.AddDate(0, 0, 1)}
}

// Week es la semana ISO (lunes a domingo) que contiene t.
func Week(t time.Time) Window {
	offset := (int(t.Weekday()) + 6) % 7 // lunes = 0
	start := StartOfDay(t).AddDate(0, 0, -offset)
	return Window{Start: start, End: start.AddDate(0, 0, 7)}
}

// Month es el mes calendario que contiene t.
func Month(t time.Time) Window {
	y, m, _ := t.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	return Window{Start: start, End: start.AddDate(0, 1, 0)}
}
