package recurrence

import (
	"fmt"
	"math/big"
	"time"

	"pet-care-tracker/internal/domain/errs"
)

// RepeatType es la cadencia nominal de un recordatorio repetitivo.
type RepeatType string

const (
	Hourly       RepeatType = "hourly"
	RepeatDaily  RepeatType = "daily"
	RepeatWeekly RepeatType = "weekly"
	RepeatMonth  RepeatType = "monthly"
	RepeatYearly RepeatType = "yearly"
)

func (t RepeatType) Valid() bool {
	_, ok := t.Seconds()
	return ok
}

// Seconds es el intervalo fijo usado cuando el recordatorio no trae repeat_interval.
func (t RepeatType) Seconds() (int64, bool) {
	switch t {
	case Hourly:
		return 3600, true
	case RepeatDaily:
		return 86400, true
	case RepeatWeekly:
		return 7 * 86400, true
	case RepeatMonth:
		return 30 * 86400, true
	case RepeatYearly:
		return 365 * 86400, true
	}
	return 0, false
}

// NextTrigger devuelve el menor scheduled + k*interval >= now (k >= 0).
// Se calcula en O(1) con división entera, sin importar qué tan atrás esté scheduled.
// La distancia se lleva en big.Int: puede superar el rango de time.Duration (~292 años).
func NextTrigger(scheduled, now time.Time, interval time.Duration) (time.Time, error) {
	if interval <= 0 {
		return time.Time{}, &errs.InvalidRuleError{Reason: fmt.Sprintf("repeat interval must be > 0, got %s", interval)}
	}
	if !scheduled.Before(now) {
		return scheduled, nil
	}

	iv := big.NewInt(int64(interval))
	k, rem := new(big.Int).QuoRem(nanosBetween(scheduled, now), iv, new(big.Int))
	if rem.Sign() != 0 {
		k.Add(k, big.NewInt(1))
	}
	return addNanos(scheduled, k.Mul(k, iv)), nil
}

var nanosPerSecond = big.NewInt(int64(time.Second))

func nanosBetween(from, to time.Time) *big.Int {
	n := new(big.Int).Mul(big.NewInt(to.Unix()-from.Unix()), nanosPerSecond)
	return n.Add(n, big.NewInt(int64(to.Nanosecond()-from.Nanosecond())))
}

// addNanos suma n >= 0 nanosegundos separando segundos y resto.
func addNanos(t time.Time, n *big.Int) time.Time {
	secs, nanos := new(big.Int).QuoRem(n, nanosPerSecond, new(big.Int))
	return time.Unix(t.Unix()+secs.Int64(), int64(t.Nanosecond())+nanos.Int64()).In(t.Location())
}
