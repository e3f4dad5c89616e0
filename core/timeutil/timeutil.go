// Package timeutil converts between "HH:MM" strings, fractional hours and
// absolute timestamps on a production day.
package timeutil

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTime is returned for strings that are not valid "HH:MM" times.
var ErrInvalidTime = errors.New("invalid HH:MM time")

// ParseHHMM parses "HH:MM" into fractional hours, e.g. "06:30" -> 6.5.
// "24:00" is accepted as the end of the day.
func ParseHHMM(s string) (float64, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || hh == "" || len(mm) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return float64(h) + float64(m)/60, nil
}

// At returns the instant at hour:minute on the calendar day of date, in
// date's location.
func At(date time.Time, hour, minute int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, date.Location())
}

// AtHours returns the wall-clock instant at the fractional hour h on the
// day of date. On DST transition days 06:00 stays 06:00 local time.
func AtHours(date time.Time, h float64) time.Time {
	off := time.Duration(math.Round(h * float64(time.Hour)))
	hh := int(off / time.Hour)
	off -= time.Duration(hh) * time.Hour
	mm := int(off / time.Minute)
	off -= time.Duration(mm) * time.Minute
	ss := int(off / time.Second)
	off -= time.Duration(ss) * time.Second
	return time.Date(date.Year(), date.Month(), date.Day(), hh, mm, ss, int(off), date.Location())
}

// HourOfDay returns the fractional hour of t in its own location.
func HourOfDay(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600 + float64(t.Nanosecond())/3.6e12
}

// Minutes converts fractional minutes to a duration without rounding to
// whole minutes.
func Minutes(m float64) time.Duration {
	return time.Duration(math.Round(m * float64(time.Minute)))
}

// Day truncates t to midnight of its calendar day in its location.
func Day(t time.Time) time.Time {
	return At(t, 0, 0)
}
