// Package services provides business logic and orchestration services.
//
// This file holds the schedule strategies for recurring rules. Each frequency
// has its own stepper that computes the next occurrence after a date.

package services

import (
	"errors"
	"fmt"

	"budget/internal/core"
)

// ErrDateOutOfRange is returned when an occurrence cannot be written as YYYY-MM-DD.
var ErrDateOutOfRange = errors.New("date out of range")

const maxYear = 9999

// Stepper computes the occurrence that follows a given date.
type Stepper interface {
	Next(d core.Date) core.Date
}

// DayStepper advances by a fixed number of days.
type DayStepper int

func (s DayStepper) Next(d core.Date) core.Date {
	return d.AddDays(int(s))
}

// MonthlyStepper keeps the day of month, clamped to the last day of the
// following month (Jan 31 -> Feb 28/29).
type MonthlyStepper struct{}

func (MonthlyStepper) Next(d core.Date) core.Date {
	year, month := d.Year(), d.Month()+1
	if month > 12 {
		year, month = year+1, 1
	}
	return core.NewDate(year, month, min(d.Day(), daysIn(year, month)))
}

// YearlyStepper keeps month and day; Feb 29 becomes Feb 28 in non-leap years.
type YearlyStepper struct{}

func (YearlyStepper) Next(d core.Date) core.Date {
	year := d.Year() + 1
	return core.NewDate(year, d.Month(), min(d.Day(), daysIn(year, d.Month())))
}

func daysIn(year, month int) int {
	return core.NewDate(year, month+1, 0).Day()
}

// steppers maps frequencies to their strategies.
var steppers = map[core.Frequency]Stepper{
	core.Daily:    DayStepper(1),
	core.Weekly:   DayStepper(7),
	core.BiWeekly: DayStepper(14),
	core.Monthly:  MonthlyStepper{},
	core.Yearly:   YearlyStepper{},
}

// GetStepper returns the strategy for f.
func GetStepper(f core.Frequency) (Stepper, error) {
	s, ok := steppers[f]
	if !ok {
		return nil, fmt.Errorf("%w %q", core.ErrInvalidFrequency, string(f))
	}
	return s, nil
}

// Advance returns the occurrence after d for frequency f.
func Advance(d core.Date, f core.Frequency) (core.Date, error) {
	if d.IsZero() {
		return core.Date{}, fmt.Errorf("advance: %w", core.ErrInvalidDate)
	}
	s, err := GetStepper(f)
	if err != nil {
		return core.Date{}, err
	}
	next := s.Next(d)
	if next.Year() > maxYear {
		return core.Date{}, fmt.Errorf("advance %s %s: %w", d, f, ErrDateOutOfRange)
	}
	return next, nil
}
