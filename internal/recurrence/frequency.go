package recurrence

import (
	"fmt"
	"time"
)

// Frequency is the cadence of a scheduled action.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// IsValid reports whether f has a registered stepper.
func (f Frequency) IsValid() bool {
	_, ok := steppers[f]
	return ok
}

// stepper advances a date by one period. anchorDay is the day of month of the
// schedule's original start date; only monthly cadences use it.
type stepper interface {
	step(current Date, anchorDay int) Date
}

type dailyStepper struct{}

func (dailyStepper) step(current Date, _ int) Date {
	return current.AddDays(1)
}

type weeklyStepper struct{}

func (weeklyStepper) step(current Date, _ int) Date {
	return current.AddDays(7)
}

// monthlyStepper keeps the anchor day, clamped to the length of the target month,
// so a schedule started on the 31st lands on the 28th, 29th or 30th in short months.
type monthlyStepper struct{}

func (monthlyStepper) step(current Date, anchorDay int) Date {
	firstOfTarget := time.Date(current.Year(), current.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	day := min(anchorDay, daysInMonth(firstOfTarget.Year(), firstOfTarget.Month()))
	return NewDate(firstOfTarget.Year(), firstOfTarget.Month(), day)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

var steppers = map[Frequency]stepper{
	Daily:   dailyStepper{},
	Weekly:  weeklyStepper{},
	Monthly: monthlyStepper{},
}

func stepperFor(f Frequency) (stepper, error) {
	s, ok := steppers[f]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFrequency, string(f))
	}
	return s, nil
}
