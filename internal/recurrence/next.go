package recurrence

import "errors"

// ErrUnknownFrequency is returned for a frequency without a stepper.
var ErrUnknownFrequency = errors.New("unknown frequency")

// Next returns the next execution date of a schedule that began on start.
// A start date later than today is returned unchanged. Otherwise the schedule
// is advanced from start, one period at a time, until it is strictly after today.
// Stepping always begins at start so repeated executions never drift.
func Next(start Date, freq Frequency, today Date) (Date, error) {
	s, err := stepperFor(freq)
	if err != nil {
		return Date{}, err
	}
	if start.After(today) {
		return start, nil
	}

	anchor := start.Day()
	next := start
	for !next.After(today) {
		next = s.step(next, anchor)
	}
	return next, nil
}

// Skip returns the occurrence after current for a schedule that began on start,
// keeping start's day of month as the monthly anchor.
func Skip(current, start Date, freq Frequency) (Date, error) {
	s, err := stepperFor(freq)
	if err != nil {
		return Date{}, err
	}
	anchor := start.Day()
	if start.IsZero() {
		anchor = current.Day()
	}
	return s.step(current, anchor), nil
}
