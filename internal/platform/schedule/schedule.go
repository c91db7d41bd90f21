// Package schedule resolves the daily trigger time and the night-mode
// window in the configured timezone.
package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	// Embed tzdata for environments without zoneinfo.
	_ "time/tzdata"
)

const (
	minutesPerHour = 60
	maxHour        = 23
)

// Static errors for schedule validation.
var (
	ErrTimeFormat     = errors.New("time must be HH:MM")
	ErrInvalidHour    = errors.New("invalid hour")
	ErrInvalidMinute  = errors.New("invalid minute")
	ErrHourOutOfRange = errors.New("hour out of range")
)

const errFmtInvalidTimezone = "invalid timezone: %w"

// Daily is a once-a-day trigger at a fixed local time.
type Daily struct {
	Timezone string
	Time     string
}

// Location resolves the timezone or defaults to UTC.
func (d Daily) Location() (*time.Location, error) {
	if strings.TrimSpace(d.Timezone) == "" {
		return time.UTC, nil
	}

	loc, err := time.LoadLocation(strings.TrimSpace(d.Timezone))
	if err != nil {
		return nil, fmt.Errorf(errFmtInvalidTimezone, err)
	}

	return loc, nil
}

// Validate checks the trigger time and timezone.
func (d Daily) Validate() error {
	if _, err := d.Location(); err != nil {
		return err
	}

	if _, err := parseTimeHM(d.Time); err != nil {
		return fmt.Errorf("invalid daily time %q: %w", d.Time, err)
	}

	return nil
}

// NextAfter returns the next trigger moment strictly after t.
func (d Daily) NextAfter(t time.Time) (time.Time, error) {
	loc, err := d.Location()
	if err != nil {
		return time.Time{}, err
	}

	minutes, err := parseTimeHM(d.Time)
	if err != nil {
		return time.Time{}, err
	}

	local := t.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), minutes/minutesPerHour, minutes%minutesPerHour, 0, 0, loc)

	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}

	return next, nil
}

// NightWindow is an hour range that may cross midnight, e.g. 23..8.
type NightWindow struct {
	StartHour int
	EndHour   int
}

// Validate checks both hours.
func (w NightWindow) Validate() error {
	if w.StartHour < 0 || w.StartHour > maxHour {
		return fmt.Errorf("start: %w", ErrHourOutOfRange)
	}

	if w.EndHour < 0 || w.EndHour > maxHour {
		return fmt.Errorf("end: %w", ErrHourOutOfRange)
	}

	return nil
}

// Contains reports whether t falls inside the window.
func (w NightWindow) Contains(t time.Time) bool {
	hour := t.Hour()

	if w.StartHour <= w.EndHour {
		return hour >= w.StartHour && hour < w.EndHour
	}

	return hour >= w.StartHour || hour < w.EndHour
}

// End returns the moment the window closes for a time inside it: today's
// EndHour, or tomorrow's when t is already past StartHour.
func (w NightWindow) End(t time.Time) time.Time {
	end := time.Date(t.Year(), t.Month(), t.Day(), w.EndHour, 0, 0, 0, t.Location())

	if w.StartHour > w.EndHour && t.Hour() >= w.StartHour {
		end = end.AddDate(0, 0, 1)
	}

	return end
}

func parseTimeHM(value string) (int, error) {
	normalized, err := NormalizeTimeHM(value)
	if err != nil {
		return 0, err
	}

	hour, err := strconv.Atoi(normalized[:2])
	if err != nil {
		return 0, ErrInvalidHour
	}

	minute, err := strconv.Atoi(normalized[3:])
	if err != nil {
		return 0, ErrInvalidMinute
	}

	return hour*minutesPerHour + minute, nil
}

// NormalizeTimeHM accepts H:MM or HH:MM and returns HH:MM.
func NormalizeTimeHM(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", ErrTimeFormat
	}

	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return "", ErrTimeFormat
	}

	if len(parts[1]) != 2 {
		return "", ErrTimeFormat
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", ErrInvalidHour
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", ErrInvalidMinute
	}

	if hour > maxHour || hour < 0 {
		return "", ErrHourOutOfRange
	}

	if minute < 0 || minute >= minutesPerHour {
		return "", ErrInvalidMinute
	}

	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}
