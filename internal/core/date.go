// Package core defines the budgeting domain: expenses, catalogs, ledger
// entries, monthly snapshots and the calendar helpers they depend on.
//
// This file contains the Date and MonthKey types. Every "day-of-month
// clamped to month length" and "month key" computation in the module goes
// through here.
package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

type (
	// Date is a calendar date without time of day. It always holds midnight UTC
	// so that comparisons never depend on the host time zone.
	Date struct {
		time.Time
	}

	// MonthKey is the canonical YYYY-MM identifier of a calendar month.
	MonthKey struct {
		year  int
		month time.Month
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t as seen in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string. A full RFC 3339 timestamp is also
// accepted and truncated to its date part.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// Validate reports whether the date is set.
func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// MonthKey returns the key of the month containing the date.
func (d Date) MonthKey() MonthKey {
	return MonthKey{year: d.Year(), month: d.Time.Month()}
}

// AddDays returns the date n days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool {
	return d.Time.After(other.Time)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// NewMonthKey builds a key from a year and a 1-12 month. Out-of-range months
// are normalised the way time.Date does (month 13 is January of next year).
func NewMonthKey(year int, month time.Month) MonthKey {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return MonthKey{year: t.Year(), month: t.Month()}
}

// MonthKeyOf returns the key of the month containing t in t's location.
func MonthKeyOf(t time.Time) MonthKey {
	return NewMonthKey(t.Year(), t.Month())
}

// ParseMonthKey parses a YYYY-MM string.
func ParseMonthKey(s string) (MonthKey, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return MonthKey{}, fmt.Errorf("%w: %q", ErrInvalidMonthKey, s)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return MonthKey{}, fmt.Errorf("%w: %q", ErrInvalidMonthKey, s)
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return MonthKey{}, fmt.Errorf("%w: %q", ErrInvalidMonthKey, s)
	}
	return MonthKey{year: year, month: time.Month(month)}, nil
}

// MustMonthKey is ParseMonthKey for literals known to be valid.
func MustMonthKey(s string) MonthKey {
	k, err := ParseMonthKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

func (k MonthKey) Year() int { return k.year }

func (k MonthKey) Month() time.Month { return k.month }

func (k MonthKey) IsZero() bool { return k.year == 0 && k.month == 0 }

func (k MonthKey) String() string { return fmt.Sprintf("%04d-%02d", k.year, int(k.month)) }

// Before reports whether k is chronologically before o.
func (k MonthKey) Before(o MonthKey) bool {
	if k.year != o.year {
		return k.year < o.year
	}
	return k.month < o.month
}

// After reports whether k is chronologically after o.
func (k MonthKey) After(o MonthKey) bool {
	return o.Before(k)
}

// Next returns the following month.
func (k MonthKey) Next() MonthKey { return NewMonthKey(k.year, k.month+1) }

// Prev returns the preceding month.
func (k MonthKey) Prev() MonthKey { return NewMonthKey(k.year, k.month-1) }

// LastDay returns the number of days in the month.
func (k MonthKey) LastDay() int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(k.year, k.month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay returns day limited to the valid range of the month.
func (k MonthKey) ClampDay(day int) int {
	if day < 1 {
		return 1
	}
	if last := k.LastDay(); day > last {
		return last
	}
	return day
}

// DateOn returns the date in this month with the given day of month,
// clamped to the month's last day (day 31 in February yields Feb 28 or 29).
func (k MonthKey) DateOn(day int) Date {
	return NewDate(k.year, int(k.month), k.ClampDay(day))
}

// Contains reports whether d falls inside the month.
func (k MonthKey) Contains(d Date) bool {
	return !d.IsZero() && d.MonthKey() == k
}

func (k MonthKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *MonthKey) UnmarshalText(data []byte) error {
	parsed, err := ParseMonthKey(string(data))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// IsDateInMonth reports whether the YYYY-MM-DD string falls inside the month
// identified by the YYYY-MM string. Malformed input yields false.
func IsDateInMonth(dateString, monthKey string) bool {
	d, err := ParseDate(dateString)
	if err != nil {
		return false
	}
	k, err := ParseMonthKey(monthKey)
	if err != nil {
		return false
	}
	return k.Contains(d)
}
