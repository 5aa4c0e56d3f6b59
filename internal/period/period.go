// Package period maps a list's reset period and a reference date to the
// concrete calendar range that period covers. Resolution is pure calendar
// arithmetic; callers decide what to do with the boundaries.
package period

import (
	"errors"
	"fmt"
	"time"
)

// Reset periods. Static lists never reset; they have no boundary at all.
const (
	Daily       = "daily"
	Weekly      = "weekly"
	Fortnightly = "fortnightly"
	Monthly     = "monthly"
	Quarterly   = "quarterly"
	Annually    = "annually"
	Static      = "static"
)

const DateLayout = "2006-01-02"

// ErrStatic is returned when a boundary is requested for a static period.
// Callers aggregate all-time instead.
var ErrStatic = errors.New("static period has no boundary")

// Range is an inclusive calendar date range. Start and End are midnight
// local time on the first and last day of the period.
type Range struct {
	Start time.Time
	End   time.Time
}

// StartBound is the inclusive lower completion-timestamp bound.
func (r Range) StartBound() string {
	return r.Start.Format(DateLayout) + " 00:00:00"
}

// EndBound is the inclusive upper completion-timestamp bound.
func (r Range) EndBound() string {
	return r.End.Format(DateLayout) + " 23:59:59"
}

// Contains reports whether a YYYY-MM-DD HH:MM:SS timestamp falls inside the
// range. The layout is fixed-width, so string comparison is time comparison.
func (r Range) Contains(ts string) bool {
	return ts >= r.StartBound() && ts <= r.EndBound()
}

// fortnightAnchor is a Monday; fortnights tile the calendar from here.
var fortnightAnchor = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// Resolve maps a reset period and a reference date to its calendar range.
// Weeks run Monday to Sunday. Returns ErrStatic for static.
func Resolve(resetPeriod string, ref time.Time) (Range, error) {
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())

	switch resetPeriod {
	case Daily:
		return Range{Start: day, End: day}, nil

	case Weekly:
		start := weekStart(day)
		return Range{Start: start, End: start.AddDate(0, 0, 6)}, nil

	case Fortnightly:
		start := weekStart(day)
		if weeksSinceAnchor(start)%2 != 0 {
			start = start.AddDate(0, 0, -7)
		}
		return Range{Start: start, End: start.AddDate(0, 0, 13)}, nil

	case Monthly:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return Range{Start: start, End: start.AddDate(0, 1, -1)}, nil

	case Quarterly:
		qm := time.Month((int(day.Month())-1)/3*3 + 1)
		start := time.Date(day.Year(), qm, 1, 0, 0, 0, 0, day.Location())
		return Range{Start: start, End: start.AddDate(0, 3, -1)}, nil

	case Annually:
		start := time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, day.Location())
		return Range{Start: start, End: time.Date(day.Year(), time.December, 31, 0, 0, 0, 0, day.Location())}, nil

	case Static:
		return Range{}, ErrStatic

	default:
		return Range{}, fmt.Errorf("unknown reset period %q", resetPeriod)
	}
}

// ClampToPresent guards period navigation: a range that would start after
// today is replaced with the period containing now.
func ClampToPresent(resetPeriod string, r Range, now time.Time) (Range, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if r.Start.After(today) {
		return Resolve(resetPeriod, now)
	}
	return r, nil
}

// weekStart returns the Monday of the week containing day. Sunday counts as
// day 7 of the preceding Monday's week.
func weekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// weeksSinceAnchor counts whole Monday-to-Monday weeks between the fortnight
// anchor and a week start, flooring for dates before the anchor.
func weeksSinceAnchor(start time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	days := int(s.Sub(fortnightAnchor).Hours() / 24)
	weeks := days / 7
	if days < 0 && days%7 != 0 {
		weeks--
	}
	return weeks
}

// ValidResetPeriod reports whether s names a list reset period.
func ValidResetPeriod(s string) bool {
	switch s {
	case Daily, Weekly, Fortnightly, Monthly, Quarterly, Annually, Static:
		return true
	}
	return false
}

// ValidGoalPeriod reports whether s names a goal period. Goals are always
// evaluated over a bounded range, so static and fortnightly do not apply.
func ValidGoalPeriod(s string) bool {
	switch s {
	case Daily, Weekly, Monthly, Quarterly, Annually:
		return true
	}
	return false
}
