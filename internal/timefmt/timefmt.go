// Package timefmt renders absolute record times as calendar-relative
// display labels in one fixed, process-wide time zone.
package timefmt

import (
	"fmt"
	"time"
)

const clock = "15:04:05"

// Formatter converts absolute timestamps into Today/Yesterday/date
// labels. It is deterministic given its two instants; callers inject
// "now" so display logic is testable without the wall clock.
type Formatter struct {
	loc *time.Location
}

// New creates a Formatter for the named IANA time zone.
func New(zone string) (*Formatter, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("failed to load time zone %q: %w", zone, err)
	}
	return &Formatter{loc: loc}, nil
}

// Format returns "Today, HH:MM:SS" when t falls on now's calendar date,
// "Yesterday, HH:MM:SS" when it falls on the previous date, and
// "DD Mon, HH:MM:SS" otherwise. Dates are compared in the formatter's
// zone.
func (f *Formatter) Format(t, now time.Time) string {
	lt := t.In(f.loc)
	ln := now.In(f.loc)

	switch {
	case sameDate(lt, ln):
		return "Today, " + lt.Format(clock)
	case sameDate(lt, ln.AddDate(0, 0, -1)):
		return "Yesterday, " + lt.Format(clock)
	default:
		return lt.Format("02 Jan, " + clock)
	}
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
