package trading

import (
	"time"
	_ "time/tzdata" // embedded zone database; hosts without one still get DST right
)

// US eastern time with DST; the simulation treats all intraday timestamps as
// exchange-local.
var ET = loadEastern()

func loadEastern() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// EST only; sessions from mid-March to early November shift an hour
		return time.FixedZone("ET", -5*3600)
	}
	return loc
}

// ClockRange is an intraday window in exchange-local wall-clock time.
type ClockRange struct {
	StartHour   int
	StartMinute int
	EndHour     int
	EndMinute   int
}

// Contains reports whether t's wall-clock time falls inside the range (inclusive).
func (r ClockRange) Contains(t time.Time) bool {
	cur := t.Hour()*60 + t.Minute()
	start := r.StartHour*60 + r.StartMinute
	end := r.EndHour*60 + r.EndMinute
	if start <= end {
		return cur >= start && cur <= end
	}
	// crosses midnight
	return cur >= start || cur <= end
}

// Regular cash session.
var MarketHours = ClockRange{9, 30, 16, 0}

// IsTradingDay reports whether d is a regular US equity trading day.
// Weekends and the fixed-date/floating market holidays are excluded; ad hoc
// closures show up as data gaps and are tolerated by the caller.
func IsTradingDay(d time.Time) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !isMarketHoliday(d)
}

// NextTradingDay returns the first trading day strictly after d.
func NextTradingDay(d time.Time) time.Time {
	for {
		d = d.AddDate(0, 0, 1)
		if IsTradingDay(d) {
			return d
		}
	}
}

// PrevTradingDay returns the last trading day strictly before d.
func PrevTradingDay(d time.Time) time.Time {
	for {
		d = d.AddDate(0, 0, -1)
		if IsTradingDay(d) {
			return d
		}
	}
}

// Days returns every trading day in [start, end] in chronological order.
func Days(start, end time.Time) []time.Time {
	var out []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if IsTradingDay(d) {
			out = append(out, d)
		}
	}
	return out
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func isMarketHoliday(d time.Time) bool {
	m, day := d.Month(), d.Day()
	switch {
	case m == time.January && day == 1:
		return true // New Year's Day
	case m == time.June && day == 19 && d.Year() >= 2022:
		return true // Juneteenth, NYSE closure since 2022
	case m == time.July && day == 4:
		return true // Independence Day
	case m == time.December && day == 25:
		return true // Christmas
	}
	if isGoodFriday(d) {
		return true
	}
	switch m {
	case time.January:
		return nthWeekday(d, time.Monday, 3) // MLK Day
	case time.February:
		return nthWeekday(d, time.Monday, 3) // Presidents' Day
	case time.May:
		return lastWeekday(d, time.Monday) // Memorial Day
	case time.September:
		return nthWeekday(d, time.Monday, 1) // Labor Day
	case time.November:
		return nthWeekday(d, time.Thursday, 4) // Thanksgiving
	}
	return false
}

// nthWeekday reports whether d is the n-th given weekday of its month.
func nthWeekday(d time.Time, wd time.Weekday, n int) bool {
	return d.Weekday() == wd && (d.Day()-1)/7 == n-1
}

// lastWeekday reports whether d is the last given weekday of its month.
func lastWeekday(d time.Time, wd time.Weekday) bool {
	return d.Weekday() == wd && d.AddDate(0, 0, 7).Month() != d.Month()
}

// isGoodFriday reports whether d is the Friday before Western Easter.
func isGoodFriday(d time.Time) bool {
	m, day := easterMonthDay(d.Year())
	gf := time.Date(d.Year(), m, day, 0, 0, 0, 0, d.Location()).AddDate(0, 0, -2)
	return d.Month() == gf.Month() && d.Day() == gf.Day()
}

// easterMonthDay computes Western Easter Sunday (anonymous Gregorian algorithm).
func easterMonthDay(year int) (time.Month, int) {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Month(month), day
}
