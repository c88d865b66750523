package types

import "time"

// AddClampedDate adds years, months and days to t while clamping the day of
// month to the last valid day of the resulting month. time.AddDate would roll
// Jan 31 + 1 month over into March; billing anchors must not roll over.
func AddClampedDate(t time.Time, years, months, days int) time.Time {
	y, m, d := t.Date()
	h, min, sec := t.Clock()

	newY := y + years
	newM := time.Month(int(m) + months)

	for newM > 12 {
		newM -= 12
		newY++
	}
	for newM < 1 {
		newM += 12
		newY--
	}

	// Find the last valid day of the new month
	firstOfNextMonth := time.Date(newY, newM+1, 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfNextMonth.Add(-24 * time.Hour).Day()

	newD := d + days
	if newD > lastDay {
		newD = lastDay
	}

	return time.Date(newY, newM, newD, h, min, sec, t.Nanosecond(), t.Location())
}

// MonthsBetween returns the number of whole calendar months from start to end.
// A month only counts once the day of month and time of day of the start have
// been reached, so 2020-01-15 to 2020-02-14 is 0 months and to 2020-02-15 is 1.
func MonthsBetween(start, end time.Time) int {
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if months > 0 && end.Before(AddClampedDate(start, 0, months, 0)) {
		months--
	} else if months < 0 && end.After(AddClampedDate(start, 0, months, 0)) {
		months++
	}
	return months
}

// BillCycleDateOnOrAfter returns the first date on or after t whose day of
// month equals billCycleDay, clamped to the last day of short months. The
// time of day of t is preserved so date comparisons stay consistent.
func BillCycleDateOnOrAfter(t time.Time, billCycleDay int) time.Time {
	candidate := BillCycleDateInMonth(t, billCycleDay)
	if candidate.Before(t) {
		candidate = BillCycleDateInMonth(AddClampedDate(t, 0, 1, 0), billCycleDay)
	}
	return candidate
}

// BillCycleDateInMonth returns the bill cycle date within t's month, clamping
// the day to the last day of short months. The time of day of t is preserved.
func BillCycleDateInMonth(t time.Time, billCycleDay int) time.Time {
	firstOfNextMonth := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
	lastDay := firstOfNextMonth.Add(-24 * time.Hour).Day()

	day := billCycleDay
	if day > lastDay {
		day = lastDay
	}
	return time.Date(t.Year(), t.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// DaysBetween returns the number of calendar days from start to end,
// counting start and excluding end.
func DaysBetween(start, end time.Time) int {
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location())

	days := 0
	for current := startDay; current.Before(endDay); {
		days++
		next := current.Add(24 * time.Hour)
		current = time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, start.Location())
	}
	return days
}

// Duration is the length of a subscription phase, used to derive the expiry
// date of a fixed price charge from its effective date.
type Duration struct {
	Months int `json:"months"`
	Days   int `json:"days"`
}

// AddTo returns t advanced by the duration, with month arithmetic clamped
// to month boundaries.
func (d Duration) AddTo(t time.Time) time.Time {
	return AddClampedDate(t, 0, d.Months, d.Days)
}
