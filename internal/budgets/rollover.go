package budgets

import (
	"time"

	"focolare/internal/core"
)

// NextPeriod rolls a recurring budget whose period has fully elapsed into
// the next contiguous period. It reports false when the budget is not
// recurring or its period still covers asOf.
//
// Monthly and yearly periods keep calendar alignment: a full-calendar-month
// budget ends on the last day of the next month even when month lengths
// differ. Custom periods shift by their own length in days.
func NextPeriod(b core.Budget, asOf core.Date) (core.Budget, bool) {
	if !b.IsRecurring {
		return b, false
	}
	if asOf.DaysUntil(b.EndDate) >= 0 {
		// Period still running.
		return b, false
	}

	next := b
	switch b.Period {
	case core.PeriodMonthly:
		next.StartDate = addMonths(b.StartDate, 1)
		if isLastDayOfMonth(b.EndDate) {
			next.EndDate = lastDayOfMonth(addMonths(b.EndDate, 1))
		} else {
			next.EndDate = addMonths(b.EndDate, 1)
		}
	case core.PeriodYearly:
		next.StartDate = core.DateOf(b.StartDate.AddDate(1, 0, 0))
		next.EndDate = core.DateOf(b.EndDate.AddDate(1, 0, 0))
	default:
		length := b.StartDate.DaysUntil(b.EndDate) + 1
		next.StartDate = core.DateOf(b.StartDate.AddDate(0, 0, length))
		next.EndDate = core.DateOf(b.EndDate.AddDate(0, 0, length))
	}
	return next, true
}

// addMonths advances by whole months, clamping the day to the shorter
// target month instead of spilling over (Jan 31 + 1 month = Feb 29/28).
func addMonths(d core.Date, months int) core.Date {
	y, m, day := d.Year(), int(d.Time.Month()), d.Time.Day()
	m += months
	for m > 12 {
		m -= 12
		y++
	}
	for m < 1 {
		m += 12
		y--
	}
	if last := daysIn(y, m); day > last {
		day = last
	}
	return core.NewDate(y, m, day)
}

func isLastDayOfMonth(d core.Date) bool {
	return d.Time.Day() == daysIn(d.Year(), int(d.Time.Month()))
}

func lastDayOfMonth(d core.Date) core.Date {
	return core.NewDate(d.Year(), int(d.Time.Month()), daysIn(d.Year(), int(d.Time.Month())))
}

func daysIn(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
