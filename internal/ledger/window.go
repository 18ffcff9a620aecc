package ledger

import "time"

// Window selects deltas by the time they were applied. The caller owns the
// calendar policy; the helpers below cover the usual report periods.
type Window func(appliedAt time.Time) bool

// All accepts every delta.
func All() Window {
	return func(time.Time) bool { return true }
}

// Daily accepts deltas applied on the same calendar day as now, in now's location.
func Daily(now time.Time) Window {
	y, m, d := now.Date()
	loc := now.Location()
	return func(t time.Time) bool {
		ty, tm, td := t.In(loc).Date()
		return ty == y && tm == m && td == d
	}
}

// Weekly accepts deltas applied within the seven days leading up to now.
func Weekly(now time.Time) Window {
	from := now.AddDate(0, 0, -7)
	return Between(from, now)
}

// Monthly accepts deltas applied in the same calendar month and year as now.
func Monthly(now time.Time) Window {
	y, m, _ := now.Date()
	loc := now.Location()
	return func(t time.Time) bool {
		ty, tm, _ := t.In(loc).Date()
		return ty == y && tm == m
	}
}

// Between accepts deltas applied in [from, to].
func Between(from, to time.Time) Window {
	return func(t time.Time) bool {
		return !t.Before(from) && !t.After(to)
	}
}

// PeriodWindow resolves a named report period ("daily", "weekly",
// "monthly", "all") relative to now.
func PeriodWindow(period string, now time.Time) (Window, bool) {
	switch period {
	case "daily":
		return Daily(now), true
	case "weekly":
		return Weekly(now), true
	case "monthly":
		return Monthly(now), true
	case "all", "":
		return All(), true
	default:
		return nil, false
	}
}
