package service

import (
	"fmt"
	"time"

	"go-farm-ledger/internal/ledger"
)

// Period names accepted by reports, forecasts and finance summaries
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
	PeriodAll     = "all"
)

// Period is a resolved report period: a delta window plus the matching
// closed date range for repository queries.
type Period struct {
	Name   string        `json:"name"`
	From   time.Time     `json:"from"`
	To     time.Time     `json:"to"`
	Window ledger.Window `json:"-"`
}

// ResolvePeriod maps a period name to its window and range relative to now.
// An empty name means PeriodAll.
func ResolvePeriod(name string, now time.Time) (Period, error) {
	if name == "" {
		name = PeriodAll
	}
	win, ok := ledger.PeriodWindow(name, now)
	if !ok {
		return Period{}, fmt.Errorf("%w: unknown period %q", ledger.ErrInvalidInput, name)
	}

	p := Period{Name: name, To: now, Window: win}
	y, m, d := now.Date()
	loc := now.Location()
	switch name {
	case PeriodDaily:
		p.From = time.Date(y, m, d, 0, 0, 0, 0, loc)
		p.To = p.From.AddDate(0, 0, 1).Add(-time.Nanosecond)
	case PeriodWeekly:
		p.From = now.AddDate(0, 0, -7)
	case PeriodMonthly:
		p.From = time.Date(y, m, 1, 0, 0, 0, 0, loc)
		p.To = p.From.AddDate(0, 1, 0).Add(-time.Nanosecond)
	default:
		p.From = time.Unix(0, 0).UTC()
	}
	return p, nil
}
