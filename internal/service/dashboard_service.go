package service

import (
	"fmt"
	"sort"
	"time"

	"go-farm-ledger/internal/ledger"

	"github.com/shopspring/decimal"
)

// StockMovementData is one day of inbound and outbound stock for charts
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

// DashboardStats is the overview shown on the landing page
type DashboardStats struct {
	TotalItems     int                 `json:"total_items"`
	LowStockCount  int                 `json:"low_stock_count"`
	RestockDue     int                 `json:"restock_due"`
	TotalValuation decimal.Decimal     `json:"total_valuation"`
	RecentDeltas   []ledger.StockDelta `json:"recent_deltas"`
}

// StockMovement is the chart series of one range, with totals
type StockMovement struct {
	Period   string              `json:"period"`
	ItemID   string              `json:"item_id,omitempty"`
	From     time.Time           `json:"from"`
	To       time.Time           `json:"to"`
	Inbound  int                 `json:"inbound"`
	Outbound int                 `json:"outbound"`
	Data     []StockMovementData `json:"data"`
}

// MovementQuery selects the range of a stock movement chart. A named Period
// wins over Days.
type MovementQuery struct {
	Period string
	Days   int
	ItemID string
}

const (
	recentDeltaCount    = 10
	defaultMovementDays = 7
)

type DashboardService interface {
	GetStockMovement(q MovementQuery) (*StockMovement, error)
	GetDashboardStats() *DashboardStats
}

type dashboardService struct {
	ledger LedgerService
	now    func() time.Time
}

func NewDashboardService(ls LedgerService) DashboardService {
	return &dashboardService{
		ledger: ls,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// GetStockMovement buckets the deltas of the queried range per calendar day
func (s *dashboardService) GetStockMovement(q MovementQuery) (*StockMovement, error) {
	now := s.now()
	out := &StockMovement{ItemID: q.ItemID, To: now}
	var window ledger.Window

	if q.Period != "" {
		p, err := ResolvePeriod(q.Period, now)
		if err != nil {
			return nil, err
		}
		out.Period, out.From, out.To, window = p.Name, p.From, p.To, p.Window
	} else {
		days := q.Days
		if days <= 0 {
			days = defaultMovementDays
		}
		out.Period = fmt.Sprintf("%dd", days)
		out.From = now.AddDate(0, 0, -days)
		window = ledger.Between(out.From, now)
	}

	buckets := make(map[string]*StockMovementData)
	for _, d := range s.ledger.Deltas(ledger.DeltaFilter{ItemID: q.ItemID, Window: window}) {
		day := d.AppliedAt.UTC().Format("2006-01-02")
		b, ok := buckets[day]
		if !ok {
			b = &StockMovementData{Date: day}
			buckets[day] = b
		}
		if d.Quantity > 0 {
			b.Inbound += d.Quantity
		} else {
			b.Outbound -= d.Quantity
		}
	}

	out.Data = make([]StockMovementData, 0, len(buckets))
	for _, b := range buckets {
		out.Inbound += b.Inbound
		out.Outbound += b.Outbound
		out.Data = append(out.Data, *b)
	}
	sort.Slice(out.Data, func(i, j int) bool { return out.Data[i].Date < out.Data[j].Date })
	return out, nil
}

func (s *dashboardService) GetDashboardStats() *DashboardStats {
	return &DashboardStats{
		TotalItems:     len(s.ledger.GetItems()),
		LowStockCount:  len(s.ledger.LowStock()),
		RestockDue:     len(s.ledger.RestockDue()),
		TotalValuation: s.ledger.Valuation().Total,
		RecentDeltas:   s.ledger.Deltas(ledger.DeltaFilter{Limit: recentDeltaCount}),
	}
}
