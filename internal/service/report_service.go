package service

import (
	"time"

	"go-farm-ledger/internal/ledger"
	"go-farm-ledger/internal/repository"

	"github.com/shopspring/decimal"
)

// PeriodReport gathers sales, stock and forecast figures for one period
type PeriodReport struct {
	Period        string                     `json:"period"`
	From          time.Time                  `json:"from"`
	To            time.Time                  `json:"to"`
	GeneratedAt   time.Time                  `json:"generated_at"`
	CategorySales []repository.CategorySales `json:"category_sales"`
	Inventory     []ledger.StockItem         `json:"inventory"`
	LowStock      []ledger.StockItem         `json:"low_stock"`
	Valuation     decimal.Decimal            `json:"valuation"`
	Forecasts     []ledger.Forecast          `json:"forecasts"`
	Finance       *FinancialSummary          `json:"finance"`
}

type ReportService interface {
	Generate(period string) (*PeriodReport, error)
}

type reportService struct {
	ledger  LedgerService
	orders  OrderService
	finance FinanceService
	now     func() time.Time
}

func NewReportService(ls LedgerService, ordSvc OrderService, fs FinanceService) ReportService {
	return &reportService{
		ledger:  ls,
		orders:  ordSvc,
		finance: fs,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *reportService) Generate(period string) (*PeriodReport, error) {
	now := s.now()
	p, err := ResolvePeriod(period, now)
	if err != nil {
		return nil, err
	}

	sales, err := s.orders.GetCategorySales(p.Name)
	if err != nil {
		return nil, err
	}
	forecasts, err := s.ledger.ForecastAll(p.Name)
	if err != nil {
		return nil, err
	}
	summary, err := s.finance.Summary(p.Name, nil)
	if err != nil {
		return nil, err
	}

	return &PeriodReport{
		Period:        p.Name,
		From:          p.From,
		To:            p.To,
		GeneratedAt:   now,
		CategorySales: sales,
		Inventory:     s.ledger.GetItems(),
		LowStock:      s.ledger.LowStock(),
		Valuation:     s.ledger.Valuation().Total,
		Forecasts:     forecasts,
		Finance:       summary,
	}, nil
}
