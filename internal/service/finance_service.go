package service

import (
	"fmt"
	"time"

	"go-farm-ledger/internal/ledger"
	"go-farm-ledger/internal/repository"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the percentage applied when the caller gives none
var DefaultTaxRate = decimal.NewFromInt(20)

var hundred = decimal.NewFromInt(100)

// FinancialSummary is income from orders against expenses from purchases
type FinancialSummary struct {
	Period    string          `json:"period"`
	From      time.Time       `json:"from"`
	To        time.Time       `json:"to"`
	Income    decimal.Decimal `json:"income"`
	Expenses  decimal.Decimal `json:"expenses"`
	NetIncome decimal.Decimal `json:"net_income"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	Tax       decimal.Decimal `json:"tax"`
	NetProfit decimal.Decimal `json:"net_profit"`
}

type FinanceService interface {
	NetIncome(income, expenses decimal.Decimal) (decimal.Decimal, error)
	Tax(income, rate decimal.Decimal) (decimal.Decimal, error)
	NetProfit(revenue, expenses, tax decimal.Decimal) (decimal.Decimal, error)
	Summary(period string, rate *decimal.Decimal) (*FinancialSummary, error)
}

type financeService struct {
	orderRepo    repository.OrderRepository
	purchaseRepo repository.PurchaseRepository
	now          func() time.Time
}

func NewFinanceService(oRepo repository.OrderRepository, pRepo repository.PurchaseRepository) FinanceService {
	return &financeService{
		orderRepo:    oRepo,
		purchaseRepo: pRepo,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *financeService) NetIncome(income, expenses decimal.Decimal) (decimal.Decimal, error) {
	if income.IsNegative() || expenses.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: income and expenses must not be negative", ledger.ErrInvalidInput)
	}
	return income.Sub(expenses), nil
}

// Tax is income * rate / 100. rate is a percentage in [0, 100].
func (s *financeService) Tax(income, rate decimal.Decimal) (decimal.Decimal, error) {
	if income.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: income must not be negative", ledger.ErrInvalidInput)
	}
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return decimal.Zero, fmt.Errorf("%w: tax rate must be between 0 and 100", ledger.ErrInvalidInput)
	}
	return income.Mul(rate).Div(hundred), nil
}

func (s *financeService) NetProfit(revenue, expenses, tax decimal.Decimal) (decimal.Decimal, error) {
	if revenue.IsNegative() || expenses.IsNegative() || tax.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: amounts must not be negative", ledger.ErrInvalidInput)
	}
	return revenue.Sub(expenses).Sub(tax), nil
}

// Summary derives income from non-cancelled orders and expenses from
// purchases within the period. A nil rate means DefaultTaxRate.
func (s *financeService) Summary(period string, rate *decimal.Decimal) (*FinancialSummary, error) {
	p, err := ResolvePeriod(period, s.now())
	if err != nil {
		return nil, err
	}
	taxRate := DefaultTaxRate
	if rate != nil {
		taxRate = *rate
	}

	income, err := s.orderRepo.GetRevenue(p.From, p.To)
	if err != nil {
		return nil, err
	}
	expenses, err := s.purchaseRepo.GetTotalExpenses(p.From, p.To)
	if err != nil {
		return nil, err
	}

	tax, err := s.Tax(income, taxRate)
	if err != nil {
		return nil, err
	}
	net, err := s.NetIncome(income, expenses)
	if err != nil {
		return nil, err
	}
	profit, err := s.NetProfit(income, expenses, tax)
	if err != nil {
		return nil, err
	}

	return &FinancialSummary{
		Period:    p.Name,
		From:      p.From,
		To:        p.To,
		Income:    income,
		Expenses:  expenses,
		NetIncome: net,
		TaxRate:   taxRate,
		Tax:       tax,
		NetProfit: profit,
	}, nil
}
