package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"go-farm-ledger/internal/ledger"
	"go-farm-ledger/internal/model"
	"go-farm-ledger/internal/repository"
	"go-farm-ledger/internal/ws"
	"go-farm-ledger/pkg/metrics"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testLedger struct {
	svc    LedgerService
	ledger *ledger.Ledger
	store  *ledger.MemoryStore
	hub    *ws.Hub
	reg    *prometheus.Registry
}

func newTestLedger(t *testing.T) *testLedger {
	t.Helper()
	store := ledger.NewMemoryStore()
	l := ledger.New(store)
	require.NoError(t, l.Load(context.Background()))

	reg := prometheus.NewRegistry()
	hub := ws.NewHub(nil)
	return &testLedger{
		svc:    NewLedgerService(l, hub, metrics.NewLedger(reg), nil),
		ledger: l,
		store:  store,
		hub:    hub,
		reg:    reg,
	}
}

func (tl *testLedger) item(t *testing.T, id string, qty, reorder int, price string) {
	t.Helper()
	_, err := tl.ledger.CreateItem(context.Background(), id, ledger.Attributes{
		Category:     id,
		Quantity:     qty,
		ReorderLevel: reorder,
		UnitPrice:    decimal.RequireFromString(price),
	})
	require.NoError(t, err)
}

var actor = Actor{ID: "user-1", Name: "Ann", Email: "ann@example.com"}

type fakeFarmerRepo struct {
	mu      sync.Mutex
	farmers map[uuid.UUID]*model.Farmer
}

func newFakeFarmerRepo() *fakeFarmerRepo {
	return &fakeFarmerRepo{farmers: make(map[uuid.UUID]*model.Farmer)}
}

func (r *fakeFarmerRepo) Create(f *model.Farmer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	cp := *f
	r.farmers[f.ID] = &cp
	return nil
}

func (r *fakeFarmerRepo) FindAll(search string) ([]model.Farmer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := strings.ToLower(search)
	var out []model.Farmer
	for _, f := range r.farmers {
		hay := strings.ToLower(f.Name + " " + f.Location + " " + f.ProduceTypes)
		if s == "" || strings.Contains(hay, s) {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeFarmerRepo) FindByID(id uuid.UUID) (*model.Farmer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.farmers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *fakeFarmerRepo) Update(f *model.Farmer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *f
	r.farmers[f.ID] = &cp
	return nil
}

func (r *fakeFarmerRepo) Delete(id uuid.UUID, deletedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.farmers[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.farmers, id)
	return nil
}

type fakePurchaseRepo struct {
	mu        sync.Mutex
	purchases []model.Purchase
	createErr error
}

func (r *fakePurchaseRepo) Create(p *model.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.purchases = append(r.purchases, *p)
	return nil
}

func (r *fakePurchaseRepo) FindAll(filter repository.PurchaseFilter) ([]model.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Purchase
	for _, p := range r.purchases {
		if filter.FarmerID != nil && p.FarmerID != *filter.FarmerID {
			continue
		}
		if filter.ItemID != "" && p.ItemID != filter.ItemID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *fakePurchaseRepo) FindByReference(ref string) (*model.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.purchases {
		if p.Reference == ref {
			cp := p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePurchaseRepo) GetFarmerSummary(farmerID uuid.UUID) (*repository.FarmerSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := repository.FarmerSummary{FarmerID: farmerID, TotalCost: decimal.Zero}
	for _, p := range r.purchases {
		if p.FarmerID == farmerID {
			s.PurchaseCount++
			s.TotalQuantity += int64(p.Quantity)
			s.TotalCost = s.TotalCost.Add(p.TotalCost)
		}
	}
	return &s, nil
}

func (r *fakePurchaseRepo) GetTotalExpenses(from, to time.Time) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := decimal.Zero
	for _, p := range r.purchases {
		if !p.PurchaseDate.Before(from) && !p.PurchaseDate.After(to) {
			total = total.Add(p.TotalCost)
		}
	}
	return total, nil
}

type fakeOrderRepo struct {
	mu        sync.Mutex
	orders    []model.Order
	createErr error
}

func (r *fakeOrderRepo) Create(o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	r.orders = append(r.orders, *o)
	return nil
}

func (r *fakeOrderRepo) FindAll(filter repository.OrderFilter) ([]model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Order
	for _, o := range r.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(o.Category, filter.Category) {
			continue
		}
		if filter.Search != "" && !matchesSearch(o, filter.Search) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (r *fakeOrderRepo) FindByID(id uuid.UUID) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ID == id {
			cp := o
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeOrderRepo) FindByReference(ref string) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.Reference == ref {
			cp := o
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func matchesSearch(o model.Order, term string) bool {
	term = strings.ToLower(term)
	for _, field := range []string{o.CustomerDetails, o.Category, string(o.Status)} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func (r *fakeOrderRepo) UpdateStatus(id uuid.UUID, status model.OrderStatus, updatedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.orders {
		if r.orders[i].ID == id {
			r.orders[i].Status = status
			r.orders[i].UpdatedBy = updatedBy
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeOrderRepo) inRange(from, to time.Time) []model.Order {
	var out []model.Order
	for _, o := range r.orders {
		if o.Status != model.OrderCancelled && !o.OrderDate.Before(from) && !o.OrderDate.After(to) {
			out = append(out, o)
		}
	}
	return out
}

func (r *fakeOrderRepo) GetRevenue(from, to time.Time) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := decimal.Zero
	for _, o := range r.inRange(from, to) {
		total = total.Add(o.TotalPrice)
	}
	return total, nil
}

func (r *fakeOrderRepo) GetCategorySales(from, to time.Time) ([]repository.CategorySales, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byCat := map[string]*repository.CategorySales{}
	var cats []string
	for _, o := range r.inRange(from, to) {
		row, ok := byCat[o.Category]
		if !ok {
			row = &repository.CategorySales{Category: o.Category, Revenue: decimal.Zero}
			byCat[o.Category] = row
			cats = append(cats, o.Category)
		}
		row.OrderCount++
		row.QuantitySold += int64(o.Quantity)
		row.Revenue = row.Revenue.Add(o.TotalPrice)
	}
	sort.Strings(cats)
	out := make([]repository.CategorySales, 0, len(cats))
	for _, c := range cats {
		out = append(out, *byCat[c])
	}
	return out, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) FindByEmail(email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByID(id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) Create(u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) Update(u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) UpdatePassword(id uuid.UUID, hashed string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Password = hashed
	return nil
}

func (r *fakeUserRepo) UpdateTokenVersion(id uuid.UUID, version string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.TokenVersion = version
	}
	return nil
}

func (r *fakeUserRepo) UpdateLastSeen(id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		now := time.Now()
		u.LastSeenAt = &now
	}
	return nil
}

type fakePrivilegeRepo struct {
	privileges []model.Privilege
}

func (r *fakePrivilegeRepo) FindByCode(code string) (*model.Privilege, error) {
	for _, p := range r.privileges {
		if p.Code == code {
			cp := p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePrivilegeRepo) FindByCodes(codes []string) ([]model.Privilege, error) {
	var out []model.Privilege
	for _, c := range codes {
		if p, err := r.FindByCode(c); err == nil {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePrivilegeRepo) FindAll() ([]model.Privilege, error) {
	return append([]model.Privilege(nil), r.privileges...), nil
}

func (r *fakePrivilegeRepo) Create(p *model.Privilege) error {
	p.ID = uint(len(r.privileges) + 1)
	r.privileges = append(r.privileges, *p)
	return nil
}

func (r *fakePrivilegeRepo) SeedDefaults() error {
	for _, p := range model.DefaultPrivileges {
		if _, err := r.FindByCode(p.Code); err != nil {
			priv := p
			if err := r.Create(&priv); err != nil {
				return err
			}
		}
	}
	return nil
}

type fakeRoleRepo struct {
	roles []*model.Role
}

func (r *fakeRoleRepo) FindAll() ([]model.Role, error) {
	out := make([]model.Role, 0, len(r.roles))
	for _, role := range r.roles {
		out = append(out, *role)
	}
	return out, nil
}

func (r *fakeRoleRepo) FindByID(id uint) (*model.Role, error) {
	for _, role := range r.roles {
		if role.ID == id {
			cp := *role
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRoleRepo) FindByCode(code string) (*model.Role, error) {
	for _, role := range r.roles {
		if role.Code == code {
			cp := *role
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeRoleRepo) Create(role *model.Role) error {
	role.ID = uint(len(r.roles) + 1)
	cp := *role
	r.roles = append(r.roles, &cp)
	return nil
}

func (r *fakeRoleRepo) AssignPrivileges(role *model.Role, privileges []model.Privilege) error {
	for _, stored := range r.roles {
		if stored.ID == role.ID {
			stored.Privileges = privileges
		}
	}
	role.Privileges = privileges
	return nil
}

func (r *fakeRoleRepo) SeedDefaults() error {
	for _, d := range model.DefaultRoles {
		if _, err := r.FindByCode(d.Code); err != nil {
			role := d
			if err := r.Create(&role); err != nil {
				return err
			}
		}
	}
	return nil
}
