package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "inventory:adjust"
	Name string `gorm:"type:varchar(100)" json:"name"`
}

const (
	PrivInventoryView    = "inventory:view"
	PrivInventoryCreate  = "inventory:create"
	PrivInventoryUpdate  = "inventory:update"
	PrivInventoryAdjust  = "inventory:adjust"
	PrivInventoryRestock = "inventory:restock"
	PrivFarmerView       = "farmer:view"
	PrivFarmerCreate     = "farmer:create"
	PrivFarmerUpdate     = "farmer:update"
	PrivFarmerDelete     = "farmer:delete"
	PrivPurchaseView     = "purchase:view"
	PrivPurchaseCreate   = "purchase:create"
	PrivOrderView        = "order:view"
	PrivOrderCreate      = "order:create"
	PrivOrderUpdate      = "order:update"
	PrivFinanceView      = "finance:view"
	PrivReportView       = "report:view"
	PrivDashboardView    = "dashboard:view"
)

// DefaultPrivileges are seeded on startup
var DefaultPrivileges = []Privilege{
	{Code: PrivInventoryView, Name: "View Inventory"},
	{Code: PrivInventoryCreate, Name: "Create Inventory Item"},
	{Code: PrivInventoryUpdate, Name: "Update Inventory Item"},
	{Code: PrivInventoryAdjust, Name: "Adjust Stock Manually"},
	{Code: PrivInventoryRestock, Name: "Run Restock"},
	{Code: PrivFarmerView, Name: "View Farmer"},
	{Code: PrivFarmerCreate, Name: "Create Farmer"},
	{Code: PrivFarmerUpdate, Name: "Update Farmer"},
	{Code: PrivFarmerDelete, Name: "Delete Farmer"},
	{Code: PrivPurchaseView, Name: "View Purchase"},
	{Code: PrivPurchaseCreate, Name: "Record Purchase"},
	{Code: PrivOrderView, Name: "View Order"},
	{Code: PrivOrderCreate, Name: "Record Order"},
	{Code: PrivOrderUpdate, Name: "Update Order Status"},
	{Code: PrivFinanceView, Name: "View Finance"},
	{Code: PrivReportView, Name: "View Report"},
	{Code: PrivDashboardView, Name: "View Dashboard"},
}

// adminExcluded are held back from the ADMIN role
var adminExcluded = map[string]bool{
	PrivInventoryAdjust: true,
	PrivFarmerDelete:    true,
}

// AdminPrivileges filters all down to what the ADMIN role receives
func AdminPrivileges(all []Privilege) []Privilege {
	out := make([]Privilege, 0, len(all))
	for _, p := range all {
		if !adminExcluded[p.Code] {
			out = append(out, p)
		}
	}
	return out
}
