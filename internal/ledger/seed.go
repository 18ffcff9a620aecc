package ledger

import "github.com/shopspring/decimal"

const defaultReorderLevel = 5

// PremiumItemID receives every weight above the largest weight band.
const PremiumItemID = "premium"

// DefaultCategories is the item set a fresh ledger starts with. MaxWeight is
// the upper bound in grams of each packaging size.
var DefaultCategories = []StockItem{
	{ItemID: "small", Category: "Small", ReorderLevel: defaultReorderLevel, UnitPrice: decimal.Zero, MaxWeight: 100},
	{ItemID: "medium", Category: "Medium", ReorderLevel: defaultReorderLevel, UnitPrice: decimal.Zero, MaxWeight: 250},
	{ItemID: "large", Category: "Large", ReorderLevel: defaultReorderLevel, UnitPrice: decimal.Zero, MaxWeight: 500},
	{ItemID: "extra-large", Category: "Extra Large", ReorderLevel: defaultReorderLevel, UnitPrice: decimal.Zero, MaxWeight: 1000},
	{ItemID: "family-pack", Category: "Family Pack", ReorderLevel: defaultReorderLevel, UnitPrice: decimal.Zero, MaxWeight: 2000},
	{ItemID: "bulk-pack", Category: "Bulk Pack", ReorderLevel: defaultReorderLevel, UnitPrice: decimal.Zero, MaxWeight: 5000},
	{ItemID: "premium", Category: "Premium", ReorderLevel: defaultReorderLevel, UnitPrice: decimal.Zero},
}
