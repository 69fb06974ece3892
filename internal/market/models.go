package market

import "github.com/shopspring/decimal"

// Product is a catalog listing of post-harvest threshing. Quantity is in KG and
// Price is per KG.
type Product struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Farmer   string          `json:"farmer"`
	Location string          `json:"location"`
}

type CartLine struct {
	Product          Product `json:"product"`
	PurchaseQuantity int     `json:"purchase_quantity"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.PurchaseQuantity)))
}

type Role string

const (
	RoleFarmer   Role = "Farmer"
	RoleRetailer Role = "Retailer"
)

// User is the identity stored under KeyUser.
type User struct {
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	Contact  string `json:"contact,omitempty"`
	Location string `json:"location,omitempty"`
}
