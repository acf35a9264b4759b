package types

import (
	"github.com/shopspring/decimal"
)

// Product mirrors a catalog record as served by the backend. Manufacturer and
// Details are only populated when the matching relation was requested.
type Product struct {
	ID             int             `json:"id"`
	Name           string          `json:"name"`
	Image          string          `json:"image"`
	Price          decimal.Decimal `json:"price"`
	Stock          int             `json:"stock"`
	ManufacturerID int             `json:"manufacturer_id"`
	Manufacturer   *Manufacturer   `json:"manufacturer,omitempty"`
	DetailsID      int             `json:"details_id"`
	Details        *ProductDetails `json:"details,omitempty"`
}

type Manufacturer struct {
	ID       int       `json:"id"`
	Name     string    `json:"name"`
	Products []Product `json:"products,omitempty"`
}

// ProductDetails holds the immutable nutritional facts attached 1:1 to a product.
type ProductDetails struct {
	ID            int     `json:"id"`
	IsHot         bool    `json:"is_hot"`
	Weight        float64 `json:"weight"`
	Cups          float64 `json:"cups"`
	Calories      float64 `json:"calories"`
	Protein       float64 `json:"protein"`
	Fat           float64 `json:"fat"`
	Sodium        float64 `json:"sodium"`
	Fiber         float64 `json:"fiber"`
	Carbohydrates float64 `json:"carbohydrates"`
	Sugars        float64 `json:"sugars"`
	Potassium     float64 `json:"potassium"`
	Vitamins      float64 `json:"vitamins"`
}

// Identity is the authenticated user as far as UI gating cares.
type Identity struct {
	Email string `json:"email"`
	Admin bool   `json:"admin"`
}

// UserInfo is the profile and order history returned by /api/user/info.
type UserInfo struct {
	Email   string        `json:"email"`
	Name    string        `json:"name"`
	Address string        `json:"address"`
	Admin   bool          `json:"admin"`
	Orders  []OrderRecord `json:"orders,omitempty"`
}

// Order is the outbound checkout payload. It is a pure projection of the cart
// against contact fields; the client never stores it.
type Order struct {
	Email         string         `json:"email"`
	Name          string         `json:"name"`
	Address       string         `json:"address"`
	OrderProducts []OrderProduct `json:"order_products"`
}

type OrderProduct struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

// OrderRecord is a previously placed order as reported in the user's history.
type OrderRecord struct {
	ID            int             `json:"id"`
	Price         decimal.Decimal `json:"price"`
	Status        string          `json:"status"`
	Address       string          `json:"address"`
	OrderProducts []OrderProduct  `json:"order_products,omitempty"`
}
