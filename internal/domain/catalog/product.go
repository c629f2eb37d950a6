package catalog

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("catalog: product not found")
)

type Category string

const (
	CategoryStarter Category = "STARTER"
	CategoryMain    Category = "MAIN"
	CategoryDessert Category = "DESSERT"
	CategoryDrink   Category = "DRINK"
)

// Product is a purchasable menu entry. Orders snapshot Price at the moment a
// product is added, so later price edits never change existing carts.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Active      bool
	Category    Category
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Clone returns a copy so repositories can hand out isolated state.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}
