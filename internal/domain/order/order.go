package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = errors.New("order: not found")
	ErrItemNotFound = errors.New("order: item not found")
	ErrForbidden    = errors.New("order: forbidden")
	ErrConflict     = errors.New("order: conflict")
	ErrInvalidState = errors.New("order: invalid state")
	// ErrEmptyOrder is an invalid-state error: errors.Is(err, ErrInvalidState)
	// also matches it.
	ErrEmptyOrder = fmt.Errorf("%w: order has no items", ErrInvalidState)
)

// Item is a line item owned by an Order. The unit price is a snapshot taken
// when the product was first added, not a live reference to the catalog.
type Item struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
	CreatedAt time.Time
}

// Subtotal returns unit price multiplied by quantity.
func (i *Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// DeliveryDetails holds the delivery metadata captured when payment starts.
type DeliveryDetails struct {
	FullName string
	Phone    string
	Address  string
	Notes    string
}

// Order is the aggregate root for a customer's cart and its lifecycle after
// submission. Amount always equals the sum of item subtotals; every item
// mutation goes through methods that recompute it.
type Order struct {
	ID         string
	CustomerID string
	Status     Status
	Amount     decimal.Decimal
	Delivery   DeliveryDetails
	PaymentID  string
	Items      []*Item
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewPending creates an empty pending cart for a customer.
func NewPending(id, customerID string) *Order {
	now := time.Now().UTC()
	return &Order{
		ID:         id,
		CustomerID: customerID,
		Status:     StatusPending,
		Amount:     decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// AddProduct merges the quantity into an existing item for the product, or
// appends a new item priced at unitPrice. Non-positive quantities are ignored.
// The order amount is recomputed before returning.
func (o *Order) AddProduct(itemID, productID string, quantity int, unitPrice decimal.Decimal) {
	if quantity <= 0 {
		return
	}
	for _, item := range o.Items {
		if item.ProductID == productID {
			item.Quantity += quantity
			o.recalculate()
			return
		}
	}
	o.Items = append(o.Items, &Item{
		ID:        itemID,
		OrderID:   o.ID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		CreatedAt: time.Now().UTC(),
	})
	o.recalculate()
}

// RemoveItem deletes the item with the given id and recomputes the amount.
func (o *Order) RemoveItem(itemID string) error {
	for idx, item := range o.Items {
		if item.ID == itemID {
			o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
			o.recalculate()
			return nil
		}
	}
	return ErrItemNotFound
}

// FindItem returns the item with the given id, or ErrItemNotFound.
func (o *Order) FindItem(itemID string) (*Item, error) {
	for _, item := range o.Items {
		if item.ID == itemID {
			return item, nil
		}
	}
	return nil, ErrItemNotFound
}

// Total sums unit price times quantity over all items. Zero for an empty order.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// BeginCheckout stores delivery details and pins the amount to the cart total
// at the moment of submission. The order must be pending and non-empty.
func (o *Order) BeginCheckout(details DeliveryDetails) error {
	if o.Status != StatusPending {
		return ErrInvalidState
	}
	if len(o.Items) == 0 {
		return ErrEmptyOrder
	}
	o.Delivery = details
	o.Amount = o.Total()
	o.touch()
	return nil
}

// AttachPayment records the external payment id. It is set once; attaching a
// different id afterwards is a conflict.
func (o *Order) AttachPayment(paymentID string) error {
	if o.PaymentID != "" && o.PaymentID != paymentID {
		return ErrConflict
	}
	o.PaymentID = paymentID
	o.touch()
	return nil
}

// Deletable reports whether the order may be cancelled outright.
// Only pending carts can be deleted.
func (o *Order) Deletable() bool {
	return o.Status == StatusPending
}

// OwnedBy reports whether the order belongs to the given customer.
func (o *Order) OwnedBy(customerID string) bool {
	return o.CustomerID == customerID
}

func (o *Order) recalculate() {
	o.Amount = o.Total()
	o.touch()
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}

// Clone returns a deep copy so repositories can hand out isolated state.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = make([]*Item, len(o.Items))
	for i, item := range o.Items {
		copied := *item
		clone.Items[i] = &copied
	}
	return &clone
}
