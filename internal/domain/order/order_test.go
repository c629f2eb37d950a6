package order

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestNewPending(t *testing.T) {
	o := NewPending("order-1", "customer-1")

	assert.Equal(t, StatusPending, o.Status)
	assert.True(t, o.Amount.IsZero())
	assert.Empty(t, o.Items)
	assert.Equal(t, "customer-1", o.CustomerID)
}

func TestAddProduct_NewItem(t *testing.T) {
	o := NewPending("order-1", "customer-1")

	o.AddProduct("item-1", "product-1", 2, dec("10.00"))

	require.Len(t, o.Items, 1)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.True(t, o.Amount.Equal(dec("20.00")), "amount %s", o.Amount)
}

func TestAddProduct_SameProductMergesQuantity(t *testing.T) {
	o := NewPending("order-1", "customer-1")

	o.AddProduct("item-1", "product-1", 2, dec("10.00"))
	o.AddProduct("item-2", "product-1", 3, dec("10.00"))

	require.Len(t, o.Items, 1, "re-adding a product must not create a second item")
	assert.Equal(t, 5, o.Items[0].Quantity)
	assert.True(t, o.Amount.Equal(dec("50.00")))
}

func TestAddProduct_SnapshotsUnitPrice(t *testing.T) {
	o := NewPending("order-1", "customer-1")

	o.AddProduct("item-1", "product-1", 1, dec("7.50"))
	// A later catalog price change does not affect the existing item; the
	// merge path keeps the original snapshot.
	o.AddProduct("item-2", "product-1", 1, dec("9.99"))

	require.Len(t, o.Items, 1)
	assert.True(t, o.Items[0].UnitPrice.Equal(dec("7.50")))
	assert.True(t, o.Amount.Equal(dec("15.00")))
}

func TestAddProduct_NonPositiveQuantityIgnored(t *testing.T) {
	o := NewPending("order-1", "customer-1")

	o.AddProduct("item-1", "product-1", 0, dec("10.00"))
	o.AddProduct("item-2", "product-2", -3, dec("10.00"))

	assert.Empty(t, o.Items)
	assert.True(t, o.Amount.IsZero())
}

func TestRemoveItem(t *testing.T) {
	o := NewPending("order-1", "customer-1")
	o.AddProduct("item-1", "product-1", 2, dec("10.00"))
	o.AddProduct("item-2", "product-2", 1, dec("5.50"))

	err := o.RemoveItem("item-1")

	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.True(t, o.Amount.Equal(dec("5.50")))
}

func TestRemoveItem_Missing(t *testing.T) {
	o := NewPending("order-1", "customer-1")

	err := o.RemoveItem("nope")

	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestTotal(t *testing.T) {
	o := NewPending("order-1", "customer-1")
	assert.True(t, o.Total().IsZero(), "empty order totals to zero")

	o.AddProduct("item-1", "product-1", 2, dec("10.00"))
	o.AddProduct("item-2", "product-2", 1, dec("5.50"))

	assert.True(t, o.Total().Equal(dec("25.50")))
}

func TestTotal_ExactDecimalArithmetic(t *testing.T) {
	o := NewPending("order-1", "customer-1")
	// 0.10 * 3 would drift with binary floats.
	o.AddProduct("item-1", "product-1", 3, dec("0.10"))

	assert.Equal(t, "0.30", o.Total().StringFixed(2))
}

func TestBeginCheckout(t *testing.T) {
	o := NewPending("order-1", "customer-1")
	o.AddProduct("item-1", "product-1", 2, dec("10.00"))

	details := DeliveryDetails{FullName: "Ana Petrova", Phone: "0888", Address: "Sofia", Notes: "ring twice"}
	err := o.BeginCheckout(details)

	require.NoError(t, err)
	assert.Equal(t, details, o.Delivery)
	assert.True(t, o.Amount.Equal(dec("20.00")))
	assert.Equal(t, StatusPending, o.Status, "checkout does not change status; payment confirmation does")
}

func TestBeginCheckout_EmptyOrder(t *testing.T) {
	o := NewPending("order-1", "customer-1")

	err := o.BeginCheckout(DeliveryDetails{FullName: "Ana"})

	assert.ErrorIs(t, err, ErrEmptyOrder)
}

func TestBeginCheckout_NotPending(t *testing.T) {
	o := NewPending("order-1", "customer-1")
	o.AddProduct("item-1", "product-1", 1, dec("10.00"))
	require.NoError(t, o.Submit())

	err := o.BeginCheckout(DeliveryDetails{FullName: "Ana"})

	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestAttachPayment(t *testing.T) {
	o := NewPending("order-1", "customer-1")

	require.NoError(t, o.AttachPayment("pay-1"))
	require.NoError(t, o.AttachPayment("pay-1"), "re-attaching the same payment is fine")

	err := o.AttachPayment("pay-2")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "pay-1", o.PaymentID)
}

func TestClone_IsolatesItems(t *testing.T) {
	o := NewPending("order-1", "customer-1")
	o.AddProduct("item-1", "product-1", 1, dec("10.00"))

	clone := o.Clone()
	clone.Items[0].Quantity = 99
	clone.AddProduct("item-2", "product-2", 1, dec("1.00"))

	assert.Equal(t, 1, o.Items[0].Quantity)
	assert.Len(t, o.Items, 1)
}

func TestOwnershipAndDeletability(t *testing.T) {
	o := NewPending("order-1", "customer-1")

	assert.True(t, o.OwnedBy("customer-1"))
	assert.False(t, o.OwnedBy("customer-2"))
	assert.True(t, o.Deletable())

	o.AddProduct("item-1", "product-1", 1, dec("10.00"))
	require.NoError(t, o.Submit())
	assert.False(t, o.Deletable())
}

func TestItemSubtotal(t *testing.T) {
	item := Item{Quantity: 4, UnitPrice: dec("2.25"), CreatedAt: time.Now()}

	assert.True(t, item.Subtotal().Equal(dec("9.00")))
}
