package mysql

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/magelan-app/magelan/internal/domain/catalog"
	"github.com/magelan-app/magelan/internal/domain/order"
)

// orderRow persists the order aggregate root. PendingKey carries the customer
// id only while the order is PENDING and is NULL afterwards; the unique index
// on it is what enforces "one pending cart per customer" at the storage
// layer (MySQL allows any number of NULLs in a unique index).
type orderRow struct {
	ID               string          `gorm:"primaryKey;type:varchar(36)"`
	CustomerID       string          `gorm:"type:varchar(36);not null;index"`
	Status           string          `gorm:"type:varchar(20);not null;index"`
	Amount           decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	PendingKey       *string         `gorm:"type:varchar(36);uniqueIndex"`
	PaymentID        *string         `gorm:"type:varchar(36);uniqueIndex"`
	DeliveryFullName string          `gorm:"type:varchar(100)"`
	DeliveryPhone    string          `gorm:"type:varchar(20)"`
	DeliveryAddress  string          `gorm:"type:varchar(255)"`
	DeliveryNotes    string          `gorm:"type:varchar(1000)"`
	Items            []orderItemRow  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (orderRow) TableName() string { return "orders" }

type orderItemRow struct {
	ID        string          `gorm:"primaryKey;type:varchar(36)"`
	OrderID   string          `gorm:"type:varchar(36);not null;index:idx_order_product,unique"`
	ProductID string          `gorm:"type:varchar(36);not null;index:idx_order_product,unique"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt time.Time
}

func (orderItemRow) TableName() string { return "order_items" }

type productRow struct {
	ID          string          `gorm:"primaryKey;type:varchar(36)"`
	Name        string          `gorm:"type:varchar(100);uniqueIndex;not null"`
	Description string          `gorm:"type:varchar(500)"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Active      bool            `gorm:"not null;index"`
	Category    string          `gorm:"type:varchar(20);not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (productRow) TableName() string { return "products" }

func toOrderRow(o *order.Order) orderRow {
	row := orderRow{
		ID:               o.ID,
		CustomerID:       o.CustomerID,
		Status:           string(o.Status),
		Amount:           o.Amount,
		DeliveryFullName: o.Delivery.FullName,
		DeliveryPhone:    o.Delivery.Phone,
		DeliveryAddress:  o.Delivery.Address,
		DeliveryNotes:    o.Delivery.Notes,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
	if o.Status == order.StatusPending {
		key := o.CustomerID
		row.PendingKey = &key
	}
	if o.PaymentID != "" {
		id := o.PaymentID
		row.PaymentID = &id
	}
	for _, item := range o.Items {
		row.Items = append(row.Items, orderItemRow{
			ID:        item.ID,
			OrderID:   o.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			CreatedAt: item.CreatedAt,
		})
	}
	return row
}

func fromOrderRow(row *orderRow) *order.Order {
	o := &order.Order{
		ID:         row.ID,
		CustomerID: row.CustomerID,
		Status:     order.Status(row.Status),
		Amount:     row.Amount,
		Delivery: order.DeliveryDetails{
			FullName: row.DeliveryFullName,
			Phone:    row.DeliveryPhone,
			Address:  row.DeliveryAddress,
			Notes:    row.DeliveryNotes,
		},
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if row.PaymentID != nil {
		o.PaymentID = *row.PaymentID
	}
	for _, item := range row.Items {
		o.Items = append(o.Items, &order.Item{
			ID:        item.ID,
			OrderID:   item.OrderID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			CreatedAt: item.CreatedAt,
		})
	}
	return o
}

func toProductRow(p *catalog.Product) productRow {
	return productRow{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Active:      p.Active,
		Category:    string(p.Category),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func fromProductRow(row *productRow) *catalog.Product {
	return &catalog.Product{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Price:       row.Price,
		Active:      row.Active,
		Category:    catalog.Category(row.Category),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}
