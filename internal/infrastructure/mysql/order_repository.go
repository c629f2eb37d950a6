package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/magelan-app/magelan/internal/domain/order"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Save writes the aggregate as one transaction: the order row is upserted and
// the item rows are replaced wholesale. Carts are small, so the rewrite is
// cheaper than diffing.
func (r *OrderRepository) Save(ctx context.Context, o *domain.Order) error {
	if o == nil || o.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := toOrderRow(o)
		if err := tx.Omit(clause.Associations).Save(&row).Error; err != nil {
			return translateErr(err)
		}
		if err := tx.Where("order_id = ?", o.ID).Delete(&orderItemRow{}).Error; err != nil {
			return translateErr(err)
		}
		if len(row.Items) > 0 {
			if err := tx.Create(&row.Items).Error; err != nil {
				return translateErr(err)
			}
		}
		return nil
	})
}

// SavePending inserts a fresh cart. The unique pending-key index turns a
// concurrent duplicate insert into ErrConflict.
func (r *OrderRepository) SavePending(ctx context.Context, o *domain.Order) error {
	if o == nil || o.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}
	row := toOrderRow(o)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
		return translateErr(err)
	}
	return nil
}

// UpdateStatusGuarded persists the order only while the stored status still
// matches expected. A zero-rows update means a concurrent writer won.
func (r *OrderRepository) UpdateStatusGuarded(ctx context.Context, o *domain.Order, expected domain.Status) error {
	if o == nil || o.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}
	row := toOrderRow(o)
	res := r.db.WithContext(ctx).Model(&orderRow{}).
		Where("id = ? AND status = ?", o.ID, string(expected)).
		Updates(map[string]any{
			"status":      row.Status,
			"amount":      row.Amount,
			"pending_key": row.PendingKey,
			"payment_id":  row.PaymentID,
			"updated_at":  row.UpdatedAt,
		})
	if res.Error != nil {
		return translateErr(res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&orderRow{}).Where("id = ?", o.ID).Count(&count).Error; err != nil {
			return translateErr(err)
		}
		if count == 0 {
			return domain.ErrNotFound
		}
		return domain.ErrConflict
	}
	return nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var row orderRow
	err := r.preloaded(ctx).First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, translateErr(err)
	}
	return fromOrderRow(&row), nil
}

func (r *OrderRepository) FindByItemID(ctx context.Context, itemID string) (*domain.Order, error) {
	var item orderItemRow
	err := r.db.WithContext(ctx).First(&item, "id = ?", itemID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrItemNotFound
		}
		return nil, translateErr(err)
	}
	return r.FindByID(ctx, item.OrderID)
}

func (r *OrderRepository) FindPendingByCustomer(ctx context.Context, customerID string) (*domain.Order, error) {
	var row orderRow
	err := r.preloaded(ctx).
		First(&row, "customer_id = ? AND status = ?", customerID, string(domain.StatusPending)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, translateErr(err)
	}
	return fromOrderRow(&row), nil
}

func (r *OrderRepository) FindByPaymentID(ctx context.Context, paymentID string) (*domain.Order, error) {
	if paymentID == "" {
		return nil, domain.ErrNotFound
	}
	var row orderRow
	err := r.preloaded(ctx).First(&row, "payment_id = ?", paymentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, translateErr(err)
	}
	return fromOrderRow(&row), nil
}

func (r *OrderRepository) FindByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error) {
	var rows []orderRow
	err := r.preloaded(ctx).
		Where("status = ?", string(status)).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return fromOrderRows(rows), nil
}

func (r *OrderRepository) FindByStatusOlderThan(ctx context.Context, status domain.Status, cutoff time.Time) ([]*domain.Order, error) {
	var rows []orderRow
	err := r.preloaded(ctx).
		Where("status = ? AND created_at < ?", string(status), cutoff).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return fromOrderRows(rows), nil
}

func (r *OrderRepository) FindPastByCustomer(ctx context.Context, customerID string) ([]*domain.Order, error) {
	var rows []orderRow
	err := r.preloaded(ctx).
		Where("customer_id = ? AND status <> ?", customerID, string(domain.StatusPending)).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return fromOrderRows(rows), nil
}

func (r *OrderRepository) DeleteByID(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&orderItemRow{}).Error; err != nil {
			return translateErr(err)
		}
		res := tx.Delete(&orderRow{}, "id = ?", id)
		if res.Error != nil {
			return translateErr(res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *OrderRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.created_at ASC")
	})
}

func fromOrderRows(rows []orderRow) []*domain.Order {
	out := make([]*domain.Order, 0, len(rows))
	for i := range rows {
		out = append(out, fromOrderRow(&rows[i]))
	}
	return out
}

func translateErr(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrConflict
	}
	return err
}
