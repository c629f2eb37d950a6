package mysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	domain "github.com/magelan-app/magelan/internal/domain/catalog"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Save(ctx context.Context, p *domain.Product) error {
	if p == nil || p.ID == "" {
		return fmt.Errorf("product repository: id is required")
	}
	row := toProductRow(p)
	return r.db.WithContext(ctx).Save(&row).Error
}

func (r *ProductRepository) FindActiveByID(ctx context.Context, id string) (*domain.Product, error) {
	var row productRow
	err := r.db.WithContext(ctx).First(&row, "id = ? AND active = ?", id, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return fromProductRow(&row), nil
}

func (r *ProductRepository) ListActive(ctx context.Context) ([]*domain.Product, error) {
	var rows []productRow
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Product, 0, len(rows))
	for i := range rows {
		out = append(out, fromProductRow(&rows[i]))
	}
	return out, nil
}
