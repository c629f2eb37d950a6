package catalog

import "context"

type Repository interface {
	// FindActiveByID returns the product only if it exists and is active;
	// inactive products are reported as ErrNotFound.
	FindActiveByID(ctx context.Context, id string) (*Product, error)
	// ListActive returns active products sorted by name.
	ListActive(ctx context.Context) ([]*Product, error)
	Save(ctx context.Context, p *Product) error
}
