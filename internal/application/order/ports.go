package order

import "context"

type IDGenerator interface {
	NewID() string
}

// Locker provides keyed mutual exclusion: per customer for the pending-cart
// find-or-create sequence, per order for cart mutations. Lock blocks until
// the key is held or the context ends; the returned func releases it.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}
