package repository

import (
	"context"

	"gorm.io/gorm"
)

// conn returns tx when the caller is inside a transaction, otherwise the
// repository's own handle. Both are bound to ctx.
func conn(ctx context.Context, db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// page normalizes page/limit and returns the row offset.
func page(p, limit, def, max int) (int, int, int) {
	if p < 1 {
		p = 1
	}
	if limit < 1 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return p, limit, (p - 1) * limit
}
