package repository

import (
	"context"

	"gorm.io/gorm"
)

// WithTx runs fn inside a transaction, committing on success and rolling back
// on error or panic.
func WithTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return translateError(db.WithContext(ctx).Transaction(fn))
}
