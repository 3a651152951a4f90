package repository

import (
	"context"
	"errors"

	"farmapos/internal/model"

	"gorm.io/gorm"
)

// conn returns tx when the caller is inside a transaction, otherwise the base handle.
func conn(ctx context.Context, db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db.WithContext(ctx)
}

// notFound maps gorm.ErrRecordNotFound onto the domain sentinel.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.ErrNoEncontrado
	}
	return err
}
