package repository

import (
	"context"
	"time"

	"farmapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	limiteMovimientos    = 50
	limiteMovimientosMax = 500
)

// MovimientoQuery selects ledger rows. UbicacionIDs nil means every location.
type MovimientoQuery struct {
	UbicacionIDs []uuid.UUID
	ProductoID   *uuid.UUID
	Tipo         string
	Desde        *time.Time
	Hasta        *time.Time
	Page         int
	Limit        int
}

// Normalizar clamps paging to sane bounds.
func (q *MovimientoQuery) Normalizar() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > limiteMovimientosMax {
		q.Limit = limiteMovimientos
	}
}

type MovimientoStockRepository interface {
	// CreateTx appends one ledger row; rows are never updated.
	CreateTx(ctx context.Context, tx *gorm.DB, m *model.MovimientoStock) error
	List(ctx context.Context, q MovimientoQuery) ([]model.MovimientoStock, int64, error)
}

type movimientoStockRepo struct{ db *gorm.DB }

func NewMovimientoStockRepository(db *gorm.DB) MovimientoStockRepository {
	return &movimientoStockRepo{db: db}
}

func (r *movimientoStockRepo) CreateTx(ctx context.Context, tx *gorm.DB, m *model.MovimientoStock) error {
	return conn(ctx, r.db, tx).Create(m).Error
}

func (r *movimientoStockRepo) List(ctx context.Context, q MovimientoQuery) ([]model.MovimientoStock, int64, error) {
	q.Normalizar()
	tx := r.db.WithContext(ctx).Model(&model.MovimientoStock{})
	if q.UbicacionIDs != nil {
		// deleted products keep their ledger rows, so scope through the live table
		tx = tx.Where("producto_id IN (?)",
			r.db.Model(&model.Producto{}).Select("id").Where("ubicacion_id IN ?", q.UbicacionIDs))
	}
	if q.ProductoID != nil {
		tx = tx.Where("producto_id = ?", *q.ProductoID)
	}
	if q.Tipo != "" {
		tx = tx.Where("tipo = ?", q.Tipo)
	}
	if q.Desde != nil {
		tx = tx.Where("created_at >= ?", *q.Desde)
	}
	if q.Hasta != nil {
		tx = tx.Where("created_at < ?", *q.Hasta)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var movimientos []model.MovimientoStock
	err := tx.Order("created_at DESC").
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&movimientos).Error
	return movimientos, total, err
}
