package repository

import (
	"context"
	"time"

	"farmapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VentaRepository interface {
	// CreateTx inserts the sale with its items and payments.
	CreateTx(ctx context.Context, tx *gorm.DB, v *model.Venta) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error)
	// ListByProducto returns sales containing productoID since desde, newest first.
	ListByProducto(ctx context.Context, productoID uuid.UUID, desde time.Time) ([]model.Venta, error)
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) CreateTx(ctx context.Context, tx *gorm.DB, v *model.Venta) error {
	return conn(ctx, r.db, tx).Create(v).Error
}

func (r *ventaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	if err := r.db.WithContext(ctx).Preload("Items").Preload("Pagos").First(&v, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

func (r *ventaRepo) ListByProducto(ctx context.Context, productoID uuid.UUID, desde time.Time) ([]model.Venta, error) {
	var ventas []model.Venta
	err := r.db.WithContext(ctx).
		Preload("Items").Preload("Pagos").
		Where("created_at >= ? AND id IN (?)", desde,
			r.db.Model(&model.VentaItem{}).Select("venta_id").Where("producto_id = ?", productoID)).
		Order("created_at DESC").
		Find(&ventas).Error
	return ventas, err
}
