package repository

import (
	"context"
	"time"

	"farmapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PromocionRepository interface {
	Create(ctx context.Context, p *model.Promocion) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Promocion, error)
	List(ctx context.Context) ([]model.Promocion, error)
	// ListVigentes returns promotions active at t; a non-nil productoID restricts to
	// promotions that include it.
	ListVigentes(ctx context.Context, t time.Time, productoID *uuid.UUID) ([]model.Promocion, error)
	// Update replaces the promotion row and its product list.
	Update(ctx context.Context, p *model.Promocion) error
	Delete(ctx context.Context, id uuid.UUID) error

	// IncrementarUsoTx bumps usedCount unless maxUses is already reached.
	IncrementarUsoTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
}

type promocionRepo struct{ db *gorm.DB }

func NewPromocionRepository(db *gorm.DB) PromocionRepository { return &promocionRepo{db: db} }

func (r *promocionRepo) Create(ctx context.Context, p *model.Promocion) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *promocionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Promocion, error) {
	var p model.Promocion
	if err := r.db.WithContext(ctx).Preload("Productos").First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *promocionRepo) List(ctx context.Context) ([]model.Promocion, error) {
	var out []model.Promocion
	err := r.db.WithContext(ctx).Preload("Productos").Order("created_at DESC").Find(&out).Error
	return out, err
}

func (r *promocionRepo) ListVigentes(ctx context.Context, t time.Time, productoID *uuid.UUID) ([]model.Promocion, error) {
	q := r.db.WithContext(ctx).Preload("Productos").
		Where("is_active = true AND start_date <= ? AND end_date >= ?", t, t)
	if productoID != nil {
		q = q.Where("id IN (?)", r.db.Model(&model.PromocionProducto{}).
			Select("promocion_id").Where("producto_id = ?", *productoID))
	}
	var out []model.Promocion
	err := q.Order("start_date ASC").Find(&out).Error
	return out, err
}

func (r *promocionRepo) Update(ctx context.Context, p *model.Promocion) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(p).Select("*").Omit("id", "created_at", "used_count", "Productos").Updates(p)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return model.ErrNoEncontrado
		}
		if err := tx.Where("promocion_id = ?", p.ID).Delete(&model.PromocionProducto{}).Error; err != nil {
			return err
		}
		for i := range p.Productos {
			p.Productos[i].PromocionID = p.ID
		}
		if len(p.Productos) == 0 {
			return nil
		}
		return tx.Create(&p.Productos).Error
	})
}

func (r *promocionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("promocion_id = ?", id).Delete(&model.PromocionProducto{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Promocion{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return model.ErrNoEncontrado
		}
		return nil
	})
}

func (r *promocionRepo) IncrementarUsoTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	res := conn(ctx, r.db, tx).Model(&model.Promocion{}).
		Where("id = ? AND (max_uses IS NULL OR max_uses = 0 OR used_count < max_uses)", id).
		Update("used_count", gorm.Expr("used_count + 1"))
	return res.RowsAffected > 0, res.Error
}
