package repository

import (
	"context"
	"time"

	"farmapos/internal/model"

	"gorm.io/gorm"
)

// HistoricoQuery filters the archive of deleted products.
type HistoricoQuery struct {
	Desde  *time.Time
	Hasta  *time.Time
	Nombre string
	Tipos  []string
}

type HistoricoRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, h *model.HistoricoProducto) error
	List(ctx context.Context, q HistoricoQuery) ([]model.HistoricoProducto, error)
}

type historicoRepo struct{ db *gorm.DB }

func NewHistoricoRepository(db *gorm.DB) HistoricoRepository { return &historicoRepo{db: db} }

func (r *historicoRepo) CreateTx(ctx context.Context, tx *gorm.DB, h *model.HistoricoProducto) error {
	return conn(ctx, r.db, tx).Create(h).Error
}

func (r *historicoRepo) List(ctx context.Context, f HistoricoQuery) ([]model.HistoricoProducto, error) {
	q := r.db.WithContext(ctx).Model(&model.HistoricoProducto{})
	if f.Desde != nil {
		q = q.Where("deleted_at >= ?", *f.Desde)
	}
	if f.Hasta != nil {
		q = q.Where("deleted_at <= ?", *f.Hasta)
	}
	if f.Nombre != "" {
		q = q.Where("nombre ILIKE ?", "%"+f.Nombre+"%")
	}
	if len(f.Tipos) > 0 {
		cond := r.db.Where("? = ANY(string_to_array(tipos, ','))", f.Tipos[0])
		for _, t := range f.Tipos[1:] {
			cond = cond.Or("? = ANY(string_to_array(tipos, ','))", t)
		}
		q = q.Where(cond)
	}
	var out []model.HistoricoProducto
	err := q.Order("deleted_at DESC").Find(&out).Error
	return out, err
}
