package repository

import (
	"context"

	"farmapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UbicacionRepository interface {
	Create(ctx context.Context, u *model.Ubicacion) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Ubicacion, error)
	List(ctx context.Context) ([]model.Ubicacion, error)
	Update(ctx context.Context, u *model.Ubicacion) error
	Delete(ctx context.Context, id uuid.UUID) error

	// AsociarProductoTx adds productoID to the location's set; re-adding is a no-op.
	AsociarProductoTx(ctx context.Context, tx *gorm.DB, ubicacionID, productoID uuid.UUID) error
	// DesasociarProductoTx removes productoID from the location's set.
	DesasociarProductoTx(ctx context.Context, tx *gorm.DB, ubicacionID, productoID uuid.UUID) error
}

type ubicacionRepo struct{ db *gorm.DB }

func NewUbicacionRepository(db *gorm.DB) UbicacionRepository { return &ubicacionRepo{db: db} }

func (r *ubicacionRepo) Create(ctx context.Context, u *model.Ubicacion) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *ubicacionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Ubicacion, error) {
	var u model.Ubicacion
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	ids, err := r.productos(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	u.ProductosAsociados = ids[id]
	return &u, nil
}

func (r *ubicacionRepo) List(ctx context.Context) ([]model.Ubicacion, error) {
	var ubicaciones []model.Ubicacion
	if err := r.db.WithContext(ctx).Order("nombre ASC").Find(&ubicaciones).Error; err != nil {
		return nil, err
	}
	if len(ubicaciones) == 0 {
		return ubicaciones, nil
	}
	ids := make([]uuid.UUID, len(ubicaciones))
	for i, u := range ubicaciones {
		ids[i] = u.ID
	}
	asociados, err := r.productos(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range ubicaciones {
		ubicaciones[i].ProductosAsociados = asociados[ubicaciones[i].ID]
	}
	return ubicaciones, nil
}

func (r *ubicacionRepo) productos(ctx context.Context, ubicaciones []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	var rows []model.UbicacionProducto
	if err := r.db.WithContext(ctx).Where("ubicacion_id IN ?", ubicaciones).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID][]uuid.UUID, len(ubicaciones))
	for _, row := range rows {
		out[row.UbicacionID] = append(out[row.UbicacionID], row.ProductoID)
	}
	return out, nil
}

func (r *ubicacionRepo) Update(ctx context.Context, u *model.Ubicacion) error {
	return r.db.WithContext(ctx).Model(u).Updates(map[string]interface{}{
		"nombre":    u.Nombre,
		"direccion": u.Direccion,
		"telefono":  u.Telefono,
	}).Error
}

func (r *ubicacionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ubicacion_id = ?", id).Delete(&model.UbicacionProducto{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Ubicacion{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return model.ErrNoEncontrado
		}
		return nil
	})
}

func (r *ubicacionRepo) AsociarProductoTx(ctx context.Context, tx *gorm.DB, ubicacionID, productoID uuid.UUID) error {
	return conn(ctx, r.db, tx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.UbicacionProducto{UbicacionID: ubicacionID, ProductoID: productoID}).Error
}

func (r *ubicacionRepo) DesasociarProductoTx(ctx context.Context, tx *gorm.DB, ubicacionID, productoID uuid.UUID) error {
	return conn(ctx, r.db, tx).
		Where("ubicacion_id = ? AND producto_id = ?", ubicacionID, productoID).
		Delete(&model.UbicacionProducto{}).Error
}
