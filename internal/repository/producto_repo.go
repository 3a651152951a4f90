package repository

import (
	"context"
	"time"

	"farmapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductoQuery filters product listings. Empty fields do not filter.
type ProductoQuery struct {
	UbicacionIDs []uuid.UUID
	Barcode      string
	Nombre       string
	Tipos        []string
}

// ProductoRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type ProductoRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, p *model.Producto) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error)
	FindByIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Producto, error)
	FindByBarcode(ctx context.Context, barcode string, ubicaciones []uuid.UUID) ([]model.Producto, error)
	List(ctx context.Context, q ProductoQuery) ([]model.Producto, error)
	UpdateTx(ctx context.Context, tx *gorm.DB, p *model.Producto) error
	DeleteTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) error

	// FindEquivalenteTx looks up the product matching p's identity at ubicacionID:
	// barcode, name, pharmaceutical company and expiration date.
	FindEquivalenteTx(ctx context.Context, tx *gorm.DB, p *model.Producto, ubicacionID uuid.UUID) (*model.Producto, error)

	// MoverStockTx adds delta to the three counters in one statement, only when
	// stock_units + delta.Unidades stays >= 0. ok is false when the guard rejected
	// the update; the returned Stock is the new state when ok.
	MoverStockTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta model.Stock) (nuevo model.Stock, ok bool, err error)

	// FijarStockTx overwrites the counters (manual edit) and returns the ones it
	// replaced, read under a row lock in the same statement.
	FijarStockTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, s model.Stock) (anterior model.Stock, err error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) DB() *gorm.DB { return r.db }

func (r *productoRepo) CreateTx(ctx context.Context, tx *gorm.DB, p *model.Producto) error {
	return conn(ctx, r.db, tx).Create(p).Error
}

func (r *productoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	return r.FindByIDTx(ctx, nil, id)
}

func (r *productoRepo) FindByIDTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	if err := conn(ctx, r.db, tx).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *productoRepo) FindByBarcode(ctx context.Context, barcode string, ubicaciones []uuid.UUID) ([]model.Producto, error) {
	var productos []model.Producto
	q := r.db.WithContext(ctx).Where("barcode = ?", barcode)
	if len(ubicaciones) > 0 {
		q = q.Where("ubicacion_id IN ?", ubicaciones)
	}
	err := q.Order("expiration_date ASC").Find(&productos).Error
	return productos, err
}

func (r *productoRepo) List(ctx context.Context, f ProductoQuery) ([]model.Producto, error) {
	var productos []model.Producto
	q := r.db.WithContext(ctx).Model(&model.Producto{})

	if len(f.UbicacionIDs) > 0 {
		q = q.Where("ubicacion_id IN ?", f.UbicacionIDs)
	}
	if f.Barcode != "" {
		q = q.Where("barcode = ?", f.Barcode)
	}
	if f.Nombre != "" {
		q = q.Where("nombre ILIKE ?", "%"+f.Nombre+"%")
	}
	if len(f.Tipos) > 0 {
		// types is stored comma separated; match any element
		cond := r.db.Where("? = ANY(string_to_array(tipos, ','))", f.Tipos[0])
		for _, t := range f.Tipos[1:] {
			cond = cond.Or("? = ANY(string_to_array(tipos, ','))", t)
		}
		q = q.Where(cond)
	}

	err := q.Order("nombre ASC").Find(&productos).Error
	return productos, err
}

func (r *productoRepo) UpdateTx(ctx context.Context, tx *gorm.DB, p *model.Producto) error {
	// stock columns are owned by MoverStockTx / FijarStockTx
	return conn(ctx, r.db, tx).Model(p).
		Select("*").
		Omit("id", "created_at", "stock_units", "stock_blisters", "stock_boxes").
		Updates(p).Error
}

func (r *productoRepo) DeleteTx(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	res := conn(ctx, r.db, tx).Delete(&model.Producto{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrNoEncontrado
	}
	return nil
}

func (r *productoRepo) FindEquivalenteTx(ctx context.Context, tx *gorm.DB, p *model.Producto, ubicacionID uuid.UUID) (*model.Producto, error) {
	var dest model.Producto
	err := conn(ctx, r.db, tx).
		Where("barcode = ? AND nombre = ? AND pharmaceutical_company = ? AND expiration_date = ? AND ubicacion_id = ?",
			p.Barcode, p.Nombre, p.PharmaceuticalCompany, p.ExpirationDate, ubicacionID).
		First(&dest).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &dest, nil
}

func (r *productoRepo) MoverStockTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta model.Stock) (model.Stock, bool, error) {
	var rows []model.Stock
	err := conn(ctx, r.db, tx).Raw(`
		UPDATE productos
		   SET stock_units    = stock_units + ?,
		       stock_blisters = stock_blisters + ?,
		       stock_boxes    = stock_boxes + ?,
		       updated_at     = ?
		 WHERE id = ? AND stock_units + ? >= 0
		RETURNING stock_units, stock_blisters, stock_boxes`,
		delta.Unidades, delta.Blisters, delta.Cajas, time.Now(), id, delta.Unidades,
	).Scan(&rows).Error
	if err != nil {
		return model.Stock{}, false, err
	}
	if len(rows) == 0 {
		return model.Stock{}, false, nil
	}
	return rows[0], true, nil
}

func (r *productoRepo) FijarStockTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, s model.Stock) (model.Stock, error) {
	var rows []model.Stock
	err := conn(ctx, r.db, tx).Raw(`
		WITH anterior AS (
		    SELECT id, stock_units, stock_blisters, stock_boxes
		      FROM productos
		     WHERE id = ?
		       FOR UPDATE
		)
		UPDATE productos p
		   SET stock_units    = ?,
		       stock_blisters = ?,
		       stock_boxes    = ?,
		       updated_at     = ?
		  FROM anterior a
		 WHERE p.id = a.id
		RETURNING a.stock_units, a.stock_blisters, a.stock_boxes`,
		id, s.Unidades, s.Blisters, s.Cajas, time.Now(),
	).Scan(&rows).Error
	if err != nil {
		return model.Stock{}, err
	}
	if len(rows) == 0 {
		return model.Stock{}, model.ErrNoEncontrado
	}
	return rows[0], nil
}
