package repository

import (
	"context"
	"time"

	"farmapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReporteQuery filters report projections. Fechas are business-day keys (YYYY-MM-DD).
type ReporteQuery struct {
	UbicacionID *uuid.UUID
	Status      model.EstadoReporte
	Desde       string
	Hasta       string
	ConVentas   bool
	Limit       int
	OrdenDesc   bool
}

type ReporteRepository interface {
	// FindActivoTx returns the active report for (ubicacion, fecha).
	FindActivoTx(ctx context.Context, tx *gorm.DB, ubicacionID uuid.UUID, fecha string) (*model.Reporte, error)
	// CreateSiNoExisteTx inserts r unless an active report already exists for its
	// (ubicacion, fecha); created reports false in that case.
	CreateSiNoExisteTx(ctx context.Context, tx *gorm.DB, r *model.Reporte) (created bool, err error)
	// AcumularTx folds v's totals into the active report row with atomic increments.
	AcumularTx(ctx context.Context, tx *gorm.DB, reporteID uuid.UUID, v *model.Venta) error

	FindByID(ctx context.Context, id uuid.UUID, conVentas bool) (*model.Reporte, error)
	List(ctx context.Context, q ReporteQuery) ([]model.Reporte, error)

	// ListActivosAntesDe returns active reports whose start is before t, location included.
	ListActivosAntesDe(ctx context.Context, t time.Time) ([]model.Reporte, error)
	// Cerrar moves an active report to closed; false when it was no longer active.
	Cerrar(ctx context.Context, id uuid.UUID) (bool, error)

	DB() *gorm.DB
}

type reporteRepo struct{ db *gorm.DB }

func NewReporteRepository(db *gorm.DB) ReporteRepository { return &reporteRepo{db: db} }

func (r *reporteRepo) DB() *gorm.DB { return r.db }

func (r *reporteRepo) FindActivoTx(ctx context.Context, tx *gorm.DB, ubicacionID uuid.UUID, fecha string) (*model.Reporte, error) {
	var rep model.Reporte
	err := conn(ctx, r.db, tx).
		Where("ubicacion_id = ? AND fecha = ? AND status = ?", ubicacionID, fecha, model.ReporteActivo).
		First(&rep).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &rep, nil
}

func (r *reporteRepo) CreateSiNoExisteTx(ctx context.Context, tx *gorm.DB, rep *model.Reporte) (bool, error) {
	// the partial unique index idx_reportes_activo_dia turns a concurrent duplicate into a no-op
	res := conn(ctx, r.db, tx).Omit("Ventas", "Ubicacion").
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rep)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *reporteRepo) AcumularTx(ctx context.Context, tx *gorm.DB, reporteID uuid.UUID, v *model.Venta) error {
	res := conn(ctx, r.db, tx).Model(&model.Reporte{}).
		Where("id = ? AND status = ?", reporteID, model.ReporteActivo).
		Updates(map[string]interface{}{
			"total_sales":         gorm.Expr("total_sales + ?", v.Total),
			"total_products":      gorm.Expr("total_products + ?", v.UnidadesVendidas()),
			"total_efectivo":      gorm.Expr("total_efectivo + ?", v.TotalesPorPago.Efectivo),
			"total_tc":            gorm.Expr("total_tc + ?", v.TotalesPorPago.TC),
			"total_transferencia": gorm.Expr("total_transferencia + ?", v.TotalesPorPago.Transferencia),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return model.ErrNoEncontrado
	}
	return nil
}

func (r *reporteRepo) FindByID(ctx context.Context, id uuid.UUID, conVentas bool) (*model.Reporte, error) {
	var rep model.Reporte
	q := r.db.WithContext(ctx)
	if conVentas {
		q = preloadVentas(q)
	}
	if err := q.First(&rep, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &rep, nil
}

func (r *reporteRepo) List(ctx context.Context, f ReporteQuery) ([]model.Reporte, error) {
	q := r.db.WithContext(ctx).Model(&model.Reporte{})
	if f.UbicacionID != nil {
		q = q.Where("ubicacion_id = ?", *f.UbicacionID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Desde != "" {
		q = q.Where("fecha >= ?", f.Desde)
	}
	if f.Hasta != "" {
		q = q.Where("fecha <= ?", f.Hasta)
	}
	if f.ConVentas {
		q = preloadVentas(q)
	}
	if f.OrdenDesc {
		q = q.Order("start_date DESC")
	} else {
		q = q.Order("start_date ASC")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	var out []model.Reporte
	err := q.Find(&out).Error
	return out, err
}

func preloadVentas(q *gorm.DB) *gorm.DB {
	return q.Preload("Ventas", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Ventas.Items").
		Preload("Ventas.Pagos")
}

func (r *reporteRepo) ListActivosAntesDe(ctx context.Context, t time.Time) ([]model.Reporte, error) {
	var out []model.Reporte
	err := r.db.WithContext(ctx).Preload("Ubicacion").
		Where("status = ? AND start_date < ?", model.ReporteActivo, t).
		Order("start_date ASC").
		Find(&out).Error
	return out, err
}

func (r *reporteRepo) Cerrar(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Reporte{}).
		Where("id = ? AND status = ?", id, model.ReporteActivo).
		Update("status", model.ReporteCerrado)
	return res.RowsAffected > 0, res.Error
}
