package service

import (
	"context"
	"errors"
	"fmt"

	"farmapos/internal/dto"
	"farmapos/internal/model"
	"farmapos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InventarioService is the stock ledger. Every counter change goes through it and
// leaves a MovimientoStock row in the same transaction.
type InventarioService interface {
	// DescontarTx deducts cantidad of tipo from p. p must be freshly read; its packaging
	// and sell options drive the conversion. The units guard runs in the UPDATE itself.
	DescontarTx(ctx context.Context, tx *gorm.DB, p *model.Producto, cantidad int, tipo model.TipoVenta, mov Movimiento) (model.Stock, error)
	// AgregarTx adds delta to productoID.
	AgregarTx(ctx context.Context, tx *gorm.DB, productoID uuid.UUID, delta model.Stock, mov Movimiento) (model.Stock, error)
	// AjustarStockTx overwrites the counters without conversion (manual edit).
	AjustarStockTx(ctx context.Context, tx *gorm.DB, p *model.Producto, nuevo model.Stock) error

	// ActualizarStock backs POST /products/update-stock.
	ActualizarStock(ctx context.Context, actor Actor, req dto.ActualizarStockRequest) (*model.Producto, error)
	// Auditar reports packaging drift for the caller's visible products.
	Auditar(ctx context.Context, actor Actor, ubicaciones []uuid.UUID) ([]model.AuditoriaStock, error)
	// Movimientos lists the ledger rows of the caller's visible locations.
	Movimientos(ctx context.Context, actor Actor, q repository.MovimientoQuery) ([]model.MovimientoStock, int64, error)
}

// Movimiento describes why a counter changed.
type Movimiento struct {
	Tipo         string
	Motivo       string
	ReferenciaID *uuid.UUID
}

type inventarioService struct {
	repo    repository.ProductoRepository
	movRepo repository.MovimientoStockRepository
	cache   productoCache
}

func NewInventarioService(repo repository.ProductoRepository, movRepo repository.MovimientoStockRepository, cache Cache) InventarioService {
	return &inventarioService{repo: repo, movRepo: movRepo, cache: productoCache{c: cache}}
}

func (s *inventarioService) DescontarTx(ctx context.Context, tx *gorm.DB, p *model.Producto, cantidad int, tipo model.TipoVenta, mov Movimiento) (model.Stock, error) {
	delta, err := p.Movimiento(cantidad, tipo)
	if err != nil {
		return model.Stock{}, err
	}
	nuevo, ok, err := s.repo.MoverStockTx(ctx, tx, p.ID, delta.Negar())
	if err != nil {
		return model.Stock{}, err
	}
	if !ok {
		disponible := p.Stock.Unidades
		if actual, ferr := s.repo.FindByIDTx(ctx, tx, p.ID); ferr == nil {
			disponible = actual.Stock.Unidades
		} else if errors.Is(ferr, model.ErrNoEncontrado) {
			return model.Stock{}, ferr
		}
		return model.Stock{}, &model.StockInsuficienteError{
			Producto:   p.Nombre,
			Solicitado: delta.Unidades,
			Disponible: disponible,
		}
	}
	if err := s.registrar(ctx, tx, p.ID, delta.Negar(), nuevo, mov); err != nil {
		return model.Stock{}, err
	}
	return nuevo, nil
}

func (s *inventarioService) AgregarTx(ctx context.Context, tx *gorm.DB, productoID uuid.UUID, delta model.Stock, mov Movimiento) (model.Stock, error) {
	nuevo, ok, err := s.repo.MoverStockTx(ctx, tx, productoID, delta)
	if err != nil {
		return model.Stock{}, err
	}
	if !ok {
		return model.Stock{}, model.ErrNoEncontrado
	}
	if err := s.registrar(ctx, tx, productoID, delta, nuevo, mov); err != nil {
		return model.Stock{}, err
	}
	return nuevo, nil
}

func (s *inventarioService) AjustarStockTx(ctx context.Context, tx *gorm.DB, p *model.Producto, nuevo model.Stock) error {
	if nuevo.Negativo() {
		return fmt.Errorf("%w: stock negativo", model.ErrSolicitudInvalida)
	}
	// the delta comes from the locked row, not from p, which may predate a concurrent sale
	anterior, err := s.repo.FijarStockTx(ctx, tx, p.ID, nuevo)
	if err != nil {
		return err
	}
	if anterior == nuevo {
		return nil
	}
	delta := model.Stock{
		Unidades: nuevo.Unidades - anterior.Unidades,
		Blisters: nuevo.Blisters - anterior.Blisters,
		Cajas:    nuevo.Cajas - anterior.Cajas,
	}
	return s.registrar(ctx, tx, p.ID, delta, nuevo, Movimiento{Tipo: model.MovimientoAjusteManual, Motivo: "edición de producto"})
}

func (s *inventarioService) registrar(ctx context.Context, tx *gorm.DB, productoID uuid.UUID, delta, nuevo model.Stock, mov Movimiento) error {
	return s.movRepo.CreateTx(ctx, tx, &model.MovimientoStock{
		ProductoID:   productoID,
		Tipo:         mov.Tipo,
		Delta:        delta,
		Anterior:     nuevo.Sumar(delta.Negar()),
		Nuevo:        nuevo,
		Motivo:       mov.Motivo,
		ReferenciaID: mov.ReferenciaID,
	})
}

// ── ActualizarStock ──────────────────────────────────────────────────────────

func (s *inventarioService) ActualizarStock(ctx context.Context, actor Actor, req dto.ActualizarStockRequest) (*model.Producto, error) {
	id, err := parseID("productId", req.ProductID)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Puede(p.UbicacionID) {
		return nil, model.ErrSinPermiso
	}

	var nuevo model.Stock
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		nuevo, err = s.DescontarTx(ctx, tx, p, req.Quantity, model.TipoVenta(req.SaleType), Movimiento{
			Tipo:   model.MovimientoAjusteManual,
			Motivo: fmt.Sprintf("update-stock %d %s", req.Quantity, req.SaleType),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.cache.invalidar(ctx, p.Barcode)
	p.Stock = nuevo
	return p, nil
}

func (s *inventarioService) Auditar(ctx context.Context, actor Actor, ubicaciones []uuid.UUID) ([]model.AuditoriaStock, error) {
	vis, err := actor.Visibles(ubicaciones)
	if err != nil {
		return nil, err
	}
	productos, err := s.repo.List(ctx, repository.ProductoQuery{UbicacionIDs: vis})
	if err != nil {
		return nil, err
	}
	out := make([]model.AuditoriaStock, 0, len(productos))
	for i := range productos {
		out = append(out, productos[i].Auditar())
	}
	return out, nil
}

func (s *inventarioService) Movimientos(ctx context.Context, actor Actor, q repository.MovimientoQuery) ([]model.MovimientoStock, int64, error) {
	vis, err := actor.Visibles(q.UbicacionIDs)
	if err != nil {
		return nil, 0, err
	}
	q.UbicacionIDs = vis
	return s.movRepo.List(ctx, q)
}
