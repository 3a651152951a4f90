package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"farmapos/internal/dto"
	"farmapos/internal/infra"
	"farmapos/internal/model"
	"farmapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ProductoService defines the business logic contract for products.
type ProductoService interface {
	Crear(ctx context.Context, actor Actor, req dto.CrearProductoRequest) (*model.Producto, error)
	ObtenerPorID(ctx context.Context, actor Actor, id uuid.UUID) (*model.Producto, error)
	// BuscarPorBarcode returns every visible batch with barcode, earliest expiration first.
	BuscarPorBarcode(ctx context.Context, actor Actor, barcode string) ([]model.Producto, error)
	Listar(ctx context.Context, actor Actor, filter dto.ProductoFilter) ([]model.Producto, error)
	Tipos() []string
	Actualizar(ctx context.Context, actor Actor, id uuid.UUID, req dto.ActualizarProductoRequest) (*model.Producto, error)
	// Eliminar archives the product to the histórico and deletes it in one transaction.
	Eliminar(ctx context.Context, actor Actor, id uuid.UUID, motivo model.MotivoBaja) (*model.HistoricoProducto, error)

	Historico(ctx context.Context, filter dto.HistoricoFilter) ([]model.HistoricoProducto, error)
	HistoricoExcel(ctx context.Context, filter dto.HistoricoFilter) ([]byte, error)
}

type productoService struct {
	repo          repository.ProductoRepository
	historicoRepo repository.HistoricoRepository
	ubicacionRepo repository.UbicacionRepository
	inventario    InventarioService
	cache         productoCache
	loc           *time.Location
}

func NewProductoService(
	repo repository.ProductoRepository,
	historicoRepo repository.HistoricoRepository,
	ubicacionRepo repository.UbicacionRepository,
	inventario InventarioService,
	cache Cache,
	cacheTTL time.Duration,
	loc *time.Location,
) ProductoService {
	if loc == nil {
		loc = time.Local
	}
	return &productoService{
		repo:          repo,
		historicoRepo: historicoRepo,
		ubicacionRepo: ubicacionRepo,
		inventario:    inventario,
		cache:         productoCache{c: cache, ttl: cacheTTL},
		loc:           loc,
	}
}

func (s *productoService) Crear(ctx context.Context, actor Actor, req dto.CrearProductoRequest) (*model.Producto, error) {
	ubicacionID, err := parseID("location", req.Location)
	if err != nil {
		return nil, err
	}
	if !actor.Puede(ubicacionID) {
		return nil, model.ErrSinPermiso
	}
	if _, err := s.ubicacionRepo.FindByID(ctx, ubicacionID); err != nil {
		return nil, fmt.Errorf("ubicación %s: %w", ubicacionID, err)
	}

	p := &model.Producto{
		Barcode:               strings.TrimSpace(req.Barcode),
		Nombre:                strings.TrimSpace(req.Name),
		ExpirationDate:        req.ExpirationDate,
		PharmaceuticalCompany: req.PharmaceuticalCompany,
		TipoFiscal:            model.TipoFiscal(req.PaymentType),
		Precios:               precios(req.Prices),
		PreciosCompra:         precios(req.PurchasePrices),
		Stock:                 model.Stock{Unidades: req.Stock.Units, Blisters: req.Stock.Blisters, Cajas: req.Stock.Boxes},
		Embalaje:              model.EmbalajePorDefecto,
		OpcionesVenta:         model.OpcionesVenta{Unidad: true, Blister: true, Caja: true},
		Tipos:                 model.ListaTipos(req.Types),
		UbicacionID:           ubicacionID,
	}
	if req.Packaging != nil {
		p.Embalaje = model.Embalaje{UnidadesPorBlister: req.Packaging.UnitsPerBlister, BlistersPorCaja: req.Packaging.BlistersPerBox}
	}
	if req.SellOptions != nil {
		p.OpcionesVenta = model.OpcionesVenta{Unidad: req.SellOptions.Unit, Blister: req.SellOptions.Blister, Caja: req.SellOptions.Box}
	}
	if err := validarProducto(p); err != nil {
		return nil, err
	}

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(ctx, tx, p); err != nil {
			return err
		}
		return s.ubicacionRepo.AsociarProductoTx(ctx, tx, ubicacionID, p.ID)
	})
	if err != nil {
		return nil, err
	}
	s.cache.invalidar(ctx, p.Barcode)
	log.Info().Str("producto_id", p.ID.String()).Str("barcode", p.Barcode).Msg("producto creado")
	return p, nil
}

// validarProducto checks the packaging factors each enabled sale type needs.
func validarProducto(p *model.Producto) error {
	if !p.OpcionesVenta.Vendible() {
		return fmt.Errorf("%w: al menos una opción de venta debe estar habilitada", model.ErrSolicitudInvalida)
	}
	for _, tipo := range []model.TipoVenta{model.TipoVentaBlister, model.TipoVentaCaja} {
		if !p.OpcionesVenta.Permite(tipo) {
			continue
		}
		if _, err := p.Embalaje.Unidades(1, tipo); err != nil {
			return fmt.Errorf("%w: %s", model.ErrSolicitudInvalida, err)
		}
	}
	if p.Stock.Negativo() {
		return fmt.Errorf("%w: stock negativo", model.ErrSolicitudInvalida)
	}
	return nil
}

func precios(d dto.PreciosDTO) model.Precios {
	return model.Precios{Unidad: d.Unit, Blister: d.Blister, Caja: d.Box}
}

func (s *productoService) ObtenerPorID(ctx context.Context, actor Actor, id uuid.UUID) (*model.Producto, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Puede(p.UbicacionID) {
		return nil, model.ErrNoEncontrado
	}
	return p, nil
}

func (s *productoService) BuscarPorBarcode(ctx context.Context, actor Actor, barcode string) ([]model.Producto, error) {
	vis, err := actor.Visibles(nil)
	if err != nil {
		return nil, err
	}
	productos, ok := s.cache.leer(ctx, barcode)
	if !ok {
		productos, err = s.repo.FindByBarcode(ctx, barcode, nil)
		if err != nil {
			return nil, err
		}
		s.cache.guardar(ctx, barcode, productos)
	}
	if vis != nil {
		productos = filtrarUbicacion(productos, vis)
	}
	if len(productos) == 0 {
		return nil, model.ErrNoEncontrado
	}
	return productos, nil
}

func filtrarUbicacion(productos []model.Producto, ubicaciones []uuid.UUID) []model.Producto {
	out := productos[:0:0]
	for _, p := range productos {
		for _, u := range ubicaciones {
			if p.UbicacionID == u {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func (s *productoService) Listar(ctx context.Context, actor Actor, filter dto.ProductoFilter) ([]model.Producto, error) {
	solicitadas, err := ParseUbicaciones(filter.Location)
	if err != nil {
		return nil, err
	}
	vis, err := actor.Visibles(solicitadas)
	if err != nil {
		return nil, err
	}
	q := repository.ProductoQuery{
		UbicacionIDs: vis,
		Barcode:      strings.TrimSpace(filter.Barcode),
		Nombre:       strings.TrimSpace(filter.Name),
	}
	if filter.Type != "" {
		q.Tipos = splitCSV(filter.Type)
	}
	return s.repo.List(ctx, q)
}

func (s *productoService) Tipos() []string {
	return append([]string(nil), model.TiposProducto...)
}

func (s *productoService) Actualizar(ctx context.Context, actor Actor, id uuid.UUID, req dto.ActualizarProductoRequest) (*model.Producto, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Puede(p.UbicacionID) {
		return nil, model.ErrSinPermiso
	}
	barcodeAnterior := p.Barcode

	if req.Barcode != nil {
		p.Barcode = strings.TrimSpace(*req.Barcode)
	}
	if req.Name != nil {
		p.Nombre = strings.TrimSpace(*req.Name)
	}
	if req.ExpirationDate != nil {
		p.ExpirationDate = *req.ExpirationDate
	}
	if req.PharmaceuticalCompany != nil {
		p.PharmaceuticalCompany = *req.PharmaceuticalCompany
	}
	if req.PaymentType != nil {
		p.TipoFiscal = model.TipoFiscal(*req.PaymentType)
	}
	if req.Types != nil {
		p.Tipos = model.ListaTipos(req.Types)
	}
	if req.Prices != nil {
		p.Precios = precios(*req.Prices)
	}
	if req.PurchasePrices != nil {
		p.PreciosCompra = precios(*req.PurchasePrices)
	}
	if req.Packaging != nil {
		p.Embalaje = model.Embalaje{UnidadesPorBlister: req.Packaging.UnitsPerBlister, BlistersPorCaja: req.Packaging.BlistersPerBox}
	}
	if req.SellOptions != nil {
		p.OpcionesVenta = model.OpcionesVenta{Unidad: req.SellOptions.Unit, Blister: req.SellOptions.Blister, Caja: req.SellOptions.Box}
	}
	if err := validarProducto(p); err != nil {
		return nil, err
	}

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.UpdateTx(ctx, tx, p); err != nil {
			return err
		}
		if req.Stock == nil {
			return nil
		}
		nuevo := model.Stock{Unidades: req.Stock.Units, Blisters: req.Stock.Blisters, Cajas: req.Stock.Boxes}
		if err := s.inventario.AjustarStockTx(ctx, tx, p, nuevo); err != nil {
			return err
		}
		p.Stock = nuevo
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.invalidar(ctx, barcodeAnterior, p.Barcode)
	return p, nil
}

func (s *productoService) Eliminar(ctx context.Context, actor Actor, id uuid.UUID, motivo model.MotivoBaja) (*model.HistoricoProducto, error) {
	if motivo == "" {
		motivo = model.BajaManual
	}
	if !motivo.Valido() {
		return nil, fmt.Errorf("%w: motivo %q", model.ErrSolicitudInvalida, motivo)
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Puede(p.UbicacionID) {
		return nil, model.ErrSinPermiso
	}

	h := model.NuevoHistorico(p, motivo, time.Now())
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.historicoRepo.CreateTx(ctx, tx, h); err != nil {
			return err
		}
		if err := s.ubicacionRepo.DesasociarProductoTx(ctx, tx, p.UbicacionID, p.ID); err != nil {
			return err
		}
		return s.repo.DeleteTx(ctx, tx, p.ID)
	})
	if err != nil {
		return nil, err
	}
	s.cache.invalidar(ctx, p.Barcode)
	log.Info().Str("producto_id", p.ID.String()).Str("motivo", string(motivo)).Msg("producto archivado")
	return h, nil
}

// ── Histórico ────────────────────────────────────────────────────────────────

func (s *productoService) historicoQuery(f dto.HistoricoFilter) (repository.HistoricoQuery, error) {
	q := repository.HistoricoQuery{Nombre: strings.TrimSpace(f.Name)}
	if f.StartDate != "" {
		d, err := time.ParseInLocation(model.FormatoFecha, f.StartDate, s.loc)
		if err != nil {
			return q, fmt.Errorf("%w: startDate %q", model.ErrSolicitudInvalida, f.StartDate)
		}
		q.Desde = &d
	}
	if f.EndDate != "" {
		d, err := time.ParseInLocation(model.FormatoFecha, f.EndDate, s.loc)
		if err != nil {
			return q, fmt.Errorf("%w: endDate %q", model.ErrSolicitudInvalida, f.EndDate)
		}
		_, fin := model.LimitesDelDia(d, s.loc)
		q.Hasta = &fin
	}
	if f.Type != "" {
		q.Tipos = splitCSV(f.Type)
	}
	return q, nil
}

func (s *productoService) Historico(ctx context.Context, filter dto.HistoricoFilter) ([]model.HistoricoProducto, error) {
	q, err := s.historicoQuery(filter)
	if err != nil {
		return nil, err
	}
	return s.historicoRepo.List(ctx, q)
}

func (s *productoService) HistoricoExcel(ctx context.Context, filter dto.HistoricoFilter) ([]byte, error) {
	items, err := s.Historico(ctx, filter)
	if err != nil {
		return nil, err
	}
	return infra.HistoricoExcel(items, s.loc)
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
