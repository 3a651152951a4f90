package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"farmapos/internal/dto"
	"farmapos/internal/model"
	"farmapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type VentaService interface {
	RegistrarVenta(ctx context.Context, actor Actor, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error)
	// ObtenerVenta returns a sale of one of the caller's locations.
	ObtenerVenta(ctx context.Context, actor Actor, id uuid.UUID) (*model.Venta, error)
	// VentasPorProducto lists the sales of productoID in the last dias days.
	VentasPorProducto(ctx context.Context, actor Actor, productoID uuid.UUID, dias int) ([]model.Venta, error)
}

const diasVentasPorDefecto = 30

type ventaService struct {
	reportes      ReporteService
	inventario    InventarioService
	productoRepo  repository.ProductoRepository
	promocionRepo repository.PromocionRepository
	ventaRepo     repository.VentaRepository
	cache         productoCache
	now           func() time.Time
}

func NewVentaService(
	reportes ReporteService,
	inventario InventarioService,
	productoRepo repository.ProductoRepository,
	promocionRepo repository.PromocionRepository,
	ventaRepo repository.VentaRepository,
	cache Cache,
) VentaService {
	return &ventaService{
		reportes:      reportes,
		inventario:    inventario,
		productoRepo:  productoRepo,
		promocionRepo: promocionRepo,
		ventaRepo:     ventaRepo,
		cache:         productoCache{c: cache},
		now:           time.Now,
	}
}

// ── RegistrarVenta ────────────────────────────────────────────────────────────
//   1. Resolve location, products, promotions and prices (pre-flight, outside TX)
//   2. Resolve payments; an empty list fails before any stock is touched
//   3. BEGIN TX: get-or-create today's report, deduct stock per item,
//      persist the sale into the report, bump promotion usage
//   4. COMMIT, then drop the cached barcode lookups

type lineaResuelta struct {
	producto *model.Producto
	tipo     model.TipoVenta
	promo    *model.Promocion
	linea    model.Linea
	unidades int // atomic units of one charged increment
}

func (s *ventaService) RegistrarVenta(ctx context.Context, actor Actor, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error) {
	var solicitada *uuid.UUID
	if req.Ubicacion != nil {
		id, err := parseID("ubicacion", *req.Ubicacion)
		if err != nil {
			return nil, err
		}
		solicitada = &id
	}
	ubicacionID, err := actor.Ubicacion(solicitada)
	if err != nil {
		return nil, err
	}
	ahora := s.now()

	// 1. Pre-flight
	lineas := make([]lineaResuelta, 0, len(req.Items))
	total := decimal.Zero
	for _, item := range req.Items {
		l, err := s.resolverLinea(ctx, ubicacionID, item, ahora)
		if err != nil {
			return nil, err
		}
		total = total.Add(l.linea.Subtotal)
		lineas = append(lineas, l)
	}

	// 2. Payments
	detalle := model.TotalesPorPago{
		Efectivo:      req.PaymentType.PaymentDetails.Efectivo,
		TC:            req.PaymentType.PaymentDetails.TC,
		Transferencia: req.PaymentType.PaymentDetails.Transferencia,
	}
	pagos, err := model.ResolverPagos(total, model.MetodoPago(req.PaymentType.Type), req.PaymentType.IsDivided, detalle)
	if err != nil {
		return nil, err
	}
	if req.PaymentType.IsDivided && !detalle.Total().Equal(total) {
		log.Warn().Str("total", total.StringFixed(2)).Str("pagado", detalle.Total().StringFixed(2)).
			Msg("pago dividido no coincide con el total de la venta")
	}

	venta := model.Venta{
		ID:    uuid.New(),
		Total: total,
		Pagos: pagos,
	}
	if req.CreatedAt != nil {
		venta.CreatedAt = *req.CreatedAt
	} else {
		venta.CreatedAt = ahora
	}
	for _, l := range lineas {
		item := model.VentaItem{
			ProductoID:       l.producto.ID,
			Barcode:          l.producto.Barcode,
			Nombre:           l.producto.Nombre,
			Cantidad:         l.linea.Cantidad,
			Precio:           l.linea.Precio,
			TipoVenta:        l.tipo,
			UnidadesPorVenta: l.unidades,
			Subtotal:         l.linea.Subtotal,
			TipoFiscal:       l.producto.TipoFiscal,
		}
		if l.promo != nil {
			aplicada := model.PromocionAplicada{
				PromocionID:    l.promo.ID,
				Nombre:         l.promo.Nombre,
				Tipo:           l.promo.Tipo,
				DiscountValue:  l.linea.DescuentoPct,
				DiscountAmount: l.linea.DescuentoMonto,
			}
			item.PromocionAplicada = &aplicada
			venta.PromocionesAplicadas = append(venta.PromocionesAplicadas, aplicada)
		}
		venta.TotalDescuento = venta.TotalDescuento.Add(l.linea.DescuentoMonto)
		venta.Items = append(venta.Items, item)
	}

	// 3. ACID transaction
	var rep *model.Reporte
	txErr := runTx(ctx, s.productoRepo.DB(), func(tx *gorm.DB) error {
		var err error
		rep, _, err = s.reportes.ObtenerOCrearDiario(ctx, tx, ubicacionID, ahora)
		if err != nil {
			return err
		}

		ref := venta.ID
		for _, l := range lineas {
			_, err := s.inventario.DescontarTx(ctx, tx, l.producto, l.linea.Cantidad, l.tipo, Movimiento{
				Tipo:         model.MovimientoVenta,
				Motivo:       fmt.Sprintf("venta %s", venta.ID),
				ReferenciaID: &ref,
			})
			if err != nil {
				return err
			}
		}

		if err := s.reportes.AgregarVentaTx(ctx, tx, rep, &venta); err != nil {
			return err
		}

		// one use per sale, however many lines carry the promotion
		usadas := make(map[uuid.UUID]bool)
		for _, l := range lineas {
			if l.promo == nil || usadas[l.promo.ID] {
				continue
			}
			usadas[l.promo.ID] = true
			ok, err := s.promocionRepo.IncrementarUsoTx(ctx, tx, l.promo.ID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s alcanzó su límite de usos", model.ErrPromocionNoAplicable, l.promo.Nombre)
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	// 4. Cache
	barcodes := make([]string, 0, len(lineas))
	for _, l := range lineas {
		barcodes = append(barcodes, l.producto.Barcode)
	}
	s.cache.invalidar(ctx, barcodes...)

	log.Info().
		Str("venta_id", venta.ID.String()).
		Str("reporte_id", rep.ID.String()).
		Str("total", total.StringFixed(2)).
		Int("items", len(venta.Items)).
		Msg("venta registrada")

	return &dto.VentaResponse{
		ReporteID:     rep.ID.String(),
		VentaID:       venta.ID.String(),
		Total:         venta.Total,
		TotalDiscount: venta.TotalDescuento,
		Items:         len(venta.Items),
		Payments:      len(venta.Pagos),
	}, nil
}

func (s *ventaService) resolverLinea(ctx context.Context, ubicacionID uuid.UUID, item dto.ItemVentaRequest, ahora time.Time) (lineaResuelta, error) {
	pid, err := parseID("productId", item.ProductID)
	if err != nil {
		return lineaResuelta{}, err
	}
	p, err := s.productoRepo.FindByID(ctx, pid)
	if err != nil {
		return lineaResuelta{}, fmt.Errorf("producto %s: %w", item.ProductID, err)
	}
	if p.UbicacionID != ubicacionID {
		return lineaResuelta{}, fmt.Errorf("producto %s: %w", p.Nombre, model.ErrSinPermiso)
	}
	tipo := model.TipoVenta(item.SaleType)
	if !p.OpcionesVenta.Permite(tipo) {
		return lineaResuelta{}, fmt.Errorf("%s: %w", p.Nombre, model.ErrTipoVentaNoPermitido)
	}

	var (
		promo *model.Promocion
		regla model.Regla
	)
	if item.PromotionID != nil {
		promoID, err := parseID("promotionId", *item.PromotionID)
		if err != nil {
			return lineaResuelta{}, err
		}
		promo, err = s.promocionRepo.FindByID(ctx, promoID)
		if err != nil {
			return lineaResuelta{}, fmt.Errorf("promoción %s: %w", *item.PromotionID, err)
		}
		if !promo.Vigente(ahora) || promo.AgotadoUso() || !promo.IncluyeProducto(p.ID) {
			return lineaResuelta{}, fmt.Errorf("%w: %s", model.ErrPromocionNoAplicable, promo.Nombre)
		}
		if regla, err = promo.Regla(); err != nil {
			return lineaResuelta{}, err
		}
	}

	linea, err := model.Cotizar(p.Precios.Para(tipo), item.Quantity, regla, item.Discount)
	if err != nil {
		return lineaResuelta{}, fmt.Errorf("%s (%s): %w", p.Nombre, tipo, err)
	}
	unidades, err := p.UnidadesPara(1, tipo)
	if err != nil {
		return lineaResuelta{}, fmt.Errorf("%s: %w", p.Nombre, err)
	}
	return lineaResuelta{producto: p, tipo: tipo, promo: promo, linea: linea, unidades: unidades}, nil
}

func (s *ventaService) ObtenerVenta(ctx context.Context, actor Actor, id uuid.UUID) (*model.Venta, error) {
	v, err := s.ventaRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.reportes.ObtenerPorID(ctx, actor, v.ReporteID); err != nil {
		if errors.Is(err, model.ErrNoEncontrado) {
			return nil, fmt.Errorf("venta %s: %w", id, model.ErrNoEncontrado)
		}
		return nil, err
	}
	return v, nil
}

func (s *ventaService) VentasPorProducto(ctx context.Context, actor Actor, productoID uuid.UUID, dias int) ([]model.Venta, error) {
	if dias <= 0 {
		dias = diasVentasPorDefecto
	}
	p, err := s.productoRepo.FindByID(ctx, productoID)
	if err != nil {
		return nil, err
	}
	if !actor.Puede(p.UbicacionID) {
		return nil, fmt.Errorf("producto %s: %w", productoID, model.ErrNoEncontrado)
	}
	return s.ventaRepo.ListByProducto(ctx, productoID, s.now().AddDate(0, 0, -dias))
}
