package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"farmapos/internal/dto"
	"farmapos/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var zonaGT = time.FixedZone("GT", -6*3600)

type ventaEnv struct {
	ubicacion uuid.UUID
	productos *stubProductoRepo
	promos    *stubPromocionRepo
	reportes  *stubReporteRepo
	ventas    *stubVentaRepo
	movs      *stubMovimientoRepo
	cache     *stubCache
	svc       *ventaService
}

func newVentaEnv(t *testing.T, productos ...*model.Producto) *ventaEnv {
	t.Helper()
	env := &ventaEnv{
		productos: newStubProductoRepo(productos...),
		promos:    newStubPromocionRepo(),
		ventas:    &stubVentaRepo{},
		movs:      &stubMovimientoRepo{},
		cache:     newStubCache(),
	}
	if len(productos) > 0 {
		env.ubicacion = productos[0].UbicacionID
	}
	env.reportes = newStubReporteRepo(env.ventas)

	ahora := func() time.Time { return time.Date(2026, 3, 10, 15, 0, 0, 0, zonaGT) }
	reportes := NewReporteService(env.reportes, env.ventas, newStubUbicacionRepo(), nil, ReporteConfig{Loc: zonaGT})
	reportes.(*reporteService).now = ahora
	inventario := NewInventarioService(env.productos, env.movs, env.cache)

	svc := NewVentaService(reportes, inventario, env.productos, env.promos, env.ventas, env.cache).(*ventaService)
	svc.now = ahora
	env.svc = svc
	return env
}

func efectivo() dto.PagoRequest { return dto.PagoRequest{Type: string(model.PagoEfectivo)} }

func TestRegistrarVenta_DescuentaStockYAcumulaReporte(t *testing.T) {
	ubic := uuid.New()
	p := nuevoProducto(ubic, "7501", model.Stock{Unidades: 100, Blisters: 10, Cajas: 1})
	env := newVentaEnv(t, p)

	resp, err := env.svc.RegistrarVenta(context.Background(), empleado(ubic), dto.RegistrarVentaRequest{
		Items:       []dto.ItemVentaRequest{{ProductID: p.ID.String(), Quantity: 2, SaleType: "blister"}},
		PaymentType: efectivo(),
	})
	require.NoError(t, err)
	assert.True(t, resp.Total.Equal(dec("18")), "2 blisters at 9")
	assert.Equal(t, 1, resp.Items)
	assert.Equal(t, 1, resp.Payments)

	// stock: 20 units and 2 blisters gone, boxes untouched
	assert.Equal(t, model.Stock{Unidades: 80, Blisters: 8, Cajas: 1}, env.productos.productos[p.ID].Stock)

	repID := uuid.MustParse(resp.ReporteID)
	rep := env.reportes.reportes[repID]
	require.NotNil(t, rep)
	assert.Equal(t, "2026-03-10", rep.Fecha)
	assert.Equal(t, ubic, *rep.UbicacionID)
	assert.True(t, rep.TotalSales.Equal(dec("18")))
	assert.Equal(t, 20, rep.TotalProducts)
	assert.True(t, rep.TotalesPorPago.Efectivo.Equal(dec("18")))
	assert.True(t, rep.TotalesPorPago.TC.IsZero())

	require.Len(t, env.ventas.ventas, 1)
	v := env.ventas.ventas[0]
	assert.Equal(t, repID, v.ReporteID)
	require.Len(t, v.Items, 1)
	assert.Equal(t, 10, v.Items[0].UnidadesPorVenta)
	assert.Equal(t, model.TipoFiscalGravado, v.Items[0].TipoFiscal)

	require.Len(t, env.movs.movimientos, 1)
	mov := env.movs.movimientos[0]
	assert.Equal(t, model.MovimientoVenta, mov.Tipo)
	assert.Equal(t, model.Stock{Unidades: -20, Blisters: -2}, mov.Delta)
	assert.Equal(t, 100, mov.Anterior.Unidades)

	assert.Contains(t, env.cache.eliminadas, prefijoBarcode+"7501")
}

func TestRegistrarVenta_MismoDiaReutilizaReporte(t *testing.T) {
	ubic := uuid.New()
	p := nuevoProducto(ubic, "7502", model.Stock{Unidades: 50})
	env := newVentaEnv(t, p)
	req := dto.RegistrarVentaRequest{
		Items:       []dto.ItemVentaRequest{{ProductID: p.ID.String(), Quantity: 3, SaleType: "unit"}},
		PaymentType: efectivo(),
	}

	r1, err := env.svc.RegistrarVenta(context.Background(), empleado(ubic), req)
	require.NoError(t, err)
	r2, err := env.svc.RegistrarVenta(context.Background(), empleado(ubic), req)
	require.NoError(t, err)

	assert.Equal(t, r1.ReporteID, r2.ReporteID)
	assert.Len(t, env.reportes.reportes, 1)
	rep := env.reportes.reportes[uuid.MustParse(r1.ReporteID)]
	assert.True(t, rep.TotalSales.Equal(dec("6")))
	assert.Equal(t, 6, rep.TotalProducts)
	assert.Equal(t, 44, env.productos.productos[p.ID].Stock.Unidades)
}

func TestRegistrarVenta_StockInsuficiente(t *testing.T) {
	ubic := uuid.New()
	p := nuevoProducto(ubic, "7503", model.Stock{Unidades: 100, Blisters: 10, Cajas: 1})
	env := newVentaEnv(t, p)

	_, err := env.svc.RegistrarVenta(context.Background(), empleado(ubic), dto.RegistrarVentaRequest{
		Items:       []dto.ItemVentaRequest{{ProductID: p.ID.String(), Quantity: 2, SaleType: "box"}},
		PaymentType: efectivo(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrStockInsuficiente))

	var se *model.StockInsuficienteError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 200, se.Solicitado)
	assert.Equal(t, 100, se.Disponible)

	assert.Equal(t, 100, env.productos.productos[p.ID].Stock.Unidades)
	assert.Empty(t, env.ventas.ventas)
	assert.Empty(t, env.movs.movimientos)
}

func TestRegistrarVenta_TipoNoPermitido(t *testing.T) {
	ubic := uuid.New()
	p := nuevoProducto(ubic, "7504", model.Stock{Unidades: 100})
	p.OpcionesVenta.Caja = false
	env := newVentaEnv(t, p)

	_, err := env.svc.RegistrarVenta(context.Background(), empleado(ubic), dto.RegistrarVentaRequest{
		Items:       []dto.ItemVentaRequest{{ProductID: p.ID.String(), Quantity: 1, SaleType: "box"}},
		PaymentType: efectivo(),
	})
	assert.ErrorIs(t, err, model.ErrTipoVentaNoPermitido)
	assert.Empty(t, env.reportes.reportes)
}

func TestRegistrarVenta_SinPago(t *testing.T) {
	ubic := uuid.New()
	p := nuevoProducto(ubic, "7505", model.Stock{Unidades: 10})
	env := newVentaEnv(t, p)

	_, err := env.svc.RegistrarVenta(context.Background(), empleado(ubic), dto.RegistrarVentaRequest{
		Items: []dto.ItemVentaRequest{{ProductID: p.ID.String(), Quantity: 1, SaleType: "unit"}},
	})
	assert.ErrorIs(t, err, model.ErrSinPago)
	assert.Equal(t, 10, env.productos.productos[p.ID].Stock.Unidades)
}

func TestRegistrarVenta_PagoDividido(t *testing.T) {
	ubic := uuid.New()
	p := nuevoProducto(ubic, "7506", model.Stock{Unidades: 100, Blisters: 10})
	env := newVentaEnv(t, p)

	resp, err := env.svc.RegistrarVenta(context.Background(), empleado(ubic), dto.RegistrarVentaRequest{
		Items: []dto.ItemVentaRequest{{ProductID: p.ID.String(), Quantity: 2, SaleType: "blister"}},
		PaymentType: dto.PagoRequest{
			IsDivided:      true,
			PaymentDetails: dto.DetallePagoDTO{Efectivo: dec("10"), TC: dec("8")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Payments)

	rep := env.reportes.reportes[uuid.MustParse(resp.ReporteID)]
	assert.True(t, rep.TotalesPorPago.Efectivo.Equal(dec("10")))
	assert.True(t, rep.TotalesPorPago.TC.Equal(dec("8")))
	assert.True(t, rep.TotalesPorPago.Transferencia.IsZero())
}

func TestRegistrarVenta_ProductoDeOtraUbicacion(t *testing.T) {
	p := nuevoProducto(uuid.New(), "7507", model.Stock{Unidades: 10})
	env := newVentaEnv(t, p)

	_, err := env.svc.RegistrarVenta(context.Background(), empleado(uuid.New()), dto.RegistrarVentaRequest{
		Items:       []dto.ItemVentaRequest{{ProductID: p.ID.String(), Quantity: 1, SaleType: "unit"}},
		PaymentType: efectivo(),
	})
	assert.ErrorIs(t, err, model.ErrSinPermiso)
}

func TestRegistrarVenta_AdminSinUbicacion(t *testing.T) {
	p := nuevoProducto(uuid.New(), "7508", model.Stock{Unidades: 10})
	env := newVentaEnv(t, p)
	req := dto.RegistrarVentaRequest{
		Items:       []dto.ItemVentaRequest{{ProductID: p.ID.String(), Quantity: 1, SaleType: "unit"}},
		PaymentType: efectivo(),
	}

	_, err := env.svc.RegistrarVenta(context.Background(), admin(), req)
	assert.ErrorIs(t, err, model.ErrSolicitudInvalida)

	ubic := p.UbicacionID.String()
	req.Ubicacion = &ubic
	_, err = env.svc.RegistrarVenta(context.Background(), admin(), req)
	assert.NoError(t, err)
}

func TestRegistrarVenta_PromocionNxM(t *testing.T) {
	ubic := uuid.New()
	p := nuevoProducto(ubic, "7509", model.Stock{Unidades: 10})
	env := newVentaEnv(t, p)
	maxUses := 5
	promo := &model.Promocion{
		ID:          uuid.New(),
		Nombre:      "3x2",
		Tipo:        model.PromocionNxM,
		BuyQuantity: 3,
		GetQuantity: 2,
		StartDate:   time.Date(2026, 3, 1, 0, 0, 0, 0, zonaGT),
		EndDate:     time.Date(2026, 3, 31, 0, 0, 0, 0, zonaGT),
		IsActive:    true,
		Condiciones: model.CondicionesPromocion{MaxUses: &maxUses},
		Productos:   []model.PromocionProducto{{ProductoID: p.ID, MinimumQuantity: 1}},
	}
	env.promos.promos[promo.ID] = promo
	promoID := promo.ID.String()

	// a line that is not exactly buyQuantity is refused, not rewritten
	_, err := env.svc.RegistrarVenta(context.Background(), empleado(ubic), dto.RegistrarVentaRequest{
		Items:       []dto.ItemVentaRequest{{ProductID: p.ID.String(), Quantity: 1, SaleType: "unit", PromotionID: &promoID}},
		PaymentType: efectivo(),
	})
	assert.ErrorIs(t, err, model.ErrPromocionNoAplicable)
	assert.Equal(t, 10, env.productos.productos[p.ID].Stock.Unidades)
	assert.Equal(t, 0, promo.Condiciones.UsedCount)

	resp, err := env.svc.RegistrarVenta(context.Background(), empleado(ubic), dto.RegistrarVentaRequest{
		Items:       []dto.ItemVentaRequest{{ProductID: p.ID.String(), Quantity: 3, SaleType: "unit", PromotionID: &promoID}},
		PaymentType: efectivo(),
	})
	require.NoError(t, err)
	assert.True(t, resp.Total.Equal(dec("2")))
	assert.True(t, resp.TotalDiscount.Equal(dec("1")))

	assert.Equal(t, 7, env.productos.productos[p.ID].Stock.Unidades)
	assert.Equal(t, 1, promo.Condiciones.UsedCount)

	v := env.ventas.ventas[0]
	require.Len(t, v.PromocionesAplicadas, 1)
	assert.Equal(t, promo.ID, v.PromocionesAplicadas[0].PromocionID)
	require.NotNil(t, v.Items[0].PromocionAplicada)
	assert.Equal(t, 3, v.Items[0].Cantidad)
}

func TestRegistrarVenta_PromocionAgotada(t *testing.T) {
	ubic := uuid.New()
	p := nuevoProducto(ubic, "7510", model.Stock{Unidades: 10})
	env := newVentaEnv(t, p)
	maxUses := 1
	promo := &model.Promocion{
		ID:            uuid.New(),
		Nombre:        "10%",
		Tipo:          model.PromocionPorcentaje,
		DiscountValue: dec("10"),
		StartDate:     time.Date(2026, 3, 1, 0, 0, 0, 0, zonaGT),
		EndDate:       time.Date(2026, 3, 31, 0, 0, 0, 0, zonaGT),
		IsActive:      true,
		Condiciones:   model.CondicionesPromocion{MaxUses: &maxUses, UsedCount: 1},
		Productos:     []model.PromocionProducto{{ProductoID: p.ID, MinimumQuantity: 1}},
	}
	env.promos.promos[promo.ID] = promo
	promoID := promo.ID.String()

	_, err := env.svc.RegistrarVenta(context.Background(), empleado(ubic), dto.RegistrarVentaRequest{
		Items:       []dto.ItemVentaRequest{{ProductID: p.ID.String(), Quantity: 1, SaleType: "unit", PromotionID: &promoID}},
		PaymentType: efectivo(),
	})
	assert.ErrorIs(t, err, model.ErrPromocionNoAplicable)
	assert.Equal(t, 10, env.productos.productos[p.ID].Stock.Unidades)
}

func TestRegistrarVenta_PromocionCuentaUnUsoPorVenta(t *testing.T) {
	ubic := uuid.New()
	a := nuevoProducto(ubic, "7511", model.Stock{Unidades: 10})
	b := nuevoProducto(ubic, "7512", model.Stock{Unidades: 10})
	env := newVentaEnv(t, a, b)
	maxUses := 1
	promo := &model.Promocion{
		ID:            uuid.New(),
		Nombre:        "10%",
		Tipo:          model.PromocionPorcentaje,
		DiscountValue: dec("10"),
		StartDate:     time.Date(2026, 3, 1, 0, 0, 0, 0, zonaGT),
		EndDate:       time.Date(2026, 3, 31, 0, 0, 0, 0, zonaGT),
		IsActive:      true,
		Condiciones:   model.CondicionesPromocion{MaxUses: &maxUses},
		Productos: []model.PromocionProducto{
			{ProductoID: a.ID, MinimumQuantity: 1},
			{ProductoID: b.ID, MinimumQuantity: 1},
		},
	}
	env.promos.promos[promo.ID] = promo
	promoID := promo.ID.String()

	_, err := env.svc.RegistrarVenta(context.Background(), empleado(ubic), dto.RegistrarVentaRequest{
		Items: []dto.ItemVentaRequest{
			{ProductID: a.ID.String(), Quantity: 1, SaleType: "unit", PromotionID: &promoID},
			{ProductID: b.ID.String(), Quantity: 2, SaleType: "unit", PromotionID: &promoID},
		},
		PaymentType: efectivo(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, promo.Condiciones.UsedCount)
	assert.Equal(t, 9, env.productos.productos[a.ID].Stock.Unidades)
	assert.Equal(t, 8, env.productos.productos[b.ID].Stock.Unidades)
}

func TestRegistrarVenta_DescuentoManual(t *testing.T) {
	ubic := uuid.New()
	p := nuevoProducto(ubic, "7511", model.Stock{Unidades: 100, Blisters: 10, Cajas: 1})
	env := newVentaEnv(t, p)

	resp, err := env.svc.RegistrarVenta(context.Background(), empleado(ubic), dto.RegistrarVentaRequest{
		Items:       []dto.ItemVentaRequest{{ProductID: p.ID.String(), Quantity: 1, SaleType: "box", Discount: dec("25")}},
		PaymentType: dto.PagoRequest{Type: string(model.PagoTransferencia)},
	})
	require.NoError(t, err)
	assert.True(t, resp.Total.Equal(dec("60")))
	assert.True(t, resp.TotalDiscount.Equal(dec("20")))
	assert.Equal(t, model.Stock{Unidades: 0, Blisters: 0, Cajas: 0}, env.productos.productos[p.ID].Stock)
}

func TestVentasPorProducto(t *testing.T) {
	ubic := uuid.New()
	p := nuevoProducto(ubic, "7590", model.Stock{Unidades: 50})
	otro := nuevoProducto(ubic, "7591", model.Stock{Unidades: 50})
	env := newVentaEnv(t, p, otro)
	ctx := context.Background()

	vender := func(id uuid.UUID) {
		_, err := env.svc.RegistrarVenta(ctx, empleado(ubic), dto.RegistrarVentaRequest{
			Items:       []dto.ItemVentaRequest{{ProductID: id.String(), Quantity: 1, SaleType: "unit"}},
			PaymentType: efectivo(),
		})
		require.NoError(t, err)
	}
	vender(p.ID)
	vender(otro.ID)
	vender(p.ID)
	// outside the default window
	env.ventas.ventas[0].CreatedAt = env.svc.now().AddDate(0, 0, -45)

	out, err := env.svc.VentasPorProducto(ctx, empleado(ubic), p.ID, 0)
	require.NoError(t, err)
	assert.Len(t, out, 1)

	out, err = env.svc.VentasPorProducto(ctx, empleado(ubic), p.ID, 60)
	require.NoError(t, err)
	assert.Len(t, out, 2)

	_, err = env.svc.VentasPorProducto(ctx, empleado(uuid.New()), p.ID, 0)
	assert.ErrorIs(t, err, model.ErrNoEncontrado)
}

func TestObtenerVenta_AlcancePorUbicacion(t *testing.T) {
	ubic := uuid.New()
	p := nuevoProducto(ubic, "7592", model.Stock{Unidades: 50})
	env := newVentaEnv(t, p)
	ctx := context.Background()

	resp, err := env.svc.RegistrarVenta(ctx, empleado(ubic), dto.RegistrarVentaRequest{
		Items:       []dto.ItemVentaRequest{{ProductID: p.ID.String(), Quantity: 2, SaleType: "unit"}},
		PaymentType: efectivo(),
	})
	require.NoError(t, err)
	id := env.ventas.ventas[0].ID

	v, err := env.svc.ObtenerVenta(ctx, empleado(ubic), id)
	require.NoError(t, err)
	assert.True(t, v.Total.Equal(resp.Total))

	_, err = env.svc.ObtenerVenta(ctx, empleado(uuid.New()), id)
	assert.ErrorIs(t, err, model.ErrNoEncontrado)

	_, err = env.svc.ObtenerVenta(ctx, admin(), id)
	assert.NoError(t, err)

	_, err = env.svc.ObtenerVenta(ctx, admin(), uuid.New())
	assert.ErrorIs(t, err, model.ErrNoEncontrado)
}
