package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

// ── Pagos ────────────────────────────────────────────────────────────────────

func TestPagoNoDividido(t *testing.T) {
	pagos, err := ResolverPagos(dec("50"), PagoTarjeta, false, TotalesPorPago{})
	require.NoError(t, err)
	require.Len(t, pagos, 1)

	p := pagos[0]
	assert.Equal(t, PagoTarjeta, p.Tipo)
	assert.True(t, p.Monto.Equal(dec("50")))
	assert.False(t, p.Dividido)
	assert.True(t, p.PaymentDetails.TC.Equal(dec("50")))
	assert.True(t, p.PaymentDetails.Efectivo.IsZero())
	assert.True(t, p.PaymentDetails.Transferencia.IsZero())
}

func TestPagoDividido(t *testing.T) {
	detalle := TotalesPorPago{Efectivo: dec("30"), TC: dec("20")}
	pagos, err := ResolverPagos(dec("50"), "", true, detalle)
	require.NoError(t, err)
	require.Len(t, pagos, 2)

	assert.Equal(t, PagoEfectivo, pagos[0].Tipo)
	assert.Equal(t, PagoTarjeta, pagos[1].Tipo)
	for _, p := range pagos {
		assert.True(t, p.Dividido)
		assert.Equal(t, detalle, p.PaymentDetails)
	}

	tot := TotalesDePagos(pagos)
	assert.True(t, tot.Efectivo.Equal(dec("30")))
	assert.True(t, tot.TC.Equal(dec("20")))
	assert.True(t, tot.Transferencia.IsZero())
}

func TestSinPago(t *testing.T) {
	_, err := ResolverPagos(dec("50"), "", true, TotalesPorPago{})
	assert.ErrorIs(t, err, ErrSinPago)

	_, err = ResolverPagos(dec("50"), "bitcoin", false, TotalesPorPago{})
	assert.ErrorIs(t, err, ErrSinPago)
}

// ── Acumulación ──────────────────────────────────────────────────────────────

func TestAcumulacionDelReporte(t *testing.T) {
	loc := time.UTC
	r := NuevoReporteDiario(uuid.New(), time.Date(2024, 5, 3, 15, 4, 0, 0, loc), loc)
	assert.Equal(t, "2024-05-03", r.Fecha)
	assert.Equal(t, ReporteActivo, r.Status)

	ventas := []struct {
		total   string
		dividir bool
		tipo    MetodoPago
		detalle TotalesPorPago
		items   []VentaItem
	}{
		{"50", true, "", TotalesPorPago{Efectivo: dec("30"), TC: dec("20")},
			[]VentaItem{{Cantidad: 2, UnidadesPorVenta: 10}}},
		{"12.50", false, PagoTransferencia, TotalesPorPago{},
			[]VentaItem{{Cantidad: 5, UnidadesPorVenta: 1}, {Cantidad: 1, UnidadesPorVenta: 100}}},
		{"7.25", false, PagoEfectivo, TotalesPorPago{},
			[]VentaItem{{Cantidad: 3, UnidadesPorVenta: 1}}},
	}

	suma := decimal.Zero
	for _, v := range ventas {
		total := dec(v.total)
		pagos, err := ResolverPagos(total, v.tipo, v.dividir, v.detalle)
		require.NoError(t, err)
		r.AplicarVenta(Venta{Total: total, Items: v.items, Pagos: pagos, TotalesPorPago: TotalesDePagos(pagos)})
		suma = suma.Add(total)
	}

	assert.Len(t, r.Ventas, 3)
	assert.True(t, r.TotalSales.Equal(suma), "totalSales %s", r.TotalSales)
	assert.Equal(t, 20+5+100+3, r.TotalProducts)
	assert.True(t, r.TotalesPorPago.Efectivo.Equal(dec("37.25")))
	assert.True(t, r.TotalesPorPago.TC.Equal(dec("20")))
	assert.True(t, r.TotalesPorPago.Transferencia.Equal(dec("12.50")))
	assert.True(t, r.TotalesPorPago.Total().Equal(suma))
}

func TestLimitesDelDiaEnZonaHoraria(t *testing.T) {
	gt := time.FixedZone("GT", -6*3600)
	// 03:00 UTC on May 4th is still May 3rd in Guatemala.
	inicio, fin := LimitesDelDia(time.Date(2024, 5, 4, 3, 0, 0, 0, time.UTC), gt)
	assert.Equal(t, "2024-05-03", inicio.Format(FormatoFecha))
	assert.Equal(t, 0, inicio.Hour())
	assert.Equal(t, "2024-05-03", fin.Format(FormatoFecha))
	assert.True(t, fin.Before(inicio.AddDate(0, 0, 1)))
}
