package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EstadoReporte: "active" | "closed" | "inactive". Inactive exists in stored data but is never assigned.
type EstadoReporte string

const (
	ReporteActivo   EstadoReporte = "active"
	ReporteCerrado  EstadoReporte = "closed"
	ReporteInactivo EstadoReporte = "inactive"
)

// FormatoFecha is the layout of Reporte.Fecha, the business-day key.
const FormatoFecha = "2006-01-02"

// Reporte accumulates one location's sales for one business day.
type Reporte struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UbicacionID    *uuid.UUID      `gorm:"type:uuid;index" json:"ubicacion"`
	Fecha          string          `gorm:"type:varchar(10);not null;index" json:"fecha"`
	StartDate      time.Time       `gorm:"not null;index" json:"startDate"`
	EndDate        time.Time       `gorm:"not null" json:"endDate"`
	TotalSales     decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"totalSales"`
	TotalProducts  int             `gorm:"not null;default:0" json:"totalProducts"`
	TotalesPorPago TotalesPorPago  `gorm:"embedded;embeddedPrefix:total_" json:"totalsByPaymentType"`
	Status         EstadoReporte   `gorm:"type:varchar(10);not null;default:'active';index" json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`

	Ventas    []Venta    `gorm:"foreignKey:ReporteID" json:"sales"`
	Ubicacion *Ubicacion `gorm:"foreignKey:UbicacionID" json:"-"`
}

// NuevoReporteDiario returns an empty active report covering the business day of t in loc.
func NuevoReporteDiario(ubicacionID uuid.UUID, t time.Time, loc *time.Location) *Reporte {
	inicio, fin := LimitesDelDia(t, loc)
	id := ubicacionID
	return &Reporte{
		UbicacionID: &id,
		Fecha:       inicio.Format(FormatoFecha),
		StartDate:   inicio,
		EndDate:     fin,
		TotalSales:  decimal.Zero,
		Status:      ReporteActivo,
	}
}

// AplicarVenta appends v and folds its totals into the report.
func (r *Reporte) AplicarVenta(v Venta) {
	r.Ventas = append(r.Ventas, v)
	r.TotalSales = r.TotalSales.Add(v.Total)
	r.TotalProducts += v.UnidadesVendidas()
	r.TotalesPorPago = r.TotalesPorPago.Sumar(v.TotalesPorPago)
}

// LimitesDelDia returns [00:00, 23:59:59.999] of t's calendar day in loc.
func LimitesDelDia(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	lt := t.In(loc)
	inicio := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
	fin := inicio.AddDate(0, 0, 1).Add(-time.Millisecond)
	return inicio, fin
}

// ── Venta ────────────────────────────────────────────────────────────────────

type Venta struct {
	ID                   uuid.UUID            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ReporteID            uuid.UUID            `gorm:"type:uuid;not null;index" json:"-"`
	Total                decimal.Decimal      `gorm:"type:decimal(14,2);not null" json:"total"`
	TotalDescuento       decimal.Decimal      `gorm:"type:decimal(14,2);not null;default:0" json:"totalDiscount"`
	PromocionesAplicadas PromocionesAplicadas `gorm:"type:jsonb" json:"appliedPromotions"`
	TotalesPorPago       TotalesPorPago       `gorm:"embedded;embeddedPrefix:total_" json:"totalsByPaymentType"`
	CreatedAt            time.Time            `gorm:"index" json:"createdAt"`

	Items []VentaItem `gorm:"foreignKey:VentaID" json:"items"`
	Pagos []Pago      `gorm:"foreignKey:VentaID" json:"payments"`
}

// UnidadesVendidas is Σ quantity·unitsPerSale over the items.
func (v Venta) UnidadesVendidas() int {
	n := 0
	for _, it := range v.Items {
		n += it.Cantidad * it.UnidadesPorVenta
	}
	return n
}

// TotalesDePagos sums payments with a positive amount per method.
func TotalesDePagos(pagos []Pago) TotalesPorPago {
	var t TotalesPorPago
	for _, p := range pagos {
		if p.Monto.IsPositive() {
			t = t.Agregar(p.Tipo, p.Monto)
		}
	}
	return t
}

type VentaItem struct {
	ID                uuid.UUID          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"-"`
	VentaID           uuid.UUID          `gorm:"type:uuid;not null;index" json:"-"`
	ProductoID        uuid.UUID          `gorm:"type:uuid;not null;index" json:"productId"`
	Barcode           string             `json:"barcode"`
	Nombre            string             `gorm:"not null" json:"name"`
	Cantidad          int                `gorm:"not null" json:"quantity"`
	Precio            decimal.Decimal    `gorm:"type:decimal(12,2);not null" json:"price"`
	TipoVenta         TipoVenta          `gorm:"type:varchar(10);not null" json:"saleType"`
	UnidadesPorVenta  int                `gorm:"not null" json:"unitsPerSale"`
	Subtotal          decimal.Decimal    `gorm:"type:decimal(14,2);not null" json:"subtotal"`
	TipoFiscal        TipoFiscal         `gorm:"type:varchar(10)" json:"taxType,omitempty"`
	PromocionAplicada *PromocionAplicada `gorm:"type:jsonb" json:"appliedPromotion,omitempty"`
}

// PromocionAplicada is the snapshot of a promotion attached to a sale line.
type PromocionAplicada struct {
	PromocionID    uuid.UUID       `json:"promotionId"`
	Nombre         string          `json:"name"`
	Tipo           TipoPromocion   `json:"type"`
	DiscountValue  decimal.Decimal `json:"discountValue"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
}

// ── Pagos ────────────────────────────────────────────────────────────────────

// MetodoPago: "efectivo" | "TC" | "transferencia"
type MetodoPago string

const (
	PagoEfectivo      MetodoPago = "efectivo"
	PagoTarjeta       MetodoPago = "TC"
	PagoTransferencia MetodoPago = "transferencia"
)

// MetodosPago is the fixed order divided payments are emitted in.
var MetodosPago = []MetodoPago{PagoEfectivo, PagoTarjeta, PagoTransferencia}

type TotalesPorPago struct {
	Efectivo      decimal.Decimal `gorm:"column:efectivo;type:decimal(14,2);not null;default:0" json:"efectivo"`
	TC            decimal.Decimal `gorm:"column:tc;type:decimal(14,2);not null;default:0" json:"TC"`
	Transferencia decimal.Decimal `gorm:"column:transferencia;type:decimal(14,2);not null;default:0" json:"transferencia"`
}

// Monto returns the amount recorded for m.
func (t TotalesPorPago) Monto(m MetodoPago) decimal.Decimal {
	switch m {
	case PagoEfectivo:
		return t.Efectivo
	case PagoTarjeta:
		return t.TC
	case PagoTransferencia:
		return t.Transferencia
	}
	return decimal.Zero
}

// Agregar returns t with monto added to m. Unknown methods are ignored.
func (t TotalesPorPago) Agregar(m MetodoPago, monto decimal.Decimal) TotalesPorPago {
	switch m {
	case PagoEfectivo:
		t.Efectivo = t.Efectivo.Add(monto)
	case PagoTarjeta:
		t.TC = t.TC.Add(monto)
	case PagoTransferencia:
		t.Transferencia = t.Transferencia.Add(monto)
	}
	return t
}

func (t TotalesPorPago) Sumar(o TotalesPorPago) TotalesPorPago {
	return TotalesPorPago{
		Efectivo:      t.Efectivo.Add(o.Efectivo),
		TC:            t.TC.Add(o.TC),
		Transferencia: t.Transferencia.Add(o.Transferencia),
	}
}

func (t TotalesPorPago) Total() decimal.Decimal {
	return t.Efectivo.Add(t.TC).Add(t.Transferencia)
}

type Pago struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"-"`
	VentaID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	Tipo           MetodoPago      `gorm:"type:varchar(15);not null" json:"type"`
	Monto          decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Dividido       bool            `gorm:"not null;default:false" json:"isDivided"`
	PaymentDetails TotalesPorPago  `gorm:"embedded;embeddedPrefix:detalle_" json:"paymentDetails"`
}

// ResolverPagos builds the payment records of a sale.
// Non-divided: one payment of the whole total with the breakdown zeroed except for tipo.
// Divided: one payment per method with a positive amount, each carrying the full breakdown.
func ResolverPagos(total decimal.Decimal, tipo MetodoPago, dividido bool, detalle TotalesPorPago) ([]Pago, error) {
	var pagos []Pago
	if dividido {
		for _, m := range MetodosPago {
			if monto := detalle.Monto(m); monto.IsPositive() {
				pagos = append(pagos, Pago{Tipo: m, Monto: monto, Dividido: true, PaymentDetails: detalle})
			}
		}
	} else if metodoValido(tipo) {
		pagos = append(pagos, Pago{
			Tipo:           tipo,
			Monto:          total,
			PaymentDetails: TotalesPorPago{}.Agregar(tipo, total),
		})
	}
	if len(pagos) == 0 {
		return nil, ErrSinPago
	}
	return pagos, nil
}

func metodoValido(m MetodoPago) bool {
	for _, v := range MetodosPago {
		if v == m {
			return true
		}
	}
	return false
}
