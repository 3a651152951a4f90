package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TipoPromocion: "NxM" | "percentage" | "fixed"
type TipoPromocion string

const (
	PromocionNxM        TipoPromocion = "NxM"
	PromocionPorcentaje TipoPromocion = "percentage"
	PromocionMonto      TipoPromocion = "fixed"
)

// Promocion is stored flat; Regla returns the variant keyed by Tipo.
type Promocion struct {
	ID            uuid.UUID            `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Nombre        string               `gorm:"not null" json:"name"`
	Descripcion   string               `gorm:"not null" json:"description"`
	Tipo          TipoPromocion        `gorm:"type:varchar(12);not null" json:"promotionType"`
	BuyQuantity   int                  `gorm:"column:nxm_buy_quantity;not null;default:0" json:"-"`
	GetQuantity   int                  `gorm:"column:nxm_get_quantity;not null;default:0" json:"-"`
	DiscountValue decimal.Decimal      `gorm:"type:decimal(12,2);not null;default:0" json:"-"`
	StartDate     time.Time            `gorm:"not null;index" json:"startDate"`
	EndDate       time.Time            `gorm:"not null;index" json:"endDate"`
	IsActive      bool                 `gorm:"not null;default:true" json:"isActive"`
	Condiciones   CondicionesPromocion `gorm:"embedded" json:"conditions"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`

	Productos []PromocionProducto `gorm:"foreignKey:PromocionID;constraint:OnDelete:CASCADE" json:"products"`
}

func (Promocion) TableName() string { return "promociones" }

type CondicionesPromocion struct {
	MinimumPurchase decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"minimumPurchase"`
	MaxUses         *int            `json:"maxUses"`
	UsedCount       int             `gorm:"not null;default:0" json:"usedCount"`
}

type PromocionProducto struct {
	PromocionID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	ProductoID      uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"productId"`
	MinimumQuantity int       `gorm:"not null;default:1" json:"minimumQuantity"`
}

func (PromocionProducto) TableName() string { return "promocion_productos" }

// ── Reglas ───────────────────────────────────────────────────────────────────

// Regla is the pricing rule of a promotion.
type Regla interface {
	Tipo() TipoPromocion
}

// ReglaNxM: take Compra units, pay for Paga.
type ReglaNxM struct{ Compra, Paga int }

// ReglaPorcentaje discounts Valor percent off the base price.
type ReglaPorcentaje struct{ Valor decimal.Decimal }

// ReglaMonto discounts a fixed Valor off the base price.
type ReglaMonto struct{ Valor decimal.Decimal }

func (ReglaNxM) Tipo() TipoPromocion        { return PromocionNxM }
func (ReglaPorcentaje) Tipo() TipoPromocion { return PromocionPorcentaje }
func (ReglaMonto) Tipo() TipoPromocion      { return PromocionMonto }

// Regla validates the stored fields for Tipo and returns the matching variant.
func (p *Promocion) Regla() (Regla, error) {
	switch p.Tipo {
	case PromocionNxM:
		if p.BuyQuantity <= 0 || p.GetQuantity <= 0 || p.GetQuantity > p.BuyQuantity {
			return nil, fmt.Errorf("%w: nxmConfig %d/%d", ErrSolicitudInvalida, p.BuyQuantity, p.GetQuantity)
		}
		return ReglaNxM{Compra: p.BuyQuantity, Paga: p.GetQuantity}, nil
	case PromocionPorcentaje:
		if p.DiscountValue.IsNegative() || p.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
			return nil, fmt.Errorf("%w: discountValue %s", ErrSolicitudInvalida, p.DiscountValue)
		}
		return ReglaPorcentaje{Valor: p.DiscountValue}, nil
	case PromocionMonto:
		if p.DiscountValue.IsNegative() {
			return nil, fmt.Errorf("%w: discountValue %s", ErrSolicitudInvalida, p.DiscountValue)
		}
		return ReglaMonto{Valor: p.DiscountValue}, nil
	}
	return nil, fmt.Errorf("%w: promotionType %q", ErrSolicitudInvalida, p.Tipo)
}

// AplicarRegla stores r into the flat columns.
func (p *Promocion) AplicarRegla(r Regla) {
	p.Tipo = r.Tipo()
	p.BuyQuantity, p.GetQuantity, p.DiscountValue = 0, 0, decimal.Zero
	switch v := r.(type) {
	case ReglaNxM:
		p.BuyQuantity, p.GetQuantity = v.Compra, v.Paga
	case ReglaPorcentaje:
		p.DiscountValue = v.Valor
	case ReglaMonto:
		p.DiscountValue = v.Valor
	}
}

// Vigente reports whether the promotion is active at t.
func (p *Promocion) Vigente(t time.Time) bool {
	return p.IsActive && !t.Before(p.StartDate) && !t.After(p.EndDate)
}

// AgotadoUso is true when maxUses is set and reached.
func (p *Promocion) AgotadoUso() bool {
	return p.Condiciones.MaxUses != nil && *p.Condiciones.MaxUses > 0 && p.Condiciones.UsedCount >= *p.Condiciones.MaxUses
}

// Aplicable checks a cart against the promotion conditions. cantidades maps product id to quantity.
// NxM requires every listed product with at least buyQuantity; other types require any
// listed product with its minimumQuantity.
func (p *Promocion) Aplicable(total decimal.Decimal, cantidades map[uuid.UUID]int) bool {
	if p.Condiciones.MinimumPurchase.GreaterThan(total) || p.AgotadoUso() {
		return false
	}
	if p.Tipo == PromocionNxM {
		if len(p.Productos) == 0 {
			return false
		}
		for _, pp := range p.Productos {
			if cantidades[pp.ProductoID] < p.BuyQuantity {
				return false
			}
		}
		return true
	}
	for _, pp := range p.Productos {
		if q, ok := cantidades[pp.ProductoID]; ok && q >= pp.MinimumQuantity {
			return true
		}
	}
	return false
}

// IncluyeProducto reports whether id is one of the promotion's products.
func (p *Promocion) IncluyeProducto(id uuid.UUID) bool {
	for _, pp := range p.Productos {
		if pp.ProductoID == id {
			return true
		}
	}
	return false
}

// MarshalJSON adds the variant-specific fields the clients expect.
func (p Promocion) MarshalJSON() ([]byte, error) {
	type alias Promocion
	out := struct {
		alias
		NxmConfig     *nxmConfig       `json:"nxmConfig,omitempty"`
		DiscountValue *decimal.Decimal `json:"discountValue,omitempty"`
	}{alias: alias(p)}
	if p.Tipo == PromocionNxM {
		out.NxmConfig = &nxmConfig{BuyQuantity: p.BuyQuantity, GetQuantity: p.GetQuantity}
	} else {
		v := p.DiscountValue
		out.DiscountValue = &v
	}
	return json.Marshal(out)
}

type nxmConfig struct {
	BuyQuantity int `json:"buyQuantity"`
	GetQuantity int `json:"getQuantity"`
}

// ── Cotización ───────────────────────────────────────────────────────────────

var cien = decimal.NewFromInt(100)

// Linea is the priced result of one cart line.
type Linea struct {
	Cantidad       int
	Precio         decimal.Decimal
	Subtotal       decimal.Decimal
	DescuentoPct   decimal.Decimal
	DescuentoMonto decimal.Decimal
}

// Cotizar prices cantidad at base under r (nil for no promotion). descuentoManual is a
// percentage applied only when no promotion is attached.
// NxM only prices a line of exactly the rule's Compra units and charges Paga of them.
func Cotizar(base *decimal.Decimal, cantidad int, r Regla, descuentoManual decimal.Decimal) (Linea, error) {
	if base == nil || !base.IsPositive() {
		return Linea{}, ErrPrecioNoDisponible
	}
	b := *base
	if nxm, ok := r.(ReglaNxM); ok {
		if cantidad != nxm.Compra {
			return Linea{}, fmt.Errorf("%w: la promoción %dx%d requiere %d unidades, se pidieron %d",
				ErrPromocionNoAplicable, nxm.Compra, nxm.Paga, nxm.Compra, cantidad)
		}
		subtotal := b.Mul(decimal.NewFromInt(int64(nxm.Paga))).Round(2)
		bruto := b.Mul(decimal.NewFromInt(int64(nxm.Compra)))
		return Linea{
			Cantidad:       nxm.Compra,
			Precio:         subtotal.Div(decimal.NewFromInt(int64(nxm.Compra))).Round(2),
			Subtotal:       subtotal,
			DescuentoMonto: bruto.Sub(subtotal).Round(2),
		}, nil
	}
	if cantidad <= 0 {
		return Linea{}, fmt.Errorf("%w: %d", ErrCantidadInvalida, cantidad)
	}
	pct := descuentoManual
	switch v := r.(type) {
	case ReglaPorcentaje:
		pct = v.Valor
	case ReglaMonto:
		pct = v.Valor.Div(b).Mul(cien)
	}
	if pct.IsNegative() || pct.GreaterThan(cien) {
		return Linea{}, fmt.Errorf("%w: descuento %s%%", ErrSolicitudInvalida, pct.StringFixed(2))
	}
	precio := b.Sub(b.Mul(pct).Div(cien)).Round(2)
	q := decimal.NewFromInt(int64(cantidad))
	subtotal := precio.Mul(q).Round(2)
	return Linea{
		Cantidad:       cantidad,
		Precio:         precio,
		Subtotal:       subtotal,
		DescuentoPct:   pct.Round(2),
		DescuentoMonto: b.Mul(q).Sub(subtotal).Round(2),
	}, nil
}

// ── Persistencia JSON ────────────────────────────────────────────────────────

// PromocionesAplicadas is the per-sale list stored as jsonb.
type PromocionesAplicadas []PromocionAplicada

func (p PromocionesAplicadas) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	b, err := json.Marshal(p)
	return string(b), err
}

func (p *PromocionesAplicadas) Scan(src any) error { return scanJSON(src, p) }

// TotalDescuento sums discountAmount.
func (p PromocionesAplicadas) TotalDescuento() decimal.Decimal {
	t := decimal.Zero
	for _, a := range p {
		t = t.Add(a.DiscountAmount)
	}
	return t
}

func (p PromocionAplicada) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	return string(b), err
}

func (p *PromocionAplicada) Scan(src any) error { return scanJSON(src, p) }

func scanJSON(src any, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	}
	return fmt.Errorf("tipo no soportado para jsonb: %T", src)
}
