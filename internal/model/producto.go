package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TipoFiscal is the tax treatment of a product ("paymentType" in the exported documents).
type TipoFiscal string

const (
	TipoFiscalExento  TipoFiscal = "exento"
	TipoFiscalGravado TipoFiscal = "gravado"
)

// TiposProducto lists the accepted therapeutic categories.
var TiposProducto = []string{"Jarabe", "Analgesico", "Vacuna", "Bebe", "Generico", "Otro"}

// Precios holds an optional price per packaging level.
type Precios struct {
	Unidad  *decimal.Decimal `gorm:"type:decimal(12,2)" json:"unit,omitempty"`
	Blister *decimal.Decimal `gorm:"type:decimal(12,2)" json:"blister,omitempty"`
	Caja    *decimal.Decimal `gorm:"type:decimal(12,2)" json:"box,omitempty"`
}

// Para returns the price configured for tipo, or nil when the level has no price.
func (p Precios) Para(tipo TipoVenta) *decimal.Decimal {
	switch tipo {
	case TipoVentaUnidad:
		return p.Unidad
	case TipoVentaBlister:
		return p.Blister
	case TipoVentaCaja:
		return p.Caja
	}
	return nil
}

// Producto is a stock-bearing item owned by exactly one Ubicacion.
// Barcode is not unique: the same drug can exist in several locations and batches.
type Producto struct {
	ID                    uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Barcode               string        `gorm:"not null;index" json:"barcode"`
	Nombre                string        `gorm:"not null;index" json:"name"`
	ExpirationDate        time.Time     `gorm:"not null;index" json:"expirationDate"`
	PharmaceuticalCompany string        `gorm:"not null;index" json:"pharmaceuticalCompany"`
	TipoFiscal            TipoFiscal    `gorm:"type:varchar(10);not null" json:"paymentType"`
	Precios               Precios       `gorm:"embedded;embeddedPrefix:precio_" json:"prices"`
	PreciosCompra         Precios       `gorm:"embedded;embeddedPrefix:precio_compra_" json:"purchasePrices"`
	Stock                 Stock         `gorm:"embedded" json:"stock"`
	Embalaje              Embalaje      `gorm:"embedded" json:"packaging"`
	OpcionesVenta         OpcionesVenta `gorm:"embedded" json:"sellOptions"`
	Tipos                 ListaTipos    `gorm:"type:text" json:"types"`
	UbicacionID           uuid.UUID     `gorm:"type:uuid;not null;index" json:"location"`
	CreatedAt             time.Time     `json:"createdAt"`
	UpdatedAt             time.Time     `json:"updatedAt"`

	Ubicacion *Ubicacion `gorm:"foreignKey:UbicacionID" json:"-"`
}

// Movimiento converts cantidad of tipo into the counter delta a sale or transfer applies,
// rejecting sale types the product does not allow.
func (p *Producto) Movimiento(cantidad int, tipo TipoVenta) (Stock, error) {
	if !p.OpcionesVenta.Permite(tipo) {
		return Stock{}, tipoNoPermitido(tipo)
	}
	return p.Embalaje.Movimiento(cantidad, tipo)
}

// UnidadesPara is the atomic-unit count for cantidad of tipo on this product.
func (p *Producto) UnidadesPara(cantidad int, tipo TipoVenta) (int, error) {
	d, err := p.Movimiento(cantidad, tipo)
	if err != nil {
		return 0, err
	}
	return d.Unidades, nil
}

// ClonarPara copies the static fields of p into a new product owned by ubicacionID with zero stock.
func (p *Producto) ClonarPara(ubicacionID uuid.UUID) *Producto {
	return &Producto{
		Barcode:               p.Barcode,
		Nombre:                p.Nombre,
		ExpirationDate:        p.ExpirationDate,
		PharmaceuticalCompany: p.PharmaceuticalCompany,
		TipoFiscal:            p.TipoFiscal,
		Precios:               p.Precios,
		PreciosCompra:         p.PreciosCompra,
		Embalaje:              p.Embalaje,
		OpcionesVenta:         p.OpcionesVenta,
		Tipos:                 append(ListaTipos(nil), p.Tipos...),
		UbicacionID:           ubicacionID,
	}
}
