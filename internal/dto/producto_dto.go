package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Shared shapes ───────────────────────────────────────────────────────────

type PreciosDTO struct {
	Unit    *decimal.Decimal `json:"unit"    validate:"omitempty,min=0"`
	Blister *decimal.Decimal `json:"blister" validate:"omitempty,min=0"`
	Box     *decimal.Decimal `json:"box"     validate:"omitempty,min=0"`
}

type EmbalajeDTO struct {
	UnitsPerBlister int `json:"unitsPerBlister" validate:"min=0,max=10000"`
	BlistersPerBox  int `json:"blistersPerBox"  validate:"min=0,max=10000"`
}

type OpcionesVentaDTO struct {
	Unit    bool `json:"unit"`
	Blister bool `json:"blister"`
	Box     bool `json:"box"`
}

type StockDTO struct {
	Units    int `json:"units"    validate:"min=0"`
	Blisters int `json:"blisters" validate:"min=0"`
	Boxes    int `json:"boxes"    validate:"min=0"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearProductoRequest struct {
	Barcode               string            `json:"barcode"               validate:"required,max=64"`
	Name                  string            `json:"name"                  validate:"required,min=2,max=200"`
	ExpirationDate        time.Time         `json:"expirationDate"        validate:"required"`
	PharmaceuticalCompany string            `json:"pharmaceuticalCompany" validate:"required"`
	PaymentType           string            `json:"paymentType"           validate:"required,oneof=exento gravado"`
	Types                 []string          `json:"types"                 validate:"omitempty,dive,oneof=Jarabe Analgesico Vacuna Bebe Generico Otro"`
	Prices                PreciosDTO        `json:"prices"`
	PurchasePrices        PreciosDTO        `json:"purchasePrices"`
	Packaging             *EmbalajeDTO      `json:"packaging"`
	SellOptions           *OpcionesVentaDTO `json:"sellOptions"`
	Stock                 StockDTO          `json:"stock"`
	Location              string            `json:"location"              validate:"required,uuid"`
}

// ActualizarProductoRequest edits static fields. Stock goes through the ledger.
type ActualizarProductoRequest struct {
	Barcode               *string           `json:"barcode"               validate:"omitempty,max=64"`
	Name                  *string           `json:"name"                  validate:"omitempty,min=2,max=200"`
	ExpirationDate        *time.Time        `json:"expirationDate"`
	PharmaceuticalCompany *string           `json:"pharmaceuticalCompany"`
	PaymentType           *string           `json:"paymentType"           validate:"omitempty,oneof=exento gravado"`
	Types                 []string          `json:"types"                 validate:"omitempty,dive,oneof=Jarabe Analgesico Vacuna Bebe Generico Otro"`
	Prices                *PreciosDTO       `json:"prices"`
	PurchasePrices        *PreciosDTO       `json:"purchasePrices"`
	Packaging             *EmbalajeDTO      `json:"packaging"`
	SellOptions           *OpcionesVentaDTO `json:"sellOptions"`
	Stock                 *StockDTO         `json:"stock"`
}

// ActualizarStockRequest deducts stock for a quantity of a sale type.
type ActualizarStockRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity"  validate:"required,min=1,max=100000"`
	SaleType  string `json:"saleType"  validate:"required,oneof=unit blister box"`
}

type EliminarProductoRequest struct {
	Reason string `json:"reason" validate:"omitempty,oneof=manual expired other"`
}

// ─── Filter ──────────────────────────────────────────────────────────────────

type ProductoFilter struct {
	// Location is a comma separated list of location ids. Only admins may set it.
	Location string `form:"location"`
	Barcode  string `form:"barcode"`
	Name     string `form:"name"`
	Type     string `form:"type"`
}

type HistoricoFilter struct {
	StartDate string `form:"startDate"` // YYYY-MM-DD
	EndDate   string `form:"endDate"`
	Name      string `form:"name"`
	Type      string `form:"type"` // comma separated
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type EliminarProductoResponse struct {
	Message     string `json:"message"`
	HistoricoID string `json:"historicoId"`
}
