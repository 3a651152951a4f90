package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemVentaRequest struct {
	ProductID   string  `json:"productId"   validate:"required,uuid"`
	Quantity    int     `json:"quantity"    validate:"required,min=1,max=100000"`
	SaleType    string  `json:"saleType"    validate:"required,oneof=unit blister box"`
	PromotionID *string `json:"promotionId" validate:"omitempty,uuid"`

	// Discount is a manual percentage, ignored when a promotion is attached.
	Discount decimal.Decimal `json:"discount" validate:"min=0,max=100"`
}

type DetallePagoDTO struct {
	Efectivo      decimal.Decimal `json:"efectivo"      validate:"min=0"`
	TC            decimal.Decimal `json:"TC"            validate:"min=0"`
	Transferencia decimal.Decimal `json:"transferencia" validate:"min=0"`
}

// PagoRequest is either a single method (Type) or a divided breakdown.
type PagoRequest struct {
	Type           string         `json:"type"      validate:"omitempty,oneof=efectivo TC transferencia"`
	IsDivided      bool           `json:"isDivided"`
	PaymentDetails DetallePagoDTO `json:"paymentDetails"`
}

type RegistrarVentaRequest struct {
	// Ubicacion is only honoured for admins; other roles sell at their own location.
	Ubicacion   *string            `json:"ubicacion"   validate:"omitempty,uuid"`
	Items       []ItemVentaRequest `json:"items"       validate:"required,min=1,dive"`
	PaymentType PagoRequest        `json:"paymentType"`
	CreatedAt   *time.Time         `json:"createdAt"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type VentaResponse struct {
	ReporteID     string          `json:"reportId"`
	VentaID       string          `json:"saleId"`
	Total         decimal.Decimal `json:"total"`
	TotalDiscount decimal.Decimal `json:"totalDiscount"`
	Items         int             `json:"items"`
	Payments      int             `json:"payments"`
}
