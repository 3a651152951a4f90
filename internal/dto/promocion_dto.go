package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type NxmConfigDTO struct {
	BuyQuantity int `json:"buyQuantity" validate:"min=1"`
	GetQuantity int `json:"getQuantity" validate:"min=1"`
}

type PromocionProductoDTO struct {
	ProductID       string `json:"productId"       validate:"required,uuid"`
	MinimumQuantity int    `json:"minimumQuantity" validate:"omitempty,min=1"`
}

type CondicionesDTO struct {
	MinimumPurchase decimal.Decimal `json:"minimumPurchase" validate:"min=0"`
	MaxUses         *int            `json:"maxUses"         validate:"omitempty,min=0"`
}

type PromocionRequest struct {
	Name          string                 `json:"name"          validate:"required,min=2,max=120"`
	Description   string                 `json:"description"   validate:"required"`
	PromotionType string                 `json:"promotionType" validate:"required,oneof=NxM percentage fixed"`
	NxmConfig     *NxmConfigDTO          `json:"nxmConfig"`
	DiscountValue *decimal.Decimal       `json:"discountValue" validate:"omitempty,min=0"`
	Products      []PromocionProductoDTO `json:"products"      validate:"required,min=1,dive"`
	StartDate     time.Time              `json:"startDate"`
	EndDate       time.Time              `json:"endDate"`
	IsActive      *bool                  `json:"isActive"`
	Conditions    CondicionesDTO         `json:"conditions"`
}

type CarritoItemDTO struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity"  validate:"min=0"`
}

type ValidarPromocionRequest struct {
	Products []CarritoItemDTO `json:"products" validate:"required,dive"`
	Total    decimal.Decimal  `json:"total"    validate:"min=0"`
}
