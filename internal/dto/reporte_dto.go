package dto

import "github.com/shopspring/decimal"

// ReporteFilter is bound from the query string of the report read endpoints.
// Dates are business days, YYYY-MM-DD.
type ReporteFilter struct {
	Date      string `form:"date"`
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
	Ubicacion string `form:"ubicacion"`
}

// VentasProductoFilter selects the recent sales of one product.
type VentasProductoFilter struct {
	ProductID string `form:"productId" binding:"required"`
	Days      int    `form:"days"`
}

// EstadisticaDiaria is one row of the daily stats projection.
type EstadisticaDiaria struct {
	Fecha         string          `json:"date"`
	TotalSales    decimal.Decimal `json:"totalSales"`
	TotalProducts int             `json:"totalProducts"`
	Ventas        int             `json:"salesCount"`
	Efectivo      decimal.Decimal `json:"efectivo"`
	TC            decimal.Decimal `json:"TC"`
	Transferencia decimal.Decimal `json:"transferencia"`
}

// HousekeepingResult summarises one run of the scheduled report job.
type HousekeepingResult struct {
	Cerrados int `json:"closed"`
	Omitidos int `json:"skipped"`
	Creados  int `json:"created"`
}

// ExportarPDFRequest selects either one report or a business-day range.
type ExportarPDFRequest struct {
	ReportID  string `json:"reportId"  validate:"omitempty,uuid"`
	StartDate string `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string `json:"endDate"   validate:"omitempty,datetime=2006-01-02"`
}
