package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	MovimientoVenta                = "venta"
	MovimientoTransferenciaSalida  = "transferencia_salida"
	MovimientoTransferenciaEntrada = "transferencia_entrada"
	MovimientoAjusteManual         = "ajuste_manual"
)

// MovimientoStock registra cada cambio de stock en un producto.
// Delta is signed: negative for salidas.
type MovimientoStock struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProductoID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"productId"`
	Tipo         string     `gorm:"not null" json:"tipo"`
	Delta        Stock      `gorm:"embedded;embeddedPrefix:delta_" json:"delta"`
	Anterior     Stock      `gorm:"embedded;embeddedPrefix:anterior_" json:"anterior"`
	Nuevo        Stock      `gorm:"embedded;embeddedPrefix:nuevo_" json:"nuevo"`
	Motivo       string     `json:"motivo,omitempty"`
	ReferenciaID *uuid.UUID `gorm:"type:uuid" json:"referenciaId,omitempty"` // venta_id or producto destino/origen
	CreatedAt    time.Time  `json:"createdAt"`
}

// TableName overrides GORM's default pluralization (movimiento_stocks → movimientos_stock).
func (MovimientoStock) TableName() string { return "movimientos_stock" }

// Negar returns the delta with every counter negated.
func (s Stock) Negar() Stock {
	return Stock{Unidades: -s.Unidades, Blisters: -s.Blisters, Cajas: -s.Cajas}
}
