package model

import (
	"time"

	"github.com/google/uuid"
)

// MotivoBaja: "manual" | "expired" | "other"
type MotivoBaja string

const (
	BajaManual  MotivoBaja = "manual"
	BajaVencido MotivoBaja = "expired"
	BajaOtro    MotivoBaja = "other"
)

func (m MotivoBaja) Valido() bool {
	return m == BajaManual || m == BajaVencido || m == BajaOtro
}

// HistoricoProducto is the append-only snapshot written when a product is deleted.
type HistoricoProducto struct {
	ID                    uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProductoID            uuid.UUID  `gorm:"type:uuid;uniqueIndex" json:"productId"`
	Barcode               string     `gorm:"index" json:"barcode"`
	Nombre                string     `gorm:"index" json:"name"`
	ExpirationDate        time.Time  `json:"expirationDate"`
	PharmaceuticalCompany string     `json:"pharmaceuticalCompany"`
	TipoFiscal            TipoFiscal `gorm:"type:varchar(10)" json:"paymentType"`
	Precios               Precios    `gorm:"embedded;embeddedPrefix:precio_" json:"prices"`
	Embalaje              Embalaje   `gorm:"embedded" json:"packaging"`
	Tipos                 ListaTipos `gorm:"type:text" json:"types"`
	UbicacionID           uuid.UUID  `gorm:"type:uuid;index" json:"location"`
	DeletedAt             time.Time  `gorm:"not null;index" json:"deletedAt"`
	DeletionReason        MotivoBaja `gorm:"type:varchar(10);not null" json:"deletionReason"`
	CreatedAt             time.Time  `json:"createdAt"`
}

func (HistoricoProducto) TableName() string { return "historico_productos" }

// NuevoHistorico snapshots p for archival.
func NuevoHistorico(p *Producto, motivo MotivoBaja, at time.Time) *HistoricoProducto {
	return &HistoricoProducto{
		ProductoID:            p.ID,
		Barcode:               p.Barcode,
		Nombre:                p.Nombre,
		ExpirationDate:        p.ExpirationDate,
		PharmaceuticalCompany: p.PharmaceuticalCompany,
		TipoFiscal:            p.TipoFiscal,
		Precios:               p.Precios,
		Embalaje:              p.Embalaje,
		Tipos:                 append(ListaTipos(nil), p.Tipos...),
		UbicacionID:           p.UbicacionID,
		DeletedAt:             at,
		DeletionReason:        motivo,
	}
}
