package model

import (
	"time"

	"github.com/google/uuid"
)

// Ubicacion is a pharmacy branch. It holds no stock itself; ProductosAsociados is
// a back-reference set kept in the ubicacion_productos join table.
type Ubicacion struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Nombre    string    `gorm:"not null" json:"nombre"`
	Direccion string    `json:"direccion"`
	Telefono  string    `json:"telefono"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	ProductosAsociados []uuid.UUID `gorm:"-" json:"productosAsociados"`
}

func (Ubicacion) TableName() string { return "ubicaciones" }

// UbicacionProducto is one entry of a location's product set. The composite key
// gives add-to-set semantics.
type UbicacionProducto struct {
	UbicacionID uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductoID  uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

func (UbicacionProducto) TableName() string { return "ubicacion_productos" }
