package model

import (
	"time"

	"github.com/google/uuid"
)

// Rol: "admin" | "admin_ubicacion" | "employee"
const (
	RolAdmin          = "admin"
	RolAdminUbicacion = "admin_ubicacion"
	RolEmpleado       = "employee"
)

// Usuario stores system users with role-based access.
// UbicacionID is required for every role except admin.
type Usuario struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email        string     `gorm:"uniqueIndex;not null"`
	Nombre       string
	PasswordHash string     `gorm:"not null"`
	Rol          string     `gorm:"type:varchar(20);not null;default:'employee';index"`
	UbicacionID  *uuid.UUID `gorm:"type:uuid;index"`
	Activo       bool       `gorm:"not null;default:true"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Ubicacion *Ubicacion `gorm:"foreignKey:UbicacionID"`
}

// RolValido reports whether rol is one of the known roles.
func RolValido(rol string) bool {
	return rol == RolAdmin || rol == RolAdminUbicacion || rol == RolEmpleado
}
