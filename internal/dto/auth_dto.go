package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=4"`
}

type CrearUsuarioRequest struct {
	Email     string  `json:"email"     validate:"required,email"`
	Nombre    string  `json:"name"      validate:"omitempty,max=100"`
	Password  string  `json:"password"  validate:"required,min=6"`
	Rol       string  `json:"role"      validate:"required,oneof=admin admin_ubicacion employee"`
	Ubicacion *string `json:"ubicacion" validate:"omitempty,uuid"`
}

type ActualizarUsuarioRequest struct {
	Nombre    *string `json:"name"      validate:"omitempty,max=100"`
	Rol       string  `json:"role"      validate:"omitempty,oneof=admin admin_ubicacion employee"`
	Ubicacion *string `json:"ubicacion" validate:"omitempty,uuid"`
	Password  string  `json:"password"  validate:"omitempty,min=6"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UsuarioResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Nombre    string  `json:"name"`
	Rol       string  `json:"role"`
	Ubicacion *string `json:"ubicacion"`
	Activo    bool    `json:"activo"`
}

type LoginResponse struct {
	Token     string          `json:"token"`
	TokenType string          `json:"token_type"`
	ExpiresIn int             `json:"expires_in"` // seconds
	User      UsuarioResponse `json:"user"`
}
