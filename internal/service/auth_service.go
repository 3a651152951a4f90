package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"farmapos/internal/config"
	"farmapos/internal/dto"
	"farmapos/internal/model"
	"farmapos/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	CrearUsuario(ctx context.Context, actor Actor, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error)
	ListarUsuarios(ctx context.Context, actor Actor) ([]dto.UsuarioResponse, error)
	ObtenerUsuario(ctx context.Context, actor Actor, id uuid.UUID) (*dto.UsuarioResponse, error)
	ActualizarUsuario(ctx context.Context, actor Actor, id uuid.UUID, req dto.ActualizarUsuarioRequest) (*dto.UsuarioResponse, error)
	EliminarUsuario(ctx context.Context, actor Actor, id uuid.UUID) error
}

type authService struct {
	repo repository.UsuarioRepository
	cfg  *config.Config
}

func NewAuthService(repo repository.UsuarioRepository, cfg *config.Config) AuthService {
	return &authService{repo: repo, cfg: cfg}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, model.ErrNoEncontrado) {
			return nil, model.ErrCredenciales
		}
		return nil, err
	}
	if !user.Activo {
		return nil, model.ErrCredenciales
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, model.ErrCredenciales
	}

	token, err := s.generateToken(user, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token:     token,
		TokenType: "bearer",
		ExpiresIn: s.cfg.JWTExpirationHours * 3600,
		User:      usuarioToResponse(user),
	}, nil
}

// CrearUsuario enforces the creator's reach: admin_ubicacion only creates non-admin users
// for its own location. Admin users never carry a location.
func (s *authService) CrearUsuario(ctx context.Context, actor Actor, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error) {
	if !model.RolValido(req.Rol) {
		return nil, fmt.Errorf("%w: rol %q", model.ErrSolicitudInvalida, req.Rol)
	}
	var ubicacionID *uuid.UUID
	if req.Ubicacion != nil && *req.Ubicacion != "" {
		id, err := parseID("ubicacion", *req.Ubicacion)
		if err != nil {
			return nil, err
		}
		ubicacionID = &id
	}

	if !actor.EsAdmin() {
		if req.Rol == model.RolAdmin {
			return nil, fmt.Errorf("%w: no puede crear administradores", model.ErrSinPermiso)
		}
		if ubicacionID == nil || !actor.Puede(*ubicacionID) {
			return nil, fmt.Errorf("%w: solo puede crear usuarios para su ubicación", model.ErrSinPermiso)
		}
	}
	if req.Rol == model.RolAdmin {
		ubicacionID = nil
	} else if ubicacionID == nil {
		return nil, fmt.Errorf("%w: ubicacion requerida para el rol %s", model.ErrSolicitudInvalida, req.Rol)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrDuplicado, email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &model.Usuario{
		Email:        email,
		Nombre:       req.Nombre,
		PasswordHash: string(hash),
		Rol:          req.Rol,
		UbicacionID:  ubicacionID,
		Activo:       true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	resp := usuarioToResponse(user)
	return &resp, nil
}

func (s *authService) ListarUsuarios(ctx context.Context, actor Actor) ([]dto.UsuarioResponse, error) {
	var filtro *uuid.UUID
	if !actor.EsAdmin() {
		if actor.UbicacionID == nil {
			return nil, model.ErrSinPermiso
		}
		filtro = actor.UbicacionID
	}
	users, err := s.repo.List(ctx, filtro)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.UsuarioResponse, len(users))
	for i := range users {
		resp[i] = usuarioToResponse(&users[i])
	}
	return resp, nil
}

// alcanzable loads id and checks the actor may manage it.
func (s *authService) alcanzable(ctx context.Context, actor Actor, id uuid.UUID) (*model.Usuario, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.EsAdmin() {
		return user, nil
	}
	if user.Rol == model.RolAdmin || user.UbicacionID == nil || !actor.Puede(*user.UbicacionID) {
		return nil, model.ErrSinPermiso
	}
	return user, nil
}

func (s *authService) ObtenerUsuario(ctx context.Context, actor Actor, id uuid.UUID) (*dto.UsuarioResponse, error) {
	user, err := s.alcanzable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	resp := usuarioToResponse(user)
	return &resp, nil
}

func (s *authService) ActualizarUsuario(ctx context.Context, actor Actor, id uuid.UUID, req dto.ActualizarUsuarioRequest) (*dto.UsuarioResponse, error) {
	user, err := s.alcanzable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if req.Nombre != nil {
		user.Nombre = *req.Nombre
	}
	if req.Rol != "" {
		if req.Rol == model.RolAdmin && !actor.EsAdmin() {
			return nil, fmt.Errorf("%w: no puede asignar el rol de administrador", model.ErrSinPermiso)
		}
		user.Rol = req.Rol
	}
	if req.Ubicacion != nil {
		uid, err := parseID("ubicacion", *req.Ubicacion)
		if err != nil {
			return nil, err
		}
		if !actor.Puede(uid) {
			return nil, model.ErrSinPermiso
		}
		user.UbicacionID = &uid
	}
	if user.Rol == model.RolAdmin {
		user.UbicacionID = nil
	} else if user.UbicacionID == nil {
		return nil, fmt.Errorf("%w: ubicacion requerida para el rol %s", model.ErrSolicitudInvalida, user.Rol)
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	resp := usuarioToResponse(user)
	return &resp, nil
}

func (s *authService) EliminarUsuario(ctx context.Context, actor Actor, id uuid.UUID) error {
	if _, err := s.alcanzable(ctx, actor, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *authService) generateToken(user *model.Usuario, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"rol":     user.Rol,
		"exp":     time.Now().Add(duration).Unix(),
		"iat":     time.Now().Unix(),
	}
	if user.UbicacionID != nil {
		claims["ubicacion"] = user.UbicacionID.String()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func usuarioToResponse(u *model.Usuario) dto.UsuarioResponse {
	var ubic *string
	if u.UbicacionID != nil {
		s := u.UbicacionID.String()
		ubic = &s
	}
	return dto.UsuarioResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		Nombre:    u.Nombre,
		Rol:       u.Rol,
		Ubicacion: ubic,
		Activo:    u.Activo,
	}
}
