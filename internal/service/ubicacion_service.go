package service

import (
	"context"
	"strings"

	"farmapos/internal/dto"
	"farmapos/internal/model"
	"farmapos/internal/repository"

	"github.com/google/uuid"
)

type UbicacionService interface {
	Crear(ctx context.Context, req dto.CrearUbicacionRequest) (*model.Ubicacion, error)
	Listar(ctx context.Context) ([]model.Ubicacion, error)
	Obtener(ctx context.Context, id uuid.UUID) (*model.Ubicacion, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarUbicacionRequest) (*model.Ubicacion, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
}

type ubicacionService struct {
	repo repository.UbicacionRepository
}

func NewUbicacionService(repo repository.UbicacionRepository) UbicacionService {
	return &ubicacionService{repo: repo}
}

func (s *ubicacionService) Crear(ctx context.Context, req dto.CrearUbicacionRequest) (*model.Ubicacion, error) {
	u := &model.Ubicacion{
		Nombre:    strings.TrimSpace(req.Nombre),
		Direccion: strings.TrimSpace(req.Direccion),
		Telefono:  strings.TrimSpace(req.Telefono),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	u.ProductosAsociados = []uuid.UUID{}
	return u, nil
}

func (s *ubicacionService) Listar(ctx context.Context) ([]model.Ubicacion, error) {
	return s.repo.List(ctx)
}

func (s *ubicacionService) Obtener(ctx context.Context, id uuid.UUID) (*model.Ubicacion, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ubicacionService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarUbicacionRequest) (*model.Ubicacion, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Nombre != nil {
		u.Nombre = strings.TrimSpace(*req.Nombre)
	}
	if req.Direccion != nil {
		u.Direccion = strings.TrimSpace(*req.Direccion)
	}
	if req.Telefono != nil {
		u.Telefono = strings.TrimSpace(*req.Telefono)
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *ubicacionService) Eliminar(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
