package service

import (
	"fmt"
	"strings"

	"farmapos/internal/model"

	"github.com/google/uuid"
)

// Actor is the authenticated caller as carried by the JWT.
type Actor struct {
	UsuarioID   uuid.UUID
	Rol         string
	UbicacionID *uuid.UUID
}

func (a Actor) EsAdmin() bool { return a.Rol == model.RolAdmin }

// Ubicacion resolves the location an operation acts on. Admins may pick one
// (solicitada); everyone else is pinned to their own.
func (a Actor) Ubicacion(solicitada *uuid.UUID) (uuid.UUID, error) {
	if a.EsAdmin() {
		if solicitada != nil {
			return *solicitada, nil
		}
		if a.UbicacionID != nil {
			return *a.UbicacionID, nil
		}
		return uuid.Nil, fmt.Errorf("%w: ubicacion requerida", model.ErrSolicitudInvalida)
	}
	if a.UbicacionID == nil {
		return uuid.Nil, model.ErrSinPermiso
	}
	return *a.UbicacionID, nil
}

// Visibles returns the locations a read may cover. nil means every location (admin, no filter).
func (a Actor) Visibles(solicitadas []uuid.UUID) ([]uuid.UUID, error) {
	if a.EsAdmin() {
		return solicitadas, nil
	}
	if a.UbicacionID == nil {
		return nil, model.ErrSinPermiso
	}
	return []uuid.UUID{*a.UbicacionID}, nil
}

// Filtro is Visibles for single-location filters.
func (a Actor) Filtro(solicitada *uuid.UUID) (*uuid.UUID, error) {
	var req []uuid.UUID
	if solicitada != nil {
		req = []uuid.UUID{*solicitada}
	}
	vis, err := a.Visibles(req)
	if err != nil || len(vis) == 0 {
		return nil, err
	}
	return &vis[0], nil
}

// Puede reports whether the caller may act on ubicacionID.
func (a Actor) Puede(ubicacionID uuid.UUID) bool {
	return a.EsAdmin() || (a.UbicacionID != nil && *a.UbicacionID == ubicacionID)
}

// ParseUbicaciones splits a comma separated id list. Blank input yields nil.
func ParseUbicaciones(csv string) ([]uuid.UUID, error) {
	if strings.TrimSpace(csv) == "" {
		return nil, nil
	}
	var out []uuid.UUID
	for _, part := range strings.Split(csv, ",") {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%w: ubicacion %q", model.ErrSolicitudInvalida, part)
		}
		out = append(out, id)
	}
	return out, nil
}

func parseID(campo, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s inválido", model.ErrSolicitudInvalida, campo)
	}
	return id, nil
}
