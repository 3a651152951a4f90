package handler

import (
	"net/http"

	"farmapos/internal/dto"
	"farmapos/internal/middleware"
	"farmapos/internal/model"
	"farmapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UbicacionesHandler struct {
	svc           service.UbicacionService
	transferencia service.TransferenciaService
}

func NewUbicacionesHandler(svc service.UbicacionService, transferencia service.TransferenciaService) *UbicacionesHandler {
	return &UbicacionesHandler{svc: svc, transferencia: transferencia}
}

func (h *UbicacionesHandler) Crear(c *gin.Context) {
	var req dto.CrearUbicacionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *UbicacionesHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obtener returns the location with the ids of its associated products.
func (h *UbicacionesHandler) Obtener(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UbicacionesHandler) Actualizar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarUbicacionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UbicacionesHandler) Eliminar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ubicación eliminada"})
}

// Transferir godoc
// @Summary Transferir productos entre ubicaciones
// @Description Cada ítem se confirma por separado; los fallidos se reportan sin revertir los anteriores.
// @Tags ubicaciones
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.TransferenciaRequest true "Origen, destino e ítems"
// @Success 200 {object} dto.TransferenciaResponse
// @Failure 400 {object} apierror.APIError
// @Router /ubicaciones/transferir [post]
func (h *UbicacionesHandler) Transferir(c *gin.Context) {
	var req dto.TransferenciaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	// admin_ubicacion only moves stock out of its own location
	if origen, err := uuid.Parse(req.SourceLocationID); err == nil && !middleware.GetActor(c).Puede(origen) {
		respondError(c, model.ErrSinPermiso)
		return
	}
	resp, err := h.transferencia.Transferir(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
