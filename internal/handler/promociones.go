package handler

import (
	"net/http"

	"farmapos/internal/dto"
	"farmapos/internal/service"

	"github.com/gin-gonic/gin"
)

type PromocionesHandler struct{ svc service.PromocionService }

func NewPromocionesHandler(svc service.PromocionService) *PromocionesHandler {
	return &PromocionesHandler{svc: svc}
}

func (h *PromocionesHandler) Crear(c *gin.Context) {
	var req dto.PromocionRequest
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

func (h *PromocionesHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PromocionesHandler) Activas(c *gin.Context) {
	resp, err := h.svc.Activas(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PromocionesHandler) PorProducto(c *gin.Context) {
	id, ok := paramID(c, "productId")
	if !ok {
		return
	}
	resp, err := h.svc.PorProducto(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PromocionesHandler) Actualizar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.PromocionRequest
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

func (h *PromocionesHandler) Eliminar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Promoción eliminada"})
}

// Validar godoc
// @Summary Promociones aplicables a un carrito
// @Tags promociones
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ValidarPromocionRequest true "Carrito"
// @Success 200 {array} model.Promocion
// @Router /promotions/validate [post]
func (h *PromocionesHandler) Validar(c *gin.Context) {
	var req dto.ValidarPromocionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Validar(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
