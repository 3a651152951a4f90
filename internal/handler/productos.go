package handler

import (
	"net/http"
	"strconv"
	"time"

	"farmapos/internal/apierror"
	"farmapos/internal/dto"
	"farmapos/internal/middleware"
	"farmapos/internal/model"
	"farmapos/internal/repository"
	"farmapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProductosHandler struct {
	svc        service.ProductoService
	inventario service.InventarioService
}

func NewProductosHandler(svc service.ProductoService, inventario service.InventarioService) *ProductosHandler {
	return &ProductosHandler{svc: svc, inventario: inventario}
}

// Crear godoc
// @Summary Crear producto
// @Tags productos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearProductoRequest true "Producto"
// @Success 201 {object} model.Producto
// @Failure 400 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /products [post]
func (h *ProductosHandler) Crear(c *gin.Context) {
	var req dto.CrearProductoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary Listar productos visibles para el usuario
// @Tags productos
// @Produce json
// @Security BearerAuth
// @Param location query string false "Ubicaciones separadas por coma (solo admin)"
// @Param type query string false "Tipos separados por coma"
// @Success 200 {array} model.Producto
// @Router /products [get]
func (h *ProductosHandler) Listar(c *gin.Context) {
	var filter dto.ProductoFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), middleware.GetActor(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductosHandler) PorTipo(c *gin.Context) {
	filter := dto.ProductoFilter{Type: c.Param("type"), Location: c.Query("location")}
	resp, err := h.svc.Listar(c.Request.Context(), middleware.GetActor(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductosHandler) Tipos(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Tipos())
}

func (h *ProductosHandler) ObtenerPorID(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PorBarcode godoc
// @Summary Buscar lotes por código de barras
// @Description Devuelve los lotes visibles, el de vencimiento más próximo primero. Cacheado en Redis.
// @Tags productos
// @Produce json
// @Security BearerAuth
// @Param barcode path string true "Codigo de barras"
// @Success 200 {array} model.Producto
// @Failure 404 {object} apierror.APIError
// @Router /products/barcode/{barcode} [get]
func (h *ProductosHandler) PorBarcode(c *gin.Context) {
	resp, err := h.svc.BuscarPorBarcode(c.Request.Context(), middleware.GetActor(c), c.Param("barcode"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductosHandler) Actualizar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarProductoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Eliminar godoc
// @Summary Eliminar producto
// @Description Archiva el producto en el histórico y lo elimina. reason: manual | expired | other.
// @Tags productos
// @Produce json
// @Security BearerAuth
// @Param id path string true "UUID del producto"
// @Param reason query string false "Razón de eliminación"
// @Success 200 {object} dto.EliminarProductoResponse
// @Router /products/{id} [delete]
func (h *ProductosHandler) Eliminar(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	req := dto.EliminarProductoRequest{Reason: c.Query("reason")}
	if c.Request.ContentLength > 0 && !bindAndValidate(c, &req) {
		return
	}
	hist, err := h.svc.Eliminar(c.Request.Context(), middleware.GetActor(c), id, model.MotivoBaja(req.Reason))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.EliminarProductoResponse{
		Message:     "Producto eliminado y archivado en el histórico",
		HistoricoID: hist.ID.String(),
	})
}

// ActualizarStock godoc
// @Summary Descontar stock por tipo de venta
// @Tags inventario
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ActualizarStockRequest true "Cantidad y tipo"
// @Success 200 {object} model.Producto
// @Failure 409 {object} apierror.StockError
// @Router /products/update-stock [post]
func (h *ProductosHandler) ActualizarStock(c *gin.Context) {
	var req dto.ActualizarStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.inventario.ActualizarStock(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Auditar lists products whose counters drifted from their packaging.
func (h *ProductosHandler) Auditar(c *gin.Context) {
	ubicaciones, err := service.ParseUbicaciones(c.Query("location"))
	if err != nil {
		respondError(c, err)
		return
	}
	resp, err := h.inventario.Auditar(c.Request.Context(), middleware.GetActor(c), ubicaciones)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Movimientos lists the stock ledger, newest first. desde/hasta are RFC 3339 timestamps.
func (h *ProductosHandler) Movimientos(c *gin.Context) {
	ubicaciones, err := service.ParseUbicaciones(c.Query("location"))
	if err != nil {
		respondError(c, err)
		return
	}
	q := repository.MovimientoQuery{UbicacionIDs: ubicaciones, Tipo: c.Query("tipo")}
	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if raw := c.Query("productId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("productId invalido"))
			return
		}
		q.ProductoID = &id
	}
	for param, dst := range map[string]**time.Time{"desde": &q.Desde, "hasta": &q.Hasta} {
		raw := c.Query(param)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New(param+" invalido"))
			return
		}
		*dst = &t
	}
	items, total, err := h.inventario.Movimientos(c.Request.Context(), middleware.GetActor(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	q.Normalizar()
	c.JSON(http.StatusOK, gin.H{"data": items, "total": total, "page": q.Page, "limit": q.Limit})
}

func (h *ProductosHandler) Historico(c *gin.Context) {
	var filter dto.HistoricoFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.Historico(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductosHandler) HistoricoExcel(c *gin.Context) {
	var filter dto.HistoricoFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	data, err := h.svc.HistoricoExcel(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	sendAttachment(c, "historico-productos.xlsx", mimeXLSX, data)
}
