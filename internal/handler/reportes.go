package handler

import (
	"net/http"

	"farmapos/internal/apierror"
	"farmapos/internal/dto"
	"farmapos/internal/middleware"
	"farmapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReportesHandler struct {
	svc    service.ReporteService
	ventas service.VentaService
}

func NewReportesHandler(svc service.ReporteService, ventas service.VentaService) *ReportesHandler {
	return &ReportesHandler{svc: svc, ventas: ventas}
}

// Crear godoc
// @Summary Obtener o crear el reporte del día
// @Tags reportes
// @Produce json
// @Security BearerAuth
// @Param ubicacion query string false "Ubicación (solo admin)"
// @Success 200 {object} model.Reporte
// @Router /reports/create [post]
func (h *ReportesHandler) Crear(c *gin.Context) {
	ubic, ok := queryUbicacion(c)
	if !ok {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), middleware.GetActor(c), ubic)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AgregarVenta godoc
// @Summary Registrar una venta en el reporte del día
// @Description Descuenta stock, aplica promociones y acumula totales en una sola transacción.
// @Tags reportes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RegistrarVentaRequest true "Detalle de la venta"
// @Success 201 {object} dto.VentaResponse
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.StockError
// @Router /reports/add-sale [post]
func (h *ReportesHandler) AgregarVenta(c *gin.Context) {
	var req dto.RegistrarVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.ventas.RegistrarVenta(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ReportesHandler) ObtenerVenta(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	resp, err := h.ventas.ObtenerVenta(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// VentasPorProducto godoc
// @Summary Ventas recientes de un producto
// @Tags reportes
// @Produce json
// @Security BearerAuth
// @Param productId query string true "Producto"
// @Param days query int false "Días hacia atrás (default 30)"
// @Success 200 {array} model.Venta
// @Router /reports/sales [get]
func (h *ReportesHandler) VentasPorProducto(c *gin.Context) {
	var f dto.VentasProductoFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	id, err := uuid.Parse(f.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("productId invalido"))
		return
	}
	resp, err := h.ventas.VentasPorProducto(c.Request.Context(), middleware.GetActor(c), id, f.Days)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cerrar closes the reports left open from previous days. Today's report is
// closed by the scheduled job once the day is over.
func (h *ReportesHandler) Cerrar(c *gin.Context) {
	ubic, ok := queryUbicacion(c)
	if !ok {
		return
	}
	resp, err := h.svc.CerrarPendientes(c.Request.Context(), middleware.GetActor(c), ubic)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReportesHandler) Actual(c *gin.Context) {
	ubic, ok := queryUbicacion(c)
	if !ok {
		return
	}
	resp, err := h.svc.Actual(c.Request.Context(), middleware.GetActor(c), ubic)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReportesHandler) Historial(c *gin.Context) {
	ubic, ok := queryUbicacion(c)
	if !ok {
		return
	}
	resp, err := h.svc.Historial(c.Request.Context(), middleware.GetActor(c), ubic)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReportesHandler) PorFecha(c *gin.Context) {
	ubic, ok := queryUbicacion(c)
	if !ok {
		return
	}
	resp, err := h.svc.PorFecha(c.Request.Context(), middleware.GetActor(c), c.Param("date"), ubic)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReportesHandler) PorRango(c *gin.Context) {
	var f dto.ReporteFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	ubic, ok := queryUbicacion(c)
	if !ok {
		return
	}
	resp, err := h.svc.PorRango(c.Request.Context(), middleware.GetActor(c), f.StartDate, f.EndDate, ubic)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReportesHandler) EstadisticasDiarias(c *gin.Context) {
	ubic, ok := queryUbicacion(c)
	if !ok {
		return
	}
	resp, err := h.svc.EstadisticasDiarias(c.Request.Context(), middleware.GetActor(c), ubic)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExportarExcel godoc
// @Summary Exportar reporte(s) a Excel
// @Description Con reportId exporta un reporte; sin él exige startDate y endDate.
// @Tags reportes
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param reportId path string false "UUID del reporte"
// @Param startDate query string false "YYYY-MM-DD"
// @Param endDate query string false "YYYY-MM-DD"
// @Success 200 {file} file
// @Router /reports/generate-excel/{reportId} [get]
func (h *ReportesHandler) ExportarExcel(c *gin.Context) {
	var reporteID *uuid.UUID
	if raw := c.Param("reportId"); raw != "" {
		id, ok := paramID(c, "reportId")
		if !ok {
			return
		}
		reporteID = &id
	}
	data, nombre, err := h.svc.ExportarExcel(c.Request.Context(), middleware.GetActor(c), reporteID, c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		respondError(c, err)
		return
	}
	sendAttachment(c, nombre, mimeXLSX, data)
}

func (h *ReportesHandler) ExportarPDF(c *gin.Context) {
	var req dto.ExportarPDFRequest
	if !bindAndValidate(c, &req) {
		return
	}
	var reporteID *uuid.UUID
	// a date range wins over reportId
	if req.ReportID != "" && (req.StartDate == "" || req.EndDate == "") {
		id := uuid.MustParse(req.ReportID)
		reporteID = &id
	}
	data, nombre, err := h.svc.ExportarPDF(c.Request.Context(), middleware.GetActor(c), reporteID, req.StartDate, req.EndDate)
	if err != nil {
		respondError(c, err)
		return
	}
	sendAttachment(c, nombre, "application/pdf", data)
}
