package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"farmapos/internal/apierror"
	"farmapos/internal/middleware"
	"farmapos/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string)
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// respondError maps domain errors onto the API envelope. Anything unknown is
// logged with the request id and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	var stockErr *model.StockInsuficienteError
	switch {
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, apierror.NewStock(err.Error(), stockErr.Solicitado, stockErr.Disponible))
	case errors.Is(err, model.ErrNoEncontrado):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, model.ErrSinPermiso):
		c.JSON(http.StatusForbidden, apierror.New(err.Error()))
	case errors.Is(err, model.ErrCredenciales):
		c.JSON(http.StatusUnauthorized, apierror.New(err.Error()))
	case errors.Is(err, model.ErrDuplicado):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.Is(err, model.ErrSolicitudInvalida),
		errors.Is(err, model.ErrTipoVentaNoPermitido),
		errors.Is(err, model.ErrEmbalajeInvalido),
		errors.Is(err, model.ErrCantidadInvalida),
		errors.Is(err, model.ErrPrecioNoDisponible),
		errors.Is(err, model.ErrSinPago),
		errors.Is(err, model.ErrProductoNoEnOrigen),
		errors.Is(err, model.ErrPromocionNoAplicable):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	default:
		log.Error().
			Err(err).
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("path", c.FullPath()).
			Msg("internal error")
		c.JSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
	}
}

// paramID parses the :name path parameter. On failure it writes 400 and returns false.
func paramID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return uuid.Nil, false
	}
	return id, true
}

// queryUbicacion reads the optional ?ubicacion= filter.
func queryUbicacion(c *gin.Context) (*uuid.UUID, bool) {
	raw := c.Query("ubicacion")
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ubicacion invalida"))
		return nil, false
	}
	return &id, true
}

func sendAttachment(c *gin.Context, filename, mime string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, mime, data)
}
