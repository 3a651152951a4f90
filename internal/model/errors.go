package model

import (
	"errors"
	"fmt"
)

var (
	ErrNoEncontrado         = errors.New("recurso no encontrado")
	ErrTipoVentaNoPermitido = errors.New("tipo de venta no permitido para este producto")
	ErrEmbalajeInvalido     = errors.New("embalaje inválido para el tipo de venta")
	ErrCantidadInvalida     = errors.New("la cantidad debe ser mayor a 0")
	ErrPrecioNoDisponible   = errors.New("precio no disponible")
	ErrSinPago              = errors.New("no se proporcionó ningún pago")
	ErrProductoNoEnOrigen   = errors.New("producto no encontrado en la ubicación de origen")
	ErrStockInsuficiente    = errors.New("stock insuficiente")
	ErrSolicitudInvalida    = errors.New("solicitud inválida")
	ErrPromocionNoAplicable = errors.New("promoción no aplicable")
	ErrSinPermiso           = errors.New("no tiene permiso para esta ubicación")
	ErrCredenciales         = errors.New("credenciales inválidas")
	ErrDuplicado            = errors.New("el recurso ya existe")
)

// StockInsuficienteError carries the requested and available atomic units.
type StockInsuficienteError struct {
	Producto   string
	Solicitado int
	Disponible int
}

func (e *StockInsuficienteError) Error() string {
	if e.Producto != "" {
		return fmt.Sprintf("stock insuficiente para %s: solicitado %d, disponible %d", e.Producto, e.Solicitado, e.Disponible)
	}
	return fmt.Sprintf("stock insuficiente: solicitado %d, disponible %d", e.Solicitado, e.Disponible)
}

func (e *StockInsuficienteError) Is(target error) bool { return target == ErrStockInsuficiente }

func tipoNoPermitido(tipo TipoVenta) error {
	return fmt.Errorf("%w: %q", ErrTipoVentaNoPermitido, tipo)
}
