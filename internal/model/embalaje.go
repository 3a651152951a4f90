package model

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strings"
)

// TipoVenta is the packaging granularity of a sale or transfer line.
type TipoVenta string

const (
	TipoVentaUnidad  TipoVenta = "unit"
	TipoVentaBlister TipoVenta = "blister"
	TipoVentaCaja    TipoVenta = "box"
)

// Embalaje defines how many atomic units make a blister and how many blisters make a box.
// A zero factor means that packaging level is not used.
type Embalaje struct {
	UnidadesPorBlister int `gorm:"column:units_per_blister;not null;default:10" json:"unitsPerBlister"`
	BlistersPorCaja    int `gorm:"column:blisters_per_box;not null;default:10" json:"blistersPerBox"`
}

// EmbalajePorDefecto is applied to products created without packaging.
var EmbalajePorDefecto = Embalaje{UnidadesPorBlister: 10, BlistersPorCaja: 10}

// Unidades converts cantidad of tipo into atomic units. Sell options are not consulted here;
// use Producto.UnidadesPara for the checked conversion.
func (e Embalaje) Unidades(cantidad int, tipo TipoVenta) (int, error) {
	if cantidad <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrCantidadInvalida, cantidad)
	}
	switch tipo {
	case TipoVentaUnidad:
		return cantidad, nil
	case TipoVentaBlister:
		if e.UnidadesPorBlister <= 0 {
			return 0, fmt.Errorf("%w: unitsPerBlister es 0", ErrEmbalajeInvalido)
		}
		return multiplicar(cantidad, e.UnidadesPorBlister)
	case TipoVentaCaja:
		if e.UnidadesPorBlister <= 0 || e.BlistersPorCaja <= 0 {
			return 0, fmt.Errorf("%w: unitsPerBlister=%d blistersPerBox=%d",
				ErrEmbalajeInvalido, e.UnidadesPorBlister, e.BlistersPorCaja)
		}
		blisters, err := multiplicar(cantidad, e.BlistersPorCaja)
		if err != nil {
			return 0, err
		}
		return multiplicar(blisters, e.UnidadesPorBlister)
	}
	return 0, tipoNoPermitido(tipo)
}

// multiplicar rejects products that do not fit in an int instead of wrapping.
func multiplicar(cantidad, factor int) (int, error) {
	if cantidad > math.MaxInt/factor {
		return 0, fmt.Errorf("%w: %d x %d excede el maximo", ErrCantidadInvalida, cantidad, factor)
	}
	return cantidad * factor, nil
}

// Movimiento returns the counter delta for cantidad of tipo.
// Loose unit sales only touch Unidades; partial blisters are not tracked.
func (e Embalaje) Movimiento(cantidad int, tipo TipoVenta) (Stock, error) {
	unidades, err := e.Unidades(cantidad, tipo)
	if err != nil {
		return Stock{}, err
	}
	d := Stock{Unidades: unidades}
	switch tipo {
	case TipoVentaBlister:
		d.Blisters = cantidad
	case TipoVentaCaja:
		d.Cajas = cantidad
		// Unidades already proved cantidad*BlistersPorCaja fits
		d.Blisters = cantidad * e.BlistersPorCaja
	}
	return d, nil
}

// OpcionesVenta flags which sale types a product accepts.
type OpcionesVenta struct {
	Unidad  bool `gorm:"column:vende_unit;not null;default:true" json:"unit"`
	Blister bool `gorm:"column:vende_blister;not null;default:true" json:"blister"`
	Caja    bool `gorm:"column:vende_box;not null;default:true" json:"box"`
}

// Permite reports whether tipo is enabled.
func (o OpcionesVenta) Permite(tipo TipoVenta) bool {
	switch tipo {
	case TipoVentaUnidad:
		return o.Unidad
	case TipoVentaBlister:
		return o.Blister
	case TipoVentaCaja:
		return o.Caja
	}
	return false
}

// Vendible is true when at least one sale type is enabled.
func (o OpcionesVenta) Vendible() bool { return o.Unidad || o.Blister || o.Caja }

// Stock holds the three independently stored counters.
type Stock struct {
	Unidades int `gorm:"column:stock_units;not null;default:0" json:"units"`
	Blisters int `gorm:"column:stock_blisters;not null;default:0" json:"blisters"`
	Cajas    int `gorm:"column:stock_boxes;not null;default:0" json:"boxes"`
}

// Restar applies d as a deduction. The sufficiency guard only looks at Unidades.
func (s Stock) Restar(d Stock) (Stock, error) {
	if s.Unidades < d.Unidades {
		return s, &StockInsuficienteError{Solicitado: d.Unidades, Disponible: s.Unidades}
	}
	return Stock{
		Unidades: s.Unidades - d.Unidades,
		Blisters: s.Blisters - d.Blisters,
		Cajas:    s.Cajas - d.Cajas,
	}, nil
}

// Sumar applies d as an addition.
func (s Stock) Sumar(d Stock) Stock {
	return Stock{
		Unidades: s.Unidades + d.Unidades,
		Blisters: s.Blisters + d.Blisters,
		Cajas:    s.Cajas + d.Cajas,
	}
}

// Negativo reports whether any counter is below zero.
func (s Stock) Negativo() bool { return s.Unidades < 0 || s.Blisters < 0 || s.Cajas < 0 }

// ListaTipos is stored as a comma separated column.
type ListaTipos []string

func (l ListaTipos) Value() (driver.Value, error) {
	return strings.Join(l, ","), nil
}

func (l *ListaTipos) Scan(src any) error {
	var s string
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("ListaTipos: tipo no soportado %T", src)
	}
	if s == "" {
		*l = ListaTipos{}
		return nil
	}
	*l = strings.Split(s, ",")
	return nil
}

// Contiene reports whether any of tipos is present.
func (l ListaTipos) Contiene(tipos ...string) bool {
	for _, t := range l {
		for _, b := range tipos {
			if t == b {
				return true
			}
		}
	}
	return false
}
