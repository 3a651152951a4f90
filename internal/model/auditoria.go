package model

import "github.com/google/uuid"

// AuditoriaStock compares the stored counters against what the packaging ratio implies.
// Counters are never rewritten from this; it only reports drift.
type AuditoriaStock struct {
	ProductoID        uuid.UUID `json:"productId"`
	Nombre            string    `json:"name"`
	Stock             Stock     `json:"stock"`
	BlistersEsperados int       `json:"expectedBlisters"`
	CajasEsperadas    int       `json:"expectedBoxes"`
	DesvioBlisters    int       `json:"blisterDrift"`
	DesvioCajas       int       `json:"boxDrift"`
	Consistente       bool      `json:"consistent"`
}

// Auditar computes the expected blister and box counts as the number of
// (possibly partial) packages needed to hold the units actually in stock.
func (p *Producto) Auditar() AuditoriaStock {
	a := AuditoriaStock{ProductoID: p.ID, Nombre: p.Nombre, Stock: p.Stock}
	s, e := p.Stock, p.Embalaje

	a.BlistersEsperados = s.Blisters
	if e.UnidadesPorBlister > 0 {
		a.BlistersEsperados = techo(s.Unidades, e.UnidadesPorBlister)
	}
	a.CajasEsperadas = s.Cajas
	if e.BlistersPorCaja > 0 {
		a.CajasEsperadas = techo(a.BlistersEsperados, e.BlistersPorCaja)
	}
	a.DesvioBlisters = s.Blisters - a.BlistersEsperados
	a.DesvioCajas = s.Cajas - a.CajasEsperadas
	a.Consistente = !s.Negativo() && a.DesvioBlisters == 0 && a.DesvioCajas == 0
	return a
}

func techo(n, d int) int {
	if n <= 0 {
		return 0
	}
	return (n + d - 1) / d
}
