package service

import (
	"context"
	"testing"

	"farmapos/internal/dto"
	"farmapos/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transferenciaEnv struct {
	origen, destino *model.Ubicacion
	productos       *stubProductoRepo
	ubicaciones     *stubUbicacionRepo
	movs            *stubMovimientoRepo
	svc             TransferenciaService
}

func newTransferenciaEnv(productos ...*model.Producto) *transferenciaEnv {
	env := &transferenciaEnv{
		origen:  &model.Ubicacion{ID: uuid.New(), Nombre: "Central"},
		destino: &model.Ubicacion{ID: uuid.New(), Nombre: "Norte"},
		movs:    &stubMovimientoRepo{},
	}
	for _, p := range productos {
		if p.UbicacionID == uuid.Nil {
			p.UbicacionID = env.origen.ID
		}
	}
	env.productos = newStubProductoRepo(productos...)
	env.ubicaciones = newStubUbicacionRepo(env.origen, env.destino)
	inventario := NewInventarioService(env.productos, env.movs, nil)
	env.svc = NewTransferenciaService(env.productos, env.ubicaciones, inventario, nil)
	return env
}

func (e *transferenciaEnv) request(items ...dto.ItemTransferenciaRequest) dto.TransferenciaRequest {
	return dto.TransferenciaRequest{
		SourceLocationID: e.origen.ID.String(),
		DestLocationID:   e.destino.ID.String(),
		Items:            items,
	}
}

func TestTransferir_ClonaEnDestino(t *testing.T) {
	p := nuevoProducto(uuid.Nil, "900", model.Stock{Unidades: 100, Blisters: 10, Cajas: 1})
	env := newTransferenciaEnv(p)

	resp, err := env.svc.Transferir(context.Background(), env.request(
		dto.ItemTransferenciaRequest{ProductID: p.ID.String(), Quantity: 3, SaleType: "blister"},
	))
	require.NoError(t, err)
	assert.Zero(t, resp.Fallidas)
	assert.Equal(t, "Productos transferidos exitosamente", resp.Message)

	require.Len(t, resp.Transferencias, 1)
	r := resp.Transferencias[0]
	assert.Equal(t, "Central", r.Origen)
	assert.Equal(t, "Norte", r.Destino)
	assert.Equal(t, &dto.CantidadTransferida{Blisters: 3, TotalUnidades: 30}, r.CantidadTransferida)

	assert.Equal(t, model.Stock{Unidades: 70, Blisters: 7, Cajas: 1}, env.productos.productos[p.ID].Stock)

	require.Len(t, env.productos.creados, 1)
	clon := env.productos.creados[0]
	assert.Equal(t, env.destino.ID, clon.UbicacionID)
	assert.Equal(t, p.Barcode, clon.Barcode)
	assert.Equal(t, model.Stock{Unidades: 30, Blisters: 3}, env.productos.productos[clon.ID].Stock)

	assert.True(t, env.ubicaciones.productos[env.destino.ID][clon.ID])
	assert.False(t, env.ubicaciones.productos[env.origen.ID][p.ID])

	require.Len(t, env.movs.movimientos, 2)
	assert.Equal(t, model.MovimientoTransferenciaSalida, env.movs.movimientos[0].Tipo)
	assert.Equal(t, model.MovimientoTransferenciaEntrada, env.movs.movimientos[1].Tipo)
}

func TestTransferir_ReutilizaEquivalente(t *testing.T) {
	p := nuevoProducto(uuid.Nil, "901", model.Stock{Unidades: 50})
	env := newTransferenciaEnv(p)
	existente := p.ClonarPara(env.destino.ID)
	existente.ID = uuid.New()
	existente.Stock = model.Stock{Unidades: 4}
	env.productos.productos[existente.ID] = existente

	resp, err := env.svc.Transferir(context.Background(), env.request(
		dto.ItemTransferenciaRequest{ProductID: p.ID.String(), Quantity: 6, SaleType: "unit"},
	))
	require.NoError(t, err)
	assert.Equal(t, 6, resp.Transferencias[0].CantidadTransferida.Unidades)
	assert.Empty(t, env.productos.creados)
	assert.Equal(t, 10, env.productos.productos[existente.ID].Stock.Unidades)
	assert.Equal(t, 44, env.productos.productos[p.ID].Stock.Unidades)
}

func TestTransferir_FalloParcial(t *testing.T) {
	ok := nuevoProducto(uuid.Nil, "902", model.Stock{Unidades: 100, Blisters: 10, Cajas: 1})
	corto := nuevoProducto(uuid.Nil, "903", model.Stock{Unidades: 5})
	ajeno := nuevoProducto(uuid.New(), "904", model.Stock{Unidades: 100})
	env := newTransferenciaEnv(ok, corto, ajeno)

	resp, err := env.svc.Transferir(context.Background(), env.request(
		dto.ItemTransferenciaRequest{ProductID: ok.ID.String(), Quantity: 1, SaleType: "box"},
		dto.ItemTransferenciaRequest{ProductID: corto.ID.String(), Quantity: 1, SaleType: "blister"},
		dto.ItemTransferenciaRequest{ProductID: ajeno.ID.String(), Quantity: 1, SaleType: "unit"},
	))
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Fallidas)
	assert.Equal(t, "Transferencia completada parcialmente", resp.Message)
	require.Len(t, resp.Transferencias, 3)

	assert.Empty(t, resp.Transferencias[0].Error)
	assert.Equal(t, &dto.CantidadTransferida{Cajas: 1, Blisters: 10, TotalUnidades: 100}, resp.Transferencias[0].CantidadTransferida)
	assert.Equal(t, model.Stock{}, env.productos.productos[ok.ID].Stock)

	assert.Contains(t, resp.Transferencias[1].Error, "stock insuficiente")
	assert.Equal(t, 5, env.productos.productos[corto.ID].Stock.Unidades)

	assert.Equal(t, model.ErrProductoNoEnOrigen.Error(), resp.Transferencias[2].Error)
	assert.Equal(t, 100, env.productos.productos[ajeno.ID].Stock.Unidades)
}

func TestTransferir_Validaciones(t *testing.T) {
	env := newTransferenciaEnv()
	ctx := context.Background()

	req := env.request(dto.ItemTransferenciaRequest{ProductID: uuid.NewString(), Quantity: 1, SaleType: "unit"})
	req.DestLocationID = req.SourceLocationID
	_, err := env.svc.Transferir(ctx, req)
	assert.ErrorIs(t, err, model.ErrSolicitudInvalida)

	req = env.request(dto.ItemTransferenciaRequest{ProductID: uuid.NewString(), Quantity: 1, SaleType: "unit"})
	req.DestLocationID = uuid.NewString()
	_, err = env.svc.Transferir(ctx, req)
	assert.ErrorIs(t, err, model.ErrNoEncontrado)

	resp, err := env.svc.Transferir(ctx, env.request(dto.ItemTransferenciaRequest{ProductID: uuid.NewString(), Quantity: 1, SaleType: "unit"}))
	require.NoError(t, err)
	assert.Equal(t, "Ningún producto pudo ser transferido", resp.Message)
}
