package service

import (
	"context"
	"errors"
	"fmt"

	"farmapos/internal/dto"
	"farmapos/internal/model"
	"farmapos/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// TransferenciaService moves stock between locations. Each item commits on its own;
// a failed item is reported and does not undo the ones before it.
type TransferenciaService interface {
	Transferir(ctx context.Context, req dto.TransferenciaRequest) (*dto.TransferenciaResponse, error)
}

type transferenciaService struct {
	productoRepo  repository.ProductoRepository
	ubicacionRepo repository.UbicacionRepository
	inventario    InventarioService
	cache         productoCache
}

func NewTransferenciaService(
	productoRepo repository.ProductoRepository,
	ubicacionRepo repository.UbicacionRepository,
	inventario InventarioService,
	cache Cache,
) TransferenciaService {
	return &transferenciaService{
		productoRepo:  productoRepo,
		ubicacionRepo: ubicacionRepo,
		inventario:    inventario,
		cache:         productoCache{c: cache},
	}
}

func (s *transferenciaService) Transferir(ctx context.Context, req dto.TransferenciaRequest) (*dto.TransferenciaResponse, error) {
	origenID, err := parseID("sourceLocationId", req.SourceLocationID)
	if err != nil {
		return nil, err
	}
	destinoID, err := parseID("destLocationId", req.DestLocationID)
	if err != nil {
		return nil, err
	}
	if origenID == destinoID {
		return nil, fmt.Errorf("%w: origen y destino son la misma ubicación", model.ErrSolicitudInvalida)
	}
	origen, err := s.ubicacionRepo.FindByID(ctx, origenID)
	if err != nil {
		return nil, fmt.Errorf("ubicación de origen: %w", err)
	}
	destino, err := s.ubicacionRepo.FindByID(ctx, destinoID)
	if err != nil {
		return nil, fmt.Errorf("ubicación de destino: %w", err)
	}

	resp := &dto.TransferenciaResponse{Transferencias: make([]dto.ResumenTransferencia, 0, len(req.Items))}
	for _, item := range req.Items {
		resumen, err := s.transferirItem(ctx, origen, destino, item)
		if err != nil {
			log.Warn().Err(err).
				Str("producto_id", item.ProductID).
				Str("origen", origen.ID.String()).
				Str("destino", destino.ID.String()).
				Msg("transferencia de item fallida")
			resumen = dto.ResumenTransferencia{ProductID: item.ProductID, Error: err.Error()}
			resp.Fallidas++
		}
		resp.Transferencias = append(resp.Transferencias, resumen)
	}
	switch {
	case resp.Fallidas == 0:
		resp.Message = "Productos transferidos exitosamente"
	case resp.Fallidas == len(req.Items):
		resp.Message = "Ningún producto pudo ser transferido"
	default:
		resp.Message = "Transferencia completada parcialmente"
	}
	return resp, nil
}

func (s *transferenciaService) transferirItem(ctx context.Context, origen, destino *model.Ubicacion, item dto.ItemTransferenciaRequest) (dto.ResumenTransferencia, error) {
	pid, err := parseID("productId", item.ProductID)
	if err != nil {
		return dto.ResumenTransferencia{}, err
	}
	tipo := model.TipoVenta(item.SaleType)

	var (
		delta   model.Stock
		barcode string
	)
	err = runTx(ctx, s.productoRepo.DB(), func(tx *gorm.DB) error {
		p, err := s.productoRepo.FindByIDTx(ctx, tx, pid)
		if errors.Is(err, model.ErrNoEncontrado) || (err == nil && p.UbicacionID != origen.ID) {
			return model.ErrProductoNoEnOrigen
		}
		if err != nil {
			return err
		}
		barcode = p.Barcode
		if delta, err = p.Movimiento(item.Quantity, tipo); err != nil {
			return err
		}

		dest, err := s.productoRepo.FindEquivalenteTx(ctx, tx, p, destino.ID)
		if errors.Is(err, model.ErrNoEncontrado) {
			dest = p.ClonarPara(destino.ID)
			err = s.productoRepo.CreateTx(ctx, tx, dest)
		}
		if err != nil {
			return err
		}

		if _, err := s.inventario.DescontarTx(ctx, tx, p, item.Quantity, tipo, Movimiento{
			Tipo:         model.MovimientoTransferenciaSalida,
			Motivo:       "transferencia a " + destino.Nombre,
			ReferenciaID: &dest.ID,
		}); err != nil {
			return err
		}
		if _, err := s.inventario.AgregarTx(ctx, tx, dest.ID, delta, Movimiento{
			Tipo:         model.MovimientoTransferenciaEntrada,
			Motivo:       "transferencia desde " + origen.Nombre,
			ReferenciaID: &p.ID,
		}); err != nil {
			return err
		}

		if err := s.ubicacionRepo.DesasociarProductoTx(ctx, tx, origen.ID, p.ID); err != nil {
			return err
		}
		return s.ubicacionRepo.AsociarProductoTx(ctx, tx, destino.ID, dest.ID)
	})
	if err != nil {
		return dto.ResumenTransferencia{}, err
	}
	s.cache.invalidar(ctx, barcode)

	cantidad := &dto.CantidadTransferida{
		Blisters:      delta.Blisters,
		Cajas:         delta.Cajas,
		TotalUnidades: delta.Unidades,
	}
	if tipo == model.TipoVentaUnidad {
		cantidad.Unidades = item.Quantity
	}
	return dto.ResumenTransferencia{
		ProductID:           item.ProductID,
		Origen:              origen.Nombre,
		Destino:             destino.Nombre,
		CantidadTransferida: cantidad,
	}, nil
}
