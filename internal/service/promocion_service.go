package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"farmapos/internal/dto"
	"farmapos/internal/model"
	"farmapos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PromocionService interface {
	Crear(ctx context.Context, req dto.PromocionRequest) (*model.Promocion, error)
	Listar(ctx context.Context) ([]model.Promocion, error)
	Activas(ctx context.Context) ([]model.Promocion, error)
	PorProducto(ctx context.Context, productoID uuid.UUID) ([]model.Promocion, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.PromocionRequest) (*model.Promocion, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
	// Validar returns the active promotions a cart qualifies for.
	Validar(ctx context.Context, req dto.ValidarPromocionRequest) ([]model.Promocion, error)
}

type promocionService struct {
	repo repository.PromocionRepository
	now  func() time.Time
}

func NewPromocionService(repo repository.PromocionRepository) PromocionService {
	return &promocionService{repo: repo, now: time.Now}
}

// construir maps the request onto p, validating the variant fields for the promotion type.
func construir(p *model.Promocion, req dto.PromocionRequest) error {
	p.Nombre = strings.TrimSpace(req.Name)
	p.Descripcion = strings.TrimSpace(req.Description)
	p.Tipo = model.TipoPromocion(req.PromotionType)
	p.StartDate = req.StartDate
	p.EndDate = req.EndDate
	if p.StartDate.IsZero() {
		p.StartDate = time.Now()
	}
	if p.EndDate.IsZero() || p.EndDate.Before(p.StartDate) {
		return fmt.Errorf("%w: endDate debe ser posterior a startDate", model.ErrSolicitudInvalida)
	}
	p.IsActive = true
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	p.BuyQuantity, p.GetQuantity, p.DiscountValue = 0, 0, decimal.Zero
	switch p.Tipo {
	case model.PromocionNxM:
		if req.NxmConfig == nil {
			return fmt.Errorf("%w: nxmConfig requerido", model.ErrSolicitudInvalida)
		}
		p.BuyQuantity, p.GetQuantity = req.NxmConfig.BuyQuantity, req.NxmConfig.GetQuantity
	default:
		if req.DiscountValue == nil {
			return fmt.Errorf("%w: discountValue requerido", model.ErrSolicitudInvalida)
		}
		p.DiscountValue = *req.DiscountValue
	}
	if _, err := p.Regla(); err != nil {
		return err
	}

	p.Condiciones.MinimumPurchase = req.Conditions.MinimumPurchase
	p.Condiciones.MaxUses = req.Conditions.MaxUses

	vistos := make(map[uuid.UUID]bool, len(req.Products))
	p.Productos = p.Productos[:0]
	for _, pp := range req.Products {
		id, err := parseID("productId", pp.ProductID)
		if err != nil {
			return err
		}
		if vistos[id] {
			continue
		}
		vistos[id] = true
		minimo := pp.MinimumQuantity
		if minimo <= 0 {
			minimo = 1
		}
		p.Productos = append(p.Productos, model.PromocionProducto{PromocionID: p.ID, ProductoID: id, MinimumQuantity: minimo})
	}
	return nil
}

func (s *promocionService) Crear(ctx context.Context, req dto.PromocionRequest) (*model.Promocion, error) {
	p := &model.Promocion{}
	if err := construir(p, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *promocionService) Listar(ctx context.Context) ([]model.Promocion, error) {
	return s.repo.List(ctx)
}

func (s *promocionService) Activas(ctx context.Context) ([]model.Promocion, error) {
	return s.repo.ListVigentes(ctx, s.now(), nil)
}

func (s *promocionService) PorProducto(ctx context.Context, productoID uuid.UUID) ([]model.Promocion, error) {
	return s.repo.ListVigentes(ctx, s.now(), &productoID)
}

func (s *promocionService) Actualizar(ctx context.Context, id uuid.UUID, req dto.PromocionRequest) (*model.Promocion, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := construir(p, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *promocionService) Eliminar(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *promocionService) Validar(ctx context.Context, req dto.ValidarPromocionRequest) ([]model.Promocion, error) {
	cantidades := make(map[uuid.UUID]int, len(req.Products))
	for _, item := range req.Products {
		id, err := parseID("productId", item.ProductID)
		if err != nil {
			return nil, err
		}
		cantidades[id] += item.Quantity
	}
	vigentes, err := s.repo.ListVigentes(ctx, s.now(), nil)
	if err != nil {
		return nil, err
	}
	out := make([]model.Promocion, 0, len(vigentes))
	for i := range vigentes {
		if vigentes[i].Aplicable(req.Total, cantidades) {
			out = append(out, vigentes[i])
		}
	}
	return out, nil
}
