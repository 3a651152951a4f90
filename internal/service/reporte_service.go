package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"farmapos/internal/dto"
	"farmapos/internal/infra"
	"farmapos/internal/model"
	"farmapos/internal/repository"
	"farmapos/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	limiteHistorial  = 30
	diasEstadisticas = 30
)

// ReporteService owns the daily report state machine (active → closed) and its projections.
type ReporteService interface {
	// ObtenerOCrearDiario returns the active report of ubicacionID for t's business day,
	// creating it when absent. creado is true only for the call that inserted it.
	ObtenerOCrearDiario(ctx context.Context, tx *gorm.DB, ubicacionID uuid.UUID, t time.Time) (rep *model.Reporte, creado bool, err error)
	// AgregarVentaTx persists v under rep and folds its totals into the report.
	AgregarVentaTx(ctx context.Context, tx *gorm.DB, rep *model.Reporte, v *model.Venta) error

	Crear(ctx context.Context, actor Actor, ubicacion *uuid.UUID) (*model.Reporte, error)
	Actual(ctx context.Context, actor Actor, ubicacion *uuid.UUID) (*model.Reporte, error)
	// CerrarPendientes closes the location's active reports from previous days.
	// Today's report stays open: a day has at most one report and closing is final.
	CerrarPendientes(ctx context.Context, actor Actor, ubicacion *uuid.UUID) ([]model.Reporte, error)
	Historial(ctx context.Context, actor Actor, ubicacion *uuid.UUID) ([]model.Reporte, error)
	// ObtenerPorID returns the report header; reports of other locations read as absent.
	ObtenerPorID(ctx context.Context, actor Actor, id uuid.UUID) (*model.Reporte, error)
	PorFecha(ctx context.Context, actor Actor, fecha string, ubicacion *uuid.UUID) (*model.Reporte, error)
	PorRango(ctx context.Context, actor Actor, desde, hasta string, ubicacion *uuid.UUID) ([]model.Reporte, error)
	EstadisticasDiarias(ctx context.Context, actor Actor, ubicacion *uuid.UUID) ([]dto.EstadisticaDiaria, error)

	// ExportarExcel renders one report (reporteID) or a date range into an xlsx workbook.
	ExportarExcel(ctx context.Context, actor Actor, reporteID *uuid.UUID, desde, hasta string) ([]byte, string, error)
	ExportarPDF(ctx context.Context, actor Actor, reporteID *uuid.UUID, desde, hasta string) ([]byte, string, error)
	// PDFReporte renders a single report without scoping; used by the email worker.
	PDFReporte(ctx context.Context, id uuid.UUID) ([]byte, string, error)

	// CerrarReportesVencidos closes every active report that started before today.
	// Reports without a location are skipped with a warning.
	CerrarReportesVencidos(ctx context.Context, now time.Time) (cerrados []uuid.UUID, omitidos int, err error)
	// AsegurarReportesDelDia creates today's report for every location that lacks one.
	AsegurarReportesDelDia(ctx context.Context, now time.Time) (int, error)
	// Housekeeping runs both scheduled steps and queues the closing emails.
	Housekeeping(ctx context.Context, now time.Time) (*dto.HousekeepingResult, error)
}

// ReporteConfig carries the business-day timezone and the optional recipient of closed-report PDFs.
type ReporteConfig struct {
	Loc          *time.Location
	EmailCierres string
}

type reporteService struct {
	repo          repository.ReporteRepository
	ventaRepo     repository.VentaRepository
	ubicacionRepo repository.UbicacionRepository
	dispatcher    *worker.Dispatcher
	cfg           ReporteConfig
	now           func() time.Time
}

func NewReporteService(
	repo repository.ReporteRepository,
	ventaRepo repository.VentaRepository,
	ubicacionRepo repository.UbicacionRepository,
	dispatcher *worker.Dispatcher,
	cfg ReporteConfig,
) ReporteService {
	if cfg.Loc == nil {
		cfg.Loc = time.Local
	}
	return &reporteService{
		repo:          repo,
		ventaRepo:     ventaRepo,
		ubicacionRepo: ubicacionRepo,
		dispatcher:    dispatcher,
		cfg:           cfg,
		now:           time.Now,
	}
}

func (s *reporteService) hoy() string {
	return s.now().In(s.cfg.Loc).Format(model.FormatoFecha)
}

// ── Estado ───────────────────────────────────────────────────────────────────

func (s *reporteService) ObtenerOCrearDiario(ctx context.Context, tx *gorm.DB, ubicacionID uuid.UUID, t time.Time) (*model.Reporte, bool, error) {
	nuevo := model.NuevoReporteDiario(ubicacionID, t, s.cfg.Loc)
	rep, err := s.repo.FindActivoTx(ctx, tx, ubicacionID, nuevo.Fecha)
	if err == nil {
		return rep, false, nil
	}
	if !errors.Is(err, model.ErrNoEncontrado) {
		return nil, false, err
	}
	creado, err := s.repo.CreateSiNoExisteTx(ctx, tx, nuevo)
	if err != nil {
		return nil, false, err
	}
	if creado {
		return nuevo, true, nil
	}
	// lost the race: another writer inserted it first
	rep, err = s.repo.FindActivoTx(ctx, tx, ubicacionID, nuevo.Fecha)
	if err != nil {
		return nil, false, fmt.Errorf("reporte diario %s: %w", nuevo.Fecha, err)
	}
	return rep, false, nil
}

func (s *reporteService) AgregarVentaTx(ctx context.Context, tx *gorm.DB, rep *model.Reporte, v *model.Venta) error {
	v.ReporteID = rep.ID
	v.TotalesPorPago = model.TotalesDePagos(v.Pagos)
	if err := s.ventaRepo.CreateTx(ctx, tx, v); err != nil {
		return err
	}
	if err := s.repo.AcumularTx(ctx, tx, rep.ID, v); err != nil {
		return fmt.Errorf("acumular venta en reporte %s: %w", rep.ID, err)
	}
	rep.AplicarVenta(*v)
	return nil
}

func (s *reporteService) CerrarReportesVencidos(ctx context.Context, now time.Time) ([]uuid.UUID, int, error) {
	inicio, _ := model.LimitesDelDia(now, s.cfg.Loc)
	activos, err := s.repo.ListActivosAntesDe(ctx, inicio)
	if err != nil {
		return nil, 0, err
	}
	var cerrados []uuid.UUID
	omitidos := 0
	for _, r := range activos {
		if r.UbicacionID == nil || r.Ubicacion == nil {
			log.Warn().Str("reporte_id", r.ID.String()).Msg("reporte sin ubicación, no se cierra")
			omitidos++
			continue
		}
		ok, err := s.repo.Cerrar(ctx, r.ID)
		if err != nil {
			log.Error().Err(err).Str("reporte_id", r.ID.String()).Msg("error cerrando reporte")
			continue
		}
		if ok {
			cerrados = append(cerrados, r.ID)
		}
	}
	return cerrados, omitidos, nil
}

func (s *reporteService) AsegurarReportesDelDia(ctx context.Context, now time.Time) (int, error) {
	ubicaciones, err := s.ubicacionRepo.List(ctx)
	if err != nil {
		return 0, err
	}
	creados := 0
	for _, u := range ubicaciones {
		_, creado, err := s.ObtenerOCrearDiario(ctx, nil, u.ID, now)
		if err != nil {
			log.Error().Err(err).Str("ubicacion_id", u.ID.String()).Msg("error creando reporte del día")
			continue
		}
		if creado {
			creados++
		}
	}
	return creados, nil
}

func (s *reporteService) Housekeeping(ctx context.Context, now time.Time) (*dto.HousekeepingResult, error) {
	cerrados, omitidos, err := s.CerrarReportesVencidos(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("cerrar reportes: %w", err)
	}
	creados, err := s.AsegurarReportesDelDia(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("asegurar reportes: %w", err)
	}
	s.notificarCierres(ctx, cerrados)
	return &dto.HousekeepingResult{Cerrados: len(cerrados), Omitidos: omitidos, Creados: creados}, nil
}

// notificarCierres enqueues the PDF email of each closed report when configured.
func (s *reporteService) notificarCierres(ctx context.Context, cerrados []uuid.UUID) {
	if s.dispatcher == nil || s.cfg.EmailCierres == "" {
		return
	}
	for _, id := range cerrados {
		job := worker.ReporteEmailJob{ReporteID: id.String(), To: s.cfg.EmailCierres}
		if err := s.dispatcher.EnqueueEmail(ctx, job); err != nil {
			log.Warn().Err(err).Str("reporte_id", id.String()).Msg("no se pudo encolar email de cierre")
		}
	}
}

// ── Endpoints ────────────────────────────────────────────────────────────────

func (s *reporteService) Crear(ctx context.Context, actor Actor, ubicacion *uuid.UUID) (*model.Reporte, error) {
	ubicID, err := actor.Ubicacion(ubicacion)
	if err != nil {
		return nil, err
	}
	rep, creado, err := s.ObtenerOCrearDiario(ctx, nil, ubicID, s.now())
	if err != nil {
		return nil, err
	}
	if creado {
		log.Info().Str("reporte_id", rep.ID.String()).Str("fecha", rep.Fecha).Msg("reporte diario creado")
	}
	return rep, nil
}

func (s *reporteService) Actual(ctx context.Context, actor Actor, ubicacion *uuid.UUID) (*model.Reporte, error) {
	ubicID, err := actor.Ubicacion(ubicacion)
	if err != nil {
		return nil, err
	}
	rep, err := s.repo.FindActivoTx(ctx, nil, ubicID, s.hoy())
	if err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, rep.ID, true)
}

func (s *reporteService) CerrarPendientes(ctx context.Context, actor Actor, ubicacion *uuid.UUID) ([]model.Reporte, error) {
	ubicID, err := actor.Ubicacion(ubicacion)
	if err != nil {
		return nil, err
	}
	inicio, _ := model.LimitesDelDia(s.now(), s.cfg.Loc)
	activos, err := s.repo.ListActivosAntesDe(ctx, inicio)
	if err != nil {
		return nil, err
	}
	cerrados := []model.Reporte{}
	var ids []uuid.UUID
	for _, r := range activos {
		if r.UbicacionID == nil || *r.UbicacionID != ubicID {
			continue
		}
		ok, err := s.repo.Cerrar(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		if ok {
			r.Status = model.ReporteCerrado
			cerrados = append(cerrados, r)
			ids = append(ids, r.ID)
		}
	}
	s.notificarCierres(ctx, ids)
	return cerrados, nil
}

func (s *reporteService) Historial(ctx context.Context, actor Actor, ubicacion *uuid.UUID) ([]model.Reporte, error) {
	filtro, err := actor.Filtro(ubicacion)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, repository.ReporteQuery{
		UbicacionID: filtro,
		Status:      model.ReporteCerrado,
		Limit:       limiteHistorial,
		OrdenDesc:   true,
	})
}

func (s *reporteService) ObtenerPorID(ctx context.Context, actor Actor, id uuid.UUID) (*model.Reporte, error) {
	rep, err := s.repo.FindByID(ctx, id, false)
	if err != nil {
		return nil, err
	}
	if !actor.EsAdmin() && (rep.UbicacionID == nil || !actor.Puede(*rep.UbicacionID)) {
		return nil, fmt.Errorf("reporte %s: %w", id, model.ErrNoEncontrado)
	}
	return rep, nil
}

func (s *reporteService) PorFecha(ctx context.Context, actor Actor, fecha string, ubicacion *uuid.UUID) (*model.Reporte, error) {
	if _, err := time.Parse(model.FormatoFecha, fecha); err != nil {
		return nil, fmt.Errorf("%w: fecha %q", model.ErrSolicitudInvalida, fecha)
	}
	filtro, err := actor.Filtro(ubicacion)
	if err != nil {
		return nil, err
	}
	reps, err := s.repo.List(ctx, repository.ReporteQuery{
		UbicacionID: filtro,
		Desde:       fecha,
		Hasta:       fecha,
		ConVentas:   true,
		Limit:       1,
	})
	if err != nil {
		return nil, err
	}
	if len(reps) == 0 {
		return nil, model.ErrNoEncontrado
	}
	return &reps[0], nil
}

func (s *reporteService) PorRango(ctx context.Context, actor Actor, desde, hasta string, ubicacion *uuid.UUID) ([]model.Reporte, error) {
	if err := validarRango(desde, hasta); err != nil {
		return nil, err
	}
	filtro, err := actor.Filtro(ubicacion)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, repository.ReporteQuery{
		UbicacionID: filtro,
		Desde:       desde,
		Hasta:       hasta,
		ConVentas:   true,
	})
}

func (s *reporteService) EstadisticasDiarias(ctx context.Context, actor Actor, ubicacion *uuid.UUID) ([]dto.EstadisticaDiaria, error) {
	filtro, err := actor.Filtro(ubicacion)
	if err != nil {
		return nil, err
	}
	hoy := s.now().In(s.cfg.Loc)
	reps, err := s.repo.List(ctx, repository.ReporteQuery{
		UbicacionID: filtro,
		Status:      model.ReporteCerrado,
		Desde:       hoy.AddDate(0, 0, -diasEstadisticas).Format(model.FormatoFecha),
		Hasta:       hoy.Format(model.FormatoFecha),
		ConVentas:   true,
	})
	if err != nil {
		return nil, err
	}
	return agruparPorDia(reps), nil
}

func agruparPorDia(reps []model.Reporte) []dto.EstadisticaDiaria {
	porDia := make(map[string]*dto.EstadisticaDiaria)
	for _, r := range reps {
		e, ok := porDia[r.Fecha]
		if !ok {
			e = &dto.EstadisticaDiaria{
				Fecha:         r.Fecha,
				TotalSales:    decimal.Zero,
				Efectivo:      decimal.Zero,
				TC:            decimal.Zero,
				Transferencia: decimal.Zero,
			}
			porDia[r.Fecha] = e
		}
		e.TotalSales = e.TotalSales.Add(r.TotalSales)
		e.TotalProducts += r.TotalProducts
		e.Ventas += len(r.Ventas)
		e.Efectivo = e.Efectivo.Add(r.TotalesPorPago.Efectivo)
		e.TC = e.TC.Add(r.TotalesPorPago.TC)
		e.Transferencia = e.Transferencia.Add(r.TotalesPorPago.Transferencia)
	}
	out := make([]dto.EstadisticaDiaria, 0, len(porDia))
	for _, e := range porDia {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fecha < out[j].Fecha })
	return out
}

func validarRango(desde, hasta string) error {
	if desde == "" || hasta == "" {
		return fmt.Errorf("%w: startDate y endDate son requeridos", model.ErrSolicitudInvalida)
	}
	d, err := time.Parse(model.FormatoFecha, desde)
	if err != nil {
		return fmt.Errorf("%w: startDate %q", model.ErrSolicitudInvalida, desde)
	}
	h, err := time.Parse(model.FormatoFecha, hasta)
	if err != nil {
		return fmt.Errorf("%w: endDate %q", model.ErrSolicitudInvalida, hasta)
	}
	if h.Before(d) {
		return fmt.Errorf("%w: endDate anterior a startDate", model.ErrSolicitudInvalida)
	}
	return nil
}

// ── Exportación ──────────────────────────────────────────────────────────────

// seleccion resolves the reports an export covers and a file stem for it.
func (s *reporteService) seleccion(ctx context.Context, actor Actor, reporteID *uuid.UUID, desde, hasta string) ([]model.Reporte, string, error) {
	if reporteID != nil {
		rep, err := s.repo.FindByID(ctx, *reporteID, true)
		if err != nil {
			return nil, "", err
		}
		if rep.UbicacionID != nil && !actor.Puede(*rep.UbicacionID) {
			return nil, "", model.ErrSinPermiso
		}
		return []model.Reporte{*rep}, "reporte-" + rep.Fecha, nil
	}
	reps, err := s.PorRango(ctx, actor, desde, hasta, nil)
	if err != nil {
		return nil, "", err
	}
	if len(reps) == 0 {
		return nil, "", fmt.Errorf("%w: no hay reportes en el rango", model.ErrNoEncontrado)
	}
	return reps, fmt.Sprintf("reporte-rango-%s_a_%s", desde, hasta), nil
}

func (s *reporteService) ExportarExcel(ctx context.Context, actor Actor, reporteID *uuid.UUID, desde, hasta string) ([]byte, string, error) {
	reps, nombre, err := s.seleccion(ctx, actor, reporteID, desde, hasta)
	if err != nil {
		return nil, "", err
	}
	data, err := infra.ReportesExcel(reps, s.cfg.Loc)
	if err != nil {
		return nil, "", fmt.Errorf("excel: %w", err)
	}
	return data, nombre + ".xlsx", nil
}

func (s *reporteService) ExportarPDF(ctx context.Context, actor Actor, reporteID *uuid.UUID, desde, hasta string) ([]byte, string, error) {
	reps, nombre, err := s.seleccion(ctx, actor, reporteID, desde, hasta)
	if err != nil {
		return nil, "", err
	}
	titulo := "Reporte de Ventas - Resumen"
	if reporteID == nil {
		titulo = "Reporte de Ventas - Rango de Fechas"
	}
	data, err := infra.ReportesPDF(reps, titulo, s.cfg.Loc)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: %w", err)
	}
	return data, nombre + ".pdf", nil
}

func (s *reporteService) PDFReporte(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	rep, err := s.repo.FindByID(ctx, id, true)
	if err != nil {
		return nil, "", err
	}
	data, err := infra.ReportesPDF([]model.Reporte{*rep}, "Reporte de Ventas - Cierre", s.cfg.Loc)
	if err != nil {
		return nil, "", err
	}
	return data, "reporte-" + rep.Fecha + ".pdf", nil
}
