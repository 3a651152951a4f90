package service

import (
	"context"
	"slices"
	"sort"
	"time"

	"farmapos/internal/model"
	"farmapos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────
// In-memory repositories. DB() returns nil so runTx calls fn(nil) directly.

type stubProductoRepo struct {
	productos map[uuid.UUID]*model.Producto
	creados   []*model.Producto
}

func newStubProductoRepo(ps ...*model.Producto) *stubProductoRepo {
	r := &stubProductoRepo{productos: make(map[uuid.UUID]*model.Producto)}
	for _, p := range ps {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		r.productos[p.ID] = p
	}
	return r
}

func (r *stubProductoRepo) DB() *gorm.DB { return nil }

func (r *stubProductoRepo) CreateTx(_ context.Context, _ *gorm.DB, p *model.Producto) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.productos[p.ID] = p
	r.creados = append(r.creados, p)
	return nil
}

func (r *stubProductoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	return r.FindByIDTx(ctx, nil, id)
}

func (r *stubProductoRepo) FindByIDTx(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	p, ok := r.productos[id]
	if !ok {
		return nil, model.ErrNoEncontrado
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductoRepo) FindByBarcode(_ context.Context, barcode string, ubicaciones []uuid.UUID) ([]model.Producto, error) {
	var out []model.Producto
	for _, p := range r.ordenados() {
		if p.Barcode == barcode && enUbicaciones(p.UbicacionID, ubicaciones) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductoRepo) List(_ context.Context, q repository.ProductoQuery) ([]model.Producto, error) {
	var out []model.Producto
	for _, p := range r.ordenados() {
		if !enUbicaciones(p.UbicacionID, q.UbicacionIDs) {
			continue
		}
		if q.Barcode != "" && p.Barcode != q.Barcode {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *stubProductoRepo) UpdateTx(_ context.Context, _ *gorm.DB, p *model.Producto) error {
	if _, ok := r.productos[p.ID]; !ok {
		return model.ErrNoEncontrado
	}
	cp := *p
	r.productos[p.ID] = &cp
	return nil
}

func (r *stubProductoRepo) DeleteTx(_ context.Context, _ *gorm.DB, id uuid.UUID) error {
	delete(r.productos, id)
	return nil
}

func (r *stubProductoRepo) FindEquivalenteTx(_ context.Context, _ *gorm.DB, p *model.Producto, ubicacionID uuid.UUID) (*model.Producto, error) {
	for _, q := range r.productos {
		if q.UbicacionID == ubicacionID && q.Barcode == p.Barcode && q.Nombre == p.Nombre &&
			q.PharmaceuticalCompany == p.PharmaceuticalCompany && q.ExpirationDate.Equal(p.ExpirationDate) {
			cp := *q
			return &cp, nil
		}
	}
	return nil, model.ErrNoEncontrado
}

func (r *stubProductoRepo) MoverStockTx(_ context.Context, _ *gorm.DB, id uuid.UUID, delta model.Stock) (model.Stock, bool, error) {
	p, ok := r.productos[id]
	if !ok || p.Stock.Unidades+delta.Unidades < 0 {
		return model.Stock{}, false, nil
	}
	p.Stock = p.Stock.Sumar(delta)
	return p.Stock, true, nil
}

func (r *stubProductoRepo) FijarStockTx(_ context.Context, _ *gorm.DB, id uuid.UUID, s model.Stock) (model.Stock, error) {
	p, ok := r.productos[id]
	if !ok {
		return model.Stock{}, model.ErrNoEncontrado
	}
	anterior := p.Stock
	p.Stock = s
	return anterior, nil
}

func (r *stubProductoRepo) ordenados() []*model.Producto {
	out := make([]*model.Producto, 0, len(r.productos))
	for _, p := range r.productos {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out
}

func enUbicaciones(id uuid.UUID, ubicaciones []uuid.UUID) bool {
	if len(ubicaciones) == 0 {
		return true
	}
	for _, u := range ubicaciones {
		if u == id {
			return true
		}
	}
	return false
}

var _ repository.ProductoRepository = (*stubProductoRepo)(nil)

type stubMovimientoRepo struct {
	movimientos []model.MovimientoStock
	// ubicaciones resolves a product's location for scoped listings
	ubicaciones map[uuid.UUID]uuid.UUID
}

func (r *stubMovimientoRepo) CreateTx(_ context.Context, _ *gorm.DB, m *model.MovimientoStock) error {
	r.movimientos = append(r.movimientos, *m)
	return nil
}

func (r *stubMovimientoRepo) List(_ context.Context, f repository.MovimientoQuery) ([]model.MovimientoStock, int64, error) {
	var out []model.MovimientoStock
	for _, m := range r.movimientos {
		if f.UbicacionIDs != nil && !slices.Contains(f.UbicacionIDs, r.ubicaciones[m.ProductoID]) {
			continue
		}
		if f.ProductoID != nil && m.ProductoID != *f.ProductoID {
			continue
		}
		if f.Tipo != "" && m.Tipo != f.Tipo {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

var _ repository.MovimientoStockRepository = (*stubMovimientoRepo)(nil)

type stubHistoricoRepo struct {
	registros []model.HistoricoProducto
}

func (r *stubHistoricoRepo) CreateTx(_ context.Context, _ *gorm.DB, h *model.HistoricoProducto) error {
	r.registros = append(r.registros, *h)
	return nil
}

func (r *stubHistoricoRepo) List(_ context.Context, _ repository.HistoricoQuery) ([]model.HistoricoProducto, error) {
	return r.registros, nil
}

var _ repository.HistoricoRepository = (*stubHistoricoRepo)(nil)

type stubPromocionRepo struct {
	promos map[uuid.UUID]*model.Promocion
}

func newStubPromocionRepo(ps ...*model.Promocion) *stubPromocionRepo {
	r := &stubPromocionRepo{promos: make(map[uuid.UUID]*model.Promocion)}
	for _, p := range ps {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		r.promos[p.ID] = p
	}
	return r
}

func (r *stubPromocionRepo) Create(_ context.Context, p *model.Promocion) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.promos[p.ID] = p
	return nil
}

func (r *stubPromocionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Promocion, error) {
	p, ok := r.promos[id]
	if !ok {
		return nil, model.ErrNoEncontrado
	}
	cp := *p
	return &cp, nil
}

func (r *stubPromocionRepo) List(_ context.Context) ([]model.Promocion, error) {
	out := make([]model.Promocion, 0, len(r.promos))
	for _, p := range r.promos {
		out = append(out, *p)
	}
	return out, nil
}

func (r *stubPromocionRepo) ListVigentes(_ context.Context, t time.Time, productoID *uuid.UUID) ([]model.Promocion, error) {
	var out []model.Promocion
	for _, p := range r.promos {
		if !p.Vigente(t) {
			continue
		}
		if productoID != nil && !p.IncluyeProducto(*productoID) {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *stubPromocionRepo) Update(_ context.Context, p *model.Promocion) error {
	if _, ok := r.promos[p.ID]; !ok {
		return model.ErrNoEncontrado
	}
	r.promos[p.ID] = p
	return nil
}

func (r *stubPromocionRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.promos[id]; !ok {
		return model.ErrNoEncontrado
	}
	delete(r.promos, id)
	return nil
}

func (r *stubPromocionRepo) IncrementarUsoTx(_ context.Context, _ *gorm.DB, id uuid.UUID) (bool, error) {
	p, ok := r.promos[id]
	if !ok {
		return false, model.ErrNoEncontrado
	}
	if p.AgotadoUso() {
		return false, nil
	}
	p.Condiciones.UsedCount++
	return true, nil
}

var _ repository.PromocionRepository = (*stubPromocionRepo)(nil)

// stubReporteRepo keys active reports by (ubicacion, fecha) like the partial unique index.
type stubReporteRepo struct {
	reportes map[uuid.UUID]*model.Reporte
	ventas   *stubVentaRepo
}

func newStubReporteRepo(ventas *stubVentaRepo) *stubReporteRepo {
	return &stubReporteRepo{reportes: make(map[uuid.UUID]*model.Reporte), ventas: ventas}
}

func (r *stubReporteRepo) DB() *gorm.DB { return nil }

func (r *stubReporteRepo) agregar(rep *model.Reporte) *model.Reporte {
	if rep.ID == uuid.Nil {
		rep.ID = uuid.New()
	}
	r.reportes[rep.ID] = rep
	return rep
}

func (r *stubReporteRepo) FindActivoTx(_ context.Context, _ *gorm.DB, ubicacionID uuid.UUID, fecha string) (*model.Reporte, error) {
	for _, rep := range r.reportes {
		if rep.UbicacionID != nil && *rep.UbicacionID == ubicacionID && rep.Fecha == fecha && rep.Status == model.ReporteActivo {
			cp := *rep
			return &cp, nil
		}
	}
	return nil, model.ErrNoEncontrado
}

func (r *stubReporteRepo) CreateSiNoExisteTx(ctx context.Context, tx *gorm.DB, rep *model.Reporte) (bool, error) {
	if _, err := r.FindActivoTx(ctx, tx, *rep.UbicacionID, rep.Fecha); err == nil {
		return false, nil
	}
	cp := *r.agregar(rep)
	r.reportes[rep.ID] = &cp
	return true, nil
}

func (r *stubReporteRepo) AcumularTx(_ context.Context, _ *gorm.DB, reporteID uuid.UUID, v *model.Venta) error {
	rep, ok := r.reportes[reporteID]
	if !ok || rep.Status != model.ReporteActivo {
		return model.ErrNoEncontrado
	}
	rep.TotalSales = rep.TotalSales.Add(v.Total)
	rep.TotalProducts += v.UnidadesVendidas()
	rep.TotalesPorPago = rep.TotalesPorPago.Sumar(v.TotalesPorPago)
	return nil
}

func (r *stubReporteRepo) FindByID(_ context.Context, id uuid.UUID, conVentas bool) (*model.Reporte, error) {
	rep, ok := r.reportes[id]
	if !ok {
		return nil, model.ErrNoEncontrado
	}
	cp := *rep
	if conVentas && r.ventas != nil {
		cp.Ventas = r.ventas.delReporte(id)
	}
	return &cp, nil
}

func (r *stubReporteRepo) List(_ context.Context, q repository.ReporteQuery) ([]model.Reporte, error) {
	var out []model.Reporte
	for _, rep := range r.reportes {
		if q.UbicacionID != nil && (rep.UbicacionID == nil || *rep.UbicacionID != *q.UbicacionID) {
			continue
		}
		if q.Status != "" && rep.Status != q.Status {
			continue
		}
		if q.Desde != "" && rep.Fecha < q.Desde {
			continue
		}
		if q.Hasta != "" && rep.Fecha > q.Hasta {
			continue
		}
		cp := *rep
		if q.ConVentas && r.ventas != nil {
			cp.Ventas = r.ventas.delReporte(rep.ID)
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if q.OrdenDesc {
			return out[i].Fecha > out[j].Fecha
		}
		return out[i].Fecha < out[j].Fecha
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r *stubReporteRepo) ListActivosAntesDe(_ context.Context, t time.Time) ([]model.Reporte, error) {
	var out []model.Reporte
	for _, rep := range r.reportes {
		if rep.Status == model.ReporteActivo && rep.StartDate.Before(t) {
			cp := *rep
			if rep.UbicacionID != nil {
				cp.Ubicacion = &model.Ubicacion{ID: *rep.UbicacionID}
			}
			out = append(out, cp)
		}
	}
	return out, nil
}

func (r *stubReporteRepo) Cerrar(_ context.Context, id uuid.UUID) (bool, error) {
	rep, ok := r.reportes[id]
	if !ok || rep.Status != model.ReporteActivo {
		return false, nil
	}
	rep.Status = model.ReporteCerrado
	return true, nil
}

var _ repository.ReporteRepository = (*stubReporteRepo)(nil)

type stubVentaRepo struct {
	ventas []*model.Venta
}

func (r *stubVentaRepo) CreateTx(_ context.Context, _ *gorm.DB, v *model.Venta) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	cp := *v
	r.ventas = append(r.ventas, &cp)
	return nil
}

func (r *stubVentaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Venta, error) {
	for _, v := range r.ventas {
		if v.ID == id {
			cp := *v
			return &cp, nil
		}
	}
	return nil, model.ErrNoEncontrado
}

func (r *stubVentaRepo) ListByProducto(_ context.Context, productoID uuid.UUID, desde time.Time) ([]model.Venta, error) {
	var out []model.Venta
	for i := len(r.ventas) - 1; i >= 0; i-- {
		v := r.ventas[i]
		if v.CreatedAt.Before(desde) {
			continue
		}
		for _, it := range v.Items {
			if it.ProductoID == productoID {
				out = append(out, *v)
				break
			}
		}
	}
	return out, nil
}

func (r *stubVentaRepo) delReporte(id uuid.UUID) []model.Venta {
	var out []model.Venta
	for _, v := range r.ventas {
		if v.ReporteID == id {
			out = append(out, *v)
		}
	}
	return out
}

var _ repository.VentaRepository = (*stubVentaRepo)(nil)

type stubUbicacionRepo struct {
	ubicaciones map[uuid.UUID]*model.Ubicacion
	productos   map[uuid.UUID]map[uuid.UUID]bool
}

func newStubUbicacionRepo(us ...*model.Ubicacion) *stubUbicacionRepo {
	r := &stubUbicacionRepo{
		ubicaciones: make(map[uuid.UUID]*model.Ubicacion),
		productos:   make(map[uuid.UUID]map[uuid.UUID]bool),
	}
	for _, u := range us {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		r.ubicaciones[u.ID] = u
	}
	return r
}

func (r *stubUbicacionRepo) Create(_ context.Context, u *model.Ubicacion) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.ubicaciones[u.ID] = u
	return nil
}

func (r *stubUbicacionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Ubicacion, error) {
	u, ok := r.ubicaciones[id]
	if !ok {
		return nil, model.ErrNoEncontrado
	}
	cp := *u
	for pid := range r.productos[id] {
		cp.ProductosAsociados = append(cp.ProductosAsociados, pid)
	}
	return &cp, nil
}

func (r *stubUbicacionRepo) List(_ context.Context) ([]model.Ubicacion, error) {
	out := make([]model.Ubicacion, 0, len(r.ubicaciones))
	for _, u := range r.ubicaciones {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nombre < out[j].Nombre })
	return out, nil
}

func (r *stubUbicacionRepo) Update(_ context.Context, u *model.Ubicacion) error {
	if _, ok := r.ubicaciones[u.ID]; !ok {
		return model.ErrNoEncontrado
	}
	r.ubicaciones[u.ID] = u
	return nil
}

func (r *stubUbicacionRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.ubicaciones[id]; !ok {
		return model.ErrNoEncontrado
	}
	delete(r.ubicaciones, id)
	return nil
}

func (r *stubUbicacionRepo) AsociarProductoTx(_ context.Context, _ *gorm.DB, ubicacionID, productoID uuid.UUID) error {
	if r.productos[ubicacionID] == nil {
		r.productos[ubicacionID] = make(map[uuid.UUID]bool)
	}
	r.productos[ubicacionID][productoID] = true
	return nil
}

func (r *stubUbicacionRepo) DesasociarProductoTx(_ context.Context, _ *gorm.DB, ubicacionID, productoID uuid.UUID) error {
	delete(r.productos[ubicacionID], productoID)
	return nil
}

var _ repository.UbicacionRepository = (*stubUbicacionRepo)(nil)

type stubUsuarioRepo struct {
	usuarios map[uuid.UUID]*model.Usuario
}

func newStubUsuarioRepo(us ...*model.Usuario) *stubUsuarioRepo {
	r := &stubUsuarioRepo{usuarios: make(map[uuid.UUID]*model.Usuario)}
	for _, u := range us {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		r.usuarios[u.ID] = u
	}
	return r
}

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.usuarios[u.ID] = u
	return nil
}

func (r *stubUsuarioRepo) FindByEmail(_ context.Context, email string) (*model.Usuario, error) {
	for _, u := range r.usuarios {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, model.ErrNoEncontrado
}

func (r *stubUsuarioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Usuario, error) {
	u, ok := r.usuarios[id]
	if !ok {
		return nil, model.ErrNoEncontrado
	}
	return u, nil
}

func (r *stubUsuarioRepo) List(_ context.Context, ubicacionID *uuid.UUID) ([]model.Usuario, error) {
	var out []model.Usuario
	for _, u := range r.usuarios {
		if !u.Activo {
			continue
		}
		if ubicacionID != nil && (u.UbicacionID == nil || *u.UbicacionID != *ubicacionID) {
			continue
		}
		out = append(out, *u)
	}
	return out, nil
}

func (r *stubUsuarioRepo) Update(_ context.Context, u *model.Usuario) error {
	r.usuarios[u.ID] = u
	return nil
}

func (r *stubUsuarioRepo) Delete(_ context.Context, id uuid.UUID) error {
	u, ok := r.usuarios[id]
	if !ok {
		return model.ErrNoEncontrado
	}
	u.Activo = false
	return nil
}

var _ repository.UsuarioRepository = (*stubUsuarioRepo)(nil)

// stubCache records every key it drops.
type stubCache struct {
	datos      map[string][]byte
	eliminadas []string
}

func newStubCache() *stubCache { return &stubCache{datos: make(map[string][]byte)} }

func (c *stubCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.datos[key]
	return v, ok, nil
}

func (c *stubCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.datos[key] = value
	return nil
}

func (c *stubCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.datos, k)
		c.eliminadas = append(c.eliminadas, k)
	}
	return nil
}

var _ Cache = (*stubCache)(nil)

// ── Fixtures ──────────────────────────────────────────────────────────────────

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func decPtr(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

func admin() Actor { return Actor{UsuarioID: uuid.New(), Rol: model.RolAdmin} }

func empleado(ubicacionID uuid.UUID) Actor {
	id := ubicacionID
	return Actor{UsuarioID: uuid.New(), Rol: model.RolEmpleado, UbicacionID: &id}
}

func gestor(ubicacionID uuid.UUID) Actor {
	id := ubicacionID
	return Actor{UsuarioID: uuid.New(), Rol: model.RolAdminUbicacion, UbicacionID: &id}
}

// nuevoProducto is a 10x10 packaged product priced 1 / 9 / 80 with every sale type enabled.
func nuevoProducto(ubicacionID uuid.UUID, barcode string, stock model.Stock) *model.Producto {
	return &model.Producto{
		ID:                    uuid.New(),
		Barcode:               barcode,
		Nombre:                "Producto " + barcode,
		ExpirationDate:        time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		PharmaceuticalCompany: "Laboratorio",
		TipoFiscal:            model.TipoFiscalGravado,
		Precios:               model.Precios{Unidad: decPtr("1"), Blister: decPtr("9"), Caja: decPtr("80")},
		Stock:                 stock,
		Embalaje:              model.EmbalajePorDefecto,
		OpcionesVenta:         model.OpcionesVenta{Unidad: true, Blister: true, Caja: true},
		UbicacionID:           ubicacionID,
	}
}
