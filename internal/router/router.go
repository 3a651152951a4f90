package router

import (
	"time"

	"farmapos/internal/config"
	"farmapos/internal/handler"
	"farmapos/internal/infra"
	"farmapos/internal/middleware"
	"farmapos/internal/model"
	"farmapos/internal/repository"
	"farmapos/internal/service"
	"farmapos/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// App is the wired HTTP engine plus the pieces the background jobs need.
type App struct {
	Engine   *gin.Engine
	Reportes service.ReporteService
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// rdb may be nil: caching, rate limiting and email jobs are then disabled.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, loc *time.Location) *App {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(rdb, "api", 1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	var cache service.Cache
	var dispatcher *worker.Dispatcher
	if rdb != nil {
		cache = infra.NewRedisCache(rdb)
		dispatcher = worker.NewDispatcher(rdb)
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	ubicacionRepo := repository.NewUbicacionRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	historicoRepo := repository.NewHistoricoRepository(db)
	movimientoStockRepo := repository.NewMovimientoStockRepository(db)
	promocionRepo := repository.NewPromocionRepository(db)
	reporteRepo := repository.NewReporteRepository(db)
	ventaRepo := repository.NewVentaRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, cfg)
	ubicacionSvc := service.NewUbicacionService(ubicacionRepo)
	inventarioSvc := service.NewInventarioService(productoRepo, movimientoStockRepo, cache)
	productoSvc := service.NewProductoService(productoRepo, historicoRepo, ubicacionRepo, inventarioSvc, cache, cfg.CacheTTL, loc)
	transferenciaSvc := service.NewTransferenciaService(productoRepo, ubicacionRepo, inventarioSvc, cache)
	promocionSvc := service.NewPromocionService(promocionRepo)
	reporteSvc := service.NewReporteService(reporteRepo, ventaRepo, ubicacionRepo, dispatcher, service.ReporteConfig{
		Loc:          loc,
		EmailCierres: cfg.ReportesEmail,
	})
	ventaSvc := service.NewVentaService(reporteSvc, inventarioSvc, productoRepo, promocionRepo, ventaRepo, cache)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)
	productosH := handler.NewProductosHandler(productoSvc, inventarioSvc)
	ubicacionesH := handler.NewUbicacionesHandler(ubicacionSvc, transferenciaSvc)
	promocionesH := handler.NewPromocionesHandler(promocionSvc)
	reportesH := handler.NewReportesHandler(reporteSvc, ventaSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	api := r.Group("/api")

	// Auth (public)
	api.POST("/auth/login", middleware.LoginRateLimiter(rdb), authH.Login)

	// Protected routes: every caller must carry a location unless admin
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	p := api.Group("", jwtMW, middleware.RequireUbicacion())

	gestores := middleware.RequireRole(model.RolAdmin, model.RolAdminUbicacion)
	soloAdmin := middleware.RequireRole(model.RolAdmin)

	usuarios := p.Group("/users")
	{
		usuarios.GET("", gestores, usuariosH.Listar)
		usuarios.POST("", gestores, usuariosH.Crear)
		usuarios.GET("/:id", gestores, usuariosH.Obtener)
		usuarios.PUT("/:id", gestores, usuariosH.Actualizar)
		usuarios.DELETE("/:id", soloAdmin, usuariosH.Eliminar)
	}

	prods := p.Group("/products")
	{
		prods.GET("", productosH.Listar)
		prods.POST("", gestores, productosH.Crear)
		prods.GET("/types", productosH.Tipos)
		prods.GET("/type/:type", productosH.PorTipo)
		prods.GET("/barcode/:barcode", productosH.PorBarcode)
		prods.POST("/update-stock", productosH.ActualizarStock)
		prods.GET("/audit", gestores, productosH.Auditar)
		prods.GET("/movements", gestores, productosH.Movimientos)
		prods.GET("/historico", productosH.Historico)
		prods.GET("/historico/excel", productosH.HistoricoExcel)
		prods.GET("/:id", productosH.ObtenerPorID)
		prods.PUT("/:id", gestores, productosH.Actualizar)
		prods.DELETE("/:id", soloAdmin, productosH.Eliminar)
	}

	ubic := p.Group("/ubicaciones")
	{
		ubic.GET("", ubicacionesH.Listar)
		ubic.GET("/:id", ubicacionesH.Obtener)
		ubic.POST("", soloAdmin, ubicacionesH.Crear)
		ubic.PUT("/:id", soloAdmin, ubicacionesH.Actualizar)
		ubic.DELETE("/:id", soloAdmin, ubicacionesH.Eliminar)
		ubic.POST("/transferir", gestores, ubicacionesH.Transferir)
	}

	promos := p.Group("/promotions")
	{
		promos.GET("", promocionesH.Listar)
		promos.POST("", gestores, promocionesH.Crear)
		promos.GET("/active", promocionesH.Activas)
		promos.POST("/validate", promocionesH.Validar)
		promos.GET("/promotion/:productId", promocionesH.PorProducto)
		promos.PUT("/:id", gestores, promocionesH.Actualizar)
		promos.DELETE("/:id", soloAdmin, promocionesH.Eliminar)
	}

	reps := p.Group("/reports")
	{
		reps.POST("/create", reportesH.Crear)
		reps.POST("/add-sale", reportesH.AgregarVenta)
		reps.GET("/sales", reportesH.VentasPorProducto)
		reps.GET("/sales/:id", reportesH.ObtenerVenta)
		reps.POST("/close", gestores, reportesH.Cerrar)
		reps.GET("/current", reportesH.Actual)
		reps.GET("/history", reportesH.Historial)
		reps.POST("/generate-pdf", reportesH.ExportarPDF)
		reps.GET("/by-date/:date", reportesH.PorFecha)
		reps.GET("/generate-excel/:reportId", reportesH.ExportarExcel)
		reps.GET("/generate-excel", reportesH.ExportarExcel)
		reps.GET("/daily-stats", reportesH.EstadisticasDiarias)
		reps.GET("/by-range", reportesH.PorRango)
	}

	p.GET("/admin/dlq", soloAdmin, handler.DLQ(rdb))

	// Swagger UI, only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return &App{Engine: r, Reportes: reporteSvc}
}
