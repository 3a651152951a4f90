package infra

import (
	"fmt"

	"farmapos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that GORM
// cannot express (partial unique indexes, check constraints).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates the schema and applies the patches. Integration tests call
// it directly against a container database.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Ubicacion{},
		&model.Producto{},
		&model.UbicacionProducto{},
		&model.HistoricoProducto{},
		&model.MovimientoStock{},
		&model.Usuario{},
		&model.Promocion{},
		&model.PromocionProducto{},
		&model.Reporte{},
		&model.Venta{},
		&model.VentaItem{},
		&model.Pago{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL statements that GORM AutoMigrate cannot
// handle on its own. Each statement uses IF NOT EXISTS semantics so re-running on
// an already-patched DB is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// at most one active report per location and business day
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_reportes_activo_dia
		    ON reportes (ubicacion_id, fecha)
		    WHERE status = 'active'`,
		// scheduled close query
		`CREATE INDEX IF NOT EXISTS idx_reportes_activos_inicio
		    ON reportes (start_date)
		    WHERE status = 'active'`,
		// transfer destination lookup
		`CREATE INDEX IF NOT EXISTS idx_productos_equivalente
		    ON productos (ubicacion_id, barcode, nombre, pharmaceutical_company, expiration_date)`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_productos_embalaje') THEN
		    ALTER TABLE productos ADD CONSTRAINT chk_productos_embalaje
		        CHECK (units_per_blister >= 0 AND blisters_per_box >= 0);
		  END IF;
		END $$`,
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_productos_stock_units') THEN
		    ALTER TABLE productos ADD CONSTRAINT chk_productos_stock_units
		        CHECK (stock_units >= 0);
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
