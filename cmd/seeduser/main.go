// cmd/seeduser/main.go: creates or resets the initial admin user.
// Uso: SEED_EMAIL=... SEED_PASSWORD=... go run ./cmd/seeduser
package main

import (
	"context"
	"os"

	"farmapos/internal/config"
	"farmapos/internal/infra"
	"farmapos/internal/model"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/clause"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	email := envOr("SEED_EMAIL", "admin@farmapos.local")
	password := os.Getenv("SEED_PASSWORD")
	if len(password) < 6 {
		log.Fatal().Msg("SEED_PASSWORD must have at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt error")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect error")
	}

	admin := model.Usuario{
		Email:        email,
		Nombre:       envOr("SEED_NAME", "Administrador"),
		PasswordHash: string(hash),
		Rol:          model.RolAdmin,
		Activo:       true,
	}
	err = db.WithContext(context.Background()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"password_hash", "nombre", "rol", "activo"}),
	}).Create(&admin).Error
	if err != nil {
		log.Fatal().Err(err).Msg("insert error")
	}
	log.Info().Str("email", email).Msg("admin user created/updated")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
