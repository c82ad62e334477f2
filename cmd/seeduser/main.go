// Command seeduser creates or resets the bootstrap admin account.
//
//	SEED_PASSWORD=... go run ./cmd/seeduser [username] [email]
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"stockroom/internal/config"
	"stockroom/internal/infra"
	"stockroom/internal/model"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	username, email := "admin", "admin@example.com"
	if len(os.Args) > 1 {
		username = os.Args[1]
	}
	if len(os.Args) > 2 {
		email = os.Args[2]
	}
	password := os.Getenv("SEED_PASSWORD")
	if len(password) < 8 {
		log.Fatal().Msg("SEED_PASSWORD must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt")
	}

	db, err := infra.NewDatabase(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}

	ctx := context.Background()
	var u model.User
	err = db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		u = model.User{Username: username, Email: email, Role: model.RoleAdmin, IsActive: true}
	case err != nil:
		log.Fatal().Err(err).Msg("lookup user")
	}
	u.PasswordHash = string(hash)
	u.Role = model.RoleAdmin
	u.IsActive = true

	if err := db.WithContext(ctx).Save(&u).Error; err != nil {
		log.Fatal().Err(err).Msg("save user")
	}
	log.Info().Str("username", u.Username).Uint("id", u.ID).Msg("admin user created or updated")
}
