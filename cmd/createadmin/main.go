// Command createadmin provisions the admin credential out of band. It reads the
// same configuration as the API (DATABASE_URL, ADMIN_USERNAME, ADMIN_EMAIL,
// ADMIN_PASSWORD, ADMIN_PASSWORD_PATH, BCRYPT_COST) and applies migrations first.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"reconnect-catalog/core"
)

func main() {
	cfg, err := core.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := core.NewLogger(os.Stdout, cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := core.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()

	if err := core.Migrate(ctx, db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	hasher := core.NewPasswordHasher(cfg.BcryptCost, 1)
	if _, err := core.ProvisionAdmin(ctx, core.NewPgUserRepository(db), hasher, cfg, logger); err != nil {
		log.Fatalf("provision admin failed: %v", err)
	}
}
