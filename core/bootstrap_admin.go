package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// ProvisionAdmin creates the admin credential unless one with the configured
// username or email already exists. It is idempotent and is the only path that
// creates credentials. When cfg.AdminPassword is empty a random password is
// generated and written to cfg.AdminPasswordPath (or logged once).
func ProvisionAdmin(ctx context.Context, repo UserRepository, hasher *PasswordHasher, cfg Config, logger *slog.Logger) (bool, error) {
	username, email := cfg.AdminUsername, cfg.AdminEmail
	if username == "" || email == "" {
		return false, errors.New("admin username and email are required")
	}

	exists, err := repo.Exists(ctx, username, email)
	if err != nil {
		return false, fmt.Errorf("check existing admin: %w", err)
	}
	if exists {
		logger.InfoContext(ctx, "admin user already exists, skipping", "username", username)
		return false, nil
	}

	password := cfg.AdminPassword
	generated := password == ""
	if generated {
		if password, err = randomToken(32); err != nil {
			return false, err
		}
	}

	hash, err := hasher.Hash(ctx, password)
	if err != nil {
		return false, err
	}

	if _, err := repo.Create(ctx, username, email, hash, RoleAdmin); err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}

	switch {
	case !generated:
		logger.InfoContext(ctx, "admin user created", "username", username)
	case cfg.AdminPasswordPath != "":
		if err := os.WriteFile(cfg.AdminPasswordPath, []byte(password+"\n"), 0o600); err != nil {
			return true, err
		}
		logger.InfoContext(ctx, "admin user created; password written to file", "username", username, "path", cfg.AdminPasswordPath)
	default:
		logger.InfoContext(ctx, "admin user created", "username", username, "password", password)
	}
	return true, nil
}
