// seed_admin genera el hash scrypt de la contraseña de un operador y emite el SQL que lo
// instala, o lo aplica directamente en la base configurada.
//
// Uso: go run ./cmd/seed_admin [-apply] <username> <password> [nombre visible]
// Sin -apply el INSERT se escribe en stdout. El hash solo también sirve como
// ADMIN_PASSWORD_HASH.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/shelf-inventory/internal/domain/entity"
	"github.com/jhoicas/shelf-inventory/internal/infrastructure/postgres"
	"github.com/jhoicas/shelf-inventory/internal/infrastructure/security"
	"github.com/jhoicas/shelf-inventory/pkg/config"
)

func main() {
	apply := flag.Bool("apply", false, "write the admin to the configured PostgreSQL database")
	flag.Parse()
	args := flag.Args()
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: seed_admin [-apply] <username> <password> [display name]")
		os.Exit(2)
	}

	admin := entity.Admin{
		ID:          uuid.NewString(),
		Username:    strings.TrimSpace(args[0]),
		DisplayName: "Administrator",
		CreatedAt:   time.Now().UTC(),
	}
	if len(args) > 2 {
		admin.DisplayName = strings.TrimSpace(args[2])
	}
	hash, err := security.Hash(args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash password: %v\n", err)
		os.Exit(1)
	}
	admin.PasswordHash = hash

	if !*apply {
		fmt.Printf("-- operator %s\n", admin.Username)
		fmt.Println("INSERT INTO admins (id, username, display_name, password_hash, created_at)")
		fmt.Printf("VALUES ('%s', '%s', '%s', '%s', now())\n",
			admin.ID, escapeSQL(admin.Username), escapeSQL(admin.DisplayName), admin.PasswordHash)
		fmt.Println("ON CONFLICT (username) DO UPDATE SET display_name = EXCLUDED.display_name, password_hash = EXCLUDED.password_hash;")
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load configuration: %v\n", err)
		os.Exit(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := postgres.Migrate(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
	if err := postgres.NewAdminRepository(pool).Upsert(ctx, &admin); err != nil {
		fmt.Fprintf(os.Stderr, "upsert admin: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("admin %s saved\n", admin.Username)
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
