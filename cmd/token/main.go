// Command token mints bearer tokens for the callers of the settlement API:
// the trip lifecycle source (system), back-office operators (admin) and
// driver apps (driver).
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"settlement-ledger/config"
	"settlement-ledger/internal/core/ports"
	"settlement-ledger/internal/service"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults to ./config.yaml, then SSL_* env)")
	role := flag.String("role", string(ports.RoleSystem), "caller role: system, admin or driver")
	subject := flag.String("sub", "", "token subject (driver UUID for the driver role)")
	expiry := flag.Duration("expiry", 0, "override jwt.expiry")
	flag.Parse()

	if err := run(*configPath, ports.Role(*role), *subject, *expiry); err != nil {
		fmt.Fprintf(os.Stderr, "token: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, role ports.Role, subject string, expiry time.Duration) error {
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}
	if subject == "" {
		return fmt.Errorf("-sub is required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is not configured")
	}
	if expiry == 0 {
		expiry = cfg.JWT.Expiry
	}

	token, expiresAt, err := service.NewJWTTokenService(cfg.JWT.Secret, expiry, cfg.JWT.Issuer).Generate(subject, role)
	if err != nil {
		return err
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "role=%s sub=%s expires_at=%s\n", role, subject, expiresAt.UTC().Format(time.RFC3339))
	return nil
}
