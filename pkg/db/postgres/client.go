package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	"secrets-manager-utility/pkg/secrets"

	_ "github.com/lib/pq"
)

// Internal variables for testing
var (
	sqlOpen = sql.Open
)

// ConnectPostgres establishes a connection to PostgreSQL and verifies it with a Ping.
// Credentials come from the JSON secret secretName (see GetPostgresDSN).
func ConnectPostgres(ctx context.Context, driverName string, src secrets.SecretSource, secretName string) (*sql.DB, error) {
	dsn, err := GetPostgresDSN(ctx, src, secretName)
	if err != nil {
		return nil, err
	}

	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return db, nil
}

// GetPostgresDSN builds a DSN from a secret laid out like an RDS database
// secret: host, username and password are required, port defaults to 5432
// and dbname to postgres. The secret is fetched once. DATABASE_URL overrides
// the secret entirely.
func GetPostgresDSN(ctx context.Context, src secrets.SecretSource, secretName string) (string, error) {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn, nil
	}

	secret, err := src.GetSecret(ctx, secretName)
	if err != nil {
		return "", err
	}

	field := func(key, fallback string) (string, error) {
		val, err := secrets.ExtractKey(secret, key)
		if errors.Is(err, secrets.ErrMissingKey) && fallback != "" {
			return fallback, nil
		}
		if err != nil {
			return "", fmt.Errorf("secret %s: %w", secretName, err)
		}
		return val, nil
	}

	params := []struct{ name, key, fallback string }{
		{"host", "host", ""},
		{"port", "port", "5432"},
		{"user", "username", ""},
		{"password", "password", ""},
		{"dbname", "dbname", "postgres"},
	}
	parts := make([]string, 0, len(params)+2)
	for _, p := range params {
		val, err := field(p.key, p.fallback)
		if err != nil {
			return "", err
		}
		parts = append(parts, p.name+"="+quoteDSNValue(val))
	}
	parts = append(parts, "sslmode="+quoteDSNValue(getEnv("DB_SSLMODE", "require")), "timezone=UTC")

	return strings.Join(parts, " "), nil
}

var dsnEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// quoteDSNValue single-quotes values lib/pq would otherwise split or unescape.
func quoteDSNValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t\n\r\v\f\\'") {
		return v
	}
	return "'" + dsnEscaper.Replace(v) + "'"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
