// Package config loads application configuration from environment
// variables. Required variables halt startup when missing; tunables
// fall back to the documented defaults.
package config

import (
	"log"
	"os"
	"time"
)

// Config holds all runtime configuration values.
type Config struct {
	Env              string        // application environment (dev/test/prod)
	Port             string        // HTTP port to listen on
	DBUser           string        // database username
	DBPass           string        // database password (optional)
	DBHost           string        // database host address
	DBPort           string        // database port number
	DBName           string        // database name
	JWTSecret        string        // secret used to sign session tokens
	TokenTTL         time.Duration // session token lifetime
	TokenRenewWithin time.Duration // reissue window before expiry
	BcryptCost       int           // bcrypt cost for password hashing
}

// Load reads configuration from the environment. Token lifetime
// defaults to 24h with a 24h renewal window, so under the defaults
// every successful verification of a live token also refreshes its
// permission snapshot.
func Load() Config {
	return Config{
		Env:              getenv("APP_ENV", "development"),
		Port:             getenv("APP_PORT", "3000"),
		DBUser:           must("DB_USER"),
		DBPass:           os.Getenv("DB_PASS"),
		DBHost:           must("DB_HOST"),
		DBPort:           getenv("DB_PORT", "3306"),
		DBName:           must("DB_NAME"),
		JWTSecret:        must("JWT_SECRET"),
		TokenTTL:         time.Duration(envInt("TOKEN_TTL_HOURS", 24)) * time.Hour,
		TokenRenewWithin: time.Duration(envInt("TOKEN_RENEW_WITHIN_HOURS", 24)) * time.Hour,
		BcryptCost:       envInt("BCRYPT_COST", 10),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
