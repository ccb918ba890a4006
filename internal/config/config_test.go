package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 127.0.0.1
  port: 9090
database:
  host: db.local
  port: 3306
  username: app
  password: filepass
  database: pharmacy
jwt:
  secret: filesecret
  expiry: 24h
orders:
  tax_rate: 0.05
  discount_rate: 0.10
  default_shipping: 10.00
  shipping_rates:
    standard: 10.00
    express: 20.00
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Expiry)
	assert.InDelta(t, 0.05, cfg.Orders.TaxRate, 1e-9)
	assert.InDelta(t, 20.00, cfg.Orders.ShippingRates["express"], 1e-9)

	// Defaults fill in what the file leaves out.
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverridesSecrets(t *testing.T) {
	path := writeConfig(t, `
database:
  password: filepass
jwt:
  secret: filesecret
`)

	t.Setenv("DB_PASSWORD", "envpass")
	t.Setenv("JWT_SECRET", "envsecret")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "envpass", cfg.Database.Password)
	assert.Equal(t, "envsecret", cfg.JWT.Secret)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{
		Host:     "db.local",
		Port:     3306,
		Username: "app",
		Password: "pw",
		Database: "pharmacy",
	}
	assert.Equal(t,
		"app:pw@tcp(db.local:3306)/pharmacy?charset=utf8mb4&parseTime=True&loc=Local",
		c.DSN())
}
