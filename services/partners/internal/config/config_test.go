package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"TAX_RATE", "TERMINAL_ID", "NODE_ID", "CART_TTL", "LOW_STOCK_CRON", "ES_URL", "SERVICE_NAME"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "partners", cfg.ServiceName)
	assert.Equal(t, "0.14", cfg.TaxRate.String())
	assert.Equal(t, "pos-1", cfg.TerminalID)
	assert.Equal(t, int64(1), cfg.NodeID)
	assert.Equal(t, 12*time.Hour, cfg.CartTTL)
	assert.Equal(t, "@hourly", cfg.LowStockCron)
	assert.Equal(t, "products", cfg.Search.Index)
	assert.Empty(t, cfg.Search.URL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TAX_RATE", "0.05")
	t.Setenv("CART_TTL", "30m")
	t.Setenv("NODE_ID", "12")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.05", cfg.TaxRate.String())
	assert.Equal(t, 30*time.Minute, cfg.CartTTL)
	assert.Equal(t, int64(12), cfg.NodeID)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("TAX_RATE", "-1")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("TAX_RATE", "")
	t.Setenv("NODE_ID", "5000")
	_, err = Load()
	assert.Error(t, err)
}
