package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092 "))
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("POS_TEST_STR", "x")
	t.Setenv("POS_TEST_INT", "42")
	t.Setenv("POS_TEST_BAD_INT", "forty")
	t.Setenv("POS_TEST_DUR", "90s")
	t.Setenv("POS_TEST_BAD_DUR", "-5m")

	assert.Equal(t, "x", EnvDefault("POS_TEST_STR", "d"))
	assert.Equal(t, "d", EnvDefault("POS_TEST_MISSING", "d"))
	assert.Equal(t, 42, EnvIntDefault("POS_TEST_INT", 1))
	assert.Equal(t, 1, EnvIntDefault("POS_TEST_BAD_INT", 1))
	assert.Equal(t, 90*time.Second, EnvDurationDefault("POS_TEST_DUR", time.Minute))
	assert.Equal(t, time.Minute, EnvDurationDefault("POS_TEST_BAD_DUR", time.Minute))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg := Load()
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}
