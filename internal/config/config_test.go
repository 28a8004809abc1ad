package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nfrund/relay/internal/config"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("API_BASE", "")
	t.Setenv("APP_ORIGIN", "")
	t.Setenv("AUTH_TIMEOUT_SECONDS", "")

	cfg := config.New()

	assert.Equal(t, config.DefaultPort, cfg.GetPort())
	assert.Equal(t, config.DefaultAPIBase, cfg.GetAPIBase())
	assert.Equal(t, config.DefaultAppOrigin, cfg.GetAppOrigin())
	assert.Equal(t, config.DefaultAuthTimeout, cfg.GetAuthTimeout())
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("API_BASE", "http://identity.internal")
	t.Setenv("APP_ORIGIN", "https://shop.example.com")
	t.Setenv("AUTH_TIMEOUT_SECONDS", "2")

	cfg := config.New()

	assert.Equal(t, "9090", cfg.GetPort())
	assert.Equal(t, "http://identity.internal", cfg.GetAPIBase())
	assert.Equal(t, "https://shop.example.com", cfg.GetAppOrigin())
	assert.Equal(t, 2*time.Second, cfg.GetAuthTimeout())
}

func TestNew_InvalidTimeoutFallsBack(t *testing.T) {
	t.Setenv("AUTH_TIMEOUT_SECONDS", "not-a-number")

	cfg := config.New()

	assert.Equal(t, config.DefaultAuthTimeout, cfg.GetAuthTimeout())
}
