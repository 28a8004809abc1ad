package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Defaults applied when the environment does not say otherwise.
const (
	DefaultPort        = "4000"
	DefaultAPIBase     = "https://node-eemi.vercel.app"
	DefaultAppOrigin   = "http://localhost:3000"
	DefaultAuthTimeout = 5 * time.Second
)

// Provider is the read-only view the rest of the application gets of the
// configuration. Tests substitute their own implementation.
type Provider interface {
	// GetPort is the TCP port the relay listens on.
	GetPort() string
	// GetAPIBase is the base URL of the identity verifier service.
	GetAPIBase() string
	// GetAppOrigin is the browser origin allowed to open sockets.
	GetAppOrigin() string
	// GetAuthTimeout bounds a single identity verification call.
	GetAuthTimeout() time.Duration
}

// Config holds all configuration for the relay process.
type Config struct {
	Port        string
	APIBase     string
	AppOrigin   string
	AuthTimeout time.Duration
}

// New loads configuration from a .env file if present, then environment
// variables. Every variable has a workable default, so an empty environment
// yields a relay pointed at the hosted identity service.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	return &Config{
		Port:        getEnv("PORT", DefaultPort),
		APIBase:     getEnv("API_BASE", DefaultAPIBase),
		AppOrigin:   getEnv("APP_ORIGIN", DefaultAppOrigin),
		AuthTimeout: getDuration("AUTH_TIMEOUT_SECONDS", DefaultAuthTimeout),
	}
}

func (c *Config) GetPort() string               { return c.Port }
func (c *Config) GetAPIBase() string            { return c.APIBase }
func (c *Config) GetAppOrigin() string          { return c.AppOrigin }
func (c *Config) GetAuthTimeout() time.Duration { return c.AuthTimeout }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds <= 0 {
		log.Printf("Ignoring invalid %s value %q", key, v)
		return fallback
	}
	return time.Duration(seconds) * time.Second
}
