package config

import (
	"context"
	"crypto/rsa"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"

	"github.com/cortex-platform/gateway/utils"
)

// Config represents the complete gateway configuration. It is constructed
// once at startup, validated, and injected read-only into every component;
// changing it requires a restart.
type Config struct {
	Server        ServerConfig
	Auth          AuthConfig
	Gateway       GatewayConfig
	Routes        RoutesConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// AuthConfig holds token-validation configuration. The public key is the
// verification half of the auth service's signing key pair; this gateway
// never signs tokens.
type AuthConfig struct {
	PublicKey     string // PEM key material (takes precedence)
	PublicKeyPath string // path to a PEM file
	Issuer        string `validate:"required"`
	ClockSkew     time.Duration
	CookieName    string `validate:"required"`
	Enabled       bool
}

// GatewayConfig holds the authentication gate configuration: the public
// surface and the canary rollout switches.
type GatewayConfig struct {
	PublicEndpoints      []string
	PublicPathPrefixes   []string
	CanaryEnabled        bool
	CanaryAuthPercentage int `validate:"gte=0,lte=100"`
	CORSOrigins          []string
}

// ServiceRoute maps an external path prefix to a backend base URL.
type ServiceRoute struct {
	Name    string
	Prefix  string
	BaseURL string
}

// RoutesConfig holds the static routing table and proxy timeouts.
// PreservePrefixes are forwarded to the presentation service with the full
// path intact (no prefix stripping).
type RoutesConfig struct {
	Services           []ServiceRoute
	PreservePrefixes   []string
	PresentationURL    string
	ProxyTimeout       time.Duration
	ProxyStreamTimeout time.Duration
	HealthProbeTimeout time.Duration
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string `validate:"required"`
	LogFormat string // json or text
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("GATEWAY_PORT", 8000),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			PublicKey:     getEnv("AUTH_PUBLIC_KEY", ""),
			PublicKeyPath: getEnv("AUTH_PUBLIC_KEY_PATH", "keys/jwt-public.pem"),
			Issuer:        getEnv("AUTH_ISSUER", "cortex-auth-service"),
			ClockSkew:     time.Duration(getEnvAsInt("AUTH_CLOCK_SKEW_SECONDS", 60)) * time.Second,
			CookieName:    getEnv("AUTH_COOKIE_NAME", "cortex_access_token"),
			Enabled:       getEnvAsBool("GATEWAY_AUTH_ENABLED", true),
		},
		Gateway: GatewayConfig{
			PublicEndpoints: getEnvAsSlice("GATEWAY_PUBLIC_ENDPOINTS", []string{
				"/",
				"/health",
				"/metrics",
				"/auth/login",
				"/auth/register",
				"/auth/refresh",
			}),
			PublicPathPrefixes: getEnvAsSlice("GATEWAY_PUBLIC_PATH_PREFIXES", []string{
				"/auth/api/v1/auth/login",
				"/auth/api/v1/auth/register",
				"/auth/api/v1/auth/refresh",
				"/api/v1/ppt",
				"/api/export-as-pdf",
				"/api/v1/webhook",
				"/api/v1/mock",
				"/static",
				"/app_data",
			}),
			CanaryEnabled:        getEnvAsBool("GATEWAY_CANARY_ENABLED", true),
			CanaryAuthPercentage: getEnvAsInt("GATEWAY_CANARY_AUTH_PERCENTAGE", 10),
			CORSOrigins: getEnvAsSlice("GATEWAY_CORS_ORIGINS", []string{
				"http://localhost:3000",
				"http://localhost:8000",
			}),
		},
		Routes: RoutesConfig{
			Services: []ServiceRoute{
				{Name: "auth", Prefix: "/auth", BaseURL: getEnv("AUTH_SERVICE_URL", "http://localhost:8001")},
				{Name: "financial", Prefix: "/financial", BaseURL: getEnv("FINANCIAL_SERVICE_URL", "http://localhost:8002")},
				{Name: "hr", Prefix: "/hr", BaseURL: getEnv("HR_SERVICE_URL", "http://localhost:8003")},
				{Name: "legal", Prefix: "/legal", BaseURL: getEnv("LEGAL_SERVICE_URL", "http://localhost:8004")},
				{Name: "procurement", Prefix: "/procurement", BaseURL: getEnv("PROCUREMENT_SERVICE_URL", "http://localhost:8005")},
				{Name: "documents", Prefix: "/documents", BaseURL: getEnv("DOCUMENTS_SERVICE_URL", "http://localhost:8006")},
				{Name: "ai", Prefix: "/ai", BaseURL: getEnv("AI_SERVICE_URL", "http://localhost:8007")},
			},
			PreservePrefixes: getEnvAsSlice("GATEWAY_PRESERVE_PREFIXES", []string{
				"/api/v1/ppt",
				"/api/export-as-pdf",
				"/api/v1/webhook",
				"/api/v1/mock",
				"/static",
				"/app_data",
			}),
			PresentationURL:    getEnv("PRESENTATION_SERVICE_URL", "http://localhost:8008"),
			ProxyTimeout:       getEnvAsDuration("PROXY_TIMEOUT", 30*time.Second),
			ProxyStreamTimeout: getEnvAsDuration("PROXY_STREAM_TIMEOUT", 60*time.Second),
			HealthProbeTimeout: getEnvAsDuration("HEALTH_PROBE_TIMEOUT", 5*time.Second),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if err := utils.ValidateStruct(c); err != nil {
		return err
	}

	// Key material is only required when the gateway actually authenticates
	if c.Auth.Enabled && c.Auth.PublicKey == "" && c.Auth.PublicKeyPath == "" {
		return fmt.Errorf("auth public key required: set AUTH_PUBLIC_KEY or AUTH_PUBLIC_KEY_PATH")
	}

	for _, s := range c.Routes.Services {
		if s.BaseURL == "" {
			return fmt.Errorf("service %s has no base URL", s.Name)
		}
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// LoadPublicKey loads and parses the RSA public key for token validation.
// AUTH_PUBLIC_KEY takes precedence over AUTH_PUBLIC_KEY_PATH.
func (c *AuthConfig) LoadPublicKey() (*rsa.PublicKey, error) {
	pem := c.PublicKey
	if pem == "" {
		data, err := os.ReadFile(c.PublicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read public key from %s: %w", c.PublicKeyPath, err)
		}
		pem = string(data)
	}

	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSA public key: %w", err)
	}
	return key, nil
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
