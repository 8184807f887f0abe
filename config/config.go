package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/upb/media-gateway/services/providers"
	"github.com/upb/media-gateway/services/providers/deepseek"
	"github.com/upb/media-gateway/services/providers/groq"
	"github.com/upb/media-gateway/services/providers/openai"
	"github.com/upb/media-gateway/services/routing"
	"github.com/upb/media-gateway/utils"
)

// RequestBudgetMargin covers request decoding and response writing around
// the provider calls of a route
const RequestBudgetMargin = 5 * time.Second

// KnownProviders lists every provider name the gateway has an adapter for
var KnownProviders = []string{deepseek.Name, groq.Name, openai.Name}

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	CORS          CORSConfig
	Providers     ProvidersConfig
	Router        RouterConfig
	Audit         AuditConfig
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
	TLS             struct {
		Enabled  bool
		CertFile string
		KeyFile  string
	}
}

// DatabaseConfig holds PostgreSQL configuration for the route audit trail.
// An empty ConnectionString disables the audit trail.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
}

// AuthConfig holds bearer authentication settings
type AuthConfig struct {
	Required  bool
	APIToken  string
	JWTSecret string
	JWTIssuer string
}

// CORSConfig holds cross-origin settings
type CORSConfig struct {
	AllowedOrigins []string
}

// ProvidersConfig holds per-adapter configuration
type ProvidersConfig struct {
	DeepSeek providers.ProviderConfig
	Groq     providers.ProviderConfig
	OpenAI   providers.ProviderConfig
}

// RouterConfig holds the provider order of each routing profile
type RouterConfig struct {
	ChatOrder                      []string
	TranslateOrder                 []string
	ProfilesFile                   string
	TranslateDefaultTargetLanguage string
}

// AuditConfig holds the async audit writer settings
type AuditConfig struct {
	BufferSize  int
	WorkerCount int
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or text
}

// profilesFile is the layout of ROUTER_PROFILES_FILE:
//
//	[profiles.chat]
//	order = ["deepseek", "openai"]
//
//	[profiles.translate]
//	order = ["deepseek", "groq", "openai"]
//	default_target_language = "Spanish"
type profilesFile struct {
	Profiles map[string]profileEntry `toml:"profiles"`
}

type profileEntry struct {
	Order                 []string `toml:"order"`
	DefaultTargetLanguage string   `toml:"default_target_language"`
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 0),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			TLS: struct {
				Enabled  bool
				CertFile string
				KeyFile  string
			}{
				Enabled:  getEnvAsBool("TLS_ENABLED", false),
				CertFile: getEnv("TLS_CERT_FILE", "certs/cert.pem"),
				KeyFile:  getEnv("TLS_KEY_FILE", "certs/key.pem"),
			},
		},
		Database: DatabaseConfig{
			ConnectionString: getEnv("DATABASE_URL", ""),
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Auth: AuthConfig{
			Required:  getEnvAsBool("AUTH_REQUIRED", false),
			APIToken:  getEnv("AUTH_API_TOKEN", ""),
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
			JWTIssuer: getEnv("AUTH_JWT_ISSUER", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Providers: ProvidersConfig{
			DeepSeek: loadProviderConfig("DEEPSEEK", "https://api.deepseek.com", "deepseek-chat", 25*time.Second),
			Groq:     loadProviderConfig("GROQ", "https://api.groq.com/openai/v1", "llama-3.3-70b-versatile", 10*time.Second),
			OpenAI:   loadProviderConfig("OPENAI", "https://api.openai.com/v1", "gpt-4o-mini", 25*time.Second),
		},
		Router: RouterConfig{
			ChatOrder:                      routing.DefaultChatOrder,
			TranslateOrder:                 routing.DefaultTranslateOrder,
			ProfilesFile:                   getEnv("ROUTER_PROFILES_FILE", ""),
			TranslateDefaultTargetLanguage: getEnv("TRANSLATE_DEFAULT_TARGET_LANGUAGE", "English"),
		},
		Audit: AuditConfig{
			BufferSize:  getEnvAsInt("AUDIT_BUFFER_SIZE", 1000),
			WorkerCount: getEnvAsInt("AUDIT_WORKER_COUNT", 2),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Router.loadProfilesFile(); err != nil {
		return nil, err
	}

	// Environment orders win over the profiles file
	if value := os.Getenv("ROUTER_CHAT_ORDER"); value != "" {
		cfg.Router.ChatOrder = routing.ParseOrder(value)
	}
	if value := os.Getenv("ROUTER_TRANSLATE_ORDER"); value != "" {
		cfg.Router.TranslateOrder = routing.ParseOrder(value)
	}

	// The write timeout follows the route budget unless set explicitly
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = cfg.RequestBudget() + RequestBudgetMargin
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	for name, provider := range map[string]providers.ProviderConfig{
		deepseek.Name: c.Providers.DeepSeek,
		groq.Name:     c.Providers.Groq,
		openai.Name:   c.Providers.OpenAI,
	} {
		if err := utils.ValidateStruct(provider); err != nil {
			return fmt.Errorf("%s provider: %w", name, err)
		}
	}

	if len(c.Router.ChatOrder) == 0 {
		return fmt.Errorf("chat provider order is empty")
	}
	if err := routing.ValidateOrder(c.Router.ChatOrder, KnownProviders); err != nil {
		return fmt.Errorf("chat order: %w", err)
	}
	if len(c.Router.TranslateOrder) == 0 {
		return fmt.Errorf("translate provider order is empty")
	}
	if err := routing.ValidateOrder(c.Router.TranslateOrder, KnownProviders); err != nil {
		return fmt.Errorf("translate order: %w", err)
	}

	if c.Server.WriteTimeout > 0 && c.Server.WriteTimeout < c.RequestBudget() {
		return fmt.Errorf("server write timeout %s is shorter than the route budget %s", c.Server.WriteTimeout, c.RequestBudget())
	}

	// Auth validation
	if c.Auth.Required && c.Auth.APIToken == "" && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth required: set AUTH_API_TOKEN or AUTH_JWT_SECRET")
	}
	if c.IsProduction() && !c.Auth.Required {
		return fmt.Errorf("auth must be required in production")
	}

	// Provider validation (at least one provider API key required in production)
	if c.IsProduction() && len(c.ConfiguredProviders()) == 0 {
		return fmt.Errorf("at least one LLM provider must be configured in production")
	}

	if c.Audit.BufferSize <= 0 || c.Audit.WorkerCount <= 0 {
		return fmt.Errorf("audit buffer size and worker count must be positive")
	}

	// Observability validation
	switch c.Observability.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Observability.LogLevel)
	}
	switch c.Observability.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format %q", c.Observability.LogFormat)
	}

	return nil
}

// RequestBudget is the longest a routed request may take: the summed provider
// timeouts of the slowest fallback order, plus RequestBudgetMargin.
func (c *Config) RequestBudget() time.Duration {
	var longest time.Duration
	for _, order := range [][]string{c.Router.ChatOrder, c.Router.TranslateOrder} {
		var total time.Duration
		for _, name := range order {
			total += c.ProviderTimeout(name)
		}
		if total > longest {
			longest = total
		}
	}
	return longest + RequestBudgetMargin
}

// ProviderTimeout returns the configured timeout of the named provider
func (c *Config) ProviderTimeout(name string) time.Duration {
	switch name {
	case deepseek.Name:
		return c.Providers.DeepSeek.Timeout
	case groq.Name:
		return c.Providers.Groq.Timeout
	case openai.Name:
		return c.Providers.OpenAI.Timeout
	}
	return 0
}

// ConfiguredProviders returns the names of providers with an API key, sorted
func (c *Config) ConfiguredProviders() []string {
	var names []string
	if c.Providers.DeepSeek.APIKey != "" {
		names = append(names, deepseek.Name)
	}
	if c.Providers.Groq.APIKey != "" {
		names = append(names, groq.Name)
	}
	if c.Providers.OpenAI.APIKey != "" {
		names = append(names, openai.Name)
	}
	return names
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// Enabled reports whether a database is configured
func (c *DatabaseConfig) Enabled() bool {
	return c.ConnectionString != ""
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return c.ConnectionString
}

// LogString returns a safe string for logging (no password)
func (c *DatabaseConfig) LogString() string {
	u, err := url.Parse(c.ConnectionString)
	if err != nil || u.Host == "" {
		return "host=<from DATABASE_URL>"
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	db := strings.TrimPrefix(u.Path, "/")
	return fmt.Sprintf("host=%s port=%s database=%s", u.Hostname(), port, db)
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// loadProfilesFile applies ROUTER_PROFILES_FILE when set
func (r *RouterConfig) loadProfilesFile() error {
	if r.ProfilesFile == "" {
		return nil
	}

	file, err := os.Open(r.ProfilesFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("profiles file %s does not exist", r.ProfilesFile)
		}
		return fmt.Errorf("open profiles file: %w", err)
	}
	defer file.Close()

	var parsed profilesFile
	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&parsed); err != nil {
		return fmt.Errorf("parse profiles file: %w", err)
	}

	for name, entry := range parsed.Profiles {
		switch name {
		case routing.ProfileChat:
			if len(entry.Order) > 0 {
				r.ChatOrder = routing.NormalizeOrder(entry.Order)
			}
		case routing.ProfileTranslate:
			if len(entry.Order) > 0 {
				r.TranslateOrder = routing.NormalizeOrder(entry.Order)
			}
			if entry.DefaultTargetLanguage != "" {
				r.TranslateDefaultTargetLanguage = entry.DefaultTargetLanguage
			}
		default:
			return fmt.Errorf("profiles file: unknown profile %q", name)
		}
	}
	return nil
}

// Helper functions

func loadProviderConfig(prefix, baseURL, model string, timeout time.Duration) providers.ProviderConfig {
	return providers.ProviderConfig{
		APIKey:  strings.TrimSpace(getEnv(prefix+"_API_KEY", "")),
		BaseURL: getEnv(prefix+"_BASE_URL", baseURL),
		Model:   getEnv(prefix+"_MODEL", model),
		Timeout: getEnvAsDuration(prefix+"_TIMEOUT", timeout),
	}
}

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8080)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8080
}

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

// getEnvAsList splits a comma-separated value, dropping blanks
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
