package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/panelkitchens/quotekit/pkg/catalog"
	"github.com/panelkitchens/quotekit/pkg/document"
	"github.com/panelkitchens/quotekit/pkg/jwt"
	"github.com/panelkitchens/quotekit/pkg/layout"
	"github.com/panelkitchens/quotekit/pkg/telemetry"
	"github.com/panelkitchens/quotekit/pkg/utils"
)

// ConfigSource defines an interface for loading configuration from various sources.
type ConfigSource interface {
	Get(key string) (string, bool)
	GetWithDefault(key, defaultValue string) string
}

// EnvConfigSource loads configuration from environment variables.
type EnvConfigSource struct{}

// Get retrieves an environment variable.
func (e *EnvConfigSource) Get(key string) (string, bool) {
	val := os.Getenv(key)
	return val, val != ""
}

// GetWithDefault retrieves an environment variable or returns a default value.
func (e *EnvConfigSource) GetWithDefault(key, defaultValue string) string {
	if val, ok := e.Get(key); ok {
		return val
	}
	return defaultValue
}

// FileConfigSource loads configuration from a JSON or YAML file.
type FileConfigSource struct {
	data map[string]interface{}
}

// NewFileConfigSource creates a new file-based config source.
// Supports both JSON and YAML files based on file extension.
func NewFileConfigSource(filePath string) (*FileConfigSource, error) {
	data := make(map[string]interface{})

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if strings.HasSuffix(filePath, ".yaml") || strings.HasSuffix(filePath, ".yml") {
		if err := yaml.Unmarshal(fileData, &data); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	} else if strings.HasSuffix(filePath, ".json") {
		if err := json.Unmarshal(fileData, &data); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	} else {
		return nil, fmt.Errorf("unsupported config file format, use .json, .yaml, or .yml")
	}

	return &FileConfigSource{data: data}, nil
}

// Get retrieves a value from the config file. Keys match either exactly
// ("HTTP_PORT") or in lower case ("http_port"); dots address nested maps.
func (f *FileConfigSource) Get(key string) (string, bool) {
	if val, ok := f.lookup(key); ok {
		return val, true
	}
	return f.lookup(strings.ToLower(key))
}

func (f *FileConfigSource) lookup(key string) (string, bool) {
	keys := strings.Split(key, ".")
	var current interface{} = f.data

	for _, k := range keys {
		if m, ok := current.(map[string]interface{}); ok {
			if val, exists := m[k]; exists {
				current = val
			} else {
				return "", false
			}
		} else {
			return "", false
		}
	}

	if str, ok := current.(string); ok {
		return str, true
	}
	return fmt.Sprintf("%v", current), true
}

// GetWithDefault retrieves a value from the config file or returns a default.
func (f *FileConfigSource) GetWithDefault(key, defaultValue string) string {
	if val, ok := f.Get(key); ok {
		return val
	}
	return defaultValue
}

// Config holds application configuration.
type Config struct {
	// Application and logging
	AppName     string
	AppVersion  string
	Environment string // dev, staging, prod
	LogLevel    string // debug, info, warn, error
	LogFormat   string // json, console

	// HTTP server. Timeouts are in seconds, the slow threshold in
	// milliseconds. A zero rate limit disables limiting.
	HTTPPort             int
	HTTPReadTimeout      int
	HTTPWriteTimeout     int
	HTTPIdleTimeout      int
	HTTPRateLimit        float64
	HTTPRateBurst        int
	HTTPMaxBodyBytes     int64
	SlowRequestThreshold int

	// Document rendering
	AssetsDir           string
	LogoFile            string
	WatermarkFile       string
	FontRegularFile     string
	FontBoldFile        string
	FirstPageItems      int
	SubsequentPageItems int
	CompanyName         string
	CompanyContactLine  string
	MaxImageSide        int // pixels
	GenerateTimeout     int // seconds

	// Catalog
	CatalogPath      string
	CatalogCacheSize int

	// Blob storage
	BlobStorageAccountName string
	BlobStorageAccountKey  string
	BlobContainer          string
	BlobAccessTier         string // Hot, Cool, Cold, Archive

	// Service Bus
	ServiceBusNamespace string
	ServiceBusKeyName   string
	ServiceBusKeyValue  string
	ServiceBusTopic     string

	// Quote history
	DatabaseDSN string

	// API tokens
	JWTSecret      string
	JWTTokenTTLHrs int

	// New Relic
	NewRelicLicenseKey string
	NewRelicEnabled    bool

	// Retry
	RetryMaxAttempts  int
	RetryInitialDelay int // milliseconds
	RetryMaxDelay     int // milliseconds
}

// LoadConfig loads configuration from the provided source and validates it.
func LoadConfig(source ConfigSource) (*Config, error) {
	cfg := &Config{}

	getInt := func(key string, defaultValue int) int {
		val, err := strconv.Atoi(source.GetWithDefault(key, strconv.Itoa(defaultValue)))
		if err != nil {
			return defaultValue
		}
		return val
	}
	getFloat := func(key string, defaultValue float64) float64 {
		val, err := strconv.ParseFloat(source.GetWithDefault(key, ""), 64)
		if err != nil {
			return defaultValue
		}
		return val
	}
	getBool := func(key string, defaultValue bool) bool {
		val, err := strconv.ParseBool(source.GetWithDefault(key, ""))
		if err != nil {
			return defaultValue
		}
		return val
	}

	cfg.AppName = source.GetWithDefault("APP_NAME", "quote-service")
	cfg.AppVersion = source.GetWithDefault("APP_VERSION", "1.0.0")
	cfg.Environment = source.GetWithDefault("ENVIRONMENT", "dev")
	cfg.LogLevel = source.GetWithDefault("LOG_LEVEL", "info")
	cfg.LogFormat = source.GetWithDefault("LOG_FORMAT", "json")

	cfg.HTTPPort = getInt("HTTP_PORT", 8080)
	cfg.HTTPReadTimeout = getInt("HTTP_READ_TIMEOUT", 30)
	cfg.HTTPWriteTimeout = getInt("HTTP_WRITE_TIMEOUT", 60)
	cfg.HTTPIdleTimeout = getInt("HTTP_IDLE_TIMEOUT", 120)
	cfg.HTTPRateLimit = getFloat("HTTP_RATE_LIMIT", 5)
	cfg.HTTPRateBurst = getInt("HTTP_RATE_BURST", 10)
	cfg.HTTPMaxBodyBytes = int64(getInt("HTTP_MAX_BODY_BYTES", 20<<20))
	cfg.SlowRequestThreshold = getInt("SLOW_REQUEST_THRESHOLD_MS", 3000)

	files := document.DefaultAssetFiles()
	def := document.DefaultConfig()
	cfg.AssetsDir = source.GetWithDefault("ASSETS_DIR", "assets")
	cfg.LogoFile = source.GetWithDefault("ASSET_LOGO", files.Logo)
	cfg.WatermarkFile = source.GetWithDefault("ASSET_WATERMARK", files.Watermark)
	cfg.FontRegularFile = source.GetWithDefault("ASSET_FONT_REGULAR", files.FontRegular)
	cfg.FontBoldFile = source.GetWithDefault("ASSET_FONT_BOLD", files.FontBold)
	cfg.FirstPageItems = getInt("FIRST_PAGE_ITEMS", def.Capacity.FirstPage)
	cfg.SubsequentPageItems = getInt("SUBSEQUENT_PAGE_ITEMS", def.Capacity.SubsequentPage)
	cfg.CompanyName = source.GetWithDefault("COMPANY_NAME", def.CompanyName)
	cfg.CompanyContactLine = source.GetWithDefault("COMPANY_CONTACT_LINE", def.ContactLine)
	cfg.MaxImageSide = getInt("MAX_IMAGE_SIDE", def.MaxImageSide)
	cfg.GenerateTimeout = getInt("GENERATE_TIMEOUT", 30)

	cfg.CatalogPath = source.GetWithDefault("CATALOG_PATH", "")
	cfg.CatalogCacheSize = getInt("CATALOG_CACHE_SIZE", catalog.DefaultCacheSize)

	cfg.BlobStorageAccountName = source.GetWithDefault("BLOB_STORAGE_ACCOUNT_NAME", "")
	cfg.BlobStorageAccountKey = source.GetWithDefault("BLOB_STORAGE_ACCOUNT_KEY", "")
	cfg.BlobContainer = source.GetWithDefault("BLOB_CONTAINER", "quotes")
	cfg.BlobAccessTier = source.GetWithDefault("BLOB_ACCESS_TIER", "Hot")

	cfg.ServiceBusNamespace = source.GetWithDefault("SERVICE_BUS_NAMESPACE", "")
	cfg.ServiceBusKeyName = source.GetWithDefault("SERVICE_BUS_KEY_NAME", "")
	cfg.ServiceBusKeyValue = source.GetWithDefault("SERVICE_BUS_KEY_VALUE", "")
	cfg.ServiceBusTopic = source.GetWithDefault("SERVICE_BUS_TOPIC", "quote-generated")

	cfg.DatabaseDSN = source.GetWithDefault("DATABASE_DSN", "")

	cfg.JWTSecret = source.GetWithDefault("JWT_SECRET", "")
	cfg.JWTTokenTTLHrs = getInt("JWT_TOKEN_TTL_HOURS", 12)

	cfg.NewRelicLicenseKey = source.GetWithDefault("NEW_RELIC_LICENSE_KEY", "")
	cfg.NewRelicEnabled = getBool("NEW_RELIC_ENABLED", cfg.NewRelicLicenseKey != "")

	cfg.RetryMaxAttempts = getInt("RETRY_MAX_ATTEMPTS", 3)
	cfg.RetryInitialDelay = getInt("RETRY_INITIAL_DELAY", 100)
	cfg.RetryMaxDelay = getInt("RETRY_MAX_DELAY", 5000)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late or silently.
func (c *Config) Validate() error {
	switch {
	case c.FirstPageItems <= 0 || c.SubsequentPageItems <= 0:
		return fmt.Errorf("page capacities must be positive, got %d/%d", c.FirstPageItems, c.SubsequentPageItems)
	case c.HTTPPort <= 0 || c.HTTPPort > 65535:
		return fmt.Errorf("invalid HTTP_PORT %d", c.HTTPPort)
	case c.CatalogCacheSize <= 0:
		return fmt.Errorf("CATALOG_CACHE_SIZE must be positive, got %d", c.CatalogCacheSize)
	case c.RetryMaxAttempts < 1:
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1, got %d", c.RetryMaxAttempts)
	case c.HTTPRateLimit < 0:
		return fmt.Errorf("HTTP_RATE_LIMIT must not be negative, got %v", c.HTTPRateLimit)
	case c.JWTSecret != "" && len(c.JWTSecret) < jwt.MinSecretKeyLength:
		return fmt.Errorf("JWT_SECRET must be at least %d characters", jwt.MinSecretKeyLength)
	}
	switch strings.ToLower(c.BlobAccessTier) {
	case "hot", "cool", "cold", "archive":
	default:
		return fmt.Errorf("invalid BLOB_ACCESS_TIER %q", c.BlobAccessTier)
	}
	return nil
}

// DocumentConfig returns the renderer settings.
func (c *Config) DocumentConfig() document.Config {
	cfg := document.DefaultConfig()
	cfg.Capacity = layout.Capacity{FirstPage: c.FirstPageItems, SubsequentPage: c.SubsequentPageItems}
	cfg.CompanyName = c.CompanyName
	cfg.ContactLine = c.CompanyContactLine
	cfg.MaxImageSide = c.MaxImageSide
	return cfg
}

// AssetFiles returns the asset file names inside AssetsDir.
func (c *Config) AssetFiles() document.AssetFiles {
	return document.AssetFiles{
		Logo:        c.LogoFile,
		Watermark:   c.WatermarkFile,
		FontRegular: c.FontRegularFile,
		FontBold:    c.FontBoldFile,
	}
}

// RetryConfig returns the backoff used for storage uploads.
func (c *Config) RetryConfig() utils.RetryConfig {
	cfg := utils.DefaultRetryConfig()
	cfg.MaxAttempts = c.RetryMaxAttempts
	cfg.InitialDelay = time.Duration(c.RetryInitialDelay) * time.Millisecond
	cfg.MaxDelay = time.Duration(c.RetryMaxDelay) * time.Millisecond
	return cfg
}

// JWTConfig returns the API token settings.
func (c *Config) JWTConfig() jwt.Config {
	return jwt.Config{SecretKey: c.JWTSecret, TokenTTL: time.Duration(c.JWTTokenTTLHrs) * time.Hour}
}

// NewRelicConfig returns the telemetry settings.
func (c *Config) NewRelicConfig() telemetry.NewRelicConfig {
	return telemetry.NewRelicConfig{
		LicenseKey:  c.NewRelicLicenseKey,
		AppName:     c.AppName,
		ServiceName: c.AppName,
		Enabled:     c.NewRelicEnabled,
	}
}

// BlobEnabled reports whether Azure Blob Storage is configured.
func (c *Config) BlobEnabled() bool { return c.BlobStorageAccountName != "" }

// ServiceBusEnabled reports whether Azure Service Bus is configured.
func (c *Config) ServiceBusEnabled() bool { return c.ServiceBusNamespace != "" }

// LoadConfigFromEnv loads configuration from environment variables.
func LoadConfigFromEnv() (*Config, error) {
	return LoadConfig(&EnvConfigSource{})
}

// LoadConfigFromFile loads configuration from a JSON or YAML file.
// Environment variables will override file values if both are set.
func LoadConfigFromFile(filePath string) (*Config, error) {
	fileSource, err := NewFileConfigSource(filePath)
	if err != nil {
		return nil, err
	}

	// Create a composite source that checks env first, then file
	composite := &CompositeConfigSource{
		sources: []ConfigSource{&EnvConfigSource{}, fileSource},
	}

	return LoadConfig(composite)
}

// CompositeConfigSource checks multiple config sources in order.
type CompositeConfigSource struct {
	sources []ConfigSource
}

// Get retrieves a value from the first source that has it.
func (c *CompositeConfigSource) Get(key string) (string, bool) {
	for _, source := range c.sources {
		if val, ok := source.Get(key); ok {
			return val, true
		}
	}
	return "", false
}

// GetWithDefault retrieves a value from sources or returns default.
func (c *CompositeConfigSource) GetWithDefault(key, defaultValue string) string {
	for _, source := range c.sources {
		if val, ok := source.Get(key); ok {
			return val
		}
	}
	return defaultValue
}

