package model

import "time"

// Config is the complete runtime configuration. Thresholds and service
// endpoints are always passed explicitly into components at construction,
// never read from globals, so they stay testable and overridable per tenant.
type Config struct {
	Thresholds  ThresholdConfig   `mapstructure:"thresholds" yaml:"thresholds"`
	Index       IndexConfig       `mapstructure:"index" yaml:"index"`
	Embedding   EmbeddingConfig   `mapstructure:"embedding" yaml:"embedding"`
	LLM         LLMConfig         `mapstructure:"llm" yaml:"llm"`
	Extraction  ExtractionConfig  `mapstructure:"extraction" yaml:"extraction"`
	Concurrency ConcurrencyConfig `mapstructure:"concurrency" yaml:"concurrency"`
	Cache       CacheConfig       `mapstructure:"cache" yaml:"cache"`
	Events      EventsConfig      `mapstructure:"events" yaml:"events"`
	Server      ServerConfig      `mapstructure:"server" yaml:"server"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging"`
	Proxy       ProxyConfig       `mapstructure:"proxy" yaml:"proxy"`
	Output      OutputConfig      `mapstructure:"output" yaml:"output"`
}

// ThresholdConfig holds the decision thresholds of the engine
type ThresholdConfig struct {
	// Authenticity is the minimum averaged similarity for the visual check
	Authenticity float64 `mapstructure:"authenticity" yaml:"authenticity"`
	// NameMatch is the minimum normalized name similarity counted as a match
	NameMatch float64 `mapstructure:"name_match" yaml:"name_match"`
	// NameCritical escalates a name mismatch below this similarity to critical
	NameCritical float64 `mapstructure:"name_critical" yaml:"name_critical"`
	// IncomeTolerance is the maximum relative deviation between income anchors
	IncomeTolerance float64 `mapstructure:"income_tolerance" yaml:"income_tolerance"`
}

// IndexConfig points at the reference-document similarity index
type IndexConfig struct {
	DSN       string `mapstructure:"dsn" yaml:"dsn"`
	Table     string `mapstructure:"table" yaml:"table"`
	TopK      int    `mapstructure:"top_k" yaml:"top_k"`
	VectorDim int    `mapstructure:"vector_dim" yaml:"vector_dim"`
}

// EmbeddingConfig points at the image embedding service
type EmbeddingConfig struct {
	BaseURL    string        `mapstructure:"base_url" yaml:"base_url"`
	APIKey     string        `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Model      string        `mapstructure:"model" yaml:"model"`
	Dimensions int           `mapstructure:"dimensions" yaml:"dimensions"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// LLMConfig configures the vision-language provider used for structured
// extraction and, optionally, for narrative generation
type LLMConfig struct {
	Provider  string `mapstructure:"provider" yaml:"provider"`
	Model     string `mapstructure:"model" yaml:"model"`
	APIKey    string `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL   string `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Timeout   int    `mapstructure:"timeout" yaml:"timeout"`
	MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`
	Narrative bool   `mapstructure:"narrative" yaml:"narrative"`
}

// ExtractionConfig bounds individual extraction calls
type ExtractionConfig struct {
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxPages int           `mapstructure:"max_pages" yaml:"max_pages"`
}

// ConcurrencyConfig bounds the fan-out within and across applications
type ConcurrencyConfig struct {
	ExtractionWorkers int     `mapstructure:"extraction_workers" yaml:"extraction_workers"`
	BatchWorkers      int     `mapstructure:"batch_workers" yaml:"batch_workers"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `mapstructure:"burst" yaml:"burst"`
}

// CacheConfig controls in-process caching of embeddings
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled" yaml:"enabled"`
	TTL             time.Duration `mapstructure:"ttl" yaml:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" yaml:"cleanup_interval"`
}

// EventsConfig controls publishing of finalized reports for the
// decision-memory loop
type EventsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Brokers string `mapstructure:"brokers" yaml:"brokers"`
	Topic   string `mapstructure:"topic" yaml:"topic"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr           string `mapstructure:"addr" yaml:"addr"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
}

// LoggingConfig configures the zap logger
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// ProxyConfig configures outbound HTTP proxying for external services
type ProxyConfig struct {
	HTTPProxy  string `mapstructure:"http_proxy" yaml:"http_proxy,omitempty"`
	HTTPSProxy string `mapstructure:"https_proxy" yaml:"https_proxy,omitempty"`
	NoProxy    string `mapstructure:"no_proxy" yaml:"no_proxy,omitempty"`
}

// OutputConfig controls CLI rendering
type OutputConfig struct {
	Verbose       bool `mapstructure:"verbose" yaml:"verbose"`
	IncludeFooter bool `mapstructure:"include_footer" yaml:"include_footer"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Thresholds: ThresholdConfig{
			Authenticity:    0.80,
			NameMatch:       0.85,
			NameCritical:    0.60,
			IncomeTolerance: 0.25,
		},
		Index: IndexConfig{
			DSN:       "postgres://localhost:5432/veridoc",
			Table:     "reference_documents",
			TopK:      20,
			VectorDim: 512,
		},
		Embedding: EmbeddingConfig{
			BaseURL:    "http://localhost:8000/v1",
			Model:      "clip-vit-b-32",
			Dimensions: 512,
			Timeout:    30 * time.Second,
		},
		LLM: LLMConfig{
			Provider:  "openai",
			Model:     "gpt-4o-mini",
			Timeout:   60,
			MaxTokens: 2048,
			Narrative: false,
		},
		Extraction: ExtractionConfig{
			Timeout:  90 * time.Second,
			MaxPages: 12,
		},
		Concurrency: ConcurrencyConfig{
			ExtractionWorkers: 4,
			BatchWorkers:      2,
			RequestsPerSecond: 2,
			Burst:             4,
		},
		Cache: CacheConfig{
			Enabled:         true,
			TTL:             15 * time.Minute,
			CleanupInterval: 30 * time.Minute,
		},
		Events: EventsConfig{
			Enabled: false,
			Brokers: "localhost:9092",
			Topic:   "loan-decision-reports",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			MaxUploadBytes: 32 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}
