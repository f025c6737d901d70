// Package config loads the application configuration from viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/loanbot/internal/common"
	"github.com/Veraticus/loanbot/internal/eligibility"
	"github.com/Veraticus/loanbot/internal/llm"
	"github.com/Veraticus/loanbot/internal/service"
)

// EnvPrefix is the prefix of every environment override, e.g. LOANBOT_LLM_PROVIDER.
const EnvPrefix = "LOANBOT"

// Default values.
const (
	DefaultProvider     = llm.ProviderGemini
	DefaultTemperature  = 0.7
	DefaultTopP         = 0.95
	DefaultTopK         = 40
	DefaultMaxTokens    = 1024
	DefaultRateLimit    = 60
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRetries   = 3
	DefaultRetryDelay   = time.Second
	DefaultDatabasePath = "~/.local/share/loanbot/metrics.db"
	DefaultServerAddr   = ":8080"
)

// LLMConfig configures the language model collaborator.
type LLMConfig struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	RetryDelay  time.Duration
	Temperature float64
	TopP        float64
	TopK        int
	MaxTokens   int
	RateLimit   int
	MaxRetries  int
	// OfflineFallback is set when no API key was found and the offline provider was selected instead.
	OfflineFallback bool
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string
	Format string
}

// Config is the assembled application configuration.
type Config struct {
	Logging      LoggingConfig
	DatabasePath string
	ServerAddr   string
	LLM          LLMConfig
	Policy       eligibility.Policy
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", DefaultProvider)
	v.SetDefault("llm.temperature", DefaultTemperature)
	v.SetDefault("llm.top_p", DefaultTopP)
	v.SetDefault("llm.top_k", DefaultTopK)
	v.SetDefault("llm.max_tokens", DefaultMaxTokens)
	v.SetDefault("llm.rate_limit", DefaultRateLimit)
	v.SetDefault("llm.timeout", DefaultTimeout)
	v.SetDefault("llm.max_retries", DefaultMaxRetries)
	v.SetDefault("llm.retry_delay", DefaultRetryDelay)

	v.SetDefault("policy.min_monthly_income", eligibility.DefaultMinMonthlyIncome)
	v.SetDefault("policy.dti_approved_max", eligibility.DefaultDTIApprovedMax)
	v.SetDefault("policy.dti_conditional_max", eligibility.DefaultDTIConditionalMax)
	v.SetDefault("display.currency_symbol", eligibility.DefaultCurrencySymbol)

	v.SetDefault("storage.database", DefaultDatabasePath)
	v.SetDefault("server.addr", DefaultServerAddr)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// ConfigureEnv makes LOANBOT_SECTION_KEY variables override section.key.
func ConfigureEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load assembles and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		LLM: LLMConfig{
			Provider:    strings.ToLower(strings.TrimSpace(v.GetString("llm.provider"))),
			APIKey:      v.GetString("llm.api_key"),
			Model:       v.GetString("llm.model"),
			BaseURL:     v.GetString("llm.base_url"),
			Timeout:     v.GetDuration("llm.timeout"),
			Temperature: v.GetFloat64("llm.temperature"),
			TopP:        v.GetFloat64("llm.top_p"),
			TopK:        v.GetInt("llm.top_k"),
			MaxTokens:   v.GetInt("llm.max_tokens"),
			RateLimit:   v.GetInt("llm.rate_limit"),
			MaxRetries:  v.GetInt("llm.max_retries"),
			RetryDelay:  v.GetDuration("llm.retry_delay"),
		},
		Policy: eligibility.Policy{
			MinMonthlyIncome:  v.GetFloat64("policy.min_monthly_income"),
			DTIApprovedMax:    v.GetFloat64("policy.dti_approved_max"),
			DTIConditionalMax: v.GetFloat64("policy.dti_conditional_max"),
			CurrencySymbol:    v.GetString("display.currency_symbol"),
		},
		DatabasePath: ExpandPath(v.GetString("storage.database")),
		ServerAddr:   v.GetString("server.addr"),
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = DefaultProvider
	}
	resolveAPIKey(&cfg.LLM)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// resolveAPIKey falls back to the provider's conventional variable, then to offline mode.
func resolveAPIKey(c *LLMConfig) {
	if c.APIKey == "" {
		switch c.Provider {
		case llm.ProviderGemini:
			c.APIKey = os.Getenv("GEMINI_API_KEY")
		case llm.ProviderOpenAI:
			c.APIKey = os.Getenv("OPENAI_API_KEY")
		case llm.ProviderAnthropic:
			c.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	if c.APIKey == "" && c.Provider != llm.ProviderOffline {
		c.Provider = llm.ProviderOffline
		c.OfflineFallback = true
	}
}

// Validate checks the assembled configuration.
func (c Config) Validate() error {
	switch c.LLM.Provider {
	case llm.ProviderGemini, llm.ProviderOpenAI, llm.ProviderAnthropic, llm.ProviderOffline:
	default:
		return fmt.Errorf("%w: unsupported llm.provider %q", common.ErrInvalidConfig, c.LLM.Provider)
	}
	if c.LLM.MaxRetries <= 0 {
		return fmt.Errorf("%w: llm.max_retries must be positive", common.ErrInvalidConfig)
	}
	if c.LLM.RateLimit < 0 {
		return fmt.Errorf("%w: llm.rate_limit must not be negative", common.ErrInvalidConfig)
	}
	if _, err := common.ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: invalid log format %q", common.ErrInvalidConfig, c.Logging.Format)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("%w: storage.database", common.ErrMissingConfig)
	}
	return c.Policy.Validate()
}

// ClientConfig converts the LLM section for the client factory.
func (c LLMConfig) ClientConfig() llm.Config {
	return llm.Config{
		Provider:     c.Provider,
		APIKey:       c.APIKey,
		Model:        c.Model,
		BaseURL:      c.BaseURL,
		SystemPrompt: llm.DefaultSystemPrompt,
		Timeout:      c.Timeout,
		RateLimit:    c.RateLimit,
		Temperature:  c.Temperature,
		TopP:         c.TopP,
		TopK:         c.TopK,
		MaxTokens:    c.MaxTokens,
	}
}

// RetryOptions returns the exponential backoff policy for model calls.
func (c LLMConfig) RetryOptions() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  c.MaxRetries,
		InitialDelay: c.RetryDelay,
		MaxDelay:     30 * c.RetryDelay,
		Multiplier:   2,
	}
}

// ExpandPath resolves environment variables and a leading ~ in path.
func ExpandPath(path string) string {
	path = os.ExpandEnv(path)
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
