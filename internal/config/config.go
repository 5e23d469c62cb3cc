package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	SAM        SAMConfig        `yaml:"sam" mapstructure:"sam"`
	GovWin     GovWinConfig     `yaml:"govwin" mapstructure:"govwin"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Matcher    MatcherConfig    `yaml:"matcher" mapstructure:"matcher"`
	Analyzer   AnalyzerConfig   `yaml:"analyzer" mapstructure:"analyzer"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Notify     NotifyConfig     `yaml:"notify" mapstructure:"notify"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// SAMConfig holds SAM.gov public API settings.
type SAMConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	PTypes  string `yaml:"ptypes" mapstructure:"ptypes"`
	NAICS   string `yaml:"naics" mapstructure:"naics"`
	Limit   int    `yaml:"limit" mapstructure:"limit"`
	// WindowDays is how far back the posted-date window reaches on each
	// fetch run.
	WindowDays int `yaml:"window_days" mapstructure:"window_days"`
}

// GovWinConfig holds GovWin WSAPI OAuth credentials and tuning.
type GovWinConfig struct {
	ClientID       string  `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret   string  `yaml:"client_secret" mapstructure:"client_secret"`
	Username       string  `yaml:"username" mapstructure:"username"`
	Password       string  `yaml:"password" mapstructure:"password"`
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
}

// AnthropicConfig holds the oracle model settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// MatcherConfig tunes the cross-source matching pipeline. The thresholds are
// policy values, not domain constants; defaults mirror the production cron.
type MatcherConfig struct {
	MinFitScore         float64 `yaml:"min_fit_score" mapstructure:"min_fit_score"`
	BatchLimit          int     `yaml:"batch_limit" mapstructure:"batch_limit"`
	MaxCandidates       int     `yaml:"max_candidates" mapstructure:"max_candidates"`
	AdmitThreshold      int     `yaml:"admit_threshold" mapstructure:"admit_threshold"`
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	ConfidenceFloor     float64 `yaml:"confidence_floor" mapstructure:"confidence_floor"`
	LikelyThreshold     float64 `yaml:"likely_threshold" mapstructure:"likely_threshold"`
	ConfirmThreshold    float64 `yaml:"confirm_threshold" mapstructure:"confirm_threshold"`
	SearchTimeoutSecs   int     `yaml:"search_timeout_secs" mapstructure:"search_timeout_secs"`
	OracleTimeoutSecs   int     `yaml:"oracle_timeout_secs" mapstructure:"oracle_timeout_secs"`
}

// AnalyzerConfig tunes the fit-scoring stage.
type AnalyzerConfig struct {
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`
	Limit     int `yaml:"limit" mapstructure:"limit"`
}

// NotionConfig holds the Notion list sink settings.
type NotionConfig struct {
	Token   string `yaml:"token" mapstructure:"token"`
	MatchDB string `yaml:"match_db" mapstructure:"match_db"`
}

// SalesforceConfig holds the CRM sink settings.
type SalesforceConfig struct {
	ClientID string `yaml:"client_id" mapstructure:"client_id"`
	Username string `yaml:"username" mapstructure:"username"`
	KeyPath  string `yaml:"key_path" mapstructure:"key_path"`
	LoginURL string `yaml:"login_url" mapstructure:"login_url"`
}

// NotifyConfig holds the chat webhook settings.
type NotifyConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// ServerConfig configures the review API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SAMRESEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8000)
	v.SetDefault("sam.base_url", "https://api.sam.gov/opportunities/v2")
	v.SetDefault("sam.ptypes", "o,k")
	v.SetDefault("sam.limit", 100)
	v.SetDefault("sam.naics", "541611,541618")
	v.SetDefault("sam.window_days", 2)
	v.SetDefault("govwin.base_url", "https://services.govwin.com/neo-ws")
	v.SetDefault("govwin.requests_per_sec", 2.0)
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("matcher.min_fit_score", 7)
	v.SetDefault("matcher.batch_limit", 50)
	v.SetDefault("matcher.max_candidates", 10)
	v.SetDefault("matcher.admit_threshold", 40)
	v.SetDefault("matcher.similarity_threshold", 0.6)
	v.SetDefault("matcher.confidence_floor", 31)
	v.SetDefault("matcher.likely_threshold", 61)
	v.SetDefault("matcher.confirm_threshold", 86)
	v.SetDefault("matcher.search_timeout_secs", 30)
	v.SetDefault("matcher.oracle_timeout_secs", 120)
	v.SetDefault("analyzer.batch_size", 10)
	v.SetDefault("analyzer.limit", 200)
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the credentials a stage needs are present. Missing
// credentials are fatal at job start for that stage only; other stages run
// unaffected.
func (c *Config) Validate(stage string) error {
	switch stage {
	case "store":
		if c.Store.DatabaseURL == "" {
			return eris.New("config: store.database_url is required")
		}
	case "fetch":
		if err := c.Validate("store"); err != nil {
			return err
		}
		if c.SAM.Key == "" {
			return eris.New("config: sam.key is required for fetch")
		}
	case "score":
		if err := c.Validate("store"); err != nil {
			return err
		}
		if c.Anthropic.Key == "" {
			return eris.New("config: anthropic.key is required for score")
		}
	case "match":
		if err := c.Validate("store"); err != nil {
			return err
		}
		if c.Anthropic.Key == "" {
			return eris.New("config: anthropic.key is required for match")
		}
		if c.GovWin.ClientID == "" || c.GovWin.ClientSecret == "" ||
			c.GovWin.Username == "" || c.GovWin.Password == "" {
			return eris.New("config: govwin credentials (client_id, client_secret, username, password) are required for match")
		}
	case "export":
		if err := c.Validate("store"); err != nil {
			return err
		}
		if c.Notion.Token == "" && c.Salesforce.ClientID == "" && c.Notify.WebhookURL == "" {
			return eris.New("config: export needs at least one sink (notion.token, salesforce.client_id, or notify.webhook_url)")
		}
	default:
		return eris.Errorf("config: unknown stage %q", stage)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
