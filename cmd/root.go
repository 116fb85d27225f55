package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/jobflow/internal/ai"
	"github.com/spigell/jobflow/internal/ai/gemini"
	"github.com/spigell/jobflow/internal/backend"
	"github.com/spigell/jobflow/internal/logger"
	"github.com/spigell/jobflow/internal/secrets"
	"github.com/spigell/jobflow/internal/session"
)

const (
	app = "jobflow"

	defaultMaxLogLength = 200
)

type Config struct {
	Backend  *BackendConfig  `mapstructure:"backend"`
	Analysis *AnalysisConfig `mapstructure:"analysis"`
	AI       *AIConfig       `mapstructure:"ai"`
	Log      *LogConfig      `mapstructure:"log"`
}

type BackendConfig struct {
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user-agent"`
}

type AnalysisConfig struct {
	Provider    string `mapstructure:"provider"`
	StrictScore bool   `mapstructure:"strict-score"`
}

type AIConfig struct {
	Gemini *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

type LogConfig struct {
	MaxLength int `mapstructure:"max-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobflow extracts resumes, scrapes job postings and scores how well they match",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	for key, variable := range map[string]string{
		"backend.url":            "JOBFLOW_BACKEND_URL",
		"ai.gemini.api-key":      "GEMINI_API_KEY",
		"ai.gemini.api-key-file": "GEMINI_API_KEY_FILE",
	} {
		if err := viper.BindEnv(key, variable); err != nil {
			log.Fatalf("binding %s environment variable: %v", variable, err)
		}
	}

	setDefaults(viper.GetViper())

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobflow.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("backend", "", "base url of the resume services (default "+backend.DefaultBaseURL+")")
	rootCmd.PersistentFlags().String("provider", "", "match analysis provider: backend or gemini")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("backend.url", rootCmd.PersistentFlags().Lookup("backend"))
	viper.BindPFlag("analysis.provider", rootCmd.PersistentFlags().Lookup("provider"))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.url", backend.DefaultBaseURL)
	v.SetDefault("backend.timeout", backend.DefaultTimeout)
	v.SetDefault("analysis.provider", ai.ProviderBackend)
	v.SetDefault("analysis.strict-score", false)
	v.SetDefault("log.max-length", defaultMaxLogLength)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Every command works with defaults, so only a broken config is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config == nil {
		config = &Config{}
	}
	if config.Backend == nil {
		config.Backend = &BackendConfig{}
	}
	if config.Analysis == nil {
		config.Analysis = &AnalysisConfig{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	if config.Log == nil {
		config.Log = &LogConfig{}
	}

	return config, nil
}

// env is what every command needs: a logger, the config and the service client.
type env struct {
	logger *zap.Logger
	config *Config
	client *backend.Client
}

func setup() *env {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Debug("starting", zap.String("version", version), zap.Any("config", redacted(config)))

	return &env{
		logger: logger,
		config: config,
		client: newBackend(config, logger),
	}
}

func newBackend(config *Config, logger *zap.Logger) *backend.Client {
	client := backend.New(logger.With(zap.String("component", "backend")))

	if url := strings.TrimSpace(config.Backend.URL); url != "" {
		client.BaseURL = url
	}
	if config.Backend.Timeout > 0 {
		client.HTTPClient.Timeout = config.Backend.Timeout
	}
	if config.Backend.UserAgent != "" {
		client.UserAgent = config.Backend.UserAgent
	}
	if config.Log.MaxLength > 0 {
		client.MaxLogLength = config.Log.MaxLength
	}
	client.StrictScore = config.Analysis.StrictScore

	return client
}

// newAnalyzer returns the configured match analysis provider.
func newAnalyzer(ctx context.Context, config *Config, client *backend.Client, logger *zap.Logger) (ai.Analyzer, error) {
	provider := strings.TrimSpace(strings.ToLower(config.Analysis.Provider))

	switch provider {
	case "", ai.ProviderBackend:
		return client, nil
	case ai.ProviderGemini:
	default:
		return nil, fmt.Errorf("unsupported analysis provider: %s", config.Analysis.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: config.AI.Gemini.APIKey,
		File:  config.AI.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY_FILE)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, config.AI.Gemini.Model)
	if err != nil {
		return nil, err
	}

	analyzerLogger := logger.With(
		zap.String("provider", ai.ProviderGemini),
		zap.String("model", generator.Model()),
	)

	return gemini.NewAnalyzer(generator, analyzerLogger, config.Analysis.StrictScore, config.Log.MaxLength), nil
}

func (e *env) newSession(ctx context.Context) (*session.Session, error) {
	analyzer, err := newAnalyzer(ctx, e.config, e.client, e.logger)
	if err != nil {
		return nil, fmt.Errorf("building analyzer: %w", err)
	}

	return session.New(ctx, session.Services{
		Extractor: e.client,
		Scraper:   e.client,
		Analyzer:  analyzer,
	}, e.logger.With(zap.String("component", "session")))
}

// redacted returns a copy of config that is safe to log.
func redacted(config *Config) Config {
	c := *config
	if config.AI != nil && config.AI.Gemini != nil && config.AI.Gemini.APIKey != "" {
		g := *config.AI.Gemini
		g.APIKey = "***"
		c.AI = &AIConfig{Gemini: &g}
	}
	return c
}
