package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const envPrefix = "VIZBUCK"

// Storage backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreMongo  = "mongo"
	StoreGCS    = "gcs"
)

// Classifier backends.
const (
	ClassifierGemini = "gemini"
	ClassifierRules  = "rules"
	ClassifierNone   = "none"
)

type Config struct {
	LogLevel string `mapstructure:"log_level"`

	Store           string `mapstructure:"store"`
	DataFile        string `mapstructure:"data_file"`
	MongoURI        string `mapstructure:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"`
	MongoCollection string `mapstructure:"mongo_collection"`
	GCSBucket       string `mapstructure:"gcs_bucket"`
	GCSObject       string `mapstructure:"gcs_object"`
	UserID          string `mapstructure:"user_id"`

	Classifier   string `mapstructure:"classifier"`
	RulesFile    string `mapstructure:"rules_file"`
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	GeminiModel  string `mapstructure:"gemini_model"`

	YNAB        YNABConfig `mapstructure:"ynab"`
	UseCustomID bool       `mapstructure:"use_custom_id"`

	Addr               string `mapstructure:"addr"`
	AnalyzeConcurrency int    `mapstructure:"analyze_concurrency"`
}

type YNABConfig struct {
	Token     string `mapstructure:"token"`
	BudgetID  string `mapstructure:"budget_id"`
	AccountID string `mapstructure:"account_id"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("store", StoreFile)
	v.SetDefault("data_file", "~/.vizbuck/ledger.json")
	v.SetDefault("mongo_database", "vizbuck")
	v.SetDefault("mongo_collection", "ledgers")
	v.SetDefault("gcs_object", "ledger.json")
	v.SetDefault("user_id", "default")
	v.SetDefault("classifier", ClassifierRules)
	v.SetDefault("gemini_model", "gemini-2.5-flash")
	v.SetDefault("use_custom_id", true)
	v.SetDefault("addr", ":8080")
	v.SetDefault("analyze_concurrency", 4)
	// Registered so env vars reach nested and secret keys with no file entry.
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("rules_file", "")
	v.SetDefault("mongo_uri", "")
	v.SetDefault("gcs_bucket", "")
	v.SetDefault("ynab.token", "")
	v.SetDefault("ynab.budget_id", "")
	v.SetDefault("ynab.account_id", "")
}

// Build layers defaults, the config file, VIZBUCK_* environment variables and
// flags, in increasing precedence. A .env file in the working directory is
// loaded into the environment first when present.
func Build(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".vizbuck"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		var bindErr error
		// --data-file binds to data_file.
		flags.VisitAll(func(f *pflag.Flag) {
			if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", bindErr)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory:
	case StoreFile:
		if c.DataFile == "" {
			return errors.New("data_file is required for the file store")
		}
	case StoreMongo:
		if c.MongoURI == "" {
			return errors.New("mongo_uri is required for the mongo store")
		}
	case StoreGCS:
		if c.GCSBucket == "" {
			return errors.New("gcs_bucket is required for the gcs store")
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}

	switch c.Classifier {
	case ClassifierRules, ClassifierNone:
	case ClassifierGemini:
		if c.GeminiAPIKey == "" {
			return errors.New("gemini_api_key is required for the gemini classifier")
		}
	default:
		return fmt.Errorf("unknown classifier %q", c.Classifier)
	}

	if c.AnalyzeConcurrency < 1 {
		return fmt.Errorf("analyze_concurrency must be positive, got %d", c.AnalyzeConcurrency)
	}
	return nil
}
