package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bnema/sessionkeys/internal/adapters/evm"
	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
)

const (
	StoreTOML   = "toml"
	StoreSQLite = "sqlite"

	configFileName = "config"
	configFileType = "toml"
)

// Settings are the process-level knobs read from SK_* environment variables.
type Settings struct {
	Home           string        `env:"SK_HOME"`
	Store          string        `env:"SK_STORE" envDefault:"toml"`
	SQLitePath     string        `env:"SK_SQLITE_PATH"`
	SealingKey     string        `env:"SK_SEALING_KEY"`
	ListenAddr     string        `env:"SK_LISTEN_ADDR" envDefault:"127.0.0.1:8787"`
	LogLevel       string        `env:"SK_LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"SK_LOG_FORMAT" envDefault:"console"`
	LogProduction  bool          `env:"SK_LOG_PRODUCTION"`
	PollAttempts   int           `env:"SK_POLL_ATTEMPTS" envDefault:"30"`
	PollDelay      time.Duration `env:"SK_POLL_DELAY" envDefault:"10s"`
	ReceiptTimeout time.Duration `env:"SK_RECEIPT_TIMEOUT" envDefault:"3m"`
	Policy         string        `env:"SK_POLICY" envDefault:"scoped"`
	AcrossBaseURL  string        `env:"SK_ACROSS_URL"`
	AccountIndex   uint64        `env:"SK_ACCOUNT_INDEX"`
}

// ParseEnv loads Settings from the environment and fills path defaults
// under the user's home directory.
func ParseEnv() (Settings, error) {
	var settings Settings
	if err := env.Parse(&settings); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}

	if settings.Home == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return Settings{}, fmt.Errorf("resolve home directory: %w", err)
		}
		settings.Home = filepath.Join(homeDir, ".sessionkeys")
	}
	if settings.SQLitePath == "" {
		settings.SQLitePath = filepath.Join(settings.Home, "sessionkeys.db")
	}

	settings.Store = strings.ToLower(strings.TrimSpace(settings.Store))
	if settings.Store != StoreTOML && settings.Store != StoreSQLite {
		return Settings{}, fmt.Errorf("unsupported store %q", settings.Store)
	}
	if settings.PollAttempts <= 0 {
		return Settings{}, errors.New("SK_POLL_ATTEMPTS must be positive")
	}
	if _, err := domain.ParsePolicyKind(settings.Policy); err != nil {
		return Settings{}, err
	}

	return settings, nil
}

func (s Settings) SecretsDir() string {
	return filepath.Join(s.Home, "secrets")
}

// LoadFile reads <home>/config.toml into a viper instance. A missing file
// yields an empty configuration.
func LoadFile(home string) (*viper.Viper, error) {
	cfg := viper.New()
	cfg.SetConfigName(configFileName)
	cfg.SetConfigType(configFileType)
	cfg.AddConfigPath(home)

	if err := cfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return cfg, nil
}

// ChainEndpoints reads chains.<name>.{rpc_url,bundler_url,paymaster_url}
// for every supported chain. Chains without a section are left out.
func ChainEndpoints(cfg *viper.Viper) (map[domain.ChainID]evm.Endpoints, error) {
	endpoints := make(map[domain.ChainID]evm.Endpoints)
	for _, id := range domain.SupportedChains() {
		chain, err := domain.LookupChain(id)
		if err != nil {
			return nil, err
		}

		key := "chains." + chain.Name
		if !cfg.IsSet(key) {
			continue
		}

		var entry evm.Endpoints
		if err := cfg.UnmarshalKey(key, &entry); err != nil {
			return nil, fmt.Errorf("decode %s: %w", key, err)
		}
		endpoints[id] = entry
	}

	return endpoints, nil
}
