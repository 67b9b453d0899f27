package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bnema/sessionkeys/internal/adapters/aa/kernel"
	"github.com/bnema/sessionkeys/internal/adapters/bridge/across"
	"github.com/bnema/sessionkeys/internal/adapters/evm"
	"github.com/bnema/sessionkeys/internal/adapters/market/aave"
	statusadapter "github.com/bnema/sessionkeys/internal/adapters/render/status"
	sqliterepo "github.com/bnema/sessionkeys/internal/adapters/repo/sqlite"
	tomlrepo "github.com/bnema/sessionkeys/internal/adapters/repo/toml"
	chainstore "github.com/bnema/sessionkeys/internal/adapters/secrets/chain"
	passstore "github.com/bnema/sessionkeys/internal/adapters/secrets/pass"
	"github.com/bnema/sessionkeys/internal/adapters/secrets/sealed"
	"github.com/bnema/sessionkeys/internal/adapters/signer/local"
	"github.com/bnema/sessionkeys/internal/application"
	"github.com/bnema/sessionkeys/internal/config"
	"github.com/bnema/sessionkeys/internal/domain"
	"github.com/bnema/sessionkeys/internal/logging"
	"github.com/bnema/sessionkeys/internal/metrics"
	"github.com/bnema/sessionkeys/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const delegationsFile = "delegations.toml"

type app struct {
	settings       config.Settings
	factory        *application.ManagerFactory
	provider       ports.AccountAbstractionProvider
	custodian      *local.Custodian
	registry       *prometheus.Registry
	logger         *zap.Logger
	statusRenderer func(statusadapter.Report, statusadapter.RenderOptions) (string, error)
	closers        []func() error
}

func (a *app) Close() error {
	_ = a.logger.Sync()

	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func wireApp() (*app, error) {
	settings, err := config.ParseEnv()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	logger, err := logging.Config{
		Production: settings.LogProduction,
		Level:      settings.LogLevel,
		Format:     settings.LogFormat,
	}.Build()
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	fileCfg, err := config.LoadFile(settings.Home)
	if err != nil {
		return nil, err
	}
	endpoints, err := config.ChainEndpoints(fileCfg)
	if err != nil {
		return nil, fmt.Errorf("load chain endpoints: %w", err)
	}
	policyKind, err := domain.ParsePolicyKind(settings.Policy)
	if err != nil {
		return nil, err
	}

	var secrets ports.SecretStore
	secrets, err = chainstore.NewPassFirstWithFileFallback(passstore.DefaultPrefix, settings.SecretsDir())
	if err != nil {
		return nil, fmt.Errorf("wire secret store chain: %w", err)
	}
	var sealingKey []byte
	if settings.SealingKey != "" {
		if sealingKey, err = sealed.ParseKey(settings.SealingKey); err != nil {
			return nil, err
		}
		if secrets, err = sealed.NewStore(secrets, sealingKey); err != nil {
			return nil, fmt.Errorf("wire sealed secret store: %w", err)
		}
	}

	a := &app{
		settings:       settings,
		custodian:      local.NewCustodian(secrets),
		provider:       kernel.NewProvider(kernel.WithIndex(settings.AccountIndex)),
		registry:       prometheus.NewRegistry(),
		logger:         logger,
		statusRenderer: statusadapter.Render,
	}

	store, closeStore, err := wireDelegationStore(settings, fileCfg, secrets, sealingKey)
	if err != nil {
		return nil, err
	}
	if closeStore != nil {
		a.closers = append(a.closers, closeStore)
	}

	a.factory = application.NewManagerFactory(application.ManagerDeps{
		Store:    store,
		Provider: a.provider,
		Backend: &evm.Backend{
			Endpoints:      endpoints,
			ReceiptTimeout: settings.ReceiptTimeout,
			Logger:         logger.Named("bundler"),
		},
		Bridge:     &across.Route{BaseURL: settings.AcrossBaseURL},
		Market:     aave.Market{},
		Recorder:   metrics.NewRecorder(a.registry),
		Clock:      ports.SystemClock{},
		Logger:     logger,
		PolicyKind: policyKind,
		Poll: application.PollConfig{
			MaxAttempts: settings.PollAttempts,
			Delay:       settings.PollDelay,
		},
	})

	return a, nil
}

// wireDelegationStore picks the TOML or SQLite store. The SQLite store keeps
// session keys in its own table, sealed when a sealing key is configured.
func wireDelegationStore(settings config.Settings, fileCfg *viper.Viper, secrets ports.SecretStore, sealingKey []byte) (ports.DelegationStore, func() error, error) {
	switch settings.Store {
	case config.StoreSQLite:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		store, err := sqliterepo.Open(ctx, settings.SQLitePath, nil, ports.SystemClock{})
		if err != nil {
			return nil, nil, fmt.Errorf("wire sqlite delegation store: %w", err)
		}
		if sealingKey != nil {
			sealedSecrets, err := sealed.NewStore(store.Secrets(), sealingKey)
			if err != nil {
				_ = store.Close()
				return nil, nil, fmt.Errorf("wire sealed sqlite secrets: %w", err)
			}
			store.UseSecrets(sealedSecrets)
		}
		return store, store.Close, nil
	default:
		if !fileCfg.IsSet(tomlrepo.DelegationsPathKey) {
			fileCfg.Set(tomlrepo.DelegationsPathKey, filepath.Join(settings.Home, delegationsFile))
		}
		repo, err := tomlrepo.NewRepository(fileCfg, secrets, ports.SystemClock{})
		if err != nil {
			return nil, nil, fmt.Errorf("wire delegation repository: %w", err)
		}
		return repo, nil, nil
	}
}
