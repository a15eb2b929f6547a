package command

import (
	"errors"
	"fmt"
	"io"

	"github.com/kinance/kinance-go/internal/cli/config"
	"github.com/kinance/kinance-go/internal/client/apiclient"
	"github.com/kinance/kinance-go/internal/client/credstore"
	"github.com/kinance/kinance-go/internal/client/resource"
	"github.com/kinance/kinance-go/internal/client/session"
	"github.com/kinance/kinance-go/internal/client/state"
	"github.com/kinance/kinance-go/internal/infra/confloader"
	"github.com/kinance/kinance-go/internal/infra/tlsroots"
	"github.com/kinance/kinance-go/internal/telemetry/logger"
	"github.com/kinance/kinance-go/internal/telemetry/metric"
)

// Runtime is the client stack shared by all commands of one process.
type Runtime struct {
	Config     *config.CLIConfig
	ConfigPath string
	// ConfigLayers reports where each setting came from. Nil means defaults.
	ConfigLayers *confloader.Loader

	Logger  logger.Logger
	Metrics *metric.Registry

	Store     credstore.Store
	TLS       *tlsroots.Watcher
	Client    *apiclient.Client
	Sessions  *session.Manager
	State     *state.Store
	Resources *resource.Clients
}

// NewRuntime wires the client stack for cfg. Logs go to logw.
func NewRuntime(cfg *config.CLIConfig, configPath string, logw io.Writer) (*Runtime, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: logw,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)

	metrics := metric.NewRegistry()

	tlsConf, certWatcher, err := tlsroots.ClientConfig(tlsroots.Options{
		CAFile:   cfg.API.TLS.CAFile,
		CADir:    cfg.API.TLS.CADir,
		CertFile: cfg.API.TLS.CertFile,
		KeyFile:  cfg.API.TLS.KeyFile,
		Logger:   log,
	})
	if err != nil {
		return nil, fmt.Errorf("api tls: %w", err)
	}

	store, err := openStore(cfg.Store, log, metrics)
	if err != nil {
		if certWatcher != nil {
			certWatcher.Stop()
		}
		return nil, err
	}
	if certWatcher != nil {
		certWatcher.StartAsync()
	}

	client := apiclient.New(apiclient.Config{
		BaseURL:    cfg.API.BaseURL,
		APIVersion: cfg.API.Version,
		Timeout:    cfg.API.TimeoutDuration(),
		RateLimit:  cfg.API.RateLimit,
		Burst:      cfg.API.Burst,
		TLS:        tlsConf,
	}, store, apiclient.WithLogger(log), apiclient.WithMetrics(metrics))

	sessions := session.NewManager(client, store,
		session.WithLogger(log),
		session.WithMetrics(metrics))

	log.Debug("runtime ready",
		"base_url", cfg.API.BaseURL,
		"config", configPath,
		"ephemeral", cfg.Store.Ephemeral)

	return &Runtime{
		Config:     cfg,
		ConfigPath: configPath,
		Logger:     log,
		Metrics:    metrics,
		Store:      store,
		TLS:        certWatcher,
		Client:     client,
		Sessions:   sessions,
		State:      state.New(sessions, log),
		Resources:  resource.New(client),
	}, nil
}

func openStore(cfg config.StoreConfig, log logger.Logger, metrics *metric.Registry) (credstore.Store, error) {
	if cfg.Ephemeral {
		return credstore.NewMemory(), nil
	}

	key, err := credstore.ParseEncryptionKey(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}
	return credstore.OpenBadger(credstore.BadgerOptions{
		Dir:           cfg.Dir,
		Namespace:     cfg.Namespace,
		EncryptionKey: key,
		Logger:        log,
		Metrics:       metrics,
	})
}

// Close releases the credential store, stops the client certificate
// watcher and writes the metrics textfile when one is configured.
func (rt *Runtime) Close() error {
	if rt.TLS != nil {
		rt.TLS.Stop()
	}

	var errs []error
	if path := rt.Config.Metrics.Textfile; path != "" {
		if err := rt.Metrics.WriteTextfile(path); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if err := rt.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close credential store: %w", err))
	}
	return errors.Join(errs...)
}
