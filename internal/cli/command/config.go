package command

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/kinance/kinance-go/internal/cli/config"
	"github.com/kinance/kinance-go/internal/cli/output"
	"github.com/kinance/kinance-go/internal/infra/confloader"
	"github.com/kinance/kinance-go/internal/telemetry/logger"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the effective configuration",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "sources",
						Usage: "Show which layer (default, file, env, flag) set each value",
					},
				},
				Action: configShow,
			},
			{
				Name:   "path",
				Usage:  "Print the configuration file path",
				Action: configPath,
			},
			{
				Name:  "init",
				Usage: "Write the effective configuration to the configuration file",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Overwrite an existing file",
					},
				},
				Action: configInit,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	cfg := *rt.Config
	if cfg.Store.EncryptionKey != "" {
		cfg.Store.EncryptionKey = logger.RedactedValue
	}

	settings := flatten(&cfg)
	if !c.Bool("sources") {
		return render(c, settings)
	}

	source := func(key string) string {
		if rt.ConfigLayers == nil {
			return string(confloader.SourceDefault)
		}
		return string(rt.ConfigLayers.Source(key))
	}

	if !tableOutput(c) {
		sourced := make(map[string]any, len(settings))
		for k, v := range settings {
			sourced[k] = map[string]any{"value": v, "source": source(k)}
		}
		return render(c, sourced)
	}

	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := &output.Table{Headers: []string{"KEY", "VALUE", "SOURCE"}}
	for _, k := range keys {
		table.AddRow(k, fmt.Sprint(settings[k]), source(k))
	}
	return render(c, table)
}

func configPath(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	path := rt.ConfigPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	status := ""
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		status = " (not created; defaults in use)"
	}
	fmt.Fprintf(c.App.Writer, "%s%s\n", path, status)
	return nil
}

func configInit(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	path := rt.ConfigPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists; use --force to overwrite", path)
	}

	cfg := *rt.Config
	// Session-scoped overrides are not persisted.
	cfg.Store.Ephemeral = false
	if err := config.Save(&cfg, path); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Configuration written to %s\n", path)
	return nil
}

// flatten lists the configuration by dotted key.
func flatten(cfg *config.CLIConfig) map[string]any {
	return map[string]any{
		"api.base_url":         cfg.API.BaseURL,
		"api.version":          cfg.API.Version,
		"api.timeout":          cfg.API.Timeout,
		"api.rate_limit":       cfg.API.RateLimit,
		"api.burst":            cfg.API.Burst,
		"api.tls.ca_file":      cfg.API.TLS.CAFile,
		"api.tls.ca_dir":       cfg.API.TLS.CADir,
		"api.tls.cert_file":    cfg.API.TLS.CertFile,
		"api.tls.key_file":     cfg.API.TLS.KeyFile,
		"store.dir":            cfg.Store.Dir,
		"store.namespace":      cfg.Store.Namespace,
		"store.encryption_key": cfg.Store.EncryptionKey,
		"store.ephemeral":      cfg.Store.Ephemeral,
		"log.level":            cfg.Log.Level,
		"log.format":           cfg.Log.Format,
		"auth.refresh_skew":    cfg.Auth.RefreshSkew,
		"metrics.textfile":     cfg.Metrics.Textfile,
		"shell.history_file":   cfg.Shell.HistoryFile,
		"shell.history_size":   cfg.Shell.HistorySize,
		"output":               cfg.Output,
	}
}
