package command

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/kinance/kinance-go/internal/cli/config"
	"github.com/kinance/kinance-go/internal/cli/output"
	"github.com/kinance/kinance-go/internal/infra/buildinfo"
	"github.com/kinance/kinance-go/internal/telemetry/logger"
)

// runtimeKey is the App.Metadata key holding the *Runtime.
const runtimeKey = "runtime"

// ErrNotSignedIn is returned by commands that need a stored session.
var ErrNotSignedIn = errors.New("not signed in; run 'kinance-cli login' first")

// App creates the CLI application. Without a command it starts the
// interactive shell.
func App() *cli.App {
	app := newApp(nil)
	app.Commands = append(app.Commands, ShellCommand())
	app.Action = shellAction
	app.Before = before
	app.After = after
	return app
}

// newApp builds the command tree. A non-nil rt is shared instead of being
// created from configuration, as the shell does for every line it runs.
func newApp(rt *Runtime) *cli.App {
	app := &cli.App{
		Name:    buildinfo.Product,
		Usage:   "Kinance family finance from the command line",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			LoginCommand(),
			RegisterCommand(),
			LogoutCommand(),
			StatusCommand(),
			WhoamiCommand(),
			RefreshCommand(),
			ProfileCommand(),
			FamilyCommand(),
			BudgetCommand(),
			TransactionCommand(),
			ReceiptCommand(),
			ConfigCommand(),
		},
	}
	if rt != nil {
		app.HideVersion = true
		app.Flags = shellFlags()
		app.Before = func(c *cli.Context) error {
			c.App.Metadata[runtimeKey] = rt
			if c.Bool("verbose") {
				logger.SetLevel("debug")
			}
			return nil
		}
		app.After = func(c *cli.Context) error {
			if c.Bool("verbose") {
				logger.SetLevel(rt.Config.Log.Level)
			}
			return nil
		}
	}
	return app
}

// processFlags pick the runtime and cannot change once it is built.
var processFlags = map[string]bool{"server": true, "config": true, "ephemeral": true}

// shellFlags are the global flags accepted on a shell line.
func shellFlags() []cli.Flag {
	var flags []cli.Flag
	for _, f := range globalFlags() {
		if !processFlags[f.Names()[0]] {
			flags = append(flags, f)
		}
	}
	return flags
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Kinance API address (e.g. https://api.kinance.io)",
			EnvVars: []string{"KINANCE_SERVER"},
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Configuration file",
			Value:   config.DefaultConfigPath(),
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging",
		},
		&cli.BoolFlag{
			Name:  "ephemeral",
			Usage: "Keep credentials in memory for this process only",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Server     string
	ConfigPath string
	Output     string
	Wide       bool
	Verbose    bool
	Ephemeral  bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Server:     c.String("server"),
		ConfigPath: c.String("config"),
		Output:     c.String("output"),
		Wide:       c.Bool("wide"),
		Verbose:    c.Bool("verbose"),
		Ephemeral:  c.Bool("ephemeral"),
	}
}

// overrides maps the flags that were given onto configuration keys.
func (f *GlobalFlags) overrides() map[string]any {
	m := map[string]any{}
	if f.Server != "" {
		m["api.base_url"] = f.Server
	}
	if f.Output != "" {
		m["output"] = f.Output
	}
	if f.Verbose {
		m["log.level"] = "debug"
	}
	if f.Ephemeral {
		m["store.ephemeral"] = true
	}
	return m
}

func before(c *cli.Context) error {
	flags := ParseGlobalFlags(c)
	cfg, layers, err := config.LoadSources(flags.ConfigPath, flags.overrides())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	rt, err := NewRuntime(cfg, flags.ConfigPath, c.App.ErrWriter)
	if err != nil {
		return err
	}
	rt.ConfigLayers = layers
	c.App.Metadata[runtimeKey] = rt
	return nil
}

func after(c *cli.Context) error {
	rt, ok := c.App.Metadata[runtimeKey].(*Runtime)
	if !ok {
		return nil
	}
	delete(c.App.Metadata, runtimeKey)
	return rt.Close()
}

// GetRuntime retrieves the runtime from context.
func GetRuntime(c *cli.Context) (*Runtime, error) {
	if rt, ok := c.App.Metadata[runtimeKey].(*Runtime); ok {
		return rt, nil
	}
	return nil, errors.New("runtime not initialized")
}

// EnsureSignedIn returns the runtime when a session is stored. The access
// token is refreshed first when it expires within auth.refresh_skew; a
// failed proactive refresh is left to the 401 path of the request.
func EnsureSignedIn(c *cli.Context) (*Runtime, error) {
	rt, err := GetRuntime(c)
	if err != nil {
		return nil, err
	}

	ok, err := rt.Sessions.IsAuthenticated(c.Context)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotSignedIn
	}

	if skew := rt.Config.Auth.RefreshSkewDuration(); skew > 0 {
		refreshed, err := rt.Sessions.EnsureFresh(c.Context, skew)
		switch {
		case err != nil:
			rt.Logger.Warn("proactive token refresh failed", "error", err)
		case refreshed:
			rt.Logger.Debug("access token refreshed ahead of expiry")
		}
	}
	return rt, nil
}

// selectedFormat is the --output flag, or the configured default.
func selectedFormat(c *cli.Context) (output.Format, error) {
	rt, err := GetRuntime(c)
	if err != nil {
		return "", err
	}
	name := rt.Config.Output
	if c.IsSet("output") {
		name = c.String("output")
	}
	return output.ParseFormat(name)
}

// render writes data in the selected output format.
func render(c *cli.Context, data any) error {
	format, err := selectedFormat(c)
	if err != nil {
		return err
	}
	return output.NewFormatter(format, c.Bool("wide")).Format(c.App.Writer, data)
}

// tableOutput reports whether the table format is selected.
func tableOutput(c *cli.Context) bool {
	format, err := selectedFormat(c)
	return err == nil && format == output.FormatTable
}

// lineReader returns the buffered reader over the App input, installing
// it on first use so that consecutive prompts share buffered input.
func lineReader(c *cli.Context) *bufio.Reader {
	if br, ok := c.App.Reader.(*bufio.Reader); ok {
		return br
	}
	br := bufio.NewReader(c.App.Reader)
	c.App.Reader = br
	return br
}

// prompt reads one line for label from the App input.
func prompt(c *cli.Context, label string) (string, error) {
	fmt.Fprintf(c.App.ErrWriter, "%s: ", label)
	line, err := lineReader(c).ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("read %s: %w", label, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// stringOrPrompt returns the flag value, prompting when it is empty.
func stringOrPrompt(c *cli.Context, flag, label string) (string, error) {
	if v := c.String(flag); v != "" {
		return v, nil
	}
	return prompt(c, label)
}
