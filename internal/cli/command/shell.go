package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/kinance/kinance-go/internal/cli/repl"
)

// routeAccess overrides the default MemberOnly access per command.
var routeAccess = map[string]repl.Access{
	"login":    repl.GuestOnly,
	"register": repl.GuestOnly,
	"status":   repl.Public,
	"config":   repl.Public,
}

// ShellCommand returns the shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:   "shell",
		Usage:  "Start the interactive shell",
		Action: shellAction,
	}
}

func shellAction(c *cli.Context) error {
	if c.NArg() > 0 {
		return fmt.Errorf("unknown command %q; run '%s help'", c.Args().First(), c.App.Name)
	}

	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	history := repl.NewHistory(rt.Config.Shell.HistoryFile, rt.Config.Shell.HistorySize)
	if err := history.Load(); err != nil {
		rt.Logger.Warn("load shell history", "error", err)
	}

	input := lineReader(c)
	exec := func(ctx context.Context, args []string) error {
		sub := newApp(rt)
		sub.Reader = input
		sub.Writer = c.App.Writer
		sub.ErrWriter = c.App.ErrWriter
		sub.ExitErrHandler = func(*cli.Context, error) {}

		err := sub.RunContext(ctx, append([]string{sub.Name}, args...))
		if err != nil {
			return errors.New(DescribeError(err))
		}
		return nil
	}

	shell := repl.New(rt.State, exec, repl.Config{
		Input:   input,
		Output:  c.App.Writer,
		Routes:  shellRoutes(newApp(nil).Commands),
		History: history,
		Logger:  rt.Logger,

		ValueFlags: valueFlags(globalFlags()),
	})
	runErr := shell.Run(c.Context)

	if err := history.Save(); err != nil {
		rt.Logger.Warn("save shell history", "error", err)
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

// shellRoutes derives the shell routes from the command tree.
func shellRoutes(cmds []*cli.Command) []repl.Route {
	routes := make([]repl.Route, 0, len(cmds))
	for _, cmd := range cmds {
		access, ok := routeAccess[cmd.Name]
		if !ok {
			access = repl.MemberOnly
		}

		var subs []string
		for _, sub := range cmd.Subcommands {
			subs = append(subs, sub.Names()...)
		}

		routes = append(routes, repl.Route{
			Name:        cmd.Name,
			Aliases:     cmd.Aliases,
			Usage:       cmd.Usage,
			Subcommands: subs,
			Access:      access,
		})
	}
	return routes
}

// valueFlags lists the spellings of the flags that take a value.
func valueFlags(flags []cli.Flag) []string {
	var out []string
	for _, f := range flags {
		if _, isBool := f.(*cli.BoolFlag); isBool {
			continue
		}
		for _, name := range f.Names() {
			out = append(out, "-"+name, "--"+name)
		}
	}
	return out
}
