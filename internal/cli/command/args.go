package command

import (
	"flag"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"
)

// stringFlags reads string flags of a subcommand that takes an ID. urfave/cli
// stops parsing at the first positional argument, so "update b1 --amount 650"
// leaves the flags in Args; they are parsed here and win over the same flag
// given before the ID.
type stringFlags struct {
	c     *cli.Context
	after map[string]string
}

// trailingFlags parses the arguments after the first one against flags.
// Only string flags are supported. A second positional argument is an error.
func trailingFlags(c *cli.Context, flags []cli.Flag) (*stringFlags, error) {
	sf := &stringFlags{c: c, after: map[string]string{}}
	tail := c.Args().Tail()
	if len(tail) == 0 {
		return sf, nil
	}

	set := flag.NewFlagSet(c.Command.Name, flag.ContinueOnError)
	set.SetOutput(io.Discard)
	primary := map[string]string{}
	for _, f := range flags {
		names := f.Names()
		for _, n := range names {
			set.String(n, "", "")
			primary[n] = names[0]
		}
	}
	if err := set.Parse(tail); err != nil {
		return nil, err
	}
	if set.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument %q", set.Arg(0))
	}
	set.Visit(func(f *flag.Flag) {
		sf.after[primary[f.Name]] = f.Value.String()
	})
	return sf, nil
}

// IsSet reports whether name was given before or after the ID.
func (f *stringFlags) IsSet(name string) bool {
	if _, ok := f.after[name]; ok {
		return true
	}
	return f.c.IsSet(name)
}

// String returns the value of name.
func (f *stringFlags) String(name string) string {
	if v, ok := f.after[name]; ok {
		return v
	}
	return f.c.String(name)
}
