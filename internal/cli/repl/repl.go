package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/kinance/kinance-go/internal/cli/output"
	"github.com/kinance/kinance-go/internal/client/state"
	"github.com/kinance/kinance-go/internal/telemetry/logger"
)

// Prompt prefix shown before the signed-in user.
const promptName = "kinance"

// Session is the observable session state the shell navigates by.
type Session interface {
	Snapshot() state.Snapshot
	Subscribe(fn state.Listener) (unsubscribe func())
	CheckAuthStatus(ctx context.Context) error
}

// Executor runs one parsed command line.
type Executor func(ctx context.Context, args []string) error

// Config configures a REPL.
type Config struct {
	// Input defaults to an empty reader; pass os.Stdin for a terminal.
	Input  io.Reader
	Output io.Writer

	// Routes are the commands the shell can dispatch to the Executor.
	Routes []Route

	// ValueFlags are the leading flags that consume the next word, such
	// as "-o" in "-o json status".
	ValueFlags []string

	History *History
	Logger  logger.Logger
}

// REPL represents the Read-Eval-Print Loop.
type REPL struct {
	input     *bufio.Reader
	output    io.Writer
	session   Session
	exec      Executor
	completer *Completer
	history   *History
	logger    logger.Logger

	valueFlags map[string]bool

	mu      sync.Mutex
	current state.Snapshot
}

// builtins are handled by the shell itself.
var builtins = []Route{
	{Name: "help", Usage: "List the commands available now", Access: Public},
	{Name: "history", Usage: "Show command history", Access: Public},
	{Name: "exit", Aliases: []string{"quit"}, Usage: "Leave the shell", Access: Public},
}

// New creates a new REPL instance.
func New(session Session, exec Executor, cfg Config) *REPL {
	if cfg.Input == nil {
		cfg.Input = strings.NewReader("")
	}
	if cfg.Output == nil {
		cfg.Output = io.Discard
	}
	if cfg.History == nil {
		cfg.History = NewHistory("", 0)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	routes := append(append([]Route(nil), cfg.Routes...), builtins...)
	valueFlags := make(map[string]bool, len(cfg.ValueFlags))
	for _, f := range cfg.ValueFlags {
		valueFlags[f] = true
	}
	return &REPL{
		input:     bufio.NewReader(cfg.Input),
		output:    cfg.Output,
		session:   session,
		exec:      exec,
		completer: NewCompleter(routes),
		history:   cfg.History,
		logger:    cfg.Logger,

		valueFlags: valueFlags,
	}
}

// Run starts the REPL loop. It returns nil on exit or end of input.
func (r *REPL) Run(ctx context.Context) error {
	unsubscribe := r.session.Subscribe(r.observe)
	defer unsubscribe()

	r.resync(ctx)
	if !r.snapshot().IsAuthenticated {
		fmt.Fprintln(r.output, "Not signed in. Use 'login' or 'register', 'help' for more.")
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(r.output, r.prompt())

		line, err := r.input.ReadString('\n')
		if errors.Is(err, io.EOF) && line == "" {
			fmt.Fprintln(r.output)
			return nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.history.Add(line)

		args, perr := SplitLine(line)
		if perr != nil {
			fmt.Fprintf(r.output, "Error: %v\n", perr)
			continue
		}
		if len(args) == 0 {
			continue
		}

		if done := r.dispatch(ctx, args); done {
			return nil
		}
	}
}

// dispatch handles one command. It reports whether the shell should exit.
func (r *REPL) dispatch(ctx context.Context, args []string) bool {
	snap := r.snapshot()

	i := r.commandIndex(args)
	if i == len(args) {
		fmt.Fprintln(r.output, "Missing command. Type 'help' for the available commands.")
		return false
	}
	name := args[i]

	route, ok := r.completer.Route(name)
	if !ok {
		fmt.Fprintf(r.output, "Unknown command %q.", name)
		if s := r.completer.Complete(name, snap); len(s) > 0 {
			fmt.Fprintf(r.output, " Did you mean: %s?", strings.Join(s, ", "))
		}
		fmt.Fprintln(r.output, " Type 'help' for the available commands.")
		return false
	}
	if !route.Allowed(snap) {
		fmt.Fprintln(r.output, route.denial(snap))
		return false
	}

	switch route.Name {
	case "exit":
		return true
	case "help":
		r.help(snap, args[i+1:])
		return false
	case "history":
		r.printHistory()
		return false
	}

	if err := r.exec(ctx, args); err != nil {
		fmt.Fprintf(r.output, "Error: %v\n", err)
	}

	// Credentials may have changed underneath the state, e.g. a failed
	// refresh wipes them. Re-read so navigation follows the store.
	r.resync(ctx)
	return false
}

// commandIndex returns the position of the command word after any
// leading flags, or len(args) when there is none.
func (r *REPL) commandIndex(args []string) int {
	i := 0
	for i < len(args) && strings.HasPrefix(args[i], "-") {
		if r.valueFlags[args[i]] {
			i++
		}
		i++
	}
	if i > len(args) {
		return len(args)
	}
	return i
}

// observe receives every published snapshot and announces transitions.
func (r *REPL) observe(next state.Snapshot) {
	if next.IsLoading {
		return
	}

	r.mu.Lock()
	prev := r.current
	r.current = next
	r.mu.Unlock()

	switch {
	case next.IsAuthenticated && !prev.IsAuthenticated:
		fmt.Fprintf(r.output, "Signed in as %s.\n", displayName(next))
	case !next.IsAuthenticated && prev.IsAuthenticated:
		fmt.Fprintln(r.output, "Signed out.")
	}
}

func (r *REPL) resync(ctx context.Context) {
	if err := r.session.CheckAuthStatus(ctx); err != nil {
		r.logger.Warn("session check failed", "error", err)
	}
}

func (r *REPL) snapshot() state.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *REPL) prompt() string {
	snap := r.snapshot()
	if !snap.IsAuthenticated {
		return promptName + "> "
	}
	return fmt.Sprintf("%s[%s]> ", promptName, displayName(snap))
}

func (r *REPL) help(snap state.Snapshot, args []string) {
	if len(args) > 0 {
		for _, s := range r.completer.Complete(strings.Join(args, " "), snap) {
			fmt.Fprintln(r.output, s)
		}
		return
	}

	table := &output.Table{}
	table.SetHeaders("COMMAND", "DESCRIPTION")
	for _, route := range r.completer.Routes(snap) {
		table.AddRow(route.Name, route.Usage)
	}
	if err := table.Render(r.output); err != nil {
		r.logger.Debug("render help", "error", err)
	}
}

func (r *REPL) printHistory() {
	for i := r.history.Len() - 1; i >= 0; i-- {
		fmt.Fprintf(r.output, "%4d  %s\n", r.history.Len()-i, r.history.Get(i))
	}
}
