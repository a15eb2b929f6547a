package command

import (
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/kinance/kinance-go/internal/client/session"
)

// LoginCommand returns the login command.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in with email and password",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "email",
				Aliases: []string{"e"},
				Usage:   "Account email (prompted when omitted)",
			},
			&cli.StringFlag{
				Name:    "password",
				Usage:   "Account password (prompted when omitted)",
				EnvVars: []string{"KINANCE_PASSWORD"},
			},
		},
		Action: loginAction,
	}
}

func loginAction(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	email, err := stringOrPrompt(c, "email", "Email")
	if err != nil {
		return err
	}
	password, err := stringOrPrompt(c, "password", "Password")
	if err != nil {
		return err
	}

	if err := rt.State.Login(c.Context, email, password); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Welcome, %s.\n", rt.State.Snapshot().User.FullName())
	return nil
}

// RegisterCommand returns the register command.
func RegisterCommand() *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create an account and sign in",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email"},
			&cli.StringFlag{Name: "password", Usage: "Account password", EnvVars: []string{"KINANCE_PASSWORD"}},
			&cli.StringFlag{Name: "first-name", Usage: "First name"},
			&cli.StringFlag{Name: "last-name", Usage: "Last name"},
		},
		Action: registerAction,
	}
}

func registerAction(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	var req session.RegisterRequest
	fields := []struct {
		flag, label string
		dst         *string
	}{
		{"email", "Email", &req.Email},
		{"password", "Password", &req.Password},
		{"first-name", "First name", &req.FirstName},
		{"last-name", "Last name", &req.LastName},
	}
	for _, f := range fields {
		if *f.dst, err = stringOrPrompt(c, f.flag, f.label); err != nil {
			return err
		}
	}

	if err := rt.State.Register(c.Context, req); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Account created. Welcome, %s.\n", rt.State.Snapshot().User.FullName())
	return nil
}

// LogoutCommand returns the logout command.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Sign out and remove stored credentials",
		Action: logoutAction,
	}
}

func logoutAction(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	if err := rt.State.Logout(c.Context); err != nil {
		// The session is over either way; stale values may remain on disk.
		fmt.Fprintf(c.App.ErrWriter, "warning: could not remove stored credentials: %v\n", err)
	}
	fmt.Fprintln(c.App.Writer, "Signed out.")
	return nil
}

// sessionStatus is the status command result.
type sessionStatus struct {
	Authenticated bool       `json:"authenticated"`
	Email         string     `json:"email,omitempty"`
	Name          string     `json:"name,omitempty"`
	Server        string     `json:"server"`
	TokenExpires  *time.Time `json:"token_expires,omitempty"`
}

// StatusCommand returns the status command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show whether a session is stored",
		Action: statusAction,
	}
}

func statusAction(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	// A storage failure reads as logged out; the status still prints.
	if err := rt.State.CheckAuthStatus(c.Context); err != nil {
		rt.Logger.Warn("session check failed", "error", err)
	}

	snap := rt.State.Snapshot()
	st := sessionStatus{
		Authenticated: snap.IsAuthenticated,
		Server:        rt.Config.API.BaseURL,
	}
	if snap.IsAuthenticated && snap.User != nil {
		st.Email = snap.User.Email
		st.Name = snap.User.FullName()
	}
	if snap.IsAuthenticated {
		if exp, err := rt.Sessions.TokenExpiry(c.Context); err == nil && !exp.IsZero() {
			st.TokenExpires = &exp
		}
	}
	return render(c, st)
}

// WhoamiCommand returns the whoami command.
func WhoamiCommand() *cli.Command {
	return &cli.Command{
		Name:   "whoami",
		Usage:  "Show the stored user profile",
		Action: whoamiAction,
	}
}

func whoamiAction(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	user, err := rt.Sessions.CurrentUser(c.Context)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotSignedIn
	}
	return render(c, user)
}

// RefreshCommand returns the refresh command.
func RefreshCommand() *cli.Command {
	return &cli.Command{
		Name:   "refresh",
		Usage:  "Exchange the refresh token for a new access token",
		Action: refreshAction,
	}
}

func refreshAction(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	tokens, err := rt.Sessions.Refresh(c.Context)
	if err != nil {
		if errors.Is(err, session.ErrNoRefreshToken) {
			return ErrNotSignedIn
		}
		return err
	}

	msg := "Access token refreshed."
	if tokens.ExpiresIn > 0 {
		msg = fmt.Sprintf("Access token refreshed, valid for %s.", time.Duration(tokens.ExpiresIn)*time.Second)
	}
	fmt.Fprintln(c.App.Writer, msg)
	return nil
}
