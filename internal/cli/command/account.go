package command

import (
	"github.com/urfave/cli/v2"
)

// ProfileCommand returns the profile command.
func ProfileCommand() *cli.Command {
	return &cli.Command{
		Name:   "profile",
		Usage:  "Fetch the user profile from the server",
		Action: profileAction,
	}
}

func profileAction(c *cli.Context) error {
	rt, err := EnsureSignedIn(c)
	if err != nil {
		return err
	}

	user, err := rt.Resources.Users.Profile(c.Context)
	if err != nil {
		return err
	}

	// Keep the stored copy current so whoami and the shell prompt match.
	if err := rt.Sessions.UpdateUser(c.Context, user); err != nil {
		rt.Logger.Warn("could not store refreshed profile", "error", err)
	} else {
		rt.State.SetUser(user)
	}
	return render(c, user)
}

// FamilyCommand returns the family command.
func FamilyCommand() *cli.Command {
	return &cli.Command{
		Name:  "family",
		Usage: "Show the family and its members",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "members", Aliases: []string{"m"}, Usage: "List members only"},
		},
		Action: familyAction,
	}
}

func familyAction(c *cli.Context) error {
	rt, err := EnsureSignedIn(c)
	if err != nil {
		return err
	}

	family, err := rt.Resources.Users.Family(c.Context)
	if err != nil {
		return err
	}
	if c.Bool("members") {
		return render(c, family.Members)
	}
	return render(c, family)
}
