package resource

import (
	"context"

	"github.com/kinance/kinance-go/internal/client/apiclient"
	"github.com/kinance/kinance-go/internal/client/session"
)

// Users is the users API.
type Users struct {
	client *apiclient.Client
}

// NewUsers creates a users client.
func NewUsers(c *apiclient.Client) *Users {
	return &Users{client: c}
}

// Profile fetches the authenticated user's profile from the server.
func (u *Users) Profile(ctx context.Context) (*session.UserProfile, error) {
	user, err := apiclient.Result[session.UserProfile](u.client.Get(ctx, apiclient.PathProfile, nil))
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Family fetches the user's family and its members.
func (u *Users) Family(ctx context.Context) (*Family, error) {
	family, err := apiclient.Result[Family](u.client.Get(ctx, apiclient.PathFamily, nil))
	if err != nil {
		return nil, err
	}
	return &family, nil
}
