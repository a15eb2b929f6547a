package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrOpaqueToken is returned by TokenExpiry when the access token is not a JWT.
var ErrOpaqueToken = errors.New("access token is not a JWT")

// TokenExpiry reads the exp claim of the stored access token. The signature
// is not verified; the value only drives proactive refresh. A token without
// an exp claim yields the zero time.
func (m *Manager) TokenExpiry(ctx context.Context) (time.Time, error) {
	token, err := m.AccessToken(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if token == "" {
		return time.Time{}, ErrNoAccessToken
	}
	return tokenExpiry(token)
}

func tokenExpiry(raw string) (time.Time, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrOpaqueToken, err)
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("read exp claim: %w", err)
	}
	if exp == nil {
		return time.Time{}, nil
	}
	return exp.Time, nil
}

// EnsureFresh refreshes the session when the access token expires within
// skew. It reports whether a refresh happened. Without a session, or with
// an opaque or non-expiring token, it does nothing and the 401 path of the
// HTTP client takes over.
func (m *Manager) EnsureFresh(ctx context.Context, skew time.Duration) (bool, error) {
	exp, err := m.TokenExpiry(ctx)
	switch {
	case errors.Is(err, ErrNoAccessToken), errors.Is(err, ErrOpaqueToken):
		return false, nil
	case err != nil:
		return false, err
	case exp.IsZero():
		return false, nil
	}

	remaining := exp.Sub(m.now())
	if remaining > skew {
		return false, nil
	}

	m.log(ctx).Debug("access token near expiry, refreshing", "remaining", remaining)
	if _, err := m.Refresh(ctx); err != nil {
		return false, err
	}
	return true, nil
}
