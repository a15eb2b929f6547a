package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kinance/kinance-go/internal/client/apiclient"
	"github.com/kinance/kinance-go/internal/client/credstore"
	"github.com/kinance/kinance-go/internal/telemetry/logger"
	"github.com/kinance/kinance-go/internal/telemetry/metric"
)

// Fallback messages used when the server rejects a call without a message.
const (
	LoginFailedMessage        = "Login failed"
	RegistrationFailedMessage = "Registration failed"
	RefreshFailedMessage      = "Token refresh failed"
)

var (
	// ErrNoRefreshToken is returned by Refresh when no refresh token is stored.
	ErrNoRefreshToken = errors.New("no refresh token available")

	// ErrNoAccessToken is returned by TokenExpiry when no access token is stored.
	ErrNoAccessToken = errors.New("no access token available")

	// ErrMissingTokens is returned when an auth response carries no access token.
	ErrMissingTokens = errors.New("auth response has no access token")
)

// Manager manages the client session on top of the HTTP client core and
// the credential store.
type Manager struct {
	client  *apiclient.Client
	store   credstore.Store
	logger  logger.Logger
	metrics *metric.Registry
	now     func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithMetrics records refresh outcomes.
func WithMetrics(r *metric.Registry) Option {
	return func(m *Manager) {
		m.metrics = r
	}
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a session manager.
func NewManager(client *apiclient.Client, store credstore.Store, opts ...Option) *Manager {
	m := &Manager{
		client: client,
		store:  store,
		logger: logger.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "session")
	return m
}

// Login authenticates with email and password. On success the tokens and
// profile are persisted as one record. On failure stored credentials are
// left untouched.
func (m *Manager) Login(ctx context.Context, email, password string) (*UserProfile, error) {
	return m.authenticate(ctx, apiclient.PathLogin, LoginRequest{Email: email, Password: password}, LoginFailedMessage)
}

// Register creates an account and signs in with the same contract as Login.
func (m *Manager) Register(ctx context.Context, req RegisterRequest) (*UserProfile, error) {
	return m.authenticate(ctx, apiclient.PathRegister, req, RegistrationFailedMessage)
}

func (m *Manager) authenticate(ctx context.Context, path string, body any, fallback string) (*UserProfile, error) {
	env, err := m.client.Do(ctx, &apiclient.Request{
		Method:      http.MethodPost,
		Path:        path,
		Body:        body,
		SkipRefresh: true,
	})
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, apiclient.BusinessError(env, fallback)
	}

	var resp LoginResponse
	if err := env.Decode(&resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, ErrMissingTokens
	}

	profile, err := json.Marshal(&resp.User)
	if err != nil {
		return nil, fmt.Errorf("encode user profile: %w", err)
	}

	err = m.store.SetAll(ctx, map[credstore.Key]string{
		credstore.KeyAccessToken:  resp.AccessToken,
		credstore.KeyRefreshToken: resp.RefreshToken,
		credstore.KeyUserProfile:  string(profile),
	})
	if err != nil {
		m.log(ctx).Error("failed to store auth data", "error", err)
		return nil, fmt.Errorf("persist credentials: %w", err)
	}

	m.log(ctx).Info("session established", "user_id", resp.User.ID.String())
	return &resp.User, nil
}

// Logout removes the credential record. A removal failure is logged and
// returned for information only; the caller must treat the session as
// ended either way.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.RemoveAll(ctx, credstore.AllKeys()...); err != nil {
		m.log(ctx).Warn("error during logout", "error", err)
		return err
	}
	m.log(ctx).Info("session ended")
	return nil
}

// Refresh exchanges the stored refresh token for a new token pair and
// persists it. A refresh token omitted from the response keeps the stored one.
func (m *Manager) Refresh(ctx context.Context) (*AuthTokens, error) {
	refreshToken, err := m.RefreshToken(ctx)
	if err != nil {
		return nil, err
	}
	if refreshToken == "" {
		m.metrics.ObserveRefresh(metric.RefreshNoToken)
		return nil, ErrNoRefreshToken
	}

	tokens, err := m.requestRefresh(ctx, refreshToken)
	if err == nil {
		pairs := map[credstore.Key]string{credstore.KeyAccessToken: tokens.AccessToken}
		if tokens.RefreshToken != "" {
			pairs[credstore.KeyRefreshToken] = tokens.RefreshToken
		}
		if err = m.store.SetAll(ctx, pairs); err != nil {
			m.log(ctx).Error("failed to store tokens", "error", err)
			err = fmt.Errorf("persist tokens: %w", err)
		}
	}
	if err != nil {
		m.metrics.ObserveRefresh(metric.RefreshFailure)
		return nil, err
	}

	m.metrics.ObserveRefresh(metric.RefreshSuccess)
	return tokens, nil
}

func (m *Manager) requestRefresh(ctx context.Context, refreshToken string) (*AuthTokens, error) {
	env, err := m.client.Do(ctx, &apiclient.Request{
		Method:      http.MethodPost,
		Path:        apiclient.PathRefresh,
		Body:        refreshRequest{RefreshToken: refreshToken},
		SkipRefresh: true,
	})
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, apiclient.BusinessError(env, RefreshFailedMessage)
	}

	var tokens AuthTokens
	if err := env.Decode(&tokens); err != nil {
		return nil, err
	}
	if tokens.AccessToken == "" {
		return nil, ErrMissingTokens
	}
	return &tokens, nil
}

// IsAuthenticated reports whether both an access token and a user profile
// are stored. Storage errors are returned so callers can fail closed.
func (m *Manager) IsAuthenticated(ctx context.Context) (bool, error) {
	token, err := m.AccessToken(ctx)
	if err != nil {
		return false, err
	}
	profile, ok, err := m.store.Get(ctx, credstore.KeyUserProfile)
	if err != nil {
		return false, err
	}
	return token != "" && ok && profile != "", nil
}

// CurrentUser returns the cached profile, or nil when none is stored.
// A profile that fails to decode is logged and treated as absent.
func (m *Manager) CurrentUser(ctx context.Context) (*UserProfile, error) {
	raw, ok, err := m.store.Get(ctx, credstore.KeyUserProfile)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var user UserProfile
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		m.log(ctx).Warn("error getting current user", "error", err)
		return nil, nil
	}
	return &user, nil
}

// UpdateUser replaces the cached profile.
func (m *Manager) UpdateUser(ctx context.Context, user *UserProfile) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user profile: %w", err)
	}
	if err := m.store.SetAll(ctx, map[credstore.Key]string{credstore.KeyUserProfile: string(data)}); err != nil {
		m.log(ctx).Error("error updating user data", "error", err)
		return err
	}
	return nil
}

// AccessToken returns the stored access token, or "" when absent.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	return m.get(ctx, credstore.KeyAccessToken)
}

// RefreshToken returns the stored refresh token, or "" when absent.
func (m *Manager) RefreshToken(ctx context.Context) (string, error) {
	return m.get(ctx, credstore.KeyRefreshToken)
}

func (m *Manager) get(ctx context.Context, key credstore.Key) (string, error) {
	v, ok, err := m.store.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return v, nil
}

func (m *Manager) log(ctx context.Context) logger.Logger {
	return m.logger.WithContext(ctx)
}
