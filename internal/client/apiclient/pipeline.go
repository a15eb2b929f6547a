package apiclient

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/kinance/kinance-go/internal/client/credstore"
	"github.com/kinance/kinance-go/internal/telemetry/logger"
	"github.com/kinance/kinance-go/internal/telemetry/metric"
)

// Handler processes a request and yields the response envelope.
type Handler func(ctx context.Context, req *Request) (*Envelope, error)

// Stage wraps a Handler. A stage either continues by calling next or
// short-circuits with its own result.
type Stage func(next Handler) Handler

// Chain builds a pipeline around final. The first stage is the outermost.
func Chain(final Handler, stages ...Stage) Handler {
	h := final
	for i := len(stages) - 1; i >= 0; i-- {
		h = stages[i](h)
	}
	return h
}

// RequestIDHeader carries the per-exchange request ID.
const RequestIDHeader = "X-Request-ID"

func withRequestID(next Handler) Handler {
	return func(ctx context.Context, req *Request) (*Envelope, error) {
		id := ulid.Make().String()
		req.Header.Set(RequestIDHeader, id)
		return next(logger.WithRequestID(ctx, id), req)
	}
}

func (c *Client) observe(next Handler) Handler {
	return func(ctx context.Context, req *Request) (*Envelope, error) {
		start := time.Now()
		env, err := next(ctx, req)
		elapsed := time.Since(start)

		status := req.statusCode
		if err != nil {
			status = errorStatus(err)
		}
		c.metrics.ObserveRequest(req.Method, status, elapsed)

		c.log(ctx).Debug("api request",
			"method", req.Method,
			"path", req.Path,
			"status", status,
			"retried", req.retried,
			"elapsed", elapsed)
		return env, err
	}
}

// errorStatus returns the HTTP status carried by err, 0 for transport errors.
func errorStatus(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func (c *Client) throttle(next Handler) Handler {
	return func(ctx context.Context, req *Request) (*Envelope, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		return next(ctx, req)
	}
}

func normalize(next Handler) Handler {
	return func(ctx context.Context, req *Request) (*Envelope, error) {
		env, err := next(ctx, req)
		if err != nil {
			return nil, normalizeError(err)
		}
		return env, nil
	}
}

// attachToken sets the bearer credential. A token re-attached after refresh
// wins over the stored one. A failed read is logged and the request goes
// out unauthenticated.
func (c *Client) attachToken(next Handler) Handler {
	return func(ctx context.Context, req *Request) (*Envelope, error) {
		token := req.token
		if token == "" {
			stored, ok, err := c.store.Get(ctx, credstore.KeyAccessToken)
			if err != nil {
				c.log(ctx).Warn("failed to read access token", "error", err)
			} else if ok {
				token = stored
			}
		}

		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		} else {
			req.Header.Del("Authorization")
		}
		return next(ctx, req)
	}
}

// refreshOnUnauthorized handles a 401 by refreshing the access token and
// resubmitting the request through the pipeline entry, at most once.
func (c *Client) refreshOnUnauthorized(next Handler) Handler {
	return func(ctx context.Context, req *Request) (*Envelope, error) {
		env, err := next(ctx, req)
		if err == nil || !isUnauthorized(err) || req.retried {
			return env, err
		}
		if req.SkipRefresh {
			c.metrics.ObserveRefresh(metric.RefreshSkipped)
			return nil, err
		}

		req.retried = true
		token, ok := c.refreshAccessToken(ctx)
		if !ok {
			return nil, err
		}

		req.token = token
		return c.entry(ctx, req)
	}
}

// refreshRequest is the body of the refresh call.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type refreshedTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// refreshAccessToken exchanges the stored refresh token for a new access
// token and persists it. Any failure after a refresh token was found wipes
// the credential record.
func (c *Client) refreshAccessToken(ctx context.Context) (string, bool) {
	log := c.log(ctx)

	refreshToken, ok, err := c.store.Get(ctx, credstore.KeyRefreshToken)
	if err != nil {
		log.Warn("failed to read refresh token", "error", err)
	}
	if err != nil || !ok || refreshToken == "" {
		c.metrics.ObserveRefresh(metric.RefreshNoToken)
		return "", false
	}

	env, err := c.Do(ctx, &Request{
		Method:      http.MethodPost,
		Path:        PathRefresh,
		Body:        refreshRequest{RefreshToken: refreshToken},
		SkipRefresh: true,
	})
	var tokens refreshedTokens
	if err == nil {
		if !env.Success {
			err = BusinessError(env, "Token refresh failed")
		} else if err = env.Decode(&tokens); err == nil && tokens.AccessToken == "" {
			err = ErrEmptyData
		}
	}
	if err == nil {
		pairs := map[credstore.Key]string{credstore.KeyAccessToken: tokens.AccessToken}
		if tokens.RefreshToken != "" {
			pairs[credstore.KeyRefreshToken] = tokens.RefreshToken
		}
		err = c.store.SetAll(ctx, pairs)
	}

	if err != nil {
		c.metrics.ObserveRefresh(metric.RefreshFailure)
		log.Warn("token refresh failed, user needs to login again", "error", err)
		if rmErr := c.store.RemoveAll(ctx, credstore.AllKeys()...); rmErr != nil {
			log.Warn("failed to clear credentials", "error", rmErr)
		}
		return "", false
	}

	c.metrics.ObserveRefresh(metric.RefreshSuccess)
	log.Debug("access token refreshed", "expires_in", tokens.ExpiresIn)
	return tokens.AccessToken, true
}

func (c *Client) log(ctx context.Context) logger.Logger {
	return c.logger.With("component", "apiclient").WithContext(ctx)
}
