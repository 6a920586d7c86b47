// Package api is the client for the meal-review backend's account surface.
// It owns the wire contract in one place; the session layer decides what a
// failure means for session state.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/lunchvote/go-session-client/credentials"
)

const (
	refreshPath       = "/account/refresh"
	infoPath          = "/account/info"
	logoutPath        = "/account/logout"
	signupPath        = "/account/signup"
	updatePath        = "/account/update"
	checkUsernamePath = "/account/check-username"

	defaultTimeout = 15 * time.Second
)

var (
	// ErrRefreshRejected means the backend refused the refresh exchange.
	// The refresh credential is spent; the session must be torn down.
	ErrRefreshRejected = errors.New("refresh exchange rejected")

	// ErrUnauthenticated means the backend reported 401 for a decorated
	// request: the session is not actually valid despite local state.
	ErrUnauthenticated = errors.New("backend reported unauthenticated")
)

// Client calls the backend account endpoints. All requests go through the
// decorating Transport so the current credentials are always attached.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client. The caller is
// responsible for wiring a decorating Transport into it.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// NewClient creates a backend client rooted at baseURL, decorating every
// request with credentials from store.
func NewClient(baseURL string, store credentials.Store, options ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   defaultTimeout,
			Transport: NewTransport(store, nil),
		},
		log: zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Refresh exchanges the refresh credential for a new pair. The decorating
// Transport attaches the refresh credential; this request carries no
// access credential. Any non-2xx response is a rejected exchange.
func (c *Client) Refresh(ctx context.Context) (*TokenPair, error) {
	var pair TokenPair
	status, err := c.do(ctx, http.MethodPost, refreshPath, struct{}{}, &pair)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Refresh] do")
	}
	if status < 200 || status > 299 {
		return nil, errors.Wrapf(ErrRefreshRejected, "status %d", status)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return nil, errors.Wrap(ErrRefreshRejected, "response missing token pair")
	}
	return &pair, nil
}

// AccountInfo fetches the full profile for the authenticated subject.
// A 401 maps to ErrUnauthenticated so the caller can tear the session down.
func (c *Client) AccountInfo(ctx context.Context) (*UserInfo, error) {
	var info UserInfo
	status, err := c.do(ctx, http.MethodGet, infoPath, nil, &info)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.AccountInfo] do")
	}
	if status == http.StatusUnauthorized {
		return nil, ErrUnauthenticated
	}
	if status < 200 || status > 299 {
		return nil, errors.Errorf("[Client.AccountInfo] status %d", status)
	}
	return &info, nil
}

// Logout notifies the backend that the session ended. Best effort: the
// caller is expected to log and swallow any error.
func (c *Client) Logout(ctx context.Context) error {
	status, err := c.do(ctx, http.MethodPost, logoutPath, nil, nil)
	if err != nil {
		return errors.Wrap(err, "[Client.Logout] do")
	}
	if status < 200 || status > 299 {
		return errors.Errorf("[Client.Logout] status %d", status)
	}
	return nil
}

// Signup completes local registration for a social-login identity and
// returns the freshly issued credential pair.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*TokenPair, error) {
	var pair TokenPair
	status, err := c.do(ctx, http.MethodPost, signupPath, req, &pair)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.Signup] do")
	}
	if status < 200 || status > 299 {
		return nil, errors.Errorf("[Client.Signup] status %d", status)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return nil, errors.New("[Client.Signup] response missing token pair")
	}
	return &pair, nil
}

// UpdateAccount edits the authenticated user's profile and returns the
// updated record.
func (c *Client) UpdateAccount(ctx context.Context, req UpdateAccountRequest) (*UserInfo, error) {
	var info UserInfo
	status, err := c.do(ctx, http.MethodPut, updatePath, req, &info)
	if err != nil {
		return nil, errors.Wrap(err, "[Client.UpdateAccount] do")
	}
	if status == http.StatusUnauthorized {
		return nil, ErrUnauthenticated
	}
	if status < 200 || status > 299 {
		return nil, errors.Errorf("[Client.UpdateAccount] status %d", status)
	}
	return &info, nil
}

// CheckUsername reports whether a username is already taken.
func (c *Client) CheckUsername(ctx context.Context, username string) (bool, error) {
	path := checkUsernamePath + "?username=" + url.QueryEscape(username)
	var taken bool
	status, err := c.do(ctx, http.MethodGet, path, nil, &taken)
	if err != nil {
		return false, errors.Wrap(err, "[Client.CheckUsername] do")
	}
	if status < 200 || status > 299 {
		return false, errors.Errorf("[Client.CheckUsername] status %d", status)
	}
	return taken, nil
}

// do issues one JSON request and decodes a 2xx body into out when out is
// non-nil. The response status is returned for the caller to interpret;
// only transport-level failures are errors here.
func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, errors.Wrap(err, "marshal request")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, errors.Wrap(err, "new request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "round trip")
	}
	defer func() { _ = resp.Body.Close() }()

	if out != nil && resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, errors.Wrap(err, "decode response")
		}
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	return resp.StatusCode, nil
}
