package api

import (
	"net/http"
	"strings"

	"github.com/lunchvote/go-session-client/credentials"
)

const refreshTokenHeader = "X-Refresh-Token"

// Transport decorates every outgoing request with the current access
// credential. The one renewal endpoint is the exception: it carries the
// refresh credential instead and deliberately no Authorization header,
// since the access credential being exchanged may already be expired.
//
// Credentials are read from the store on every request, never cached, so
// a rotation by another process is picked up immediately.
type Transport struct {
	store credentials.Store
	base  http.RoundTripper
}

// NewTransport wraps base with credential decoration. A nil base uses
// http.DefaultTransport.
func NewTransport(store credentials.Store, base http.RoundTripper) *Transport {
	return &Transport{store: store, base: base}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	clone := req.Clone(req.Context())
	if strings.HasSuffix(clone.URL.Path, refreshPath) {
		clone.Header.Del("Authorization")
		if refreshToken, ok := t.store.Get(credentials.RefreshTokenName); ok {
			clone.Header.Set(refreshTokenHeader, refreshToken)
		}
	} else if accessToken, ok := t.store.Get(credentials.AccessTokenName); ok {
		clone.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return base.RoundTrip(clone)
}
