package session_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lunchvote/go-session-client/session"
)

func TestParseRedirectParamsTokenPairAndSocial(t *testing.T) {
	rawURL := "https://app.lunchvote.example/mypage?accessToken=aaa.bbb.ccc&refreshToken=rrr" +
		"&email=jane%40example.com&provider=google&providerId=g-123&name=Jane&username=janed&tab=reviews"

	params, scrubbed, err := session.ParseRedirectParams(rawURL)
	require.NoError(t, err)
	require.True(t, params.HasTokenPair())
	require.Equal(t, "aaa.bbb.ccc", params.AccessToken)
	require.Equal(t, "rrr", params.RefreshToken)
	require.NotNil(t, params.Social)
	require.Equal(t, "jane@example.com", params.Social.Email)
	require.Equal(t, "google", params.Social.Provider)
	require.Equal(t, "g-123", params.Social.ProviderID)
	require.Equal(t, "Jane", params.Social.Name)
	require.Equal(t, "janed", params.Social.Username)

	// Unrelated parameters survive the scrub.
	require.Contains(t, scrubbed, "tab=reviews")
	require.NotContains(t, scrubbed, "accessToken")
	require.NotContains(t, scrubbed, "refreshToken")
	require.NotContains(t, scrubbed, "email")
}

func TestParseRedirectParamsScrubIsIdempotent(t *testing.T) {
	rawURL := "https://app.lunchvote.example/?accessToken=aaa&refreshToken=bbb&provider=google"

	_, scrubbed, err := session.ParseRedirectParams(rawURL)
	require.NoError(t, err)

	reparsed, rescrubbed, err := session.ParseRedirectParams(scrubbed)
	require.NoError(t, err)
	require.True(t, reparsed.Empty())
	require.Equal(t, scrubbed, rescrubbed)
}

func TestParseRedirectParamsSocialOnly(t *testing.T) {
	rawURL := "https://app.lunchvote.example/mypage?email=jane%40example.com&provider=google&providerId=g-123&name=Jane"

	params, _, err := session.ParseRedirectParams(rawURL)
	require.NoError(t, err)
	require.False(t, params.HasTokenPair())
	require.False(t, params.Empty())
	require.NotNil(t, params.Social)
	require.Equal(t, "google", params.Social.Provider)
}

func TestParseRedirectParamsLoneToken(t *testing.T) {
	params, scrubbed, err := session.ParseRedirectParams("https://app.lunchvote.example/?accessToken=aaa")
	require.NoError(t, err)
	require.False(t, params.HasTokenPair())
	require.Equal(t, "aaa", params.AccessToken)
	require.NotContains(t, scrubbed, "accessToken")
}

func TestParseRedirectParamsEmptyURL(t *testing.T) {
	params, scrubbed, err := session.ParseRedirectParams("")
	require.NoError(t, err)
	require.True(t, params.Empty())
	require.Equal(t, "", scrubbed)
}

func TestParseRedirectParamsInvalidURL(t *testing.T) {
	params, scrubbed, err := session.ParseRedirectParams("://not-a-url")
	require.Error(t, err)
	require.True(t, params.Empty())
	require.Equal(t, "://not-a-url", scrubbed)
}
