package session

import (
	"net/url"

	"github.com/pkg/errors"
)

// redirectParamNames are the query parameters the identity-provider
// redirect may carry. Every one of them is scrubbed from the URL after
// parsing so a refresh or shared link cannot replay stale credentials.
var redirectParamNames = []string{
	"accessToken",
	"refreshToken",
	"email",
	"provider",
	"providerId",
	"profileImage",
	"name",
	"username",
}

// RedirectParams is the candidate credential pair and social payload
// parsed out of a redirect URL. Parsing is pure; applying the candidate
// to session state is the Manager's job.
type RedirectParams struct {
	AccessToken  string
	RefreshToken string
	Social       *SocialProfile
}

// HasTokenPair reports whether the redirect carried a complete credential
// pair. A lone access or refresh token is ignored, matching the backend's
// redirect contract.
func (p RedirectParams) HasTokenPair() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

// Empty reports whether the redirect carried nothing of interest.
func (p RedirectParams) Empty() bool {
	return p.AccessToken == "" && p.RefreshToken == "" && p.Social == nil
}

// ParseRedirectParams extracts credentials and social-identity fields from
// rawURL and returns the URL with every recognized parameter removed. The
// scrubbed URL parses to an empty RedirectParams, so re-running bootstrap
// against it can never replay credentials. An unparseable URL returns the
// input unchanged with empty params.
func ParseRedirectParams(rawURL string) (RedirectParams, string, error) {
	if rawURL == "" {
		return RedirectParams{}, rawURL, nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return RedirectParams{}, rawURL, errors.Wrap(err, "[ParseRedirectParams] url.Parse")
	}

	query := u.Query()
	params := RedirectParams{
		AccessToken:  query.Get("accessToken"),
		RefreshToken: query.Get("refreshToken"),
	}

	social := SocialProfile{
		Email:        query.Get("email"),
		Provider:     query.Get("provider"),
		ProviderID:   query.Get("providerId"),
		ProfileImage: query.Get("profileImage"),
		Name:         query.Get("name"),
		Username:     query.Get("username"),
	}
	if social != (SocialProfile{}) {
		params.Social = &social
	}

	if params.Empty() {
		return params, rawURL, nil
	}

	for _, name := range redirectParamNames {
		query.Del(name)
	}
	u.RawQuery = query.Encode()
	return params, u.String(), nil
}
