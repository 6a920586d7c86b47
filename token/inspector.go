// Package token decodes bearer tokens issued by the meal-review backend.
//
// The client never verifies signatures: the backend is the only party that
// can, and an unverified decode is all that is needed to read the subject
// and expiry claims locally. Validity here means "decodes and has not
// expired", nothing more.
package token

import (
	"encoding/json"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// ErrMalformedToken is returned when a token does not parse as three
// dot-separated segments with a base64 JSON payload carrying an expiry.
var ErrMalformedToken = errors.New("malformed token")

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Claims is the decoded payload of an access token. It is derived on
// demand and never cached; the underlying token may have been rotated
// since the last check.
type Claims struct {
	Subject   string // "sub" claim, the user's unique ID
	ExpiresAt int64  // "exp" claim, Unix seconds
}

// Decode extracts the claims from a raw bearer token without verifying
// its signature. Any structural deviation returns ErrMalformedToken.
func Decode(raw string) (*Claims, error) {
	segments := strings.Split(strings.TrimSpace(raw), ".")
	if len(segments) != 3 {
		return nil, errors.Wrap(ErrMalformedToken, "token must have three segments")
	}
	for _, segment := range segments {
		if segment == "" {
			return nil, errors.Wrap(ErrMalformedToken, "token has an empty segment")
		}
	}

	payload, err := jwtlib.NewParser().DecodeSegment(segments[1])
	if err != nil {
		return nil, errors.Wrap(ErrMalformedToken, err.Error())
	}

	var body struct {
		Sub string  `json:"sub"`
		Exp float64 `json:"exp"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, errors.Wrap(ErrMalformedToken, err.Error())
	}
	if body.Exp == 0 {
		return nil, errors.Wrap(ErrMalformedToken, "token missing exp claim")
	}

	return &Claims{Subject: body.Sub, ExpiresAt: int64(body.Exp)}, nil
}

// IsValid reports whether the token decodes and has not expired.
func IsValid(raw string) bool {
	return IsValidAt(raw, NowTimeFunc())
}

// IsValidAt reports validity against an explicit clock. Expiry is compared
// in whole seconds since epoch; there is no early-expiry margin.
func IsValidAt(raw string, now time.Time) bool {
	claims, err := Decode(raw)
	if err != nil {
		return false
	}
	return claims.ExpiresAt > now.Unix()
}
