package github

import (
	"log/slog"
	"net/http"
	"strings"
)

// Scheme is the Authorization header scheme presented to
// the GitHub API.
type Scheme string

const (
	// SchemeToken is the classic scheme required by
	// legacy personal access tokens.
	SchemeToken Scheme = "token"
	// SchemeBearer is the scheme used by fine-grained
	// and installation tokens.
	SchemeBearer Scheme = "Bearer"
)

// legacyTokenPrefix marks classic personal access tokens.
const legacyTokenPrefix = "ghp_"

// apiVersion is the explicit API version header value
// sent with every request.
const apiVersion = "2022-11-28"

// SchemeFor selects the authorization scheme for a token
// by inspecting its literal prefix. Presenting the wrong
// scheme makes the API reject otherwise valid tokens.
func SchemeFor(token string) Scheme {
	if strings.HasPrefix(token, legacyTokenPrefix) {
		return SchemeToken
	}

	return SchemeBearer
}

// authTransport injects the Authorization header using
// the scheme matching the token shape, pins the API
// version, and traces request/response detail at debug
// level.
type authTransport struct {
	token string
	base  http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *authTransport) RoundTrip(
	req *http.Request,
) (*http.Response, error) {
	rc := req.Clone(req.Context())

	rc.Header.Set(
		"Authorization",
		string(SchemeFor(t.token))+" "+t.token,
	)
	rc.Header.Set("X-GitHub-Api-Version", apiVersion)
	rc.Header.Set(
		"Accept", "application/vnd.github+json",
	)

	slog.Debug(
		"github request",
		"method", rc.Method,
		"url", rc.URL.Redacted(),
	)

	resp, err := t.base.RoundTrip(rc)
	if err != nil {
		return nil, err
	}

	slog.Debug(
		"github response",
		"status", resp.StatusCode,
		"scopes", resp.Header.Get("X-OAuth-Scopes"),
	)

	return resp, nil
}
