package essent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/raterudder/essent/pkg/log"
)

const (
	ssoTokenCookie  = "iwessent"
	ssoDomainCookie = "domain"
	ssoDomain       = "essent.be"
)

// ssoChallenge is both the response of the first authenticate call and the
// request of the second one. It is kept as raw JSON so everything the SSO
// service sent, including fields unknown here, goes back unchanged; only the
// input values of the first two callbacks are filled in.
type ssoChallenge map[string]json.RawMessage

type ssoTokenResult struct {
	TokenID    string `json:"tokenId"`
	SuccessURL string `json:"successUrl"`
	Realm      string `json:"realm"`
}

type ssoIDFromSessionResult struct {
	ID    string `json:"id"`
	Realm string `json:"realm"`
	DN    string `json:"dn"`
}

// ssoLogin authenticates against the SSO service, stores the resulting token
// as session cookies and returns the username the API knows the account by.
func (c *Client) ssoLogin(ctx context.Context) (string, error) {
	s := c.session

	req, err := newPostJSONRequest(ctx, c.ssoURL, "authenticate", nil, nil)
	if err != nil {
		return "", err
	}
	var challenge ssoChallenge
	if err := s.doJSONRequest(req, &challenge); err != nil {
		return "", fmt.Errorf("sso challenge failed: %w", err)
	}
	if err := challenge.fill(c.username, c.password); err != nil {
		return "", err
	}

	req, err = newPostJSONRequest(ctx, c.ssoURL, "authenticate", nil, challenge)
	if err != nil {
		return "", err
	}
	var token ssoTokenResult
	if err := s.doJSONRequest(req, &token); err != nil {
		return "", fmt.Errorf("sso authenticate failed: %w", err)
	}
	if token.TokenID == "" {
		return "", missing("tokenId")
	}

	if err := c.setSSOCookies(token.TokenID); err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("_action", "idFromSession")
	req, err = newPostJSONRequest(ctx, c.ssoURL, "users", params, nil)
	if err != nil {
		return "", err
	}
	var id ssoIDFromSessionResult
	if err := s.doJSONRequest(req, &id); err != nil {
		return "", fmt.Errorf("sso idFromSession failed: %w", err)
	}

	username := usernameFromDN(id.DN)
	if username == "" {
		username = id.ID
	}
	if username == "" {
		return "", missing("dn")
	}
	log.Ctx(ctx).DebugContext(ctx, "resolved essent sso username", slog.String("realm", id.Realm))
	return username, nil
}

// fill sets the username and password as the value of the first input of the
// first two callbacks.
func (ch ssoChallenge) fill(username, password string) error {
	var authID string
	if raw, ok := ch["authId"]; !ok || json.Unmarshal(raw, &authID) != nil || authID == "" {
		return missing("authId")
	}

	var callbacks []map[string]json.RawMessage
	if err := json.Unmarshal(ch["callbacks"], &callbacks); err != nil {
		return fmt.Errorf("%w: invalid callbacks: %w", ErrUnexpectedResponse, err)
	}
	if len(callbacks) < 2 {
		return fmt.Errorf("%w: expected 2 callbacks, got %d", ErrUnexpectedResponse, len(callbacks))
	}
	for i, v := range []string{username, password} {
		var inputs []map[string]json.RawMessage
		if err := json.Unmarshal(callbacks[i]["input"], &inputs); err != nil || len(inputs) == 0 {
			return fmt.Errorf("%w: callback %d has no input", ErrUnexpectedResponse, i)
		}
		value, err := json.Marshal(v)
		if err != nil {
			return err
		}
		inputs[0]["value"] = value
		if callbacks[i]["input"], err = json.Marshal(inputs); err != nil {
			return err
		}
	}

	raw, err := json.Marshal(callbacks)
	if err != nil {
		return err
	}
	ch["callbacks"] = raw
	return nil
}

// setSSOCookies stores the SSO token for both the SSO service and the API.
func (c *Client) setSSOCookies(token string) error {
	jar := c.session.client.Jar
	if jar == nil {
		return fmt.Errorf("http client has no cookie jar")
	}
	cookies := []*http.Cookie{
		{Name: ssoTokenCookie, Value: token, Path: "/"},
		{Name: ssoDomainCookie, Value: ssoDomain, Path: "/"},
	}
	for _, raw := range []string{c.ssoURL, c.session.baseURL} {
		u, err := url.Parse(raw)
		if err != nil {
			return err
		}
		jar.SetCookies(u, cookies)
	}
	return nil
}

// usernameFromDN returns the value of the first RDN, e.g. "12345" for
// "id=12345,ou=user,dc=essent,dc=be".
func usernameFromDN(dn string) string {
	rdn, _, _ := strings.Cut(dn, ",")
	_, v, ok := strings.Cut(rdn, "=")
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}
