package essent

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/raterudder/essent/pkg/log"
)

// Session is the cookie-bearing connection to one regional Essent API. All
// endpoint calls made through the same Session share the server-side session
// established by AuthenticateUser.
//
// A Session is not safe for concurrent use.
type Session struct {
	client  *http.Client
	baseURL string
}

// NewSession returns a Session that sends requests to baseURL using client.
// The client must have a cookie jar for authentication to stick.
func NewSession(client *http.Client, baseURL string) *Session {
	return &Session{
		client:  client,
		baseURL: baseURL,
	}
}

// BaseURL returns the API base URL of the session.
func (s *Session) BaseURL() string {
	return s.baseURL
}

func endpointURL(base, endpoint string, params url.Values) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u.Path, err = url.JoinPath(u.Path, endpoint)
	if err != nil {
		return "", err
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return u.String(), nil
}

func (s *Session) newGetRequest(ctx context.Context, endpoint string, params url.Values) (*http.Request, error) {
	u, err := endpointURL(s.baseURL, endpoint, params)
	if err != nil {
		return nil, err
	}
	return http.NewRequestWithContext(ctx, "GET", u, nil)
}

// newXMLRequest marshals data as the request body. The API accepts XML bodies
// on GET requests as well as POST.
func (s *Session) newXMLRequest(ctx context.Context, method, endpoint string, data interface{}) (*http.Request, error) {
	u, err := endpointURL(s.baseURL, endpoint, nil)
	if err != nil {
		return nil, err
	}

	body, err := xml.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	return req, nil
}

// newPostJSONRequest builds a POST against an absolute base, used for the SSO
// service which lives outside of the API host. A nil data sends no body.
func newPostJSONRequest(ctx context.Context, base, endpoint string, params url.Values, data interface{}) (*http.Request, error) {
	u, err := endpointURL(base, endpoint, params)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// doRequest performs req and returns the response body. Any non-2xx status
// is returned as a *StatusError.
func (s *Session) doRequest(req *http.Request) ([]byte, error) {
	ctx := req.Context()
	log.Ctx(ctx).DebugContext(ctx, "essent request", slog.String("method", req.Method), slog.String("path", req.URL.Path))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		log.Ctx(ctx).DebugContext(ctx, "essent request failed", slog.String("path", req.URL.Path), slog.Int("status", resp.StatusCode))
		return nil, &StatusError{
			Method:     req.Method,
			URL:        req.URL.Redacted(),
			StatusCode: resp.StatusCode,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read essent response: %w", err)
	}
	return body, nil
}

// doJSONRequest performs req and decodes the JSON response into dest.
func (s *Session) doJSONRequest(req *http.Request, dest interface{}) error {
	body, err := s.doRequest(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		log.Ctx(req.Context()).ErrorContext(req.Context(), "failed to decode essent json response", slog.Any("error", err), slog.String("path", req.URL.Path))
		return fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	}
	return nil
}

// decodeXML unmarshals an XML body into dest, wrapping syntax errors in
// ErrUnexpectedResponse.
func decodeXML(body []byte, dest interface{}) error {
	if err := xml.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	}
	return nil
}
