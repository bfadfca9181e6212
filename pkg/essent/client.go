package essent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/essent/pkg/common"
	"github.com/raterudder/essent/pkg/log"
)

// Country selects the regional API and the login flow.
type Country string

const (
	// CountryNL logs in directly against the API.
	CountryNL Country = "NL"
	// CountryBE logs in through the Essent SSO service first.
	CountryBE Country = "BE"
)

var apiBaseURLs = map[Country]string{
	CountryNL: "https://api.essent.nl/",
	CountryBE: "https://api.essent.be/",
}

const defaultSSOURL = "https://sso.essent.be/am/json/"

// ParseCountry parses a country code case-insensitively.
func ParseCountry(s string) (Country, error) {
	c := Country(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := apiBaseURLs[c]; !ok {
		return "", fmt.Errorf("unsupported country: %q", s)
	}
	return c, nil
}

// Config holds everything needed to construct a Client.
type Config struct {
	Username string
	Password string
	Country  Country

	// Timeout is applied to every HTTP request. Defaults to one minute.
	Timeout time.Duration

	// APIURL and SSOURL override the regional defaults.
	APIURL string
	SSOURL string
}

// Validate ensures the configuration is usable.
func (c Config) Validate() error {
	if c.Username == "" {
		return errors.New("missing username")
	}
	if c.Password == "" {
		return errors.New("missing password")
	}
	if _, ok := apiBaseURLs[c.Country]; !ok {
		return fmt.Errorf("unsupported country: %q", c.Country)
	}
	for _, u := range []string{c.APIURL, c.SSOURL} {
		if u == "" {
			continue
		}
		if _, err := url.Parse(u); err != nil {
			return fmt.Errorf("failed to parse url (%s): %w", u, err)
		}
	}
	return nil
}

// Client is an Essent account. It owns its own session so multiple accounts
// can be used in one process, but a single Client is not safe for concurrent
// use.
type Client struct {
	session  *Session
	ssoURL   string
	username string
	password string
	country  Country
}

// New creates a Client. It doesn't talk to the API; call Login before using
// any other method.
func New(cfg Config) (*Client, error) {
	c := &Client{}
	if err := c.init(cfg); err != nil {
		return nil, err
	}
	return c, nil
}

// Configured registers the essent flags and returns a Client that is set up
// once the flags are parsed.
func Configured() *Client {
	c := &Client{}
	username := lflag.RequiredString("essent-username", "Username (email) of the Essent account")
	password := lflag.RequiredString("essent-password", "Password of the Essent account")
	country := lflag.String("essent-country", string(CountryNL), "Country of the Essent account (NL or BE)")
	timeout := lflag.Duration("essent-timeout", time.Minute, "Timeout for each request to the Essent API")
	apiURL := lflag.String("essent-api-url", "", "Override the Essent API base URL")
	ssoURL := lflag.String("essent-sso-url", defaultSSOURL, "URL of the Essent SSO service (BE only)")

	lflag.Do(func() {
		ct, err := ParseCountry(*country)
		if err != nil {
			panic(fmt.Sprintf("essent config failed: %v", err))
		}
		err = c.init(Config{
			Username: *username,
			Password: *password,
			Country:  ct,
			Timeout:  *timeout,
			APIURL:   *apiURL,
			SSOURL:   *ssoURL,
		})
		if err != nil {
			panic(fmt.Sprintf("essent config failed: %v", err))
		}
	})

	return c
}

func (c *Client) init(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Minute
	}
	if cfg.APIURL == "" {
		cfg.APIURL = apiBaseURLs[cfg.Country]
	}
	if cfg.SSOURL == "" {
		cfg.SSOURL = defaultSSOURL
	}

	hc, err := common.HTTPClient(cfg.Timeout)
	if err != nil {
		return err
	}

	c.session = NewSession(hc, cfg.APIURL)
	c.ssoURL = cfg.SSOURL
	c.username = cfg.Username
	c.password = cfg.Password
	c.country = cfg.Country
	return nil
}

// Session returns the underlying session for calling endpoints directly.
func (c *Client) Session() *Session {
	return c.session
}

// Country returns the country the client was configured for.
func (c *Client) Country() Country {
	return c.country
}

// Login establishes the server-side session. Belgian accounts are first
// authenticated with the SSO service which resolves the username the API
// expects. Any failed request aborts the login.
func (c *Client) Login(ctx context.Context) error {
	ctx = log.WithAttrs(ctx, slog.String("country", string(c.country)))

	username := c.username
	switch c.country {
	case CountryNL:
	case CountryBE:
		var err error
		username, err = c.ssoLogin(ctx)
		if err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "essent sso login failed", slog.Any("error", err))
			return fmt.Errorf("sso login failed: %w", err)
		}
	default:
		return fmt.Errorf("unsupported country: %q", c.country)
	}

	if err := c.session.AuthenticateUser(ctx, username, c.password, false); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "essent login failed", slog.Any("error", err))
		return fmt.Errorf("login failed: %w", err)
	}
	log.Ctx(ctx).DebugContext(ctx, "essent login success")
	return nil
}
