package essent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCountry(t *testing.T) {
	c, err := ParseCountry("nl")
	require.NoError(t, err)
	assert.Equal(t, CountryNL, c)

	c, err = ParseCountry(" BE ")
	require.NoError(t, err)
	assert.Equal(t, CountryBE, c)

	_, err = ParseCountry("DE")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c, err := New(Config{Username: "u", Password: "p", Country: CountryBE})
		require.NoError(t, err)
		assert.Equal(t, "https://api.essent.be/", c.Session().BaseURL())
		assert.Equal(t, defaultSSOURL, c.ssoURL)
		assert.Equal(t, time.Minute, c.Session().client.Timeout)
		assert.NotNil(t, c.Session().client.Jar)
		assert.Equal(t, CountryBE, c.Country())
	})

	t.Run("clients don't share sessions", func(t *testing.T) {
		a, err := New(Config{Username: "a", Password: "p", Country: CountryNL})
		require.NoError(t, err)
		b, err := New(Config{Username: "b", Password: "p", Country: CountryNL})
		require.NoError(t, err)
		assert.NotSame(t, a.Session(), b.Session())
		assert.NotSame(t, a.Session().client, b.Session().client)
	})

	t.Run("invalid", func(t *testing.T) {
		for name, cfg := range map[string]Config{
			"no username": {Password: "p", Country: CountryNL},
			"no password": {Username: "u", Country: CountryNL},
			"no country":  {Username: "u", Password: "p"},
			"bad url":     {Username: "u", Password: "p", Country: CountryNL, APIURL: "://bad"},
		} {
			_, err := New(cfg)
			assert.Error(t, err, name)
		}
	})
}
