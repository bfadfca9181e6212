package essent

import (
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/raterudder/essent/pkg/log"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetDefaultLogLevel(slog.LevelError)
}

func newTestClient(t *testing.T, ts *httptest.Server, country Country) *Client {
	t.Helper()
	c, err := New(Config{
		Username: "user@example.com",
		Password: "hunter2",
		Country:  country,
		APIURL:   ts.URL + "/",
		SSOURL:   ts.URL + "/am/json/",
	})
	require.NoError(t, err)
	return c
}
