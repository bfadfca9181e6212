package essent

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ssoChallengeJSON = `{
	"authId": "auth-id-123",
	"template": "",
	"stage": "DataStore1",
	"header": "Sign in",
	"callbacks": [
		{"type": "NameCallback", "output": [{"name": "prompt", "value": "User Name:"}], "input": [{"name": "IDToken1", "value": ""}], "_id": 0},
		{"type": "PasswordCallback", "output": [{"name": "prompt", "value": "Password:"}], "input": [{"name": "IDToken2", "value": ""}], "_id": 1}
	]
}`

func TestLoginBE(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.URL.Path)
		mu.Unlock()
		switch r.URL.Path {
		case "/am/json/authenticate":
			assert.Equal(t, "POST", r.Method)
			b, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			if len(b) == 0 {
				_, _ = w.Write([]byte(ssoChallengeJSON))
				return
			}
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			var ch struct {
				AuthID    string `json:"authId"`
				Stage     string `json:"stage"`
				Callbacks []struct {
					ID     int               `json:"_id"`
					Output []json.RawMessage `json:"output"`
					Input  []struct {
						Name  string `json:"name"`
						Value string `json:"value"`
					} `json:"input"`
				} `json:"callbacks"`
			}
			require.NoError(t, json.Unmarshal(b, &ch))
			assert.Equal(t, "auth-id-123", ch.AuthID)
			assert.Equal(t, "DataStore1", ch.Stage)
			require.Len(t, ch.Callbacks, 2)
			assert.Equal(t, "IDToken1", ch.Callbacks[0].Input[0].Name)
			assert.Equal(t, "user@example.com", ch.Callbacks[0].Input[0].Value)
			assert.Equal(t, "hunter2", ch.Callbacks[1].Input[0].Value)
			assert.Equal(t, 1, ch.Callbacks[1].ID)
			assert.Len(t, ch.Callbacks[0].Output, 1, "outputs are echoed back")
			_, _ = w.Write([]byte(`{"tokenId": "tok-456", "successUrl": "/am/console", "realm": "/"}`))
		case "/am/json/users":
			assert.Equal(t, "idFromSession", r.URL.Query().Get("_action"))
			c, err := r.Cookie(ssoTokenCookie)
			if !assert.NoError(t, err) {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			assert.Equal(t, "tok-456", c.Value)
			_, _ = w.Write([]byte(`{"id": "ignored", "realm": "/", "dn": "id=12345,ou=user,dc=essent,dc=be"}`))
		case "/selfservice/user/authenticateUser":
			c, err := r.Cookie(ssoDomainCookie)
			require.NoError(t, err)
			assert.Equal(t, ssoDomain, c.Value)

			b, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			var body authenticateUserBody
			require.NoError(t, xml.Unmarshal(b, &body))
			assert.Equal(t, "12345", body.Username)
			assert.Equal(t, "hunter2", body.Password)
			_, _ = w.Write([]byte(`<AuthenticateUser><response/></AuthenticateUser>`))
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}))
	defer ts.Close()

	c := newTestClient(t, ts, CountryBE)
	require.NoError(t, c.Login(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"/am/json/authenticate",
		"/am/json/authenticate",
		"/am/json/users",
		"/selfservice/user/authenticateUser",
	}, calls)
}

func TestLoginBEFailures(t *testing.T) {
	t.Run("rejected credentials", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, _ := io.ReadAll(r.Body)
			if len(b) == 0 {
				_, _ = w.Write([]byte(ssoChallengeJSON))
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer ts.Close()

		err := newTestClient(t, ts, CountryBE).Login(context.Background())
		assert.True(t, IsStatus(err, http.StatusUnauthorized))
	})

	t.Run("malformed challenge", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"authId": "a", "callbacks": []}`))
		}))
		defer ts.Close()

		err := newTestClient(t, ts, CountryBE).Login(context.Background())
		assert.ErrorIs(t, err, ErrUnexpectedResponse)
	})
}

func TestSSOChallengeFill(t *testing.T) {
	t.Run("echoes unknown fields", func(t *testing.T) {
		var ch ssoChallenge
		require.NoError(t, json.Unmarshal([]byte(`{
			"authId": "a",
			"extra": {"keep": true},
			"callbacks": [
				{"type": "NameCallback", "output": [], "input": [{"name": "IDToken1", "value": "", "hint": "x"}], "_id": 0},
				{"type": "PasswordCallback", "output": [], "input": [{"name": "IDToken2", "value": ""}], "_id": 1},
				{"type": "ConfirmationCallback", "input": [{"name": "IDToken3", "value": 0}], "_id": 2}
			]
		}`), &ch))
		require.NoError(t, ch.fill("u", "p"))

		b, err := json.Marshal(ch)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"authId": "a",
			"extra": {"keep": true},
			"callbacks": [
				{"type": "NameCallback", "output": [], "input": [{"name": "IDToken1", "value": "u", "hint": "x"}], "_id": 0},
				{"type": "PasswordCallback", "output": [], "input": [{"name": "IDToken2", "value": "p"}], "_id": 1},
				{"type": "ConfirmationCallback", "input": [{"name": "IDToken3", "value": 0}], "_id": 2}
			]
		}`, string(b))
	})

	t.Run("malformed", func(t *testing.T) {
		for _, body := range []string{
			`{}`,
			`{"authId": ""}`,
			`{"authId": "a"}`,
			`{"authId": "a", "callbacks": "nope"}`,
			`{"authId": "a", "callbacks": [{"input": []}, {"input": []}]}`,
			`{"authId": "a", "callbacks": [{"input": [{}]}, {}]}`,
		} {
			var ch ssoChallenge
			require.NoError(t, json.Unmarshal([]byte(body), &ch))
			assert.ErrorIs(t, ch.fill("u", "p"), ErrUnexpectedResponse, body)
		}
	})
}

func TestUsernameFromDN(t *testing.T) {
	assert.Equal(t, "12345", usernameFromDN("id=12345,ou=user,dc=essent,dc=be"))
	assert.Equal(t, "abc", usernameFromDN("uid= abc "))
	assert.Equal(t, "", usernameFromDN(""))
	assert.Equal(t, "", usernameFromDN("nodelimiter"))
}
