package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCode(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr error
	}{
		{name: "query", url: "https://ext.example/cb?code=abc&state=state", want: "abc"},
		{name: "fragment", url: "https://ext.example/cb#code=xyz", want: "xyz"},
		{name: "query before fragment", url: "https://ext.example/cb?code=abc#code=other", want: "abc"},
		{name: "escaped", url: "https://ext.example/cb?code=a%2Fb", want: "a/b"},
		{name: "no params", url: "https://ext.example/cb", wantErr: ErrNoCode},
		{name: "no code", url: "https://ext.example/cb?state=state", wantErr: ErrNoCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractCode(tt.url)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/token", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["code"] != "good" || body["client_id"] != "cid" || body["client_secret"] != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"bad code"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","scope":"profile keys"}`))
	})
	mux.HandleFunc("/v1/keys", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"kid":"k1","k":"c2VjcmV0"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(ClientConfig{
		TokenURL:     srv.URL + "/v1/token",
		KeysURL:      srv.URL + "/v1/keys",
		ClientID:     "cid",
		ClientSecret: "secret",
	})
}

func TestClient_ExchangeCode(t *testing.T) {
	c := newTestClient(newTestServer(t))

	token, err := c.ExchangeCode(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "tok", token.AccessToken)
	assert.Equal(t, "profile keys", token.Scope)
}

func TestClient_ExchangeCode_BadStatus(t *testing.T) {
	c := newTestClient(newTestServer(t))

	_, err := c.ExchangeCode(context.Background(), "bad")
	require.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "400")
}

func TestClient_FetchKeys(t *testing.T) {
	c := newTestClient(newTestServer(t))

	keys, err := c.FetchKeys(context.Background(), Token{AccessToken: "tok"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kid":"k1","k":"c2VjcmV0"}`, string(keys))
}

func TestClient_FetchKeys_Unauthorized(t *testing.T) {
	c := newTestClient(newTestServer(t))

	_, err := c.FetchKeys(context.Background(), Token{AccessToken: "other"})
	require.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestClient_CanceledContext(t *testing.T) {
	c := newTestClient(newTestServer(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ExchangeCode(ctx, "good")
	require.Error(t, err)
}
