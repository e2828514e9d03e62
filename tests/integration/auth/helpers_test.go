package auth

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Response shapes returned by the auth endpoints
type userBody struct {
	UUID      string `json:"uuid"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

type tokenBody struct {
	Token   string `json:"token"`
	Expires string `json:"expires"`
}

type tokensBody struct {
	Access  tokenBody `json:"access"`
	Refresh tokenBody `json:"refresh"`
}

type authBody struct {
	User   userBody   `json:"user"`
	Tokens tokensBody `json:"tokens"`
}

func post(t *testing.T, url string, accessToken string, data string) (int, string) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(body)
}

func get(t *testing.T, url string, accessToken string) (int, string) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(body)
}

func mustUnmarshal[T any](t *testing.T, body string) T {
	t.Helper()

	var v T
	err := json.Unmarshal([]byte(body), &v)
	require.NoErrorf(t, err, "failed to unmarshal body: %s", body)
	return v
}
