//go:build integration

package integration

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"moodflix-client/internal/app"
	"moodflix-client/internal/config"
	"moodflix-client/internal/gateway/gatewaytest"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
	Meta *struct {
		Total        int    `json:"total"`
		SessionEpoch uint64 `json:"session_epoch"`
	} `json:"meta"`
}

func testConfig(apiBaseURL string) *config.Config {
	return &config.Config{
		ListenAddr:         "127.0.0.1:0",
		ServerReadTimeout:  15 * time.Second,
		ServerWriteTimeout: 30 * time.Second,
		ServerIdleTimeout:  120 * time.Second,
		RequestTimeout:     10 * time.Second,
		CORSOrigins:        []string{"*"},
		RateLimitRPM:       10000,
		AuthRateLimitRPM:   10000,
		APIBaseURL:         apiBaseURL,
		APITimeout:         5 * time.Second,
		APIRateLimitRPS:    1000,
		APIRateBurst:       100,
		ResolveTimeout:     5 * time.Second,
		LoginPath:          "/login",
		HomePath:           "/",
	}
}

// newClient starts the local client against a fresh fake backend and waits
// for the startup resolution to finish.
func newClient(t *testing.T, cfgFn func(*config.Config)) (*httptest.Server, *gatewaytest.Server, *app.App) {
	t.Helper()

	backend := gatewaytest.NewServer()
	t.Cleanup(backend.Close)

	cfg := testConfig(backend.APIBaseURL())
	if cfgFn != nil {
		cfgFn(cfg)
	}

	application, err := app.New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	application.Start(ctx)

	select {
	case <-application.Session().Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("startup resolution did not finish")
	}

	server := httptest.NewServer(application.Handler())
	t.Cleanup(server.Close)
	return server, backend, application
}

func doJSON(t *testing.T, method string, url string, payload any) (*http.Response, envelope) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var out envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func login(t *testing.T, server *httptest.Server, username string, password string) {
	t.Helper()
	resp, _ := doJSON(t, http.MethodPost, server.URL+"/api/v1/session/login",
		map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
