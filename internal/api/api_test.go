package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"bingx-scalping-bot/internal/exchange"
	"bingx-scalping-bot/internal/fusion"
	"bingx-scalping-bot/internal/notify"
	"bingx-scalping-bot/internal/risk"
	"bingx-scalping-bot/internal/scalper"
	"bingx-scalping-bot/internal/store"
)

func newTestServer(t *testing.T) (*Server, *scalper.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zerolog.Nop()
	trades := store.NewMemoryStore()
	deps := scalper.Deps{
		Trades:    trades,
		Cooldowns: store.NewMemoryCooldownStore(),
		Notifier:  notify.NewFanout(notify.NewLogSink(log)),
		Weights:   fusion.DefaultScoreWeights(),
		Engine:    fusion.DefaultEngineConfig(),
		Risk:      risk.DefaultConfig(),
		Logger:    log,
	}
	factory := func(cfg scalper.AccountConfig) (exchange.Client, error) {
		return exchange.NewMockClient(10_000), nil
	}
	manager := scalper.NewManager(factory, deps)

	accounts := []scalper.AccountConfig{{ID: "acct-1", Name: "Account One"}}
	server := NewServer(ServerConfig{Port: 0}, manager, trades, notify.NewHub(log), accounts, log)
	return server, manager
}

func doRequest(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("health = %d, expected 200", rec.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200", rec.Code)
	}

	var body struct {
		RunningAccounts int `json:"running_accounts"`
		WSClients       int `json:"ws_clients"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.RunningAccounts != 0 || body.WSClients != 0 {
		t.Errorf("fresh server should be idle: %+v", body)
	}
}

func TestAccountsEndpointListsConfiguredAccounts(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doRequest(t, server, http.MethodGet, "/api/accounts")
	if rec.Code != http.StatusOK {
		t.Fatalf("accounts = %d, expected 200", rec.Code)
	}

	var body struct {
		Accounts []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"accounts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Accounts) != 1 || body.Accounts[0].ID != "acct-1" {
		t.Errorf("unexpected account list: %+v", body.Accounts)
	}
}

func TestPositionsEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	if rec := doRequest(t, server, http.MethodGet, "/api/accounts/acct-1/positions"); rec.Code != http.StatusOK {
		t.Errorf("positions = %d, expected 200", rec.Code)
	}
	if rec := doRequest(t, server, http.MethodGet, "/api/accounts/ghost/positions"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown account = %d, expected 404", rec.Code)
	}
}

func TestStartAndStopEndpoints(t *testing.T) {
	server, manager := newTestServer(t)
	defer manager.Shutdown()

	if rec := doRequest(t, server, http.MethodPost, "/api/accounts/ghost/start"); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown start = %d, expected 404", rec.Code)
	}

	if rec := doRequest(t, server, http.MethodPost, "/api/accounts/acct-1/start"); rec.Code != http.StatusOK {
		t.Fatalf("start = %d, expected 200", rec.Code)
	}
	if manager.RunningCount() != 1 {
		t.Errorf("running count = %d after start", manager.RunningCount())
	}

	if rec := doRequest(t, server, http.MethodPost, "/api/accounts/acct-1/stop"); rec.Code != http.StatusOK {
		t.Fatalf("stop = %d, expected 200", rec.Code)
	}
	if manager.RunningCount() != 0 {
		t.Errorf("running count = %d after stop", manager.RunningCount())
	}
}
