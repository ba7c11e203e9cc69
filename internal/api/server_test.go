package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/campaign-monitor-api/infrastructure/repository"
	"github.com/vfg2006/campaign-monitor-api/internal/config"
	"github.com/vfg2006/campaign-monitor-api/internal/domain"
	"github.com/vfg2006/campaign-monitor-api/internal/usecases/authenticating"
	"github.com/vfg2006/campaign-monitor-api/internal/usecases/campaigning"
	"golang.org/x/crypto/bcrypt"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("senha-admin"), bcrypt.MinCost)
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	cfg.Auth = config.Auth{
		Secret:            "segredo",
		AdminEmail:        "admin@empresa.com",
		AdminPasswordHash: string(hash),
		TokenTTL:          time.Hour,
	}

	campaigns := campaigning.NewService(
		repository.NewMemoryCampaignRepository(),
		campaigning.NewAlertEvaluator(nil),
		campaigning.NewOrderValuePolicy(50, nil),
		nil,
		campaigning.Options{StorageTimeout: time.Second, MaxConflictRetries: 3},
	)

	srv, err := New(cfg, Dependencies{
		Campaigns:     campaigns,
		Authenticator: authenticating.NewService(cfg),
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.httpServer.Handler)
	t.Cleanup(ts.Close)

	return ts
}

func do(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func TestServer_FluxoCompleto(t *testing.T) {
	ts := newTestServer(t)

	// rotas protegidas exigem token
	resp := do(t, http.MethodGet, ts.URL+"/v1/campaigns", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, http.MethodPost, ts.URL+"/v1/login", "", `{"email":"admin@empresa.com","password":"senha-admin"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login domain.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	require.NotEmpty(t, login.Token)

	now := time.Now().UTC()
	createBody := `{
		"name": "Campanha Verão",
		"platform": "meta",
		"budget": 1000,
		"budget_spent": 700,
		"start_date": "` + now.AddDate(0, 0, -30).Format(time.RFC3339) + `",
		"end_date": "` + now.AddDate(0, 0, 30).Format(time.RFC3339) + `",
		"targets": {"cpa": 10, "roas": 4, "conversions": 100}
	}`

	resp = do(t, http.MethodPost, ts.URL+"/v1/campaigns", login.Token, createBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var campaign domain.Campaign
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&campaign))
	assert.NotEmpty(t, campaign.ID)
	assert.Empty(t, campaign.Alerts)
	assert.Empty(t, campaign.History)

	resp = do(t, http.MethodPost, ts.URL+"/v1/campaigns/"+campaign.ID+"/kpis", login.Token, `{"impressions":10000,"clicks":500,"conversions":40}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var update domain.UpdateKPIsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&update))
	assert.InDelta(t, 5.0, update.KPIs.CTR, 1e-9)
	assert.InDelta(t, 17.5, update.KPIs.CPA, 1e-9)

	types := make(map[domain.AlertType]domain.AlertSeverity)
	for _, alert := range update.NewAlerts {
		types[alert.Type] = alert.Severity
	}
	assert.Equal(t, domain.AlertSeverityHigh, types[domain.AlertTypeCPAHigh])
	assert.Contains(t, types, domain.AlertTypeBudgetPace)

	resp = do(t, http.MethodGet, ts.URL+"/v1/alerts/pending", login.Token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var pending []domain.PendingAlert
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pending))
	assert.Len(t, pending, len(update.NewAlerts))

	resp = do(t, http.MethodPost, ts.URL+"/v1/campaigns/"+campaign.ID+"/alerts/"+pending[0].ID+"/resolve", login.Token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+"/v1/alerts/pending", login.Token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	pending = nil
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pending))
	assert.Len(t, pending, len(update.NewAlerts)-1)
}

func TestServer_RotasPublicas(t *testing.T) {
	ts := newTestServer(t)

	resp := do(t, http.MethodGet, ts.URL+"/healthcheck", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodGet, ts.URL+"/metrics", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNew_ExigeServicos(t *testing.T) {
	_, err := New(&config.Config{}, Dependencies{})
	assert.Error(t, err)
}
