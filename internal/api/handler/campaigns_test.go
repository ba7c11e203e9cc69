package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/campaign-monitor-api/internal/api/handler/router"
	"github.com/vfg2006/campaign-monitor-api/internal/domain"
	"github.com/vfg2006/campaign-monitor-api/internal/usecases/campaigning"
	"github.com/vfg2006/campaign-monitor-api/internal/usecases/campaigning/mocks"
	"github.com/vfg2006/campaign-monitor-api/pkg/apiErrors"
	"github.com/vfg2006/campaign-monitor-api/pkg/middleware"
	"go.uber.org/mock/gomock"
)

// serve executa a requisição no router como se o operador já estivesse autenticado
func serve(routes []router.Route, req *http.Request, roleID int) *httptest.ResponseRecorder {
	rt := router.New(router.WithRoutes(routes...))

	if roleID != 0 {
		ctx := context.WithValue(req.Context(), middleware.ContextKeyUser, &domain.Claims{
			UserEmail:  "operador@empresa.com",
			UserRoleID: roleID,
		})
		req = req.WithContext(ctx)
	}

	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, req)
	return rec
}

func decodeAPIError(t *testing.T, rec *httptest.ResponseRecorder) apiErrors.APIError {
	t.Helper()

	var apiErr apiErrors.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	return apiErr
}

func TestCreateCampaign(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service := mocks.NewMockCampaigner(ctrl)

	t.Run("cria campanha", func(t *testing.T) {
		service.EXPECT().
			CreateCampaign(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req *domain.CreateCampaignRequest) (*domain.Campaign, error) {
				assert.Equal(t, "Black Friday", req.Name)
				assert.Equal(t, 1000.0, req.Budget)
				assert.Equal(t, 10.0, req.Targets.CPA)

				return &domain.Campaign{ID: "camp-abc", Name: req.Name, Budget: req.Budget, Version: 1}, nil
			})

		body := `{"name":"Black Friday","platform":"meta","budget":1000,"start_date":"2024-06-01","end_date":"2024-06-30","targets":{"cpa":10,"roas":4,"conversions":100}}`
		rec := serve(Campaigns(service), httptest.NewRequest(http.MethodPost, "/v1/campaigns", strings.NewReader(body)), middleware.RoleAdmin)

		assert.Equal(t, http.StatusCreated, rec.Code)

		var campaign domain.Campaign
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &campaign))
		assert.Equal(t, "camp-abc", campaign.ID)
	})

	t.Run("erro de validação vira 400", func(t *testing.T) {
		service.EXPECT().
			CreateCampaign(gomock.Any(), gomock.Any()).
			Return(nil, campaigning.NewCampaignError(campaigning.ErrValidation, campaigning.ErrInvalidBudget, apiErrors.ErrInvalidCampaign, "budget=0"))

		rec := serve(Campaigns(service), httptest.NewRequest(http.MethodPost, "/v1/campaigns", strings.NewReader(`{"name":"x"}`)), middleware.RoleAdmin)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, apiErrors.ErrInvalidCampaign, decodeAPIError(t, rec).Code)
	})

	t.Run("JSON inválido", func(t *testing.T) {
		rec := serve(Campaigns(service), httptest.NewRequest(http.MethodPost, "/v1/campaigns", strings.NewReader(`{`)), middleware.RoleAdmin)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, apiErrors.ErrInvalidRequest, decodeAPIError(t, rec).Code)
	})

	t.Run("cliente não pode criar campanha", func(t *testing.T) {
		rec := serve(Campaigns(service), httptest.NewRequest(http.MethodPost, "/v1/campaigns", strings.NewReader(`{}`)), middleware.RoleClient)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestListCampaigns(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service := mocks.NewMockCampaigner(ctrl)

	t.Run("aplica filtros da query", func(t *testing.T) {
		service.EXPECT().
			ListCampaigns(gomock.Any(), domain.CampaignFilter{Status: domain.CampaignStatusActive, Platform: "meta"}).
			Return(nil, nil)

		rec := serve(Campaigns(service), httptest.NewRequest(http.MethodGet, "/v1/campaigns?status=ACTIVE&platform=Meta", nil), middleware.RoleClient)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("status inválido", func(t *testing.T) {
		rec := serve(Campaigns(service), httptest.NewRequest(http.MethodGet, "/v1/campaigns?status=deleted", nil), middleware.RoleClient)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetCampaign(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service := mocks.NewMockCampaigner(ctrl)

	t.Run("encontrada", func(t *testing.T) {
		service.EXPECT().GetCampaign(gomock.Any(), "camp-1").Return(&domain.Campaign{ID: "camp-1"}, nil)

		rec := serve(Campaigns(service), httptest.NewRequest(http.MethodGet, "/v1/campaigns/camp-1", nil), middleware.RoleClient)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"id":"camp-1"`)
	})

	t.Run("ausente vira 404", func(t *testing.T) {
		service.EXPECT().GetCampaign(gomock.Any(), "camp-x").Return(nil, nil)

		rec := serve(Campaigns(service), httptest.NewRequest(http.MethodGet, "/v1/campaigns/camp-x", nil), middleware.RoleClient)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, apiErrors.ErrCampaignNotFound, decodeAPIError(t, rec).Code)
	})
}

func TestUpdateCampaignKpis(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service := mocks.NewMockCampaigner(ctrl)

	t.Run("retorna KPIs e novos alertas", func(t *testing.T) {
		service.EXPECT().
			UpdateKpis(gomock.Any(), "camp-1", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, counters domain.KPICounters) (*domain.UpdateKPIsResponse, error) {
				require.NotNil(t, counters.Impressions)
				assert.Equal(t, int64(10000), *counters.Impressions)
				assert.Nil(t, counters.BudgetSpent)

				return &domain.UpdateKPIsResponse{
					KPIs: domain.KPIs{Impressions: 10000, Clicks: 500, Conversions: 40, CTR: 5, CPA: 17.5},
					NewAlerts: []domain.Alert{{
						ID:       "a1",
						Type:     domain.AlertTypeCPAHigh,
						Severity: domain.AlertSeverityHigh,
						Data:     time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
					}},
				}, nil
			})

		body := `{"impressions":10000,"clicks":500,"conversions":40}`
		rec := serve(Campaigns(service), httptest.NewRequest(http.MethodPost, "/v1/campaigns/camp-1/kpis", strings.NewReader(body)), middleware.RoleSupervisor)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp domain.UpdateKPIsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 5.0, resp.KPIs.CTR)
		require.Len(t, resp.NewAlerts, 1)
		assert.Equal(t, domain.AlertTypeCPAHigh, resp.NewAlerts[0].Type)
	})

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{
			name:   "campanha inexistente",
			err:    campaigning.NewCampaignErrorWithID(campaigning.ErrCampaignNotFound, campaigning.ErrCampaignNotFound, apiErrors.ErrCampaignNotFound, "camp-1", ""),
			status: http.StatusNotFound,
			code:   apiErrors.ErrCampaignNotFound,
		},
		{
			name:   "contadores negativos",
			err:    campaigning.NewCampaignErrorWithID(campaigning.ErrValidation, campaigning.ErrInvalidCounters, apiErrors.ErrInvalidCampaign, "camp-1", "clicks negativo"),
			status: http.StatusBadRequest,
			code:   apiErrors.ErrInvalidCampaign,
		},
		{
			name:   "armazenamento indisponível",
			err:    campaigning.NewCampaignErrorWithID(campaigning.ErrStorage, campaigning.ErrStorage, apiErrors.ErrStorageUnavailable, "camp-1", "timeout"),
			status: http.StatusServiceUnavailable,
			code:   apiErrors.ErrStorageUnavailable,
		},
		{
			name:   "erro sem contexto",
			err:    errors.New("inesperado"),
			status: http.StatusInternalServerError,
			code:   apiErrors.ErrInternalServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service.EXPECT().UpdateKpis(gomock.Any(), "camp-1", gomock.Any()).Return(nil, tt.err)

			rec := serve(Campaigns(service), httptest.NewRequest(http.MethodPost, "/v1/campaigns/camp-1/kpis", strings.NewReader(`{}`)), middleware.RoleAdmin)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, decodeAPIError(t, rec).Code)
		})
	}
}

func TestResolveCampaignAlert(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service := mocks.NewMockCampaigner(ctrl)

	t.Run("resolve alerta", func(t *testing.T) {
		service.EXPECT().ResolveAlert(gomock.Any(), "camp-1", "a1").Return(&domain.Alert{ID: "a1", Resolved: true}, nil)

		rec := serve(Campaigns(service), httptest.NewRequest(http.MethodPost, "/v1/campaigns/camp-1/alerts/a1/resolve", nil), middleware.RoleAdmin)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"resolved":true`)
	})

	t.Run("alerta inexistente", func(t *testing.T) {
		service.EXPECT().ResolveAlert(gomock.Any(), "camp-1", "zz").
			Return(nil, campaigning.NewCampaignErrorWithID(campaigning.ErrAlertNotFound, campaigning.ErrAlertNotFound, apiErrors.ErrAlertNotFound, "camp-1", "zz"))

		rec := serve(Campaigns(service), httptest.NewRequest(http.MethodPost, "/v1/campaigns/camp-1/alerts/zz/resolve", nil), middleware.RoleAdmin)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, apiErrors.ErrAlertNotFound, decodeAPIError(t, rec).Code)
	})
}

func TestListPendingAlerts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service := mocks.NewMockCampaigner(ctrl)
	service.EXPECT().ListPendingAlerts(gomock.Any()).Return([]*domain.PendingAlert{
		{CampaignID: "camp-1", CampaignName: "Verão", Alert: domain.Alert{ID: "a1", Type: domain.AlertTypeBudgetPace}},
	}, nil)

	rec := serve(Alerts(service), httptest.NewRequest(http.MethodGet, "/v1/alerts/pending", nil), middleware.RoleClient)

	assert.Equal(t, http.StatusOK, rec.Code)

	var alerts []domain.PendingAlert
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &alerts))
	require.Len(t, alerts, 1)
	assert.Equal(t, "camp-1", alerts[0].CampaignID)
	assert.Equal(t, domain.AlertTypeBudgetPace, alerts[0].Type)
}

func TestRouter_RotaInexistente(t *testing.T) {
	rec := serve(nil, httptest.NewRequest(http.MethodGet, "/v1/nada", nil), 0)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apiErrors.ErrResourceNotFound, decodeAPIError(t, rec).Code)
}
