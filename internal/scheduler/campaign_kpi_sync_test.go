package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/campaign-monitor-api/infrastructure/integrator/meta"
	metadomain "github.com/vfg2006/campaign-monitor-api/infrastructure/integrator/meta/domain"
	metamocks "github.com/vfg2006/campaign-monitor-api/infrastructure/integrator/meta/metaclient/mocks"
	"github.com/vfg2006/campaign-monitor-api/internal/config"
	"github.com/vfg2006/campaign-monitor-api/internal/domain"
	"github.com/vfg2006/campaign-monitor-api/internal/usecases/campaigning/mocks"
	"go.uber.org/mock/gomock"
)

func stringPtr(s string) *string {
	return &s
}

func newTestSyncService(campaigner *mocks.MockCampaigner, client *metamocks.MockClient, delaySeconds int) (*CampaignKPISyncService, *[]time.Duration) {
	cfg := &config.Config{}
	cfg.CampaignKPISync.CronSchedule = "*/30 * * * *"
	cfg.CampaignKPISync.MaxConcurrentJobs = 2
	cfg.CampaignKPISync.RequestDelaySeconds = delaySeconds

	service := NewCampaignKPISyncService(campaigner, meta.New(client), cfg)

	var sleeps []time.Duration
	service.sleep = func(d time.Duration) {
		sleeps = append(sleeps, d)
	}

	return service, &sleeps
}

func TestCampaignKPISyncService_syncAllCampaigns(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	campaigner := mocks.NewMockCampaigner(ctrl)
	client := metamocks.NewMockClient(ctrl)
	service, _ := newTestSyncService(campaigner, client, 0)

	campaigns := []*domain.Campaign{
		{ID: "camp-1", ExternalID: stringPtr("1201"), Platform: MetaPlatform, Status: domain.CampaignStatusActive},
		{ID: "camp-2", Platform: MetaPlatform, Status: domain.CampaignStatusActive},
		{ID: "camp-3", ExternalID: stringPtr("1203"), Platform: MetaPlatform, Status: domain.CampaignStatusActive},
	}

	campaigner.EXPECT().
		ListCampaigns(gomock.Any(), domain.CampaignFilter{Status: domain.CampaignStatusActive, Platform: MetaPlatform}).
		Return(campaigns, nil)

	client.EXPECT().
		GetAdCampaignInsightsByID(gomock.Any(), "1201", gomock.Nil()).
		Return(&metadomain.CampaignInsight{
			Impressions: "10000",
			Clicks:      "500",
			Spend:       "700",
			Objective:   "OUTCOME_SALES",
			Actions:     []metadomain.Action{{ActionType: "offsite_conversion.fb_pixel_purchase", Value: "40"}},
		}, nil)

	client.EXPECT().
		GetAdCampaignInsightsByID(gomock.Any(), "1203", gomock.Nil()).
		Return(nil, errors.New("meta indisponível"))

	campaigner.EXPECT().
		UpdateKpis(gomock.Any(), "camp-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, counters domain.KPICounters) (*domain.UpdateKPIsResponse, error) {
			if !assert.NotNil(t, counters.Impressions) {
				return nil, errors.New("contadores ausentes")
			}
			assert.Equal(t, int64(10000), *counters.Impressions)
			assert.Equal(t, int64(500), *counters.Clicks)
			assert.Equal(t, int64(40), *counters.Conversions)
			assert.Equal(t, 700.0, *counters.BudgetSpent)

			return &domain.UpdateKPIsResponse{
				NewAlerts: []domain.Alert{{ID: "a1"}, {ID: "a2"}},
			}, nil
		})

	summary, ran := service.syncAllCampaigns(context.Background())

	assert.True(t, ran)
	assert.Equal(t, SyncSummary{Campaigns: 3, Updated: 1, Failed: 1, Skipped: 1, Alerts: 2}, summary)

	status := service.GetStatus()
	assert.Equal(t, summary, status["last_sync_summary"])
	assert.Equal(t, false, status["sync_running"])
	assert.False(t, status["last_sync_completed_at"].(time.Time).IsZero())
}

func TestCampaignKPISyncService_syncAllCampaigns_Erros(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(campaigner *mocks.MockCampaigner, client *metamocks.MockClient)
		expected SyncSummary
	}{
		{
			name: "falha ao listar campanhas não processa nada",
			setup: func(campaigner *mocks.MockCampaigner, client *metamocks.MockClient) {
				campaigner.EXPECT().ListCampaigns(gomock.Any(), gomock.Any()).Return(nil, errors.New("db fora"))
			},
			expected: SyncSummary{},
		},
		{
			name: "erro de validação no UpdateKpis conta como falha",
			setup: func(campaigner *mocks.MockCampaigner, client *metamocks.MockClient) {
				campaigner.EXPECT().ListCampaigns(gomock.Any(), gomock.Any()).Return([]*domain.Campaign{
					{ID: "camp-1", ExternalID: stringPtr("1201")},
				}, nil)
				client.EXPECT().GetAdCampaignInsightsByID(gomock.Any(), "1201", gomock.Nil()).
					Return(&metadomain.CampaignInsight{Impressions: "10", Spend: "5"}, nil)
				campaigner.EXPECT().UpdateKpis(gomock.Any(), "camp-1", gomock.Any()).
					Return(nil, errors.New("orçamento gasto não pode diminuir"))
			},
			expected: SyncSummary{Campaigns: 1, Failed: 1},
		},
		{
			name: "nenhuma campanha ativa",
			setup: func(campaigner *mocks.MockCampaigner, client *metamocks.MockClient) {
				campaigner.EXPECT().ListCampaigns(gomock.Any(), gomock.Any()).Return([]*domain.Campaign{}, nil)
			},
			expected: SyncSummary{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			campaigner := mocks.NewMockCampaigner(ctrl)
			client := metamocks.NewMockClient(ctrl)
			tt.setup(campaigner, client)

			service, _ := newTestSyncService(campaigner, client, 0)

			summary, ran := service.syncAllCampaigns(context.Background())
			assert.True(t, ran)
			assert.Equal(t, tt.expected, summary)
		})
	}
}

func TestCampaignKPISyncService_IntervaloEntreRequisicoes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	campaigner := mocks.NewMockCampaigner(ctrl)
	client := metamocks.NewMockClient(ctrl)
	service, sleeps := newTestSyncService(campaigner, client, 2)
	service.config.MaxConcurrentJobs = 1

	campaigner.EXPECT().ListCampaigns(gomock.Any(), gomock.Any()).Return([]*domain.Campaign{
		{ID: "camp-1", ExternalID: stringPtr("1201")},
		{ID: "camp-2", ExternalID: stringPtr("1202")},
	}, nil)
	client.EXPECT().GetAdCampaignInsightsByID(gomock.Any(), gomock.Any(), gomock.Nil()).
		Return(&metadomain.CampaignInsight{Impressions: "1"}, nil).Times(2)
	campaigner.EXPECT().UpdateKpis(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&domain.UpdateKPIsResponse{}, nil).Times(2)

	summary, _ := service.syncAllCampaigns(context.Background())

	assert.Equal(t, 2, summary.Updated)
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, *sleeps)
}

func TestCampaignKPISyncService_IgnoraExecucaoConcorrente(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service, _ := newTestSyncService(mocks.NewMockCampaigner(ctrl), metamocks.NewMockClient(ctrl), 0)
	service.syncRunning = true

	summary, ran := service.syncAllCampaigns(context.Background())

	assert.False(t, ran)
	assert.Equal(t, SyncSummary{}, summary)
}

func TestCampaignKPISyncService_StartDesabilitado(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service, _ := newTestSyncService(mocks.NewMockCampaigner(ctrl), metamocks.NewMockClient(ctrl), 0)

	require.NoError(t, service.Start(context.Background()))
	assert.Equal(t, false, service.GetStatus()["sync_enabled"])
}
