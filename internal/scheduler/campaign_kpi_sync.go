package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/campaign-monitor-api/internal/config"
	"github.com/vfg2006/campaign-monitor-api/internal/domain"
	"github.com/vfg2006/campaign-monitor-api/internal/metrics"
	"github.com/vfg2006/campaign-monitor-api/internal/usecases/campaigning"
)

const MetaPlatform = "meta"

// CampaignInsighter busca os contadores acumulados de uma campanha na plataforma
type CampaignInsighter interface {
	GetCampaignInsight(ctx context.Context, externalID string) (*domain.CampaignInsight, error)
}

// CampaignKPISyncConfig representa a configuração do agendador de KPIs
type CampaignKPISyncConfig struct {
	CronSchedule        string
	RequestDelaySeconds int
	MaxConcurrentJobs   int
	SyncEnabled         bool
}

// SyncSummary resume uma execução da sincronização
type SyncSummary struct {
	Campaigns int `json:"campaigns"`
	Updated   int `json:"updated"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	Alerts    int `json:"alerts"`
}

// CampaignKPISyncService puxa os contadores do Meta e atualiza os KPIs das campanhas ativas
type CampaignKPISyncService struct {
	scheduler           *gocron.Scheduler
	config              CampaignKPISyncConfig
	campaignService     campaigning.Campaigner
	insighter           CampaignInsighter
	syncRunning         bool
	syncMutex           sync.Mutex
	lastSyncStartedAt   time.Time
	lastSyncCompletedAt time.Time
	lastSummary         SyncSummary
	sleep               func(time.Duration)
}

func NewCampaignKPISyncService(
	campaignService campaigning.Campaigner,
	insighter CampaignInsighter,
	appConfig *config.Config,
) *CampaignKPISyncService {
	syncConfig := CampaignKPISyncConfig{
		CronSchedule:        appConfig.CampaignKPISync.CronSchedule,
		RequestDelaySeconds: appConfig.CampaignKPISync.RequestDelaySeconds,
		MaxConcurrentJobs:   appConfig.CampaignKPISync.MaxConcurrentJobs,
		SyncEnabled:         appConfig.CampaignKPISync.Enabled,
	}
	if syncConfig.MaxConcurrentJobs < 1 {
		syncConfig.MaxConcurrentJobs = 1
	}

	logrus.WithFields(logrus.Fields{
		"cron_schedule":         syncConfig.CronSchedule,
		"request_delay_seconds": syncConfig.RequestDelaySeconds,
		"max_concurrent_jobs":   syncConfig.MaxConcurrentJobs,
		"sync_enabled":          syncConfig.SyncEnabled,
	}).Info("Configuração do agendador de KPIs de campanhas carregada")

	return &CampaignKPISyncService{
		scheduler:       gocron.NewScheduler(time.UTC),
		config:          syncConfig,
		campaignService: campaignService,
		insighter:       insighter,
		sleep:           time.Sleep,
	}
}

// Start inicia o agendador
func (s *CampaignKPISyncService) Start(ctx context.Context) error {
	if !s.config.SyncEnabled {
		logrus.Info("Sincronização de KPIs de campanhas desabilitada por configuração")
		return nil
	}

	logrus.WithField("cron", s.config.CronSchedule).Info("Iniciando agendador de sincronização de KPIs de campanhas")

	_, err := s.scheduler.Cron(s.config.CronSchedule).Do(func() {
		s.syncAllCampaigns(ctx)
	})
	if err != nil {
		return fmt.Errorf("erro ao agendar sincronização de KPIs de campanhas: %w", err)
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("Parando agendador de sincronização de KPIs de campanhas")
		s.scheduler.Stop()
	}()

	return nil
}

// syncAllCampaigns atualiza os KPIs de todas as campanhas ativas do Meta.
// Retorna false quando outra execução já estava em andamento.
func (s *CampaignKPISyncService) syncAllCampaigns(ctx context.Context) (SyncSummary, bool) {
	s.syncMutex.Lock()
	if s.syncRunning {
		s.syncMutex.Unlock()
		logrus.Info("Sincronização de KPIs já em andamento, ignorando")
		metrics.KPISyncRunsTotal.WithLabelValues("skipped").Inc()
		return SyncSummary{}, false
	}
	s.syncRunning = true
	startTime := time.Now()
	s.lastSyncStartedAt = startTime
	s.syncMutex.Unlock()

	defer func() {
		s.syncMutex.Lock()
		s.syncRunning = false
		s.syncMutex.Unlock()
	}()

	logrus.Info("Iniciando sincronização de KPIs das campanhas ativas do Meta")

	campaigns, err := s.campaignService.ListCampaigns(ctx, domain.CampaignFilter{
		Status:   domain.CampaignStatusActive,
		Platform: MetaPlatform,
	})
	if err != nil {
		logrus.WithError(err).Error("Erro ao buscar campanhas para sincronização de KPIs")
		metrics.KPISyncRunsTotal.WithLabelValues("failed").Inc()
		return SyncSummary{}, true
	}

	summary := s.processCampaigns(ctx, campaigns)

	duration := time.Since(startTime)
	metrics.KPISyncDuration.Observe(duration.Seconds())
	metrics.KPISyncRunsTotal.WithLabelValues("success").Inc()

	logrus.WithFields(logrus.Fields{
		"duration":  duration.String(),
		"campaigns": summary.Campaigns,
		"updated":   summary.Updated,
		"failed":    summary.Failed,
		"skipped":   summary.Skipped,
		"alerts":    summary.Alerts,
	}).Info("Sincronização de KPIs de campanhas concluída")

	s.syncMutex.Lock()
	s.lastSyncCompletedAt = time.Now()
	s.lastSummary = summary
	s.syncMutex.Unlock()

	return summary, true
}

type syncResult int

const (
	syncUpdated syncResult = iota
	syncFailed
	syncSkipped
)

func (s *CampaignKPISyncService) processCampaigns(ctx context.Context, campaigns []*domain.Campaign) SyncSummary {
	summary := SyncSummary{Campaigns: len(campaigns)}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		semaphore = make(chan struct{}, s.config.MaxConcurrentJobs)
	)

	for _, campaign := range campaigns {
		if campaign.ExternalID == nil || *campaign.ExternalID == "" {
			logrus.WithField("campaign_id", campaign.ID).Warn("Campanha sem external_id. Pulando.")
			metrics.KPISyncCampaignsTotal.WithLabelValues("skipped").Inc()
			summary.Skipped++
			continue
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(c *domain.Campaign) {
			defer func() {
				<-semaphore
				wg.Done()
			}()

			result, alerts := s.syncCampaign(ctx, c)

			mu.Lock()
			switch result {
			case syncUpdated:
				summary.Updated++
				summary.Alerts += alerts
			case syncFailed:
				summary.Failed++
			}
			mu.Unlock()

			// Aguardar antes de liberar o slot para evitar sobrecarga na API
			if s.config.RequestDelaySeconds > 0 {
				s.sleep(time.Duration(s.config.RequestDelaySeconds) * time.Second)
			}
		}(campaign)
	}

	wg.Wait()

	return summary
}

func (s *CampaignKPISyncService) syncCampaign(ctx context.Context, campaign *domain.Campaign) (syncResult, int) {
	fields := logrus.Fields{
		"campaign_id": campaign.ID,
		"external_id": *campaign.ExternalID,
	}

	insight, err := s.insighter.GetCampaignInsight(ctx, *campaign.ExternalID)
	if err != nil {
		logrus.WithFields(fields).WithError(err).Error("Erro ao obter insights do Meta para campanha")
		metrics.KPISyncCampaignsTotal.WithLabelValues("failed").Inc()
		return syncFailed, 0
	}

	resp, err := s.campaignService.UpdateKpis(ctx, campaign.ID, insight.ToCounters())
	if err != nil {
		logrus.WithFields(fields).WithError(err).Error("Erro ao atualizar KPIs da campanha")
		metrics.KPISyncCampaignsTotal.WithLabelValues("failed").Inc()
		return syncFailed, 0
	}

	logrus.WithFields(fields).WithField("new_alerts", len(resp.NewAlerts)).Info("KPIs da campanha sincronizados com o Meta")
	metrics.KPISyncCampaignsTotal.WithLabelValues("success").Inc()

	return syncUpdated, len(resp.NewAlerts)
}

// TriggerManualSync inicia manualmente uma sincronização de KPIs
func (s *CampaignKPISyncService) TriggerManualSync() {
	s.syncMutex.Lock()
	if s.syncRunning {
		s.syncMutex.Unlock()
		logrus.Info("Sincronização de KPIs já em andamento, ignorando solicitação manual")
		return
	}
	s.syncMutex.Unlock()

	logrus.Info("Iniciando sincronização manual de KPIs de campanhas")
	go s.syncAllCampaigns(context.Background())
}

// GetStatus retorna o status atual do agendador
func (s *CampaignKPISyncService) GetStatus() map[string]any {
	s.syncMutex.Lock()
	defer s.syncMutex.Unlock()

	return map[string]any{
		"sync_enabled":           s.config.SyncEnabled,
		"sync_cron":              s.config.CronSchedule,
		"sync_max_concurrent":    s.config.MaxConcurrentJobs,
		"sync_request_delay_s":   s.config.RequestDelaySeconds,
		"sync_running":           s.syncRunning,
		"last_sync_started_at":   s.lastSyncStartedAt,
		"last_sync_completed_at": s.lastSyncCompletedAt,
		"last_sync_summary":      s.lastSummary,
	}
}
