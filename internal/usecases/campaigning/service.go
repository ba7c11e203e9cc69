package campaigning

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/campaign-monitor-api/infrastructure/repository"
	"github.com/vfg2006/campaign-monitor-api/internal/domain"
	"github.com/vfg2006/campaign-monitor-api/internal/metrics"
	"github.com/vfg2006/campaign-monitor-api/pkg/apiErrors"
	"github.com/vfg2006/campaign-monitor-api/pkg/utils"
)

type Campaigner interface {
	CreateCampaign(ctx context.Context, request *domain.CreateCampaignRequest) (*domain.Campaign, error)
	UpdateKpis(ctx context.Context, campaignID string, counters domain.KPICounters) (*domain.UpdateKPIsResponse, error)
	ListPendingAlerts(ctx context.Context) ([]*domain.PendingAlert, error)
	GetCampaign(ctx context.Context, campaignID string) (*domain.Campaign, error)
	ListCampaigns(ctx context.Context, filter domain.CampaignFilter) ([]*domain.Campaign, error)
	ResolveAlert(ctx context.Context, campaignID, alertID string) (*domain.Alert, error)
}

// AlertNotifier recebe os alertas recém disparados de uma campanha
type AlertNotifier interface {
	NotifyAlerts(ctx context.Context, campaign *domain.Campaign, alerts []domain.Alert) error
}

type Options struct {
	// StorageTimeout limita cada chamada ao repositório (0 desabilita)
	StorageTimeout time.Duration
	// MaxConflictRetries é o número de tentativas diante de conflito de versão
	MaxConflictRetries int
	Now                func() time.Time
}

var _ Campaigner = (*Service)(nil)

type Service struct {
	repo      repository.CampaignRepository
	evaluator *AlertEvaluator
	policy    OrderValuePolicy
	notifier  AlertNotifier
	opts      Options
}

func NewService(
	repo repository.CampaignRepository,
	evaluator *AlertEvaluator,
	policy OrderValuePolicy,
	notifier AlertNotifier,
	opts Options,
) *Service {
	if evaluator == nil {
		evaluator = NewAlertEvaluator(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxConflictRetries < 1 {
		opts.MaxConflictRetries = 1
	}

	return &Service{
		repo:      repo,
		evaluator: evaluator,
		policy:    policy,
		notifier:  notifier,
		opts:      opts,
	}
}

func (s *Service) CreateCampaign(ctx context.Context, request *domain.CreateCampaignRequest) (*domain.Campaign, error) {
	if request == nil {
		return nil, NewCampaignError(ErrValidation, ErrValidation, apiErrors.ErrInvalidCampaign, "Requisição vazia")
	}

	campaign, err := s.buildCampaign(request)
	if err != nil {
		return nil, err
	}

	storageCtx, cancel := s.storageContext(ctx)
	defer cancel()

	if err := s.repo.CreateCampaign(storageCtx, campaign); err != nil {
		logrus.WithFields(logrus.Fields{
			"campaign_id": campaign.ID,
			"error":       err,
		}).Error("Erro ao salvar campanha")
		return nil, NewCampaignErrorWithID(ErrStorage, err, apiErrors.ErrStorageUnavailable, campaign.ID, "Falha ao salvar campanha")
	}

	metrics.CampaignsCreatedTotal.Inc()

	logrus.WithFields(logrus.Fields{
		"campaign_id": campaign.ID,
		"platform":    campaign.Platform,
		"budget":      campaign.Budget,
	}).Info("Campanha criada")

	return campaign, nil
}

func (s *Service) buildCampaign(request *domain.CreateCampaignRequest) (*domain.Campaign, error) {
	name := strings.TrimSpace(request.Name)
	if name == "" {
		return nil, validationError(ErrValidation, "Nome da campanha é obrigatório")
	}

	platform := strings.ToLower(strings.TrimSpace(request.Platform))
	if platform == "" {
		return nil, validationError(ErrValidation, "Plataforma é obrigatória")
	}

	startDate, err := utils.ParseDateTime(request.StartDate)
	if err != nil {
		return nil, validationError(ErrInvalidDateRange, fmt.Sprintf("Data inicial inválida: %v", err))
	}

	endDate, err := utils.ParseDateTime(request.EndDate)
	if err != nil {
		return nil, validationError(ErrInvalidDateRange, fmt.Sprintf("Data final inválida: %v", err))
	}

	if !endDate.After(startDate) {
		return nil, validationError(ErrInvalidDateRange, "")
	}

	if request.Budget <= 0 || !utils.IsFinite(request.Budget) {
		return nil, validationError(ErrInvalidBudget, "")
	}

	if request.BudgetSpent < 0 || !utils.IsFinite(request.BudgetSpent) {
		return nil, validationError(ErrValidation, "Orçamento gasto não pode ser negativo")
	}

	status := request.Status
	if status == "" {
		status = domain.CampaignStatusActive
	}
	if !status.IsValid() {
		return nil, validationError(ErrValidation, fmt.Sprintf("Status inválido: %s", status))
	}

	if request.AverageOrderValue != nil && (*request.AverageOrderValue <= 0 || !utils.IsFinite(*request.AverageOrderValue)) {
		return nil, validationError(ErrValidation, "Ticket médio deve ser positivo")
	}

	targets := request.Targets
	if targets.CPA < 0 || targets.ROAS < 0 || targets.Conversions < 0 || !utils.IsFinite(targets.CPA) || !utils.IsFinite(targets.ROAS) {
		return nil, validationError(ErrValidation, "Metas não podem ser negativas")
	}

	id, err := utils.GenerateCampaignID()
	if err != nil {
		return nil, NewCampaignError(ErrGenerateID, ErrGenerateID, apiErrors.ErrInternalServer, "Falha ao gerar identificador único para campanha")
	}

	now := s.opts.Now().UTC()

	return &domain.Campaign{
		ID:                id,
		ExternalID:        request.ExternalID,
		Name:              name,
		Platform:          platform,
		Status:            status,
		Budget:            request.Budget,
		BudgetSpent:       request.BudgetSpent,
		StartDate:         startDate,
		EndDate:           endDate,
		AverageOrderValue: request.AverageOrderValue,
		Targets:           targets,
		Alerts:            []domain.Alert{},
		History:           []domain.HistoryEntry{},
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// UpdateKpis executa um ciclo completo: carrega, recalcula, avalia e grava.
// Retorna apenas os alertas disparados neste ciclo.
func (s *Service) UpdateKpis(ctx context.Context, campaignID string, counters domain.KPICounters) (*domain.UpdateKPIsResponse, error) {
	if err := validateCounters(counters); err != nil {
		metrics.KPIUpdatesTotal.WithLabelValues("validation_error").Inc()
		return nil, err
	}

	for attempt := 1; attempt <= s.opts.MaxConflictRetries; attempt++ {
		campaign, err := s.loadCampaign(ctx, campaignID)
		if err != nil {
			metrics.KPIUpdatesTotal.WithLabelValues(updateStatus(err)).Inc()
			return nil, err
		}

		update, evaluated, err := s.prepareUpdate(campaign, counters)
		if err != nil {
			metrics.KPIUpdatesTotal.WithLabelValues("validation_error").Inc()
			return nil, err
		}

		err = s.applyUpdate(ctx, update)
		if errors.Is(err, repository.ErrVersionConflict) {
			metrics.KPIUpdateConflictsTotal.Inc()
			logrus.WithFields(logrus.Fields{
				"campaign_id": campaignID,
				"version":     campaign.Version,
				"attempt":     attempt,
			}).Warn("Conflito de versão ao atualizar KPIs, recarregando campanha")
			continue
		}
		if err != nil {
			metrics.KPIUpdatesTotal.WithLabelValues("storage_error").Inc()
			logrus.WithFields(logrus.Fields{
				"campaign_id": campaignID,
				"error":       err,
			}).Error("Erro ao gravar atualização de KPIs")
			return nil, NewCampaignErrorWithID(ErrStorage, err, apiErrors.ErrStorageUnavailable, campaignID, "Falha ao gravar atualização de KPIs")
		}

		metrics.KPIUpdatesTotal.WithLabelValues("success").Inc()
		for _, alert := range update.Alerts {
			metrics.AlertsRaisedTotal.WithLabelValues(string(alert.Type), string(alert.Severity)).Inc()
		}

		logrus.WithFields(logrus.Fields{
			"campaign_id": campaignID,
			"version":     update.ExpectedVersion + 1,
			"new_alerts":  len(update.Alerts),
		}).Info("KPIs da campanha atualizados")

		s.notify(ctx, evaluated, update.Alerts)

		return &domain.UpdateKPIsResponse{
			KPIs:      update.KPIs,
			NewAlerts: update.Alerts,
		}, nil
	}

	metrics.KPIUpdatesTotal.WithLabelValues("storage_error").Inc()
	return nil, NewCampaignErrorWithID(
		ErrStorage,
		repository.ErrVersionConflict,
		apiErrors.ErrStorageUnavailable,
		campaignID,
		fmt.Sprintf("Campanha alterada concorrentemente em %d tentativas", s.opts.MaxConflictRetries),
	)
}

// prepareUpdate calcula o próximo estado sem tocar no armazenamento
func (s *Service) prepareUpdate(campaign *domain.Campaign, counters domain.KPICounters) (*domain.KPIUpdate, *domain.Campaign, error) {
	budgetSpent := campaign.BudgetSpent
	if counters.BudgetSpent != nil {
		if *counters.BudgetSpent < campaign.BudgetSpent {
			return nil, nil, NewCampaignErrorWithID(
				ErrValidation,
				ErrInvalidCounters,
				apiErrors.ErrInvalidCampaign,
				campaign.ID,
				fmt.Sprintf("Orçamento gasto não pode diminuir (atual R$ %.2f)", campaign.BudgetSpent),
			)
		}
		budgetSpent = *counters.BudgetSpent
	}

	kpis := CalculateKPIs(campaign.KPIs, counters, budgetSpent, s.policy.For(campaign))

	evaluated := *campaign
	evaluated.BudgetSpent = budgetSpent
	evaluated.KPIs = kpis

	now := s.evaluationTime(campaign)
	alerts := s.evaluator.Evaluate(&evaluated, kpis, now)

	return &domain.KPIUpdate{
		CampaignID:      campaign.ID,
		ExpectedVersion: campaign.Version,
		KPIs:            kpis,
		BudgetSpent:     budgetSpent,
		History: domain.HistoryEntry{
			Timestamp: now,
			KPIs:      kpis,
		},
		Alerts: alerts,
	}, &evaluated, nil
}

// evaluationTime garante timestamps de histórico estritamente crescentes
func (s *Service) evaluationTime(campaign *domain.Campaign) time.Time {
	now := s.opts.Now().UTC().Truncate(time.Microsecond)

	if last, ok := campaign.LastHistoryTimestamp(); ok && !now.After(last) {
		now = last.Add(time.Microsecond)
	}

	return now
}

func (s *Service) applyUpdate(ctx context.Context, update *domain.KPIUpdate) error {
	storageCtx, cancel := s.storageContext(ctx)
	defer cancel()

	return s.repo.ApplyKPIUpdate(storageCtx, update)
}

func (s *Service) notify(ctx context.Context, campaign *domain.Campaign, alerts []domain.Alert) {
	if s.notifier == nil || len(alerts) == 0 {
		return
	}

	if err := s.notifier.NotifyAlerts(ctx, campaign, alerts); err != nil {
		metrics.AlertNotificationsTotal.WithLabelValues("failed").Inc()
		logrus.WithFields(logrus.Fields{
			"campaign_id": campaign.ID,
			"alerts":      len(alerts),
			"error":       err,
		}).Error("Erro ao publicar alertas da campanha")
		return
	}

	metrics.AlertNotificationsTotal.WithLabelValues("success").Inc()
}

func (s *Service) ListPendingAlerts(ctx context.Context) ([]*domain.PendingAlert, error) {
	campaigns, err := s.ListCampaigns(ctx, domain.CampaignFilter{})
	if err != nil {
		return nil, err
	}

	pending := make([]*domain.PendingAlert, 0)
	for _, campaign := range campaigns {
		for _, alert := range campaign.Alerts {
			if alert.Resolved {
				continue
			}

			pending = append(pending, &domain.PendingAlert{
				CampaignID:   campaign.ID,
				CampaignName: campaign.Name,
				Alert:        alert,
			})
		}
	}

	return pending, nil
}

// GetCampaign retorna (nil, nil) quando a campanha não existe
func (s *Service) GetCampaign(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	campaign, err := s.loadCampaign(ctx, campaignID)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}

	return campaign, nil
}

func (s *Service) ListCampaigns(ctx context.Context, filter domain.CampaignFilter) ([]*domain.Campaign, error) {
	storageCtx, cancel := s.storageContext(ctx)
	defer cancel()

	campaigns, err := s.repo.ListCampaigns(storageCtx, filter)
	if err != nil {
		logrus.WithField("error", err).Error("Erro ao listar campanhas")
		return nil, NewCampaignError(ErrStorage, err, apiErrors.ErrStorageUnavailable, "Falha ao listar campanhas")
	}

	if campaigns == nil {
		campaigns = make([]*domain.Campaign, 0)
	}

	return campaigns, nil
}

// ResolveAlert marca o alerta como resolvido. Resolver novamente não é erro.
func (s *Service) ResolveAlert(ctx context.Context, campaignID, alertID string) (*domain.Alert, error) {
	campaign, err := s.loadCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	alert := campaign.FindAlert(alertID)
	if alert == nil {
		return nil, NewCampaignErrorWithID(ErrAlertNotFound, ErrAlertNotFound, apiErrors.ErrAlertNotFound, campaignID, alertID)
	}

	if alert.Resolved {
		return alert, nil
	}

	storageCtx, cancel := s.storageContext(ctx)
	defer cancel()

	found, err := s.repo.ResolveAlert(storageCtx, campaignID, alertID)
	if err != nil {
		return nil, NewCampaignErrorWithID(ErrStorage, err, apiErrors.ErrStorageUnavailable, campaignID, "Falha ao resolver alerta")
	}
	if !found {
		return nil, NewCampaignErrorWithID(ErrAlertNotFound, ErrAlertNotFound, apiErrors.ErrAlertNotFound, campaignID, alertID)
	}

	metrics.AlertsResolvedTotal.Inc()

	alert.Resolved = true
	return alert, nil
}

func (s *Service) loadCampaign(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	if strings.TrimSpace(campaignID) == "" {
		return nil, NewCampaignError(ErrCampaignNotFound, ErrCampaignNotFound, apiErrors.ErrCampaignNotFound, "ID da campanha vazio")
	}

	storageCtx, cancel := s.storageContext(ctx)
	defer cancel()

	campaign, err := s.repo.GetCampaignByID(storageCtx, campaignID)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"campaign_id": campaignID,
			"error":       err,
		}).Error("Erro ao carregar campanha")
		return nil, NewCampaignErrorWithID(ErrStorage, err, apiErrors.ErrStorageUnavailable, campaignID, "Falha ao carregar campanha")
	}

	if campaign == nil {
		return nil, NewCampaignErrorWithID(ErrCampaignNotFound, ErrCampaignNotFound, apiErrors.ErrCampaignNotFound, campaignID, "")
	}

	return campaign, nil
}

func (s *Service) storageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.StorageTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.StorageTimeout)
}

func validateCounters(counters domain.KPICounters) error {
	negative := func(v *int64) bool { return v != nil && *v < 0 }

	if negative(counters.Impressions) || negative(counters.Clicks) || negative(counters.Conversions) {
		return NewCampaignError(ErrValidation, ErrInvalidCounters, apiErrors.ErrInvalidCampaign, "Contadores não podem ser negativos")
	}

	if counters.BudgetSpent != nil && (*counters.BudgetSpent < 0 || !utils.IsFinite(*counters.BudgetSpent)) {
		return NewCampaignError(ErrValidation, ErrInvalidCounters, apiErrors.ErrInvalidCampaign, "Orçamento gasto inválido")
	}

	return nil
}

func validationError(err error, details string) *CampaignError {
	return NewCampaignError(ErrValidation, err, apiErrors.ErrInvalidCampaign, details)
}

func updateStatus(err error) string {
	switch {
	case IsNotFoundError(err):
		return "not_found"
	case IsValidationError(err):
		return "validation_error"
	default:
		return "storage_error"
	}
}
