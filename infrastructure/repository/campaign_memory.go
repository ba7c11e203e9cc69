package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/vfg2006/campaign-monitor-api/internal/domain"
)

// memoryCampaignRepository guarda campanhas em memória (DATABASE_DRIVER=memory).
// Todas as leituras devolvem cópias profundas.
type memoryCampaignRepository struct {
	mu        sync.RWMutex
	campaigns map[string]*domain.Campaign
}

func NewMemoryCampaignRepository() CampaignRepository {
	return &memoryCampaignRepository{
		campaigns: make(map[string]*domain.Campaign),
	}
}

func (m *memoryCampaignRepository) CreateCampaign(ctx context.Context, campaign *domain.Campaign) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.campaigns[campaign.ID]; exists {
		return ErrCampaignAlreadyExists
	}

	m.campaigns[campaign.ID] = cloneCampaign(campaign)
	return nil
}

func (m *memoryCampaignRepository) GetCampaignByID(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	campaign, ok := m.campaigns[campaignID]
	if !ok {
		return nil, nil
	}

	return cloneCampaign(campaign), nil
}

func (m *memoryCampaignRepository) ListCampaigns(ctx context.Context, filter domain.CampaignFilter) ([]*domain.Campaign, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	campaigns := make([]*domain.Campaign, 0, len(m.campaigns))
	for _, campaign := range m.campaigns {
		if !filter.Matches(campaign) {
			continue
		}
		campaigns = append(campaigns, cloneCampaign(campaign))
	}

	// Mesma ordenação da consulta SQL
	sort.Slice(campaigns, func(i, j int) bool {
		if campaigns[i].CreatedAt.Equal(campaigns[j].CreatedAt) {
			return campaigns[i].ID < campaigns[j].ID
		}
		return campaigns[i].CreatedAt.Before(campaigns[j].CreatedAt)
	})

	return campaigns, nil
}

func (m *memoryCampaignRepository) ApplyKPIUpdate(ctx context.Context, update *domain.KPIUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	campaign, ok := m.campaigns[update.CampaignID]
	if !ok || campaign.Version != update.ExpectedVersion {
		return ErrVersionConflict
	}

	campaign.KPIs = update.KPIs
	campaign.BudgetSpent = update.BudgetSpent
	campaign.History = append(campaign.History, update.History)
	campaign.Alerts = append(campaign.Alerts, update.Alerts...)
	campaign.Version++
	campaign.UpdatedAt = update.History.Timestamp

	return nil
}

func (m *memoryCampaignRepository) ResolveAlert(ctx context.Context, campaignID, alertID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	campaign, ok := m.campaigns[campaignID]
	if !ok {
		return false, nil
	}

	alert := campaign.FindAlert(alertID)
	if alert == nil {
		return false, nil
	}

	alert.Resolved = true
	return true, nil
}

func cloneCampaign(c *domain.Campaign) *domain.Campaign {
	clone := *c

	if c.ExternalID != nil {
		externalID := *c.ExternalID
		clone.ExternalID = &externalID
	}

	if c.AverageOrderValue != nil {
		value := *c.AverageOrderValue
		clone.AverageOrderValue = &value
	}

	clone.Alerts = make([]domain.Alert, len(c.Alerts))
	copy(clone.Alerts, c.Alerts)

	clone.History = make([]domain.HistoryEntry, len(c.History))
	copy(clone.History, c.History)

	return &clone
}
