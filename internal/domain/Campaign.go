package domain

import (
	"time"
)

type CampaignStatus string

const (
	CampaignStatusActive   CampaignStatus = "active"
	CampaignStatusPaused   CampaignStatus = "paused"
	CampaignStatusFinished CampaignStatus = "finished"
)

func (s CampaignStatus) IsValid() bool {
	switch s {
	case CampaignStatusActive, CampaignStatusPaused, CampaignStatusFinished:
		return true
	}
	return false
}

// KPIs é o snapshot corrente de métricas de uma campanha.
// CTR, CPC, CPA e ROAS são sempre derivados dos contadores brutos.
type KPIs struct {
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	Conversions int64   `json:"conversions"`
	CPC         float64 `json:"cpc"`
	CTR         float64 `json:"ctr"`
	CPA         float64 `json:"cpa"`
	ROAS        float64 `json:"roas"`
}

type Targets struct {
	CPA         float64 `json:"cpa"`
	ROAS        float64 `json:"roas"`
	Conversions int64   `json:"conversions"`
}

type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	KPIs      KPIs      `json:"kpis"`
}

type Campaign struct {
	ID                string         `json:"id"`
	ExternalID        *string        `json:"external_id,omitempty"`
	Name              string         `json:"name"`
	Platform          string         `json:"platform"`
	Status            CampaignStatus `json:"status"`
	Budget            float64        `json:"budget"`
	BudgetSpent       float64        `json:"budget_spent"`
	StartDate         time.Time      `json:"start_date"`
	EndDate           time.Time      `json:"end_date"`
	AverageOrderValue *float64       `json:"average_order_value,omitempty"`
	KPIs              KPIs           `json:"kpis"`
	Targets           Targets        `json:"targets"`
	Alerts            []Alert        `json:"alerts"`
	History           []HistoryEntry `json:"history"`
	Version           int64          `json:"version"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// LastHistoryTimestamp retorna o instante da última entrada do histórico
func (c *Campaign) LastHistoryTimestamp() (time.Time, bool) {
	if c == nil || len(c.History) == 0 {
		return time.Time{}, false
	}
	return c.History[len(c.History)-1].Timestamp, true
}

func (c *Campaign) FindAlert(alertID string) *Alert {
	for i := range c.Alerts {
		if c.Alerts[i].ID == alertID {
			return &c.Alerts[i]
		}
	}
	return nil
}

type CreateCampaignRequest struct {
	ExternalID        *string        `json:"external_id,omitempty"`
	Name              string         `json:"name"`
	Platform          string         `json:"platform"`
	Status            CampaignStatus `json:"status"`
	Budget            float64        `json:"budget"`
	BudgetSpent       float64        `json:"budget_spent"`
	StartDate         string         `json:"start_date"`
	EndDate           string         `json:"end_date"`
	AverageOrderValue *float64       `json:"average_order_value,omitempty"`
	Targets           Targets        `json:"targets"`
}

// KPICounters carrega apenas os contadores observados neste ciclo
type KPICounters struct {
	Impressions *int64   `json:"impressions,omitempty"`
	Clicks      *int64   `json:"clicks,omitempty"`
	Conversions *int64   `json:"conversions,omitempty"`
	BudgetSpent *float64 `json:"budget_spent,omitempty"`
}

// KPIUpdate é a escrita atômica de um ciclo de atualização de KPIs
type KPIUpdate struct {
	CampaignID      string
	ExpectedVersion int64
	KPIs            KPIs
	BudgetSpent     float64
	History         HistoryEntry
	Alerts          []Alert
}

type UpdateKPIsResponse struct {
	KPIs      KPIs    `json:"kpis"`
	NewAlerts []Alert `json:"new_alerts"`
}

// CampaignFilter restringe a listagem; campos vazios não filtram
type CampaignFilter struct {
	Status   CampaignStatus
	Platform string
}

func (f CampaignFilter) Matches(c *Campaign) bool {
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.Platform != "" && c.Platform != f.Platform {
		return false
	}
	return true
}
