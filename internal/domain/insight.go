package domain

import (
	"time"
)

// InsightFilters delimita o período consultado nas plataformas de anúncio
type InsightFilters struct {
	StartDate *time.Time
	EndDate   *time.Time
}

// CampaignInsight são os contadores acumulados de uma campanha numa plataforma externa
type CampaignInsight struct {
	CampaignID   string  `json:"campaign_id"`
	CampaignName string  `json:"campaign_name"`
	Impressions  int64   `json:"impressions"`
	Clicks       int64   `json:"clicks"`
	Result       int64   `json:"result"`
	Spend        float64 `json:"spend"`
}

// ToCounters converte o insight da plataforma em contadores de KPI
func (i *CampaignInsight) ToCounters() KPICounters {
	impressions := i.Impressions
	clicks := i.Clicks
	conversions := i.Result
	spend := i.Spend

	return KPICounters{
		Impressions: &impressions,
		Clicks:      &clicks,
		Conversions: &conversions,
		BudgetSpent: &spend,
	}
}
