package domain

import (
	"slices"
	"time"
)

type AlertType string

const (
	AlertTypeCPAHigh        AlertType = "cpa_high"
	AlertTypeROASLow        AlertType = "roas_low"
	AlertTypeConversionsLow AlertType = "conversions_low"
	// Mantido como "orcamento_alto" por compatibilidade com os painéis existentes
	AlertTypeBudgetPace AlertType = "orcamento_alto"
)

// AlertTypes é o conjunto fechado de tipos de alerta
var AlertTypes = []AlertType{
	AlertTypeCPAHigh,
	AlertTypeROASLow,
	AlertTypeConversionsLow,
	AlertTypeBudgetPace,
}

func (t AlertType) IsValid() bool {
	return slices.Contains(AlertTypes, t)
}

type AlertSeverity string

const (
	AlertSeverityLow    AlertSeverity = "low"
	AlertSeverityMedium AlertSeverity = "medium"
	AlertSeverityHigh   AlertSeverity = "high"
)

// AlertDetails guarda os números que dispararam o alerta
type AlertDetails struct {
	Observed     float64 `json:"observed"`
	Target       float64 `json:"target"`
	DeviationPct float64 `json:"deviation_pct"`
}

type Alert struct {
	ID       string        `json:"id"`
	Type     AlertType     `json:"type"`
	Message  string        `json:"message"`
	Severity AlertSeverity `json:"severity"`
	Data     time.Time     `json:"data"`
	Resolved bool          `json:"resolved"`
	Details  AlertDetails  `json:"details"`
}

type PendingAlert struct {
	CampaignID   string `json:"campaign_id"`
	CampaignName string `json:"campaign"`
	Alert
}
