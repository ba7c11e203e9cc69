package campaigning

import (
	"time"

	"github.com/vfg2006/campaign-monitor-api/internal/domain"
	"github.com/vfg2006/campaign-monitor-api/pkg/utils"
)

// Limites de tolerância das regras de alerta
const (
	cpaTolerance         = 1.2
	cpaHighSeverity      = 1.5
	roasTolerance        = 0.8
	roasHighSeverity     = 0.6
	conversionsTolerance = 0.7
	budgetPaceTolerance  = 1.2
)

// alertDecision é o resultado estruturado de uma regra, antes da mensagem
type alertDecision struct {
	Type     domain.AlertType
	Severity domain.AlertSeverity
	Details  domain.AlertDetails
	// Sem planejamento (campanha ainda não começou) não há desvio percentual
	Unplanned bool
}

type rule func(campaign *domain.Campaign, kpis domain.KPIs, now time.Time) (alertDecision, bool)

// AlertEvaluator compara os KPIs recém calculados com as metas da campanha
type AlertEvaluator struct {
	newID func() string
	rules []rule
}

// NewAlertEvaluator recebe o gerador de IDs dos alertas; nil usa UUID
func NewAlertEvaluator(newID func() string) *AlertEvaluator {
	if newID == nil {
		newID = utils.GenerateAlertID
	}

	return &AlertEvaluator{
		newID: newID,
		rules: []rule{
			cpaHighRule,
			roasLowRule,
			conversionsLowRule,
			budgetPaceRule,
		},
	}
}

// Evaluate retorna apenas os alertas disparados neste ciclo, com data = now.
// Não há deduplicação contra alertas já gravados na campanha.
func (e *AlertEvaluator) Evaluate(campaign *domain.Campaign, kpis domain.KPIs, now time.Time) []domain.Alert {
	alerts := make([]domain.Alert, 0)

	for _, evaluate := range e.rules {
		decision, triggered := evaluate(campaign, kpis, now)
		if !triggered {
			continue
		}

		alerts = append(alerts, domain.Alert{
			ID:       e.newID(),
			Type:     decision.Type,
			Message:  renderMessage(decision),
			Severity: decision.Severity,
			Data:     now,
			Resolved: false,
			Details:  decision.Details,
		})
	}

	return alerts
}

func cpaHighRule(campaign *domain.Campaign, kpis domain.KPIs, _ time.Time) (alertDecision, bool) {
	target := campaign.Targets.CPA
	if target <= 0 || kpis.CPA <= target*cpaTolerance {
		return alertDecision{}, false
	}

	severity := domain.AlertSeverityMedium
	if kpis.CPA > target*cpaHighSeverity {
		severity = domain.AlertSeverityHigh
	}

	return alertDecision{
		Type:     domain.AlertTypeCPAHigh,
		Severity: severity,
		Details:  details(kpis.CPA, target, (kpis.CPA/target-1)*100),
	}, true
}

func roasLowRule(campaign *domain.Campaign, kpis domain.KPIs, _ time.Time) (alertDecision, bool) {
	target := campaign.Targets.ROAS
	// Sem gasto o ROAS fica em zero, ou seja, 100% abaixo da meta
	if target <= 0 || kpis.ROAS >= target*roasTolerance {
		return alertDecision{}, false
	}

	severity := domain.AlertSeverityMedium
	if kpis.ROAS < target*roasHighSeverity {
		severity = domain.AlertSeverityHigh
	}

	return alertDecision{
		Type:     domain.AlertTypeROASLow,
		Severity: severity,
		Details:  details(kpis.ROAS, target, (1-kpis.ROAS/target)*100),
	}, true
}

func conversionsLowRule(campaign *domain.Campaign, kpis domain.KPIs, _ time.Time) (alertDecision, bool) {
	target := float64(campaign.Targets.Conversions)
	observed := float64(kpis.Conversions)
	if target <= 0 || observed >= target*conversionsTolerance {
		return alertDecision{}, false
	}

	return alertDecision{
		Type:     domain.AlertTypeConversionsLow,
		Severity: domain.AlertSeverityMedium,
		Details:  details(observed, target, (1-observed/target)*100),
	}, true
}

func budgetPaceRule(campaign *domain.Campaign, _ domain.KPIs, now time.Time) (alertDecision, bool) {
	spent := campaign.BudgetSpent
	planned := campaign.Budget * TimeProgress(campaign.StartDate, campaign.EndDate, now)

	if spent <= 0 || spent <= planned*budgetPaceTolerance {
		return alertDecision{}, false
	}

	if planned <= 0 {
		return alertDecision{
			Type:      domain.AlertTypeBudgetPace,
			Severity:  domain.AlertSeverityHigh,
			Details:   details(spent, 0, 0),
			Unplanned: true,
		}, true
	}

	return alertDecision{
		Type:     domain.AlertTypeBudgetPace,
		Severity: domain.AlertSeverityHigh,
		Details:  details(spent, planned, (spent/planned-1)*100),
	}, true
}

// TimeProgress é a fração decorrida do período da campanha, nunca negativa.
// Pode passar de 1 depois da data final.
func TimeProgress(start, end, now time.Time) float64 {
	total := end.Sub(start)
	if total <= 0 {
		if now.Before(start) {
			return 0
		}
		return 1
	}

	progress := float64(now.Sub(start)) / float64(total)
	if progress < 0 {
		return 0
	}

	return progress
}

func details(observed, target, deviationPct float64) domain.AlertDetails {
	return domain.AlertDetails{
		Observed:     utils.RoundWithTwoDecimalPlace(observed),
		Target:       utils.RoundWithTwoDecimalPlace(target),
		DeviationPct: utils.RoundWithOneDecimalPlace(deviationPct),
	}
}
