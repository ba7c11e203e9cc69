package campaigning

import (
	"fmt"

	"github.com/vfg2006/campaign-monitor-api/internal/domain"
)

// messageRenderers cobre todos os domain.AlertTypes
var messageRenderers = map[domain.AlertType]func(alertDecision) string{
	domain.AlertTypeCPAHigh: func(decision alertDecision) string {
		d := decision.Details
		return fmt.Sprintf("CPA atual (R$ %.2f) está %.1f%% acima da meta (R$ %.2f)", d.Observed, d.DeviationPct, d.Target)
	},
	domain.AlertTypeROASLow: func(decision alertDecision) string {
		d := decision.Details
		return fmt.Sprintf("ROAS atual (%.2f) está %.1f%% abaixo da meta (%.2f)", d.Observed, d.DeviationPct, d.Target)
	},
	domain.AlertTypeConversionsLow: func(decision alertDecision) string {
		d := decision.Details
		return fmt.Sprintf("Conversões atuais (%d) estão %.1f%% abaixo da meta (%d)", int64(d.Observed), d.DeviationPct, int64(d.Target))
	},
	domain.AlertTypeBudgetPace: func(decision alertDecision) string {
		d := decision.Details
		if decision.Unplanned {
			return fmt.Sprintf("Orçamento gasto (R$ %.2f) antes do início planejado da campanha", d.Observed)
		}
		return fmt.Sprintf("Orçamento gasto (R$ %.2f) está %.1f%% acima do planejado (R$ %.2f)", d.Observed, d.DeviationPct, d.Target)
	},
}

func renderMessage(decision alertDecision) string {
	return messageRenderers[decision.Type](decision)
}
