package campaigning

import (
	"github.com/vfg2006/campaign-monitor-api/internal/domain"
	"github.com/vfg2006/campaign-monitor-api/pkg/utils"
)

// CalculateKPIs aplica os contadores observados no ciclo sobre o snapshot atual
// e recalcula as métricas derivadas.
//
// Cada métrica derivada só é recalculada quando o denominador é positivo; caso
// contrário o valor anterior é mantido. O resultado nunca contém NaN ou Inf.
func CalculateKPIs(current domain.KPIs, counters domain.KPICounters, budgetSpent, averageOrderValue float64) domain.KPIs {
	next := current

	if counters.Impressions != nil {
		next.Impressions = *counters.Impressions
	}
	if counters.Clicks != nil {
		next.Clicks = *counters.Clicks
	}
	if counters.Conversions != nil {
		next.Conversions = *counters.Conversions
	}

	if next.Impressions > 0 {
		next.CTR = derive(next.CTR, float64(next.Clicks)/float64(next.Impressions)*100)
	}

	if next.Clicks > 0 {
		next.CPC = derive(next.CPC, budgetSpent/float64(next.Clicks))
	}

	if next.Conversions > 0 {
		next.CPA = derive(next.CPA, budgetSpent/float64(next.Conversions))
	}

	if budgetSpent > 0 && averageOrderValue > 0 {
		revenue := float64(next.Conversions) * averageOrderValue
		next.ROAS = derive(next.ROAS, revenue/budgetSpent)
	}

	return next
}

// derive mantém o valor anterior quando o cálculo não é representável
func derive(previous, value float64) float64 {
	if !utils.IsFinite(value) {
		return previous
	}
	return value
}
