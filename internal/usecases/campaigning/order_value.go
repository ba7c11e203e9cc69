package campaigning

import (
	"strings"

	"github.com/vfg2006/campaign-monitor-api/internal/domain"
)

// OrderValuePolicy resolve o ticket médio usado para estimar a receita do ROAS.
// Ordem de precedência: valor da campanha, valor da plataforma, valor padrão.
type OrderValuePolicy struct {
	defaultValue   float64
	platformValues map[string]float64
}

func NewOrderValuePolicy(defaultValue float64, platformValues map[string]float64) OrderValuePolicy {
	values := make(map[string]float64, len(platformValues))
	for platform, value := range platformValues {
		values[strings.ToLower(platform)] = value
	}

	return OrderValuePolicy{
		defaultValue:   defaultValue,
		platformValues: values,
	}
}

func (p OrderValuePolicy) For(campaign *domain.Campaign) float64 {
	if campaign.AverageOrderValue != nil && *campaign.AverageOrderValue > 0 {
		return *campaign.AverageOrderValue
	}

	if value, ok := p.platformValues[strings.ToLower(campaign.Platform)]; ok && value > 0 {
		return value
	}

	return p.defaultValue
}
