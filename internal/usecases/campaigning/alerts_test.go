package campaigning

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vfg2006/campaign-monitor-api/internal/domain"
)

var evaluationTime = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("alert-%d", n)
	}
}

// campaignForRules cria uma campanha na metade do período e com gasto dentro do ritmo
func campaignForRules(targets domain.Targets) *domain.Campaign {
	return &domain.Campaign{
		ID:          "camp-1",
		Name:        "Black Friday",
		Platform:    "meta",
		Status:      domain.CampaignStatusActive,
		Budget:      1000,
		BudgetSpent: 100,
		StartDate:   evaluationTime.AddDate(0, 0, -30),
		EndDate:     evaluationTime.AddDate(0, 0, 30),
		Targets:     targets,
	}
}

func TestAlertEvaluator_CPABoundary(t *testing.T) {
	tests := []struct {
		name         string
		cpa          float64
		wantAlert    bool
		wantSeverity domain.AlertSeverity
	}{
		{name: "Exatamente 1.2x da meta - não dispara", cpa: 12.0, wantAlert: false},
		{name: "Logo acima de 1.2x - severidade média", cpa: 12.01, wantAlert: true, wantSeverity: domain.AlertSeverityMedium},
		{name: "Exatamente 1.5x da meta - severidade média", cpa: 15.0, wantAlert: true, wantSeverity: domain.AlertSeverityMedium},
		{name: "Acima de 1.5x - severidade alta", cpa: 15.01, wantAlert: true, wantSeverity: domain.AlertSeverityHigh},
		{name: "Abaixo da meta - não dispara", cpa: 8, wantAlert: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evaluator := NewAlertEvaluator(sequentialIDs())
			campaign := campaignForRules(domain.Targets{CPA: 10})

			alerts := evaluator.Evaluate(campaign, domain.KPIs{CPA: tt.cpa}, evaluationTime)

			if !tt.wantAlert {
				assert.Empty(t, alerts)
				return
			}

			require.Len(t, alerts, 1)
			assert.Equal(t, domain.AlertTypeCPAHigh, alerts[0].Type)
			assert.Equal(t, tt.wantSeverity, alerts[0].Severity)
		})
	}
}

func TestAlertEvaluator_ROASBoundary(t *testing.T) {
	tests := []struct {
		name         string
		roas         float64
		wantAlert    bool
		wantSeverity domain.AlertSeverity
	}{
		{name: "Exatamente 0.8x da meta - não dispara", roas: 3.2, wantAlert: false},
		{name: "Logo abaixo de 0.8x - severidade média", roas: 3.19, wantAlert: true, wantSeverity: domain.AlertSeverityMedium},
		{name: "Exatamente 0.6x da meta - severidade média", roas: 2.4, wantAlert: true, wantSeverity: domain.AlertSeverityMedium},
		{name: "Abaixo de 0.6x - severidade alta", roas: 2.39, wantAlert: true, wantSeverity: domain.AlertSeverityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evaluator := NewAlertEvaluator(sequentialIDs())
			campaign := campaignForRules(domain.Targets{ROAS: 4})

			alerts := evaluator.Evaluate(campaign, domain.KPIs{ROAS: tt.roas}, evaluationTime)

			if !tt.wantAlert {
				assert.Empty(t, alerts)
				return
			}

			require.Len(t, alerts, 1)
			assert.Equal(t, domain.AlertTypeROASLow, alerts[0].Type)
			assert.Equal(t, tt.wantSeverity, alerts[0].Severity)
		})
	}
}

func TestAlertEvaluator_ROASZeradoSemGasto(t *testing.T) {
	evaluator := NewAlertEvaluator(sequentialIDs())
	campaign := campaignForRules(domain.Targets{ROAS: 4})
	campaign.BudgetSpent = 0

	alerts := evaluator.Evaluate(campaign, domain.KPIs{ROAS: 0}, evaluationTime)

	require.Len(t, alerts, 1)
	assert.Equal(t, domain.AlertTypeROASLow, alerts[0].Type)
	assert.Equal(t, domain.AlertSeverityHigh, alerts[0].Severity)
	assert.Equal(t, 100.0, alerts[0].Details.DeviationPct)
	assert.Equal(t, "ROAS atual (0.00) está 100.0% abaixo da meta (4.00)", alerts[0].Message)
}

func TestAlertEvaluator_MetaDeROASZeradaNaoDispara(t *testing.T) {
	evaluator := NewAlertEvaluator(sequentialIDs())
	campaign := campaignForRules(domain.Targets{})
	campaign.BudgetSpent = 0

	assert.Empty(t, evaluator.Evaluate(campaign, domain.KPIs{ROAS: 0}, evaluationTime))
}

func TestAlertEvaluator_ConversionsLow(t *testing.T) {
	evaluator := NewAlertEvaluator(sequentialIDs())
	campaign := campaignForRules(domain.Targets{Conversions: 100})

	assert.Empty(t, evaluator.Evaluate(campaign, domain.KPIs{Conversions: 70}, evaluationTime))

	alerts := evaluator.Evaluate(campaign, domain.KPIs{Conversions: 69}, evaluationTime)
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.AlertTypeConversionsLow, alerts[0].Type)
	assert.Equal(t, domain.AlertSeverityMedium, alerts[0].Severity)
	assert.Equal(t, "Conversões atuais (69) estão 31.0% abaixo da meta (100)", alerts[0].Message)
}

func TestAlertEvaluator_MetasZeradasNaoDisparam(t *testing.T) {
	evaluator := NewAlertEvaluator(sequentialIDs())
	campaign := campaignForRules(domain.Targets{})

	alerts := evaluator.Evaluate(campaign, domain.KPIs{CPA: 1000, ROAS: 0.01, Conversions: 0}, evaluationTime)

	assert.Empty(t, alerts)
}

func TestAlertEvaluator_BudgetPace(t *testing.T) {
	tests := []struct {
		name        string
		start       time.Time
		end         time.Time
		spent       float64
		wantAlert   bool
		wantMessage string
	}{
		{
			name:      "Gasto exatamente na tolerância - não dispara",
			start:     evaluationTime.AddDate(0, 0, -30),
			end:       evaluationTime.AddDate(0, 0, 30),
			spent:     600,
			wantAlert: false,
		},
		{
			name:        "Gasto acima do ritmo - dispara com severidade alta",
			start:       evaluationTime.AddDate(0, 0, -30),
			end:         evaluationTime.AddDate(0, 0, 30),
			spent:       700,
			wantAlert:   true,
			wantMessage: "Orçamento gasto (R$ 700.00) está 40.0% acima do planejado (R$ 500.00)",
		},
		{
			name:      "Campanha encerrada - progresso acima de 100% não dispara",
			start:     evaluationTime.AddDate(0, 0, -60),
			end:       evaluationTime.AddDate(0, 0, -30),
			spent:     1000,
			wantAlert: false,
		},
		{
			name:        "Gasto antes do início - dispara sem desvio percentual",
			start:       evaluationTime.AddDate(0, 0, 1),
			end:         evaluationTime.AddDate(0, 0, 31),
			spent:       10,
			wantAlert:   true,
			wantMessage: "Orçamento gasto (R$ 10.00) antes do início planejado da campanha",
		},
		{
			name:      "Sem gasto antes do início - não dispara",
			start:     evaluationTime.AddDate(0, 0, 1),
			end:       evaluationTime.AddDate(0, 0, 31),
			spent:     0,
			wantAlert: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evaluator := NewAlertEvaluator(sequentialIDs())
			campaign := campaignForRules(domain.Targets{})
			campaign.StartDate = tt.start
			campaign.EndDate = tt.end
			campaign.BudgetSpent = tt.spent

			alerts := evaluator.Evaluate(campaign, domain.KPIs{}, evaluationTime)

			if !tt.wantAlert {
				assert.Empty(t, alerts)
				return
			}

			require.Len(t, alerts, 1)
			assert.Equal(t, domain.AlertTypeBudgetPace, alerts[0].Type)
			assert.Equal(t, domain.AlertSeverityHigh, alerts[0].Severity)
			assert.Equal(t, tt.wantMessage, alerts[0].Message)
		})
	}
}

func TestAlertEvaluator_CenarioCompleto(t *testing.T) {
	evaluator := NewAlertEvaluator(sequentialIDs())
	campaign := campaignForRules(domain.Targets{CPA: 10, ROAS: 4, Conversions: 100})
	campaign.BudgetSpent = 700

	kpis := CalculateKPIs(domain.KPIs{}, domain.KPICounters{
		Impressions: int64Ptr(10000),
		Clicks:      int64Ptr(500),
		Conversions: int64Ptr(40),
	}, 700, 50)

	alerts := evaluator.Evaluate(campaign, kpis, evaluationTime)

	require.Len(t, alerts, 4)

	assert.Equal(t, domain.AlertTypeCPAHigh, alerts[0].Type)
	assert.Equal(t, domain.AlertSeverityHigh, alerts[0].Severity)
	assert.Equal(t, "CPA atual (R$ 17.50) está 75.0% acima da meta (R$ 10.00)", alerts[0].Message)
	assert.Equal(t, domain.AlertDetails{Observed: 17.5, Target: 10, DeviationPct: 75}, alerts[0].Details)

	assert.Equal(t, domain.AlertTypeROASLow, alerts[1].Type)
	assert.Equal(t, domain.AlertSeverityMedium, alerts[1].Severity)
	assert.Equal(t, "ROAS atual (2.86) está 28.6% abaixo da meta (4.00)", alerts[1].Message)

	assert.Equal(t, domain.AlertTypeConversionsLow, alerts[2].Type)
	assert.Equal(t, "Conversões atuais (40) estão 60.0% abaixo da meta (100)", alerts[2].Message)

	assert.Equal(t, domain.AlertTypeBudgetPace, alerts[3].Type)
	assert.Equal(t, "Orçamento gasto (R$ 700.00) está 40.0% acima do planejado (R$ 500.00)", alerts[3].Message)

	for i, alert := range alerts {
		assert.Equal(t, fmt.Sprintf("alert-%d", i+1), alert.ID)
		assert.False(t, alert.Resolved)
		assert.Equal(t, evaluationTime, alert.Data)
	}
}

func TestAlertEvaluator_Deterministico(t *testing.T) {
	campaign := campaignForRules(domain.Targets{CPA: 10, ROAS: 4, Conversions: 100})
	campaign.BudgetSpent = 700
	kpis := domain.KPIs{Conversions: 40, CPA: 17.5, ROAS: 2.857}

	first := NewAlertEvaluator(sequentialIDs()).Evaluate(campaign, kpis, evaluationTime)
	second := NewAlertEvaluator(sequentialIDs()).Evaluate(campaign, kpis, evaluationTime)

	assert.Equal(t, first, second)
}

func TestAlertEvaluator_IDsUnicosPorPadrao(t *testing.T) {
	evaluator := NewAlertEvaluator(nil)
	campaign := campaignForRules(domain.Targets{CPA: 10, ROAS: 4, Conversions: 100})
	campaign.BudgetSpent = 700

	alerts := evaluator.Evaluate(campaign, domain.KPIs{Conversions: 40, CPA: 17.5, ROAS: 2.857}, evaluationTime)

	seen := make(map[string]struct{})
	for _, alert := range alerts {
		assert.NotEmpty(t, alert.ID)
		_, duplicated := seen[alert.ID]
		assert.False(t, duplicated)
		seen[alert.ID] = struct{}{}
	}
}

func TestTimeProgress(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 10)

	assert.Equal(t, 0.0, TimeProgress(start, end, start.AddDate(0, 0, -1)))
	assert.Equal(t, 0.5, TimeProgress(start, end, start.AddDate(0, 0, 5)))
	assert.Equal(t, 2.0, TimeProgress(start, end, start.AddDate(0, 0, 20)))
	// Período inválido
	assert.Equal(t, 1.0, TimeProgress(end, start, end))
}

func TestRenderMessage_TodosOsTiposTemMensagem(t *testing.T) {
	for _, alertType := range domain.AlertTypes {
		t.Run(string(alertType), func(t *testing.T) {
			require.Contains(t, messageRenderers, alertType)
			assert.NotEmpty(t, renderMessage(alertDecision{Type: alertType}))
		})
	}

	assert.Len(t, messageRenderers, len(domain.AlertTypes))
}
