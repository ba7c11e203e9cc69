package metadomain

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

type Cursors struct {
	Before string `json:"before"`
	After  string `json:"after"`
}

type Paging struct {
	Cursors Cursors `json:"cursors"`
}

// CampaignInsight é o formato cru do endpoint /{campaign_id}/insights.
// A Graph API devolve os contadores como string.
type CampaignInsight struct {
	AccountID    string   `json:"account_id"`
	AccountName  string   `json:"account_name"`
	Actions      []Action `json:"actions"`
	CampaignID   string   `json:"campaign_id"`
	CampaignName string   `json:"campaign_name"`
	Clicks       string   `json:"clicks"`
	DateStart    string   `json:"date_start"`
	DateStop     string   `json:"date_stop"`
	Impressions  string   `json:"impressions"`
	Objective    string   `json:"objective"`
	Spend        string   `json:"spend"`
}

// GetResult retorna a quantidade de resultados (conversões) do objetivo da campanha
func (c *CampaignInsight) GetResult() int64 {
	actionType, ok := MetaObjectiveToActionType[c.Objective]
	if !ok {
		logrus.WithField("objective", c.Objective).Info("Objetivo não mapeado")
		return 0
	}

	for _, action := range c.Actions {
		if action.ActionType != actionType {
			continue
		}

		value, err := ParseCounter(action.Value)
		if err != nil {
			logrus.WithError(err).Error("Erro ao converter valor da ação")
			return 0
		}

		return value
	}

	logrus.WithField("objective", c.Objective).Warn("Ação não encontrada")
	logrus.WithField("actions", c.Actions).Debug("Ações disponíveis")

	return 0
}

// ParseCounter converte um contador da Graph API; vazio vale zero
func ParseCounter(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

// ParseAmount converte um valor monetário da Graph API; vazio vale zero
func ParseAmount(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseFloat(raw, 64)
}
