package metaclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	metadomain "github.com/vfg2006/campaign-monitor-api/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/campaign-monitor-api/internal/domain"
)

const campaignInsightFields = "account_id,account_name,campaign_name,campaign_id,spend,impressions,objective,clicks,actions"

type ResponseAdCampaignInsight struct {
	Data   []metadomain.CampaignInsight `json:"data"`
	Paging metadomain.Paging            `json:"paging"`
}

// GetAdCampaignInsightsByID busca os contadores de uma campanha.
// Sem filtros de data, consulta o período completo (date_preset=maximum).
func (c *MetaClient) GetAdCampaignInsightsByID(ctx context.Context, campaignID string, filters *domain.InsightFilters) (*metadomain.CampaignInsight, error) {
	baseURL := fmt.Sprintf("%s/%s/insights", c.Cfg.Meta.URL, url.PathEscape(campaignID))

	params := url.Values{}
	params.Add("fields", campaignInsightFields)
	if filters != nil && filters.StartDate != nil && filters.EndDate != nil {
		timeRange := fmt.Sprintf("{\"since\":\"%s\",\"until\":\"%s\"}", filters.StartDate.Format(time.DateOnly), filters.EndDate.Format(time.DateOnly))
		params.Add("time_range", timeRange)
	} else {
		params.Add("date_preset", "maximum")
	}
	params.Add("access_token", c.Cfg.Meta.AccessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+params.Encode(), nil)
	if err != nil {
		logrus.WithError(err).Error("Erro ao criar a requisição")
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		logrus.WithError(err).WithField("campaign_id", campaignID).Error("Erro ao fazer a requisição")
		return nil, err
	}
	defer resp.Body.Close()

	body, err := c.HandleResponse(resp)
	if err != nil {
		return nil, err
	}

	var response ResponseAdCampaignInsight
	if err := json.Unmarshal(body, &response); err != nil {
		logrus.WithError(err).Error("Erro ao decodificar JSON")
		return nil, err
	}

	if len(response.Data) == 0 {
		return nil, ErrNoData
	}

	return &response.Data[0], nil
}
