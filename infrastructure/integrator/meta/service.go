package meta

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	metadomain "github.com/vfg2006/campaign-monitor-api/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/campaign-monitor-api/infrastructure/integrator/meta/metaclient"
	"github.com/vfg2006/campaign-monitor-api/internal/domain"
)

type MetaIntegrator struct {
	Client metaclient.Client
}

func New(client metaclient.Client) *MetaIntegrator {
	return &MetaIntegrator{
		Client: client,
	}
}

// GetCampaignInsight retorna os contadores acumulados de uma campanha do Meta
func (s *MetaIntegrator) GetCampaignInsight(ctx context.Context, externalID string) (*domain.CampaignInsight, error) {
	resp, err := s.Client.GetAdCampaignInsightsByID(ctx, externalID, nil)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"external_id": externalID,
			"error":       err.Error(),
		}).Error("insights: failed to get campaign insights from API")
		return nil, err
	}

	insight, err := FactoryCampaignInsight(resp)
	if err != nil {
		logrus.WithError(err).WithField("external_id", externalID).Error("insights: failed to convert campaign insight")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"external_id": externalID,
		"impressions": insight.Impressions,
		"clicks":      insight.Clicks,
		"result":      insight.Result,
	}).Debug("insights: successfully retrieved campaign insight")

	return insight, nil
}

func FactoryCampaignInsight(raw *metadomain.CampaignInsight) (*domain.CampaignInsight, error) {
	if raw == nil {
		return nil, fmt.Errorf("insight vazio")
	}

	impressions, err := metadomain.ParseCounter(raw.Impressions)
	if err != nil {
		return nil, fmt.Errorf("impressions inválido %q: %w", raw.Impressions, err)
	}

	clicks, err := metadomain.ParseCounter(raw.Clicks)
	if err != nil {
		return nil, fmt.Errorf("clicks inválido %q: %w", raw.Clicks, err)
	}

	spend, err := metadomain.ParseAmount(raw.Spend)
	if err != nil {
		return nil, fmt.Errorf("spend inválido %q: %w", raw.Spend, err)
	}

	return &domain.CampaignInsight{
		CampaignID:   raw.CampaignID,
		CampaignName: raw.CampaignName,
		Impressions:  impressions,
		Clicks:       clicks,
		Result:       raw.GetResult(),
		Spend:        spend,
	}, nil
}
