package meta

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metadomain "github.com/vfg2006/campaign-monitor-api/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/campaign-monitor-api/infrastructure/integrator/meta/metaclient/mocks"
	"go.uber.org/mock/gomock"
)

func TestGetCampaignInsight(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)
	integrator := New(client)

	t.Run("converte contadores da Graph API", func(t *testing.T) {
		client.EXPECT().GetAdCampaignInsightsByID(gomock.Any(), "120200", gomock.Nil()).Return(&metadomain.CampaignInsight{
			CampaignID:  "120200",
			Impressions: "10000",
			Clicks:      "500",
			Spend:       "700.25",
			Objective:   "OUTCOME_LEADS",
			Actions: []metadomain.Action{
				{ActionType: "link_click", Value: "480"},
				{ActionType: "lead", Value: "40"},
			},
		}, nil)

		insight, err := integrator.GetCampaignInsight(context.Background(), "120200")
		require.NoError(t, err)
		assert.Equal(t, int64(10000), insight.Impressions)
		assert.Equal(t, int64(500), insight.Clicks)
		assert.Equal(t, int64(40), insight.Result)
		assert.InDelta(t, 700.25, insight.Spend, 1e-9)
	})

	t.Run("objetivo não mapeado resulta em zero conversões", func(t *testing.T) {
		client.EXPECT().GetAdCampaignInsightsByID(gomock.Any(), "1", gomock.Nil()).Return(&metadomain.CampaignInsight{
			Impressions: "10",
			Objective:   "DESCONHECIDO",
		}, nil)

		insight, err := integrator.GetCampaignInsight(context.Background(), "1")
		require.NoError(t, err)
		assert.Zero(t, insight.Result)
		assert.Zero(t, insight.Clicks)
	})

	t.Run("contador inválido", func(t *testing.T) {
		client.EXPECT().GetAdCampaignInsightsByID(gomock.Any(), "2", gomock.Nil()).Return(&metadomain.CampaignInsight{
			Impressions: "dez",
		}, nil)

		_, err := integrator.GetCampaignInsight(context.Background(), "2")
		assert.Error(t, err)
	})

	t.Run("erro do client é propagado", func(t *testing.T) {
		apiErr := errors.New("timeout")
		client.EXPECT().GetAdCampaignInsightsByID(gomock.Any(), "3", gomock.Nil()).Return(nil, apiErr)

		_, err := integrator.GetCampaignInsight(context.Background(), "3")
		assert.ErrorIs(t, err, apiErr)
	})
}
