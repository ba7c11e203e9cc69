package repository

import (
	"context"
	"errors"

	"github.com/vfg2006/campaign-monitor-api/internal/domain"
)

var (
	// ErrVersionConflict indica que a campanha foi alterada desde a leitura
	ErrVersionConflict = errors.New("campaign version conflict")
	// ErrCampaignAlreadyExists indica violação do ID único
	ErrCampaignAlreadyExists = errors.New("campaign already exists")
)

// CampaignRepository é o armazenamento durável das campanhas.
// Buscas por ID retornam (nil, nil) quando a campanha não existe.
type CampaignRepository interface {
	CreateCampaign(ctx context.Context, campaign *domain.Campaign) error
	GetCampaignByID(ctx context.Context, campaignID string) (*domain.Campaign, error)
	ListCampaigns(ctx context.Context, filter domain.CampaignFilter) ([]*domain.Campaign, error)
	// ApplyKPIUpdate grava KPIs, gasto, histórico e novos alertas de forma atômica,
	// desde que a versão armazenada seja update.ExpectedVersion.
	ApplyKPIUpdate(ctx context.Context, update *domain.KPIUpdate) error
	// ResolveAlert marca o alerta como resolvido; false quando o alerta não existe.
	ResolveAlert(ctx context.Context, campaignID, alertID string) (bool, error)
}
