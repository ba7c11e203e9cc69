package metaclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	metadomain "github.com/vfg2006/campaign-monitor-api/infrastructure/integrator/meta/domain"
	"github.com/vfg2006/campaign-monitor-api/internal/config"
	"github.com/vfg2006/campaign-monitor-api/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	ErrTokenExpired = errors.New("meta: token de acesso expirado")
	ErrNoData       = errors.New("meta: nenhum dado encontrado")
)

const defaultTimeout = 30 * time.Second

type Client interface {
	GetAdCampaignInsightsByID(ctx context.Context, campaignID string, filters *domain.InsightFilters) (*metadomain.CampaignInsight, error)
}

type MetaClient struct {
	Cfg        *config.Config
	HTTPClient *http.Client
}

func NewClient(cfg *config.Config) Client {
	return &MetaClient{
		Cfg:        cfg,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

// ParseErrorResponse tenta parsear um erro da API do Meta
func ParseErrorResponse(body []byte) (*metadomain.ErrorResponse, error) {
	var errorResp metadomain.ErrorResponse
	if err := json.Unmarshal(body, &errorResp); err != nil {
		return nil, err
	}
	return &errorResp, nil
}

// HandleResponse lê o corpo e converte respostas de erro da Graph API
func (c *MetaClient) HandleResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("erro ao ler resposta: %w", err)
	}

	if resp.StatusCode == http.StatusOK {
		return body, nil
	}

	errorResp, parseErr := ParseErrorResponse(body)
	if parseErr != nil || errorResp.Error.Message == "" {
		return nil, fmt.Errorf("erro na resposta da API. Status: %d, Corpo: %s", resp.StatusCode, string(body))
	}

	if errorResp.IsTokenExpired() {
		return nil, fmt.Errorf("%w: %s", ErrTokenExpired, errorResp.String())
	}

	return nil, fmt.Errorf("erro na resposta da API. Status: %d: %s", resp.StatusCode, errorResp.String())
}
