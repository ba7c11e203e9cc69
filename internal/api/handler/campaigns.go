package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/campaign-monitor-api/internal/domain"
	"github.com/vfg2006/campaign-monitor-api/internal/usecases/campaigning"
	"github.com/vfg2006/campaign-monitor-api/pkg/apiErrors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxBodyBytes = 1 << 20

func CreateCampaign(service campaigning.Campaigner) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logrus.Info("INIT - CreateCampaign")

		var request domain.CreateCampaignRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&request); err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Corpo da requisição inválido: "+err.Error(), nil)
			return
		}

		campaign, err := service.CreateCampaign(r.Context(), &request)
		if err != nil {
			handleCampaignError(w, err, "Erro ao criar campanha")
			return
		}

		writeJSON(w, http.StatusCreated, campaign)
	})
}

func ListCampaigns(service campaigning.Campaigner) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		filter := domain.CampaignFilter{
			Status:   domain.CampaignStatus(strings.ToLower(r.URL.Query().Get("status"))),
			Platform: strings.ToLower(r.URL.Query().Get("platform")),
		}

		if filter.Status != "" && !filter.Status.IsValid() {
			apiErrors.WriteError(w, apiErrors.ErrInvalidFormat, "Status inválido. Valores aceitos: active, paused, finished", nil)
			return
		}

		campaigns, err := service.ListCampaigns(r.Context(), filter)
		if err != nil {
			handleCampaignError(w, err, "Erro ao listar campanhas")
			return
		}

		if campaigns == nil {
			campaigns = []*domain.Campaign{}
		}

		writeJSON(w, http.StatusOK, campaigns)
	})
}

func GetCampaign(service campaigning.Campaigner) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := httprouter.ParamsFromContext(r.Context()).ByName("id")

		campaign, err := service.GetCampaign(r.Context(), id)
		if err != nil {
			handleCampaignError(w, err, "Erro ao buscar campanha")
			return
		}

		if campaign == nil {
			apiErrors.WriteError(w, apiErrors.ErrCampaignNotFound, "Campanha não encontrada", map[string]any{
				"campaign_id": id,
			})
			return
		}

		writeJSON(w, http.StatusOK, campaign)
	})
}

func UpdateCampaignKpis(service campaigning.Campaigner) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logrus.Info("INIT - UpdateCampaignKpis")

		id := httprouter.ParamsFromContext(r.Context()).ByName("id")

		var counters domain.KPICounters
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&counters); err != nil {
			apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "Corpo da requisição inválido: "+err.Error(), nil)
			return
		}

		resp, err := service.UpdateKpis(r.Context(), id, counters)
		if err != nil {
			handleCampaignError(w, err, "Erro ao atualizar KPIs")
			return
		}

		writeJSON(w, http.StatusOK, resp)
	})
}

func ResolveCampaignAlert(service campaigning.Campaigner) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params := httprouter.ParamsFromContext(r.Context())

		alert, err := service.ResolveAlert(r.Context(), params.ByName("id"), params.ByName("alert_id"))
		if err != nil {
			handleCampaignError(w, err, "Erro ao resolver alerta")
			return
		}

		writeJSON(w, http.StatusOK, alert)
	})
}

// handleCampaignError converte erros do caso de uso em respostas padronizadas
func handleCampaignError(w http.ResponseWriter, err error, fallback string) {
	var campaignErr *campaigning.CampaignError
	if errors.As(err, &campaignErr) {
		if campaigning.IsStorageError(err) {
			logrus.WithError(err).WithField("campaign_id", campaignErr.CampaignID).Error(fallback)
		} else {
			logrus.WithError(err).WithField("campaign_id", campaignErr.CampaignID).Warn(fallback)
		}

		var details map[string]any
		if campaignErr.CampaignID != "" {
			details = map[string]any{"campaign_id": campaignErr.CampaignID}
		}
		apiErrors.WriteError(w, campaignErr.Code, campaignErr.Error(), details)
		return
	}

	logrus.WithError(err).Error(fallback)

	switch {
	case campaigning.IsValidationError(err):
		apiErrors.WriteError(w, apiErrors.ErrInvalidCampaign, err.Error(), nil)
	case errors.Is(err, campaigning.ErrAlertNotFound):
		apiErrors.WriteError(w, apiErrors.ErrAlertNotFound, err.Error(), nil)
	case campaigning.IsNotFoundError(err):
		apiErrors.WriteError(w, apiErrors.ErrCampaignNotFound, err.Error(), nil)
	case campaigning.IsStorageError(err):
		apiErrors.WriteError(w, apiErrors.ErrStorageUnavailable, "Armazenamento de campanhas indisponível", nil)
	default:
		apiErrors.WriteError(w, apiErrors.ErrInternalServer, fallback, nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.WithError(err).Error("Erro ao codificar resposta")
	}
}
