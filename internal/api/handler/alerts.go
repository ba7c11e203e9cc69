package handler

import (
	"net/http"

	"github.com/vfg2006/campaign-monitor-api/internal/domain"
	"github.com/vfg2006/campaign-monitor-api/internal/usecases/campaigning"
)

// ListPendingAlerts retorna os alertas não resolvidos de todas as campanhas
func ListPendingAlerts(service campaigning.Campaigner) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		alerts, err := service.ListPendingAlerts(r.Context())
		if err != nil {
			handleCampaignError(w, err, "Erro ao listar alertas pendentes")
			return
		}

		if alerts == nil {
			alerts = []*domain.PendingAlert{}
		}

		writeJSON(w, http.StatusOK, alerts)
	})
}
