package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/campaign-monitor-api/infrastructure/database/postgres"
	"github.com/vfg2006/campaign-monitor-api/infrastructure/repository"
	"github.com/vfg2006/campaign-monitor-api/internal/config"
	"github.com/vfg2006/campaign-monitor-api/internal/domain"
	"github.com/vfg2006/campaign-monitor-api/internal/usecases/campaigning"
	"github.com/vfg2006/campaign-monitor-api/pkg/utils"
)

// seedCampaign é uma campanha de demonstração com os contadores do primeiro ciclo
type seedCampaign struct {
	ExternalID  string
	Name        string
	Platform    string
	Budget      float64
	BudgetSpent float64
	Days        int
	Elapsed     int
	Targets     domain.Targets
	Impressions int64
	Clicks      int64
	Conversions int64
}

func setupLogger() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	logrus.Info("Iniciando carga de campanhas de demonstração...")
}

func createCampaigns(ctx context.Context, service campaigning.Campaigner, seeds []seedCampaign, now time.Time) {
	logrus.Infof("Iniciando inserção de %d campanhas...", len(seeds))
	startTime := time.Now()

	successCount := 0
	errorCount := 0

	for i, s := range seeds {
		request := &domain.CreateCampaignRequest{
			Name:        s.Name,
			Platform:    s.Platform,
			Budget:      s.Budget,
			BudgetSpent: s.BudgetSpent,
			StartDate:   now.AddDate(0, 0, -s.Elapsed).Format(time.RFC3339),
			EndDate:     now.AddDate(0, 0, s.Days-s.Elapsed).Format(time.RFC3339),
			Targets:     s.Targets,
		}
		if s.ExternalID != "" {
			externalID := s.ExternalID
			request.ExternalID = &externalID
		}

		campaign, err := service.CreateCampaign(ctx, request)
		if err != nil {
			logrus.WithError(err).Errorf("ERRO ao inserir campanha [%d/%d] %s", i+1, len(seeds), s.Name)
			errorCount++
			continue
		}

		response, err := service.UpdateKpis(ctx, campaign.ID, domain.KPICounters{
			Impressions: &s.Impressions,
			Clicks:      &s.Clicks,
			Conversions: &s.Conversions,
		})
		if err != nil {
			logrus.WithError(err).Errorf("ERRO ao registrar KPIs da campanha %s", campaign.ID)
			errorCount++
			continue
		}

		logrus.WithFields(logrus.Fields{
			"campaign_id": campaign.ID,
			"new_alerts":  len(response.NewAlerts),
		}).Infof("Campanha %s criada", s.Name)
		successCount++
	}

	elapsed := time.Since(startTime)
	logrus.Infof("Inserção de campanhas concluída em %v. Sucesso: %d, Erros: %d", elapsed, successCount, errorCount)
}

func main() {
	setupLogger()

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatalf("ERRO ao carregar configuração: %v", err)
	}

	ctx := context.Background()

	logrus.Info("Conectando ao banco de dados...")
	conn, err := postgres.NewConnection(ctx, cfg.Database)
	if err != nil {
		logrus.Fatalf("ERRO ao conectar ao banco de dados: %v", err)
	}
	defer conn.Close()
	logrus.Info("Conexão com o banco de dados estabelecida com sucesso")

	if err := postgres.Migrate(cfg.Database.DSN); err != nil {
		logrus.Fatalf("ERRO ao aplicar migrações: %v", err)
	}

	service := campaigning.NewService(
		repository.NewCampaignRepository(conn),
		campaigning.NewAlertEvaluator(nil),
		campaigning.NewOrderValuePolicy(cfg.Campaigns.AverageOrderValue, cfg.Campaigns.PlatformOrderValues),
		nil,
		campaigning.Options{
			StorageTimeout:     cfg.Campaigns.StorageTimeout,
			MaxConflictRetries: cfg.Campaigns.MaxConflictRetries,
		},
	)

	seeds := []seedCampaign{
		{
			ExternalID: "120210000000000001", Name: "Black Friday Óculos", Platform: "meta",
			Budget: 5000, BudgetSpent: 3200, Days: 30, Elapsed: 15,
			Targets:     domain.Targets{CPA: 25, ROAS: 3, Conversions: 200},
			Impressions: 180000, Clicks: 5400, Conversions: 110,
		},
		{
			ExternalID: "120210000000000002", Name: "Lentes de Contato Verão", Platform: "meta",
			Budget: 2000, BudgetSpent: 600, Days: 60, Elapsed: 20,
			Targets:     domain.Targets{CPA: 15, ROAS: 4, Conversions: 80},
			Impressions: 52000, Clicks: 1300, Conversions: 45,
		},
		{
			Name: "Exame de Vista Gratuito", Platform: "google",
			Budget: 3000, BudgetSpent: 900, Days: 30, Elapsed: 10,
			Targets:     domain.Targets{CPA: 10, ROAS: 2, Conversions: 150},
			Impressions: 75000, Clicks: 2100, Conversions: 95,
		},
		{
			Name: "Lançamento Coleção Infantil", Platform: "tiktok",
			Budget: 1500, BudgetSpent: 0, Days: 20, Elapsed: 0,
			Targets: domain.Targets{CPA: 20, ROAS: 2.5, Conversions: 40},
		},
	}
	logrus.Infof("Total de %d campanhas definidas para inserção", len(seeds))

	createCampaigns(ctx, service, seeds, time.Now().UTC())

	pending, err := service.ListPendingAlerts(ctx)
	if err != nil {
		logrus.Fatalf("ERRO ao listar alertas pendentes: %v", err)
	}

	fmt.Println(utils.PrettyJson(pending))
	logrus.Infof("Carga concluída com %d alertas pendentes", len(pending))
}
