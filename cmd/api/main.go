package main

import (
	"context"
	"errors"
	"os"
	"path"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vfg2006/campaign-monitor-api/infrastructure/database/postgres"
	"github.com/vfg2006/campaign-monitor-api/infrastructure/integrator/meta"
	"github.com/vfg2006/campaign-monitor-api/infrastructure/integrator/meta/metaclient"
	"github.com/vfg2006/campaign-monitor-api/infrastructure/queue"
	"github.com/vfg2006/campaign-monitor-api/infrastructure/repository"
	"github.com/vfg2006/campaign-monitor-api/internal/api"
	"github.com/vfg2006/campaign-monitor-api/internal/api/handler"
	"github.com/vfg2006/campaign-monitor-api/internal/config"
	"github.com/vfg2006/campaign-monitor-api/internal/scheduler"
	"github.com/vfg2006/campaign-monitor-api/internal/usecases/authenticating"
	"github.com/vfg2006/campaign-monitor-api/internal/usecases/campaigning"
)

func main() {
	// Inicializa configuração de logs
	configureLogger()

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	// Define o nível de log com base na configuração
	logLevel, err := logrus.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		logrus.Warnf("Nível de log inválido: %s, usando 'info'", cfg.App.LogLevel)
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)
	logrus.Infof("Nível de log configurado para: %s", logLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		healthChecks []handler.HealthCheck
		onShutdown   []func() error
	)

	var campaignRepo repository.CampaignRepository
	switch cfg.Database.Driver {
	case config.DatabaseDriverMemory:
		logrus.Warn("Usando armazenamento em memória, os dados serão perdidos ao reiniciar")
		campaignRepo = repository.NewMemoryCampaignRepository()
	default:
		pgConn := pgconn(ctx, cfg.Database)
		onShutdown = append(onShutdown, pgConn.Close)
		healthChecks = append(healthChecks, handler.HealthCheck{Name: "postgres", Check: pgConn.Ping})
		campaignRepo = repository.NewCampaignRepository(pgConn)
	}

	// notifier precisa ser nil sem tipo quando a fila está desabilitada
	var notifier campaigning.AlertNotifier
	if cfg.AlertQueue.Enabled {
		queueConn, err := queue.NewConnection(cfg.AlertQueue.URL)
		if err != nil {
			logrus.WithError(err).Fatal("Erro ao conectar ao RabbitMQ")
		}
		onShutdown = append(onShutdown, queueConn.Close)
		healthChecks = append(healthChecks, handler.HealthCheck{
			Name: "rabbitmq",
			Check: func(context.Context) error {
				if !queueConn.IsConnected() {
					return errors.New("conexão com o rabbitmq fechada")
				}
				return nil
			},
		})

		publisher, err := queue.NewAlertPublisher(queueConn, cfg.AlertQueue.QueueName)
		if err != nil {
			logrus.WithError(err).Fatal("Erro ao criar publicador de alertas")
		}
		notifier = publisher
	}

	campaignService := campaigning.NewService(
		campaignRepo,
		campaigning.NewAlertEvaluator(nil),
		campaigning.NewOrderValuePolicy(cfg.Campaigns.AverageOrderValue, cfg.Campaigns.PlatformOrderValues),
		notifier,
		campaigning.Options{
			StorageTimeout:     cfg.Campaigns.StorageTimeout,
			MaxConflictRetries: cfg.Campaigns.MaxConflictRetries,
		},
	)

	authenticator := authenticating.NewService(cfg)

	metaIntegrator := meta.New(metaclient.NewClient(cfg))

	kpiSyncService := scheduler.NewCampaignKPISyncService(campaignService, metaIntegrator, cfg)
	if err := kpiSyncService.Start(ctx); err != nil {
		logrus.WithError(err).Error("Erro ao iniciar o agendador de sincronização de KPIs de campanhas")
	} else {
		logrus.Info("Agendador de sincronização de KPIs de campanhas iniciado com sucesso")
	}

	server, err := api.New(cfg, api.Dependencies{
		Campaigns:     campaignService,
		Authenticator: authenticator,
		CronJobs: handler.CronJobServices{
			handler.CronJobTypeCampaignKPIs: kpiSyncService,
		},
		HealthChecks: healthChecks,
		OnShutdown:   onShutdown,
	})
	if err != nil {
		logrus.Fatal(err)
	}

	if err := server.Run(ctx); err != nil {
		logrus.Error(err)
	}
}

// configureLogger configura o formato e comportamento dos logs
func configureLogger() {
	_, file, _, _ := runtime.Caller(0)
	dir := path.Dir(file)
	os.Chdir(dir)

	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
}

// pgconn cria uma conexão com o banco de dados e aplica as migrações
func pgconn(ctx context.Context, dbConfig config.Database) *postgres.Connection {
	conn, err := postgres.NewConnection(ctx, dbConfig)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao conectar ao PostgreSQL")
	}

	err = conn.Ping(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("Erro ao testar conexão com PostgreSQL")
	}

	if dbConfig.AutoMigrate {
		if err := postgres.Migrate(dbConfig.DSN); err != nil {
			logrus.WithError(err).Fatal("Erro ao aplicar migrações do PostgreSQL")
		}
	}

	logrus.Info("Conexão com PostgreSQL estabelecida com sucesso")
	return conn
}
