package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/justinas/alice"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/campaign-monitor-api/internal/api/handler"
	"github.com/vfg2006/campaign-monitor-api/internal/api/handler/router"
	"github.com/vfg2006/campaign-monitor-api/internal/config"
	"github.com/vfg2006/campaign-monitor-api/internal/usecases/authenticating"
	"github.com/vfg2006/campaign-monitor-api/internal/usecases/campaigning"
	"github.com/vfg2006/campaign-monitor-api/pkg/middleware"
)

type Server struct {
	httpServer *http.Server
	onShutdown []func() error
}

// Dependencies reúne os serviços expostos pela API
type Dependencies struct {
	Campaigns     campaigning.Campaigner
	Authenticator authenticating.Authenticator
	CronJobs      handler.CronJobServices
	HealthChecks  []handler.HealthCheck
	// Executados em ordem após o desligamento do servidor HTTP
	OnShutdown []func() error
}

func New(config *config.Config, deps Dependencies) (*Server, error) {
	if deps.Campaigns == nil || deps.Authenticator == nil {
		return nil, fmt.Errorf("api: serviços de campanhas e autenticação são obrigatórios")
	}

	rt := router.New(
		router.WithRoutes(handler.Healthcheck(deps.HealthChecks...)...),
		router.WithRoutes(handler.Metrics()...),
		router.WithRoutes(handler.Authentication(deps.Authenticator)...),
		router.WithRoutes(handler.Campaigns(deps.Campaigns)...),
		router.WithRoutes(handler.Alerts(deps.Campaigns)...),
		router.WithRoutes(handler.CronJobs(deps.CronJobs)...),
	)

	srv := &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port),
			Handler:           NewHandler(config, deps.Authenticator, rt),
			ReadHeaderTimeout: 2 * time.Second,
		},
		onShutdown: deps.OnShutdown,
	}

	return srv, nil
}

// NewHandler aplica a cadeia global de middlewares ao router
func NewHandler(config *config.Config, authenticator authenticating.Authenticator, rt http.Handler) http.Handler {
	middlewares := []alice.Constructor{
		middleware.LogPanicMiddleware(),
		middleware.LoggingMiddleware(),
		middleware.Cors(config.Server.AllowedOrigins),
		middleware.AuthMiddleware(authenticator),
	}

	return alice.New(middlewares...).Then(rt)
}

func (s Server) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)

	go func() {
		logrus.WithFields(logrus.Fields{
			"address": s.httpServer.Addr,
		}).Info("Servidor iniciando")

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(done)

	select {
	case <-done:
		logrus.Info("Sinal de interrupção recebido")
	case <-ctx.Done():
		logrus.Info("Contexto de aplicação cancelado")
	case err := <-serveErr:
		logrus.WithError(err).Error("Erro durante a execução do servidor")
		return err
	}

	// Define timeout para desligamento
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Log de início do desligamento
	logrus.WithFields(logrus.Fields{
		"timeout": "15s",
	}).Info("Iniciando desligamento gracioso do servidor")

	if err := s.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Erro durante o desligamento do servidor")
		return err
	}

	logrus.Info("Servidor desligado com sucesso")
	return nil
}

func (s Server) Shutdown(ctx context.Context) error {
	logrus.Info("Executando operações de limpeza antes do desligamento")

	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		return err
	}

	logrus.Info("Servidor HTTP desligado com sucesso")

	for _, cleanup := range s.onShutdown {
		if err := cleanup(); err != nil {
			logrus.WithError(err).Warn("Erro ao liberar recurso no desligamento")
		}
	}

	return nil
}
