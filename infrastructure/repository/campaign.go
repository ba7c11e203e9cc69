package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	jsoniter "github.com/json-iterator/go"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/campaign-monitor-api/infrastructure/database/postgres"
	"github.com/vfg2006/campaign-monitor-api/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	campaignsTable       = "campaigns"
	campaignHistoryTable = "campaign_kpi_history"
	campaignAlertsTable  = "campaign_alerts"

	pgUniqueViolation = "23505"
)

// Histórico e alertas são agregados em JSON na mesma consulta da campanha,
// garantindo uma leitura consistente do documento inteiro.
const (
	historySubquery = `COALESCE((
		SELECT jsonb_agg(jsonb_build_object('timestamp', h.recorded_at, 'kpis', h.kpis) ORDER BY h.recorded_at)
		FROM campaign_kpi_history h
		WHERE h.campaign_id = c.id
	), '[]'::jsonb) AS history`

	alertsSubquery = `COALESCE((
		SELECT jsonb_agg(jsonb_build_object(
			'id', a.id,
			'type', a.type,
			'message', a.message,
			'severity', a.severity,
			'data', a.data,
			'resolved', a.resolved,
			'details', a.details
		) ORDER BY a.seq)
		FROM campaign_alerts a
		WHERE a.campaign_id = c.id
	), '[]'::jsonb) AS alerts`
)

var campaignColumns = []string{
	"c.id",
	"c.external_id",
	"c.name",
	"c.platform",
	"c.status",
	"c.budget",
	"c.budget_spent",
	"c.start_date",
	"c.end_date",
	"c.average_order_value",
	"c.kpis",
	"c.targets",
	"c.version",
	"c.created_at",
	"c.updated_at",
	historySubquery,
	alertsSubquery,
}

type campaignRepository struct {
	conn *postgres.Connection
}

func NewCampaignRepository(conn *postgres.Connection) CampaignRepository {
	return &campaignRepository{
		conn: conn,
	}
}

func (r *campaignRepository) CreateCampaign(ctx context.Context, campaign *domain.Campaign) error {
	kpis, err := json.Marshal(campaign.KPIs)
	if err != nil {
		return errors.Wrap(err, "erro ao serializar kpis")
	}

	targets, err := json.Marshal(campaign.Targets)
	if err != nil {
		return errors.Wrap(err, "erro ao serializar metas")
	}

	query, args, err := squirrel.
		Insert(campaignsTable).
		Columns(
			"id", "external_id", "name", "platform", "status", "budget", "budget_spent",
			"start_date", "end_date", "average_order_value", "kpis", "targets",
			"version", "created_at", "updated_at",
		).
		Values(
			campaign.ID, campaign.ExternalID, campaign.Name, campaign.Platform, campaign.Status,
			campaign.Budget, campaign.BudgetSpent, campaign.StartDate, campaign.EndDate,
			campaign.AverageOrderValue, string(kpis), string(targets),
			campaign.Version, campaign.CreatedAt, campaign.UpdatedAt,
		).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "erro ao construir a query")
	}

	if _, err := r.conn.ExecContext(ctx, query, args...); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == pgUniqueViolation {
			return ErrCampaignAlreadyExists
		}
		return wrapDatabaseError(err, "erro ao inserir campanha")
	}

	return nil
}

func (r *campaignRepository) GetCampaignByID(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	query, args, err := squirrel.
		Select(campaignColumns...).
		From(campaignsTable + " c").
		Where(squirrel.Eq{"c.id": campaignID}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "erro ao construir a query")
	}

	row := r.conn.QueryRowContext(ctx, query, args...)

	campaign, err := r.deserializeCampaign(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapDatabaseError(err, "erro ao buscar campanha")
	}

	return campaign, nil
}

func (r *campaignRepository) ListCampaigns(ctx context.Context, filter domain.CampaignFilter) ([]*domain.Campaign, error) {
	queryBuilder := squirrel.
		Select(campaignColumns...).
		From(campaignsTable + " c").
		OrderBy("c.created_at ASC", "c.id ASC").
		PlaceholderFormat(squirrel.Dollar)

	if filter.Status != "" {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"c.status": filter.Status})
	}

	if filter.Platform != "" {
		queryBuilder = queryBuilder.Where(squirrel.Eq{"c.platform": filter.Platform})
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "erro ao construir a query")
	}

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDatabaseError(err, "erro ao listar campanhas")
	}
	defer rows.Close()

	campaigns := make([]*domain.Campaign, 0)
	for rows.Next() {
		campaign, err := r.deserializeCampaign(rows)
		if err != nil {
			return nil, wrapDatabaseError(err, "erro ao ler campanha")
		}
		campaigns = append(campaigns, campaign)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapDatabaseError(err, "erro ao percorrer campanhas")
	}

	return campaigns, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *campaignRepository) deserializeCampaign(row rowScanner) (*domain.Campaign, error) {
	var (
		campaign          domain.Campaign
		externalID        sql.NullString
		averageOrderValue sql.NullFloat64
		kpis              []byte
		targets           []byte
		history           []byte
		alerts            []byte
	)

	if err := row.Scan(
		&campaign.ID,
		&externalID,
		&campaign.Name,
		&campaign.Platform,
		&campaign.Status,
		&campaign.Budget,
		&campaign.BudgetSpent,
		&campaign.StartDate,
		&campaign.EndDate,
		&averageOrderValue,
		&kpis,
		&targets,
		&campaign.Version,
		&campaign.CreatedAt,
		&campaign.UpdatedAt,
		&history,
		&alerts,
	); err != nil {
		return nil, err
	}

	if externalID.Valid {
		campaign.ExternalID = &externalID.String
	}

	if averageOrderValue.Valid {
		campaign.AverageOrderValue = &averageOrderValue.Float64
	}

	if err := json.Unmarshal(kpis, &campaign.KPIs); err != nil {
		return nil, errors.Wrap(err, "kpis inválidos")
	}

	if err := json.Unmarshal(targets, &campaign.Targets); err != nil {
		return nil, errors.Wrap(err, "metas inválidas")
	}

	campaign.History = make([]domain.HistoryEntry, 0)
	if err := json.Unmarshal(history, &campaign.History); err != nil {
		return nil, errors.Wrap(err, "histórico inválido")
	}

	campaign.Alerts = make([]domain.Alert, 0)
	if err := json.Unmarshal(alerts, &campaign.Alerts); err != nil {
		return nil, errors.Wrap(err, "alertas inválidos")
	}

	for _, alert := range campaign.Alerts {
		if !alert.Type.IsValid() {
			return nil, errors.Errorf("alerta %s com tipo desconhecido: %q", alert.ID, alert.Type)
		}
	}

	campaign.StartDate = campaign.StartDate.UTC()
	campaign.EndDate = campaign.EndDate.UTC()

	return &campaign, nil
}

func (r *campaignRepository) ApplyKPIUpdate(ctx context.Context, update *domain.KPIUpdate) error {
	kpis, err := json.Marshal(update.KPIs)
	if err != nil {
		return errors.Wrap(err, "erro ao serializar kpis")
	}

	return r.conn.RunInTransaction(ctx, func(tx *sql.Tx) error {
		if err := r.bumpVersion(ctx, tx, update, kpis); err != nil {
			return err
		}

		if err := r.insertHistory(ctx, tx, update.CampaignID, update.History.Timestamp, kpis); err != nil {
			return err
		}

		return r.insertAlerts(ctx, tx, update.CampaignID, update.Alerts)
	})
}

// bumpVersion só altera a campanha se ninguém a gravou desde a leitura
func (r *campaignRepository) bumpVersion(ctx context.Context, q postgres.Queryer, update *domain.KPIUpdate, kpis []byte) error {
	query, args, err := squirrel.
		Update(campaignsTable).
		Set("kpis", string(kpis)).
		Set("budget_spent", update.BudgetSpent).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", update.History.Timestamp).
		Where(squirrel.Eq{
			"id":      update.CampaignID,
			"version": update.ExpectedVersion,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "erro ao construir a query")
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return wrapDatabaseError(err, "erro ao atualizar campanha")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return wrapDatabaseError(err, "erro ao verificar atualização da campanha")
	}

	if affected == 0 {
		logrus.WithFields(logrus.Fields{
			"campaign_id":      update.CampaignID,
			"expected_version": update.ExpectedVersion,
		}).Debug("Campanha alterada concorrentemente")
		return ErrVersionConflict
	}

	return nil
}

func (r *campaignRepository) insertHistory(ctx context.Context, q postgres.Queryer, campaignID string, timestamp time.Time, kpis []byte) error {
	query, args, err := squirrel.
		Insert(campaignHistoryTable).
		Columns("campaign_id", "recorded_at", "kpis").
		Values(campaignID, timestamp, string(kpis)).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "erro ao construir a query")
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return wrapDatabaseError(err, "erro ao inserir histórico de KPIs")
	}

	return nil
}

func (r *campaignRepository) insertAlerts(ctx context.Context, q postgres.Queryer, campaignID string, alerts []domain.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	queryBuilder := squirrel.
		Insert(campaignAlertsTable).
		Columns("id", "campaign_id", "type", "message", "severity", "data", "resolved", "details").
		PlaceholderFormat(squirrel.Dollar)

	for _, alert := range alerts {
		details, err := json.Marshal(alert.Details)
		if err != nil {
			return errors.Wrap(err, "erro ao serializar detalhes do alerta")
		}

		queryBuilder = queryBuilder.Values(
			alert.ID,
			campaignID,
			alert.Type,
			alert.Message,
			alert.Severity,
			alert.Data,
			alert.Resolved,
			string(details),
		)
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return errors.Wrap(err, "erro ao construir a query")
	}

	if _, err := q.ExecContext(ctx, query, args...); err != nil {
		return wrapDatabaseError(err, "erro ao inserir alertas")
	}

	return nil
}

func (r *campaignRepository) ResolveAlert(ctx context.Context, campaignID, alertID string) (bool, error) {
	query, args, err := squirrel.
		Update(campaignAlertsTable).
		Set("resolved", true).
		Where(squirrel.Eq{
			"id":          alertID,
			"campaign_id": campaignID,
		}).
		PlaceholderFormat(squirrel.Dollar).
		ToSql()
	if err != nil {
		return false, errors.Wrap(err, "erro ao construir a query")
	}

	result, err := r.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return false, wrapDatabaseError(err, "erro ao resolver alerta")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, wrapDatabaseError(err, "erro ao verificar alerta resolvido")
	}

	return affected > 0, nil
}

func wrapDatabaseError(err error, message string) error {
	if pqErr, ok := err.(*pq.Error); ok {
		return errors.Wrapf(pqErr, "%s (código: %s)", message, pqErr.Code)
	}
	return errors.Wrap(err, message)
}
