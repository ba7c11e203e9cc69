package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/vfg2006/campaign-monitor-api/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// AlertEvent é a mensagem publicada para cada alerta disparado
type AlertEvent struct {
	CampaignID   string       `json:"campaign_id"`
	CampaignName string       `json:"campaign_name"`
	Platform     string       `json:"platform"`
	Alert        domain.Alert `json:"alert"`
	PublishedAt  time.Time    `json:"published_at"`
}

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AlertPublisher publica alertas de campanhas em uma fila durável
type AlertPublisher struct {
	channel   func() (publishChannel, error)
	queueName string
	now       func() time.Time
}

func NewAlertPublisher(conn *Connection, queueName string) (*AlertPublisher, error) {
	if conn == nil {
		return nil, errors.New("conexão não pode ser nula")
	}

	if queueName == "" {
		return nil, errors.New("nome da fila não pode ser vazio")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("falha ao obter canal: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("falha ao declarar fila: %w", err)
	}

	return &AlertPublisher{
		channel: func() (publishChannel, error) {
			return conn.Channel()
		},
		queueName: queueName,
		now:       time.Now,
	}, nil
}

// NotifyAlerts publica uma mensagem por alerta; para no primeiro erro
func (p *AlertPublisher) NotifyAlerts(ctx context.Context, campaign *domain.Campaign, alerts []domain.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	ch, err := p.channel()
	if err != nil {
		return fmt.Errorf("falha ao obter canal: %w", err)
	}

	for _, alert := range alerts {
		body, err := json.Marshal(AlertEvent{
			CampaignID:   campaign.ID,
			CampaignName: campaign.Name,
			Platform:     campaign.Platform,
			Alert:        alert,
			PublishedAt:  p.now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("falha ao serializar alerta %s: %w", alert.ID, err)
		}

		err = ch.PublishWithContext(
			ctx,
			"",          // exchange padrão
			p.queueName, // routing key
			false,       // mandatory
			false,       // immediate
			amqp.Publishing{
				DeliveryMode: amqp.Persistent,
				ContentType:  "application/json",
				MessageId:    alert.ID,
				Type:         string(alert.Type),
				Timestamp:    alert.Data,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("falha ao publicar alerta %s: %w", alert.ID, err)
		}
	}

	logrus.WithFields(logrus.Fields{
		"campaign_id": campaign.ID,
		"alerts":      len(alerts),
		"queue":       p.queueName,
	}).Debug("Alertas publicados na fila")

	return nil
}
