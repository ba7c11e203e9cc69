package queue

import (
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Connection mantém a conexão com o RabbitMQ e reconecta sob demanda
type Connection struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	url     string
	mu      sync.Mutex
}

func NewConnection(url string) (*Connection, error) {
	if url == "" {
		return nil, errors.New("url do rabbitmq não pode ser vazia")
	}

	c := &Connection{url: url}
	if err := c.dial(); err != nil {
		return nil, err
	}

	logrus.Info("Conectado ao RabbitMQ com sucesso")
	return c, nil
}

// Channel retorna o canal aberto, reconectando se necessário
func (c *Connection) Channel() (*amqp.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.channel == nil || c.channel.IsClosed() || c.conn == nil || c.conn.IsClosed() {
		logrus.Warn("Canal do RabbitMQ fechado, tentando reconectar")
		c.closeLocked()
		if err := c.dial(); err != nil {
			return nil, fmt.Errorf("falha ao reconectar: %w", err)
		}
	}

	return c.channel, nil
}

func (c *Connection) dial() error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("falha ao conectar no rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("falha ao criar canal: %w", err)
	}

	c.conn = conn
	c.channel = channel
	return nil
}

func (c *Connection) closeLocked() []error {
	var errs []error

	if c.channel != nil {
		if err := c.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, fmt.Errorf("falha ao fechar canal: %w", err))
		}
		c.channel = nil
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, fmt.Errorf("falha ao fechar conexão: %w", err))
		}
		c.conn = nil
	}

	return errs
}

func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if errs := c.closeLocked(); len(errs) > 0 {
		return errors.Join(errs...)
	}

	logrus.Info("Conexão com o RabbitMQ encerrada")
	return nil
}

func (c *Connection) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.conn != nil && !c.conn.IsClosed() && c.channel != nil && !c.channel.IsClosed()
}
