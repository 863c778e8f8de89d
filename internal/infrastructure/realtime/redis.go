package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	r "gopkg.in/redis.v5"

	"github.com/jhoicas/backoffice-api/internal/application/ports"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

var _ ports.LogPublisher = (*RedisPublisher)(nil)

// RedisPublisher publica las entradas de auditoría en un canal Redis (PUBLISH/SUBSCRIBE),
// de modo que todas las instancias de la API ven el mismo flujo en vivo.
type RedisPublisher struct {
	client  *r.Client
	channel string
	log     *logger.Logger
}

// NewRedisPublisher conecta con url (redis://...) y verifica la conexión con PING.
func NewRedisPublisher(url, channel string, log *logger.Logger) (*RedisPublisher, error) {
	opts, err := r.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := r.NewClient(opts)
	if err := client.Ping().Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisPublisher{client: client, channel: channel, log: log.WithComponent("realtime")}, nil
}

// Publish serializa l como JSON y lo publica en el canal.
func (p *RedisPublisher) Publish(_ context.Context, l *entity.ActionLog) error {
	payload, err := encodeLog(l)
	if err != nil {
		return err
	}
	if err := p.client.Publish(p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", p.channel, err)
	}
	return nil
}

// Subscribe abre una suscripción dedicada que se cierra al cancelarse ctx.
func (p *RedisPublisher) Subscribe(ctx context.Context) (<-chan entity.ActionLog, error) {
	ps, err := p.client.Subscribe(p.channel)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", p.channel, err)
	}

	out := make(chan entity.ActionLog, subscriberBuffer)
	go func() {
		<-ctx.Done()
		_ = ps.Close() // desbloquea ReceiveMessage
	}()
	go pump(ctx, ps.ReceiveMessage, out, p.log)
	return out, nil
}

func encodeLog(l *entity.ActionLog) (string, error) {
	payload, err := json.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("marshal log: %w", err)
	}
	return string(payload), nil
}

// pump decodifica los mensajes recibidos hacia out hasta que receive falle o ctx termine.
// Cierra out al salir.
func pump(ctx context.Context, receive func() (*r.Message, error), out chan<- entity.ActionLog, log *logger.Logger) {
	defer close(out)
	for {
		msg, err := receive()
		if err != nil {
			if ctx.Err() == nil {
				log.Warn().Err(err).Msg("suscripción redis terminada")
			}
			return
		}
		var l entity.ActionLog
		if err := json.Unmarshal([]byte(msg.Payload), &l); err != nil {
			log.Warn().Err(err).Msg("mensaje de auditoría inválido")
			continue
		}
		select {
		case out <- l:
		case <-ctx.Done():
			return
		}
	}
}

// Close libera la conexión.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
