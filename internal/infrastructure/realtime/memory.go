package realtime

import (
	"context"
	"sync"

	"github.com/jhoicas/backoffice-api/internal/application/ports"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

var _ ports.LogPublisher = (*MemoryBroker)(nil)

// subscriberBuffer entradas pendientes por suscriptor; si se llena, las nuevas se descartan para ese suscriptor.
const subscriberBuffer = 64

// MemoryBroker difusión en proceso; se usa cuando no hay REDIS_URL (una sola instancia de la API).
type MemoryBroker struct {
	mu   sync.Mutex
	subs map[chan entity.ActionLog]struct{}
}

// NewMemoryBroker construye un broker vacío.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{subs: make(map[chan entity.ActionLog]struct{})}
}

// Publish entrega l a todos los suscriptores sin bloquear.
func (b *MemoryBroker) Publish(_ context.Context, l *entity.ActionLog) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- *l:
		default:
		}
	}
	return nil
}

// Subscribe registra un suscriptor hasta que ctx se cancela.
func (b *MemoryBroker) Subscribe(ctx context.Context) (<-chan entity.ActionLog, error) {
	ch := make(chan entity.ActionLog, subscriberBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}
