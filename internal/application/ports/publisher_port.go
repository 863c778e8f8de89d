package ports

import (
	"context"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// LogPublisher canal de actualizaciones en vivo del registro de auditoría.
type LogPublisher interface {
	Publish(ctx context.Context, l *entity.ActionLog) error
	// Subscribe entrega las entradas publicadas hasta que ctx se cancela; el canal se cierra al terminar.
	Subscribe(ctx context.Context) (<-chan entity.ActionLog, error)
}
