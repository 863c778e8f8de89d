package repository

import (
	"context"
	"time"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// LogFilter criterios del listado de auditoría.
type LogFilter struct {
	Action     entity.LogAction
	EntityName string
	CreatedOn  *time.Time
	Sort       SortDir // por id
	Page
}

// ActionLogRepository puerto de persistencia del registro de auditoría (solo inserción y lectura).
type ActionLogRepository interface {
	Create(ctx context.Context, l *entity.ActionLog) error
	List(ctx context.Context, f LogFilter) ([]*entity.ActionLogView, int, error)
}
