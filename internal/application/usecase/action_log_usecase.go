package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/application/ports"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/metrics"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

const publishTimeout = 2 * time.Second

// LogParams datos de una entrada de auditoría.
type LogParams struct {
	Action     entity.LogAction
	UserID     int64
	CompanyID  *int64
	EntityName string
	EntityID   *int64
	Reason     string
	Metadata   map[string]any
}

// ActionLogUseCase registro de auditoría: escritura atómica con la mutación y publicación en vivo tras el commit.
type ActionLogUseCase struct {
	repo      repository.ActionLogRepository
	tx        ports.TxRunner
	publisher ports.LogPublisher
	log       *logger.Logger
}

// NewActionLogUseCase construye el servicio de auditoría.
func NewActionLogUseCase(repo repository.ActionLogRepository, tx ports.TxRunner, publisher ports.LogPublisher, log *logger.Logger) *ActionLogUseCase {
	return &ActionLogUseCase{repo: repo, tx: tx, publisher: publisher, log: log.WithComponent("audit")}
}

// Log inserta la entrada usando la transacción de uow; con uow nil abre la suya.
// La publicación ocurre solo si la transacción confirma y sus fallos no afectan a la escritura.
func (uc *ActionLogUseCase) Log(ctx context.Context, uow ports.UnitOfWork, p LogParams) (*entity.ActionLog, error) {
	if uow != nil {
		return uc.write(ctx, uow, p)
	}
	var out *entity.ActionLog
	err := uc.tx.Run(ctx, func(u ports.UnitOfWork) error {
		var err error
		out, err = uc.write(ctx, u, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *ActionLogUseCase) write(ctx context.Context, uow ports.UnitOfWork, p LogParams) (*entity.ActionLog, error) {
	if !p.Action.Valid() {
		return nil, fmt.Errorf("acción de auditoría inválida: %q", p.Action)
	}
	l := entity.NewActionLog(p.Action, p.UserID)
	l.CompanyID = p.CompanyID
	l.EntityID = p.EntityID
	if p.EntityName != "" {
		name := p.EntityName
		l.EntityName = &name
	}
	for k, v := range p.Metadata {
		l.Metadata[k] = v
	}
	if p.Reason != "" {
		l.Metadata["reason"] = p.Reason
	}
	if err := uow.Logs().Create(ctx, l); err != nil {
		return nil, fmt.Errorf("write audit log: %w", err)
	}
	uow.AfterCommit(func() { uc.publish(ctx, l) })
	return l, nil
}

func (uc *ActionLogUseCase) publish(ctx context.Context, l *entity.ActionLog) {
	metrics.AuditLogsTotal.WithLabelValues(string(l.Action)).Inc()
	if uc.publisher == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := uc.publisher.Publish(pctx, l); err != nil {
		metrics.LivePublishFailures.Inc()
		uc.log.Warn().Err(err).Int64("log_id", l.ID).Msg("no se pudo publicar la entrada de auditoría")
	}
}

// GetLogs devuelve una página de entradas con datos del actor y de la empresa.
func (uc *ActionLogUseCase) GetLogs(ctx context.Context, q dto.LogsQuery) (*dto.ListResponse[dto.ActionLogResponse], error) {
	if err := dto.Validate(q); err != nil {
		return nil, err
	}
	q.Normalize()
	day, err := q.CreatedOn()
	if err != nil {
		return nil, err
	}
	views, total, err := uc.repo.List(ctx, repository.LogFilter{
		Action:     entity.LogAction(q.Action),
		EntityName: q.EntityName,
		CreatedOn:  day,
		Sort:       q.SortDir(),
		Page:       q.Page(),
	})
	if err != nil {
		return nil, err
	}
	out := make([]dto.ActionLogResponse, 0, len(views))
	for _, v := range views {
		out = append(out, dto.ToActionLogResponse(v))
	}
	return dto.NewListResponse(out, total, q.Page()), nil
}

// Subscribe flujo de entradas publicadas hasta que ctx se cancela.
func (uc *ActionLogUseCase) Subscribe(ctx context.Context) (<-chan entity.ActionLog, error) {
	if uc.publisher == nil {
		return nil, fmt.Errorf("canal en vivo no configurado")
	}
	return uc.publisher.Subscribe(ctx)
}
