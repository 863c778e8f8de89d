package http

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/application/usecase"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

const defaultHeartbeat = 15 * time.Second

// LiveConfig ajustes del flujo /logs/live. Los ceros usan los valores por defecto.
type LiveConfig struct {
	Heartbeat time.Duration
	// WriteTimeout plazo de cada escritura del flujo; el servidor fija uno absoluto por respuesta
	// que cortaría la conexión, así que se rearma antes de cada flush.
	WriteTimeout time.Duration
}

// LogHandler expone el registro de auditoría: listado paginado y flujo en vivo.
type LogHandler struct {
	uc   *usecase.ActionLogUseCase
	live LiveConfig
	log  *logger.Logger
}

// NewLogHandler construye el handler.
func NewLogHandler(uc *usecase.ActionLogUseCase, live LiveConfig, log *logger.Logger) *LogHandler {
	if live.Heartbeat <= 0 {
		live.Heartbeat = defaultHeartbeat
	}
	if live.WriteTimeout <= 0 {
		live.WriteTimeout = DefaultWriteTimeout
	}
	return &LogHandler{uc: uc, live: live, log: log.WithComponent("logs")}
}

// List godoc
// @Summary      Listar el registro de auditoría
// @Tags         logs
// @Produce      json
// @Security     BearerAuth
// @Param        action      query  string  false  "CREATE|UPDATE|DELETE"
// @Param        entityName  query  string  false  "User|Company"
// @Param        createdAt   query  string  false  "Día (YYYY-MM-DD)"
// @Param        offset      query  int     false  "Offset"  default(0)
// @Param        limit       query  int     false  "Límite"  default(10)
// @Param        sort        query  string  false  "ASC|DESC por id"
// @Success      200  {object}  dto.ListResponse[dto.ActionLogResponse]
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /logs [get]
func (h *LogHandler) List(c *fiber.Ctx) error {
	var q dto.LogsQuery
	if err := c.QueryParser(&q); err != nil {
		return badRequest("", "query", "query inválida")
	}
	out, err := h.uc.GetLogs(c.UserContext(), q)
	if err != nil {
		return err
	}
	return c.JSON(out)
}

// Live godoc
// @Summary      Flujo en vivo del registro de auditoría (Server-Sent Events)
// @Tags         logs
// @Produce      text/event-stream
// @Security     BearerAuth
// @Success      200
// @Router       /logs/live [get]
func (h *LogHandler) Live(c *fiber.Ctx) error {
	ctx, cancel := context.WithCancel(context.Background())
	events, err := h.uc.Subscribe(ctx)
	if err != nil {
		cancel()
		return err
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	conn := c.Context().Conn()
	flush := func(w *bufio.Writer) error {
		if err := conn.SetWriteDeadline(time.Now().Add(h.live.WriteTimeout)); err != nil {
			return err
		}
		return w.Flush()
	}

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		ticker := time.NewTicker(h.live.Heartbeat)
		defer ticker.Stop()

		fmt.Fprint(w, ": connected\n\n")
		if flush(w) != nil {
			return
		}
		for {
			select {
			case l, ok := <-events:
				if !ok {
					return
				}
				data, err := json.Marshal(dto.ToActionLogResponse(&entity.ActionLogView{ActionLog: l}))
				if err != nil {
					h.log.Warn().Err(err).Msg("no se pudo serializar la entrada")
					continue
				}
				fmt.Fprintf(w, "id: %d\nevent: log\ndata: %s\n\n", l.ID, data)
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
			}
			if flush(w) != nil {
				return
			}
		}
	})
	return nil
}
