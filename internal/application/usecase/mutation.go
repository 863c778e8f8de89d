package usecase

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
	"github.com/jhoicas/backoffice-api/internal/application/ports"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/metrics"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

const cleanupTimeout = 10 * time.Second

// mutationRunner ejecuta una mutación como unidad de trabajo: transacción, medios subidos y auditoría.
type mutationRunner struct {
	tx    ports.TxRunner
	media ports.MediaStorage
	audit *ActionLogUseCase
	log   *logger.Logger
}

// mutation estado de un intento; vive solo dentro de run.
type mutation struct {
	ctx      context.Context
	uow      ports.UnitOfWork
	r        *mutationRunner
	uploaded []string
}

// run abre la transacción y ejecuta fn. Si fn o el commit fallan, cada archivo subido en el intento
// se borra antes de devolver el error original.
func (r *mutationRunner) run(ctx context.Context, fn func(m *mutation) error) error {
	var m *mutation
	err := r.tx.Run(ctx, func(uow ports.UnitOfWork) error {
		m = &mutation{ctx: ctx, uow: uow, r: r}
		return fn(m)
	})
	if err != nil && m != nil {
		r.cleanup(ctx, m.uploaded)
	}
	return err
}

func (r *mutationRunner) cleanup(ctx context.Context, urls []string) {
	if len(urls) == 0 {
		return
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	for _, u := range urls {
		err := r.media.Delete(cctx, u)
		metrics.OrphanCleanups.WithLabelValues(metrics.Result(err)).Inc()
		if err != nil {
			r.log.Warn().Err(err).Str("url", u).Msg("no se pudo borrar el archivo de una operación revertida")
		}
	}
}

// upload sube el archivo con un publicID nuevo y devuelve la URL de entrega.
func (m *mutation) upload(folder string, ownerID int64, f *dto.FileUpload) (string, error) {
	res, err := m.r.media.Upload(m.ctx, f.Path, ports.UploadOptions{
		Folder:      folder,
		PublicID:    publicID(ownerID),
		ContentType: f.ContentType,
	})
	if err != nil {
		return "", err
	}
	m.uploaded = append(m.uploaded, res.URL)
	return m.r.media.Edit(res.URL, ports.DefaultImageTransform), nil
}

// deleteAfterCommit programa el borrado de un archivo que la fila confirmada ya no referencia.
// Si la transacción se revierte el archivo sigue en su sitio, igual que la fila.
func (m *mutation) deleteAfterCommit(url *string) {
	if url == nil || *url == "" {
		return
	}
	old := *url
	m.uow.AfterCommit(func() {
		m.r.cleanupReplaced(m.ctx, old)
	})
}

func (r *mutationRunner) cleanupReplaced(ctx context.Context, url string) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	err := r.media.Delete(cctx, url)
	metrics.OrphanCleanups.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		r.log.Warn().Err(err).Str("url", url).Msg("no se pudo borrar el archivo desvinculado")
	}
}

// audit escribe la entrada de auditoría dentro de la transacción de la mutación.
func (m *mutation) audit(p LogParams) error {
	_, err := m.r.audit.Log(m.ctx, m.uow, p)
	return err
}

func publicID(ownerID int64) string {
	return strconv.FormatInt(ownerID, 10) + "-" + uuid.NewString()[:8]
}
