package http

import (
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jhoicas/backoffice-api/internal/application/dto"
)

var imageExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

// Uploader recibe imágenes multipart y las guarda en el directorio temporal con nombre UUID.
type Uploader struct {
	dir      string
	maxBytes int64
}

// NewUploader construye el receptor; crea dir si no existe.
func NewUploader(dir string, maxBytes int64) (*Uploader, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}
	return &Uploader{dir: dir, maxBytes: maxBytes}, nil
}

// Receive guarda el archivo del campo field. Devuelve nil si la petición no trae archivo.
// El llamador debe ejecutar cleanup al terminar la petición.
func (u *Uploader) Receive(c *fiber.Ctx, field string) (file *dto.FileUpload, cleanup func(), err error) {
	cleanup = func() {}
	if !isMultipart(c) {
		return nil, cleanup, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, cleanup, badRequest(field, "multipart", "malformed multipart body")
	}
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, cleanup, nil
	}
	fh := headers[0]
	if fh.Size > u.maxBytes {
		return nil, cleanup, badRequest(field, "max_size", field+" exceeds the maximum allowed size")
	}
	contentType := fh.Header.Get(fiber.HeaderContentType)
	ext, ok := imageExt[contentType]
	if !ok {
		return nil, cleanup, badRequest(field, "file_type", field+" must be image/jpeg or image/png")
	}
	path := filepath.Join(u.dir, uuid.NewString()+ext)
	if err := c.SaveFile(fh, path); err != nil {
		return nil, cleanup, err
	}
	return &dto.FileUpload{Path: path, ContentType: contentType}, func() { _ = os.Remove(path) }, nil
}

// Require como Receive pero el archivo es obligatorio.
func (u *Uploader) Require(c *fiber.Ctx, field string) (*dto.FileUpload, func(), error) {
	file, cleanup, err := u.Receive(c, field)
	if err == nil && file == nil {
		err = badRequest(field, "required", field+" is required")
	}
	return file, cleanup, err
}
