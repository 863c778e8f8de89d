package ports

import "context"

// UploadOptions destino de un archivo en el host de medios.
type UploadOptions struct {
	Folder      string // avatars, logos
	PublicID    string // <id de la entidad>-<sufijo>; cada subida genera un objeto nuevo
	ContentType string
}

// UploadResult identificador remoto de un archivo subido.
type UploadResult struct {
	URL      string
	PublicID string
}

// TransformOptions parámetros de entrega de una imagen.
type TransformOptions struct {
	Format  string // auto, webp, png...
	Quality string // auto, 80...
	Width   int
	Height  int
}

// MediaStorage define el puerto de salida hacia el host externo de imágenes.
// Cualquier fallo del host se devuelve envuelto en domain.ErrServiceUnavailable.
type MediaStorage interface {
	// Upload sube el archivo local filePath bajo folder/publicID.
	Upload(ctx context.Context, filePath string, opts UploadOptions) (*UploadResult, error)
	// Edit deriva la URL de entrega con transformaciones; no hace llamadas de red.
	Edit(url string, opts TransformOptions) string
	// Delete borra el objeto identificado por una URL emitida previamente por Upload/Edit.
	Delete(ctx context.Context, url string) error
}

// DefaultImageTransform transformación aplicada a avatares y logos.
var DefaultImageTransform = TransformOptions{Format: "auto", Quality: "auto"}
