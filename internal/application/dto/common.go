package dto

import (
	"strings"
	"time"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

// Valores de paginación por defecto.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// PageQuery paginación y orden comunes a los listados.
type PageQuery struct {
	Offset    int    `query:"offset" validate:"gte=0"`
	Limit     int    `query:"limit" validate:"gte=0"`
	Sort      string `query:"sort" validate:"omitempty,oneof=ASC DESC asc desc"`
	CreatedAt string `query:"createdAt"`
}

// Normalize aplica los valores por defecto (offset 0, limit 10).
func (p *PageQuery) Normalize() {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
}

// Page convierte a la ventana del repositorio.
func (p PageQuery) Page() repository.Page {
	return repository.Page{Offset: p.Offset, Limit: p.Limit}
}

// SortDir dirección pedida (ASC por defecto).
func (p PageQuery) SortDir() repository.SortDir {
	return ParseSort(p.Sort)
}

// CreatedOn interpreta createdAt (YYYY-MM-DD o RFC3339) como un día calendario.
func (p PageQuery) CreatedOn() (*time.Time, error) {
	return ParseDay("createdAt", p.CreatedAt)
}

// ParseSort normaliza ASC/DESC; cualquier otro valor es ASC.
func ParseSort(s string) repository.SortDir {
	if strings.EqualFold(s, "DESC") {
		return repository.SortDesc
	}
	return repository.SortAsc
}

// ParseDay interpreta una fecha de filtro; vacío = sin filtro.
func ParseDay(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, domain.NewValidationError(field, "date", field+" must be a date (YYYY-MM-DD)")
}

// ListMeta metadatos de página en respuestas.
type ListMeta struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// ListResponse envoltorio de todos los listados.
type ListResponse[T any] struct {
	Data []T      `json:"data"`
	Meta ListMeta `json:"meta"`
}

// NewListResponse arma el envoltorio; Data nunca es null en JSON.
func NewListResponse[T any](data []T, total int, page repository.Page) *ListResponse[T] {
	if data == nil {
		data = []T{}
	}
	return &ListResponse[T]{Data: data, Meta: ListMeta{Total: total, Offset: page.Offset, Limit: page.Limit}}
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	StatusCode int            `json:"statusCode"`
	Timestamp  string         `json:"timestamp"`
	Path       string         `json:"path"`
	Message    string         `json:"message"`
	Error      string         `json:"error"`
	Cause      []domain.Issue `json:"cause,omitempty"`
}

// FileUpload archivo ya validado y guardado en el directorio temporal.
type FileUpload struct {
	Path        string
	ContentType string
}
