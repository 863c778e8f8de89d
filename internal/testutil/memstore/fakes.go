package memstore

import (
	"context"
	"strings"
	"sync"

	"github.com/jhoicas/backoffice-api/internal/application/ports"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/realtime"
)

// MediaBaseURL prefijo de las URLs que emite Media.
const MediaBaseURL = "https://media.test"

var _ ports.MediaStorage = (*Media)(nil)

// Media host de medios en memoria: guarda las claves vivas y registra cada llamada.
type Media struct {
	mu      sync.Mutex
	objects map[string]string // key -> content type
	Deleted []string

	FailUpload error
	FailDelete error
}

// NewMedia crea un host vacío.
func NewMedia() *Media {
	return &Media{objects: map[string]string{}}
}

func (m *Media) Upload(_ context.Context, filePath string, opts ports.UploadOptions) (*ports.UploadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailUpload != nil {
		return nil, m.FailUpload
	}
	key := opts.Folder + "/" + opts.PublicID
	m.objects[key] = opts.ContentType
	return &ports.UploadResult{URL: MediaBaseURL + "/" + key, PublicID: key}, nil
}

func (m *Media) Edit(url string, opts ports.TransformOptions) string {
	return url + "?format=" + opts.Format + "&quality=" + opts.Quality
}

func (m *Media) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailDelete != nil {
		return m.FailDelete
	}
	key := keyOf(url)
	m.Deleted = append(m.Deleted, key)
	delete(m.objects, key)
	return nil
}

// Put registra un objeto existente y devuelve su URL de entrega.
func (m *Media) Put(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = "image/png"
	return MediaBaseURL + "/" + key + "?format=auto&quality=auto"
}

// Has indica si la URL (o clave) sigue existiendo.
func (m *Media) Has(urlOrKey string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[keyOf(urlOrKey)]
	return ok
}

// Count número de objetos vivos.
func (m *Media) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

func keyOf(url string) string {
	base, _, _ := strings.Cut(url, "?")
	return strings.TrimPrefix(base, MediaBaseURL+"/")
}

// Publisher canal en vivo en memoria que además guarda lo publicado.
type Publisher struct {
	*realtime.MemoryBroker

	mu        sync.Mutex
	Published []entity.ActionLog
	Fail      error
}

// NewPublisher crea el canal.
func NewPublisher() *Publisher {
	return &Publisher{MemoryBroker: realtime.NewMemoryBroker()}
}

func (p *Publisher) Publish(ctx context.Context, l *entity.ActionLog) error {
	p.mu.Lock()
	if p.Fail != nil {
		p.mu.Unlock()
		return p.Fail
	}
	p.Published = append(p.Published, *l)
	p.mu.Unlock()
	return p.MemoryBroker.Publish(ctx, l)
}

// Count número de entradas publicadas.
func (p *Publisher) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Published)
}
