package media

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/jhoicas/backoffice-api/internal/application/ports"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/infrastructure/metrics"
	"github.com/jhoicas/backoffice-api/pkg/config"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

var _ ports.MediaStorage = (*S3Storage)(nil)

type uploadAPI interface {
	Upload(ctx context.Context, in *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type deleteAPI interface {
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Storage adaptador del host de medios sobre Amazon S3 (o APIs compatibles).
// La clave de cada objeto es folder/publicID.
type S3Storage struct {
	uploader uploadAPI
	objects  deleteAPI
	bucket   string
	baseURL  string
	log      *logger.Logger
}

// NewS3Client construye el cliente S3 desde la configuración (perfil opcional, endpoint compatible con path-style).
func NewS3Client(ctx context.Context, cfg config.StorageConfig) (*s3.Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Region),
	}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.Profile))
	}
	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// NewS3Storage construye el adaptador sobre un cliente S3.
func NewS3Storage(client *s3.Client, cfg config.StorageConfig, log *logger.Logger) *S3Storage {
	return newS3Storage(manager.NewUploader(client), client, cfg.Bucket, cfg.BaseURL(), log)
}

func newS3Storage(up uploadAPI, obj deleteAPI, bucket, baseURL string, log *logger.Logger) *S3Storage {
	return &S3Storage{
		uploader: up,
		objects:  obj,
		bucket:   bucket,
		baseURL:  strings.TrimRight(baseURL, "/"),
		log:      log.WithComponent("media"),
	}
}

// Upload sube filePath a folder/publicID y devuelve la URL pública.
func (s *S3Storage) Upload(ctx context.Context, filePath string, opts ports.UploadOptions) (res *ports.UploadResult, err error) {
	defer func() { metrics.MediaOperations.WithLabelValues("upload", metrics.Result(err)).Inc() }()

	if opts.PublicID == "" {
		return nil, fmt.Errorf("upload: public id requerido")
	}
	key := objectKey(opts.Folder, opts.PublicID)

	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file %s: %w", filePath, err)
	}
	defer f.Close()

	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	}
	if opts.ContentType != "" {
		in.ContentType = aws.String(opts.ContentType)
	}
	if _, err := s.uploader.Upload(ctx, in); err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("upload fallido")
		return nil, domain.ErrMediaUnavailable
	}
	return &ports.UploadResult{URL: s.baseURL + "/" + key, PublicID: key}, nil
}

// Edit añade a la URL los parámetros de transformación de entrega.
func (s *S3Storage) Edit(rawURL string, opts ports.TransformOptions) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	if opts.Format != "" {
		q.Set("format", opts.Format)
	}
	if opts.Quality != "" {
		q.Set("quality", opts.Quality)
	}
	if opts.Width > 0 {
		q.Set("w", strconv.Itoa(opts.Width))
	}
	if opts.Height > 0 {
		q.Set("h", strconv.Itoa(opts.Height))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Delete borra el objeto de una URL emitida por este adaptador. Las URLs de otro
// origen no corresponden a ningún objeto propio y se ignoran.
func (s *S3Storage) Delete(ctx context.Context, rawURL string) (err error) {
	key, ok := s.keyFromURL(rawURL)
	if !ok {
		s.log.Warn().Str("url", rawURL).Msg("URL fuera del bucket, no se borra")
		return nil
	}
	defer func() { metrics.MediaOperations.WithLabelValues("delete", metrics.Result(err)).Inc() }()

	_, err = s.objects.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("delete fallido")
		return domain.ErrMediaUnavailable
	}
	return nil
}

func (s *S3Storage) keyFromURL(rawURL string) (string, bool) {
	base, _, _ := strings.Cut(rawURL, "?")
	key, found := strings.CutPrefix(base, s.baseURL+"/")
	if !found || key == "" {
		return "", false
	}
	return key, true
}

func objectKey(folder, publicID string) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return publicID
	}
	return folder + "/" + publicID
}
