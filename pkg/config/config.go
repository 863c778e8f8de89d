package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App        AppConfig
	DB         DBConfig
	JWT        JWTConfig
	HTTP       HTTPConfig
	Cookie     CookieConfig
	Storage    StorageConfig
	Redis      RedisConfig
	Upload     UploadConfig
	SuperAdmin SuperAdminConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// DBConfig configuración de PostgreSQL.
// Si DatabaseURL no está vacío, se usa como connection string completo.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	Migrate     bool // aplicar migraciones embebidas al iniciar la API

	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	PreferIPv4      bool // marcar tcp4 en el dial, para redes sin salida IPv6
}

// ConnectionString devuelve el DSN a usar: DATABASE_URL si está definido, si no el construido con DSN().
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DSN()
}

// DSN devuelve el connection string para PostgreSQL con URL encoding para caracteres especiales.
func (c DBConfig) DSN() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: fmt.Sprintf("sslmode=%s", c.SSLMode),
	}
	return u.String()
}

// JWTConfig configuración del par de tokens access/refresh.
type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessMinutes int
	RefreshHours  int
	Issuer        string
}

// AccessTTL duración del access token.
func (c JWTConfig) AccessTTL() time.Duration {
	return time.Duration(c.AccessMinutes) * time.Minute
}

// RefreshTTL duración del refresh token (y de la cookie que lo transporta).
func (c JWTConfig) RefreshTTL() time.Duration {
	return time.Duration(c.RefreshHours) * time.Hour
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host           string
	Port           int
	CORSOrigins    string
	SwaggerEnabled bool
	AuthRateLimit  int // peticiones por minuto e IP en login y contraseñas; 0 = sin límite
	BodyLimit      int
	WriteTimeout   time.Duration
	LiveHeartbeat  time.Duration // intervalo de ": ping" en /logs/live
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CookieConfig opciones de la cookie del refresh token.
type CookieConfig struct {
	Secure bool
	Domain string
}

// StorageConfig configuración del host de medios (S3 o compatible).
type StorageConfig struct {
	Bucket        string
	Region        string
	Endpoint      string // vacío = AWS; si no, endpoint S3-compatible con path-style
	PublicURL     string // base pública de los objetos; vacío = derivada de bucket/región
	AvatarsFolder string
	LogosFolder   string
	Profile       string
}

// BaseURL devuelve la URL pública bajo la que se sirven los objetos del bucket.
func (c StorageConfig) BaseURL() string {
	if c.PublicURL != "" {
		return strings.TrimRight(c.PublicURL, "/")
	}
	if c.Endpoint != "" {
		return strings.TrimRight(c.Endpoint, "/") + "/" + c.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", c.Bucket, c.Region)
}

// RedisConfig canal de publicación de eventos en vivo.
type RedisConfig struct {
	URL         string // vacío = broker en memoria (una sola instancia)
	LogsChannel string
}

// UploadConfig límites y directorio temporal de archivos subidos.
type UploadConfig struct {
	TempDir  string
	MaxBytes int
}

// SuperAdminConfig credenciales del super admin sembrado al iniciar.
type SuperAdminConfig struct {
	Email    string
	Password string
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, DB_HOST, JWT_SECRET, STORAGE_BUCKET, etc.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "backoffice-api"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		DB: DBConfig{
			DatabaseURL: getString(v, "DATABASE_URL", ""),
			Host:        getString(v, "DB_HOST", "localhost"),
			Port:        getInt(v, "DB_PORT", 5432),
			User:        getString(v, "DB_USER", "postgres"),
			Password:    getString(v, "DB_PASSWORD", ""),
			DBName:      getString(v, "DB_NAME", "backoffice"),
			SSLMode:     getString(v, "DB_SSLMODE", "disable"),
			Migrate:     getBool(v, "DB_MIGRATE", true),

			MaxConns:        getInt(v, "DB_MAX_CONNS", 25),
			MinConns:        getInt(v, "DB_MIN_CONNS", 2),
			MaxConnLifetime: time.Duration(getInt(v, "DB_MAX_CONN_LIFETIME_MINUTES", 60)) * time.Minute,
			MaxConnIdleTime: time.Duration(getInt(v, "DB_MAX_CONN_IDLE_MINUTES", 30)) * time.Minute,
			PreferIPv4:      getBool(v, "DB_PREFER_IPV4", false),
		},
		JWT: JWTConfig{
			AccessSecret:  getString(v, "JWT_SECRET", ""),
			RefreshSecret: getString(v, "JWT_REFRESH_SECRET", ""),
			AccessMinutes: getInt(v, "JWT_ACCESS_EXPIRATION_MINUTES", 15),
			RefreshHours:  getInt(v, "JWT_REFRESH_EXPIRATION_HOURS", 168),
			Issuer:        getString(v, "JWT_ISSUER", "backoffice-api"),
		},
		HTTP: HTTPConfig{
			Host:           getString(v, "HTTP_HOST", "0.0.0.0"),
			Port:           getInt(v, "HTTP_PORT", 8080),
			CORSOrigins:    getString(v, "CORS_ORIGINS", "http://localhost:3000"),
			SwaggerEnabled: getBool(v, "SWAGGER_ENABLED", true),
			AuthRateLimit:  getInt(v, "AUTH_RATE_LIMIT", 10),
			BodyLimit:      getInt(v, "HTTP_BODY_LIMIT", 4*1024*1024),
			WriteTimeout:   time.Duration(getInt(v, "HTTP_WRITE_TIMEOUT_SECONDS", 10)) * time.Second,
			LiveHeartbeat:  time.Duration(getInt(v, "LOGS_HEARTBEAT_SECONDS", 15)) * time.Second,
		},
		Cookie: CookieConfig{
			Secure: getBool(v, "COOKIE_SECURE", true),
			Domain: getString(v, "COOKIE_DOMAIN", ""),
		},
		Storage: StorageConfig{
			Bucket:        getString(v, "STORAGE_BUCKET", ""),
			Region:        getString(v, "STORAGE_REGION", "us-east-1"),
			Endpoint:      getString(v, "STORAGE_ENDPOINT", ""),
			PublicURL:     getString(v, "STORAGE_PUBLIC_URL", ""),
			AvatarsFolder: getString(v, "STORAGE_AVATARS_FOLDER", "avatars"),
			LogosFolder:   getString(v, "STORAGE_LOGOS_FOLDER", "logos"),
			Profile:       getString(v, "AWS_PROFILE", ""),
		},
		Redis: RedisConfig{
			URL:         getString(v, "REDIS_URL", ""),
			LogsChannel: getString(v, "REDIS_LOGS_CHANNEL", "backoffice:logs"),
		},
		Upload: UploadConfig{
			TempDir:  getString(v, "UPLOAD_TEMP_DIR", "./uploads"),
			MaxBytes: getInt(v, "UPLOAD_MAX_BYTES", 2*1024*1024),
		},
		SuperAdmin: SuperAdminConfig{
			Email:    getString(v, "SUPER_ADMIN_EMAIL", ""),
			Password: getString(v, "SUPER_ADMIN_PASSWORD", ""),
		},
	}
}

// Validate rechaza configuraciones con las que la API no puede emitir tokens seguros.
func (c *Config) Validate() error {
	if c.JWT.AccessSecret == "" || c.JWT.RefreshSecret == "" {
		return errors.New("JWT_SECRET y JWT_REFRESH_SECRET son obligatorios")
	}
	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		return errors.New("JWT_SECRET y JWT_REFRESH_SECRET deben ser distintos")
	}
	if c.JWT.AccessMinutes <= 0 || c.JWT.RefreshHours <= 0 {
		return errors.New("las expiraciones JWT deben ser positivas")
	}
	return nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		b, err := strconv.ParseBool(v.GetString(key))
		if err != nil {
			return def
		}
		return b
	}
	return def
}
