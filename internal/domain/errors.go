package domain

import (
	"errors"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrServiceUnavailable = errors.New("servicio externo no disponible")
)

// Variantes con mensaje propio; errors.Is las reconoce también como su categoría general.
var (
	ErrUserNotFound       = wrap(ErrNotFound, "usuario no encontrado")
	ErrCompanyNotFound    = wrap(ErrNotFound, "empresa no encontrada")
	ErrEmailAlreadyExists = wrap(ErrConflict, "el email ya está registrado")
	ErrInvalidCredentials = wrap(ErrUnauthorized, "credenciales inválidas")
	ErrSelfDelete         = wrap(ErrForbidden, "no puede eliminar su propia cuenta")
	ErrAvatarMissing      = wrap(ErrInvalidInput, "el usuario no tiene avatar")
	ErrLogoMissing        = wrap(ErrInvalidInput, "la empresa no tiene logo")
	ErrMediaUnavailable   = wrap(ErrServiceUnavailable, "el host de medios no está disponible")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

func wrap(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Issue describe un campo que no pasó la validación.
type Issue struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError entrada mal formada (cuerpo o query) con la lista de problemas encontrados.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return ErrInvalidInput.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		parts = append(parts, is.Message)
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NewValidationError atajo para un único problema de validación.
func NewValidationError(field, rule, message string) *ValidationError {
	return &ValidationError{Issues: []Issue{{Field: field, Rule: rule, Message: message}}}
}
