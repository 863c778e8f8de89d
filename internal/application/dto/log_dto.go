package dto

import (
	"time"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
)

// LogsQuery filtros del listado de auditoría.
type LogsQuery struct {
	Action     string `query:"action" validate:"omitempty,oneof=CREATE UPDATE DELETE"`
	EntityName string `query:"entityName" validate:"omitempty,max=64"`
	PageQuery
}

// ActionLogResponse entrada de auditoría con datos de presentación.
type ActionLogResponse struct {
	ID         int64          `json:"id"`
	Action     string         `json:"action"`
	UserID     int64          `json:"userId"`
	CompanyID  *int64         `json:"companyId"`
	EntityName *string        `json:"entityName"`
	EntityID   *int64         `json:"entityId"`
	Metadata   map[string]any `json:"metadata"`
	CreatedAt  time.Time      `json:"createdAt"`
	User       *LogActor      `json:"user,omitempty"`
	Company    *LogCompany    `json:"company,omitempty"`
}

// LogActor datos del usuario que ejecutó la acción.
type LogActor struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

// LogCompany empresa afectada (si aún existe).
type LogCompany struct {
	Name string `json:"name"`
}

// ToActionLogResponse convierte la vista de repositorio en la respuesta.
func ToActionLogResponse(v *entity.ActionLogView) ActionLogResponse {
	out := ActionLogResponse{
		ID:         v.ID,
		Action:     string(v.Action),
		UserID:     v.UserID,
		CompanyID:  v.CompanyID,
		EntityName: v.EntityName,
		EntityID:   v.EntityID,
		Metadata:   v.Metadata,
		CreatedAt:  v.CreatedAt,
	}
	if v.UserEmail != nil {
		out.User = &LogActor{Email: *v.UserEmail}
		if v.Username != nil {
			out.User.Username = *v.Username
		}
	}
	if v.CompanyName != nil {
		out.Company = &LogCompany{Name: *v.CompanyName}
	}
	return out
}
