package entity

import "time"

// LogAction tipo de operación auditada.
type LogAction string

const (
	ActionCreate LogAction = "CREATE"
	ActionUpdate LogAction = "UPDATE"
	ActionDelete LogAction = "DELETE"
)

// Valid indica si a es una acción conocida.
func (a LogAction) Valid() bool {
	return a == ActionCreate || a == ActionUpdate || a == ActionDelete
}

// Nombres de entidad usados en el registro de auditoría.
const (
	EntityUser    = "User"
	EntityCompany = "Company"
)

// ActionLog entrada inmutable del registro de auditoría. Se escribe en la misma
// transacción que la mutación que describe y nunca se modifica ni se borra.
type ActionLog struct {
	ID         int64          `json:"id"`
	Action     LogAction      `json:"action"`
	UserID     int64          `json:"userId"`
	CompanyID  *int64         `json:"companyId,omitempty"`
	EntityName *string        `json:"entityName,omitempty"`
	EntityID   *int64         `json:"entityId,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// NewActionLog instancia una entrada sellada con la hora actual.
func NewActionLog(action LogAction, userID int64) *ActionLog {
	return &ActionLog{
		Action:    action,
		UserID:    userID,
		Metadata:  map[string]any{},
		CreatedAt: time.Now().UTC(),
	}
}

// ActionLogView entrada de auditoría con datos de presentación del actor y la empresa.
type ActionLogView struct {
	ActionLog
	UserEmail   *string
	Username    *string
	CompanyName *string
}
