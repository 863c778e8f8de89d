package repository

import "time"

// SortDir dirección de ordenamiento.
type SortDir string

const (
	SortAsc  SortDir = "ASC"
	SortDesc SortDir = "DESC"
)

// Page ventana de resultados (offset/limit).
type Page struct {
	Offset int
	Limit  int
}

// FindOptions modifica la lectura de una fila.
type FindOptions struct {
	ForUpdate   bool // bloquea la fila hasta el fin de la transacción
	WithDeleted bool // incluye filas con borrado lógico
}

// DayRange devuelve [inicio, fin) del día calendario UTC de t.
func DayRange(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
