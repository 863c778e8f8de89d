package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

// Schema describe cómo se mapea una entidad T a su tabla.
type Schema[T any] struct {
	Table      string
	Columns    []string // orden de lectura; la primera es "id"
	Writable   []string // columnas que escribe Save, alineadas con Values
	SoftDelete bool     // la tabla tiene deleted_at
	Scan       func(row pgx.Row) (*T, error)
	Values     func(e *T) []any
	GetID      func(e *T) int64
	SetID      func(e *T, id int64)
}

func (s *Schema[T]) has(col string) bool {
	for _, c := range s.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Op operador de comparación admitido en condiciones.
type Op string

const (
	OpEq      Op = "="
	OpNe      Op = "<>"
	OpGte     Op = ">="
	OpLt      Op = "<"
	OpILike   Op = "ILIKE"
	OpAny     Op = "ANY"
	OpIsNull  Op = "IS NULL"
	OpNotNull Op = "IS NOT NULL"
)

// Condition filtro sobre una columna; las condiciones de una Query se combinan con AND.
type Condition struct {
	Column string
	Op     Op
	Value  any
}

func Eq(col string, v any) Condition  { return Condition{Column: col, Op: OpEq, Value: v} }
func Ne(col string, v any) Condition  { return Condition{Column: col, Op: OpNe, Value: v} }
func Gte(col string, v any) Condition { return Condition{Column: col, Op: OpGte, Value: v} }
func Lt(col string, v any) Condition  { return Condition{Column: col, Op: OpLt, Value: v} }
func Any(col string, v any) Condition { return Condition{Column: col, Op: OpAny, Value: v} }
func IsNull(col string) Condition     { return Condition{Column: col, Op: OpIsNull} }

// Contains coincidencia parcial sin distinguir mayúsculas (los comodines del texto se escapan).
func Contains(col, text string) Condition {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return Condition{Column: col, Op: OpILike, Value: "%" + r.Replace(text) + "%"}
}

// Order criterio de ordenamiento.
type Order struct {
	Column string
	Dir    repository.SortDir
}

// Query consulta de lectura sobre un Store.
type Query struct {
	Where       []Condition
	Order       []Order
	Limit       int
	Offset      int
	ForUpdate   bool
	WithDeleted bool
}

// Assignment columna = valor en una actualización por criterio.
type Assignment struct {
	Column string
	Value  any
}

// Store capa genérica de acceso por tipo de entidad sobre un Querier (pool o tx).
// No contiene reglas de negocio ni estado transaccional: el llamador confirma o revierte.
type Store[T any] struct {
	q      Querier
	schema *Schema[T]
}

// NewStore construye un Store para el esquema dado.
func NewStore[T any](q Querier, schema *Schema[T]) *Store[T] {
	return &Store[T]{q: q, schema: schema}
}

// Find devuelve las filas que cumplen la consulta.
func (s *Store[T]) Find(ctx context.Context, q Query) ([]*T, error) {
	sql, args, err := s.selectSQL(q)
	if err != nil {
		return nil, err
	}
	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", s.schema.Table, err)
	}
	defer rows.Close()
	var list []*T
	for rows.Next() {
		e, err := s.schema.Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.schema.Table, err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// FindBy atajo de Find con solo condiciones.
func (s *Store[T]) FindBy(ctx context.Context, conds ...Condition) ([]*T, error) {
	return s.Find(ctx, Query{Where: conds})
}

// FindOne devuelve la primera fila o (nil, nil) si no hay ninguna.
func (s *Store[T]) FindOne(ctx context.Context, q Query) (*T, error) {
	q.Limit = 1
	q.Offset = 0
	sql, args, err := s.selectSQL(q)
	if err != nil {
		return nil, err
	}
	e, err := s.schema.Scan(s.q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find one %s: %w", s.schema.Table, err)
	}
	return e, nil
}

// Count cuenta las filas que cumplen las condiciones de la consulta (ignora orden y página).
func (s *Store[T]) Count(ctx context.Context, q Query) (int, error) {
	sql, args, err := s.countSQL(q)
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.q.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", s.schema.Table, err)
	}
	return n, nil
}

// FindAndCount devuelve la página pedida y el total sin paginar.
func (s *Store[T]) FindAndCount(ctx context.Context, q Query) ([]*T, int, error) {
	total, err := s.Count(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	list, err := s.Find(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Save inserta la entidad si su ID es cero (y le asigna el generado) o la actualiza si no.
// Una violación de unicidad se devuelve como domain.ErrConflict.
func (s *Store[T]) Save(ctx context.Context, e *T) error {
	values := s.schema.Values(e)
	id := s.schema.GetID(e)
	if id == 0 {
		var newID int64
		if err := s.q.QueryRow(ctx, s.insertSQL(), values...).Scan(&newID); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("insert %s: %w", s.schema.Table, domain.ErrConflict)
			}
			return fmt.Errorf("insert %s: %w", s.schema.Table, err)
		}
		s.schema.SetID(e, newID)
		return nil
	}
	tag, err := s.q.Exec(ctx, s.updateByIDSQL(), append(values, id)...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update %s: %w", s.schema.Table, domain.ErrConflict)
		}
		return fmt.Errorf("update %s: %w", s.schema.Table, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Update actualiza por criterio y devuelve cuántas filas cambió.
func (s *Store[T]) Update(ctx context.Context, where []Condition, set []Assignment) (int64, error) {
	sql, args, err := s.updateSQL(where, set)
	if err != nil {
		return 0, err
	}
	tag, err := s.q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", s.schema.Table, err)
	}
	return tag.RowsAffected(), nil
}

// Delete borra físicamente la fila id.
func (s *Store[T]) Delete(ctx context.Context, id int64) error {
	tag, err := s.q.Exec(ctx, "DELETE FROM "+s.schema.Table+" WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", s.schema.Table, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SoftDelete marca deleted_at en una fila no borrada.
func (s *Store[T]) SoftDelete(ctx context.Context, id int64) error {
	return s.setDeleted(ctx, id, true)
}

// Restore limpia deleted_at de una fila borrada lógicamente.
func (s *Store[T]) Restore(ctx context.Context, id int64) error {
	return s.setDeleted(ctx, id, false)
}

func (s *Store[T]) setDeleted(ctx context.Context, id int64, deleted bool) error {
	if !s.schema.SoftDelete {
		return fmt.Errorf("%s no admite borrado lógico", s.schema.Table)
	}
	sql := "UPDATE " + s.schema.Table + " SET deleted_at = now() WHERE id = $1 AND deleted_at IS NULL"
	if !deleted {
		sql = "UPDATE " + s.schema.Table + " SET deleted_at = NULL WHERE id = $1 AND deleted_at IS NOT NULL"
	}
	tag, err := s.q.Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("soft delete %s: %w", s.schema.Table, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ── SQL ─────────────────────────────────────────────────────────────────────

func (s *Store[T]) conditions(q Query) []Condition {
	conds := q.Where
	if s.schema.SoftDelete && !q.WithDeleted {
		conds = append(append([]Condition(nil), conds...), IsNull("deleted_at"))
	}
	return conds
}

func (s *Store[T]) selectSQL(q Query) (string, []any, error) {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(s.schema.Columns, ", "))
	b.WriteString(" FROM ")
	b.WriteString(s.schema.Table)

	where, args, err := buildWhere(s.conditions(q), s.schema.has, "", nil)
	if err != nil {
		return "", nil, err
	}
	b.WriteString(where)

	order, err := buildOrder(q.Order, s.schema.has, "")
	if err != nil {
		return "", nil, err
	}
	b.WriteString(order)

	args = appendPage(&b, args, q.Limit, q.Offset)
	if q.ForUpdate {
		b.WriteString(" FOR UPDATE")
	}
	return b.String(), args, nil
}

func (s *Store[T]) countSQL(q Query) (string, []any, error) {
	where, args, err := buildWhere(s.conditions(q), s.schema.has, "", nil)
	if err != nil {
		return "", nil, err
	}
	return "SELECT count(*) FROM " + s.schema.Table + where, args, nil
}

func (s *Store[T]) insertSQL() string {
	ph := make([]string, len(s.schema.Writable))
	for i := range ph {
		ph[i] = fmt.Sprintf("$%d", i+1)
	}
	return "INSERT INTO " + s.schema.Table + " (" + strings.Join(s.schema.Writable, ", ") +
		") VALUES (" + strings.Join(ph, ", ") + ") RETURNING id"
}

func (s *Store[T]) updateByIDSQL() string {
	sets := make([]string, len(s.schema.Writable))
	for i, c := range s.schema.Writable {
		sets[i] = fmt.Sprintf("%s = $%d", c, i+1)
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", s.schema.Table, strings.Join(sets, ", "), len(sets)+1)
}

func (s *Store[T]) updateSQL(where []Condition, set []Assignment) (string, []any, error) {
	if len(set) == 0 {
		return "", nil, fmt.Errorf("update %s: sin columnas", s.schema.Table)
	}
	if len(where) == 0 {
		return "", nil, fmt.Errorf("update %s: sin criterio", s.schema.Table)
	}
	args := make([]any, 0, len(set)+len(where))
	sets := make([]string, 0, len(set))
	for _, a := range set {
		if !s.schema.has(a.Column) || a.Column == "id" {
			return "", nil, fmt.Errorf("columna no permitida: %s", a.Column)
		}
		args = append(args, a.Value)
		sets = append(sets, fmt.Sprintf("%s = $%d", a.Column, len(args)))
	}
	clause, args, err := buildWhere(where, s.schema.has, "", args)
	if err != nil {
		return "", nil, err
	}
	return "UPDATE " + s.schema.Table + " SET " + strings.Join(sets, ", ") + clause, args, nil
}

// buildWhere arma " WHERE ..." numerando los parámetros a continuación de args.
func buildWhere(conds []Condition, has func(string) bool, alias string, args []any) (string, []any, error) {
	if len(conds) == 0 {
		return "", args, nil
	}
	parts := make([]string, 0, len(conds))
	for _, c := range conds {
		if !has(c.Column) {
			return "", nil, fmt.Errorf("columna no permitida: %s", c.Column)
		}
		col := alias + c.Column
		switch c.Op {
		case OpIsNull, OpNotNull:
			parts = append(parts, col+" "+string(c.Op))
		case OpAny:
			args = append(args, c.Value)
			parts = append(parts, fmt.Sprintf("%s = ANY($%d)", col, len(args)))
		case OpEq, OpNe, OpGte, OpLt, OpILike:
			args = append(args, c.Value)
			parts = append(parts, fmt.Sprintf("%s %s $%d", col, c.Op, len(args)))
		default:
			return "", nil, fmt.Errorf("operador no soportado: %s", c.Op)
		}
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

func buildOrder(orders []Order, has func(string) bool, alias string) (string, error) {
	if len(orders) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(orders))
	for _, o := range orders {
		if !has(o.Column) {
			return "", fmt.Errorf("columna no permitida: %s", o.Column)
		}
		dir := repository.SortAsc
		if o.Dir == repository.SortDesc {
			dir = repository.SortDesc
		}
		parts = append(parts, alias+o.Column+" "+string(dir))
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

func appendPage(b *strings.Builder, args []any, limit, offset int) []any {
	if limit > 0 {
		args = append(args, limit)
		fmt.Fprintf(b, " LIMIT $%d", len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		fmt.Fprintf(b, " OFFSET $%d", len(args))
	}
	return args
}
