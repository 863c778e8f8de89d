package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var _ repository.ActionLogRepository = (*ActionLogRepo)(nil)

var actionLogSchema = &Schema[entity.ActionLog]{
	Table:    "logs",
	Columns:  []string{"id", "action", "user_id", "company_id", "entity_name", "entity_id", "metadata", "created_at"},
	Writable: []string{"action", "user_id", "company_id", "entity_name", "entity_id", "metadata", "created_at"},
	Scan: func(row pgx.Row) (*entity.ActionLog, error) {
		var l entity.ActionLog
		if err := row.Scan(&l.ID, &l.Action, &l.UserID, &l.CompanyID, &l.EntityName, &l.EntityID, &l.Metadata, &l.CreatedAt); err != nil {
			return nil, err
		}
		return &l, nil
	},
	Values: func(l *entity.ActionLog) []any {
		return []any{l.Action, l.UserID, l.CompanyID, l.EntityName, l.EntityID, l.Metadata, l.CreatedAt}
	},
	GetID: func(l *entity.ActionLog) int64 { return l.ID },
	SetID: func(l *entity.ActionLog, id int64) { l.ID = id },
}

// ActionLogRepo persistencia del registro de auditoría. Solo inserta y lee.
type ActionLogRepo struct {
	q     Querier
	store *Store[entity.ActionLog]
}

// NewActionLogRepository construye el adaptador de auditoría.
func NewActionLogRepository(q Querier) *ActionLogRepo {
	return &ActionLogRepo{q: q, store: NewStore(q, actionLogSchema)}
}

// Create inserta la entrada y le asigna su ID.
func (r *ActionLogRepo) Create(ctx context.Context, l *entity.ActionLog) error {
	if l.ID != 0 {
		return fmt.Errorf("insert logs: la entrada ya existe (id %d)", l.ID)
	}
	return r.store.Save(ctx, l)
}

// List devuelve la página de entradas con email/username del actor y nombre de la empresa.
func (r *ActionLogRepo) List(ctx context.Context, f repository.LogFilter) ([]*entity.ActionLogView, int, error) {
	where, args, err := buildWhere(logConditions(f), actionLogSchema.has, "l.", nil)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.q.QueryRow(ctx, "SELECT count(*) FROM logs l"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count logs: %w", err)
	}

	order, err := buildOrder([]Order{{Column: "id", Dir: f.Sort}}, actionLogSchema.has, "l.")
	if err != nil {
		return nil, 0, err
	}

	var b strings.Builder
	b.WriteString(`
		SELECT l.id, l.action, l.user_id, l.company_id, l.entity_name, l.entity_id, l.metadata, l.created_at,
		       u.email, u.username, c.name
		FROM logs l
		LEFT JOIN users u ON u.id = l.user_id
		LEFT JOIN companies c ON c.id = l.company_id`)
	b.WriteString(where)
	b.WriteString(order)
	args = appendPage(&b, args, f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()
	var list []*entity.ActionLogView
	for rows.Next() {
		var v entity.ActionLogView
		if err := rows.Scan(&v.ID, &v.Action, &v.UserID, &v.CompanyID, &v.EntityName, &v.EntityID, &v.Metadata, &v.CreatedAt,
			&v.UserEmail, &v.Username, &v.CompanyName); err != nil {
			return nil, 0, fmt.Errorf("scan log: %w", err)
		}
		list = append(list, &v)
	}
	return list, total, rows.Err()
}

func logConditions(f repository.LogFilter) []Condition {
	var conds []Condition
	if f.Action != "" {
		conds = append(conds, Eq("action", string(f.Action)))
	}
	if f.EntityName != "" {
		conds = append(conds, Eq("entity_name", f.EntityName))
	}
	if f.CreatedOn != nil {
		from, to := repository.DayRange(*f.CreatedOn)
		conds = append(conds, Gte("created_at", from), Lt("created_at", to))
	}
	return conds
}
