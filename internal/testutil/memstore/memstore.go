// Package memstore implementa en memoria los repositorios, el TxRunner, el host de medios y el
// canal en vivo para los tests de casos de uso y de HTTP. Run trabaja sobre una copia del estado
// y solo la publica si fn no falla, igual que un Rollback.
package memstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/backoffice-api/internal/application/ports"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	"github.com/jhoicas/backoffice-api/internal/domain/repository"
)

var (
	_ ports.TxRunner                 = (*Store)(nil)
	_ repository.UserRepository      = (*userRepo)(nil)
	_ repository.CompanyRepository   = (*companyRepo)(nil)
	_ repository.ActionLogRepository = (*logRepo)(nil)
)

type state struct {
	users     map[int64]entity.User
	companies map[int64]entity.Company
	logs      []entity.ActionLog
	seq       int64
}

func (s *state) clone() *state {
	out := &state{
		users:     make(map[int64]entity.User, len(s.users)),
		companies: make(map[int64]entity.Company, len(s.companies)),
		logs:      append([]entity.ActionLog(nil), s.logs...),
		seq:       s.seq,
	}
	for k, v := range s.users {
		out.users[k] = v
	}
	for k, v := range s.companies {
		out.companies[k] = v
	}
	return out
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

// Store base de datos en memoria.
type Store struct {
	mu    sync.Mutex
	state *state

	// FailCommit hace fallar el siguiente Run después de ejecutar fn (se consume al usarse).
	FailCommit error
	// FailLogCreate hace fallar la inserción de auditoría, es decir el último paso de cada mutación.
	FailLogCreate error
}

// New crea un Store vacío.
func New() *Store {
	return &Store{state: &state{
		users:     map[int64]entity.User{},
		companies: map[int64]entity.Company{},
	}}
}

// Users repositorio fuera de transacción (lecturas de los casos de uso).
func (s *Store) Users() repository.UserRepository { return &userRepo{st: s, get: s.current} }

// Companies repositorio fuera de transacción.
func (s *Store) Companies() repository.CompanyRepository {
	return &companyRepo{st: s, get: s.current}
}

// Logs repositorio fuera de transacción.
func (s *Store) Logs() repository.ActionLogRepository {
	return &logRepo{st: s, get: s.current}
}

func (s *Store) current() *state { return s.state }

// Run ejecuta fn sobre una copia del estado. Los writes se publican y los hooks corren solo si fn y
// el commit simulado no fallan.
func (s *Store) Run(ctx context.Context, fn func(uow ports.UnitOfWork) error) error {
	s.mu.Lock()
	work := s.state.clone()
	s.mu.Unlock()

	get := func() *state { return work }
	u := &unit{
		users:     &userRepo{st: s, get: get, tx: true},
		companies: &companyRepo{st: s, get: get, tx: true},
		logs:      &logRepo{st: s, get: get, tx: true},
	}
	if err := fn(u); err != nil {
		return err
	}

	s.mu.Lock()
	if err := s.FailCommit; err != nil {
		s.FailCommit = nil
		s.mu.Unlock()
		return err
	}
	s.state = work
	s.mu.Unlock()

	for _, h := range u.hooks {
		h()
	}
	return nil
}

type unit struct {
	users     *userRepo
	companies *companyRepo
	logs      *logRepo
	hooks     []func()
}

func (u *unit) Users() repository.UserRepository        { return u.users }
func (u *unit) Companies() repository.CompanyRepository { return u.companies }
func (u *unit) Logs() repository.ActionLogRepository    { return u.logs }
func (u *unit) AfterCommit(fn func())                   { u.hooks = append(u.hooks, fn) }

// ──────────────────────────────────────────────────────────────────────────────
// Helpers para preparar y revisar el estado en tests
// ──────────────────────────────────────────────────────────────────────────────

// PutUser inserta u tal cual (asigna ID si no tiene) y lo devuelve.
func (s *Store) PutUser(u entity.User) entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.state.nextID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
		u.UpdatedAt = u.CreatedAt
	}
	s.state.users[u.ID] = u
	return u
}

// PutCompany inserta c tal cual (asigna ID si no tiene) y la devuelve.
func (s *Store) PutCompany(c entity.Company) entity.Company {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.state.nextID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
		c.UpdatedAt = c.CreatedAt
	}
	s.state.companies[c.ID] = c
	return c
}

// User copia confirmada del usuario id (incluye borrados).
func (s *Store) User(id int64) (entity.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.state.users[id]
	return u, ok
}

// Company copia confirmada de la empresa id.
func (s *Store) Company(id int64) (entity.Company, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.state.companies[id]
	return c, ok
}

// UserCount número de filas de usuarios confirmadas.
func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.users)
}

// AuditLogs entradas de auditoría confirmadas en orden de inserción.
func (s *Store) AuditLogs() []entity.ActionLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.ActionLog(nil), s.state.logs...)
}

// ──────────────────────────────────────────────────────────────────────────────
// Usuarios
// ──────────────────────────────────────────────────────────────────────────────

type userRepo struct {
	st  *Store
	get func() *state
	tx  bool
}

func (r *userRepo) lock() func() {
	if r.tx {
		return func() {}
	}
	r.st.mu.Lock()
	return r.st.mu.Unlock
}

func (r *userRepo) FindByID(_ context.Context, id int64, opts repository.FindOptions) (*entity.User, error) {
	defer r.lock()()
	u, ok := r.get().users[id]
	if !ok || (u.IsDeleted() && !opts.WithDeleted) {
		return nil, nil
	}
	return &u, nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string, withDeleted bool) (*entity.User, error) {
	defer r.lock()()
	for _, u := range r.get().users {
		if u.Email == email && (withDeleted || !u.IsDeleted()) {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *userRepo) FindByResetToken(_ context.Context, token string) (*entity.User, error) {
	defer r.lock()()
	for _, u := range r.get().users {
		if u.PasswordResetToken != nil && *u.PasswordResetToken == token && !u.IsDeleted() {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *userRepo) List(_ context.Context, f repository.UserFilter) ([]*entity.User, int, error) {
	defer r.lock()()
	var out []*entity.User
	for _, u := range r.get().users {
		if u.IsDeleted() || !roleIn(u.Role, f.Roles) {
			continue
		}
		if f.Email != "" && !containsFold(u.Email, f.Email) {
			continue
		}
		if f.Username != "" && !containsFold(u.Username, f.Username) {
			continue
		}
		if f.CreatedOn != nil && !sameDay(u.CreatedAt, *f.CreatedOn) {
			continue
		}
		u := u
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool {
		if f.Sort == repository.SortDesc {
			return out[i].ID > out[j].ID
		}
		return out[i].ID < out[j].ID
	})
	return paginate(out, f.Page), len(out), nil
}

func (r *userRepo) Save(_ context.Context, u *entity.User) error {
	defer r.lock()()
	st := r.get()
	for _, other := range st.users {
		if other.Email == u.Email && other.ID != u.ID {
			return domain.ErrEmailAlreadyExists
		}
	}
	if u.ID == 0 {
		u.ID = st.nextID()
	} else if _, ok := st.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	st.users[u.ID] = *u
	return nil
}

func (r *userRepo) UpdatePassword(_ context.Context, id int64, token, hash string) (bool, error) {
	defer r.lock()()
	st := r.get()
	u, ok := st.users[id]
	if !ok || u.IsDeleted() || u.PasswordResetToken == nil || *u.PasswordResetToken != token {
		return false, nil
	}
	u.PasswordHash = hash
	u.PasswordResetToken = nil
	u.UpdatedAt = time.Now().UTC()
	st.users[id] = u
	return true, nil
}

func (r *userRepo) SoftDelete(_ context.Context, id int64) error {
	defer r.lock()()
	st := r.get()
	u, ok := st.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	now := time.Now().UTC()
	u.DeletedAt = &now
	st.users[id] = u
	return nil
}

func (r *userRepo) Restore(_ context.Context, id int64) error {
	defer r.lock()()
	st := r.get()
	u, ok := st.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.DeletedAt = nil
	st.users[id] = u
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Empresas
// ──────────────────────────────────────────────────────────────────────────────

type companyRepo struct {
	st  *Store
	get func() *state
	tx  bool
}

func (r *companyRepo) lock() func() {
	if r.tx {
		return func() {}
	}
	r.st.mu.Lock()
	return r.st.mu.Unlock
}

func (r *companyRepo) FindByID(_ context.Context, id int64, _ repository.FindOptions) (*entity.Company, error) {
	defer r.lock()()
	c, ok := r.get().companies[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *companyRepo) List(_ context.Context, f repository.CompanyFilter) ([]*entity.Company, int, error) {
	defer r.lock()()
	var out []*entity.Company
	for _, c := range r.get().companies {
		if f.OwnerID != nil && c.UserID != *f.OwnerID {
			continue
		}
		if f.Capital != nil && !c.Capital.Equal(*f.Capital) {
			continue
		}
		if f.CreatedOn != nil && !sameDay(c.CreatedAt, *f.CreatedOn) {
			continue
		}
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Name != b.Name {
			return less(a.Name, b.Name, f.NameSort)
		}
		if a.Service != b.Service {
			return less(a.Service, b.Service, f.ServiceSort)
		}
		return a.ID < b.ID
	})
	return paginate(out, f.Page), len(out), nil
}

func (r *companyRepo) Save(_ context.Context, c *entity.Company) error {
	defer r.lock()()
	st := r.get()
	if _, ok := st.users[c.UserID]; !ok {
		return errors.New("memstore: companies.user_id viola la foreign key")
	}
	if c.ID == 0 {
		c.ID = st.nextID()
	} else if _, ok := st.companies[c.ID]; !ok {
		return domain.ErrCompanyNotFound
	}
	st.companies[c.ID] = *c
	return nil
}

func (r *companyRepo) Delete(_ context.Context, id int64) error {
	defer r.lock()()
	st := r.get()
	if _, ok := st.companies[id]; !ok {
		return domain.ErrCompanyNotFound
	}
	delete(st.companies, id)
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Auditoría
// ──────────────────────────────────────────────────────────────────────────────

type logRepo struct {
	st  *Store
	get func() *state
	tx  bool
}

func (r *logRepo) lock() func() {
	if r.tx {
		return func() {}
	}
	r.st.mu.Lock()
	return r.st.mu.Unlock
}

func (r *logRepo) Create(_ context.Context, l *entity.ActionLog) error {
	if err := r.st.FailLogCreate; err != nil {
		return err
	}
	defer r.lock()()
	if l.ID != 0 {
		return errors.New("memstore: el log ya tiene ID")
	}
	st := r.get()
	l.ID = st.nextID()
	st.logs = append(st.logs, *l)
	return nil
}

func (r *logRepo) List(_ context.Context, f repository.LogFilter) ([]*entity.ActionLogView, int, error) {
	defer r.lock()()
	st := r.get()
	var out []*entity.ActionLogView
	for _, l := range st.logs {
		if f.Action != "" && l.Action != f.Action {
			continue
		}
		if f.EntityName != "" && (l.EntityName == nil || *l.EntityName != f.EntityName) {
			continue
		}
		if f.CreatedOn != nil && !sameDay(l.CreatedAt, *f.CreatedOn) {
			continue
		}
		v := &entity.ActionLogView{ActionLog: l}
		if u, ok := st.users[l.UserID]; ok {
			v.UserEmail, v.Username = &u.Email, &u.Username
		}
		if l.CompanyID != nil {
			if c, ok := st.companies[*l.CompanyID]; ok {
				v.CompanyName = &c.Name
			}
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if f.Sort == repository.SortDesc {
			return out[i].ID > out[j].ID
		}
		return out[i].ID < out[j].ID
	})
	return paginate(out, f.Page), len(out), nil
}

// ──────────────────────────────────────────────────────────────────────────────

func paginate[T any](items []T, p repository.Page) []T {
	if p.Offset >= len(items) {
		return nil
	}
	items = items[p.Offset:]
	if p.Limit > 0 && p.Limit < len(items) {
		items = items[:p.Limit]
	}
	return items
}

func roleIn(r entity.Role, roles []entity.Role) bool {
	if len(roles) == 0 {
		return true
	}
	for _, x := range roles {
		if x == r {
			return true
		}
	}
	return false
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func sameDay(t, day time.Time) bool {
	start, end := repository.DayRange(day)
	return !t.Before(start) && t.Before(end)
}

func less(a, b string, dir repository.SortDir) bool {
	if dir == repository.SortDesc {
		return a > b
	}
	return a < b
}
