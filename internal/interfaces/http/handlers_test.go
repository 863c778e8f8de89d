package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/backoffice-api/internal/application/auth"
	"github.com/jhoicas/backoffice-api/internal/application/usecase"
	"github.com/jhoicas/backoffice-api/internal/domain"
	"github.com/jhoicas/backoffice-api/internal/domain/entity"
	apphttp "github.com/jhoicas/backoffice-api/internal/interfaces/http"
	"github.com/jhoicas/backoffice-api/internal/testutil/memstore"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

const maxUpload = 1024

type server struct {
	app   *fiber.App
	store *memstore.Store
	media *memstore.Media
	live  *memstore.Publisher
}

func newServer(t *testing.T) *server {
	return newServerWith(t, apphttp.AppConfig{Name: "test", BodyLimit: 1 << 20}, apphttp.LiveConfig{})
}

func newServerWith(t *testing.T, appCfg apphttp.AppConfig, live apphttp.LiveConfig) *server {
	t.Helper()
	log := logger.Nop()
	store := memstore.New()
	media := memstore.NewMedia()
	publisher := memstore.NewPublisher()
	hasher := auth.BcryptHasher{Cost: bcrypt.MinCost}
	audit := usecase.NewActionLogUseCase(store.Logs(), store, publisher, log)
	uploader, err := apphttp.NewUploader(t.TempDir(), maxUpload)
	require.NoError(t, err)

	app := apphttp.NewApp(appCfg, log)
	apphttp.Router(app, apphttp.RouterDeps{
		AuthUC: auth.NewAuthUseCase(store.Users(), store, audit, hasher, auth.JWTConfig{
			AccessSecret:  testAccessSecret,
			RefreshSecret: testRefreshSecret,
			AccessTTL:     time.Minute,
			RefreshTTL:    time.Hour,
			Issuer:        testIssuer,
		}),
		UserUC:       usecase.NewUserUseCase(store.Users(), store, media, audit, hasher, "avatars", log),
		CompanyUC:    usecase.NewCompanyUseCase(store.Companies(), store, media, audit, "logos", log),
		LogUC:        audit,
		Uploader:     uploader,
		Cookie:       apphttp.CookieConfig{Secure: true, MaxAge: time.Hour},
		AccessSecret: testAccessSecret,
		Live:         live,
		Log:          log,
	})
	return &server{app: app, store: store, media: media, live: publisher}
}

func (s *server) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (s *server) json(t *testing.T, method, path, token string, payload any) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}
	return s.do(t, method, path, token, body, fiber.MIMEApplicationJSON)
}

// user crea un usuario con rol role y devuelve su id y su Bearer.
func (s *server) user(t *testing.T, email string, role entity.Role) (int64, string) {
	t.Helper()
	u := s.store.PutUser(entity.User{Email: email, Username: entity.DefaultUsername(email), Role: role})
	return u.ID, bearer(t, u.ID, string(role))
}

// listen sirve la app en un puerto TCP real y devuelve su URL base.
func (s *server) listen(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = s.app.Listener(ln) }()
	t.Cleanup(func() { _ = s.app.ShutdownWithTimeout(2 * time.Second) })
	return "http://" + ln.Addr().String()
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func refreshCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == apphttp.RefreshCookie {
			return c
		}
	}
	return nil
}

func imageForm(t *testing.T, field, contentType string, size int, fields map[string]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="img"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0x89}, size))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

// ──────────────────────────────────────────────────────────────────────────────
// Auth
// ──────────────────────────────────────────────────────────────────────────────

func TestAuth_RegistroDobleYLogin(t *testing.T) {
	s := newServer(t)
	creds := map[string]string{"email": "a@x.com", "password": "Password1!"}

	resp := s.json(t, http.MethodPost, "/auth/register", "", creds)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var user map[string]any
	decode(t, resp, &user)
	assert.Equal(t, "a@x.com", user["email"])
	assert.NotContains(t, user, "passwordHash")
	assert.NotContains(t, user, "password")

	resp = s.json(t, http.MethodPost, "/auth/register", "", creds)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = s.json(t, http.MethodPost, "/auth/login", "", creds)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cookie := refreshCookie(resp)
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)

	var tokens map[string]string
	decode(t, resp, &tokens)
	assert.NotEmpty(t, tokens["access_token"])
}

func TestAuth_ValidacionDevuelveCause(t *testing.T) {
	s := newServer(t)
	resp := s.json(t, http.MethodPost, "/auth/register", "", map[string]string{"email": "nope", "password": "weak"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		StatusCode int    `json:"statusCode"`
		Error      string `json:"error"`
		Path       string `json:"path"`
		Cause      []struct {
			Field string `json:"field"`
		} `json:"cause"`
	}
	decode(t, resp, &body)
	assert.Equal(t, 400, body.StatusCode)
	assert.Equal(t, "VALIDATION", body.Error)
	assert.Equal(t, "/auth/register", body.Path)
	assert.Len(t, body.Cause, 2)
}

func TestAuth_LoginInvalido(t *testing.T) {
	s := newServer(t)
	resp := s.json(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "a@x.com", "password": "Password1!"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuth_RefreshRotaLaCookie(t *testing.T) {
	s := newServer(t)
	creds := map[string]string{"email": "a@x.com", "password": "Password1!"}
	s.json(t, http.MethodPost, "/auth/register", "", creds).Body.Close()
	login := s.json(t, http.MethodPost, "/auth/login", "", creds)
	login.Body.Close()
	first := refreshCookie(login)
	require.NotNil(t, first)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: apphttp.RefreshCookie, Value: first.Value})
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	second := refreshCookie(resp)
	require.NotNil(t, second)
	assert.NotEmpty(t, second.Value)
	resp.Body.Close()

	resp = s.do(t, http.MethodPost, "/auth/refresh", "", nil, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuth_LogoutBorraLaCookie(t *testing.T) {
	s := newServer(t)
	resp := s.do(t, http.MethodPost, "/auth/logout", "", nil, "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	cookie := refreshCookie(resp)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
}

// ──────────────────────────────────────────────────────────────────────────────
// Users
// ──────────────────────────────────────────────────────────────────────────────

func TestUsers_MeYAvatar(t *testing.T) {
	s := newServer(t)
	_, token := s.user(t, "me@x.com", entity.RoleUser)

	resp := s.do(t, http.MethodGet, "/users/me", token, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me map[string]any
	decode(t, resp, &me)
	assert.Equal(t, "me@x.com", me["email"])

	body, ct := imageForm(t, "avatar", "image/png", 100, nil)
	resp = s.do(t, http.MethodPut, "/users/me/avatar", token, body, ct)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &me)
	avatar, _ := me["avatar"].(string)
	assert.True(t, strings.HasPrefix(avatar, memstore.MediaBaseURL+"/avatars/"), avatar)
	assert.Equal(t, 1, s.media.Count())

	resp = s.do(t, http.MethodDelete, "/users/me/avatar", token, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Zero(t, s.media.Count())

	resp = s.do(t, http.MethodDelete, "/users/me/avatar", token, nil, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "sin avatar que borrar")
}

func TestUsers_AvatarInvalido(t *testing.T) {
	s := newServer(t)
	_, token := s.user(t, "me@x.com", entity.RoleUser)

	body, ct := imageForm(t, "avatar", "text/plain", 10, nil)
	resp := s.do(t, http.MethodPut, "/users/me/avatar", token, body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	body, ct = imageForm(t, "avatar", "image/jpeg", maxUpload+1, nil)
	resp = s.do(t, http.MethodPut, "/users/me/avatar", token, body, ct)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(t, http.MethodPut, "/users/me/avatar", token, nil, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, s.media.Count())
}

func TestUsers_MultipartTruncadoEs400(t *testing.T) {
	s := newServer(t)
	_, token := s.user(t, "me@x.com", entity.RoleUser)

	broken := "--xyz\r\nContent-Disposition: form-data; name=\"avatar\"; filename=\"img\"\r\n" +
		"Content-Type: image/png\r\n\r\n\x89\x89\x89"
	resp := s.do(t, http.MethodPut, "/users/me/avatar", token, strings.NewReader(broken), "multipart/form-data; boundary=xyz")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Cause []struct {
			Field string `json:"field"`
			Rule  string `json:"rule"`
		} `json:"cause"`
	}
	decode(t, resp, &body)
	require.Len(t, body.Cause, 1)
	assert.Equal(t, "avatar", body.Cause[0].Field)
	assert.Equal(t, "multipart", body.Cause[0].Rule)
	assert.Zero(t, s.media.Count())
}

func TestUsers_UpdateMeMultipart(t *testing.T) {
	s := newServer(t)
	_, token := s.user(t, "me@x.com", entity.RoleUser)

	body, ct := imageForm(t, "avatar", "image/jpeg", 10, map[string]string{"username": "Trinity"})
	resp := s.do(t, http.MethodPatch, "/users/me", token, body, ct)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var me map[string]any
	decode(t, resp, &me)
	assert.Equal(t, "Trinity", me["username"])
	assert.NotNil(t, me["avatar"])
}

func TestUsers_HostDeMediosCaidoEs503(t *testing.T) {
	s := newServer(t)
	_, token := s.user(t, "me@x.com", entity.RoleUser)
	s.media.FailUpload = domain.ErrServiceUnavailable

	body, ct := imageForm(t, "avatar", "image/png", 10, nil)
	resp := s.do(t, http.MethodPut, "/users/me/avatar", token, body, ct)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestUsers_AdminNoSeBorraASiMismo(t *testing.T) {
	s := newServer(t)
	id, token := s.user(t, "admin@x.com", entity.RoleAdmin)

	resp := s.do(t, http.MethodDelete, "/users/admin/"+strconv.FormatInt(id, 10), token, nil, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestUsers_PanelDeAdministracion(t *testing.T) {
	s := newServer(t)
	_, admin := s.user(t, "admin@x.com", entity.RoleAdmin)
	_, root := s.user(t, "root@x.com", entity.RoleSuperAdmin)
	_, plain := s.user(t, "plain@x.com", entity.RoleUser)

	resp := s.json(t, http.MethodPost, "/users/admin", admin, map[string]string{"email": "new@x.com", "password": "Password1!"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created map[string]any
	decode(t, resp, &created)
	newID := strconv.FormatInt(int64(created["id"].(float64)), 10)

	resp = s.do(t, http.MethodGet, "/users", plain, nil, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(t, http.MethodGet, "/users?limit=5", admin, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Data []map[string]any `json:"data"`
		Meta struct {
			Total int `json:"total"`
			Limit int `json:"limit"`
		} `json:"meta"`
	}
	decode(t, resp, &list)
	assert.Equal(t, 2, list.Meta.Total)
	assert.Equal(t, 5, list.Meta.Limit)
	for _, u := range list.Data {
		assert.Equal(t, "user", u["role"])
	}

	resp = s.do(t, http.MethodDelete, "/users/admin/"+newID, admin, nil, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(t, http.MethodPost, "/users/admin/"+newID+"/restore", admin, nil, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "restaurar es solo de super admin")
	resp.Body.Close()

	resp = s.do(t, http.MethodPost, "/users/admin/"+newID+"/restore", root, nil, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestUsers_IDInvalido(t *testing.T) {
	s := newServer(t)
	_, admin := s.user(t, "admin@x.com", entity.RoleAdmin)
	resp := s.do(t, http.MethodDelete, "/users/admin/abc", admin, nil, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Companies
// ──────────────────────────────────────────────────────────────────────────────

func TestCompanies_CrearLeerYPropiedad(t *testing.T) {
	s := newServer(t)
	ownerID, owner := s.user(t, "owner@x.com", entity.RoleUser)
	_, other := s.user(t, "other@x.com", entity.RoleUser)
	_, admin := s.user(t, "admin@x.com", entity.RoleAdmin)

	resp := s.json(t, http.MethodPost, "/companies", owner, map[string]any{
		"name": "ACME", "service": "Anvils", "capital": 1500.5, "price": "99.99",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created map[string]any
	decode(t, resp, &created)
	assert.Equal(t, float64(ownerID), created["userId"])
	path := "/companies/company/" + strconv.FormatInt(int64(created["id"].(float64)), 10)

	resp = s.do(t, http.MethodGet, path, owner, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got map[string]any
	decode(t, resp, &got)
	assert.Equal(t, "ACME", got["name"])
	assert.Equal(t, "99.99", got["price"])

	resp = s.do(t, http.MethodGet, path, other, nil, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = s.json(t, http.MethodPatch, path, other, map[string]any{"name": "Mine"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(t, http.MethodGet, "/companies", owner, nil, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "user solo lista las propias")
	resp.Body.Close()

	resp = s.do(t, http.MethodGet, "/companies/user", owner, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(t, http.MethodGet, "/companies?name=DESC", admin, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(t, http.MethodGet, "/companies/company/999", owner, nil, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCompanies_UpdateSinCampos(t *testing.T) {
	s := newServer(t)
	ownerID, owner := s.user(t, "owner@x.com", entity.RoleUser)
	c := s.store.PutCompany(entity.Company{Name: "ACME", Service: "Anvils", UserID: ownerID})

	resp := s.json(t, http.MethodPatch, "/companies/company/"+strconv.FormatInt(c.ID, 10), owner, map[string]any{})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCompanies_UpdateMultipartConLogo(t *testing.T) {
	s := newServer(t)
	ownerID, owner := s.user(t, "owner@x.com", entity.RoleUser)
	c := s.store.PutCompany(entity.Company{Name: "ACME", Service: "Anvils", UserID: ownerID})

	body, ct := imageForm(t, "logo", "image/png", 10, map[string]string{"capital": "2500"})
	resp := s.do(t, http.MethodPatch, "/companies/company/"+strconv.FormatInt(c.ID, 10), owner, body, ct)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got map[string]any
	decode(t, resp, &got)
	assert.Equal(t, "2500", got["capital"])
	assert.NotNil(t, got["logo"])
	assert.Equal(t, 1, s.media.Count())
}

// ──────────────────────────────────────────────────────────────────────────────
// Logs
// ──────────────────────────────────────────────────────────────────────────────

func TestLogs_SoloSuperAdmin(t *testing.T) {
	s := newServer(t)
	_, admin := s.user(t, "admin@x.com", entity.RoleAdmin)
	_, root := s.user(t, "root@x.com", entity.RoleSuperAdmin)

	resp := s.json(t, http.MethodPost, "/users/admin", admin, map[string]string{"email": "new@x.com", "password": "Password1!"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(t, http.MethodGet, "/logs", admin, nil, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(t, http.MethodGet, "/logs?action=CREATE", root, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Data []map[string]any `json:"data"`
	}
	decode(t, resp, &list)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "CREATE", list.Data[0]["action"])
	assert.Equal(t, "User", list.Data[0]["entityName"])

	resp = s.do(t, http.MethodGet, "/logs?action=PURGE", root, nil, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogs_LiveSobreviveAlWriteTimeout(t *testing.T) {
	const writeTimeout = 200 * time.Millisecond
	s := newServerWith(t,
		apphttp.AppConfig{Name: "test", BodyLimit: 1 << 20, WriteTimeout: writeTimeout},
		apphttp.LiveConfig{Heartbeat: 150 * time.Millisecond, WriteTimeout: writeTimeout},
	)
	_, root := s.user(t, "root@x.com", entity.RoleSuperAdmin)
	base := s.listen(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/logs/live", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", root)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	next := func() string {
		t.Helper()
		for {
			line, err := r.ReadString('\n')
			require.NoError(t, err, "el flujo se cortó")
			if line = strings.TrimSpace(line); line != "" {
				return line
			}
		}
	}

	assert.Equal(t, ": connected", next())
	start := time.Now()
	pings := 0
	for time.Since(start) < 3*writeTimeout {
		require.Equal(t, ": ping", next())
		pings++
	}
	assert.GreaterOrEqual(t, pings, 2)

	// Una entrada publicada después del plazo original también llega.
	require.NoError(t, s.live.Publish(ctx, &entity.ActionLog{ID: 7, Action: entity.ActionCreate, UserID: 1}))
	for line := next(); line != "event: log"; line = next() {
		assert.Contains(t, []string{": ping", "id: 7"}, line)
	}
	data := next()
	require.True(t, strings.HasPrefix(data, "data: "), data)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(data, "data: ")), &got))
	assert.EqualValues(t, 7, got["id"])
	assert.Equal(t, "CREATE", got["action"])
}
