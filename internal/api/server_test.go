package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinebook/internal/config"
	"cinebook/internal/external"
	"cinebook/internal/external/upstreamtest"
	"cinebook/internal/models"
	"cinebook/internal/session"
)

const cookieName = "cinebook_session"

type recordingPublisher struct {
	mu       sync.Mutex
	messages []models.SessionEventMessage
}

func (p *recordingPublisher) PublishAsync(subject string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if subject == models.SubjectSessionEvents {
		p.messages = append(p.messages, data.(models.SessionEventMessage))
	}
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, m := range p.messages {
		out = append(out, m.Type)
	}
	return out
}

type testServer struct {
	handler   http.Handler
	upstream  *upstreamtest.Server
	redis     *miniredis.Miniredis
	publisher *recordingPublisher
}

func setupServer(t *testing.T) *testServer {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	up := upstreamtest.New(t)
	pub := &recordingPublisher{}

	cfg := &config.Config{
		Port:           "0",
		GinMode:        gin.TestMode,
		RequestTimeout: 10 * time.Second,
		AllowedOrigins: []string{"http://localhost:3000"},
		VisitTTL:       15 * time.Minute,
		CatalogTTL:     time.Minute,
		NewsFile:       filepath.Join(t.TempDir(), "news.yaml"),
		Upstream: external.MovieAPIConfig{
			BaseURL:        up.URL,
			CybersoftToken: upstreamtest.CybersoftToken,
			Group:          upstreamtest.Group,
			Timeout:        5 * time.Second,
		},
		Session: session.Config{Secret: "test-secret", TTL: time.Hour, CookieName: cookieName},
	}

	s, err := New(cfg, rdb, pub)
	require.NoError(t, err)
	t.Cleanup(func() { s.Cleanup() })

	return &testServer{handler: s.GetRouter(), upstream: up, redis: mr, publisher: pub}
}

func (ts *testServer) do(t *testing.T, method, path, cookie string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: cookie})
	}

	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func (ts *testServer) login(t *testing.T, path, account, password string) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, path, "", models.LoginRequest{Account: account, Password: password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			assert.True(t, c.HttpOnly)
			return c.Value
		}
	}
	t.Fatal("no session cookie set")
	return ""
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestBookingEndToEnd(t *testing.T) {
	ts := setupServer(t)
	cookie := ts.login(t, "/login", upstreamtest.CustomerAccount, upstreamtest.CustomerPassword)
	path := "/dat-ve/44011"

	w := ts.do(t, http.MethodGet, path, cookie, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := decode(t, w)
	assert.Equal(t, "ready", view["phase"])
	assert.Len(t, view["seats"], 4)

	w = ts.do(t, http.MethodPost, path+"/submit", cookie, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, path+"/toggle", cookie, models.ToggleSeatRequest{SeatID: 103})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view = decode(t, w)
	assert.EqualValues(t, 90000, view["total"])
	assert.Equal(t, true, view["can_submit"])

	w = ts.do(t, http.MethodPost, path+"/submit", cookie, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view = decode(t, w)
	assert.Equal(t, "success", view["phase"])
	assert.EqualValues(t, 0, view["total"])
	assert.Empty(t, view["selected"])

	st, ok := ts.upstream.Showtime(upstreamtest.VIPShowtimeID)
	require.True(t, ok)
	assert.True(t, st.Seats[2].DaDat)

	w = ts.do(t, http.MethodGet, "/profile", cookie, nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode(t, w)
	assert.Len(t, profile["tickets"], 1)
	assert.NotContains(t, w.Body.String(), upstreamtest.CustomerPassword)
}

func TestSubmitFailureReturnsVisit(t *testing.T) {
	ts := setupServer(t)
	cookie := ts.login(t, "/login", upstreamtest.CustomerAccount, upstreamtest.CustomerPassword)

	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/dat-ve/44010", cookie, nil).Code)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/dat-ve/44010/toggle", cookie, models.ToggleSeatRequest{SeatID: 1}).Code)

	ts.upstream.Fail("QuanLyDatVe/DatVe", http.StatusInternalServerError, "Lỗi máy chủ")
	w := ts.do(t, http.MethodPost, "/dat-ve/44010/submit", cookie, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	body := decode(t, w)
	assert.Equal(t, "Lỗi máy chủ", body["error"])
	assert.Equal(t, "upstream", body["kind"])
	visit := body["visit"].(map[string]any)
	assert.Equal(t, "failed", visit["phase"])
	assert.Len(t, visit["selected"], 1)
	assert.NotContains(t, body, "dialog")
}

func TestGuards(t *testing.T) {
	ts := setupServer(t)
	customer := ts.login(t, "/login", upstreamtest.CustomerAccount, upstreamtest.CustomerPassword)

	tests := []struct {
		name     string
		method   string
		path     string
		cookie   string
		location string
	}{
		{"booking anonymous", http.MethodGet, "/dat-ve/44010", "", "/login"},
		{"profile anonymous", http.MethodGet, "/profile", "", "/login"},
		{"admin anonymous", http.MethodGet, "/admin", "", "/admin/login"},
		{"admin films customer", http.MethodGet, "/admin/films", customer, "/admin/login"},
		{"admin delete customer", http.MethodDelete, "/admin/films/1", customer, "/admin/login"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, tt.method, tt.path, tt.cookie, nil)
			assert.Equal(t, http.StatusFound, w.Code)
			assert.Equal(t, tt.location, w.Header().Get("Location"))
		})
	}

	assert.Len(t, ts.upstream.Movies(), 3)
}

func TestAdminLoginRejectsCustomer(t *testing.T) {
	ts := setupServer(t)

	w := ts.do(t, http.MethodPost, "/admin/login", "", models.LoginRequest{
		Account: upstreamtest.CustomerAccount, Password: upstreamtest.CustomerPassword,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	body := decode(t, w)
	assert.Equal(t, "forbidden", body["kind"])
	assert.Equal(t, true, body["dialog"])
	assert.Empty(t, w.Result().Cookies())

	w = ts.do(t, http.MethodPost, "/login", "", models.LoginRequest{Account: upstreamtest.CustomerAccount, Password: "wrong"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Tài khoản hoặc mật khẩu không đúng!", decode(t, w)["error"])
}

func TestExpiredTokenEndsSession(t *testing.T) {
	ts := setupServer(t)
	cookie := ts.login(t, "/login", upstreamtest.CustomerAccount, upstreamtest.CustomerPassword)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/dat-ve/44010", cookie, nil).Code)

	ts.upstream.ExpireTokens()

	w := ts.do(t, http.MethodGet, "/profile", cookie, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	body := decode(t, w)
	assert.Equal(t, "/login", body["redirect"])
	assert.Equal(t, "unauthorized", body["kind"])

	assert.Empty(t, ts.redis.Keys(), "session and visits are gone")

	w = ts.do(t, http.MethodGet, "/profile", cookie, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, []string{"login", "token_expired"}, ts.publisher.types())
}

func TestLogout(t *testing.T) {
	ts := setupServer(t)
	cookie := ts.login(t, "/login", upstreamtest.CustomerAccount, upstreamtest.CustomerPassword)

	w := ts.do(t, http.MethodPost, "/logout", cookie, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/profile", cookie, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, []string{"login", "logout"}, ts.publisher.types())
}

func TestLoginReplacesCurrentSession(t *testing.T) {
	ts := setupServer(t)
	old := ts.login(t, "/login", upstreamtest.CustomerAccount, upstreamtest.CustomerPassword)

	w := ts.do(t, http.MethodPost, "/login", old, models.LoginRequest{Account: upstreamtest.CustomerAccount, Password: upstreamtest.CustomerPassword})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var fresh string
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			fresh = c.Value
		}
	}
	require.NotEmpty(t, fresh)
	assert.NotEqual(t, old, fresh)

	w = ts.do(t, http.MethodGet, "/profile", old, nil)
	assert.Equal(t, http.StatusFound, w.Code)
	w = ts.do(t, http.MethodGet, "/profile", fresh, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"login", "logout", "login"}, ts.publisher.types())
}

func TestPublicPages(t *testing.T) {
	ts := setupServer(t)

	w := ts.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	home := decode(t, w)
	assert.Equal(t, "success", home["movies"].(map[string]any)["state"])

	w = ts.do(t, http.MethodGet, "/list-movie?status=coming_soon", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)
	assert.EqualValues(t, 1, list["total_items"])

	w = ts.do(t, http.MethodGet, "/list-movie?status=bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, "/movie/1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"booking_link":"/dat-ve/44010"`)

	w = ts.do(t, http.MethodGet, "/movie/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodGet, "/cinemas", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, upstreamtest.SystemID, decode(t, w)["selected_system"])

	w = ts.do(t, http.MethodGet, "/news", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["total_items"])

	w = ts.do(t, http.MethodGet, "/news/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpstreamDownOnHome(t *testing.T) {
	ts := setupServer(t)
	ts.upstream.Close()

	w := ts.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	home := decode(t, w)
	movies := home["movies"].(map[string]any)
	assert.Equal(t, "failed", movies["state"])
	assert.Equal(t, "Could not reach the server, please check your connection", movies["error"])

	w = ts.do(t, http.MethodGet, "/list-movie", "", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "network", decode(t, w)["kind"])
}

func TestTheme(t *testing.T) {
	ts := setupServer(t)

	w := ts.do(t, http.MethodGet, "/theme", "", nil)
	assert.Equal(t, "light", decode(t, w)["theme"])

	w = ts.do(t, http.MethodPut, "/theme", "", models.ThemeRequest{Theme: "dark"})
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)

	req := httptest.NewRequest(http.MethodGet, "/theme", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	assert.Equal(t, "dark", decode(t, w)["theme"])

	w = ts.do(t, http.MethodPut, "/theme", "", models.ThemeRequest{Theme: "blue"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminFilmsFlow(t *testing.T) {
	ts := setupServer(t)
	admin := ts.login(t, "/admin/login", upstreamtest.AdminAccount, upstreamtest.AdminPassword)

	w := ts.do(t, http.MethodGet, "/admin", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	dash := decode(t, w)
	assert.EqualValues(t, 3, dash["movies"].(map[string]any)["data"].(map[string]any)["total"])
	assert.Equal(t, "success", dash["sessions"].(map[string]any)["state"])

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "Inside Out 2"))
	require.NoError(t, mw.WriteField("release_date", "2024-06-14"))
	require.NoError(t, mw.WriteField("rating", "8"))
	require.NoError(t, mw.WriteField("now_showing", "true"))
	fw, err := mw.CreateFormFile("poster", "poster.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/films/addnew", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: cookieName, Value: admin})
	w = httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	uploads := ts.upstream.Uploads()
	require.Len(t, uploads, 1)
	assert.Equal(t, "poster.png", uploads[0].Filename)

	w = ts.do(t, http.MethodGet, "/admin/films?q=inside", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total_items"])

	w = ts.do(t, http.MethodGet, "/admin/films/edit/999", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, true, decode(t, w)["dialog"])

	w = ts.do(t, http.MethodDelete, "/admin/films/2", admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Len(t, ts.upstream.Movies(), 3)
}

func TestAdminUsersFlow(t *testing.T) {
	ts := setupServer(t)
	admin := ts.login(t, "/admin/login", upstreamtest.AdminAccount, upstreamtest.AdminPassword)

	w := ts.do(t, http.MethodGet, "/admin/users/edit/"+upstreamtest.CustomerAccount, admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.PasswordPlaceholder, decode(t, w)["password"])

	w = ts.do(t, http.MethodPut, "/admin/users/edit/"+upstreamtest.CustomerAccount, admin, models.UserInput{
		Account: upstreamtest.CustomerAccount, Name: "Khách Đổi Tên", Email: "khach@cinebook.vn",
		Role: models.RoleCustomer, Password: models.PasswordPlaceholder,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	u, ok := ts.upstream.User(upstreamtest.CustomerAccount)
	require.True(t, ok)
	assert.Equal(t, "Khách Đổi Tên", u.HoTen)
	assert.Equal(t, upstreamtest.CustomerPassword, u.MatKhau)

	w = ts.do(t, http.MethodPost, "/admin/add-user", admin, models.UserInput{
		Account: "khach02", Name: "Khách Hai", Email: "k2@cinebook.vn", Role: models.RoleCustomer,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Password is required", decode(t, w)["error"])

	w = ts.do(t, http.MethodDelete, "/admin/users/"+upstreamtest.CustomerAccount, admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodGet, "/admin/users", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total_items"])
}

func TestHealthAndMetrics(t *testing.T) {
	ts := setupServer(t)

	w := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	ts.login(t, "/login", upstreamtest.CustomerAccount, upstreamtest.CustomerPassword)
	ts.do(t, http.MethodGet, "/list-movie", "", nil)
	ts.do(t, http.MethodGet, "/list-movie", "", nil)

	w = ts.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `cinebook_http_requests_total{method="GET",route="/list-movie",status="200"} 2`), body)
	assert.Contains(t, body, `cinebook_upstream_requests_total{endpoint="QuanLyNguoiDung/DangNhap",status="200"} 1`)
	assert.Contains(t, body, `cinebook_catalog_cache_lookups_total{key="movies",result="hit"} 1`)
	assert.Contains(t, body, "cinebook_active_sessions 1")
}
