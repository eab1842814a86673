package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibliotek-ia/bibliotek/internal/analysis"
	"github.com/bibliotek-ia/bibliotek/internal/auth"
	"github.com/bibliotek-ia/bibliotek/internal/catalog"
	"github.com/bibliotek-ia/bibliotek/internal/models"
	"github.com/bibliotek-ia/bibliotek/internal/stats"
	"github.com/bibliotek-ia/bibliotek/internal/storage"
)

const testSecret = "handlers-test-secret-that-is-long-enough"

type fakeAnalyzer struct {
	resp       *models.RecommendationResponse
	err        error
	comparison string
	got        models.AnalyzeRequest
}

func (f *fakeAnalyzer) Analyze(_ context.Context, req models.AnalyzeRequest) (*models.RecommendationResponse, error) {
	f.got = req
	return f.resp, f.err
}

func (f *fakeAnalyzer) Compare(_ context.Context, a, b models.Book) (string, error) {
	return f.comparison, f.err
}

type fakeCatalog struct {
	results []models.Book
}

func (f *fakeCatalog) Search(_ context.Context, q string) ([]models.Book, error) {
	if strings.TrimSpace(q) == "" {
		return nil, catalog.ErrEmptyQuery
	}
	return f.results, nil
}

func (f *fakeCatalog) Cover(_ context.Context, title, _ string) string {
	return catalog.PlaceholderCover(title)
}

type testServer struct {
	t        *testing.T
	handler  http.Handler
	store    *storage.Store
	analyzer *fakeAnalyzer
	catalog  *fakeCatalog
}

func newTestServer(t *testing.T, opts RouterOptions) *testServer {
	t.Helper()
	return newTestServerWith(t, opts, nil)
}

// newTestServerWith serves analyzer instead of the fake when it is not nil
func newTestServerWith(t *testing.T, opts RouterOptions, analyzer analysis.Analyzer) *testServer {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tokens, err := auth.NewJWTManager(testSecret, time.Hour)
	require.NoError(t, err)

	ts := &testServer{
		t:        t,
		store:    store,
		analyzer: &fakeAnalyzer{},
		catalog:  &fakeCatalog{},
	}
	if analyzer == nil {
		analyzer = ts.analyzer
	}
	h := New(Deps{
		Auth:           auth.NewService(store, tokens),
		Store:          store,
		Analyzer:       analyzer,
		Catalog:        ts.catalog,
		Stats:          stats.NewService(store),
		MaxUploadBytes: 4096,
	})
	if opts.CORSOrigins == nil {
		opts.CORSOrigins = []string{"*"}
	}
	ts.handler = h.Router(auth.NewMiddleware(tokens, store), opts)
	return ts
}

func (ts *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(ts.t, err)
		r = strings.NewReader(string(raw))
	}

	req := httptest.NewRequest(method, path, r)
	req.RemoteAddr = "192.0.2.1:1234"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

// register creates an account and returns its token
func (ts *testServer) register(email string) string {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
		Name: "Leitor", Email: email, Password: "segredo",
	})
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())

	var sess models.Session
	decodeBody(ts.t, rec, &sess)
	return sess.Token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &body)
	return body.Error
}

func TestHealthcheck(t *testing.T) {
	ts := newTestServer(t, RouterOptions{})
	rec := ts.do(http.MethodGet, "/healthcheck", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, RouterOptions{})
	ts.do(http.MethodGet, "/api/genres", "", nil)

	rec := ts.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bibliotek_http_requests_total")
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t, RouterOptions{})
	token := ts.register("ana@example.com")
	assert.NotEmpty(t, token)

	rec := ts.do(http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
		Name: "Outra", Email: "ANA@example.com", Password: "segredo",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email already registered", errorOf(t, rec))

	rec = ts.do(http.MethodPost, "/api/auth/register", "", `{"name":"Ana","email":"nope","password":"123"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "details")

	rec = ts.do(http.MethodPost, "/api/auth/login", "", models.LoginRequest{Email: "ana@example.com", Password: "errada"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", errorOf(t, rec))

	rec = ts.do(http.MethodPost, "/api/auth/login", "", models.LoginRequest{Email: "ana@example.com", Password: "segredo"})
	require.Equal(t, http.StatusOK, rec.Code)
	var sess models.Session
	decodeBody(t, rec, &sess)
	assert.Equal(t, models.RoleUser, sess.User.Role)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = ts.do(http.MethodGet, "/api/auth/me", sess.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me models.User
	decodeBody(t, rec, &me)
	assert.Equal(t, "ana@example.com", me.Email)
}

func TestRegisterIgnoresRole(t *testing.T) {
	ts := newTestServer(t, RouterOptions{})
	rec := ts.do(http.MethodPost, "/api/auth/register", "",
		`{"name":"Eva","email":"eva@example.com","password":"segredo","role":"admin"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var sess models.Session
	decodeBody(t, rec, &sess)
	assert.Equal(t, models.RoleUser, sess.User.Role)
}

func TestBadJSON(t *testing.T) {
	ts := newTestServer(t, RouterOptions{})
	rec := ts.do(http.MethodPost, "/api/auth/login", "", "{oops")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorOf(t, rec), "invalid JSON")

	rec = ts.do(http.MethodPost, "/api/auth/login", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(t, RouterOptions{})
	rec := ts.do(http.MethodPatch, "/api/genres", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "method not allowed", errorOf(t, rec))
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, RouterOptions{CORSOrigins: []string{"https://bibliotek.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/books", nil)
	req.Header.Set("Origin", "https://bibliotek.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	assert.Equal(t, "https://bibliotek.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
}

func TestLoginRateLimit(t *testing.T) {
	ts := newTestServer(t, RouterOptions{LoginRateLimit: 2})
	creds := models.LoginRequest{Email: "x@example.com", Password: "segredo"}

	for range 2 {
		rec := ts.do(http.MethodPost, "/api/auth/login", "", creds)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
	rec := ts.do(http.MethodPost, "/api/auth/login", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "too many requests", errorOf(t, rec))

	// Other routes keep their own budget
	rec = ts.do(http.MethodGet, "/api/genres", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGenres(t *testing.T) {
	ts := newTestServer(t, RouterOptions{})
	rec := ts.do(http.MethodGet, "/api/genres", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list []string
	decodeBody(t, rec, &list)
	require.NotEmpty(t, list)
	assert.Equal(t, "Todos", list[0])
	assert.Contains(t, list, "Ficção Científica")
}

func TestStaticFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>bibliotek</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))
	ts := newTestServer(t, RouterOptions{StaticDir: dir})

	rec := ts.do(http.MethodGet, "/app.js", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/javascript", rec.Header().Get("Content-Type"))

	rec = ts.do(http.MethodGet, "/biblioteca/favoritos", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bibliotek")

	rec = ts.do(http.MethodGet, "/api/nothing-here", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

var _ analysis.Analyzer = (*fakeAnalyzer)(nil)
