package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crucial707/hci-todo/internal/auth"
	"github.com/crucial707/hci-todo/internal/config"
	"github.com/crucial707/hci-todo/internal/models"
	"github.com/crucial707/hci-todo/internal/repo"
	"github.com/crucial707/hci-todo/internal/session"
)

func testConfig() config.Config {
	return config.Config{
		Env:               "dev",
		SessionSecret:     "test-secret-for-integration",
		SessionCookieName: "todo_session",
		SessionTTLHours:   1,
		Storage:           config.StorageMemory,
		AuthRatePerMinute: 6000,
		AuthRateBurst:     100,
		MaxBodyBytes:      1 << 20,
	}
}

func testDeps(cfg config.Config) deps {
	return deps{
		Cfg:   cfg,
		Users: repo.NewMemoryUserRepo(),
		Todos: repo.NewMemoryTodoRepo(),
		Passwords: &auth.Hasher{
			Kind:  auth.KindArgon2id,
			Argon: auth.ArgonParams{Memory: 1024, Time: 1, Threads: 1, SaltLen: 16, KeyLen: 32},
		},
		Sessions: session.NewManager(session.Options{
			Secret:     []byte(cfg.SessionSecret),
			CookieName: cfg.SessionCookieName,
			TTL:        cfg.SessionTTL(),
		}),
	}
}

// newTestServer starts the full router over memory stores.
func newTestServer(t *testing.T) (*httptest.Server, deps) {
	t.Helper()
	d := testDeps(testConfig())
	srv := httptest.NewServer(newRouter(d))
	t.Cleanup(srv.Close)
	return srv, d
}

// newClient returns a client with its own cookie jar.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}
}

func doJSON(t *testing.T, c *http.Client, method, url string, body interface{}) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("%s %s: got %d, want %d (body %s)",
			resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, want, b)
	}
}

func creds(username, password string) map[string]string {
	return map[string]string{"username": username, "password": password}
}

// TestAPI_RegisterLoginTodoLifecycle walks register, login, create, get, delete, get.
func TestAPI_RegisterLoginTodoLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newClient(t)

	expectStatus(t, doJSON(t, c, "POST", srv.URL+"/auth/register", creds("alice", "pw1")), http.StatusCreated)

	login := doJSON(t, c, "POST", srv.URL+"/auth/login", creds("alice", "pw1"))
	expectStatus(t, login, http.StatusOK)
	if len(login.Cookies()) == 0 {
		t.Fatal("login did not set a session cookie")
	}
	var profile models.UserResponse
	if err := json.NewDecoder(login.Body).Decode(&profile); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if profile.Username != "alice" || profile.Role != models.RoleUser {
		t.Errorf("unexpected profile: %+v", profile)
	}

	created := doJSON(t, c, "POST", srv.URL+"/todoitems", map[string]interface{}{"name": "buy milk", "isComplete": false})
	expectStatus(t, created, http.StatusCreated)
	var todo models.Todo
	if err := json.NewDecoder(created.Body).Decode(&todo); err != nil {
		t.Fatalf("decode todo: %v", err)
	}
	if todo.ID < 1 {
		t.Fatalf("todo id not assigned: %+v", todo)
	}
	itemURL := srv.URL + "/todoitems/" + strconv.Itoa(todo.ID)

	got := doJSON(t, c, "GET", itemURL, nil)
	expectStatus(t, got, http.StatusOK)
	var fetched models.Todo
	_ = json.NewDecoder(got.Body).Decode(&fetched)
	if fetched != todo {
		t.Errorf("GET returned %+v, want %+v", fetched, todo)
	}

	expectStatus(t, doJSON(t, c, "DELETE", itemURL, nil), http.StatusNoContent)
	expectStatus(t, doJSON(t, c, "GET", itemURL, nil), http.StatusNotFound)
}

func TestAPI_TasksAlias(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newClient(t)

	reg := doJSON(t, c, "POST", srv.URL+"/tasks/register", creds("bob", "pw"))
	expectStatus(t, reg, http.StatusCreated)
	if loc := reg.Header.Get("Location"); loc != "/tasks/1" {
		t.Errorf("Location: got %q, want /tasks/1", loc)
	}
	expectStatus(t, doJSON(t, c, "POST", srv.URL+"/auth/register", creds("BOB", "pw")), http.StatusConflict)
	expectStatus(t, doJSON(t, c, "POST", srv.URL+"/tasks/login", creds("bob", "pw")), http.StatusOK)
	expectStatus(t, doJSON(t, c, "GET", srv.URL+"/auth/me", nil), http.StatusOK)
	expectStatus(t, doJSON(t, c, "POST", srv.URL+"/tasks/logout", nil), http.StatusOK)
}

func TestAPI_TodosRequireSession(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newClient(t)

	cases := []struct {
		method, path string
		body         interface{}
	}{
		{"GET", "/todoitems", nil},
		{"GET", "/todoitems/1", nil},
		{"POST", "/todoitems", map[string]string{"name": "x"}},
		{"PUT", "/todoitems/1", map[string]string{"name": "x"}},
		{"DELETE", "/todoitems/1", nil},
		{"GET", "/auth/me", nil},
	}
	for _, tc := range cases {
		resp := doJSON(t, c, tc.method, srv.URL+tc.path, tc.body)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("%s %s without session: got %d, want 401", tc.method, tc.path, resp.StatusCode)
		}
	}
}

func TestAPI_LogoutRevokesSession(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newClient(t)

	expectStatus(t, doJSON(t, c, "POST", srv.URL+"/auth/register", creds("carol", "pw")), http.StatusCreated)
	login := doJSON(t, c, "POST", srv.URL+"/auth/login", creds("carol", "pw"))
	expectStatus(t, login, http.StatusOK)

	var stolen *http.Cookie
	for _, ck := range login.Cookies() {
		if ck.Name == "todo_session" {
			stolen = ck
		}
	}
	if stolen == nil {
		t.Fatal("no session cookie")
	}

	expectStatus(t, doJSON(t, c, "GET", srv.URL+"/todoitems", nil), http.StatusOK)
	expectStatus(t, doJSON(t, c, "POST", srv.URL+"/auth/logout", nil), http.StatusOK)
	expectStatus(t, doJSON(t, c, "GET", srv.URL+"/todoitems", nil), http.StatusUnauthorized)

	// replaying the old cookie after logout is rejected too
	req, _ := http.NewRequest("GET", srv.URL+"/todoitems", nil)
	req.AddCookie(stolen)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("replayed cookie: got %d, want 401", resp.StatusCode)
	}

	// logging out without a session still succeeds
	expectStatus(t, doJSON(t, newClient(t), "POST", srv.URL+"/auth/logout", nil), http.StatusOK)
}

func TestAPI_AdminOnlyUsers(t *testing.T) {
	srv, d := newTestServer(t)

	hash, err := d.Passwords.Hash("root-pw")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if _, err := d.Users.Create(context.Background(), "root", hash, models.RoleAdmin); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	user := newClient(t)
	expectStatus(t, doJSON(t, user, "POST", srv.URL+"/auth/register", creds("dave", "pw")), http.StatusCreated)
	expectStatus(t, doJSON(t, user, "POST", srv.URL+"/auth/login", creds("dave", "pw")), http.StatusOK)
	expectStatus(t, doJSON(t, user, "GET", srv.URL+"/auth/users", nil), http.StatusForbidden)

	admin := newClient(t)
	expectStatus(t, doJSON(t, admin, "POST", srv.URL+"/auth/login", creds("root", "root-pw")), http.StatusOK)
	resp := doJSON(t, admin, "GET", srv.URL+"/auth/users", nil)
	expectStatus(t, resp, http.StatusOK)
	var users []models.UserResponse
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		t.Fatalf("decode users: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("got %d users, want 2", len(users))
	}
}

func TestAPI_RootHealthAndNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	c := newClient(t)

	resp := doJSON(t, c, "GET", srv.URL+"/", nil)
	expectStatus(t, resp, http.StatusOK)
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "Hello World!" {
		t.Errorf("GET /: got %q", body)
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}

	expectStatus(t, doJSON(t, c, "GET", srv.URL+"/health", nil), http.StatusOK)
	expectStatus(t, doJSON(t, c, "GET", srv.URL+"/ready", nil), http.StatusOK)
	expectStatus(t, doJSON(t, c, "GET", srv.URL+"/metrics", nil), http.StatusOK)

	nf := doJSON(t, c, "GET", srv.URL+"/todoitems/abc", nil)
	expectStatus(t, nf, http.StatusNotFound)
	if !strings.HasPrefix(nf.Header.Get("Content-Type"), "application/json") {
		t.Errorf("404 should be JSON, got %q", nf.Header.Get("Content-Type"))
	}
}

// TestAPI_PostgresReady builds the router with a sqlmock-backed DB to exercise the readiness check.
func TestAPI_PostgresReady(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(context.DeadlineExceeded)

	d := testDeps(testConfig())
	d.Users = repo.NewUserRepo(db)
	d.Todos = repo.NewTodoRepo(db)
	d.DB = db
	srv := httptest.NewServer(newRouter(d))
	defer srv.Close()

	c := newClient(t)
	expectStatus(t, doJSON(t, c, "GET", srv.URL+"/ready", nil), http.StatusOK)
	expectStatus(t, doJSON(t, c, "GET", srv.URL+"/ready", nil), http.StatusServiceUnavailable)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestSeedAdmin(t *testing.T) {
	d := testDeps(testConfig())
	cfg := d.Cfg
	cfg.AdminUsername = "admin"
	cfg.AdminPassword = "secret"

	for i := 0; i < 2; i++ {
		if err := seedAdmin(context.Background(), d.Users, d.Passwords, cfg); err != nil {
			t.Fatalf("seedAdmin run %d: %v", i+1, err)
		}
	}
	u, err := d.Users.GetByUsername(context.Background(), "ADMIN")
	if err != nil {
		t.Fatalf("admin not created: %v", err)
	}
	if u.Role != models.RoleAdmin {
		t.Errorf("role: got %q, want Admin", u.Role)
	}
	if err := d.Passwords.Verify(u.PasswordHash, "secret"); err != nil {
		t.Errorf("admin password does not verify: %v", err)
	}
}

func loginStatuses(t *testing.T, srv *httptest.Server, n int, header string) []int {
	t.Helper()
	codes := make([]int, 0, n)
	for i := 0; i < n; i++ {
		req, _ := http.NewRequest("POST", srv.URL+"/auth/login", strings.NewReader(`{"username":"x","password":"y"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(header, "203.0.113."+strconv.Itoa(i+1))
		resp, err := srv.Client().Do(req)
		if err != nil {
			t.Fatalf("login %d: %v", i, err)
		}
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	return codes
}

func TestAPI_LoginRateLimitIgnoresSpoofedForwardHeaders(t *testing.T) {
	cfg := testConfig()
	cfg.AuthRatePerMinute = 1
	cfg.AuthRateBurst = 1
	srv := httptest.NewServer(newRouter(testDeps(cfg)))
	defer srv.Close()

	for _, header := range []string{"X-Forwarded-For", "X-Real-IP"} {
		t.Run(header, func(t *testing.T) {
			codes := loginStatuses(t, srv, 5, header)
			limited := 0
			for _, c := range codes {
				if c == http.StatusTooManyRequests {
					limited++
				}
			}
			if limited == 0 {
				t.Errorf("a fresh %s per request bypassed the limiter: %v", header, codes)
			}
		})
	}
}

func TestAPI_LoginRateLimitTrustsProxyWhenEnabled(t *testing.T) {
	cfg := testConfig()
	cfg.AuthRatePerMinute = 1
	cfg.AuthRateBurst = 1
	cfg.TrustProxyHeaders = true
	srv := httptest.NewServer(newRouter(testDeps(cfg)))
	defer srv.Close()

	// behind a trusted proxy each forwarded client gets its own bucket
	for i, c := range loginStatuses(t, srv, 3, "X-Forwarded-For") {
		if c != http.StatusUnauthorized {
			t.Errorf("request %d: got %d, want 401", i, c)
		}
	}
}
