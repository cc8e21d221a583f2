package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"

	"shopfront/internal/blob"
	"shopfront/internal/cache"
	"shopfront/internal/config"
	"shopfront/internal/http/handlers"
	"shopfront/internal/repos"
	"shopfront/internal/services"
)

const (
	adminEmail    = "admin@shop.test"
	adminPassword = "Adm1n!pass"
)

type testApp struct {
	app  *fiber.App
	db   *sqlx.DB
	cfg  config.Config
	auth *services.AuthService
}

// newTestApp wires the real routes the way main does, on an in-memory
// database with temp media and staging dirs.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := config.Config{
		DBDSN:         ":memory:",
		MediaDir:      t.TempDir(),
		StagingDir:    t.TempDir(),
		BusinessID:    "default",
		PublicBaseURL: "http://shop.test",
	}
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := repos.SeedCatalog(db, cfg.BusinessID); err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	if err := repos.SeedAdmin(db, adminEmail, adminPassword); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	authSvc := services.NewAuthService(repos.NewUserRepo(db))
	deps := handlers.NewDeps(db, cfg, cache.NewMemoryCache(), blob.NewFSStore(cfg.MediaDir, cfg.PublicBaseURL))

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine, BodyLimit: 4 << 20})
	app.Use(requestid.New())
	app.Use(handlers.SessionID(false))
	app.Use(handlers.CurrentUser(authSvc))
	app.Use(csrf.New(csrf.Config{Extractor: handlers.CSRFToken, CookieName: "csrf_", CookieSameSite: "Lax"}))
	app.Use(handlers.CartSummary(deps.Cart))
	app.Get("/media/*", handlers.Media(cfg.MediaDir))
	handlers.Mount(app, deps, authSvc)
	return &testApp{app: app, db: db, cfg: cfg, auth: authSvc}
}

// browser keeps cookies between requests and sends the csrf header.
type browser struct {
	t       *testing.T
	ta      *testApp
	cookies map[string]string
}

func (ta *testApp) browser(t *testing.T) *browser {
	b := &browser{t: t, ta: ta, cookies: map[string]string{}}
	b.get("/login")
	if b.cookies["csrf_"] == "" {
		t.Fatal("csrf token missing")
	}
	return b
}

func (b *browser) do(req *http.Request) *http.Response {
	b.t.Helper()
	for k, v := range b.cookies {
		req.AddCookie(&http.Cookie{Name: k, Value: v})
	}
	if tok := b.cookies["csrf_"]; tok != "" && req.Method != http.MethodGet {
		req.Header.Set("X-Csrf-Token", tok)
	}
	resp, err := b.ta.app.Test(req, -1)
	if err != nil {
		b.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	for _, c := range resp.Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c.Value
	}
	return resp
}

func (b *browser) get(path string) *http.Response {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) postForm(path, form string) *http.Response {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) postJSON(path string, body any) (*http.Response, map[string]any) {
	b.t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		b.t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp := b.do(req)
	return resp, decodeBody(b.t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	data, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode %q: %v", string(data), err)
	}
	return out
}

func readBody(resp *http.Response) string {
	data, _ := io.ReadAll(resp.Body)
	return string(data)
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	b  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedBuf{b: &buf, mu: &mu})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var e logEntry
		if err := json.Unmarshal([]byte(strings.TrimSpace(line)), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func hasAction(entries []logEntry, action string) bool {
	for _, e := range entries {
		if e.Action == action {
			return true
		}
	}
	return false
}
