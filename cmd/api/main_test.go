package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pokecatch/pokecatch/internal/auth"
	"github.com/pokecatch/pokecatch/internal/catalog"
	"github.com/pokecatch/pokecatch/internal/config"
	"github.com/pokecatch/pokecatch/internal/handler/dto"
	"github.com/pokecatch/pokecatch/internal/metrics"
	"github.com/pokecatch/pokecatch/internal/repository/memory"
	"github.com/pokecatch/pokecatch/internal/repository/sqlite"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:             "development",
		JWTSecret:          testSecret,
		RateLimitEnabled:   true,
		CORSAllowedOrigins: "*",
		MaxRequestBodySize: 1 << 20,
		RateLimits: config.RateLimits{
			RegisterLimit:    5,
			RegisterInterval: time.Second,
			LoginLimit:       10,
			LoginInterval:    time.Second,
			CatchLimit:       10,
			CatchInterval:    time.Second,
			ReleaseLimit:     5,
			ReleaseInterval:  time.Second,
			CaughtLimit:      10,
			CaughtInterval:   time.Second,
		},
	}
}

type testEnv struct {
	api      *httptest.Server
	issuer   *auth.TokenIssuer
	recorder *metrics.InMemoryRecorder
	upstream atomic.Int64
}

// newTestEnv serves the API over a memory store, with the catalog client
// pointed at a local stand-in for the upstream service.
func newTestEnv(t *testing.T, cfg *config.Config, st appStore) *testEnv {
	t.Helper()

	env := &testEnv{recorder: metrics.NewInMemory()}

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.upstream.Add(1)
		name := strings.TrimPrefix(r.URL.Path, "/pokemon/")
		if name != "pikachu" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":25,"name":"pikachu"}`)
	}))
	t.Cleanup(upstream.Close)

	client, err := catalog.New(catalog.Config{
		BaseURL: upstream.URL,
		Timeout: 2 * time.Second,
		RPS:     100,
		Burst:   100,
	}, env.recorder)
	if err != nil {
		t.Fatal(err)
	}

	hasher, err := auth.NewPasswordHasher(auth.Argon2Params{Time: 1, Memory: 1024, Threads: 1})
	if err != nil {
		t.Fatal(err)
	}
	env.issuer, err = auth.NewTokenIssuer(testSecret)
	if err != nil {
		t.Fatal(err)
	}

	r, err := newRouter(routerDeps{
		cfg:      cfg,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		store:    st,
		recorder: env.recorder,
		hasher:   hasher,
		issuer:   env.issuer,
		fetcher:  client,
	})
	if err != nil {
		t.Fatalf("newRouter: %v", err)
	}

	env.api = httptest.NewServer(r)
	t.Cleanup(env.api.Close)
	return env
}

func (e *testEnv) request(t *testing.T, method, path, token, body string) (*http.Response, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.api.URL+path, rdr)
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.api.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func (e *testEnv) registerAndLogin(t *testing.T, email string) string {
	t.Helper()

	creds := `{"email":"` + email + `","password":"p"}`
	if resp, body := e.request(t, http.MethodPost, "/register", "", creds); resp.StatusCode != http.StatusOK {
		t.Fatalf("register %s: %d %s", email, resp.StatusCode, body)
	}
	resp, body := e.request(t, http.MethodPost, "/login", "", creds)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: %d %s", email, resp.StatusCode, body)
	}
	var login dto.LoginResponse
	if err := json.Unmarshal(body, &login); err != nil {
		t.Fatal(err)
	}
	return login.Token
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return v
}

func TestScenario_RegisterTwice(t *testing.T) {
	env := newTestEnv(t, testConfig(), memory.New())

	resp, body := env.request(t, http.MethodPost, "/register", "", `{"email":"a@x.com","password":"p"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first register: %d %s", resp.StatusCode, body)
	}
	if msg := decode[dto.MessageResponse](t, body).Message; msg != "a@x.com created successfully" {
		t.Errorf("message = %q", msg)
	}

	resp, body = env.request(t, http.MethodPost, "/register", "", `{"email":"a@x.com","password":"p"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second register: %d, want 409", resp.StatusCode)
	}
	if msg := decode[dto.ErrorResponse](t, body).Message; msg != "Email already exists" {
		t.Errorf("message = %q", msg)
	}
}

func TestScenario_Login(t *testing.T) {
	env := newTestEnv(t, testConfig(), memory.New())

	token := env.registerAndLogin(t, "a@x.com")
	claims, err := env.issuer.Verify(token)
	if err != nil {
		t.Fatalf("token does not verify: %v", err)
	}
	if claims.UserID == "" {
		t.Fatal("token subject is empty")
	}
	if ttl := claims.ExpiresAt.Sub(claims.IssuedAt); ttl != auth.TokenTTL {
		t.Errorf("token lifetime = %s, want %s", ttl, auth.TokenTTL)
	}

	// The subject is the id behind the caller's own records.
	resp, body := env.request(t, http.MethodPost, "/protected/catch", token, `{"name":"pikachu"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("catch: %d %s", resp.StatusCode, body)
	}
	if got := decode[dto.CatchResponse](t, body).Data.UserID; got != claims.UserID {
		t.Errorf("record user_id = %q, token subject = %q", got, claims.UserID)
	}

	resp, body = env.request(t, http.MethodPost, "/login", "", `{"email":"a@x.com","password":"wrong"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong password: %d %s", resp.StatusCode, body)
	}
}

func TestScenario_CatchTwiceAndList(t *testing.T) {
	env := newTestEnv(t, testConfig(), memory.New())
	token := env.registerAndLogin(t, "a@x.com")

	var records []dto.CaughtResponse
	for i := 0; i < 2; i++ {
		resp, body := env.request(t, http.MethodPost, "/protected/catch", token, `{"name":"pikachu"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("catch %d: %d %s", i+1, resp.StatusCode, body)
		}
		records = append(records, decode[dto.CatchResponse](t, body).Data)
	}

	if records[0].ID == records[1].ID {
		t.Errorf("both catches returned record id %s", records[0].ID)
	}
	if records[0].PokemonID != records[1].PokemonID {
		t.Errorf("pokemon ids differ: %s vs %s", records[0].PokemonID, records[1].PokemonID)
	}

	resp, body := env.request(t, http.MethodGet, "/protected/caught", token, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("caught: %d %s", resp.StatusCode, body)
	}
	list := decode[dto.CaughtListResponse](t, body).Data
	if len(list) != 2 {
		t.Fatalf("listed %d records, want 2: %s", len(list), body)
	}
	seen := map[string]bool{records[0].ID: false, records[1].ID: false}
	for _, rec := range list {
		if _, ok := seen[rec.ID]; !ok {
			t.Errorf("unexpected record %s", rec.ID)
		}
		seen[rec.ID] = true
	}
	for id, ok := range seen {
		if !ok {
			t.Errorf("record %s missing from list", id)
		}
	}
}

func TestOwnershipIsolation(t *testing.T) {
	env := newTestEnv(t, testConfig(), memory.New())
	alice := env.registerAndLogin(t, "alice@x.com")
	bob := env.registerAndLogin(t, "bob@x.com")

	_, body := env.request(t, http.MethodPost, "/protected/catch", alice, `{"name":"pikachu"}`)
	aliceRec := decode[dto.CatchResponse](t, body).Data
	_, body = env.request(t, http.MethodPost, "/protected/catch", bob, `{"name":"Pikachu"}`)
	bobRec := decode[dto.CatchResponse](t, body).Data

	if aliceRec.PokemonID != bobRec.PokemonID {
		t.Errorf("same name produced two catalog entries: %s, %s", aliceRec.PokemonID, bobRec.PokemonID)
	}

	resp, _ := env.request(t, http.MethodDelete, "/protected/release/"+aliceRec.ID, bob, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("foreign release: %d", resp.StatusCode)
	}

	_, body = env.request(t, http.MethodGet, "/protected/caught", alice, "")
	if list := decode[dto.CaughtListResponse](t, body).Data; len(list) != 1 || list[0].ID != aliceRec.ID {
		t.Errorf("alice's list after bob's release = %s", body)
	}
	_, body = env.request(t, http.MethodGet, "/protected/caught", bob, "")
	if list := decode[dto.CaughtListResponse](t, body).Data; len(list) != 1 || list[0].ID != bobRec.ID {
		t.Errorf("bob's list = %s", body)
	}
}

func TestRateLimitBeforeAuth(t *testing.T) {
	env := newTestEnv(t, testConfig(), memory.New())

	for i := 0; i < 10; i++ {
		resp, _ := env.request(t, http.MethodGet, "/protected/caught", "", "")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("request %d: status %d, want 401", i+1, resp.StatusCode)
		}
	}

	resp, body := env.request(t, http.MethodGet, "/protected/caught", "", "")
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("11th request: status %d, want 429", resp.StatusCode)
	}
	if msg := decode[dto.ErrorResponse](t, body).Message; msg != "Rate limit exceeded" {
		t.Errorf("message = %q", msg)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}

	// Other routes keep their own windows.
	resp, _ = env.request(t, http.MethodPost, "/protected/catch", "", `{"name":"pikachu"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("catch: status %d, want 401", resp.StatusCode)
	}

	snap := env.recorder.Snapshot()
	if snap.RateLimited["caught"] != 1 {
		t.Errorf("rate limited counter = %v", snap.RateLimited)
	}
	if snap.AuthFailures["missing"] != 11 {
		t.Errorf("auth failures = %v", snap.AuthFailures)
	}
}

func TestRateLimit_RegisterWindowReopens(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimits.RegisterLimit = 2
	cfg.RateLimits.RegisterInterval = 200 * time.Millisecond
	env := newTestEnv(t, cfg, memory.New())

	for i := 0; i < 2; i++ {
		resp, _ := env.request(t, http.MethodPost, "/register", "", `{}`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("request %d: status %d, want 400", i+1, resp.StatusCode)
		}
	}
	if resp, _ := env.request(t, http.MethodPost, "/register", "", `{}`); resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("3rd request: status %d, want 429", resp.StatusCode)
	}

	time.Sleep(450 * time.Millisecond)

	if resp, _ := env.request(t, http.MethodPost, "/register", "", `{}`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("after the interval: status %d, want 400", resp.StatusCode)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitEnabled = false
	env := newTestEnv(t, cfg, memory.New())

	for i := 0; i < 20; i++ {
		resp, _ := env.request(t, http.MethodGet, "/protected/caught", "", "")
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("request %d: status %d, want 401", i+1, resp.StatusCode)
		}
	}
}

func TestPokemonLookup(t *testing.T) {
	env := newTestEnv(t, testConfig(), memory.New())

	resp, body := env.request(t, http.MethodGet, "/pokemon/pikachu", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d: %s", resp.StatusCode, body)
	}
	if got := strings.TrimSpace(string(body)); got != `{"data":{"id":25,"name":"pikachu"}}` {
		t.Errorf("body = %s", got)
	}

	resp, _ = env.request(t, http.MethodGet, "/pokemon/missingno", "", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown pokemon: status %d, want 404", resp.StatusCode)
	}

	// Names that cannot exist never reach the upstream.
	before := env.upstream.Load()
	resp, _ = env.request(t, http.MethodGet, "/pokemon/pika_chu", "", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("invalid name: status %d, want 404", resp.StatusCode)
	}
	if env.upstream.Load() != before {
		t.Error("invalid name was sent upstream")
	}
}

func TestAmbientRoutes(t *testing.T) {
	env := newTestEnv(t, testConfig(), memory.New())

	tests := []struct {
		path   string
		status int
	}{
		{"/", http.StatusOK},
		{"/healthz", http.StatusOK},
		{"/readyz", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		resp, body := env.request(t, http.MethodGet, tt.path, "", "")
		if resp.StatusCode != tt.status {
			t.Errorf("GET %s: status %d, want %d (%s)", tt.path, resp.StatusCode, tt.status, body)
		}
		if resp.Header.Get("X-Request-ID") == "" {
			t.Errorf("GET %s: missing X-Request-ID", tt.path)
		}
		if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
			t.Errorf("GET %s: missing security headers", tt.path)
		}
	}

	resp, _ := env.request(t, http.MethodGet, "/register", "", "")
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /register: status %d, want 405", resp.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, testConfig(), memory.New())

	req, err := http.NewRequest(http.MethodOptions, env.api.URL+"/protected/catch", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Origin", "https://trainer.example")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := env.api.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestSQLiteBackedAPI(t *testing.T) {
	st, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	env := newTestEnv(t, testConfig(), st)
	token := env.registerAndLogin(t, "a@x.com")

	resp, body := env.request(t, http.MethodPost, "/protected/catch", token, `{"name":"pikachu"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("catch: %d %s", resp.StatusCode, body)
	}
	_, body = env.request(t, http.MethodGet, "/protected/caught", token, "")
	if list := decode[dto.CaughtListResponse](t, body).Data; len(list) != 1 {
		t.Errorf("list = %s", body)
	}
}

func TestNewRouter_InvalidLimits(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimits.CatchLimit = 0

	_, err := newRouter(routerDeps{
		cfg:      cfg,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		store:    memory.New(),
		recorder: metrics.NewInMemory(),
	})
	if err == nil {
		t.Fatal("expected an error for a zero limit")
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	st, err := openStore(ctx, "memory://")
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := st.(*memory.Store); !ok {
		t.Errorf("memory:// opened %T", st)
	}

	path := filepath.Join(t.TempDir(), "open.db")
	st, err = openStore(ctx, "sqlite://"+path)
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	if _, ok := st.(*sqlite.Store); !ok {
		t.Errorf("sqlite:// opened %T", st)
	}
	if err := st.Ping(ctx); err != nil {
		t.Errorf("ping: %v", err)
	}
	st.Close()

	for _, raw := range []string{"redis://localhost:6379", "sqlite://", "::bad"} {
		if _, err := openStore(ctx, raw); err == nil {
			t.Errorf("openStore(%q) should fail", raw)
		}
	}
}

func TestRedaction(t *testing.T) {
	raw := "postgres://pokecatch:hunter2@db:5432/pokecatch"

	if got := redactURL(raw); strings.Contains(got, "hunter2") {
		t.Errorf("redactURL leaked the password: %s", got)
	}

	err := errors.New("connect " + raw + " failed; password=hunter2")
	if got := sanitizeError(err, raw); strings.Contains(got, "hunter2") {
		t.Errorf("sanitizeError leaked the password: %s", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
