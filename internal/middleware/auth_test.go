package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pokecatch/pokecatch/internal/auth"
	"github.com/pokecatch/pokecatch/internal/metrics"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newAuthHandler(t *testing.T, now *time.Time) (http.Handler, *auth.TokenIssuer, *metrics.InMemoryRecorder, *bytes.Buffer) {
	t.Helper()

	issuer, err := auth.NewTokenIssuer(testSecret, auth.WithTokenClock(func() time.Time { return *now }))
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	rec := metrics.NewInMemory()

	mw := Auth(AuthConfig{
		Logger:   slog.New(slog.NewJSONHandler(&buf, nil)),
		Verifier: issuer,
		Metrics:  rec,
	})
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(auth.UserIDFromContext(r.Context())))
	}))
	return h, issuer, rec, &buf
}

func TestAuth_ValidToken(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	h, issuer, _, _ := newAuthHandler(t, &now)

	token, _, err := issuer.Issue("user-1")
	if err != nil {
		t.Fatal(err)
	}

	for _, scheme := range []string{"Bearer", "bearer"} {
		req := httptest.NewRequest(http.MethodGet, "/protected/caught", nil)
		req.Header.Set("Authorization", scheme+" "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d, want 200", scheme, rec.Code)
		}
		if rec.Body.String() != "user-1" {
			t.Errorf("%s: user in context = %q", scheme, rec.Body.String())
		}
	}
}

func TestAuth_Failures(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	other, err := auth.NewTokenIssuer("ffffffffffffffffffffffffffffffff", auth.WithTokenClock(func() time.Time { return now }))
	if err != nil {
		t.Fatal(err)
	}
	forged, _, _ := other.Issue("user-1")

	tests := []struct {
		name       string
		header     string
		advance    time.Duration
		wantReason string
	}{
		{"missing header", "", 0, "missing"},
		{"wrong scheme", "Basic dXNlcjpwYXNz", 0, "missing"},
		{"empty token", "Bearer ", 0, "missing"},
		{"garbage", "Bearer not-a-token", 0, "malformed"},
		{"wrong secret", "Bearer " + forged, 0, "signature"},
		{"expired", "", 2 * time.Hour, "expired"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			clock := now
			h, issuer, recorder, logs := newAuthHandler(t, &clock)

			header := tt.header
			if tt.wantReason == "expired" {
				token, _, err := issuer.Issue("user-1")
				if err != nil {
					t.Fatal(err)
				}
				header = "Bearer " + token
				clock = clock.Add(tt.advance)
			}

			req := httptest.NewRequest(http.MethodPost, "/protected/catch", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}

			var body errorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("body is not JSON: %s", rec.Body.String())
			}
			if body.Message != "Unauthorized" || body.Code != CodeUnauthorized {
				t.Errorf("body = %+v", body)
			}

			if got := recorder.Snapshot().AuthFailures[tt.wantReason]; got != 1 {
				t.Errorf("auth failures[%s] = %d, want 1", tt.wantReason, got)
			}
			if !strings.Contains(logs.String(), `"reason":"`+tt.wantReason+`"`) {
				t.Errorf("reason not logged: %s", logs.String())
			}
		})
	}
}
