package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"reflect"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServer_ServesUntilCancelled(t *testing.T) {
	t.Parallel()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	srv := New(handler, Config{ShutdownTimeout: time.Second}, testLogger())

	var mu sync.Mutex
	var order []string
	record := func(name string) ShutdownFunc {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		}
	}
	srv.OnShutdown("store", record("store"))
	srv.OnShutdown("catalog", record("catalog"))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusTeapot {
		t.Errorf("status = %d, want 418", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	if want := []string{"catalog", "store"}; !reflect.DeepEqual(order, want) {
		t.Errorf("shutdown order = %v, want %v", order, want)
	}
}

func TestServer_HookErrorsAreJoined(t *testing.T) {
	t.Parallel()

	srv := New(http.NotFoundHandler(), Config{ShutdownTimeout: time.Second}, testLogger())
	errClose := errors.New("close failed")
	ran := false
	srv.OnShutdown("first", func(context.Context) error {
		ran = true
		return nil
	})
	srv.OnShutdown("broken", func(context.Context) error { return errClose })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = srv.Serve(ctx, ln)
	if !errors.Is(err, errClose) {
		t.Errorf("error = %v, want it to wrap %v", err, errClose)
	}
	if !ran {
		t.Error("hooks after a failing one should still run")
	}
}

func TestServer_Addr(t *testing.T) {
	t.Parallel()

	srv := New(http.NotFoundHandler(), Config{Port: 9090}, testLogger())
	if srv.Addr() != ":9090" {
		t.Errorf("Addr = %q", srv.Addr())
	}
}
