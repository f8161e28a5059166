package server_test

import (
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/JaimeStill/smart-ocr/internal/config"
	"github.com/JaimeStill/smart-ocr/internal/server"
	"github.com/JaimeStill/smart-ocr/pkg/lifecycle"
)

func testConfig() *config.ServerConfig {
	return &config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            0,
		ReadTimeout:     "5s",
		WriteTimeout:    "5s",
		ShutdownTimeout: "5s",
	}
}

func TestStart_ServesAndShutsDown(t *testing.T) {
	inflight := make(chan struct{})
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/slow" {
			close(inflight)
			time.Sleep(100 * time.Millisecond)
		}
		w.Write([]byte("ok"))
	})

	sys := server.New(testConfig(), handler, slog.New(slog.DiscardHandler))
	lc := lifecycle.New()

	if err := sys.Start(lc); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	base := "http://" + sys.Addr()

	resp, err := http.Get(base + "/ping")
	if err != nil {
		t.Fatalf("GET /ping: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "ok" {
		t.Errorf("body = %q, want ok", body)
	}

	done := make(chan int, 1)
	go func() {
		resp, err := http.Get(base + "/slow")
		if err != nil {
			done <- 0
			return
		}
		resp.Body.Close()
		done <- resp.StatusCode
	}()

	<-inflight
	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	if code := <-done; code != http.StatusOK {
		t.Errorf("in-flight status = %d, want %d", code, http.StatusOK)
	}

	if _, err := http.Get(base + "/ping"); err == nil {
		t.Error("server still responding after shutdown")
	}
}

func TestStart_AddressInUse(t *testing.T) {
	lc := lifecycle.New()
	defer lc.Shutdown(time.Second)

	first := server.New(testConfig(), http.NotFoundHandler(), slog.New(slog.DiscardHandler))
	if err := first.Start(lc); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	cfg := testConfig()
	_, port, _ := splitHostPort(first.Addr())
	cfg.Port = port

	second := server.New(cfg, http.NotFoundHandler(), slog.New(slog.DiscardHandler))
	if err := second.Start(lc); err == nil {
		t.Error("Start() error = nil, want address in use")
	}
}

func splitHostPort(addr string) (string, int, error) {
	host, p, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(p)
	return host, port, err
}
