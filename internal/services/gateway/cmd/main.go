package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/LeonardoBeccarini/farmtech/internal/services/gateway/app"
)

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func main() {
	port := getenv("PORT", "5009")
	g := app.NewGateway(app.Config{
		ControllerBaseURL: getenv("CONTROLLER_URL", "http://irrigation-controller:8080"),
		EventsBaseURL:     getenv("EVENT_URL", "http://event-service:8080"),
		HTTPTimeout:       time.Duration(getenvInt("TIMEOUT_MS", 3000)) * time.Millisecond,
		BreakerFailures:   getenvInt("CB_FAILS", 3),
		BreakerOpenFor:    time.Duration(getenvInt("CB_OPEN_MS", 10000)) * time.Millisecond,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/overview", g.HandleOverview)

	srv := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("gateway: listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("gateway: http: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Printf("gateway: stopped")
}
