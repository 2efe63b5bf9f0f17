package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/giftsplit/internal/auth"
	"github.com/mmynk/giftsplit/internal/config"
	"github.com/mmynk/giftsplit/internal/metrics"
	"github.com/mmynk/giftsplit/internal/middleware"
	"github.com/mmynk/giftsplit/internal/service"
	"github.com/mmynk/giftsplit/internal/session"
	"github.com/mmynk/giftsplit/internal/storage/sqlite"
	"github.com/mmynk/giftsplit/pkg/logging"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	hashHostKey := flag.String("hash-host-key", "", "print the bcrypt hash of a host key and exit")
	flag.Parse()

	if *hashHostKey != "" {
		hash, err := auth.HashHostKey(*hashHostKey)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level)

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.Database.Path)

	collector := metrics.New()
	collector.Registry().MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	sessions := session.NewManager(session.ManagerOptions{
		IdleTTL:            cfg.Session.IdleTTL,
		ReseedOnEqualInput: cfg.Session.ReseedOnEqualInput,
		Observer:           collector,
		Logger:             slog.Default(),
	})
	go session.NewJanitor(sessions, cfg.Session.SweepInterval, slog.Default()).Run(ctx)

	tokens := auth.NewTokenManager(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)
	hosts := auth.NewHostKeyAuthenticator(cfg.Auth.HostKeyHash)
	if !hosts.Enabled() {
		slog.Warn("Host key check disabled, any caller may open sessions")
	}

	svc := service.NewRecipientService(sessions, tokens, store, collector)
	path, handler := service.NewHandler(svc, hosts,
		connect.WithInterceptors(middleware.LoggingInterceptor(), collector.Interceptor()),
	)

	mux := http.NewServeMux()
	mux.Handle(path, handler)
	mux.Handle("/metrics", collector.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// h2c for HTTP/2 without TLS (required for Connect streaming clients)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           h2c.NewHandler(corsMiddleware(mux), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", server.Addr, "url", fmt.Sprintf("http://localhost%s", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down", "open_sessions", sessions.Len())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// corsMiddleware adds CORS headers so host pages can call the service.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Connect-Protocol-Version, Connect-Timeout-Ms, "+middleware.HostKeyHeader)
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms, "+middleware.SessionHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
