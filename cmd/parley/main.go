package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/gmasi/parley/internal/catalog"
	"github.com/gmasi/parley/internal/config"
	"github.com/gmasi/parley/internal/httpapi"
	"github.com/gmasi/parley/internal/livekit"
	"github.com/gmasi/parley/internal/observability"
	"github.com/gmasi/parley/internal/realtime"
	"github.com/gmasi/parley/internal/store"
	"github.com/gmasi/parley/internal/token"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("dotenv load skipped: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	persister, err := store.NewPersister(ctx, cfg.StorageURL)
	if err != nil {
		log.Fatalf("persistence init failed: %v", err)
	}
	defer persister.Close()

	st, err := store.New(ctx, persister, cfg.StorageNamespace)
	if err != nil {
		log.Fatalf("store init failed: %v", err)
	}
	st.SetHooks(
		func(op string) { metrics.StoreMutations.WithLabelValues(op).Inc() },
		func(error) { metrics.PersistErrors.Inc() },
	)

	var client realtime.MediaClient
	var lkClient *livekit.SignalClient
	resolvedProvider := cfg.MediaProvider

	tryLiveKit := func() bool {
		if cfg.LiveKitHost == "" {
			return false
		}
		lkClient = livekit.NewSignalClient(livekit.Config{PingInterval: cfg.SignalPingInterval})
		client = lkClient
		resolvedProvider = "livekit"
		log.Printf("media provider: livekit signal (%s)", cfg.LiveKitHost)
		return true
	}

	switch cfg.MediaProvider {
	case "livekit":
		if !tryLiveKit() {
			log.Fatalf("MEDIA_PROVIDER=livekit but LIVEKIT_HOST is not set")
		}
	case "mock":
		client = realtime.NewMockClient()
		resolvedProvider = "mock"
		log.Printf("media provider: mock")
	case "auto":
		if !tryLiveKit() {
			client = realtime.NewMockClient()
			resolvedProvider = "mock"
			log.Printf("media provider: mock (no LIVEKIT_HOST configured)")
		}
	}
	cfg.MediaProvider = resolvedProvider

	coord := realtime.NewCoordinator(client)
	coord.SetTransitionHook(func(_ realtime.ConnectionState, call realtime.CallState) {
		metrics.CallTransitions.WithLabelValues(string(call)).Inc()
	})
	if lkClient != nil {
		lkClient.SetEventHandler(coord.OnTransportEvent)
	}

	issuer := token.NewIssuer(cfg.LiveKitAPIKey, cfg.LiveKitAPISecret, cfg.TokenTTL)
	if !issuer.Configured() {
		log.Printf("token signing credentials not set; /api/token will refuse requests")
	}

	api := httpapi.New(cfg, st, catalog.NewStaticProvider(nil), coord, issuer, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	// Sampled call state keeps the session gauge honest even when the
	// transport drops a session behind the API's back.
	go func() {
		for snap := range coord.Watch(runCtx, cfg.PollInterval) {
			if snap.Session != nil && snap.Session.Active {
				metrics.ActiveSession.Set(1)
			} else {
				metrics.ActiveSession.Set(0)
			}
		}
	}()

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
