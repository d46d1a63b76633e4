package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/mtaylor91/bingo-server/pkg"
	"github.com/mtaylor91/bingo-server/pkg/game"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
)

func newEventsHandler(cfg *Config, manager *pkg.Manager) http.Handler {
	eventsRouter := mux.NewRouter()
	manager.RegisterRoutes(eventsRouter)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
	})

	return promhttp.InstrumentHandlerInFlight(pkg.BingoServerInFlightGauge,
		promhttp.InstrumentHandlerCounter(pkg.BingoServerRequestsCounter,
			corsHandler.Handler(eventsRouter)))
}

func newMetricsHandler() http.Handler {
	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())
	return metricsRouter
}

// Serve runs the events server, and the metrics server when enabled, until
// ctx is cancelled or a server fails.
func Serve(ctx context.Context, cfg *Config) error {
	seed := cfg.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	manager := pkg.NewManager(pkg.ManagerOptions{
		AllowedOrigins: cfg.allowedOrigins,
		SendBuffer:     cfg.sendBuffer,
	})
	registry := game.NewRegistry(game.NewShuffler(seed), game.NewRoomCode)
	coordinator := game.NewCoordinator(registry, manager)
	manager.SetDispatcher(coordinator)

	servers := []*http.Server{{
		Addr:              net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)),
		Handler:           newEventsHandler(cfg, manager),
		ReadHeaderTimeout: 10 * time.Second,
	}}

	if cfg.metricsPort != 0 {
		servers = append(servers, &http.Server{
			Addr:              net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.metricsPort)),
			Handler:           newMetricsHandler(),
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	errs := make(chan error, len(servers))

	for _, srv := range servers {
		srv := srv
		log.Infof("Starting server on %s...", srv.Addr)
		go func() {
			err := srv.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- fmt.Errorf("server on %s failed: %w", srv.Addr, err)
			}
		}()
	}

	var err error
	select {
	case <-ctx.Done():
	case err = <-errs:
		log.Error(err)
	}

	coordinator.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, srv := range servers {
		log.Infof("Shutting down server on %s...", srv.Addr)
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error("Server shutdown failed: ", shutdownErr)
			if err == nil {
				err = shutdownErr
			}
		}
	}

	return err
}
