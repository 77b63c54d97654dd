package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dicekv/dicekv/server/internal/alerts"
	"github.com/dicekv/dicekv/server/internal/api"
	"github.com/dicekv/dicekv/server/internal/config"
	"github.com/dicekv/dicekv/server/internal/health"
	"github.com/dicekv/dicekv/server/internal/store"
	"github.com/dicekv/dicekv/server/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config file (built-in defaults when empty)")
	flag.Parse()

	var level slog.LevelVar
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: &level})))

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			slog.Error("failed to load config", "err", err)
			os.Exit(1)
		}
	}
	level.Set(cfg.Server.Level())

	slog.Info("dicekv-server starting",
		"config", *configPath,
		"http_port", cfg.Server.HTTPPort,
		"grpc_port", cfg.Server.GRPCPort,
		"auth_mode", cfg.Server.Auth.Mode,
		"sweep_interval", cfg.Server.Eviction.Interval,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *configPath, &level); err != nil {
		slog.Error("dicekv-server stopped", "err", err)
		os.Exit(1)
	}
	slog.Info("dicekv-server stopped")
}

// run wires every component and blocks until ctx is cancelled or one of
// them fails.
func run(ctx context.Context, cfg *config.Config, configPath string, level *slog.LevelVar) error {
	sc := cfg.Server

	var src store.RandomSource
	if sc.Eviction.Seed != 0 {
		src = store.NewSeeded(sc.Eviction.Seed)
	}
	st := store.New(src)
	ev := store.NewEvictor(st, sc.Eviction.Interval)
	ae := alerts.New(sc.Alerts)
	hub := ws.New(st, sc.Stream.Interval)
	limiter := api.NewRateLimiter(sc.RateLimit.RPS, sc.RateLimit.EffectiveBurst())

	ev.OnSweep(func(s store.Sweep) {
		ae.Evaluate(st.Stats())
		if s.Evicted {
			hub.Notify()
		}
	})

	srv := &server{store: st, evictor: ev, alerts: ae, hub: hub, limiter: limiter, level: level}
	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", sc.HTTPPort),
		Handler:           srv.handler(sc.Auth),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var (
		hs      *health.Server
		grpcLis net.Listener
	)
	if sc.GRPCPort > 0 {
		var err error
		grpcLis, err = net.Listen("tcp", fmt.Sprintf(":%d", sc.GRPCPort))
		if err != nil {
			return fmt.Errorf("listen on gRPC port %d: %w", sc.GRPCPort, err)
		}
		hs = health.New(sc.Auth.Mode, sc.Auth.EffectiveHeader(), sc.Auth.Key())
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ev.Run(gctx)
		return nil
	})
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		slog.Info("HTTP server listening", "port", sc.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("dicekv-server shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(sctx)
	})

	if hs != nil {
		g.Go(func() error {
			if err := hs.Serve(grpcLis); err != nil {
				return fmt.Errorf("grpc health: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			hs.Shutdown()
			return nil
		})
	}

	if configPath != "" {
		g.Go(func() error {
			if err := config.Watch(gctx, configPath, srv.reload); err != nil {
				return fmt.Errorf("config watch: %w", err)
			}
			return nil
		})
	}

	return g.Wait()
}
