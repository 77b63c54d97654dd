package main

import (
	"log/slog"
	"net/http"

	"github.com/dicekv/dicekv/server/internal/alerts"
	"github.com/dicekv/dicekv/server/internal/api"
	"github.com/dicekv/dicekv/server/internal/auth"
	"github.com/dicekv/dicekv/server/internal/config"
	"github.com/dicekv/dicekv/server/internal/metrics"
	"github.com/dicekv/dicekv/server/internal/store"
	"github.com/dicekv/dicekv/server/internal/ws"
)

// server holds the components that serve HTTP and follow config reloads.
type server struct {
	store   *store.Store
	evictor *store.Evictor
	alerts  *alerts.Engine
	hub     *ws.Hub
	limiter *api.RateLimiter
	level   *slog.LevelVar
}

// handler builds the HTTP surface. Health and metrics stay reachable without
// an API key so probes and scrapers need no credentials.
func (s *server) handler(ac config.AuthConfig) http.Handler {
	apiH := api.New(s.store, s.evictor, s.alerts)

	mux := http.NewServeMux()
	mux.Handle("/api/", api.Compress(apiH))
	mux.Handle("/db", apiH)
	mux.Handle("/ws/records", s.hub)
	mux.Handle("/metrics", api.Compress(metrics.Handler(s.store, s.evictor)))

	return api.Chain(mux,
		api.RequestID,
		api.Logging,
		s.limiter.Middleware,
		auth.HTTPMiddleware(ac.Mode, ac.EffectiveHeader(), ac.Key(), "/api/v1/health", "/metrics"),
	)
}

// reload applies the settings that can change without a restart. Ports,
// auth and the random seed are read once at startup.
func (s *server) reload(cfg *config.Config) {
	sc := cfg.Server
	s.level.Set(sc.Level())
	s.evictor.SetInterval(sc.Eviction.Interval)
	s.hub.SetInterval(sc.Stream.Interval)
	s.limiter.SetLimit(sc.RateLimit.RPS, sc.RateLimit.EffectiveBurst())
	s.alerts.Reload(sc.Alerts)

	slog.Info("config applied",
		"log_level", sc.LogLevel,
		"sweep_interval", sc.Eviction.Interval,
		"stream_interval", sc.Stream.Interval,
		"rate_limit_rps", sc.RateLimit.RPS,
		"alert_rules", len(sc.Alerts.Rules),
	)
}
