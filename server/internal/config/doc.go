// Package config loads the dicekv server configuration from the `server:`
// section of a YAML file.
//
// Config fields:
//   - HTTPPort          : REST API, legacy /db, WebSocket and /metrics (default 4321)
//   - GRPCPort          : gRPC health probe; 0 disables it (default 0)
//   - LogLevel          : debug | info | warn | error (default info)
//   - Auth.Mode         : "apikey" or "none"
//   - Auth.KeyEnv       : environment variable holding the expected API key
//   - Auth.Header       : header / gRPC metadata key (default "x-api-key")
//   - Eviction.Interval : time between eviction sweeps (default 2s)
//   - Eviction.Seed     : non-zero makes all randomness reproducible
//   - RateLimit.RPS     : request rate limit; 0 disables it
//   - Stream.Interval   : WebSocket broadcast interval (default 5s)
//   - Alerts            : threshold rules over store statistics and webhooks
//
// Load(path) applies defaults before unmarshalling, then validates.
// Watch(ctx, path, onChange) reloads the file on change with fsnotify.
package config
