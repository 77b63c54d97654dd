// Package api implements the HTTP adapter for dicekv-server.
//
// New(store, evictor, alerts) returns an http.Handler that serves:
//
//	GET    /api/v1/health         store liveness and record count
//	GET    /api/v1/records        all live records ([]RecordResponse)
//	POST   /api/v1/records        create; value from {"value": "..."} or the Data header
//	GET    /api/v1/records/{id}   single record; 404 if absent
//	PUT    /api/v1/records/{id}   replace value; 404 if absent (PATCH is an alias)
//	DELETE /api/v1/records/{id}   remove; 404 if absent
//	GET    /api/v1/stats          store counters and sweep interval
//	GET    /api/v1/snapshot       all records + generated_at
//	GET    /api/v1/alerts         firing and recently resolved alerts
//	*      /db                    legacy header protocol (Data, Data-Id, New-Data)
//
// Ids are decimal uint64 strings. Malformed ids are rejected with 400 before
// the store is touched. Raw values are classified by value.FromText.
//
// middleware.go holds the request id, logging, rate limiting and gzip wrappers the
// server composes around this handler. JSON payload types live in pkg/types.
package api
