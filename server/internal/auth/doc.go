// Package auth provides API key authentication for dicekv-server.
//
// HTTPMiddleware(mode, header, key) guards the REST API and the legacy /db
// protocol; a missing or wrong key gets 401 with a JSON error body.
// APIKeyInterceptor(mode, header, key) does the same for the gRPC health
// probe and returns codes.Unauthenticated.
//
// When mode != "apikey" or key == "", everything passes through, which is
// what local development with auth disabled wants.
package auth
