// Package client is the Go client for the dicekv HTTP API used by dicectl.
//
// A Client carries the base URL, optional API key and TLS settings. Every
// call takes a context. A missing record surfaces as ErrNotFound; other
// non-2xx replies are returned as *APIError with the server's message.
package client
