// Package health serves the standard grpc.health.v1.Health service so
// orchestrators can probe the store over gRPC. The overall status and the
// "dicekv.Store" service report SERVING while the process runs and flip to
// NOT_SERVING when shutdown begins. Unary calls pass through the API key
// interceptor.
package health
