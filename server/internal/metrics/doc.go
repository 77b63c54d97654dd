// Package metrics exposes store statistics in the Prometheus exposition
// format at /metrics. Families are built directly as client_model values
// from a store.Stats snapshot on every scrape; nothing is registered
// globally.
package metrics
