// Package types defines the JSON payloads shared by the dicekv server API and
// the dicectl client. Record ids are encoded as decimal strings so that
// clients with 53-bit numbers do not corrupt them.
package types
