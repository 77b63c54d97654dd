// Package ws streams record snapshots to WebSocket clients.
//
// A Hub keeps the set of connected clients and pushes the full record list
// to each of them every interval, plus immediately on connect and whenever
// Notify is called (the server calls it after each eviction).
//
// Every message has the shape
//
//	{"event": "snapshot", "data": <GET /api/v1/snapshot body>}
//
// The server mounts the hub at /ws/records. All origins are accepted.
package ws
