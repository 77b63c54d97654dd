package types

// RecordResponse is one record in GET /api/v1/records or
// GET /api/v1/records/{id}.
type RecordResponse struct {
	ID              uint64  `json:"id,string"`
	Type            string  `json:"type"`
	Value           any     `json:"value"`
	Display         string  `json:"display"`
	RetentionWeight float64 `json:"retention_weight"`
	CreatedAt       string  `json:"created_at"` // RFC3339
	UpdatedAt       string  `json:"updated_at"` // RFC3339
}

// WriteRequest is the body of POST /api/v1/records and
// PUT|PATCH /api/v1/records/{id}. Value is classified server-side.
type WriteRequest struct {
	Value *string `json:"value"`
}

// StatsResponse is the payload for GET /api/v1/stats.
type StatsResponse struct {
	Records       int     `json:"records"`
	Created       uint64  `json:"created"`
	Updated       uint64  `json:"updated"`
	Deleted       uint64  `json:"deleted"`
	Evicted       uint64  `json:"evicted"`
	Sweeps        uint64  `json:"sweeps"`
	Misses        uint64  `json:"misses"`
	SweepInterval string  `json:"sweep_interval"`
	EvictionRatio float64 `json:"eviction_ratio"`
}

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Records int    `json:"records"`
}

// SnapshotResponse is the payload for GET /api/v1/snapshot and the data of
// every WebSocket broadcast.
type SnapshotResponse struct {
	Records     []RecordResponse `json:"records"`
	GeneratedAt string           `json:"generated_at"` // RFC3339
}

// StreamMessage is the JSON envelope sent to WebSocket clients.
type StreamMessage struct {
	Event string           `json:"event"`
	Data  SnapshotResponse `json:"data"`
}

// ErrorResponse is the generic JSON error body.
type ErrorResponse struct {
	Error string `json:"error"`
}
