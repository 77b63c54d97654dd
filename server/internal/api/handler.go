package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dicekv/dicekv/pkg/types"
	"github.com/dicekv/dicekv/server/internal/alerts"
	"github.com/dicekv/dicekv/server/internal/store"
	"github.com/dicekv/dicekv/server/internal/value"
)

// maxBodyBytes bounds write request bodies.
const maxBodyBytes = 1 << 20

const recordsPrefix = "/api/v1/records/"

// Handler is the HTTP handler for all /api/v1/* endpoints and /db.
type Handler struct {
	store   *store.Store
	evictor *store.Evictor // optional; reports the sweep interval
	alerts  *alerts.Engine // optional
	mux     *http.ServeMux
}

// New creates a Handler wired to the given store and registers all routes.
// ev and ae may be nil.
func New(st *store.Store, ev *store.Evictor, ae *alerts.Engine) http.Handler {
	h := &Handler{store: st, evictor: ev, alerts: ae, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/records", h.records)
	h.mux.HandleFunc(recordsPrefix, h.record) // subtree, extracts {id}
	h.mux.HandleFunc("/api/v1/stats", h.stats)
	h.mux.HandleFunc("/api/v1/snapshot", h.snapshot)
	h.mux.HandleFunc("/api/v1/alerts", h.listAlerts)
	h.mux.HandleFunc("/db", h.legacy)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, types.HealthResponse{Status: "ok", Records: h.store.Count()})
}

// records serves GET (list) and POST (create) on /api/v1/records.
func (h *Handler) records(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		entries := h.store.List()
		out := make([]types.RecordResponse, 0, len(entries))
		for _, e := range entries {
			out = append(out, toRecordResponse(e))
		}
		jsonResp(w, http.StatusOK, out)

	case http.MethodPost:
		raw, err := rawValue(r, "Data")
		if err != nil {
			jsonErr(w, http.StatusBadRequest, err.Error())
			return
		}
		v := value.FromText(raw)
		id := h.store.Create(v)
		w.Header().Set("Location", recordsPrefix+strconv.FormatUint(id, 10))
		jsonResp(w, http.StatusCreated, h.readBack(id, v))

	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// record serves GET, PUT, PATCH and DELETE on /api/v1/records/{id}.
func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Path, recordsPrefix)
	if raw == "" {
		h.records(w, r)
		return
	}
	id, err := parseID(raw)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		rec, ok := h.store.Read(id)
		if !ok {
			jsonErr(w, http.StatusNotFound, "record not found")
			return
		}
		jsonResp(w, http.StatusOK, toRecordResponse(store.Entry{ID: id, Record: rec}))

	case http.MethodPut, http.MethodPatch:
		raw, err := rawValue(r, "New-Data")
		if err != nil {
			jsonErr(w, http.StatusBadRequest, err.Error())
			return
		}
		v := value.FromText(raw)
		if err := h.store.Update(id, v); err != nil {
			storeErr(w, err)
			return
		}
		jsonResp(w, http.StatusOK, h.readBack(id, v))

	case http.MethodDelete:
		if err := h.store.Delete(id); err != nil {
			storeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// stats returns GET /api/v1/stats.
func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	s := h.store.Stats()
	resp := types.StatsResponse{
		Records: s.Records,
		Created: s.Created,
		Updated: s.Updated,
		Deleted: s.Deleted,
		Evicted: s.Evicted,
		Sweeps:  s.Sweeps,
		Misses:  s.Misses,
	}
	if s.Sweeps > 0 {
		resp.EvictionRatio = float64(s.Evicted) / float64(s.Sweeps)
	}
	if h.evictor != nil {
		resp.SweepInterval = h.evictor.Interval().String()
	}
	jsonResp(w, http.StatusOK, resp)
}

// snapshot returns GET /api/v1/snapshot.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, BuildSnapshot(h.store))
}

// listAlerts returns GET /api/v1/alerts.
func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.alerts == nil {
		jsonResp(w, http.StatusOK, []*alerts.Alert{})
		return
	}
	jsonResp(w, http.StatusOK, h.alerts.Active())
}

// BuildSnapshot lists every live record. Used by the snapshot endpoint and
// the WebSocket hub.
func BuildSnapshot(st *store.Store) types.SnapshotResponse {
	entries := st.List()
	out := make([]types.RecordResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toRecordResponse(e))
	}
	return types.SnapshotResponse{
		Records:     out,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// --- helpers ----------------------------------------------------------------

// readBack returns the stored record for a write that just succeeded. The
// evictor may have removed it in between; the response then carries only
// what the caller sent.
func (h *Handler) readBack(id uint64, v value.Value) types.RecordResponse {
	rec, ok := h.store.Read(id)
	if !ok {
		return partialRecord(id, v)
	}
	return toRecordResponse(store.Entry{ID: id, Record: rec})
}

// parseID parses a decimal record id.
func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// rawValue extracts the raw value text from header, or from a JSON
// {"value": "..."} body when the header is absent.
func rawValue(r *http.Request, header string) (string, error) {
	if vals, ok := r.Header[http.CanonicalHeaderKey(header)]; ok && len(vals) > 0 {
		return vals[0], nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return "", errors.New("read body: " + err.Error())
	}
	if len(body) > maxBodyBytes {
		return "", errors.New("body too large")
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", errors.New("value is required (JSON body or " + header + " header)")
	}

	var req types.WriteRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return "", errors.New("invalid JSON body")
	}
	if req.Value == nil {
		return "", errors.New("value is required")
	}
	return *req.Value, nil
}

// storeErr maps a store error to a response. NotFound is the only kind the
// store produces.
func storeErr(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		jsonErr(w, http.StatusNotFound, err.Error())
		return
	}
	jsonErr(w, http.StatusInternalServerError, err.Error())
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, types.ErrorResponse{Error: msg})
}
