package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dicekv/dicekv/server/internal/value"
)

// Header names of the /db protocol.
const (
	headerData    = "Data"
	headerDataID  = "Data-Id"
	headerNewData = "New-Data"
)

// legacy serves the header-driven /db protocol:
//
//	POST   Data: <raw>                   -> {"status":"ok","id":"<id>"}
//	GET    Data-Id: <id>                 -> {"status":"ok","data":<value>,"display":"<render>"}
//	PATCH  Data-Id: <id>, New-Data: <raw> -> {"status":"ok"}
//	DELETE Data-Id: <id>                 -> {"status":"ok"}
//
// Every failure, including a missing record, is a 400 with
// {"status":"error","message":"..."}.
func (h *Handler) legacy(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		raw, ok := legacyHeader(w, r, headerData)
		if !ok {
			return
		}
		id := h.store.Create(value.FromText(raw))
		legacyResp(w, http.StatusOK, legacyResponse{Status: "ok", ID: strconv.FormatUint(id, 10)})

	case http.MethodGet:
		id, ok := legacyID(w, r)
		if !ok {
			return
		}
		rec, found := h.store.Read(id)
		if !found {
			legacyErr(w, "Cannot read data with that id")
			return
		}
		legacyResp(w, http.StatusOK, legacyResponse{
			Status:  "ok",
			Data:    rec.Value.Native(),
			Display: rec.Value.String(),
		})

	case http.MethodPatch:
		id, ok := legacyID(w, r)
		if !ok {
			return
		}
		raw, ok := legacyHeader(w, r, headerNewData)
		if !ok {
			return
		}
		if err := h.store.Update(id, value.FromText(raw)); err != nil {
			legacyErr(w, err.Error())
			return
		}
		legacyResp(w, http.StatusOK, legacyResponse{Status: "ok"})

	case http.MethodDelete:
		id, ok := legacyID(w, r)
		if !ok {
			return
		}
		if err := h.store.Delete(id); err != nil {
			legacyErr(w, err.Error())
			return
		}
		legacyResp(w, http.StatusOK, legacyResponse{Status: "ok"})

	default:
		legacyResp(w, http.StatusMethodNotAllowed, legacyResponse{Status: "error", Message: "method not allowed"})
	}
}

// legacyHeader returns the named header or writes the 400 response.
func legacyHeader(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	vals, ok := r.Header[http.CanonicalHeaderKey(name)]
	if !ok || len(vals) == 0 {
		legacyErr(w, "Header: "+name+" is required")
		return "", false
	}
	return vals[0], true
}

// legacyID parses the Data-Id header or writes the 400 response.
func legacyID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	raw, ok := legacyHeader(w, r, headerDataID)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		legacyErr(w, "Invalid Id")
		return 0, false
	}
	return id, true
}

func legacyResp(w http.ResponseWriter, code int, v legacyResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func legacyErr(w http.ResponseWriter, msg string) {
	legacyResp(w, http.StatusBadRequest, legacyResponse{Status: "error", Message: msg})
}
