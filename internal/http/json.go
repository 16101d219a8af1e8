package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"
)

// DecodeJSON strictly decodes the request body into dst. Unknown fields are
// rejected so typos in credential payloads surface as 400s instead of being
// silently dropped. On failure the error response has already been written
// and false is returned.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Err: err})
		return false
	}
	return true
}

// WriteJSON encodes v into a buffer first so an encoding failure can still
// answer 500 instead of a half-written body.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	// A write failure here means the client went away; nothing to recover.
	_, _ = buf.WriteTo(w)
}

// ErrorParams groups the inputs for WriteError.
type ErrorParams struct {
	Code    int    // HTTP status
	ErrCode string // machine-readable error token
	Err     error  // human-readable detail, surfaced as "message"
}

// WriteError writes the gateway's JSON error shape: {"error": ..., "message": ...}.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	WriteJSON(w, p.Code, map[string]string{"error": p.ErrCode, "message": p.Err.Error()})
}
