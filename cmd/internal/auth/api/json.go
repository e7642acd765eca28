package authapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// credErrorBody is the wire shape the auth pages render from; Message is
// always safe to show a visitor verbatim.
type credErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type credErrorEnvelope struct {
	Error credErrorBody `json:"error"`
}

var errBodyTooLarge = errors.New("request body exceeds limit")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, credErrorEnvelope{Error: credErrorBody{Code: code, Message: msg}})
}

// decodeJSON reads one strict JSON value into dst. Unknown fields and
// trailing data are rejected; an oversized body is reported as
// errBodyTooLarge so the caller can answer 413 instead of 400.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return errBodyTooLarge
		}
		return fmt.Errorf("malformed JSON: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("trailing data after JSON value")
	}
	return nil
}
