package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/RezaEskandarii/gohire/custom_errors"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.WithError(err).Warn("failed to encode response")
	}
}

// writeError maps the error taxonomy onto HTTP statuses. Unexpected errors are logged, not echoed.
func writeError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	var (
		verr *custom_errors.ValidationError
		nf   *custom_errors.NotFoundError
		se   *custom_errors.StateError
	)
	switch {
	case errors.As(err, &verr):
		resp := errorResponse{Error: "validation failed"}
		for _, e := range verr.Errors {
			resp.Details = append(resp.Details, e.Error())
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.As(err, &nf):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: nf.Error()})
	case errors.As(err, &se):
		writeJSON(w, http.StatusConflict, errorResponse{Error: se.Error()})
	default:
		log.WithError(err).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return custom_errors.NewValidationError("request body is required")
		}
		return custom_errors.NewValidationError("invalid request body: %v", err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, custom_errors.NewValidationError("invalid %s %q", name, r.PathValue(name))
	}
	return id, nil
}

// queryInt returns def when the parameter is absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, custom_errors.NewValidationError("invalid %s %q", name, raw)
	}
	return n, nil
}

func queryInt64(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, custom_errors.NewValidationError("invalid %s %q", name, raw)
	}
	return n, nil
}

// queryTime accepts RFC 3339 timestamps and plain dates. A missing parameter yields def.
func queryTime(r *http.Request, name string, def time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, custom_errors.NewValidationError("invalid %s %q", name, raw)
}
