package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"smartconnect/internal/services"
)

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func statusFor(k services.Kind) int {
	switch k {
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindInvalidTransition, services.KindConflict:
		return http.StatusConflict
	case services.KindPermissionDenied:
		return http.StatusForbidden
	case services.KindUnauthenticated:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// respondError writes err as {"error", "code"}. Internal errors are logged
// and answered without detail.
func respondError(w http.ResponseWriter, r *http.Request, lg *zap.SugaredLogger, err error) {
	var se *services.Error
	if !errors.As(err, &se) || se.Kind == services.KindInternal {
		lg.Errorw("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error", Code: "internal"})
		return
	}
	respondJSON(w, statusFor(se.Kind), errorBody{Error: se.Message, Code: se.Code})
}

func badRequest(w http.ResponseWriter, code, msg string) {
	respondJSON(w, http.StatusBadRequest, errorBody{Error: msg, Code: code})
}

// decode reads a JSON object body into v. An empty body decodes as {}.
func decode(r *http.Request, v interface{}) error {
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func decodeOrFail(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := decode(r, v); err != nil {
		badRequest(w, "invalid_body", "malformed JSON body: "+err.Error())
		return false
	}
	return true
}
