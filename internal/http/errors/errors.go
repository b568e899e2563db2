package errors

import (
	"encoding/json"
	stderrors "errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/jw6ventures/timeclock/internal/clock"
	"github.com/jw6ventures/timeclock/internal/store"
)

// Body is the JSON error payload returned by every API endpoint.
type Body struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[ERROR] encode response: %v", err)
	}
}

// StatusForKind maps a rejection kind to its HTTP status.
func StatusForKind(kind clock.Kind) int {
	switch kind {
	case clock.KindIllegalTransition, clock.KindNonMonotonicTimestamp:
		return http.StatusConflict
	default:
		return http.StatusUnprocessableEntity
	}
}

// Respond writes the client-facing form of err. Domain rejections and store sentinels
// are returned with their message; anything else is logged and hidden behind a 500.
func Respond(w http.ResponseWriter, r *http.Request, err error) {
	var ce *clock.Error
	switch {
	case stderrors.As(err, &ce):
		logWarn(r, "rejected: "+string(ce.Kind), err)
		WriteJSON(w, StatusForKind(ce.Kind), Body{Error: string(ce.Kind), Detail: ce.Message})
	case stderrors.Is(err, store.ErrNotFound):
		WriteJSON(w, http.StatusNotFound, Body{Error: "not_found"})
	case stderrors.Is(err, store.ErrConflict):
		WriteJSON(w, http.StatusConflict, Body{Error: "conflict", Detail: err.Error()})
	case stderrors.Is(err, store.ErrAbsenceDay):
		WriteJSON(w, http.StatusConflict, Body{Error: "absence_day", Detail: err.Error()})
	default:
		InternalError(w, r, err, "request failed")
	}
}

func InternalError(w http.ResponseWriter, r *http.Request, err error, message string) {
	LogError(r, message, err)
	WriteJSON(w, http.StatusInternalServerError, Body{Error: "internal server error"})
}

func BadRequestError(w http.ResponseWriter, r *http.Request, err error, clientMessage string) {
	logWarn(r, "bad request", err)
	WriteJSON(w, http.StatusBadRequest, Body{Error: "bad_request", Detail: clientMessage})
}

func Unauthorized(w http.ResponseWriter) {
	WriteJSON(w, http.StatusUnauthorized, Body{Error: "unauthorized"})
}

func logWarn(r *http.Request, message string, err error) {
	requestID := middleware.GetReqID(r.Context())

	if requestID != "" {
		log.Printf("[WARN] RequestID=%s: %s: %v", requestID, message, err)
	} else {
		log.Printf("[WARN] %s: %v", message, err)
	}
}

func LogError(r *http.Request, message string, err error) {
	requestID := middleware.GetReqID(r.Context())

	if requestID != "" {
		log.Printf("[ERROR] RequestID=%s: %s: %v", requestID, message, err)
	} else {
		log.Printf("[ERROR] %s: %v", message, err)
	}
}

func LogInfo(r *http.Request, message string) {
	requestID := middleware.GetReqID(r.Context())

	if requestID != "" {
		log.Printf("[INFO] RequestID=%s: %s", requestID, message)
	} else {
		log.Printf("[INFO] %s", message)
	}
}
