package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/arduwire/arduwire/hardware/gpio"
	"github.com/arduwire/arduwire/registry"
	"github.com/arduwire/arduwire/session"
	"github.com/arduwire/arduwire/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

// respond encodes the data and ResponseError to JSON and responds with it and
// the http code. If the encoding fails, sets an InternalServerError.
func respond(w http.ResponseWriter, data interface{}, httpCode int) {
	var resp interface{}
	if v, ok := data.(error); ok {
		resp = errorResponse{Error: v.Error()}
	} else {
		resp = data
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpCode)

	if resp != nil {
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// respondErr responds with err and the http code matching its cause.
func respondErr(w http.ResponseWriter, err error) {
	respond(w, err, errorCode(err))
}

func errorCode(err error) int {
	switch {
	case errors.Is(err, registry.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrNoBoard):
		return http.StatusServiceUnavailable
	case errors.Is(err, gpio.ErrNoReading):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
