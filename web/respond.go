package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/facturo/facturo/app"
	"github.com/facturo/facturo/ports"
)

type errorBody struct {
	Error string `json:"error"`
	Plan  string `json:"plan,omitempty"`
	Limit int64  `json:"limit,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// writeError maps application errors onto HTTP status codes.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var limitErr *app.LimitExceededError
	var transitionErr *app.InvalidTransitionError
	var validationErr *app.ValidationError

	switch {
	case errors.Is(err, ports.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.As(err, &limitErr):
		writeJSON(w, http.StatusPaymentRequired, errorBody{
			Error: limitErr.Error(),
			Plan:  limitErr.Plan,
			Limit: limitErr.Limit,
		})
	case errors.As(err, &transitionErr):
		writeJSON(w, http.StatusConflict, errorBody{Error: transitionErr.Error()})
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: validationErr.Error()})
	case errors.Is(err, app.ErrConflict), errors.Is(err, ports.ErrDuplicate):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	default:
		h.logger.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

// decode parses a JSON request body into v.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (h *Handler) badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}
