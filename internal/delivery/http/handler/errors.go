package handler

import (
	"errors"
	"net/http"

	"hospital-frontdesk/internal/usecase"
	"hospital-frontdesk/pkg/response"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// serverError answers 503 for retryable infrastructure failures and 500 otherwise
func serverError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, usecase.ErrUnavailable) {
		response.ServiceUnavailable(w, "Service temporarily unavailable, please retry")
		return
	}
	response.InternalServerError(w, message)
}

// pathUUID parses the named route variable
func pathUUID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
