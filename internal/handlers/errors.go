package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"todolist/internal/logger"
	"todolist/internal/service"
)

// writeBusinessError normalizes a service error into the failure
// envelope. NOT_FOUND passes through untouched; anything unrecognized
// becomes a 500 so the process never crashes on a lower-layer failure.
func writeBusinessError(w http.ResponseWriter, err error) {
	var businessErr *service.BusinessError
	if !errors.As(err, &businessErr) {
		logger.Error("HTTP: unclassified error", err)
		respondError(w, http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}

	statusCode := mapBusinessErrorToHTTP(businessErr.Code)
	logger.Warn("HTTP: business error",
		zap.String("error_code", businessErr.Code),
		zap.Int("http_status", statusCode))

	extras := []Payload{}
	if businessErr.Details != nil {
		extras = append(extras, toPayload("details", businessErr.Details))
	}

	// the error field carries the wrapped cause when there is one, so a
	// storage failure surfaces its message for diagnostics
	errDetail := businessErr.Code
	if businessErr.Err != nil {
		errDetail = businessErr.Err.Error()
		extras = append(extras, toPayload("code", businessErr.Code))
	}
	respondError(w, statusCode, businessErr.Message, errDetail, extras...)
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeValidation:
		return http.StatusUnprocessableEntity
	case service.CodePersistence:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
