package handlers

import (
	"errors"
	"net/http"

	"trimly/utils"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps the service error taxonomy onto HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	var (
		validationErr *utils.ValidationError
		notFoundErr   *utils.NotFoundError
		conflictErr   *utils.ConflictError
		transientErr  *utils.TransientError
	)
	switch {
	case errors.As(err, &validationErr):
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", validationErr.Message)
	case errors.As(err, &notFoundErr):
		utils.JSONError(c, http.StatusNotFound, "Not found", notFoundErr.Error())
	case errors.As(err, &conflictErr):
		utils.JSONError(c, http.StatusConflict, "Slot unavailable", conflictErr.Error())
	case errors.As(err, &transientErr):
		utils.JSONError(c, http.StatusServiceUnavailable, "Temporarily unavailable", "Please retry the request.")
	default:
		utils.JSONError(c, http.StatusInternalServerError, "Internal error", err.Error())
	}
}

// partialWarning extracts the soft warning from a PartialFailure, if any.
// The primary state change has already committed in that case, so the
// request still succeeds.
func partialWarning(err error) (string, bool) {
	var partial *utils.PartialFailure
	if errors.As(err, &partial) {
		return partial.Warning, true
	}
	return "", false
}
