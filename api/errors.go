package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/flightseats/internal/api/errmap"
	"github.com/Domenick1991/flightseats/internal/domain"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeError answers with the status mapped from err. notFound is the
// message for a missing resource and failure the message for anything the
// caller cannot fix.
func writeError(c *gin.Context, err error, notFound, failure string) {
	code := errmap.HTTPStatus(err)

	msg := failure
	switch {
	case errors.Is(err, domain.ErrNotFound):
		msg = notFound
	case errors.Is(err, domain.ErrNoCapacity):
		msg = "No seats available"
	case errors.Is(err, domain.ErrInvalidArgument):
		msg = err.Error()
	}

	if code >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(code, errorResponse{Error: msg})
}
